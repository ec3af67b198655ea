package trigger_http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/vpinfe/score-tracker/internal/adapters/outbound/leaderboard_http"
	"github.com/vpinfe/score-tracker/internal/core/pending"
	"github.com/vpinfe/score-tracker/internal/core/session"
	"github.com/vpinfe/score-tracker/internal/telemetry"
)

// Submitter is the manual submission trigger. The handler never blocks on
// it; submissions run on their own goroutine.
type Submitter interface {
	Submit(ctx context.Context) error
}

// Handler exposes the local control surface the frontend's management UI
// and hotkey bridge talk to.
//
// Routes:
//
//	POST /submit  -> trigger a manual submission (async, 202)
//	GET  /status  -> pending score + live session count + counters
//	GET  /history -> recent submission attempts
//	GET  /health  -> 200 OK
type Handler struct {
	submitter Submitter
	pending   *pending.Store
	sessions  *session.Store
	history   *leaderboard_http.History
}

func NewHandler(submitter Submitter, pend *pending.Store, sessions *session.Store, history *leaderboard_http.History) *Handler {
	return &Handler{
		submitter: submitter,
		pending:   pend,
		sessions:  sessions,
		history:   history,
	}
}

// RegisterRoutes wires HTTP routes onto the provided mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /submit", h.handleSubmit)
	mux.HandleFunc("GET /status", h.handleStatus)
	mux.HandleFunc("GET /history", h.handleHistory)
	mux.HandleFunc("GET /health", h.healthCheck)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, _ *http.Request) {
	telemetry.Infof("trigger: manual submission requested")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if err := h.submitter.Submit(ctx); err != nil {
			telemetry.Debugf("trigger: submission ended: %v", err)
		}
	}()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "submission triggered"})
}

func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	type pendingView struct {
		Rom         string `json:"rom,omitempty"`
		Score       int64  `json:"score,omitempty"`
		FinalizedAt string `json:"finalized_at,omitempty"`
	}

	var pv pendingView
	if score, ok := h.pending.Snapshot(); ok {
		pv = pendingView{
			Rom:         score.Rom,
			Score:       score.Score,
			FinalizedAt: score.FinalizedAt.Format(time.RFC3339),
		}
	}

	writeJSON(w, map[string]any{
		"pending":       pv,
		"live_sessions": h.sessions.Count(),
		"counters": map[string]int64{
			"ws_messages":       telemetry.Metrics.WSMessagesReceived.Value(),
			"ws_reconnects":     telemetry.Metrics.WSReconnects.Value(),
			"stale_dropped":     telemetry.Metrics.StaleDropped.Value(),
			"debounce_rejected": telemetry.Metrics.DebounceRejected.Value(),
			"scores_finalized":  telemetry.Metrics.ScoresFinalized.Value(),
			"submissions_sent":  telemetry.Metrics.SubmissionsSent.Value(),
			"submission_errors": telemetry.Metrics.SubmissionErrors.Value(),
		},
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	entries, err := h.history.Recent(limit)
	if err != nil {
		telemetry.Warnf("trigger: history query: %v", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []leaderboard_http.HistoryEntry{}
	}
	writeJSON(w, entries)
}

func (h *Handler) healthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "adapter": "trigger_http"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		telemetry.Debugf("trigger: write response: %v", err)
	}
}
