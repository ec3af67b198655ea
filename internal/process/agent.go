package process

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/vpinfe/score-tracker/internal/adapters/inbound/score_ws"
	"github.com/vpinfe/score-tracker/internal/adapters/inbound/trigger_http"
	"github.com/vpinfe/score-tracker/internal/adapters/outbound/leaderboard_http"
	"github.com/vpinfe/score-tracker/internal/adapters/outbound/notify"
	"github.com/vpinfe/score-tracker/internal/adapters/outbound/screengrab"
	"github.com/vpinfe/score-tracker/internal/config"
	"github.com/vpinfe/score-tracker/internal/core/pending"
	"github.com/vpinfe/score-tracker/internal/core/session"
	"github.com/vpinfe/score-tracker/internal/core/submit"
	"github.com/vpinfe/score-tracker/internal/core/tracker"
	"github.com/vpinfe/score-tracker/internal/events"
	"github.com/vpinfe/score-tracker/internal/telemetry"
)

// Agent assembles and runs the score tracker: the reconnecting score-server
// client, the session tracker, the submission pipeline, and the local
// trigger endpoint.
type Agent struct {
	cfg      *config.Config
	settings config.LeaderboardSettings
	grabber  screengrab.Grabber
	notify   notify.Func

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	wsClient *score_ws.Client
	archive  *score_ws.Store
	history  *leaderboard_http.History
	pipeline *submit.Pipeline
	server   *http.Server
}

func NewAgent(cfg *config.Config, settings config.LeaderboardSettings, grabber screengrab.Grabber, notifyFn notify.Func) *Agent {
	if notifyFn == nil {
		notifyFn = notify.Logger
	}
	return &Agent{
		cfg:      cfg,
		settings: settings,
		grabber:  grabber,
		notify:   notifyFn,
	}
}

// Start brings the tracker up. Idempotent; a no-op when leaderboard
// tracking is disabled in the settings.
func (a *Agent) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return nil
	}
	if !a.settings.Enabled {
		telemetry.Infof("Leaderboard tracking is disabled")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	archive, err := score_ws.OpenStore(a.cfg.ArchivePath)
	if err != nil {
		telemetry.Warnf("Wire archive disabled: %v", err)
	}
	a.archive = archive

	history, err := leaderboard_http.OpenHistory(a.cfg.HistoryPath)
	if err != nil {
		telemetry.Warnf("Submission history disabled: %v", err)
	}
	a.history = history

	bus := events.NewBus()
	sessions := session.NewStore()
	pendingStore := pending.NewStore()

	client := leaderboard_http.NewClient(a.settings.APIURL, a.settings.APIKey, a.settings.MachineID)
	a.pipeline = submit.NewPipeline(a.settings, pendingStore, client, a.grabber, history, a.notify)

	autoSend := a.settings.SendMode == config.SendModeAutomatic
	trk := tracker.New(sessions, pendingStore, a.pipeline, autoSend)
	trk.Register(bus)

	a.wsClient = score_ws.NewClient(a.settings.ServerAddr(), bus, archive)
	go a.wsClient.ConnectWithRetry(ctx)

	handler := trigger_http.NewHandler(a.pipeline, pendingStore, sessions, history)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	a.server = &http.Server{
		Addr:         a.cfg.TriggerAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			telemetry.Errorf("trigger server: %v", err)
		}
	}()

	a.running = true
	telemetry.Infof("Score tracker started  server=%s  mode=%s  trigger=%s",
		a.settings.ServerAddr(), a.settings.SendMode, a.cfg.TriggerAddr)
	return nil
}

// Submit fires a manual submission. Used by external triggers (signal,
// hotkey bridge). Returns an error when the agent is not running.
func (a *Agent) Submit(ctx context.Context) error {
	a.mu.Lock()
	pipeline := a.pipeline
	a.mu.Unlock()
	if pipeline == nil {
		return fmt.Errorf("tracker not running")
	}
	return pipeline.Submit(ctx)
}

// Stop shuts the tracker down. Best-effort: close errors on an already
// broken connection are swallowed, and in-flight submissions are not
// awaited (the 30s upload timeout bounds their lifetime).
func (a *Agent) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return
	}
	a.running = false

	a.cancel()
	if a.wsClient != nil {
		_ = a.wsClient.Close()
	}

	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		a.server.Shutdown(shutdownCtx)
		cancel()
	}

	if a.archive != nil {
		a.archive.Close()
	}
	if a.history != nil {
		a.history.Close()
	}

	telemetry.Infof("Score tracker stopped")
}
