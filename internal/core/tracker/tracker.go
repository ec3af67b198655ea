package tracker

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vpinfe/score-tracker/internal/core/pending"
	"github.com/vpinfe/score-tracker/internal/core/session"
	"github.com/vpinfe/score-tracker/internal/events"
	"github.com/vpinfe/score-tracker/internal/telemetry"
)

const (
	// DebounceWindow suppresses repeat game_end events per rom.
	DebounceWindow = 10 * time.Second
	// SettleDelay lets end-of-game animations finish before the automatic
	// submission captures its screenshot.
	SettleDelay = 2 * time.Second

	// ReasonUnload marks a game_end caused by the event source shutting
	// down rather than a real game completion.
	ReasonUnload = "plugin_unload"
)

// Scheduler spawns the deferred automatic submission. Fire-and-forget:
// shutdown does not wait for a scheduled submission.
type Scheduler interface {
	ScheduleSubmit(delay time.Duration)
}

// Tracker reconstructs per-rom scoring sessions from the unordered event
// stream and decides when a final score exists. All wire events arrive on
// the connection client's goroutine via the bus, so the tracker itself is
// the single writer of session, debounce, and pending state.
type Tracker struct {
	sessions  *session.Store
	debounce  *session.Debounce
	pending   *pending.Store
	scheduler Scheduler
	autoSend  bool

	mu    sync.Mutex
	epoch time.Time

	now func() time.Time
}

func New(sessions *session.Store, pend *pending.Store, scheduler Scheduler, autoSend bool) *Tracker {
	return &Tracker{
		sessions:  sessions,
		debounce:  session.NewDebounce(DebounceWindow),
		pending:   pend,
		scheduler: scheduler,
		autoSend:  autoSend,
		now:       time.Now,
	}
}

// Register subscribes the tracker's handlers on the bus.
func (t *Tracker) Register(bus *events.Bus) {
	bus.Subscribe(events.EventConnStatus, t.handleConnStatus)
	bus.Subscribe(events.EventGameStart, t.handleGameStart)
	bus.Subscribe(events.EventScoresUpdate, t.handleScoresUpdate)
	bus.Subscribe(events.EventGameEnd, t.handleGameEnd)
}

func (t *Tracker) handleConnStatus(evt events.Event) error {
	cs, ok := evt.Payload.(events.ConnStatusEvent)
	if !ok || !cs.Connected {
		return nil
	}
	t.mu.Lock()
	t.epoch = cs.Epoch
	t.mu.Unlock()
	return nil
}

// stale reports whether the message originated before the current
// connection epoch. Messages without a wire timestamp are never stale.
func (t *Tracker) stale(evt events.Event) bool {
	if evt.Timestamp.IsZero() {
		return false
	}
	t.mu.Lock()
	epoch := t.epoch
	t.mu.Unlock()
	if epoch.IsZero() || !evt.Timestamp.Before(epoch) {
		return false
	}
	telemetry.Metrics.StaleDropped.Inc()
	telemetry.Infof("tracker: dropping stale %s for %q (ts=%s predates epoch %s)",
		evt.Type, evt.Rom, evt.Timestamp.Format(time.RFC3339), epoch.Format(time.RFC3339))
	return true
}

func (t *Tracker) handleGameStart(evt events.Event) error {
	if t.stale(evt) {
		return nil
	}
	t.sessions.Reset(evt.Rom)
	t.debounce.Reset(evt.Rom)
	telemetry.Metrics.SessionsStarted.Inc()
	telemetry.Infof("Game started: %s", evt.Rom)
	return nil
}

func (t *Tracker) handleScoresUpdate(evt events.Event) error {
	if t.stale(evt) {
		return nil
	}
	su, ok := evt.Payload.(events.ScoresUpdateEvent)
	if !ok {
		return nil
	}
	for _, ps := range su.Scores {
		slot := session.SlotID(ps.Player)
		t.sessions.Upsert(evt.Rom, slot, session.PlayerState{
			Score: ps.Score,
			Ball:  su.CurrentBall,
		})
	}
	return nil
}

func (t *Tracker) handleGameEnd(evt events.Event) error {
	if t.stale(evt) {
		return nil
	}
	ge, ok := evt.Payload.(events.GameEndEvent)
	if !ok {
		return nil
	}
	rom := evt.Rom

	// The session is over regardless of whether a score gets finalized.
	defer t.sessions.Delete(rom)

	if ge.Reason == ReasonUnload {
		telemetry.Infof("tracker: %s unloaded, discarding session", rom)
		return nil
	}

	if !t.debounce.Allow(rom) {
		telemetry.Metrics.DebounceRejected.Inc()
		telemetry.Warnf("tracker: duplicate game_end for %s within %s, ignoring", rom, DebounceWindow)
		return nil
	}
	t.debounce.Touch(rom)

	telemetry.Infof("Game ended: %s", rom)

	best, hasSource := t.bestScore(rom, ge)
	if !hasSource {
		telemetry.Warnf("tracker: game_end for %s with no score data", rom)
		return nil
	}
	if best <= 0 {
		return nil
	}

	t.pending.Set(pending.Score{
		Rom:         rom,
		Score:       best,
		FinalizedAt: t.now(),
	})
	telemetry.Metrics.ScoresFinalized.Inc()
	telemetry.Infof("Pending score updated: %s - %s", rom, humanize.Comma(best))

	if t.autoSend && t.scheduler != nil {
		telemetry.Infof("Automatic mode: submitting in %s", SettleDelay)
		t.scheduler.ScheduleSubmit(SettleDelay)
	}
	return nil
}

// bestScore computes the maximum score for the ending session. An embedded
// scores list on the end event takes precedence; otherwise the accumulated
// current_scores data is used. hasSource is false when neither exists.
func (t *Tracker) bestScore(rom string, ge events.GameEndEvent) (best int64, hasSource bool) {
	if len(ge.Scores) > 0 {
		raw := make([]string, 0, len(ge.Scores))
		for _, ps := range ge.Scores {
			raw = append(raw, ps.Score)
		}
		return session.BestScore(raw), true
	}

	players, ok := t.sessions.Players(rom)
	if !ok || len(players) == 0 {
		return 0, false
	}
	raw := make([]string, 0, len(players))
	for _, st := range players {
		raw = append(raw, st.Score)
	}
	return session.BestScore(raw), true
}

// SetClock overrides the time sources. Test hook.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
	t.debounce.SetClock(now)
}
