package tracker

import (
	"testing"
	"time"

	"github.com/vpinfe/score-tracker/internal/core/pending"
	"github.com/vpinfe/score-tracker/internal/core/session"
	"github.com/vpinfe/score-tracker/internal/events"
)

type fakeScheduler struct {
	calls  int
	delays []time.Duration
}

func (f *fakeScheduler) ScheduleSubmit(delay time.Duration) {
	f.calls++
	f.delays = append(f.delays, delay)
}

type fixture struct {
	bus     *events.Bus
	pending *pending.Store
	sched   *fakeScheduler
	tracker *Tracker
	now     time.Time
}

func newFixture(t *testing.T, autoSend bool) *fixture {
	t.Helper()
	f := &fixture{
		bus:     events.NewBus(),
		pending: pending.NewStore(),
		sched:   &fakeScheduler{},
		now:     time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC),
	}
	f.tracker = New(session.NewStore(), f.pending, f.sched, autoSend)
	f.tracker.SetClock(func() time.Time { return f.now })
	f.tracker.Register(f.bus)
	return f
}

func (f *fixture) start(rom string) {
	f.bus.Publish(events.Event{
		Type:    events.EventGameStart,
		Rom:     rom,
		Payload: events.GameStartEvent{},
	})
}

func (f *fixture) update(rom string, scores ...events.PlayerScore) {
	f.bus.Publish(events.Event{
		Type:    events.EventScoresUpdate,
		Rom:     rom,
		Payload: events.ScoresUpdateEvent{Scores: scores},
	})
}

func (f *fixture) end(rom, reason string, scores ...events.PlayerScore) {
	f.bus.Publish(events.Event{
		Type:    events.EventGameEnd,
		Rom:     rom,
		Payload: events.GameEndEvent{Reason: reason, Scores: scores},
	})
}

func TestFinalizeMaxAcrossUpdates(t *testing.T) {
	f := newFixture(t, false)

	f.start("mm_109c")
	f.update("mm_109c", events.PlayerScore{Player: "Player1", Score: "5,000"})
	f.update("mm_109c",
		events.PlayerScore{Player: "Player1", Score: "112,500"},
		events.PlayerScore{Player: "Player2", Score: "98,000"},
	)
	f.end("mm_109c", "")

	got, ok := f.pending.Snapshot()
	if !ok {
		t.Fatal("expected a finalized pending score")
	}
	if got.Rom != "mm_109c" || got.Score != 112500 {
		t.Errorf("pending = %+v, want mm_109c/112500", got)
	}
	if f.sched.calls != 0 {
		t.Errorf("manual mode must not schedule submissions, got %d", f.sched.calls)
	}
}

func TestEndPayloadTakesPrecedence(t *testing.T) {
	f := newFixture(t, false)

	f.start("afm_113b")
	f.update("afm_113b", events.PlayerScore{Player: "Player1", Score: "900,000"})
	// the end event carries its own authoritative scores list
	f.end("afm_113b", "", events.PlayerScore{Player: "Player1", Score: "450,000"})

	got, ok := f.pending.Snapshot()
	if !ok {
		t.Fatal("expected a finalized pending score")
	}
	if got.Score != 450000 {
		t.Errorf("pending score = %d, want the end payload's 450000", got.Score)
	}
}

func TestDuplicateEndWithinWindowIgnored(t *testing.T) {
	f := newFixture(t, false)

	f.start("mm_109c")
	f.update("mm_109c", events.PlayerScore{Player: "Player1", Score: "1,000"})
	f.end("mm_109c", "")

	f.now = f.now.Add(3 * time.Second)
	f.end("mm_109c", "", events.PlayerScore{Player: "Player1", Score: "999,999"})

	got, _ := f.pending.Snapshot()
	if got.Score != 1000 {
		t.Errorf("duplicate end within window changed pending to %d", got.Score)
	}
}

func TestStartReArmsDebounce(t *testing.T) {
	f := newFixture(t, false)

	f.start("mm_109c")
	f.end("mm_109c", "", events.PlayerScore{Player: "Player1", Score: "1,000"})

	// a new session starts and ends inside the old debounce window
	f.now = f.now.Add(2 * time.Second)
	f.start("mm_109c")
	f.end("mm_109c", "", events.PlayerScore{Player: "Player1", Score: "2,000"})

	got, _ := f.pending.Snapshot()
	if got.Score != 2000 {
		t.Errorf("pending = %d, want the re-armed session's 2000", got.Score)
	}
}

func TestPluginUnloadDiscardsSession(t *testing.T) {
	f := newFixture(t, true)

	f.start("mm_109c")
	f.update("mm_109c", events.PlayerScore{Player: "Player1", Score: "50,000"})
	f.end("mm_109c", ReasonUnload)

	if _, ok := f.pending.Snapshot(); ok {
		t.Error("plugin_unload must never finalize a score")
	}
	if f.sched.calls != 0 {
		t.Error("plugin_unload must not schedule a submission")
	}
}

func TestZeroScoreNotFinalized(t *testing.T) {
	f := newFixture(t, false)

	f.start("mm_109c")
	f.update("mm_109c", events.PlayerScore{Player: "Player1", Score: "0"})
	f.end("mm_109c", "")

	if _, ok := f.pending.Snapshot(); ok {
		t.Error("a zero score must not become pending")
	}
}

func TestEndWithoutAnyScoreData(t *testing.T) {
	f := newFixture(t, false)

	// end with neither a payload nor a tracked session
	f.end("ghost_rom", "")

	if _, ok := f.pending.Snapshot(); ok {
		t.Error("end with no score source must not finalize")
	}
}

func TestAutomaticModeSchedulesSubmit(t *testing.T) {
	f := newFixture(t, true)

	f.start("mm_109c")
	f.end("mm_109c", "", events.PlayerScore{Player: "Player1", Score: "7,500"})

	if f.sched.calls != 1 {
		t.Fatalf("ScheduleSubmit calls = %d, want 1", f.sched.calls)
	}
	if f.sched.delays[0] != SettleDelay {
		t.Errorf("settle delay = %s, want %s", f.sched.delays[0], SettleDelay)
	}
}

func TestStaleEventsDropped(t *testing.T) {
	f := newFixture(t, false)

	epoch := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	f.bus.Publish(events.Event{
		Type:    events.EventConnStatus,
		Payload: events.ConnStatusEvent{Connected: true, Epoch: epoch},
	})

	// buffered from before the connection: must be ignored
	f.bus.Publish(events.Event{
		Type:      events.EventGameEnd,
		Rom:       "mm_109c",
		Timestamp: epoch.Add(-time.Minute),
		Payload:   events.GameEndEvent{Scores: []events.PlayerScore{{Player: "Player1", Score: "5,000"}}},
	})
	if _, ok := f.pending.Snapshot(); ok {
		t.Fatal("pre-epoch event must be dropped")
	}

	// at-or-after the epoch passes through
	f.bus.Publish(events.Event{
		Type:      events.EventGameEnd,
		Rom:       "mm_109c",
		Timestamp: epoch,
		Payload:   events.GameEndEvent{Scores: []events.PlayerScore{{Player: "Player1", Score: "5,000"}}},
	})
	if _, ok := f.pending.Snapshot(); !ok {
		t.Error("event at the epoch must be processed")
	}
}

func TestUntimestampedEventsNeverStale(t *testing.T) {
	f := newFixture(t, false)

	f.bus.Publish(events.Event{
		Type:    events.EventConnStatus,
		Payload: events.ConnStatusEvent{Connected: true, Epoch: time.Now()},
	})

	f.end("mm_109c", "", events.PlayerScore{Player: "Player1", Score: "3,000"})

	if _, ok := f.pending.Snapshot(); !ok {
		t.Error("events without a wire timestamp must not be treated as stale")
	}
}
