package session

import (
	"sync"
	"time"
)

// Debounce suppresses repeat game_end events per rom within a fixed window.
// Entries persist until the next session start re-arms them; identifier
// cardinality is low enough that this is not a leak concern.
type Debounce struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

func NewDebounce(window time.Duration) *Debounce {
	return &Debounce{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Allow returns true if no end event for rom was accepted within the window.
func (d *Debounce) Allow(rom string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	last, ok := d.last[rom]
	return !ok || d.now().Sub(last) >= d.window
}

// Touch records the current time as rom's last accepted end event.
func (d *Debounce) Touch(rom string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last[rom] = d.now()
}

// Reset clears rom's record so the next end event is eligible immediately.
// Called on session start.
func (d *Debounce) Reset(rom string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.last, rom)
}

// SetClock overrides the time source. Test hook.
func (d *Debounce) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}
