package pending

import (
	"sync"
	"time"
)

// Score is the single most recent finalized score awaiting submission.
type Score struct {
	Rom         string
	Score       int64
	FinalizedAt time.Time
}

// Store holds at most one pending score. Each newly finalized session
// overwrites it; a successful submission clears it. The tracker is the only
// writer; the submission pipeline and status queries read concurrently.
type Store struct {
	mu  sync.RWMutex
	cur Score
}

func NewStore() *Store {
	return &Store{}
}

// Set overwrites the pending score.
func (s *Store) Set(sc Score) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = sc
}

// Clear resets the store to empty. Called after a confirmed submission.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = Score{}
}

// Snapshot returns the current pending score and whether one exists.
func (s *Store) Snapshot() (Score, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur, s.cur.Rom != "" && s.cur.Score > 0
}
