package session

import (
	"sync"

	"github.com/vpinfe/score-tracker/internal/telemetry"
)

// PlayerState is the accumulated scoring state of one player slot.
// Score keeps the raw wire text; it is parsed only at finalization.
type PlayerState struct {
	Score string
	Ball  *int
}

// Store maps a rom (game identifier) to its live session: a player-slot to
// PlayerState mapping. At most one live session exists per rom.
//
// The mutex protects the outer map and the inner maps; all writes arrive
// from the tracker's single message-handling goroutine, reads may come from
// status queries.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]map[string]PlayerState
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]map[string]PlayerState),
	}
}

// Reset creates a fresh empty session for rom, replacing any prior one.
func (s *Store) Reset(rom string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[rom]; !ok {
		telemetry.Metrics.LiveSessions.Inc()
	}
	s.sessions[rom] = make(map[string]PlayerState)
}

// Upsert writes the state for one player slot, creating the session if a
// current_scores update arrives before any start event.
func (s *Store) Upsert(rom, slot string, ps PlayerState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.sessions[rom]
	if !ok {
		m = make(map[string]PlayerState)
		s.sessions[rom] = m
		telemetry.Metrics.LiveSessions.Inc()
	}
	m[slot] = ps
}

// Players returns a copy of the session's player map, or ok=false when no
// session exists for rom.
func (s *Store) Players(rom string) (map[string]PlayerState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.sessions[rom]
	if !ok {
		return nil, false
	}
	out := make(map[string]PlayerState, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out, true
}

// Delete removes the session for rom, if any.
func (s *Store) Delete(rom string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[rom]; ok {
		delete(s.sessions, rom)
		telemetry.Metrics.LiveSessions.Dec()
	}
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
