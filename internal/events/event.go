package events

import "time"

// Event is the envelope that flows through the event bus.
// Every decoded score-server message (session start, score update, game end)
// and every connection status change is wrapped in one.
type Event struct {
	Type      EventType
	Rom       string    // game identifier the event belongs to, "" for conn status
	Timestamp time.Time // wire origination time; zero when the message carried none
	Payload   any
}

type EventType string

const (
	// Score server wire events
	EventGameStart    EventType = "game_start"
	EventGameEnd      EventType = "game_end"
	EventScoresUpdate EventType = "scores_update"
	// Connection lifecycle
	EventConnStatus EventType = "conn_status"
)
