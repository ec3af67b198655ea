package events

import "time"

// PlayerScore is one entry of a scores list, either from a current_scores
// update or embedded in a game_end message. Score keeps the raw wire text
// ("10,000" and 10000 both arrive as strings here); parsing happens at
// finalization time.
type PlayerScore struct {
	Player string `json:"player"`
	Score  string `json:"score"`
}

// GameStartEvent marks the beginning of a scoring session for a rom.
// table_loaded and game_start on the wire both map to this.
type GameStartEvent struct{}

// ScoresUpdateEvent carries the per-player scores of an in-progress game.
type ScoresUpdateEvent struct {
	Scores      []PlayerScore `json:"scores"`
	CurrentBall *int          `json:"current_ball,omitempty"`
}

// GameEndEvent marks the end of a scoring session. Reason is set when the
// end is not a real game completion (e.g. "plugin_unload"). Scores, when
// present, take precedence over accumulated update data.
type GameEndEvent struct {
	Reason string        `json:"reason,omitempty"`
	Scores []PlayerScore `json:"scores,omitempty"`
}

// ConnStatusEvent signals score-server connect/disconnect. Epoch is the
// connection establishment time; messages originated before it are stale.
type ConnStatusEvent struct {
	Connected bool      `json:"connected"`
	Epoch     time.Time `json:"epoch"`
}
