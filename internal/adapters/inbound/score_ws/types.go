package score_ws

import "encoding/json"

// Wire message types emitted by the score server.
const (
	msgTableLoaded   = "table_loaded"
	msgGameStart     = "game_start"
	msgGameEnd       = "game_end"
	msgCurrentScores = "current_scores"
)

// WireMessage is one JSON message from the score server. Only the fields
// the tracker consumes are decoded; everything else is ignored.
type WireMessage struct {
	Type        string      `json:"type"`
	Rom         string      `json:"rom"`
	Timestamp   string      `json:"timestamp,omitempty"` // ISO-8601, optional fractional seconds
	Scores      []WireScore `json:"scores,omitempty"`
	CurrentBall *int        `json:"current_ball,omitempty"`
	Reason      string      `json:"reason,omitempty"` // game_end only, e.g. "plugin_unload"
}

// WireScore is one per-player score entry. The server sends score as either
// a JSON number or a formatted string ("12,345"), so it is kept raw here.
type WireScore struct {
	Player string          `json:"player"`
	Score  json.RawMessage `json:"score"`
}
