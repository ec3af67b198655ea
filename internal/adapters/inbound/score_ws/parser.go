package score_ws

import (
	"strconv"
	"strings"
	"time"

	"github.com/vpinfe/score-tracker/internal/events"
)

// ParseWire converts a decoded wire message into a bus event.
// Returns ok=false for unknown message types.
func ParseWire(msg *WireMessage) (events.Event, bool) {
	rom := msg.Rom
	if rom == "" {
		rom = "unknown_rom"
	}

	evt := events.Event{
		Rom:       rom,
		Timestamp: parseTimestamp(msg.Timestamp),
	}

	switch msg.Type {
	case msgTableLoaded, msgGameStart:
		evt.Type = events.EventGameStart
		evt.Payload = events.GameStartEvent{}
	case msgCurrentScores:
		evt.Type = events.EventScoresUpdate
		evt.Payload = events.ScoresUpdateEvent{
			Scores:      convertScores(msg.Scores),
			CurrentBall: msg.CurrentBall,
		}
	case msgGameEnd:
		evt.Type = events.EventGameEnd
		evt.Payload = events.GameEndEvent{
			Reason: msg.Reason,
			Scores: convertScores(msg.Scores),
		}
	default:
		return events.Event{}, false
	}

	return evt, true
}

func convertScores(in []WireScore) []events.PlayerScore {
	if len(in) == 0 {
		return nil
	}
	out := make([]events.PlayerScore, 0, len(in))
	for _, ws := range in {
		out = append(out, events.PlayerScore{
			Player: ws.Player,
			Score:  rawScoreText(ws.Score),
		})
	}
	return out
}

// rawScoreText unwraps a raw JSON score value to its textual form:
// `"12,345"` -> `12,345`, `12345` -> `12345`.
func rawScoreText(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) >= 2 && s[0] == '"' {
		if unq, err := strconv.Unquote(s); err == nil {
			return unq
		}
		return strings.Trim(s, `"`)
	}
	return s
}

// timestampLayouts covers the forms the score server emits: RFC 3339 with
// or without a zone, with or without fractional seconds. Zoneless times are
// interpreted in local time, which is what the server uses.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// parseTimestamp returns the zero time when the field is absent or does not
// parse; staleness filtering skips zero timestamps.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts
		}
	}
	return time.Time{}
}
