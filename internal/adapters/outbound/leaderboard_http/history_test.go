package leaderboard_http

import (
	"path/filepath"
	"testing"
	"time"
)

func TestHistoryRecordAndRecent(t *testing.T) {
	h, err := OpenHistory(filepath.Join(t.TempDir(), "submissions.db"))
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	defer h.Close()

	h.Record(HistoryEntry{Rom: "mm_109c", Score: 100, Success: true, TableName: "Medieval Madness", SubmittedAt: time.Now()})
	h.Record(HistoryEntry{Rom: "afm_113b", Score: 200, Success: false, Error: "timeout", SubmittedAt: time.Now()})

	entries, err := h.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	// newest first
	if entries[0].Rom != "afm_113b" || entries[0].Success {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].TableName != "Medieval Madness" {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestHistoryNilSafe(t *testing.T) {
	var h *History
	h.Record(HistoryEntry{Rom: "mm_109c"})
	if entries, err := h.Recent(5); err != nil || entries != nil {
		t.Errorf("nil history Recent = %v, %v", entries, err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("nil history Close = %v", err)
	}
}
