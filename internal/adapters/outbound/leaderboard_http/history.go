package leaderboard_http

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vpinfe/score-tracker/internal/telemetry"

	_ "modernc.org/sqlite"
)

const maxHistoryRows = 1000

// History records every submission attempt so a user can see what was sent
// (or why it failed) after the notification toast is gone. FIFO-capped.
type History struct {
	db *sql.DB
	mu sync.Mutex
}

// HistoryEntry is one recorded submission attempt.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	Rom         string    `json:"rom"`
	Score       int64     `json:"score"`
	TableName   string    `json:"table_name,omitempty"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func OpenHistory(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	schema := `CREATE TABLE IF NOT EXISTS submissions (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		rom          TEXT    NOT NULL,
		score        INTEGER NOT NULL,
		table_name   TEXT    NOT NULL DEFAULT '',
		success      INTEGER NOT NULL,
		error        TEXT    NOT NULL DEFAULT '',
		submitted_at TEXT    NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}

	return &History{db: db}, nil
}

// Record stores one attempt. Failures are logged, not returned: history is
// best-effort and must never fail a submission.
func (h *History) Record(e HistoryEntry) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.db.Exec(
		`INSERT INTO submissions (rom, score, table_name, success, error, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Rom, e.Score, e.TableName, boolInt(e.Success), e.Error,
		e.SubmittedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		telemetry.Warnf("history: insert failed: %v", err)
		return
	}

	h.db.Exec(
		`DELETE FROM submissions WHERE id IN (
			SELECT id FROM submissions ORDER BY id DESC LIMIT -1 OFFSET ?
		)`, maxHistoryRows,
	)
}

// Recent returns up to n attempts, newest first.
func (h *History) Recent(n int) ([]HistoryEntry, error) {
	if h == nil {
		return nil, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	rows, err := h.db.Query(
		`SELECT id, rom, score, table_name, success, error, submitted_at
		 FROM submissions ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var success int
		var ts string
		if err := rows.Scan(&e.ID, &e.Rom, &e.Score, &e.TableName, &success, &e.Error, &ts); err != nil {
			return nil, err
		}
		e.Success = success != 0
		e.SubmittedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (h *History) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
