package score_ws

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

const (
	maxArchiveBytes int64 = 64 << 20 // 64 MiB
	evictBatchSize        = 100
	vacuumInterval        = 50
)

// Store persists raw score-server messages in a FIFO SQLite database capped
// at ~64 MiB. Oldest rows are evicted when the budget is exceeded. Useful
// for replaying sessions when diagnosing missed or misparsed scores.
type Store struct {
	db           *sql.DB
	mu           sync.Mutex
	cachedSize   int64
	evictCounter int
}

func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS wire_messages (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			msg_type  TEXT    NOT NULL,
			received  TEXT    NOT NULL,
			byte_size INTEGER NOT NULL,
			raw       BLOB    NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_wire_received ON wire_messages(received)`,
		`CREATE INDEX IF NOT EXISTS idx_wire_type     ON wire_messages(msg_type)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init archive schema: %w", err)
		}
	}

	var size int64
	if err := db.QueryRow(`SELECT COALESCE(SUM(byte_size), 0) FROM wire_messages`).Scan(&size); err != nil {
		db.Close()
		return nil, fmt.Errorf("read archive size: %w", err)
	}

	telemetry.Plainf("wire archive: opened %s  bytes=%d", path, size)

	return &Store{db: db, cachedSize: size}, nil
}

// Insert stores a raw message asynchronously. Safe to call on a nil store.
func (s *Store) Insert(msgType string, raw []byte) {
	if s == nil {
		return
	}
	rawLen := int64(len(raw))
	rawCopy := make([]byte, rawLen)
	copy(rawCopy, raw)

	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		_, err := s.db.Exec(
			`INSERT INTO wire_messages (msg_type, received, byte_size, raw) VALUES (?, ?, ?, ?)`,
			msgType,
			time.Now().UTC().Format(time.RFC3339Nano),
			rawLen,
			rawCopy,
		)
		if err != nil {
			telemetry.Warnf("wire archive: insert failed: %v", err)
			return
		}

		s.cachedSize += rawLen
		if s.cachedSize > maxArchiveBytes {
			s.evict()
		}
	}()
}

func (s *Store) evict() {
	for s.cachedSize > maxArchiveBytes {
		var freed int64
		err := s.db.QueryRow(
			`WITH deleted AS (
				DELETE FROM wire_messages
				WHERE id IN (SELECT id FROM wire_messages ORDER BY id ASC LIMIT ?)
				RETURNING byte_size
			)
			SELECT COALESCE(SUM(byte_size), 0) FROM deleted`,
			evictBatchSize,
		).Scan(&freed)
		if err != nil {
			telemetry.Warnf("wire archive: eviction failed: %v", err)
			break
		}
		if freed == 0 {
			break
		}
		s.cachedSize -= freed
		s.evictCounter++

		if s.evictCounter%vacuumInterval == 0 {
			if _, err := s.db.Exec(`PRAGMA incremental_vacuum`); err != nil {
				telemetry.Warnf("wire archive: incremental_vacuum failed: %v", err)
			}
		}
	}
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
