// Package history persists finished matches to a local sqlite database.
// Grounded on apps/server/internal/ledger/sqlite.go's open-on-construct,
// schema-ensure-on-open, INSERT-only service shape, re-purposed from a
// hand ledger to a match-history ledger.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Record is one finished match, written once a room's game ends.
type Record struct {
	RoomCode       string
	WinnerUsername string
	LoserUsername  string
	WinType        string
	ElapsedMs      uint64
	FinishedAt     time.Time
}

// Service records finished matches. Implementations must tolerate being
// nil-safe callers; callers nil-check before invoking RecordMatch.
type Service interface {
	RecordMatch(rec Record)
	Close() error
}

// SQLiteService is the on-disk Service backed by database/sql +
// mattn/go-sqlite3.
type SQLiteService struct {
	db *sql.DB
}

// NewSQLiteService opens (and, if needed, creates) the database at path
// and ensures the matches table exists.
func NewSQLiteService(path string) (*SQLiteService, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty history database path")
	}
	if path != ":memory:" {
		if parent := filepath.Dir(path); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS matches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	room_code TEXT NOT NULL,
	winner_username TEXT NOT NULL,
	loser_username TEXT NOT NULL,
	win_type TEXT NOT NULL,
	elapsed_ms INTEGER NOT NULL,
	finished_at_ms INTEGER NOT NULL
)`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteService{db: db}, nil
}

// RecordMatch inserts rec. Failures are logged, not surfaced, matching
// ledger.SQLiteService.AppendLiveEvent's best-effort write.
func (s *SQLiteService) RecordMatch(rec Record) {
	if s == nil || s.db == nil {
		return
	}
	finishedAt := rec.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO matches (room_code, winner_username, loser_username, win_type, elapsed_ms, finished_at_ms)
VALUES (?, ?, ?, ?, ?, ?)
`, rec.RoomCode, rec.WinnerUsername, rec.LoserUsername, rec.WinType, rec.ElapsedMs, finishedAt.UTC().UnixMilli())
	if err != nil {
		log.Printf("[history] record match failed: room=%s err=%v", rec.RoomCode, err)
	}
}

// Close closes the underlying database handle.
func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
