package history

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/edibez/cryptoagent/pkg/types"
)

// Store keeps a log of answered questions in SQLite
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the history database
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Create tables
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS asks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			input TEXT NOT NULL,
			answer TEXT NOT NULL,
			status INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_asks_created ON asks(created_at);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Record stores one /ask exchange
func (s *Store) Record(ctx context.Context, input, answer string, status int, duration time.Duration) (*types.AskRecord, error) {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO asks (input, answer, status, duration_ms, created_at) VALUES (?, ?, ?, ?, ?)",
		input, answer, status, duration.Milliseconds(), now,
	)
	if err != nil {
		return nil, err
	}

	id, _ := result.LastInsertId()
	return &types.AskRecord{
		ID:         id,
		Input:      input,
		Answer:     answer,
		Status:     status,
		DurationMs: duration.Milliseconds(),
		CreatedAt:  now,
	}, nil
}

// Recent returns the latest exchanges, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]types.AskRecord, error) {
	if limit < 1 {
		limit = 1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, input, answer, status, duration_ms, created_at FROM asks ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]types.AskRecord, 0, limit)
	for rows.Next() {
		var r types.AskRecord
		if err := rows.Scan(&r.ID, &r.Input, &r.Answer, &r.Status, &r.DurationMs, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// Count returns the number of stored exchanges
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM asks").Scan(&n)
	return n, err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
