package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storyvoice/pkg/db"
	"storyvoice/pkg/model"
)

// Store defines the repository interface.
type Store interface {
	HistoryStore
	StateStore

	// Close closes the store connection.
	Close() error
}

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- History ---

func lastRunKey(variant string) string {
	return "last_run:" + variant
}

// RecordEvent appends an event and marks its run as the latest for the variant.
func (s *SQLiteStore) RecordEvent(ctx context.Context, ev model.GenerationEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO generation_events (run_id, variant, story_id, title, voice, path, outcome, error, elapsed_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.RunID, ev.Variant, ev.StoryID, ev.Title, string(ev.Voice), ev.Path, string(ev.Outcome), ev.Error,
		ev.Elapsed.Milliseconds(), ev.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert generation event: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`,
		lastRunKey(ev.Variant), ev.RunID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update last run: %w", err)
	}

	return tx.Commit()
}

// LastRunID returns the id of the most recent run that recorded an event
// for the variant.
func (s *SQLiteStore) LastRunID(ctx context.Context, variant string) (string, bool) {
	return s.GetState(ctx, lastRunKey(variant))
}

// RunEvents returns the events of one run in insertion order.
func (s *SQLiteStore) RunEvents(ctx context.Context, runID string) ([]model.GenerationEvent, error) {
	return s.queryEvents(ctx, `WHERE run_id = ? ORDER BY id`, runID)
}

// StoryEvents returns the events of one story in a variant, newest first.
func (s *SQLiteStore) StoryEvents(ctx context.Context, variant, storyID string) ([]model.GenerationEvent, error) {
	return s.queryEvents(ctx, `WHERE variant = ? AND story_id = ? ORDER BY id DESC`, variant, storyID)
}

func (s *SQLiteStore) queryEvents(ctx context.Context, where string, args ...any) ([]model.GenerationEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, variant, story_id, title, voice, path, outcome, error, elapsed_ms, created_at
		 FROM generation_events `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.GenerationEvent
	for rows.Next() {
		var ev model.GenerationEvent
		var title, path, errMsg sql.NullString
		var voice, outcome string
		var elapsedMS sql.NullInt64
		if err := rows.Scan(&ev.RunID, &ev.Variant, &ev.StoryID, &title, &voice, &path, &outcome, &errMsg, &elapsedMS, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Title = title.String
		ev.Voice = model.Gender(voice)
		ev.Path = path.String
		ev.Outcome = model.Outcome(outcome)
		ev.Error = errMsg.String
		ev.Elapsed = time.Duration(elapsedMS.Int64) * time.Millisecond
		out = append(out, ev)
	}
	return out, rows.Err()
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, time.Now().UTC())
	return err
}

