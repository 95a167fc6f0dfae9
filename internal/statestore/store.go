package statestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-counter/internal/counter"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200

	// publishTimeout bounds a single Publish write; Publish has no caller
	// context to inherit.
	publishTimeout = 5 * time.Second

	// timestampLayout is fixed-width so stored timestamps sort as strings.
	timestampLayout = "2006-01-02T15:04:05.000000Z"
)

// HistoryEntry is one recorded counter state change.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	EntityID  string    `json:"entity_id"`
	State     string    `json:"state"`
	ContextID string    `json:"context_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// Logger defines the logging interface used by SQLiteStore.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Error(string, ...any) {}

// SQLiteStore persists counter states in SQLite.
//
// It is both the restore cache read at startup and a notification sink that
// records every published state, so a restart resumes from the last value.
type SQLiteStore struct {
	db     *sql.DB
	logger Logger
	now    func() time.Time
}

// NewSQLiteStore creates a store over an open, migrated database.
//
// Parameters:
//   - db: Open SQLite connection with the counter_states and
//     counter_state_history tables
//
// Returns:
//   - *SQLiteStore: Store ready for use
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{
		db:     db,
		logger: noopLogger{},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetLogger sets the logger for the store.
func (s *SQLiteStore) SetLogger(logger Logger) {
	s.logger = logger
}

// LastState returns the last persisted state string for an entity.
// The boolean is false when the entity has never been recorded.
func (s *SQLiteStore) LastState(ctx context.Context, entityID string) (string, bool, error) {
	var state string
	err := s.db.QueryRowContext(ctx,
		"SELECT state FROM counter_states WHERE entity_id = ?",
		entityID,
	).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying last state of %s: %w", entityID, err)
	}
	return state, true, nil
}

// Publish records a state notification. Failures are logged; the counter
// keeps running with its in-memory value.
func (s *SQLiteStore) Publish(state counter.State) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := s.Save(ctx, state); err != nil {
		s.logger.Error("failed to persist counter state",
			"entity_id", state.EntityID,
			"state", state.State,
			"error", err,
		)
		return
	}
	s.logger.Debug("counter state persisted", "entity_id", state.EntityID, "state", state.State)
}

// Save upserts the current state row and appends a history row in one
// transaction.
func (s *SQLiteStore) Save(ctx context.Context, state counter.State) error {
	if state.EntityID == "" {
		return fmt.Errorf("entity id is required")
	}

	attrs := state.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("marshalling attributes: %w", err)
	}

	changedAt := state.LastChanged
	if changedAt.IsZero() {
		changedAt = s.now()
	}
	ts := changedAt.UTC().Format(timestampLayout)

	var contextID, userID any
	if state.Context != nil {
		contextID = nullableString(state.Context.ID)
		userID = nullableString(state.Context.UserID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO counter_states (entity_id, state, attributes, context_id, user_id, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(entity_id) DO UPDATE SET
		   state = excluded.state,
		   attributes = excluded.attributes,
		   context_id = excluded.context_id,
		   user_id = excluded.user_id,
		   updated_at = excluded.updated_at`,
		state.EntityID, state.State, string(attrsJSON), contextID, userID, ts,
	); err != nil {
		return fmt.Errorf("upserting counter state: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO counter_state_history (entity_id, state, context_id, user_id, changed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		state.EntityID, state.State, contextID, userID, ts,
	); err != nil {
		return fmt.Errorf("inserting counter state history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing counter state: %w", err)
	}
	return nil
}

// GetHistory returns recent state changes for an entity, newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - entityID: Counter entity id
//   - limit: Maximum entries to return (default 50, max 200)
//
// Returns:
//   - []HistoryEntry: Entries ordered newest first (may be empty)
//   - error: nil on success, otherwise the underlying query error
func (s *SQLiteStore) GetHistory(ctx context.Context, entityID string, limit int) ([]HistoryEntry, error) {
	if entityID == "" {
		return nil, fmt.Errorf("entity id is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entity_id, state, context_id, user_id, changed_at
		 FROM counter_state_history
		 WHERE entity_id = ?
		 ORDER BY changed_at DESC, id DESC
		 LIMIT ?`,
		entityID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying counter state history: %w", err)
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0, limit)
	for rows.Next() {
		var entry HistoryEntry
		var contextID, userID sql.NullString
		var changedAt string

		if err := rows.Scan(&entry.ID, &entry.EntityID, &entry.State, &contextID, &userID, &changedAt); err != nil {
			return nil, fmt.Errorf("scanning counter state history: %w", err)
		}
		entry.ContextID = contextID.String
		entry.UserID = userID.String

		entry.ChangedAt, err = parseTimestamp(changedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating counter state history: %w", err)
	}
	return entries, nil
}

// PruneHistory deletes history entries older than olderThan and returns the
// number of rows removed. The current state rows are never pruned.
func (s *SQLiteStore) PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := s.now().Add(-olderThan).UTC().Format(timestampLayout)
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM counter_state_history WHERE changed_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting counter state history: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

func parseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(timestampLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing changed_at %q: %w", value, err)
	}
	return t, nil
}

// nullableString maps "" to NULL for nullable TEXT columns.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
