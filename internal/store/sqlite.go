package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/medchain/inventory-console/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// An in-memory database exists per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// RecordEvent appends one entry to the journal.
func (s *SQLiteStore) RecordEvent(ctx context.Context, e model.HistoryEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_history (
			id, notification_id, event, kind, severity,
			title, message, item_id, created_at, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.NotificationID, string(e.Event), string(e.Kind), string(e.Severity),
		e.Title, e.Message, e.ItemID, e.CreatedAt.UTC(), e.RecordedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording %s event for %s: %w", e.Event, e.NotificationID, err)
	}
	return nil
}

// History returns journal entries matching filter, newest first.
func (s *SQLiteStore) History(
	ctx context.Context,
	filter HistoryFilter,
) ([]model.HistoryEntry, error) {
	where, args := buildHistoryWhere(filter)

	query := "SELECT * FROM notification_history" + where +
		" ORDER BY recorded_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// HistoryCount counts journal entries matching filter, ignoring
// pagination.
func (s *SQLiteStore) HistoryCount(ctx context.Context, filter HistoryFilter) (int, error) {
	where, args := buildHistoryWhere(filter)

	var count int
	if err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM notification_history"+where, args...,
	); err != nil {
		return 0, fmt.Errorf("counting history: %w", err)
	}
	return count, nil
}

// Prune deletes entries recorded before the given time and returns how
// many were removed.
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM notification_history WHERE recorded_at < ?", before.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	return n, nil
}

func buildHistoryWhere(filter HistoryFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Event != nil {
		conditions = append(conditions, "event = ?")
		args = append(args, *filter.Event)
	}
	if filter.Kind != nil {
		conditions = append(conditions, "kind = ?")
		args = append(args, *filter.Kind)
	}
	if filter.NotificationID != nil {
		conditions = append(conditions, "notification_id = ?")
		args = append(args, *filter.NotificationID)
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(title LIKE ? OR message LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q)
	}
	if filter.Since != nil {
		conditions = append(conditions, "recorded_at >= ?")
		args = append(args, filter.Since.UTC())
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// scanHistory scans a journal row from a sqlx.Rows result set.
func scanHistory(rows *sqlx.Rows) (model.HistoryEntry, error) {
	var (
		e          model.HistoryEntry
		event      string
		kind       string
		severity   string
		createdAt  time.Time
		recordedAt time.Time
	)

	err := rows.Scan(
		&e.ID, &e.NotificationID, &event, &kind, &severity,
		&e.Title, &e.Message, &e.ItemID, &createdAt, &recordedAt,
	)
	if err != nil {
		return model.HistoryEntry{}, fmt.Errorf("scanning history row: %w", err)
	}

	e.Event = model.HistoryEvent(event)
	e.Kind = model.Kind(kind)
	e.Severity = model.Severity(severity)
	e.CreatedAt = createdAt
	e.RecordedAt = recordedAt

	return e, nil
}
