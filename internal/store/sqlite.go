package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/dthevenow/briefbot/internal/model"
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

	// Enable WAL mode for better concurrent read performance.
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

// RecordRun inserts a finished run. A missing ID is filled in.
func (s *SQLiteStore) RecordRun(ctx context.Context, rec *model.RunRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	const query = `
		INSERT INTO runs (
			id, kind, status, error,
			started_at, finished_at,
			meetings, action_items, completed_tasks, overdue_tasks,
			mentions, new_mentions, report_json
		) VALUES (
			:id, :kind, :status, :error,
			:started_at, :finished_at,
			:meetings, :action_items, :completed_tasks, :overdue_tasks,
			:mentions, :new_mentions, :report_json
		)`

	if _, err := s.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// listColumns omits report_json so the history listing stays cheap even
// with large archived reports.
const listColumns = `
	id, kind, status, error, started_at, finished_at,
	meetings, action_items, completed_tasks, overdue_tasks,
	mentions, new_mentions, '' AS report_json`

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(
	ctx context.Context,
	limit int,
) ([]model.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []model.RunRecord
	err := s.db.SelectContext(ctx, &runs,
		"SELECT "+listColumns+" FROM runs ORDER BY started_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run including its archived report payload.
func (s *SQLiteStore) GetRun(
	ctx context.Context,
	id string,
) (*model.RunRecord, error) {
	var rec model.RunRecord
	err := s.db.GetContext(ctx, &rec, "SELECT * FROM runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting run %s: %w", id, err)
	}
	return &rec, nil
}

// LastRun returns the newest run of the given kind, or nil when none
// has happened yet.
func (s *SQLiteStore) LastRun(
	ctx context.Context,
	kind model.ReportKind,
) (*model.RunRecord, error) {
	var rec model.RunRecord
	err := s.db.GetContext(ctx, &rec,
		"SELECT * FROM runs WHERE kind = ? ORDER BY started_at DESC LIMIT 1",
		kind,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting last %s run: %w", kind, err)
	}
	return &rec, nil
}
