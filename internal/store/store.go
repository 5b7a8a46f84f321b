// Package store persists the run history: one record per brief run plus
// the archived report payload.
package store

import (
	"context"
	"errors"

	"github.com/dthevenow/briefbot/internal/model"
)

// ErrNotFound is returned when no run matches the requested ID.
var ErrNotFound = errors.New("run not found")

// Store defines the run-history persistence interface.
type Store interface {
	// RecordRun inserts a finished run. A missing ID is filled in.
	RecordRun(ctx context.Context, rec *model.RunRecord) error

	// ListRuns returns the most recent runs, newest first, without
	// their archived report payloads.
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)

	// GetRun returns one run including its archived report payload.
	GetRun(ctx context.Context, id string) (*model.RunRecord, error)

	// LastRun returns the newest run of the given kind, or nil when
	// none has happened yet.
	LastRun(ctx context.Context, kind model.ReportKind) (*model.RunRecord, error)

	Close() error
}
