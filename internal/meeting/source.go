// Package meeting defines the contract for meeting-transcript sources.
package meeting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dthevenow/briefbot/internal/model"
)

// AuthError indicates that authentication has failed or expired for a
// meeting source. It is returned by source clients on a 401 response.
type AuthError struct {
	SourceType SourceType
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.SourceType, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// SourceType identifies the kind of meeting source integration.
type SourceType string

const (
	SourceTypeAirtable SourceType = "airtable"
	SourceTypeInbox    SourceType = "inbox"
)

// Source defines the contract that every meeting source must implement.
// A source yields recorded meetings with transcripts for a reporting
// window; the briefing pipeline does not care where they come from.
type Source interface {
	// Type returns the source type identifier.
	Type() SourceType

	// Name returns the user-defined label for this source instance.
	Name() string

	// ValidateConnection verifies credentials and connectivity.
	// Returns a human-readable status message on success.
	ValidateConnection(ctx context.Context) (string, error)

	// MeetingsOn retrieves the meetings that took place on the given
	// day, interpreted in the day's own location.
	MeetingsOn(ctx context.Context, day time.Time) ([]model.Meeting, error)

	// MeetingsBetween retrieves the meetings in the inclusive day range
	// [from, to]. Used by the weekly report.
	MeetingsBetween(ctx context.Context, from, to time.Time) ([]model.Meeting, error)
}

// SameDay reports whether t falls on the given calendar day in the
// day's location.
func SameDay(t, day time.Time) bool {
	y1, m1, d1 := t.In(day.Location()).Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// WithinDays reports whether t falls on a calendar day in the inclusive
// range [from, to].
func WithinDays(t, from, to time.Time) bool {
	day := t.In(from.Location())
	start := midnight(from)
	end := midnight(to).AddDate(0, 0, 1)
	return !day.Before(start) && day.Before(end)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
