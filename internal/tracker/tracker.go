// Package tracker defines the task-tracker collaborator surface the agent
// consumes. Implementations live in subpackages (currently Asana).
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dthevenow/briefbot/internal/model"
)

// ErrUserNotFound is returned by ResolveUser when a display name does not
// match any user in the workspace.
var ErrUserNotFound = errors.New("user not found in workspace")

// AuthError indicates that authentication has failed or expired for the
// tracker. It is returned when a 401 response is received.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("tracker auth error: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// ResponseDraft is an AI-suggested reply attached to a mention followup.
type ResponseDraft struct {
	// Suggested is the drafted response text; empty when no meaningful
	// draft could be produced.
	Suggested string

	// Confidence is "high", "medium", or "low".
	Confidence string

	// ActionNeeded describes what the comment is asking for.
	ActionNeeded string
}

// MentionFollowup carries one unanswered mention, plus its draft reply,
// into the tracker's respond-to-mentions task.
type MentionFollowup struct {
	ItemName    string
	ItemURL     string
	Project     string
	AuthorName  string
	CommentText string
	HoursSince  float64
	Draft       ResponseDraft
}

// Tracker is the contract the agent needs from the task-tracking system.
type Tracker interface {
	// WhoAmI verifies credentials and returns the token owner's
	// display name.
	WhoAmI(ctx context.Context) (string, error)

	// ListModifiedSince returns work items assigned to tracked team
	// members that changed since the given time.
	ListModifiedSince(ctx context.Context, since time.Time) ([]model.WorkItem, error)

	// ListComments returns an item's comments in chronological order.
	ListComments(ctx context.Context, itemGID string) ([]model.Comment, error)

	// ResolveUser maps a display name to the user's stable GID,
	// returning ErrUserNotFound when no user matches.
	ResolveUser(ctx context.Context, displayName string) (string, error)

	// CompletedSince returns tracked team members' tasks completed at
	// or after the given time.
	CompletedSince(ctx context.Context, since time.Time) ([]model.CompletedTask, error)

	// OverdueTasks returns tracked team members' incomplete tasks whose
	// due date has passed.
	OverdueTasks(ctx context.Context) ([]model.OverdueTask, error)

	// CreateTask creates a single task.
	CreateTask(ctx context.Context, task model.NewTask) (model.TaskRef, error)

	// CreateMentionFollowups creates the daily respond-to-mentions
	// parent task with one subtask per followup, assigned to the
	// given user.
	CreateMentionFollowups(
		ctx context.Context,
		followups []MentionFollowup,
		assignee string,
	) (model.TaskRef, error)
}
