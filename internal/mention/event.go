// Package mention finds unanswered @mentions of monitored users across
// recently active work items and keeps a durable ledger of mentions that
// have already triggered a follow-up action, so repeated scheduled runs
// stay idempotent.
package mention

import (
	"time"

	"github.com/dthevenow/briefbot/internal/model"
)

// Event is one unanswered mention of a monitored user. Events are derived
// per run and never persisted; only their triggering comment GIDs enter
// the ledger.
type Event struct {
	// Item is the work item the mention occurred on.
	Item model.WorkItem

	// Comment is the comment containing the mention.
	Comment model.Comment

	// User is the monitored user who was mentioned.
	User model.MonitoredUser

	// MentionedAt is the triggering comment's timestamp.
	MentionedAt time.Time

	// HoursSince is how long the mention has been waiting, measured at
	// reconciliation time.
	HoursSince float64

	// RecentComments holds the item's last few comments, oldest first,
	// for response-drafting context.
	RecentComments []model.Comment
}

// ID returns the mention's stable identifier: the GID of the triggering
// comment. One comment mentioning several monitored users produces one
// event per user, all sharing this ID.
func (e Event) ID() string {
	return e.Comment.GID
}
