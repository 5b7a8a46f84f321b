package mention

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dthevenow/briefbot/internal/model"
)

// recentContextSize is how many trailing comments are attached to each
// event for response-drafting context.
const recentContextSize = 5

// Tracker is the collaborator surface the reconciler needs from the task
// tracker. The full tracker client satisfies it.
type Tracker interface {
	// ListModifiedSince returns work items changed since the given time.
	ListModifiedSince(ctx context.Context, since time.Time) ([]model.WorkItem, error)

	// ListComments returns an item's comments in chronological order.
	ListComments(ctx context.Context, itemGID string) ([]model.Comment, error)

	// ResolveUser maps a display name to the user's stable GID.
	ResolveUser(ctx context.Context, displayName string) (string, error)
}

// Reconciler reconstructs conversation state from flat comment streams and
// reports mentions of monitored users that have not been answered.
type Reconciler struct {
	tracker Tracker
	log     *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewReconciler creates a Reconciler over the given tracker.
func NewReconciler(t Tracker, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{
		tracker: t,
		log:     log,
		now:     time.Now,
	}
}

// FindUnanswered scans work items modified within the lookback window and
// returns every mention of a monitored user that the user has not replied
// after. A mention is answered only by a comment the mentioned user posts
// on the same item at or after the mention's timestamp.
//
// Failures are contained: a user that cannot be resolved is skipped, an
// item whose comments cannot be fetched is skipped, and a run with no
// resolvable users yields an empty result. Only the initial item listing
// can fail the whole pass.
func (r *Reconciler) FindUnanswered(
	ctx context.Context,
	monitoredNames []string,
	lookback time.Duration,
) ([]Event, error) {
	users := r.resolveUsers(ctx, monitoredNames)
	if len(users) == 0 {
		r.log.Warn("no monitored users resolvable in workspace")
		return nil, nil
	}

	now := r.now()
	since := now.Add(-lookback)

	items, err := r.tracker.ListModifiedSince(ctx, since)
	if err != nil {
		return nil, err
	}

	r.log.Info("checking items for unanswered mentions",
		zap.Int("items", len(items)),
		zap.Int("monitored_users", len(users)),
	)

	var unanswered []Event
	for _, item := range items {
		comments, err := r.tracker.ListComments(ctx, item.GID)
		if err != nil {
			r.log.Warn("skipping item: fetching comments failed",
				zap.String("item_gid", item.GID),
				zap.Error(err),
			)
			continue
		}
		if len(comments) == 0 {
			continue
		}

		for _, user := range users {
			events := r.walkTimeline(item, comments, user, since, now)
			unanswered = append(unanswered, events...)
		}
	}

	r.log.Info("unanswered mention scan complete",
		zap.Int("unanswered", len(unanswered)),
	)
	return unanswered, nil
}

// resolveUsers maps monitored display names to GIDs, dropping names the
// directory cannot resolve.
func (r *Reconciler) resolveUsers(
	ctx context.Context,
	names []string,
) []model.MonitoredUser {
	var users []model.MonitoredUser
	for _, name := range names {
		gid, err := r.tracker.ResolveUser(ctx, name)
		if err != nil {
			r.log.Warn("skipping monitored user: resolution failed",
				zap.String("name", name),
				zap.Error(err),
			)
			continue
		}
		users = append(users, model.MonitoredUser{Name: name, GID: gid})
	}
	return users
}

// walkTimeline walks one item's comments in chronological order for one
// monitored user and returns that user's unanswered mentions.
//
// The walk tracks the timestamp of the user's most recent comment. A reply
// answers every mention strictly before it; a mention at or after the last
// reply is still outstanding. There is no per-mention thread matching.
func (r *Reconciler) walkTimeline(
	item model.WorkItem,
	comments []model.Comment,
	user model.MonitoredUser,
	since time.Time,
	now time.Time,
) []Event {
	var lastReplyAt *time.Time
	var candidates []model.Comment

	for _, c := range comments {
		if c.AuthorGID == user.GID {
			// The user's own comment answers prior mentions and can
			// never mention them under this contract.
			if lastReplyAt == nil || c.CreatedAt.After(*lastReplyAt) {
				t := c.CreatedAt
				lastReplyAt = &t
			}
			continue
		}

		for _, ref := range ExtractRefs(c.HTMLText) {
			if ref.UserGID == user.GID {
				candidates = append(candidates, c)
			}
		}
	}

	var events []Event
	for _, c := range candidates {
		if c.CreatedAt.Before(since) {
			continue
		}
		if lastReplyAt != nil && lastReplyAt.After(c.CreatedAt) {
			continue
		}

		recent := comments
		if len(recent) > recentContextSize {
			recent = recent[len(recent)-recentContextSize:]
		}

		events = append(events, Event{
			Item:           item,
			Comment:        c,
			User:           user,
			MentionedAt:    c.CreatedAt,
			HoursSince:     now.Sub(c.CreatedAt).Hours(),
			RecentComments: recent,
		})
	}

	return events
}
