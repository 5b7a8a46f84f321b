package mention

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dthevenow/briefbot/internal/model"
)

// fakeTracker is an in-memory Tracker with pre-seeded directory mappings.
type fakeTracker struct {
	items       []model.WorkItem
	comments    map[string][]model.Comment
	commentErrs map[string]error
	users       map[string]string
	listErr     error
}

func (f *fakeTracker) ListModifiedSince(
	_ context.Context, _ time.Time,
) ([]model.WorkItem, error) {
	return f.items, f.listErr
}

func (f *fakeTracker) ListComments(
	_ context.Context, itemGID string,
) ([]model.Comment, error) {
	if err := f.commentErrs[itemGID]; err != nil {
		return nil, err
	}
	return f.comments[itemGID], nil
}

func (f *fakeTracker) ResolveUser(
	_ context.Context, displayName string,
) (string, error) {
	gid, ok := f.users[displayName]
	if !ok {
		return "", fmt.Errorf("user %q not found", displayName)
	}
	return gid, nil
}

// mentionHTML renders the decorated rich-text form of a mention.
func mentionHTML(gid, name string) string {
	return fmt.Sprintf(
		`<body>Hey <a data-asana-type="user" data-asana-gid=%q>@%s</a> can you take a look?</body>`,
		gid, name,
	)
}

// at converts an hour offset into a fixed-base timestamp.
func at(hours int) time.Time {
	base := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(hours) * time.Hour)
}

func comment(gid, itemGID, authorGID, authorName, htmlText string, t time.Time) model.Comment {
	return model.Comment{
		GID:        gid,
		ItemGID:    itemGID,
		AuthorGID:  authorGID,
		AuthorName: authorName,
		Text:       "comment " + gid,
		HTMLText:   htmlText,
		CreatedAt:  t,
	}
}

func newTestReconciler(t *testing.T, tracker Tracker, now time.Time) *Reconciler {
	t.Helper()
	r := NewReconciler(tracker, nil)
	r.now = func() time.Time { return now }
	return r
}

const (
	aliceGID = "1001"
	bobGID   = "1002"
	carolGID = "1003"
)

func TestFindUnansweredReplySuppressesPriorMentions(t *testing.T) {
	// C1 mentions Bob at t=0, Bob replies at t=5, C2 mentions Bob at
	// t=10. Only the t=10 mention is outstanding.
	item := model.WorkItem{GID: "w1", Name: "Launch checklist"}
	tracker := &fakeTracker{
		items: []model.WorkItem{item},
		comments: map[string][]model.Comment{
			"w1": {
				comment("c1", "w1", aliceGID, "Alice", mentionHTML(bobGID, "Bob"), at(0)),
				comment("c2", "w1", bobGID, "Bob", "<body>On it</body>", at(5)),
				comment("c3", "w1", aliceGID, "Alice", mentionHTML(bobGID, "Bob"), at(10)),
			},
		},
		users: map[string]string{"Bob": bobGID},
	}

	r := newTestReconciler(t, tracker, at(12))
	events, err := r.FindUnanswered(context.Background(), []string{"Bob"}, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, "c3", events[0].ID())
	assert.Equal(t, "Bob", events[0].User.Name)
	assert.Equal(t, bobGID, events[0].User.GID)
	assert.InDelta(t, 2.0, events[0].HoursSince, 0.001)
}

func TestFindUnansweredNoReplyReportsEveryMention(t *testing.T) {
	// Same timeline without Bob's reply: both mentions are outstanding,
	// each reported as a distinct event.
	item := model.WorkItem{GID: "w1", Name: "Launch checklist"}
	tracker := &fakeTracker{
		items: []model.WorkItem{item},
		comments: map[string][]model.Comment{
			"w1": {
				comment("c1", "w1", aliceGID, "Alice", mentionHTML(bobGID, "Bob"), at(0)),
				comment("c3", "w1", aliceGID, "Alice", mentionHTML(bobGID, "Bob"), at(10)),
			},
		},
		users: map[string]string{"Bob": bobGID},
	}

	r := newTestReconciler(t, tracker, at(12))
	events, err := r.FindUnanswered(context.Background(), []string{"Bob"}, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "c1", events[0].ID())
	assert.Equal(t, "c3", events[1].ID())
}

func TestFindUnansweredReplyBeforeMentionDoesNotSuppress(t *testing.T) {
	item := model.WorkItem{GID: "w1"}
	tracker := &fakeTracker{
		items: []model.WorkItem{item},
		comments: map[string][]model.Comment{
			"w1": {
				comment("c1", "w1", bobGID, "Bob", "<body>Status update</body>", at(0)),
				comment("c2", "w1", aliceGID, "Alice", mentionHTML(bobGID, "Bob"), at(3)),
			},
		},
		users: map[string]string{"Bob": bobGID},
	}

	r := newTestReconciler(t, tracker, at(5))
	events, err := r.FindUnanswered(context.Background(), []string{"Bob"}, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "c2", events[0].ID())
}

func TestFindUnansweredReplyAtMentionTimestampDoesNotSuppress(t *testing.T) {
	// A reply at exactly the mention's timestamp leaves it outstanding:
	// suppression requires the reply to come strictly after.
	item := model.WorkItem{GID: "w1"}
	tracker := &fakeTracker{
		items: []model.WorkItem{item},
		comments: map[string][]model.Comment{
			"w1": {
				comment("c1", "w1", aliceGID, "Alice", mentionHTML(bobGID, "Bob"), at(2)),
				comment("c2", "w1", bobGID, "Bob", "<body>hello</body>", at(2)),
			},
		},
		users: map[string]string{"Bob": bobGID},
	}

	r := newTestReconciler(t, tracker, at(4))
	events, err := r.FindUnanswered(context.Background(), []string{"Bob"}, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestFindUnansweredWindowExcludesOldMentions(t *testing.T) {
	item := model.WorkItem{GID: "w1"}
	tracker := &fakeTracker{
		items: []model.WorkItem{item},
		comments: map[string][]model.Comment{
			"w1": {
				comment("old", "w1", aliceGID, "Alice", mentionHTML(bobGID, "Bob"), at(0)),
				comment("new", "w1", aliceGID, "Alice", mentionHTML(bobGID, "Bob"), at(40)),
			},
		},
		users: map[string]string{"Bob": bobGID},
	}

	// Lookback of 24h at t=48 covers only the second mention.
	r := newTestReconciler(t, tracker, at(48))
	events, err := r.FindUnanswered(context.Background(), []string{"Bob"}, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "new", events[0].ID())
}

func TestFindUnansweredPlainTextMentionNotDetected(t *testing.T) {
	item := model.WorkItem{GID: "w1"}
	tracker := &fakeTracker{
		items: []model.WorkItem{item},
		comments: map[string][]model.Comment{
			"w1": {
				comment("c1", "w1", aliceGID, "Alice", "<body>Hey @Bob can you look?</body>", at(1)),
			},
		},
		users: map[string]string{"Bob": bobGID},
	}

	r := newTestReconciler(t, tracker, at(2))
	events, err := r.FindUnanswered(context.Background(), []string{"Bob"}, 24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFindUnansweredOneCommentMentioningTwoUsers(t *testing.T) {
	htmlText := fmt.Sprintf(
		`<body><a data-asana-type="user" data-asana-gid=%q>@Bob</a> and `+
			`<a data-asana-type="user" data-asana-gid=%q>@Carol</a>, thoughts?</body>`,
		bobGID, carolGID,
	)
	item := model.WorkItem{GID: "w1"}
	tracker := &fakeTracker{
		items: []model.WorkItem{item},
		comments: map[string][]model.Comment{
			"w1": {comment("c1", "w1", aliceGID, "Alice", htmlText, at(1))},
		},
		users: map[string]string{"Bob": bobGID, "Carol": carolGID},
	}

	r := newTestReconciler(t, tracker, at(2))
	events, err := r.FindUnanswered(
		context.Background(), []string{"Bob", "Carol"}, 24*time.Hour,
	)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// One event per monitored user, both sharing the comment's GID.
	assert.Equal(t, events[0].ID(), events[1].ID())
	names := []string{events[0].User.Name, events[1].User.Name}
	assert.ElementsMatch(t, []string{"Bob", "Carol"}, names)
}

func TestFindUnansweredUnresolvableUserSkipped(t *testing.T) {
	item := model.WorkItem{GID: "w1"}
	tracker := &fakeTracker{
		items: []model.WorkItem{item},
		comments: map[string][]model.Comment{
			"w1": {comment("c1", "w1", aliceGID, "Alice", mentionHTML(bobGID, "Bob"), at(1))},
		},
		users: map[string]string{"Bob": bobGID},
	}

	r := newTestReconciler(t, tracker, at(2))
	events, err := r.FindUnanswered(
		context.Background(), []string{"Ghost", "Bob"}, 24*time.Hour,
	)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Bob", events[0].User.Name)
}

func TestFindUnansweredNoResolvableUsersYieldsEmpty(t *testing.T) {
	tracker := &fakeTracker{
		items: []model.WorkItem{{GID: "w1"}},
		users: map[string]string{},
	}

	r := newTestReconciler(t, tracker, at(2))
	events, err := r.FindUnanswered(context.Background(), []string{"Ghost"}, 24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFindUnansweredCommentFetchFailureSkipsItemOnly(t *testing.T) {
	tracker := &fakeTracker{
		items: []model.WorkItem{{GID: "broken"}, {GID: "w2"}},
		comments: map[string][]model.Comment{
			"w2": {comment("c1", "w2", aliceGID, "Alice", mentionHTML(bobGID, "Bob"), at(1))},
		},
		commentErrs: map[string]error{
			"broken": errors.New("tracker unavailable"),
		},
		users: map[string]string{"Bob": bobGID},
	}

	r := newTestReconciler(t, tracker, at(2))
	events, err := r.FindUnanswered(context.Background(), []string{"Bob"}, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "w2", events[0].Item.GID)
}

func TestFindUnansweredItemListFailureIsFatal(t *testing.T) {
	tracker := &fakeTracker{
		listErr: errors.New("tracker down"),
		users:   map[string]string{"Bob": bobGID},
	}

	r := newTestReconciler(t, tracker, at(2))
	_, err := r.FindUnanswered(context.Background(), []string{"Bob"}, 24*time.Hour)
	require.Error(t, err)
}

func TestFindUnansweredEnrichesRecentComments(t *testing.T) {
	var comments []model.Comment
	for i := 0; i < 7; i++ {
		comments = append(comments, comment(
			fmt.Sprintf("c%d", i), "w1", aliceGID, "Alice",
			"<body>noise</body>", at(i),
		))
	}
	comments = append(comments, comment(
		"cm", "w1", aliceGID, "Alice", mentionHTML(bobGID, "Bob"), at(8),
	))

	tracker := &fakeTracker{
		items:    []model.WorkItem{{GID: "w1", Name: "Budget", URL: "https://t/w1"}},
		comments: map[string][]model.Comment{"w1": comments},
		users:    map[string]string{"Bob": bobGID},
	}

	r := newTestReconciler(t, tracker, at(10))
	events, err := r.FindUnanswered(context.Background(), []string{"Bob"}, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	require.Len(t, e.RecentComments, 5)
	assert.Equal(t, "cm", e.RecentComments[4].GID)
	assert.Equal(t, "Budget", e.Item.Name)
	assert.InDelta(t, 2.0, e.HoursSince, 0.001)
}

func TestFindUnansweredEveryMentionAppearsExactlyOnce(t *testing.T) {
	// Property: when the monitored user never posts, every decorated
	// mention inside the window shows up exactly once.
	var comments []model.Comment
	want := map[string]bool{}
	for i := 0; i < 6; i++ {
		gid := fmt.Sprintf("m%d", i)
		comments = append(comments, comment(
			gid, "w1", aliceGID, "Alice", mentionHTML(bobGID, "Bob"), at(i),
		))
		want[gid] = true
	}

	tracker := &fakeTracker{
		items:    []model.WorkItem{{GID: "w1"}},
		comments: map[string][]model.Comment{"w1": comments},
		users:    map[string]string{"Bob": bobGID},
	}

	r := newTestReconciler(t, tracker, at(10))
	events, err := r.FindUnanswered(context.Background(), []string{"Bob"}, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, events, len(want))

	got := map[string]bool{}
	for _, e := range events {
		assert.False(t, got[e.ID()], "mention %s reported twice", e.ID())
		got[e.ID()] = true
	}
	assert.Equal(t, want, got)
}
