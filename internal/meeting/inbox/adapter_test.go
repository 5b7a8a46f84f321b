package inbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailbox struct {
	messages []Message
	count    uint32
	err      error

	gotSince time.Time
}

func (f *fakeMailbox) CheckMailbox(_ context.Context) (uint32, error) {
	return f.count, f.err
}

func (f *fakeMailbox) FetchMessagesSince(
	_ context.Context, since time.Time, _ int,
) ([]Message, error) {
	f.gotSince = since
	return f.messages, f.err
}

func newTestAdapter(mb *fakeMailbox, subjectFilter string) *Adapter {
	a := NewAdapter(Options{
		Name:          "transcripts",
		Host:          "imap.example.com",
		Port:          "993",
		TLS:           true,
		SubjectFilter: subjectFilter,
	})
	a.client = mb
	return a
}

func TestMeetingsOnFiltersSubjectAndDay(t *testing.T) {
	day := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	mb := &fakeMailbox{messages: []Message{
		{
			UID:      1,
			Subject:  "Meeting notes: Weekly sync",
			From:     "Fireflies",
			Date:     day.Add(15 * time.Hour),
			TextBody: "Speaker 1: hello",
		},
		{
			UID:      2,
			Subject:  "Meeting notes: Yesterday's sync",
			Date:     day.Add(-5 * time.Hour),
			TextBody: "old",
		},
		{
			UID:      3,
			Subject:  "Your invoice is ready",
			Date:     day.Add(16 * time.Hour),
			TextBody: "unrelated",
		},
	}}
	a := newTestAdapter(mb, "meeting notes")

	meetings, err := a.MeetingsOn(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, "INBOX/1", meetings[0].ID)
	assert.Equal(t, "Weekly sync", meetings[0].Title)
	assert.Equal(t, "Fireflies", meetings[0].Host)
	assert.Equal(t, "Speaker 1: hello", meetings[0].Transcript)

	// The search is widened by a day to survive server-local matching.
	assert.Equal(t, day.AddDate(0, 0, -1), mb.gotSince)
}

func TestMeetingsOnSkipsEmptyBodies(t *testing.T) {
	day := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	mb := &fakeMailbox{messages: []Message{
		{UID: 1, Subject: "Transcript: Standup", Date: day.Add(time.Hour)},
		{
			UID:      2,
			Subject:  "Transcript: Retro",
			Date:     day.Add(2 * time.Hour),
			HTMLBody: "<p>Speaker 1: hi</p>",
		},
	}}
	a := newTestAdapter(mb, "transcript")

	meetings, err := a.MeetingsOn(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, meetings, 1)

	// HTML body is the fallback when no plain-text part exists.
	assert.Equal(t, "Retro", meetings[0].Title)
	assert.Equal(t, "<p>Speaker 1: hi</p>", meetings[0].Transcript)
}

func TestMeetingsBetweenUsesInclusiveRange(t *testing.T) {
	from := time.Date(2025, 10, 13, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 10, 17, 0, 0, 0, 0, time.UTC)
	mb := &fakeMailbox{messages: []Message{
		{UID: 1, Subject: "Recap: Monday", Date: from.Add(9 * time.Hour), TextBody: "a"},
		{UID: 2, Subject: "Recap: Friday", Date: to.Add(17 * time.Hour), TextBody: "b"},
		{UID: 3, Subject: "Recap: Sunday", Date: from.Add(-10 * time.Hour), TextBody: "c"},
	}}
	a := newTestAdapter(mb, "recap")

	meetings, err := a.MeetingsBetween(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, meetings, 2)
	assert.Equal(t, "Monday", meetings[0].Title)
	assert.Equal(t, "Friday", meetings[1].Title)
}

func TestEmptySubjectFilterKeepsEverything(t *testing.T) {
	day := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	mb := &fakeMailbox{messages: []Message{
		{UID: 1, Subject: "Anything at all", Date: day.Add(time.Hour), TextBody: "x"},
	}}
	a := newTestAdapter(mb, "")

	meetings, err := a.MeetingsOn(context.Background(), day)
	require.NoError(t, err)
	assert.Len(t, meetings, 1)
}

func TestValidateConnectionReportsCount(t *testing.T) {
	a := newTestAdapter(&fakeMailbox{count: 12}, "")

	msg, err := a.ValidateConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "connected, 12 message(s) in INBOX", msg)
}

func TestMeetingTitleStripsPrefixes(t *testing.T) {
	cases := map[string]string{
		"Meeting notes: Weekly sync": "Weekly sync",
		"Transcript: Q4 planning":    "Q4 planning",
		"recap: standup":             "standup",
		"Plain subject":              "Plain subject",
		"":                           "Untitled Meeting",
	}
	for subject, want := range cases {
		assert.Equal(t, want, meetingTitle(subject), "subject %q", subject)
	}
}
