package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dthevenow/briefbot/internal/meeting"
)

func record(id string, fields map[string]interface{}) Record {
	raw, _ := json.Marshal(fields)
	return Record{ID: id, Fields: raw}
}

func transcriptFields(created, participants string) map[string]interface{} {
	return map[string]interface{}{
		"Source Material": "Fireflies Call",
		"Title":           "Weekly sync",
		"Created":         created,
		"Text":            "Speaker 1: hello\nSpeaker 2: hi",
		"Summary":         "Discussed roadmap.",
		"Host Name":       "dana@example.com",
		"Participants":    participants,
	}
}

func serveRecords(t *testing.T, records []Record) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/base1/Meetings", r.URL.Path)
		json.NewEncoder(w).Encode(recordPage{Records: records})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestAdapter(srv *httptest.Server, participant string) *Adapter {
	return NewAdapter(Options{
		Name:             "fireflies",
		BaseURL:          srv.URL,
		APIKey:           "key",
		BaseID:           "base1",
		Table:            "Meetings",
		ParticipantEmail: participant,
	})
}

func TestMeetingsOnFiltersByDayAndParticipant(t *testing.T) {
	records := []Record{
		record("rec1", transcriptFields("2025-10-20T15:00:00Z", "dana@example.com, bob@example.com")),
		record("rec2", transcriptFields("2025-10-19T15:00:00Z", "dana@example.com")),
		record("rec3", transcriptFields("2025-10-20T16:00:00Z", "bob@example.com")),
		record("rec4", map[string]interface{}{
			"Source Material": "Imported Doc",
			"Created":         "2025-10-20T15:00:00Z",
			"Participants":    "dana@example.com",
		}),
	}
	// rec3's host matches even though the participant list does not.
	srv := serveRecords(t, records)
	a := newTestAdapter(srv, "dana@example.com")

	day := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	meetings, err := a.MeetingsOn(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, meetings, 2)
	assert.Equal(t, "rec1", meetings[0].ID)
	assert.Equal(t, "Weekly sync", meetings[0].Title)
	assert.Contains(t, meetings[0].Transcript, "Speaker 1")
	assert.Equal(t, "rec3", meetings[1].ID)
}

func TestMeetingsBetweenSpansDays(t *testing.T) {
	records := []Record{
		record("mon", transcriptFields("2025-10-13T09:00:00Z", "dana@example.com")),
		record("wed", transcriptFields("2025-10-15T09:00:00Z", "dana@example.com")),
		record("prev", transcriptFields("2025-10-12T09:00:00Z", "dana@example.com")),
	}
	srv := serveRecords(t, records)
	a := newTestAdapter(srv, "dana@example.com")

	from := time.Date(2025, 10, 13, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 10, 17, 0, 0, 0, 0, time.UTC)
	meetings, err := a.MeetingsBetween(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, meetings, 2)
	assert.Equal(t, "mon", meetings[0].ID)
	assert.Equal(t, "wed", meetings[1].ID)
}

func TestMeetingsSkipsUnparseableDates(t *testing.T) {
	fields := transcriptFields("not-a-date", "dana@example.com")
	srv := serveRecords(t, []Record{record("bad", fields)})
	a := newTestAdapter(srv, "dana@example.com")

	day := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	meetings, err := a.MeetingsOn(context.Background(), day)
	require.NoError(t, err)
	assert.Empty(t, meetings)
}

func TestUntitledMeetingsGetDefaultTitle(t *testing.T) {
	fields := transcriptFields("2025-10-20T15:00:00Z", "dana@example.com")
	delete(fields, "Title")
	srv := serveRecords(t, []Record{record("rec1", fields)})
	a := newTestAdapter(srv, "dana@example.com")

	day := time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)
	meetings, err := a.MeetingsOn(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, "Untitled Meeting", meetings[0].Title)
}

func TestListRecordsFollowsPagination(t *testing.T) {
	pages := map[string]recordPage{
		"": {
			Records: []Record{record("rec1", transcriptFields("2025-10-20T15:00:00Z", "dana@example.com"))},
			Offset:  "off1",
		},
		"off1": {
			Records: []Record{record("rec2", transcriptFields("2025-10-20T16:00:00Z", "dana@example.com"))},
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(pages[r.URL.Query().Get("offset")])
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "key", "base1", "Meetings")
	records, err := c.ListRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "rec1", records[0].ID)
	assert.Equal(t, "rec2", records[1].ID)
}

func TestClientReportsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	a := newTestAdapter(srv, "dana@example.com")
	_, err := a.ValidateConnection(context.Background())
	require.Error(t, err)
	assert.True(t, meeting.IsAuthError(err))
}

func TestClientRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(recordPage{})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "key", "base1", "Meetings")
	_, err := c.ListRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestValidateConnectionMessage(t *testing.T) {
	srv := serveRecords(t, nil)
	a := newTestAdapter(srv, "")

	msg, err := a.ValidateConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("connected to Airtable table %q", "Meetings"), msg)
}
