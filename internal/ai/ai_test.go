package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dthevenow/briefbot/internal/mention"
	"github.com/dthevenow/briefbot/internal/model"
)

// fakeLLM returns canned responses in order, then repeats the last one.
type fakeLLM struct {
	responses []string
	err       error
	prompts   []string
}

func (f *fakeLLM) Complete(
	_ context.Context, prompt string, _ int64,
) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	idx := len(f.prompts) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"{\"a\": 1}", `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"  \n```json\n[1, 2]\n```\ntrailing", `[1, 2]`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, stripFences(tc.in))
	}
}

func mentionEvent() mention.Event {
	created := time.Date(2025, 10, 20, 10, 0, 0, 0, time.UTC)
	return mention.Event{
		Item: model.WorkItem{
			Name:    "Deploy pipeline",
			Project: "Platform",
			Notes:   "CI/CD migration",
		},
		Comment: model.Comment{
			GID:        "c9",
			AuthorName: "Bob Park",
			Text:       "can you take a look?",
			CreatedAt:  created,
		},
		RecentComments: []model.Comment{
			{GID: "c7", AuthorName: "Alice Chen", Text: "pushed a fix"},
			{GID: "c8", AuthorName: "Bob Park", Text: "still failing"},
			{GID: "c9", AuthorName: "Bob Park", Text: "can you take a look?"},
		},
	}
}

func TestResponderParsesDraft(t *testing.T) {
	llm := &fakeLLM{responses: []string{"```json\n" + `{
		"suggested_response": "Looking into it now.",
		"confidence": "high",
		"reasoning": "Clear request.",
		"action_needed": "Investigate the failing pipeline"
	}` + "\n```"}}
	r := NewResponder(llm, nil)

	draft := r.Draft(context.Background(), mentionEvent())
	assert.Equal(t, "Looking into it now.", draft.Suggested)
	assert.Equal(t, "high", draft.Confidence)
	assert.Equal(t, "Investigate the failing pipeline", draft.ActionNeeded)

	// The prompt carries the conversation minus the mention itself.
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "pushed a fix")
	assert.Contains(t, llm.prompts[0], "still failing")
	assert.Contains(t, llm.prompts[0], "Deploy pipeline")
}

func TestResponderDegradesOnError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("api down")}
	r := NewResponder(llm, nil)

	draft := r.Draft(context.Background(), mentionEvent())
	assert.Empty(t, draft.Suggested)
	assert.Equal(t, "low", draft.Confidence)
	assert.Contains(t, draft.ActionNeeded, "Manual review required")
}

func TestResponderDegradesOnGarbageOutput(t *testing.T) {
	llm := &fakeLLM{responses: []string{"I think you should reply politely."}}
	r := NewResponder(llm, nil)

	draft := r.Draft(context.Background(), mentionEvent())
	assert.Equal(t, "low", draft.Confidence)
	assert.Contains(t, draft.ActionNeeded, "Manual review required")
}

func TestDraftAllAlignsWithEvents(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		`{"suggested_response": "A", "confidence": "high"}`,
		`{"suggested_response": "B", "confidence": "medium"}`,
	}}
	r := NewResponder(llm, nil)

	drafts := r.DraftAll(context.Background(), []mention.Event{
		mentionEvent(), mentionEvent(),
	})
	require.Len(t, drafts, 2)
	assert.Equal(t, "A", drafts[0].Suggested)
	assert.Equal(t, "B", drafts[1].Suggested)
}

func TestAnalyzerExtractsActionItems(t *testing.T) {
	llm := &fakeLLM{responses: []string{`[
		{"title": "Update runbook", "description": "After the incident", "assignee": "Alice Chen", "due_date": "2025-10-24"},
		{"title": "Schedule retro", "assignee": "Unassigned"}
	]`}}
	a := NewAnalyzer(llm, nil)

	m := model.Meeting{
		Title:      "Incident review",
		Date:       time.Date(2025, 10, 20, 15, 0, 0, 0, time.UTC),
		Transcript: "Speaker 1: we should update the runbook",
	}
	items, err := a.AnalyzeMeeting(context.Background(), m)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Update runbook", items[0].Title)
	assert.Equal(t, "Alice Chen", items[0].Assignee)
	assert.Equal(t, "2025-10-24", items[0].DueDate)
	assert.Equal(t, "Incident review", items[0].MeetingTitle)
	assert.Equal(t, "2025-10-20", items[0].MeetingDate)
}

func TestAnalyzerSkipsEmptyMeetings(t *testing.T) {
	llm := &fakeLLM{responses: []string{`[]`}}
	a := NewAnalyzer(llm, nil)

	items, err := a.AnalyzeMeeting(context.Background(), model.Meeting{Title: "Empty"})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, llm.prompts, "empty meetings must not reach the model")
}

func TestAnalyzerRejectsNonArrayOutput(t *testing.T) {
	llm := &fakeLLM{responses: []string{`{"oops": true}`}}
	a := NewAnalyzer(llm, nil)

	_, err := a.AnalyzeMeeting(context.Background(), model.Meeting{
		Title:      "Sync",
		Transcript: "text",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON array")
}

func TestAnalyzeMeetingsContinuesPastFailures(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		`not json`,
		`[{"title": "Only good item"}]`,
	}}
	a := NewAnalyzer(llm, nil)

	meetings := []model.Meeting{
		{Title: "Bad", Transcript: "x"},
		{Title: "Good", Transcript: "y"},
	}
	items, err := a.AnalyzeMeetings(context.Background(), meetings)
	require.Error(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Only good item", items[0].Title)
}

func TestDailySummaryParsesResponse(t *testing.T) {
	llm := &fakeLLM{responses: []string{`{
		"overview": "Productive day.",
		"team_highlights": ["Shipped the migration"],
		"concerns": ["Backlog growing"],
		"recommendation": "Triage the backlog."
	}`}}
	s := NewSummarizer(llm, nil)

	sum := s.DailySummary(context.Background(),
		[]model.CompletedTask{{Name: "Migrate DB", Assignee: "Alice Chen"}},
		[]model.OverdueTask{{Name: "Old task", DaysOverdue: 12}},
	)
	assert.Equal(t, "Productive day.", sum.Overview)
	assert.Equal(t, []string{"Shipped the migration"}, sum.Highlights)
	assert.Equal(t, []string{"Backlog growing"}, sum.Concerns)
	assert.Equal(t, "Triage the backlog.", sum.Recommendation)
}

func TestDailySummaryFallsBackOnError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("api down")}
	s := NewSummarizer(llm, nil)

	sum := s.DailySummary(context.Background(),
		make([]model.CompletedTask, 3),
		make([]model.OverdueTask, 7),
	)
	assert.Contains(t, sum.Overview, "completed 3 tasks")
	assert.Contains(t, sum.Overview, "7 overdue")
	assert.NotEmpty(t, sum.Recommendation)
}

func TestWeeklySummaryParsesResponse(t *testing.T) {
	llm := &fakeLLM{responses: []string{`{
		"overview": "Strong week.",
		"major_accomplishments": ["Released v2"],
		"team_summary": "Alice led the release.",
		"next_week_focus": ["Stabilize v2"]
	}`}}
	s := NewSummarizer(llm, nil)

	sum := s.WeeklySummary(context.Background(), nil, nil)
	assert.Equal(t, "Strong week.", sum.Overview)
	assert.Equal(t, []string{"Released v2"}, sum.Accomplishments)
	assert.Equal(t, "Alice led the release.", sum.TeamSummary)
	assert.Equal(t, []string{"Stabilize v2"}, sum.NextWeekFocus)
}

func TestWeeklySummarySamplesMostOverdue(t *testing.T) {
	overdue := make([]model.OverdueTask, 40)
	for i := range overdue {
		overdue[i] = model.OverdueTask{Name: "t", DaysOverdue: i}
	}
	sample := mostOverdue(overdue, weeklyOverdueSample)
	require.Len(t, sample, weeklyOverdueSample)
	assert.Equal(t, 39, sample[0].DaysOverdue)
	assert.Equal(t, 10, sample[len(sample)-1].DaysOverdue)
}

func TestTopPerformersRanksByCount(t *testing.T) {
	performers := topPerformers(map[string]int{
		"Alice Chen": 5,
		"Bob Park":   8,
		"Carol Diaz": 5,
	}, 2)
	require.Len(t, performers, 2)
	assert.Equal(t, "Bob Park", performers[0]["name"])
	assert.Equal(t, "Alice Chen", performers[1]["name"])
}
