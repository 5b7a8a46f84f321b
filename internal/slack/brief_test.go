package slack

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dthevenow/briefbot/internal/model"
)

func TestMentionMessagesGroupsByUser(t *testing.T) {
	mentions := []MentionDetail{
		{
			UserName:    "Alice Chen",
			AuthorName:  "Bob Park",
			ItemName:    "Deploy pipeline",
			ItemGID:     "t1",
			ItemURL:     "https://app.asana.com/0/0/t1",
			CommentText: "can you take a look?",
			HoursSince:  3,
			Suggested:   "Looking into it now.",
			Confidence:  "high",
		},
	}
	msgs := MentionMessages(mentions, []string{"Alice Chen", "Carol Diaz"})

	// Header, Alice section, Alice's mention, its draft, Carol's
	// all-clear section.
	require.Len(t, msgs, 5)
	assert.Contains(t, msgs[0].Blocks[0].Text.Text, "1 Unanswered @Mention Need")
	assert.Contains(t, msgs[1].Blocks[0].Text.Text, "For Alice Chen (1 message)")

	mentionMsg := msgs[2]
	assert.Contains(t, mentionMsg.Blocks[0].Text.Text, "Deploy pipeline")
	require.NotNil(t, mentionMsg.Blocks[0].Accessory)
	assert.Equal(t, "https://app.asana.com/0/0/t1", mentionMsg.Blocks[0].Accessory.URL)
	assert.Contains(t, mentionMsg.Blocks[1].Elements[0].Text, "3 hours ago")
	assert.Contains(t, mentionMsg.Blocks[2].Text.Text, ">can you take a look?")

	draftMsg := msgs[3]
	assert.Contains(t, draftMsg.Blocks[0].Text.Text, "Suggested Response")
	assert.Contains(t, draftMsg.Blocks[0].Text.Text, "High confidence")
	assert.Contains(t, draftMsg.Blocks[0].Text.Text, "Looking into it now.")

	assert.Contains(t, msgs[4].Blocks[0].Text.Text, "For Carol Diaz")
	assert.Contains(t, msgs[4].Blocks[0].Text.Text, "all caught up")
}

func TestMentionMessagesAllClear(t *testing.T) {
	msgs := MentionMessages(nil, []string{"Alice Chen"})
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Blocks[0].Text.Text, "All Caught Up")
	assert.Contains(t, msgs[0].Blocks[1].Elements[0].Text, "Monitoring: Alice Chen")
}

func TestLongDraftsAreChunked(t *testing.T) {
	draft := strings.Repeat("word ", 1200) // ~6000 chars
	msgs := singleMentionMessages(MentionDetail{
		UserName:   "Alice Chen",
		ItemName:   "Big item",
		Suggested:  draft,
		Confidence: "medium",
	})

	// Context message plus at least three draft chunks.
	require.GreaterOrEqual(t, len(msgs), 4)
	assert.Contains(t, msgs[1].Blocks[0].Text.Text, "Suggested Response")
	assert.Contains(t, msgs[2].Blocks[0].Text.Text, "(continued 2/")
	for _, msg := range msgs[1:] {
		assert.Less(t, len(msg.Blocks[0].Text.Text), 3000)
	}
}

func TestCompletedMessagesOrderedByCount(t *testing.T) {
	tasks := []model.CompletedTask{
		{GID: "1", Name: "A", Assignee: "Bob Park"},
		{GID: "2", Name: "B", Assignee: "Alice Chen"},
		{GID: "3", Name: "C", Assignee: "Alice Chen", Project: "Platform"},
	}
	msgs := CompletedMessages(tasks)
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[0].Blocks[0].Text.Text, "3 total")

	// Alice has more tasks, so her message comes first.
	assert.Contains(t, msgs[1].Blocks[0].Text.Text, "*Alice Chen* (2 tasks)")
	assert.Contains(t, msgs[1].Blocks[0].Text.Text, "<https://app.asana.com/0/0/3|C> _(Platform)_")
	assert.Contains(t, msgs[2].Blocks[0].Text.Text, "*Bob Park* (1 task)")
}

func TestOverdueMessagesSortAndFlagUrgency(t *testing.T) {
	tasks := []model.OverdueTask{
		{GID: "1", Name: "Mild", Assignee: "Alice Chen", DaysOverdue: 2},
		{GID: "2", Name: "Severe", Assignee: "Alice Chen", DaysOverdue: 20},
		{GID: "3", Name: "Medium", Assignee: "Alice Chen", DaysOverdue: 8},
	}
	msgs := OverdueMessages(tasks, 90)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Blocks[0].Text.Text, "(3 total (last 90 days))")

	body := msgs[1].Blocks[0].Text.Text
	severe := strings.Index(body, "🔴")
	medium := strings.Index(body, "🟠")
	mild := strings.Index(body, "🟡")
	assert.True(t, severe < medium && medium < mild, "most overdue listed first")
	assert.Contains(t, body, "(20d overdue)")
}

func TestCompletedMessagesChunkLargeGroups(t *testing.T) {
	tasks := make([]model.CompletedTask, 45)
	for i := range tasks {
		tasks[i] = model.CompletedTask{Name: "t", Assignee: "Alice Chen"}
	}
	msgs := CompletedMessages(tasks)

	// Header plus three task chunks of at most 20.
	require.Len(t, msgs, 4)
	assert.Contains(t, msgs[1].Blocks[0].Text.Text, "Part 1/3")
	assert.Contains(t, msgs[3].Blocks[0].Text.Text, "Part 3/3")
}

func TestDailyBriefMessage(t *testing.T) {
	report := model.Report{
		Date:           "2025-10-20",
		Timestamp:      "4:00 PM MDT",
		Overview:       "Productive day.",
		Highlights:     []string{"Shipped the migration"},
		Concerns:       []string{"Backlog growing"},
		Recommendation: "Triage the backlog.",
		ActionItems: []model.ActionItem{
			{Title: "Update runbook", Assignee: "Alice Chen"},
		},
		CompletedTasks: make([]model.CompletedTask, 4),
		OverdueTasks:   make([]model.OverdueTask, 2),
	}
	msg := DailyBriefMessage(report, true)

	assert.Equal(t, "📊 Daily Brief for 2025-10-20", msg.Text)
	all := flattenBlocks(msg.Blocks)
	assert.Contains(t, all, "Daily Brief - 2025-10-20")
	assert.Contains(t, all, "Action Items Created")
	assert.Contains(t, all, "Update runbook")
	assert.Contains(t, all, "Productive day.")
	assert.Contains(t, all, "• Shipped the migration")
	assert.Contains(t, all, "• Backlog growing")
	assert.Contains(t, all, "Triage the backlog.")
	assert.Contains(t, all, "4 completed • 2 overdue")
}

func TestWeeklySummaryMessage(t *testing.T) {
	report := model.Report{
		Date:            "Week of Oct 13",
		Overview:        "Strong week.",
		Accomplishments: []string{"Released v2"},
		TeamSummary:     "Alice led the release.",
		NextWeekFocus:   []string{"Stabilize v2"},
		WeekCompleted:   31,
		WeekMeetings:    9,
	}
	msg := WeeklySummaryMessage(report)

	all := flattenBlocks(msg.Blocks)
	assert.Contains(t, all, "Weekly Summary - Week of Oct 13")
	assert.Contains(t, all, "Strong week.")
	assert.Contains(t, all, "• Released v2")
	assert.Contains(t, all, "Alice led the release.")
	assert.Contains(t, all, "• Stabilize v2")
	assert.Contains(t, all, "31 tasks completed this week • 9 meetings analyzed")
}

func TestErrorMessage(t *testing.T) {
	msg := ErrorMessage("Meeting Analysis Error", "boom")
	require.Len(t, msg.Blocks, 3)
	assert.Contains(t, msg.Blocks[0].Text.Text, "Meeting Analysis Error")
	assert.Contains(t, msg.Blocks[1].Text.Text, "```boom```")
}

func TestSplitTextPrefersLineBreaks(t *testing.T) {
	text := "first line\nsecond line\nthird line"
	chunks := splitText(text, 18)
	require.Len(t, chunks, 3)
	assert.Equal(t, "first line", chunks[0])
	assert.Equal(t, "second line", chunks[1])
	assert.Equal(t, "third line", chunks[2])
}

func flattenBlocks(blocks []Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		if b.Text != nil {
			sb.WriteString(b.Text.Text)
			sb.WriteString("\n")
		}
		for _, e := range b.Elements {
			sb.WriteString(e.Text)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
