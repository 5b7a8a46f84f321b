package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/dthevenow/briefbot/internal/model"
)

// Caps keep the prompt within token limits when the overdue backlog is
// large; the most overdue tasks are the interesting ones.
const (
	dailyOverdueSample  = 50
	weeklyOverdueSample = 30
	weeklyTaskSample    = 20
)

// Summary holds the AI-written sections of a brief.
type Summary struct {
	Overview       string
	Highlights     []string
	Concerns       []string
	Recommendation string

	// Weekly-only sections.
	Accomplishments []string
	TeamSummary     string
	NextWeekFocus   []string
}

// Summarizer turns raw tracker activity into brief prose.
type Summarizer struct {
	llm Completer
	log *zap.Logger
}

// NewSummarizer creates an activity summarizer.
func NewSummarizer(llm Completer, log *zap.Logger) *Summarizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Summarizer{llm: llm, log: log}
}

// DailySummary writes the daily overview. Summarization never fails the
// pipeline: on any error a plain counted fallback is returned.
func (s *Summarizer) DailySummary(
	ctx context.Context,
	completed []model.CompletedTask,
	overdue []model.OverdueTask,
) Summary {
	s.log.Info("generating daily summary",
		zap.Int("completed", len(completed)),
		zap.Int("overdue", len(overdue)),
	)

	sample := mostOverdue(overdue, dailyOverdueSample)
	data := map[string]interface{}{
		"completed_count":      len(completed),
		"overdue_count":        len(overdue),
		"overdue_sample_count": len(sample),
		"completed_tasks":      completedDigest(completed, len(completed)),
		"overdue_tasks_sample": overdueDigest(sample),
	}

	prompt := dailyPrompt + "\n\nTask Data:\n" + mustJSON(data)
	text, err := s.llm.Complete(ctx, prompt, 2048)
	if err == nil {
		if parsed, ok := parseSummary(text); ok {
			s.log.Info("daily summary generated")
			return parsed
		}
		err = fmt.Errorf("unparseable model output")
	}

	s.log.Error("daily summary failed, using fallback", zap.Error(err))
	return Summary{
		Overview: fmt.Sprintf(
			"Today the team completed %d tasks. There are %d overdue tasks.",
			len(completed), len(overdue),
		),
		Recommendation: "Review overdue tasks and reprioritize as needed.",
	}
}

// WeeklySummary writes the Friday executive overview of the week.
func (s *Summarizer) WeeklySummary(
	ctx context.Context,
	completed []model.CompletedTask,
	overdue []model.OverdueTask,
) Summary {
	s.log.Info("generating weekly summary",
		zap.Int("completed", len(completed)),
		zap.Int("overdue", len(overdue)),
	)

	byPerson := map[string]int{}
	for _, t := range completed {
		byPerson[assigneeOf(t)]++
	}

	sample := mostOverdue(overdue, weeklyOverdueSample)
	data := map[string]interface{}{
		"week_completed_count":    len(completed),
		"overdue_count":           len(overdue),
		"overdue_sample_count":    len(sample),
		"completed_by_person":     byPerson,
		"top_performers":          topPerformers(byPerson, 5),
		"sample_tasks":            completedDigest(completed, weeklyTaskSample),
		"critical_overdue_sample": overdueDigest(sample),
	}

	prompt := weeklyPrompt + "\n\nWeekly Data:\n" + mustJSON(data)
	text, err := s.llm.Complete(ctx, prompt, 4096)
	if err == nil {
		if parsed, ok := parseWeeklySummary(text); ok {
			s.log.Info("weekly summary generated")
			return parsed
		}
		err = fmt.Errorf("unparseable model output")
	}

	s.log.Error("weekly summary failed, using fallback", zap.Error(err))
	return Summary{
		Overview: fmt.Sprintf(
			"This week the team completed %d tasks. There are %d overdue items.",
			len(completed), len(overdue),
		),
		Accomplishments: []string{"Weekly tasks completed as planned"},
		TeamSummary:     "Team continues to make steady progress.",
		NextWeekFocus:   []string{"Continue current initiatives"},
	}
}

const dailyPrompt = `You are a team productivity analyst. Review the daily task data and provide insights.

NOTE: You're seeing a sample of the most overdue tasks (up to 50) when the total count is large.

Analyze the completed and overdue tasks to:
1. Summarize team productivity (what was accomplished)
2. Identify any concerning patterns (e.g., specific team members with many overdue items)
3. Highlight notable accomplishments
4. Provide a brief, actionable insight or recommendation

Return a JSON object with:
{
  "overview": "Brief overview paragraph (2-3 sentences)",
  "team_highlights": ["Highlight 1", "Highlight 2", ...],
  "concerns": ["Concern 1", "Concern 2", ...],
  "recommendation": "One actionable recommendation"
}

Keep it concise and actionable. Focus on patterns, not listing every task.

IMPORTANT: Only return the JSON object, no additional text.`

const weeklyPrompt = `You are a team productivity analyst creating a weekly executive summary.

Review the weekly task data and provide a comprehensive summary suitable for leadership.

Generate:
1. A high-level overview of the week (2-3 sentences) - focus on what the team accomplished
2. Major accomplishments (3-5 bullet points highlighting significant completed work)
3. Team performance summary (overall productivity, notable contributors, patterns)
4. Key focus areas for next week based on overdue items and patterns

Return a JSON object with:
{
  "overview": "Executive overview paragraph",
  "major_accomplishments": ["Accomplishment 1", "Accomplishment 2", ...],
  "team_summary": "Brief team performance paragraph including top contributors",
  "next_week_focus": ["Focus area 1", "Focus area 2", ...]
}

Focus on strategic insights and high-level accomplishments. Identify themes in the completed work.

IMPORTANT: Only return the JSON object, no additional text.`

func parseSummary(text string) (Summary, bool) {
	body := stripFences(text)
	if !gjson.Valid(body) || gjson.Get(body, "overview").String() == "" {
		return Summary{}, false
	}
	return Summary{
		Overview:       gjson.Get(body, "overview").String(),
		Highlights:     stringList(gjson.Get(body, "team_highlights")),
		Concerns:       stringList(gjson.Get(body, "concerns")),
		Recommendation: gjson.Get(body, "recommendation").String(),
	}, true
}

func parseWeeklySummary(text string) (Summary, bool) {
	body := stripFences(text)
	if !gjson.Valid(body) || gjson.Get(body, "overview").String() == "" {
		return Summary{}, false
	}
	return Summary{
		Overview:        gjson.Get(body, "overview").String(),
		Accomplishments: stringList(gjson.Get(body, "major_accomplishments")),
		TeamSummary:     gjson.Get(body, "team_summary").String(),
		NextWeekFocus:   stringList(gjson.Get(body, "next_week_focus")),
	}, true
}

func stringList(res gjson.Result) []string {
	var out []string
	for _, entry := range res.Array() {
		if s := entry.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// mostOverdue returns the n most overdue tasks.
func mostOverdue(overdue []model.OverdueTask, n int) []model.OverdueTask {
	sorted := make([]model.OverdueTask, len(overdue))
	copy(sorted, overdue)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DaysOverdue > sorted[j].DaysOverdue
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func completedDigest(tasks []model.CompletedTask, n int) []map[string]string {
	if len(tasks) > n {
		tasks = tasks[:n]
	}
	digest := make([]map[string]string, 0, len(tasks))
	for _, t := range tasks {
		digest = append(digest, map[string]string{
			"name":     t.Name,
			"assignee": assigneeOf(t),
			"project":  t.Project,
		})
	}
	return digest
}

func overdueDigest(tasks []model.OverdueTask) []map[string]interface{} {
	digest := make([]map[string]interface{}, 0, len(tasks))
	for _, t := range tasks {
		assignee := t.Assignee
		if assignee == "" {
			assignee = "Unassigned"
		}
		digest = append(digest, map[string]interface{}{
			"name":         t.Name,
			"assignee":     assignee,
			"project":      t.Project,
			"days_overdue": t.DaysOverdue,
		})
	}
	return digest
}

func assigneeOf(t model.CompletedTask) string {
	if t.Assignee == "" {
		return "Unassigned"
	}
	return t.Assignee
}

// topPerformers ranks assignees by completed count.
func topPerformers(byPerson map[string]int, n int) []map[string]interface{} {
	type pair struct {
		name  string
		count int
	}
	pairs := make([]pair, 0, len(byPerson))
	for name, count := range byPerson {
		pairs = append(pairs, pair{name, count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].name < pairs[j].name
	})
	if len(pairs) > n {
		pairs = pairs[:n]
	}

	out := make([]map[string]interface{}, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, map[string]interface{}{
			"name":            p.name,
			"completed_tasks": p.count,
		})
	}
	return out
}

func mustJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
