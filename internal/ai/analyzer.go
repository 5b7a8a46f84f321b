package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/dthevenow/briefbot/internal/model"
)

// analyzerMaxTokens leaves room for many action items per transcript.
const analyzerMaxTokens = 4096

// Analyzer extracts action items from meeting transcripts.
type Analyzer struct {
	llm Completer
	log *zap.Logger
}

// NewAnalyzer creates a meeting transcript analyzer.
func NewAnalyzer(llm Completer, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{llm: llm, log: log}
}

// AnalyzeMeeting extracts the action items from a single meeting.
func (a *Analyzer) AnalyzeMeeting(
	ctx context.Context,
	m model.Meeting,
) ([]model.ActionItem, error) {
	if m.Transcript == "" && m.Summary == "" {
		a.log.Warn("no transcript or summary for meeting",
			zap.String("title", m.Title),
		)
		return nil, nil
	}

	a.log.Info("analyzing meeting", zap.String("title", m.Title))

	text, err := a.llm.Complete(ctx, analyzerPrompt(m), analyzerMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("analyzing meeting %q: %w", m.Title, err)
	}

	body := stripFences(text)
	parsed := gjson.Parse(body)
	if !parsed.IsArray() {
		return nil, fmt.Errorf(
			"analyzing meeting %q: model did not return a JSON array", m.Title,
		)
	}

	var items []model.ActionItem
	for _, entry := range parsed.Array() {
		title := entry.Get("title").String()
		if title == "" {
			continue
		}
		items = append(items, model.ActionItem{
			Title:        title,
			Description:  entry.Get("description").String(),
			Assignee:     entry.Get("assignee").String(),
			DueDate:      entry.Get("due_date").String(),
			MeetingTitle: m.Title,
			MeetingDate:  m.Date.Format("2006-01-02"),
		})
	}

	a.log.Info("extracted action items",
		zap.String("title", m.Title),
		zap.Int("items", len(items)),
	)
	return items, nil
}

// AnalyzeMeetings extracts action items from every meeting. A failure on
// one meeting skips it rather than aborting the rest; the combined error
// is returned alongside whatever was extracted.
func (a *Analyzer) AnalyzeMeetings(
	ctx context.Context,
	meetings []model.Meeting,
) ([]model.ActionItem, error) {
	a.log.Info("analyzing meetings", zap.Int("meetings", len(meetings)))

	var all []model.ActionItem
	var errs []string
	for _, m := range meetings {
		items, err := a.AnalyzeMeeting(ctx, m)
		if err != nil {
			a.log.Error("meeting analysis failed",
				zap.String("title", m.Title),
				zap.Error(err),
			)
			errs = append(errs, err.Error())
			continue
		}
		all = append(all, items...)
	}

	a.log.Info("total action items extracted", zap.Int("items", len(all)))
	if len(errs) > 0 {
		return all, fmt.Errorf("%d meeting(s) failed analysis: %s",
			len(errs), strings.Join(errs, "; "))
	}
	return all, nil
}

func analyzerPrompt(m model.Meeting) string {
	var sb strings.Builder
	sb.WriteString(`You are an expert assistant that analyzes meeting transcripts and extracts action items.

Review the meeting content provided and identify ALL action items that need to be completed. An action item is any task, follow-up, or commitment that someone agreed to do.

For each action item, provide:
1. A clear, concise title (max 100 characters)
2. A detailed description with context from the meeting
3. The person assigned to complete it (if mentioned, otherwise use "Unassigned")
4. A suggested due date if mentioned (format: YYYY-MM-DD), otherwise null

Return your response as a JSON array of action items. Each item should have this structure:
{
  "title": "Action item title",
  "description": "Detailed description with context",
  "assignee": "Person's name or 'Unassigned'",
  "due_date": "YYYY-MM-DD or null",
  "priority": "high/medium/low"
}

If there are no action items, return an empty array: []

IMPORTANT: Only return the JSON array, no additional text or explanation.`)

	fmt.Fprintf(&sb, "\n\nMeeting Title: %s\n", m.Title)
	fmt.Fprintf(&sb, "\nMeeting Summary:\n%s\n", m.Summary)
	fmt.Fprintf(&sb, "\nMeeting Transcript:\n%s\n", m.Transcript)
	return sb.String()
}
