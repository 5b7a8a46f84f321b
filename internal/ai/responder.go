package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/dthevenow/briefbot/internal/mention"
	"github.com/dthevenow/briefbot/internal/tracker"
)

// responderMaxTokens bounds the drafted reply plus its metadata.
const responderMaxTokens = 1024

// Responder drafts suggested replies to unanswered mentions.
type Responder struct {
	llm Completer
	log *zap.Logger
}

// NewResponder creates a mention response drafter.
func NewResponder(llm Completer, log *zap.Logger) *Responder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Responder{llm: llm, log: log}
}

// Draft produces a suggested reply for one unanswered mention. Drafting
// never fails the pipeline: any error degrades to a low-confidence
// draft flagged for manual review.
func (r *Responder) Draft(
	ctx context.Context,
	ev mention.Event,
) tracker.ResponseDraft {
	text, err := r.llm.Complete(ctx, r.prompt(ev), responderMaxTokens)
	if err != nil {
		r.log.Error("drafting response failed",
			zap.String("item", ev.Item.Name),
			zap.Error(err),
		)
		return manualReviewDraft(err)
	}

	body := stripFences(text)
	if !gjson.Valid(body) {
		r.log.Error("draft response was not valid JSON",
			zap.String("item", ev.Item.Name),
		)
		return manualReviewDraft(fmt.Errorf("unparseable model output"))
	}

	draft := tracker.ResponseDraft{
		Suggested:    gjson.Get(body, "suggested_response").String(),
		Confidence:   gjson.Get(body, "confidence").String(),
		ActionNeeded: gjson.Get(body, "action_needed").String(),
	}
	if draft.Confidence == "" {
		draft.Confidence = "low"
	}

	r.log.Info("drafted mention response",
		zap.String("item", truncate(ev.Item.Name, 50)),
		zap.String("confidence", draft.Confidence),
	)
	return draft
}

// DraftAll drafts a reply for every event, index-aligned with the input.
func (r *Responder) DraftAll(
	ctx context.Context,
	events []mention.Event,
) []tracker.ResponseDraft {
	r.log.Info("drafting responses for unanswered mentions",
		zap.Int("mentions", len(events)),
	)

	drafts := make([]tracker.ResponseDraft, len(events))
	counts := map[string]int{}
	for i, ev := range events {
		drafts[i] = r.Draft(ctx, ev)
		counts[drafts[i].Confidence]++
	}

	r.log.Info("response drafts complete",
		zap.Int("high", counts["high"]),
		zap.Int("medium", counts["medium"]),
		zap.Int("low", counts["low"]),
	)
	return drafts
}

func (r *Responder) prompt(ev mention.Event) string {
	var sb strings.Builder
	sb.WriteString("You are helping draft a response to an @mention in a task tracker. The person mentioned needs to respond to this comment.\n\n")

	sb.WriteString("## Task Information\n")
	fmt.Fprintf(&sb, "- **Task:** %s\n", orUnknown(ev.Item.Name))
	fmt.Fprintf(&sb, "- **Project:** %s\n", orUnknown(ev.Item.Project))
	fmt.Fprintf(&sb, "- **Task Description:** %s\n\n", truncate(orDefault(ev.Item.Notes, "No description"), 500))

	sb.WriteString("## The Comment Needing Response\n")
	fmt.Fprintf(&sb, "**From %s:**\n", orDefault(ev.Comment.AuthorName, "Someone"))
	fmt.Fprintf(&sb, "%q\n\n", orDefault(ev.Comment.Text, "No comment text"))

	sb.WriteString("## Recent Conversation Context\n")
	sb.WriteString(conversationContext(ev))
	sb.WriteString("\n\n")

	sb.WriteString(`## Your Task
Draft a helpful, professional response that:
1. Acknowledges what the person is asking or requesting
2. Provides a substantive response if possible
3. Indicates any follow-up actions needed

If there's NOT enough context to draft a meaningful response, indicate that with low confidence.

Return a JSON object:
{
  "suggested_response": "Your drafted response text here (keep it concise, 1-3 sentences)",
  "confidence": "high/medium/low",
  "reasoning": "Brief explanation of your confidence level (1 sentence)",
  "action_needed": "Brief description of what action is being requested (1 sentence)"
}

Confidence guidelines:
- **high**: Clear question/request with obvious answer based on context
- **medium**: Request is clear but response may need modification
- **low**: Ambiguous request or insufficient context to draft meaningful response

IMPORTANT: Only return the JSON object, no additional text.`)

	return sb.String()
}

// conversationContext renders the comments that preceded the mention.
// The mention itself is always the newest entry in RecentComments, so it
// is excluded.
func conversationContext(ev mention.Event) string {
	recent := ev.RecentComments
	if len(recent) > 0 && recent[len(recent)-1].GID == ev.Comment.GID {
		recent = recent[:len(recent)-1]
	}
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}

	var lines []string
	for _, c := range recent {
		if c.Text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf(
			"- **%s**: %s", orUnknown(c.AuthorName), truncate(c.Text, 250),
		))
	}
	if len(lines) == 0 {
		return "No prior conversation context"
	}
	return strings.Join(lines, "\n")
}

func manualReviewDraft(err error) tracker.ResponseDraft {
	return tracker.ResponseDraft{
		Confidence:   "low",
		ActionNeeded: fmt.Sprintf("Manual review required: %v", err),
	}
}

func orUnknown(s string) string { return orDefault(s, "Unknown") }

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
