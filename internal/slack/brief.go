package slack

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/dthevenow/briefbot/internal/model"
)

// Slack caps a text object at 3000 characters and a message at 50
// blocks; the chunk sizes below keep every message comfortably inside.
const (
	draftChunkSize     = 2800
	completedPerChunk  = 20
	overduePerChunk    = 15
	actionItemsShown   = 8
	actionItemsPerLine = 4
)

// MentionDetail is one unanswered mention prepared for delivery.
type MentionDetail struct {
	UserName    string
	AuthorName  string
	ItemName    string
	ItemGID     string
	ItemURL     string
	Project     string
	CommentText string
	HoursSince  float64
	Suggested   string
	Confidence  string
}

// Sender assembles and delivers brief messages to the channel.
type Sender struct {
	client         *Client
	monitoredUsers []string
	ageLimitDays   int
	autoCreate     bool
	log            *zap.Logger
}

// SenderOptions configures a Sender.
type SenderOptions struct {
	MonitoredUsers []string
	AgeLimitDays   int
	AutoCreate     bool
	Logger         *zap.Logger
}

// NewSender creates a brief sender on top of a channel client.
func NewSender(client *Client, opts SenderOptions) *Sender {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Sender{
		client:         client,
		monitoredUsers: opts.MonitoredUsers,
		ageLimitDays:   opts.AgeLimitDays,
		autoCreate:     opts.AutoCreate,
		log:            log,
	}
}

// SendDailyBrief delivers the full daily brief: detailed mention,
// completed, and overdue messages first, then the compact summary.
func (s *Sender) SendDailyBrief(
	ctx context.Context,
	report model.Report,
	mentions []MentionDetail,
) error {
	var msgs []Message
	msgs = append(msgs, MentionMessages(mentions, s.monitoredUsers)...)
	msgs = append(msgs, CompletedMessages(report.CompletedTasks)...)
	msgs = append(msgs, OverdueMessages(report.OverdueTasks, s.ageLimitDays)...)
	msgs = append(msgs, DailyBriefMessage(report, s.autoCreate))

	s.log.Info("sending daily brief",
		zap.Int("messages", len(msgs)),
		zap.Int("mentions", len(mentions)),
	)
	return s.client.PostAll(ctx, msgs)
}

// SendWeeklySummary delivers the Friday weekly summary.
func (s *Sender) SendWeeklySummary(
	ctx context.Context,
	report model.Report,
	mentions []MentionDetail,
) error {
	var msgs []Message
	msgs = append(msgs, MentionMessages(mentions, s.monitoredUsers)...)
	msgs = append(msgs, WeeklySummaryMessage(report))

	s.log.Info("sending weekly summary", zap.Int("messages", len(msgs)))
	return s.client.PostAll(ctx, msgs)
}

// SendError posts a failure notification to the channel.
func (s *Sender) SendError(ctx context.Context, title, detail string) error {
	return s.client.PostMessage(ctx, ErrorMessage(title, detail))
}

// MentionMessages renders the unanswered-mention section: a header, then
// per monitored user a divider section and each of their mentions with
// its draft reply. Users with nothing pending are still listed so the
// all-clear is visible.
func MentionMessages(mentions []MentionDetail, monitored []string) []Message {
	byUser := make(map[string][]MentionDetail)
	for _, m := range mentions {
		byUser[m.UserName] = append(byUser[m.UserName], m)
	}

	users := make([]string, len(monitored))
	copy(users, monitored)
	for user := range byUser {
		if !contains(users, user) {
			users = append(users, user)
		}
	}

	var headerText string
	if len(mentions) > 0 {
		headerText = fmt.Sprintf(
			"📬 %d Unanswered @Mention%s Need Your Response",
			len(mentions), plural(len(mentions)),
		)
	} else {
		headerText = "📬 No Unanswered @Mentions - You're All Caught Up!"
	}

	contextText := "_Click 'Open Task' to respond. Draft responses are provided below each message._"
	if len(mentions) == 0 {
		contextText = fmt.Sprintf("_Monitoring: %s_", strings.Join(monitored, ", "))
	}

	msgs := []Message{{
		Text:   "📬 Unanswered @Mentions",
		Blocks: []Block{headerBlock(headerText), contextBlock(contextText)},
	}}

	for _, user := range users {
		userMentions := byUser[user]
		var sectionText string
		if len(userMentions) > 0 {
			sectionText = fmt.Sprintf(
				"*━━━━━ For %s (%d message%s) ━━━━━*",
				user, len(userMentions), plural(len(userMentions)),
			)
		} else {
			sectionText = fmt.Sprintf(
				"*━━━━━ For %s ━━━━━*\n✅ _No unanswered mentions - all caught up!_", user,
			)
		}
		msgs = append(msgs, Message{
			Text:   fmt.Sprintf("Mentions for %s", user),
			Blocks: []Block{sectionBlock(sectionText)},
		})

		for _, m := range userMentions {
			msgs = append(msgs, singleMentionMessages(m)...)
		}
	}
	return msgs
}

// singleMentionMessages renders one mention's context message plus its
// draft reply, chunked to fit Slack's text limits.
func singleMentionMessages(m MentionDetail) []Message {
	itemName := clip(orText(m.ItemName, "Unknown Task"), 80)
	project := clip(orText(m.Project, "No Project"), 50)
	comment := orText(m.CommentText, "No comment text")
	if len(comment) > 800 {
		comment = comment[:800] + "..."
	}

	itemURL := m.ItemURL
	if itemURL == "" {
		itemURL = "#"
	}

	context := Message{
		Text: fmt.Sprintf("@mention from %s on %s", orText(m.AuthorName, "Someone"), itemName),
		Blocks: []Block{
			{
				Type: "section",
				Text: &Text{
					Type: "mrkdwn",
					Text: fmt.Sprintf("*<%s|%s>*\n_%s_", itemURL, itemName, project),
				},
				Accessory: linkButton(
					"Open Task", itemURL,
					fmt.Sprintf("open_task_%s", orText(m.ItemGID, "unknown")),
				),
			},
			contextBlock(fmt.Sprintf(
				"*%s* mentioned *%s* • %s",
				orText(m.AuthorName, "Someone"), orText(m.UserName, "you"),
				sinceText(m.HoursSince),
			)),
			sectionBlock(">" + comment),
			dividerBlock(),
		},
	}
	msgs := []Message{context}

	if m.Suggested == "" {
		return msgs
	}

	chunks := splitText(m.Suggested, draftChunkSize)
	msgs = append(msgs, Message{
		Text: fmt.Sprintf("Draft response for: %s", itemName),
		Blocks: []Block{sectionBlock(fmt.Sprintf(
			"%s *Suggested Response* (%s):\n\n%s",
			confidenceEmoji(m.Confidence), confidenceLabel(m.Confidence), chunks[0],
		))},
	})
	for i, chunk := range chunks[1:] {
		msgs = append(msgs, Message{
			Text: fmt.Sprintf("Draft response (continued) for: %s", itemName),
			Blocks: []Block{sectionBlock(fmt.Sprintf(
				"_(continued %d/%d)_\n\n%s", i+2, len(chunks), chunk,
			))},
		})
	}
	return msgs
}

// CompletedMessages renders completed tasks grouped by assignee, most
// productive first.
func CompletedMessages(tasks []model.CompletedTask) []Message {
	if len(tasks) == 0 {
		return nil
	}

	byPerson := make(map[string][]model.CompletedTask)
	for _, t := range tasks {
		byPerson[orText(t.Assignee, "Unassigned")] = append(
			byPerson[orText(t.Assignee, "Unassigned")], t,
		)
	}

	msgs := []Message{{
		Text: "Completed tasks details",
		Blocks: []Block{headerBlock(fmt.Sprintf(
			"🎯 Tasks Completed Today (%d total)", len(tasks),
		))},
	}}

	for _, person := range peopleByCount(byPerson) {
		personTasks := byPerson[person]
		var lines []string
		for _, t := range personTasks {
			line := "• " + taskLink(t.GID, t.Name)
			if t.Project != "" {
				line += fmt.Sprintf(" _(%s)_", t.Project)
			}
			lines = append(lines, line)
		}

		chunks := splitLines(lines, completedPerChunk)
		for i, chunk := range chunks {
			header := fmt.Sprintf(
				"*%s* (%d task%s)", person, len(personTasks), plural(len(personTasks)),
			)
			if len(chunks) > 1 {
				header = fmt.Sprintf(
					"*%s* (%d tasks) - Part %d/%d", person, len(personTasks), i+1, len(chunks),
				)
			}
			msgs = append(msgs, Message{
				Text:   fmt.Sprintf("Completed tasks for %s", person),
				Blocks: []Block{sectionBlock(header + "\n" + strings.Join(chunk, "\n"))},
			})
		}
	}
	return msgs
}

// OverdueMessages renders overdue tasks grouped by assignee with an
// urgency marker per task.
func OverdueMessages(tasks []model.OverdueTask, ageLimitDays int) []Message {
	if len(tasks) == 0 {
		return nil
	}

	byPerson := make(map[string][]model.OverdueTask)
	for _, t := range tasks {
		byPerson[orText(t.Assignee, "Unassigned")] = append(
			byPerson[orText(t.Assignee, "Unassigned")], t,
		)
	}

	ageNote := ""
	if ageLimitDays > 0 {
		ageNote = fmt.Sprintf(" (last %d days)", ageLimitDays)
	}
	msgs := []Message{{
		Text: "Overdue tasks details",
		Blocks: []Block{headerBlock(fmt.Sprintf(
			"⚠️ Overdue Tasks (%d total%s)", len(tasks), ageNote,
		))},
	}}

	for _, person := range peopleByCount(byPerson) {
		personTasks := byPerson[person]
		sort.SliceStable(personTasks, func(i, j int) bool {
			return personTasks[i].DaysOverdue > personTasks[j].DaysOverdue
		})

		var lines []string
		for _, t := range personTasks {
			line := fmt.Sprintf(
				"%s %s (%dd overdue)",
				urgencyEmoji(t.DaysOverdue), taskLink(t.GID, t.Name), t.DaysOverdue,
			)
			if t.Project != "" {
				line += fmt.Sprintf(" _(%s)_", t.Project)
			}
			lines = append(lines, line)
		}

		chunks := splitLines(lines, overduePerChunk)
		for i, chunk := range chunks {
			header := fmt.Sprintf(
				"*%s* (%d overdue task%s)", person, len(personTasks), plural(len(personTasks)),
			)
			if len(chunks) > 1 {
				header = fmt.Sprintf(
					"*%s* (%d overdue) - Part %d/%d", person, len(personTasks), i+1, len(chunks),
				)
			}
			msgs = append(msgs, Message{
				Text:   fmt.Sprintf("Overdue tasks for %s", person),
				Blocks: []Block{sectionBlock(header + "\n" + strings.Join(chunk, "\n"))},
			})
		}
	}
	return msgs
}

// DailyBriefMessage renders the compact daily summary sent after the
// detailed sections.
func DailyBriefMessage(report model.Report, autoCreate bool) Message {
	blocks := []Block{
		headerBlock(fmt.Sprintf("📊 Daily Brief - %s", orText(report.Date, "Today"))),
		dividerBlock(),
	}

	if len(report.ActionItems) > 0 {
		header := fmt.Sprintf(
			"*💡 Action Items from Today's Meetings* (%d items)", len(report.ActionItems),
		)
		if autoCreate {
			header = fmt.Sprintf(
				"*✅ Action Items Created* (%d from today's calls)", len(report.ActionItems),
			)
		}
		blocks = append(blocks, sectionBlock(header))

		items := report.ActionItems
		if len(items) > actionItemsShown {
			items = items[:actionItemsShown]
		}
		var lines []string
		for _, item := range items {
			lines = append(lines, fmt.Sprintf(
				"• *%s* (%s)", clip(item.Title, 60), orText(item.Assignee, "Unassigned"),
			))
		}
		for _, chunk := range splitLines(lines, actionItemsPerLine) {
			blocks = append(blocks, sectionBlock(strings.Join(chunk, "\n")))
		}
	}

	if report.Overview != "" {
		blocks = append(blocks,
			dividerBlock(),
			sectionBlock(fmt.Sprintf("*🧠 AI Insights*\n%s", report.Overview)),
		)
	}
	if len(report.Highlights) > 0 {
		blocks = append(blocks, sectionBlock(
			"*Highlights*\n"+bulleted(report.Highlights),
		))
	}
	if len(report.Concerns) > 0 {
		blocks = append(blocks, sectionBlock(
			"*Concerns*\n"+bulleted(report.Concerns),
		))
	}
	if report.Recommendation != "" {
		blocks = append(blocks, sectionBlock(
			fmt.Sprintf("*Recommendation*\n%s", report.Recommendation),
		))
	}

	blocks = append(blocks, contextBlock(fmt.Sprintf(
		"%d completed • %d overdue • generated %s",
		len(report.CompletedTasks), len(report.OverdueTasks),
		orText(report.Timestamp, "now"),
	)))

	return Message{
		Text:   fmt.Sprintf("📊 Daily Brief for %s", orText(report.Date, "Today")),
		Blocks: blocks,
	}
}

// WeeklySummaryMessage renders the Friday executive summary.
func WeeklySummaryMessage(report model.Report) Message {
	blocks := []Block{
		headerBlock(fmt.Sprintf("📈 Weekly Summary - %s", orText(report.Date, "This Week"))),
		dividerBlock(),
	}

	if report.Overview != "" {
		blocks = append(blocks, sectionBlock(report.Overview))
	}
	if len(report.Accomplishments) > 0 {
		blocks = append(blocks, sectionBlock(
			"*🏆 Major Accomplishments*\n"+bulleted(report.Accomplishments),
		))
	}
	if report.TeamSummary != "" {
		blocks = append(blocks, sectionBlock(
			fmt.Sprintf("*👥 Team Performance*\n%s", report.TeamSummary),
		))
	}
	if len(report.NextWeekFocus) > 0 {
		blocks = append(blocks, sectionBlock(
			"*🎯 Next Week Focus*\n"+bulleted(report.NextWeekFocus),
		))
	}

	blocks = append(blocks, contextBlock(fmt.Sprintf(
		"%d tasks completed this week • %d meetings analyzed",
		report.WeekCompleted, report.WeekMeetings,
	)))

	return Message{
		Text:   fmt.Sprintf("📈 Weekly Summary for %s", orText(report.Date, "This Week")),
		Blocks: blocks,
	}
}

// ErrorMessage renders a failure notification.
func ErrorMessage(title, detail string) Message {
	return Message{
		Text: "⚠️ " + title,
		Blocks: []Block{
			headerBlock("⚠️ " + title),
			sectionBlock(fmt.Sprintf("```%s```", detail)),
			contextBlock("Check the logs for more details."),
		},
	}
}

// splitText splits long text at newline or space boundaries so each
// chunk stays under max characters.
func splitText(text string, max int) []string {
	var chunks []string
	for text != "" {
		if len(text) <= max {
			chunks = append(chunks, text)
			break
		}
		breakPoint := strings.LastIndex(text[:max], "\n")
		if breakPoint < max/2 {
			breakPoint = strings.LastIndex(text[:max], " ")
		}
		if breakPoint < max/2 {
			breakPoint = max
		}
		chunks = append(chunks, text[:breakPoint])
		text = strings.TrimLeft(text[breakPoint:], " \n")
	}
	return chunks
}

func splitLines(lines []string, per int) [][]string {
	var chunks [][]string
	for len(lines) > 0 {
		n := per
		if len(lines) < n {
			n = len(lines)
		}
		chunks = append(chunks, lines[:n])
		lines = lines[n:]
	}
	return chunks
}

// peopleByCount returns assignees ordered by how many tasks they have,
// ties broken alphabetically.
func peopleByCount[T any](byPerson map[string][]T) []string {
	people := make([]string, 0, len(byPerson))
	for person := range byPerson {
		people = append(people, person)
	}
	sort.Slice(people, func(i, j int) bool {
		a, b := len(byPerson[people[i]]), len(byPerson[people[j]])
		if a != b {
			return a > b
		}
		return people[i] < people[j]
	})
	return people
}

func taskLink(gid, name string) string {
	name = orText(name, "Unknown Task")
	if gid == "" {
		return name
	}
	return fmt.Sprintf("<https://app.asana.com/0/0/%s|%s>", gid, name)
}

func urgencyEmoji(daysOverdue int) string {
	switch {
	case daysOverdue >= 14:
		return "🔴"
	case daysOverdue >= 7:
		return "🟠"
	default:
		return "🟡"
	}
}

func confidenceEmoji(confidence string) string {
	switch confidence {
	case "high":
		return "✅"
	case "medium":
		return "🟡"
	case "low":
		return "🔴"
	default:
		return "⚪"
	}
}

func confidenceLabel(confidence string) string {
	switch confidence {
	case "high":
		return "High confidence"
	case "medium":
		return "Medium confidence"
	case "low":
		return "Low confidence"
	default:
		return "Unknown confidence"
	}
}

func sinceText(hours float64) string {
	switch {
	case hours < 1:
		return "just now"
	case hours < 24:
		return fmt.Sprintf("%d hours ago", int(hours))
	default:
		return fmt.Sprintf("%d days ago", int(hours/24))
	}
}

func bulleted(items []string) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "• "+item)
	}
	return strings.Join(lines, "\n")
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func orText(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func contains(list []string, s string) bool {
	for _, entry := range list {
		if entry == s {
			return true
		}
	}
	return false
}
