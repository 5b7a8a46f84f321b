// Package brief orchestrates a single reporting run: meeting analysis,
// tracker activity, unanswered mentions, AI summaries, and delivery.
package brief

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dthevenow/briefbot/internal/ai"
	"github.com/dthevenow/briefbot/internal/meeting"
	"github.com/dthevenow/briefbot/internal/mention"
	"github.com/dthevenow/briefbot/internal/model"
	"github.com/dthevenow/briefbot/internal/slack"
	"github.com/dthevenow/briefbot/internal/store"
	"github.com/dthevenow/briefbot/internal/tracker"
)

// Deliverer is the report-delivery surface the coordinator needs.
// *slack.Sender satisfies it.
type Deliverer interface {
	SendDailyBrief(ctx context.Context, report model.Report, mentions []slack.MentionDetail) error
	SendWeeklySummary(ctx context.Context, report model.Report, mentions []slack.MentionDetail) error
	SendError(ctx context.Context, title, detail string) error
}

// Options wires a Coordinator. Tracker, Sender, and the AI agents are
// required; everything else is optional and disables its section when nil.
type Options struct {
	Tracker    tracker.Tracker
	Sources    []meeting.Source
	Reconciler *mention.Reconciler
	Ledger     *mention.Ledger
	Analyzer   *ai.Analyzer
	Responder  *ai.Responder
	Summarizer *ai.Summarizer
	Sender     Deliverer
	Store      store.Store

	MonitoredUsers  []string
	LookbackHours   int
	CreateFollowups bool
	AutoCreateTasks bool

	Location *time.Location
	Logger   *zap.Logger
}

// Coordinator runs the brief pipeline. One instance is safe for the
// scheduler's sequential use; it is not safe for concurrent runs.
type Coordinator struct {
	tracker    tracker.Tracker
	sources    []meeting.Source
	reconciler *mention.Reconciler
	ledger     *mention.Ledger
	analyzer   *ai.Analyzer
	responder  *ai.Responder
	summarizer *ai.Summarizer
	sender     Deliverer
	store      store.Store

	monitoredUsers  []string
	lookback        time.Duration
	createFollowups bool
	autoCreate      bool

	loc *time.Location
	log *zap.Logger
	now func() time.Time
}

// New creates a Coordinator from the given options.
func New(opts Options) *Coordinator {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	lookback := time.Duration(opts.LookbackHours) * time.Hour
	if lookback <= 0 {
		lookback = 168 * time.Hour
	}
	return &Coordinator{
		tracker:         opts.Tracker,
		sources:         opts.Sources,
		reconciler:      opts.Reconciler,
		ledger:          opts.Ledger,
		analyzer:        opts.Analyzer,
		responder:       opts.Responder,
		summarizer:      opts.Summarizer,
		sender:          opts.Sender,
		store:           opts.Store,
		monitoredUsers:  opts.MonitoredUsers,
		lookback:        lookback,
		createFollowups: opts.CreateFollowups,
		autoCreate:      opts.AutoCreateTasks,
		loc:             loc,
		log:             log,
		now:             time.Now,
	}
}

// Run executes one brief pass for the current day. Fridays produce the
// weekly summary instead of the daily brief.
func (c *Coordinator) Run(ctx context.Context) (*model.RunRecord, error) {
	return c.RunFor(ctx, c.now().In(c.loc))
}

// RunFor executes one brief pass as if it were the given day. Collaborator
// failures degrade their section to empty and are reported; only a
// delivery failure fails the run. The outcome is recorded in the run
// history either way.
func (c *Coordinator) RunFor(ctx context.Context, today time.Time) (*model.RunRecord, error) {
	today = today.In(c.loc)
	kind := model.ReportDaily
	if today.Weekday() == time.Friday {
		kind = model.ReportWeekly
	}

	rec := &model.RunRecord{
		Kind:      kind,
		Status:    model.RunStatusOK,
		StartedAt: c.now(),
	}
	var problems []string
	degrade := func(stage string, err error) {
		rec.Status = model.RunStatusDegraded
		problems = append(problems, fmt.Sprintf("%s: %v", stage, err))
		c.log.Error("stage degraded", zap.String("stage", stage), zap.Error(err))
	}

	c.log.Info("running brief",
		zap.String("kind", string(kind)),
		zap.String("date", today.Format("2006-01-02")),
	)

	meetings := c.fetchMeetings(ctx, today, degrade)
	rec.Meetings = len(meetings)

	actionItems := c.analyzeMeetings(ctx, meetings, degrade)
	rec.ActionItems = len(actionItems)
	if c.autoCreate {
		c.createActionItemTasks(ctx, actionItems)
	}

	completed, overdue := c.fetchTrackerActivity(ctx, today, degrade)
	rec.CompletedTasks = len(completed)
	rec.OverdueTasks = len(overdue)

	events, details := c.handleMentions(ctx, degrade)
	rec.Mentions = len(events.all)
	rec.NewMentions = len(events.fresh)

	report := c.buildReport(ctx, kind, today, actionItems, completed, overdue)
	if payload, err := json.Marshal(report); err == nil {
		rec.ReportJSON = string(payload)
	}

	var sendErr error
	if kind == model.ReportWeekly {
		sendErr = c.sender.SendWeeklySummary(ctx, report, details)
	} else {
		sendErr = c.sender.SendDailyBrief(ctx, report, details)
	}
	if sendErr != nil {
		rec.Status = model.RunStatusFailed
		problems = append(problems, fmt.Sprintf("delivery: %v", sendErr))
	}

	rec.Error = strings.Join(problems, "; ")
	rec.FinishedAt = c.now()
	c.record(ctx, rec)

	if sendErr != nil {
		return rec, fmt.Errorf("delivering %s brief: %w", kind, sendErr)
	}
	c.log.Info("brief run finished",
		zap.String("status", rec.Status),
		zap.Duration("elapsed", rec.FinishedAt.Sub(rec.StartedAt)),
	)
	return rec, nil
}

// fetchMeetings gathers today's meetings across all configured sources.
// A failing source degrades the run but the remaining sources still
// contribute.
func (c *Coordinator) fetchMeetings(
	ctx context.Context,
	today time.Time,
	degrade func(string, error),
) []model.Meeting {
	var meetings []model.Meeting
	for _, src := range c.sources {
		got, err := src.MeetingsOn(ctx, today)
		if err != nil {
			degrade(fmt.Sprintf("meetings (%s)", src.Name()), err)
			c.notify(ctx, "Meeting Fetch Failed",
				fmt.Sprintf("Source %q: %v\n\nThe brief will be sent without its meetings.", src.Name(), err))
			continue
		}
		meetings = append(meetings, got...)
	}
	if len(meetings) == 0 {
		c.log.Warn("no meetings found for today")
	}
	return meetings
}

func (c *Coordinator) analyzeMeetings(
	ctx context.Context,
	meetings []model.Meeting,
	degrade func(string, error),
) []model.ActionItem {
	if c.analyzer == nil || len(meetings) == 0 {
		return nil
	}
	items, err := c.analyzer.AnalyzeMeetings(ctx, meetings)
	if err != nil {
		degrade("meeting analysis", err)
		c.notify(ctx, "Meeting Analysis Failed",
			fmt.Sprintf("%v\n\nAction items may be incomplete.", err))
	}
	c.log.Info("extracted action items", zap.Int("count", len(items)))
	return items
}

// createActionItemTasks creates one tracker task per extracted action
// item. Individual failures are logged and skipped.
func (c *Coordinator) createActionItemTasks(ctx context.Context, items []model.ActionItem) {
	created := 0
	for _, item := range items {
		_, err := c.tracker.CreateTask(ctx, model.NewTask{
			Name:     item.Title,
			Notes:    actionItemNotes(item),
			Assignee: item.Assignee,
			DueOn:    item.DueDate,
		})
		if err != nil {
			c.log.Error("failed to create action item task",
				zap.String("title", item.Title),
				zap.Error(err),
			)
			continue
		}
		created++
	}
	c.log.Info("created action item tasks",
		zap.Int("created", created),
		zap.Int("total", len(items)),
	)
}

func (c *Coordinator) fetchTrackerActivity(
	ctx context.Context,
	today time.Time,
	degrade func(string, error),
) ([]model.CompletedTask, []model.OverdueTask) {
	completed, err := c.tracker.CompletedSince(ctx, midnight(today))
	if err != nil {
		degrade("completed tasks", err)
		c.notify(ctx, "Task Fetch Failed",
			fmt.Sprintf("%v\n\nThe brief will be sent without completed task data.", err))
		completed = nil
	}
	overdue, err := c.tracker.OverdueTasks(ctx)
	if err != nil {
		degrade("overdue tasks", err)
		c.notify(ctx, "Task Fetch Failed",
			fmt.Sprintf("%v\n\nThe brief will be sent without overdue task data.", err))
		overdue = nil
	}
	c.log.Info("fetched tracker activity",
		zap.Int("completed", len(completed)),
		zap.Int("overdue", len(overdue)),
	)
	return completed, overdue
}

// mentionBatch carries one run's mention results: every unanswered
// mention, and the subset not seen by a previous run.
type mentionBatch struct {
	all   []mention.Event
	fresh []mention.Event
}

// handleMentions finds unanswered mentions, drafts replies for all of
// them, creates tracker followups for the new subset, and marks that
// subset processed once the followups exist. A ledger write failure
// degrades the run: the same mentions will resurface next run.
func (c *Coordinator) handleMentions(
	ctx context.Context,
	degrade func(string, error),
) (mentionBatch, []slack.MentionDetail) {
	var batch mentionBatch
	if c.reconciler == nil || c.ledger == nil || len(c.monitoredUsers) == 0 {
		c.log.Info("no monitored users configured, skipping mention check")
		return batch, nil
	}

	events, err := c.reconciler.FindUnanswered(ctx, c.monitoredUsers, c.lookback)
	if err != nil {
		degrade("mention reconciliation", err)
		return batch, nil
	}
	batch.all = events
	if len(events) == 0 {
		c.log.Info("no unanswered mentions found")
		return batch, nil
	}

	batch.fresh = c.ledger.FilterNew(events)
	c.log.Info("found unanswered mentions",
		zap.Int("total", len(events)),
		zap.Int("new", len(batch.fresh)),
	)

	// Draft for every mention so the brief always shows suggestions,
	// not just for mentions that trigger a new followup task.
	drafts := c.responder.DraftAll(ctx, events)
	details := mentionDetails(events, drafts)

	if c.createFollowups && len(batch.fresh) > 0 {
		marked := c.createFollowupTasks(ctx, events, drafts, batch.fresh)
		if len(marked) > 0 {
			if err := c.ledger.MarkProcessed(marked); err != nil {
				degrade("mention ledger", err)
				c.notify(ctx, "Mention Ledger Write Failed",
					fmt.Sprintf("%v\n\nThe same mentions may produce duplicate followup tasks tomorrow.", err))
			}
		}
	}
	return batch, details
}

// createFollowupTasks creates one respond-to-mentions task per monitored
// user covering their new mentions, and returns the events whose task
// was created (the only ones safe to mark processed).
func (c *Coordinator) createFollowupTasks(
	ctx context.Context,
	events []mention.Event,
	drafts []tracker.ResponseDraft,
	fresh []mention.Event,
) []mention.Event {
	draftByID := make(map[string]tracker.ResponseDraft, len(events))
	for i, e := range events {
		if i < len(drafts) {
			draftByID[e.ID()] = drafts[i]
		}
	}

	byUser := make(map[string][]mention.Event)
	var order []string
	for _, e := range fresh {
		if _, ok := byUser[e.User.Name]; !ok {
			order = append(order, e.User.Name)
		}
		byUser[e.User.Name] = append(byUser[e.User.Name], e)
	}

	var marked []mention.Event
	for _, user := range order {
		userEvents := byUser[user]
		followups := make([]tracker.MentionFollowup, 0, len(userEvents))
		for _, e := range userEvents {
			followups = append(followups, tracker.MentionFollowup{
				ItemName:    e.Item.Name,
				ItemURL:     e.Item.URL,
				Project:     e.Item.Project,
				AuthorName:  e.Comment.AuthorName,
				CommentText: e.Comment.Text,
				HoursSince:  e.HoursSince,
				Draft:       draftByID[e.ID()],
			})
		}
		ref, err := c.tracker.CreateMentionFollowups(ctx, followups, user)
		if err != nil {
			c.log.Error("failed to create mention followups",
				zap.String("user", user),
				zap.Error(err),
			)
			continue
		}
		c.log.Info("created mention followup task",
			zap.String("user", user),
			zap.String("gid", ref.GID),
			zap.Int("mentions", len(userEvents)),
		)
		marked = append(marked, userEvents...)
	}
	return marked
}

func (c *Coordinator) buildReport(
	ctx context.Context,
	kind model.ReportKind,
	today time.Time,
	actionItems []model.ActionItem,
	completed []model.CompletedTask,
	overdue []model.OverdueTask,
) model.Report {
	report := model.Report{
		Kind:           kind,
		Date:           today.Format("January 2, 2006"),
		Timestamp:      today.Format("3:04 PM MST"),
		ActionItems:    actionItems,
		CompletedTasks: completed,
		OverdueTasks:   overdue,
	}

	if kind == model.ReportWeekly {
		report.Date = "Week of " + report.Date
		monday := mondayOf(today)

		weekCompleted, err := c.tracker.CompletedSince(ctx, monday)
		if err != nil {
			c.log.Error("failed to fetch week's completed tasks", zap.Error(err))
			weekCompleted = completed
		}
		report.WeekCompleted = len(weekCompleted)
		report.WeekMeetings = c.countWeekMeetings(ctx, monday, today)

		summary := c.summarizer.WeeklySummary(ctx, weekCompleted, overdue)
		report.Overview = summary.Overview
		report.Accomplishments = summary.Accomplishments
		report.TeamSummary = summary.TeamSummary
		report.NextWeekFocus = summary.NextWeekFocus
		return report
	}

	summary := c.summarizer.DailySummary(ctx, completed, overdue)
	report.Overview = summary.Overview
	report.Highlights = summary.Highlights
	report.Concerns = summary.Concerns
	report.Recommendation = summary.Recommendation
	return report
}

func (c *Coordinator) countWeekMeetings(ctx context.Context, monday, today time.Time) int {
	count := 0
	for _, src := range c.sources {
		got, err := src.MeetingsBetween(ctx, monday, today)
		if err != nil {
			c.log.Error("failed to fetch week's meetings",
				zap.String("source", src.Name()),
				zap.Error(err),
			)
			continue
		}
		count += len(got)
	}
	return count
}

func (c *Coordinator) record(ctx context.Context, rec *model.RunRecord) {
	if c.store == nil {
		return
	}
	if err := c.store.RecordRun(ctx, rec); err != nil {
		c.log.Error("failed to record run", zap.Error(err))
	}
}

// notify posts a failure notice to the channel. Notification failures
// are logged and swallowed; they must not mask the original problem.
func (c *Coordinator) notify(ctx context.Context, title, detail string) {
	if err := c.sender.SendError(ctx, title, detail); err != nil {
		c.log.Error("failed to send error notification", zap.Error(err))
	}
}

// mentionDetails pairs each event with its index-aligned draft for the
// delivery layer.
func mentionDetails(events []mention.Event, drafts []tracker.ResponseDraft) []slack.MentionDetail {
	details := make([]slack.MentionDetail, 0, len(events))
	for i, e := range events {
		var d tracker.ResponseDraft
		if i < len(drafts) {
			d = drafts[i]
		}
		details = append(details, slack.MentionDetail{
			UserName:    e.User.Name,
			AuthorName:  e.Comment.AuthorName,
			ItemName:    e.Item.Name,
			ItemGID:     e.Item.GID,
			ItemURL:     e.Item.URL,
			Project:     e.Item.Project,
			CommentText: e.Comment.Text,
			HoursSince:  e.HoursSince,
			Suggested:   d.Suggested,
			Confidence:  d.Confidence,
		})
	}
	return details
}

func actionItemNotes(item model.ActionItem) string {
	var b strings.Builder
	b.WriteString(item.Description)
	b.WriteString("\n\nFrom: ")
	if item.MeetingTitle != "" {
		b.WriteString(item.MeetingTitle)
	} else {
		b.WriteString("Meeting")
	}
	if item.MeetingDate != "" {
		b.WriteString("\nDate: " + item.MeetingDate)
	}
	return b.String()
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// mondayOf returns midnight of the Monday of t's week.
func mondayOf(t time.Time) time.Time {
	days := (int(t.Weekday()) + 6) % 7
	return midnight(t.AddDate(0, 0, -days))
}
