// Package asana implements the tracker contract against the Asana REST API.
package asana

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dthevenow/briefbot/internal/model"
	"github.com/dthevenow/briefbot/internal/tracker"
)

// itemFields are the task fields requested during list queries.
const itemFields = "gid,name,notes,projects.name,permalink_url,modified_at"

// completedFields adds completion metadata for reporting queries.
const completedFields = "gid,name,notes,completed,completed_at,projects.name,assignee.name"

// overdueFields adds due-date and age metadata for overdue queries.
const overdueFields = "gid,name,notes,completed_at,due_on,created_at,projects.name"

// storyFields are the story fields needed for comment timelines.
const storyFields = "gid,created_at,created_by.name,created_by.gid,resource_subtype,text,html_text"

// Options configures an Adapter.
type Options struct {
	// BaseURL is the API root; empty means the public Asana API.
	BaseURL string

	// Token is the Personal Access Token.
	Token string

	// WorkspaceGID is the workspace all queries are scoped to.
	WorkspaceGID string

	// TeamMembers are the display names whose tasks are tracked.
	TeamMembers []string

	// OverdueAgeLimitDays limits overdue reporting to tasks created
	// within this many days. Zero means no limit.
	OverdueAgeLimitDays int

	// Location is the reporting timezone.
	Location *time.Location

	Logger *zap.Logger
}

// Adapter implements tracker.Tracker for Asana.
type Adapter struct {
	client       *Client
	workspaceGID string
	teamMembers  []string
	ageLimitDays int
	loc          *time.Location
	log          *zap.Logger

	// userCache maps display names to GIDs. It is owned by the adapter
	// and filled lazily from the workspace user list; tests can swap in
	// a pre-seeded directory instead of the live adapter.
	userCache map[string]string

	// tokenOwnerGID caches the authenticated user's GID.
	tokenOwnerGID string

	// now is swappable for tests.
	now func() time.Time
}

// NewAdapter creates a new Asana tracker adapter.
func NewAdapter(opts Options) *Adapter {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://app.asana.com/api/1.0"
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{
		client:       NewClient(baseURL, opts.Token),
		workspaceGID: opts.WorkspaceGID,
		teamMembers:  opts.TeamMembers,
		ageLimitDays: opts.OverdueAgeLimitDays,
		loc:          loc,
		log:          log,
		userCache:    make(map[string]string),
		now:          time.Now,
	}
}

// WhoAmI verifies credentials by calling GET /users/me and returns the
// token owner's display name.
func (a *Adapter) WhoAmI(ctx context.Context) (string, error) {
	var me UserEnvelope
	if err := a.client.Get(ctx, "/users/me", nil, &me); err != nil {
		return "", fmt.Errorf("validating Asana connection: %w", err)
	}
	a.tokenOwnerGID = me.Data.GID
	return me.Data.Name, nil
}

// ResolveUser maps a display name to the user's GID, filling the name
// cache from the workspace user list on a miss.
func (a *Adapter) ResolveUser(
	ctx context.Context,
	displayName string,
) (string, error) {
	if gid, ok := a.userCache[displayName]; ok {
		return gid, nil
	}

	if err := a.fillUserCache(ctx); err != nil {
		return "", err
	}

	gid, ok := a.userCache[displayName]
	if !ok {
		return "", fmt.Errorf("resolving %q: %w", displayName, tracker.ErrUserNotFound)
	}
	return gid, nil
}

// fillUserCache loads the workspace user list into the name cache.
func (a *Adapter) fillUserCache(ctx context.Context) error {
	query := url.Values{}
	query.Set("workspace", a.workspaceGID)
	query.Set("opt_fields", "name")

	var users UserList
	if err := a.client.Get(ctx, "/users", query, &users); err != nil {
		return fmt.Errorf("fetching workspace users: %w", err)
	}

	for _, u := range users.Data {
		a.userCache[u.Name] = u.GID
	}
	return nil
}

// teamGIDs resolves the tracked team members to GIDs, skipping names not
// present in the workspace.
func (a *Adapter) teamGIDs(ctx context.Context) (map[string]string, error) {
	if len(a.teamMembers) == 0 {
		a.log.Warn("no team members configured; tracker queries return nothing")
		return nil, nil
	}

	gids := make(map[string]string, len(a.teamMembers))
	for _, name := range a.teamMembers {
		gid, err := a.ResolveUser(ctx, name)
		if err != nil {
			a.log.Warn("team member not found in workspace",
				zap.String("name", name),
				zap.Error(err),
			)
			continue
		}
		gids[name] = gid
	}
	return gids, nil
}

// ListModifiedSince returns work items assigned to tracked team members
// that changed since the given time, deduplicated across assignees.
func (a *Adapter) ListModifiedSince(
	ctx context.Context,
	since time.Time,
) ([]model.WorkItem, error) {
	team, err := a.teamGIDs(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var items []model.WorkItem

	for _, name := range sortedNames(team) {
		gid := team[name]
		query := url.Values{}
		query.Set("assignee", gid)
		query.Set("workspace", a.workspaceGID)
		query.Set("modified_since", since.UTC().Format(time.RFC3339))
		query.Set("opt_fields", itemFields)

		var page TaskList
		if err := a.client.Get(ctx, "/tasks", query, &page); err != nil {
			a.log.Warn("could not fetch modified tasks for member",
				zap.String("assignee_gid", gid),
				zap.Error(err),
			)
			continue
		}

		for _, t := range page.Data {
			if seen[t.GID] {
				continue
			}
			seen[t.GID] = true
			items = append(items, model.WorkItem{
				GID:        t.GID,
				Name:       t.Name,
				Notes:      t.Notes,
				Project:    firstProject(t.Projects),
				URL:        permalink(t),
				ModifiedAt: a.parseTime(t.ModifiedAt),
			})
		}
	}

	a.log.Info("fetched recently modified items",
		zap.Int("items", len(items)),
		zap.Time("since", since),
	)
	return items, nil
}

// ListComments returns the user comments on a task in chronological
// order. System activity stories are filtered out.
func (a *Adapter) ListComments(
	ctx context.Context,
	itemGID string,
) ([]model.Comment, error) {
	query := url.Values{}
	query.Set("opt_fields", storyFields)

	var stories StoryList
	path := fmt.Sprintf("/tasks/%s/stories", itemGID)
	if err := a.client.Get(ctx, path, query, &stories); err != nil {
		return nil, fmt.Errorf("fetching stories for task %s: %w", itemGID, err)
	}

	var comments []model.Comment
	for _, s := range stories.Data {
		if s.ResourceSubtype != storyCommentAdded {
			continue
		}
		c := model.Comment{
			GID:       s.GID,
			ItemGID:   itemGID,
			Text:      s.Text,
			HTMLText:  s.HTMLText,
			CreatedAt: a.parseTime(s.CreatedAt),
		}
		if s.CreatedBy != nil {
			c.AuthorName = s.CreatedBy.Name
			c.AuthorGID = s.CreatedBy.GID
		}
		comments = append(comments, c)
	}

	// The API returns stories oldest-first; keep the ordering explicit
	// since the reconciliation walk depends on it.
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

// CompletedSince returns tracked team members' tasks completed at or
// after the given time.
func (a *Adapter) CompletedSince(
	ctx context.Context,
	since time.Time,
) ([]model.CompletedTask, error) {
	team, err := a.teamGIDs(ctx)
	if err != nil {
		return nil, err
	}

	var completed []model.CompletedTask
	for _, name := range sortedNames(team) {
		gid := team[name]
		query := url.Values{}
		query.Set("assignee", gid)
		query.Set("workspace", a.workspaceGID)
		query.Set("completed_since", since.UTC().Format(time.RFC3339))
		query.Set("opt_fields", completedFields)

		var page TaskList
		if err := a.client.Get(ctx, "/tasks", query, &page); err != nil {
			a.log.Warn("could not fetch completed tasks for member",
				zap.String("assignee", name),
				zap.Error(err),
			)
			continue
		}

		for _, t := range page.Data {
			if !t.Completed || t.CompletedAt == "" {
				continue
			}
			completedAt := a.parseTime(t.CompletedAt)
			if completedAt.Before(since) {
				continue
			}
			completed = append(completed, model.CompletedTask{
				GID:         t.GID,
				Name:        t.Name,
				Assignee:    name,
				Project:     firstProject(t.Projects),
				Notes:       t.Notes,
				CompletedAt: completedAt,
			})
		}
	}

	a.log.Info("fetched completed tasks",
		zap.Int("tasks", len(completed)),
		zap.Time("since", since),
	)
	return completed, nil
}

// OverdueTasks returns tracked team members' incomplete tasks whose due
// date has passed, optionally limited to recently created tasks.
func (a *Adapter) OverdueTasks(ctx context.Context) ([]model.OverdueTask, error) {
	team, err := a.teamGIDs(ctx)
	if err != nil {
		return nil, err
	}

	today := a.today()
	var cutoff time.Time
	if a.ageLimitDays > 0 {
		cutoff = today.AddDate(0, 0, -a.ageLimitDays)
	}

	var overdue []model.OverdueTask
	for _, name := range sortedNames(team) {
		gid := team[name]
		query := url.Values{}
		query.Set("assignee", gid)
		query.Set("workspace", a.workspaceGID)
		query.Set("completed", "false")
		query.Set("opt_fields", overdueFields)

		var page TaskList
		if err := a.client.Get(ctx, "/tasks", query, &page); err != nil {
			a.log.Warn("could not fetch open tasks for member",
				zap.String("assignee", name),
				zap.Error(err),
			)
			continue
		}

		for _, t := range page.Data {
			// completed_at is more reliable than the completed flag:
			// incomplete tasks have no completion timestamp.
			if t.CompletedAt != "" || t.DueOn == "" {
				continue
			}
			due, err := time.ParseInLocation("2006-01-02", t.DueOn, a.loc)
			if err != nil || !due.Before(today) {
				continue
			}
			if !cutoff.IsZero() && t.CreatedAt != "" {
				created := a.parseTime(t.CreatedAt)
				if created.Before(cutoff) {
					continue
				}
			}
			overdue = append(overdue, model.OverdueTask{
				GID:         t.GID,
				Name:        t.Name,
				Assignee:    name,
				Project:     firstProject(t.Projects),
				Notes:       t.Notes,
				DueOn:       t.DueOn,
				DaysOverdue: int(today.Sub(due).Hours() / 24),
			})
		}
	}

	a.log.Info("fetched overdue tasks", zap.Int("tasks", len(overdue)))
	return overdue, nil
}

// CreateTask creates a single task in the workspace.
func (a *Adapter) CreateTask(
	ctx context.Context,
	task model.NewTask,
) (model.TaskRef, error) {
	data := taskData{
		Name:  task.Name,
		Notes: task.Notes,
		DueOn: task.DueOn,
	}

	// Subtasks carry a parent instead of a workspace.
	if task.Parent != "" {
		data.Parent = task.Parent
	} else {
		data.Workspace = a.workspaceGID
	}

	if task.Assignee != "" {
		gid, err := a.ResolveUser(ctx, task.Assignee)
		if err != nil {
			a.log.Warn("could not resolve assignee; creating unassigned",
				zap.String("assignee", task.Assignee),
				zap.Error(err),
			)
		} else {
			data.Assignee = gid
		}
	}

	var created TaskEnvelope
	err := a.client.Post(ctx, "/tasks", taskRequest{Data: data}, &created)
	if err != nil {
		return model.TaskRef{}, fmt.Errorf("creating task %q: %w", task.Name, err)
	}

	a.log.Info("created task",
		zap.String("gid", created.Data.GID),
		zap.String("name", task.Name),
	)
	return model.TaskRef{
		GID:  created.Data.GID,
		Name: created.Data.Name,
		URL:  permalink(created.Data),
	}, nil
}

// CreateMentionFollowups creates the daily respond-to-mentions parent
// task with one subtask per followup. When the task is assigned to
// someone other than the token owner, the owner is removed as a follower
// so they do not get inbox noise for another person's followups.
func (a *Adapter) CreateMentionFollowups(
	ctx context.Context,
	followups []tracker.MentionFollowup,
	assignee string,
) (model.TaskRef, error) {
	if len(followups) == 0 {
		return model.TaskRef{}, nil
	}

	today := a.now().In(a.loc)
	parent, err := a.CreateTask(ctx, model.NewTask{
		Name:     fmt.Sprintf("Respond to Unanswered @Mentions - %s", today.Format("Jan 2")),
		Notes:    followupSummary(followups, today),
		Assignee: assignee,
		DueOn:    today.Format("2006-01-02"),
	})
	if err != nil {
		return model.TaskRef{}, fmt.Errorf("creating respond-to-mentions task: %w", err)
	}

	removeOwner := a.shouldRemoveOwnerFollower(ctx, assignee)
	if removeOwner {
		a.removeTokenOwnerFollower(ctx, parent.GID)
	}

	for i, f := range followups {
		sub, err := a.CreateTask(ctx, model.NewTask{
			Name:     fmt.Sprintf("Reply to %s on %q", f.AuthorName, f.ItemName),
			Notes:    followupNotes(f),
			Assignee: assignee,
			Parent:   parent.GID,
		})
		if err != nil {
			a.log.Error("failed to create mention subtask",
				zap.Int("index", i+1),
				zap.Error(err),
			)
			continue
		}
		if removeOwner {
			a.removeTokenOwnerFollower(ctx, sub.GID)
		}
	}

	a.log.Info("created respond-to-mentions task",
		zap.String("gid", parent.GID),
		zap.Int("mentions", len(followups)),
	)
	return parent, nil
}

// shouldRemoveOwnerFollower reports whether the followup task belongs to
// someone other than the API token owner. The comparison is GID-based.
func (a *Adapter) shouldRemoveOwnerFollower(
	ctx context.Context,
	assignee string,
) bool {
	if assignee == "" {
		return false
	}

	if a.tokenOwnerGID == "" {
		if _, err := a.WhoAmI(ctx); err != nil {
			a.log.Warn("could not identify token owner", zap.Error(err))
			return false
		}
	}

	assigneeGID, err := a.ResolveUser(ctx, assignee)
	if err != nil {
		return false
	}
	return assigneeGID != a.tokenOwnerGID
}

// removeTokenOwnerFollower removes the token owner as a follower from a
// task. The API adds the owner as a follower on every task it creates.
func (a *Adapter) removeTokenOwnerFollower(ctx context.Context, taskGID string) {
	if a.tokenOwnerGID == "" {
		return
	}

	path := fmt.Sprintf("/tasks/%s/removeFollowers", taskGID)
	body := followersRequest{Data: followersData{Followers: []string{a.tokenOwnerGID}}}
	if err := a.client.Post(ctx, path, body, nil); err != nil {
		a.log.Warn("failed to remove token owner as follower",
			zap.String("task_gid", taskGID),
			zap.Error(err),
		)
		return
	}
	a.log.Debug("removed token owner as follower", zap.String("task_gid", taskGID))
}

// today returns midnight of the current day in the reporting timezone.
func (a *Adapter) today() time.Time {
	now := a.now().In(a.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc)
}

// parseTime parses an RFC3339 timestamp, returning the zero time on
// failure.
func (a *Adapter) parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		a.log.Debug("unparseable timestamp", zap.String("value", s))
		return time.Time{}
	}
	return t.In(a.loc)
}

// followupSummary renders the parent task's description.
func followupSummary(followups []tracker.MentionFollowup, today time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Unanswered @Mentions - %s\n\n", today.Format("January 2, 2006"))
	fmt.Fprintf(&sb, "You have %d mention(s) that need responses.\n\n", len(followups))
	sb.WriteString("Instructions:\n")
	sb.WriteString("1. Review each mention below\n")
	sb.WriteString("2. Follow the task link to the conversation\n")
	sb.WriteString("3. Post your response (draft provided)\n")
	sb.WriteString("4. Check off the subtask when done\n\n")
	fmt.Fprintf(&sb, "Auto-generated by briefbot at %s.\n", today.Format("3:04 PM MST"))
	return sb.String()
}

// followupNotes renders one subtask's description.
func followupNotes(f tracker.MentionFollowup) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Task: %s\n", f.ItemName)
	fmt.Fprintf(&sb, "Project: %s\n", orDefault(f.Project, "No Project"))
	fmt.Fprintf(&sb, "Link: %s\n", orDefault(f.ItemURL, "No link"))
	fmt.Fprintf(&sb, "From: %s (%s)\n\n", f.AuthorName, sinceText(f.HoursSince))
	fmt.Fprintf(&sb, "Comment:\n  %q\n\n", f.CommentText)
	fmt.Fprintf(&sb, "Draft response (%s confidence):\n  %q\n",
		orDefault(f.Draft.Confidence, "unknown"),
		orDefault(f.Draft.Suggested, "No draft available"),
	)
	return sb.String()
}

// sinceText renders an elapsed-hours value for humans.
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

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// firstProject returns the first project name, or empty.
func firstProject(projects []ProjectCompact) string {
	if len(projects) == 0 {
		return ""
	}
	return projects[0].Name
}

// permalink returns the task's permalink, synthesizing one when the API
// omits it.
func permalink(t Task) string {
	if t.PermalinkURL != "" {
		return t.PermalinkURL
	}
	return fmt.Sprintf("https://app.asana.com/0/0/%s", t.GID)
}

// sortedNames returns the map keys in sorted order so query order is
// deterministic.
func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
