package model

import "time"

// WorkItem is a trackable unit of work fetched from the task tracker.
// Items are ephemeral: they are fetched fresh on every run and never
// persisted locally.
type WorkItem struct {
	// GID is the item's identifier in the tracker.
	GID string `json:"gid"`

	// Name is the human-readable title of the item.
	Name string `json:"name"`

	// Notes is the free-text description body.
	Notes string `json:"notes"`

	// Project is the name of the project the item belongs to.
	Project string `json:"project"`

	// URL is the permalink back to the item in the tracker.
	URL string `json:"url"`

	// ModifiedAt is when the item was last changed in the tracker.
	ModifiedAt time.Time `json:"modified_at"`
}

// Comment is a timestamped, authored remark attached to a WorkItem.
// Comments for an item are always handled in non-decreasing CreatedAt
// order; the mention reconciliation walk depends on that ordering.
type Comment struct {
	// GID is the comment's identifier in the tracker.
	GID string `json:"gid"`

	// ItemGID is the GID of the work item the comment belongs to.
	ItemGID string `json:"item_gid"`

	// AuthorName is the display name of the comment author.
	AuthorName string `json:"author_name"`

	// AuthorGID is the author's user identifier.
	AuthorGID string `json:"author_gid"`

	// Text is the plain-text comment body.
	Text string `json:"text"`

	// HTMLText is the rich-text body. Mentions of users are embedded
	// here as decorated anchors carrying the user's GID.
	HTMLText string `json:"html_text"`

	// CreatedAt is when the comment was posted.
	CreatedAt time.Time `json:"created_at"`
}

// MonitoredUser is a person the agent watches for unanswered mentions.
type MonitoredUser struct {
	// Name is the display name as it appears in the tracker.
	Name string `json:"name"`

	// GID is the resolved user identifier. Empty until resolved.
	GID string `json:"gid"`
}

// CompletedTask is a tracker task completed within a reporting window.
type CompletedTask struct {
	GID         string    `json:"gid"`
	Name        string    `json:"name"`
	Assignee    string    `json:"assignee"`
	Project     string    `json:"project"`
	Notes       string    `json:"notes"`
	CompletedAt time.Time `json:"completed_at"`
}

// OverdueTask is an incomplete tracker task whose due date has passed.
type OverdueTask struct {
	GID         string `json:"gid"`
	Name        string `json:"name"`
	Assignee    string `json:"assignee"`
	Project     string `json:"project"`
	Notes       string `json:"notes"`
	DueOn       string `json:"due_on"`
	DaysOverdue int    `json:"days_overdue"`
}

// NewTask describes a task to be created in the tracker.
type NewTask struct {
	Name     string `json:"name"`
	Notes    string `json:"notes"`
	Assignee string `json:"assignee,omitempty"`
	DueOn    string `json:"due_on,omitempty"`
	Parent   string `json:"parent,omitempty"`
}

// TaskRef identifies a task created in the tracker.
type TaskRef struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}
