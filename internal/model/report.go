package model

import "time"

// ReportKind distinguishes the daily brief from the Friday weekly summary.
type ReportKind string

const (
	ReportDaily  ReportKind = "daily"
	ReportWeekly ReportKind = "weekly"
)

// Run status constants recorded in the run history.
const (
	RunStatusOK       = "ok"
	RunStatusDegraded = "degraded"
	RunStatusFailed   = "failed"
)

// Report is the assembled payload for a single brief, handed to the
// delivery layer and archived alongside the run record.
type Report struct {
	Kind      ReportKind `json:"kind"`
	Date      string     `json:"date"`
	Timestamp string     `json:"timestamp"`

	// Summary fields produced by the AI summarizer.
	Overview       string   `json:"overview"`
	Highlights     []string `json:"highlights,omitempty"`
	Concerns       []string `json:"concerns,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`

	// Weekly-only fields.
	Accomplishments []string `json:"accomplishments,omitempty"`
	TeamSummary     string   `json:"team_summary,omitempty"`
	NextWeekFocus   []string `json:"next_week_focus,omitempty"`
	WeekCompleted   int      `json:"week_completed,omitempty"`
	WeekMeetings    int      `json:"week_meetings,omitempty"`

	ActionItems    []ActionItem    `json:"action_items"`
	CompletedTasks []CompletedTask `json:"completed_tasks"`
	OverdueTasks   []OverdueTask   `json:"overdue_tasks"`
}

// RunRecord is one entry in the run history store.
type RunRecord struct {
	ID         string     `json:"id" db:"id"`
	Kind       ReportKind `json:"kind" db:"kind"`
	Status     string     `json:"status" db:"status"`
	Error      string     `json:"error,omitempty" db:"error"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	FinishedAt time.Time  `json:"finished_at" db:"finished_at"`

	// Section counts for the history listing.
	Meetings       int `json:"meetings" db:"meetings"`
	ActionItems    int `json:"action_items" db:"action_items"`
	CompletedTasks int `json:"completed_tasks" db:"completed_tasks"`
	OverdueTasks   int `json:"overdue_tasks" db:"overdue_tasks"`
	Mentions       int `json:"mentions" db:"mentions"`
	NewMentions    int `json:"new_mentions" db:"new_mentions"`

	// ReportJSON is the archived report payload, stored but not part of
	// the record's own JSON form.
	ReportJSON string `json:"-" db:"report_json"`
}
