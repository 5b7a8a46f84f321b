package model

import "time"

// Meeting is a recorded meeting with its transcript, fetched from a
// meeting source for the reporting window.
type Meeting struct {
	// ID is the record identifier in the meeting source.
	ID string `json:"id"`

	// Title is the meeting title.
	Title string `json:"title"`

	// Date is when the meeting took place.
	Date time.Time `json:"date"`

	// Transcript is the full transcript text.
	Transcript string `json:"transcript"`

	// Summary is the source-provided summary, if any.
	Summary string `json:"summary"`

	// Host and Participants identify who attended.
	Host         string `json:"host"`
	Participants string `json:"participants"`
}

// ActionItem is a follow-up task extracted from a meeting transcript.
type ActionItem struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Assignee     string `json:"assignee,omitempty"`
	DueDate      string `json:"due_date,omitempty"`
	MeetingTitle string `json:"meeting_title,omitempty"`
	MeetingDate  string `json:"meeting_date,omitempty"`
}
