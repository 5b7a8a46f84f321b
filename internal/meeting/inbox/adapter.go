package inbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dthevenow/briefbot/internal/meeting"
	"github.com/dthevenow/briefbot/internal/model"
)

// fetchLimit bounds how many messages one query will pull.
const fetchLimit = 200

// fetcher is the mailbox surface the adapter needs; tests supply fakes.
type fetcher interface {
	CheckMailbox(ctx context.Context) (uint32, error)
	FetchMessagesSince(ctx context.Context, since time.Time, limit int) ([]Message, error)
}

// Options configures an Adapter.
type Options struct {
	// Name is the user-defined label for this source instance.
	Name string

	Host     string
	Port     string
	Username string
	Password string
	TLS      bool

	// Mailbox is the folder transcripts land in. Empty means INBOX.
	Mailbox string

	// SubjectFilter keeps only messages whose subject contains this
	// string, case-insensitively. Empty keeps every message.
	SubjectFilter string

	Logger *zap.Logger
}

// Adapter implements meeting.Source backed by an IMAP mailbox of
// transcript emails.
type Adapter struct {
	client        fetcher
	name          string
	mailbox       string
	subjectFilter string
	log           *zap.Logger
}

// NewAdapter creates a new inbox meeting source.
func NewAdapter(opts Options) *Adapter {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	mailbox := opts.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	return &Adapter{
		client: NewIMAPClient(
			opts.Host, opts.Port, opts.Username, opts.Password,
			opts.TLS, opts.Mailbox,
		),
		name:          opts.Name,
		mailbox:       mailbox,
		subjectFilter: opts.SubjectFilter,
		log:           log,
	}
}

func (a *Adapter) Type() meeting.SourceType { return meeting.SourceTypeInbox }

func (a *Adapter) Name() string { return a.name }

// ValidateConnection logs in and reports the mailbox message count.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	count, err := a.client.CheckMailbox(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("connected, %d message(s) in %s", count, a.mailbox), nil
}

// MeetingsOn returns the transcript emails that arrived on the given day.
func (a *Adapter) MeetingsOn(
	ctx context.Context,
	day time.Time,
) ([]model.Meeting, error) {
	// SINCE the previous day: IMAP date matching is server-local and
	// day-granular, so cast a wide net and filter precisely below.
	return a.fetch(ctx, day.AddDate(0, 0, -1), func(t time.Time) bool {
		return meeting.SameDay(t, day)
	})
}

// MeetingsBetween returns the transcript emails from the inclusive day
// range [from, to].
func (a *Adapter) MeetingsBetween(
	ctx context.Context,
	from, to time.Time,
) ([]model.Meeting, error) {
	return a.fetch(ctx, from.AddDate(0, 0, -1), func(t time.Time) bool {
		return meeting.WithinDays(t, from, to)
	})
}

func (a *Adapter) fetch(
	ctx context.Context,
	since time.Time,
	inWindow func(time.Time) bool,
) ([]model.Meeting, error) {
	messages, err := a.client.FetchMessagesSince(ctx, since, fetchLimit)
	if err != nil {
		return nil, err
	}

	var meetings []model.Meeting
	for _, msg := range messages {
		if !a.matchesSubject(msg.Subject) || !inWindow(msg.Date) {
			continue
		}

		transcript := msg.TextBody
		if transcript == "" {
			transcript = msg.HTMLBody
		}
		if strings.TrimSpace(transcript) == "" {
			a.log.Debug("skipping transcript email with empty body",
				zap.Uint32("uid", msg.UID),
			)
			continue
		}

		meetings = append(meetings, model.Meeting{
			ID:         fmt.Sprintf("%s/%d", a.mailbox, msg.UID),
			Title:      meetingTitle(msg.Subject),
			Date:       msg.Date,
			Transcript: transcript,
			Host:       msg.From,
		})
	}

	a.log.Info("fetched meetings from mailbox",
		zap.String("source", a.name),
		zap.Int("meetings", len(meetings)),
		zap.Int("messages_scanned", len(messages)),
	)
	return meetings, nil
}

func (a *Adapter) matchesSubject(subject string) bool {
	if a.subjectFilter == "" {
		return true
	}
	return strings.Contains(
		strings.ToLower(subject), strings.ToLower(a.subjectFilter),
	)
}

// meetingTitle strips common transcript-service prefixes from an email
// subject.
func meetingTitle(subject string) string {
	title := subject
	for _, prefix := range []string{"Meeting notes:", "Transcript:", "Recap:"} {
		if strings.HasPrefix(strings.ToLower(title), strings.ToLower(prefix)) {
			title = strings.TrimSpace(title[len(prefix):])
		}
	}
	if title == "" {
		return "Untitled Meeting"
	}
	return title
}
