package airtable

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/dthevenow/briefbot/internal/meeting"
	"github.com/dthevenow/briefbot/internal/model"
)

// defaultSourceMaterial is the record type that marks a row as a call
// transcript rather than notes or an imported document.
const defaultSourceMaterial = "Fireflies Call"

// Options configures an Adapter.
type Options struct {
	// Name is the user-defined label for this source instance.
	Name string

	// BaseURL overrides the API root, for tests.
	BaseURL string

	// APIKey is the Airtable personal access token.
	APIKey string

	// BaseID and Table identify where the transcripts live.
	BaseID string
	Table  string

	// ParticipantEmail filters records to meetings this person hosted
	// or attended. Empty keeps every transcript.
	ParticipantEmail string

	// SourceMaterial overrides the record-type filter value.
	SourceMaterial string

	Logger *zap.Logger
}

// Adapter implements meeting.Source backed by an Airtable table of call
// transcripts.
type Adapter struct {
	client           *Client
	name             string
	participantEmail string
	sourceMaterial   string
	log              *zap.Logger
}

// NewAdapter creates a new Airtable meeting source.
func NewAdapter(opts Options) *Adapter {
	material := opts.SourceMaterial
	if material == "" {
		material = defaultSourceMaterial
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{
		client:           NewClient(opts.BaseURL, opts.APIKey, opts.BaseID, opts.Table),
		name:             opts.Name,
		participantEmail: opts.ParticipantEmail,
		sourceMaterial:   material,
		log:              log,
	}
}

func (a *Adapter) Type() meeting.SourceType { return meeting.SourceTypeAirtable }

func (a *Adapter) Name() string { return a.name }

// ValidateConnection verifies the API key can read the table.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	if err := a.client.Ping(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("connected to Airtable table %q", a.client.table), nil
}

// MeetingsOn returns the transcripts for meetings on the given day.
func (a *Adapter) MeetingsOn(
	ctx context.Context,
	day time.Time,
) ([]model.Meeting, error) {
	return a.fetch(ctx, func(t time.Time) bool {
		return meeting.SameDay(t, day)
	})
}

// MeetingsBetween returns the transcripts for meetings in the inclusive
// day range [from, to].
func (a *Adapter) MeetingsBetween(
	ctx context.Context,
	from, to time.Time,
) ([]model.Meeting, error) {
	return a.fetch(ctx, func(t time.Time) bool {
		return meeting.WithinDays(t, from, to)
	})
}

// fetch lists every record in the table and keeps call transcripts that
// involve the configured participant and pass the date filter. Airtable
// cannot filter on our behalf reliably here: the date lives in a text
// column and the participant list is free-form.
func (a *Adapter) fetch(
	ctx context.Context,
	inWindow func(time.Time) bool,
) ([]model.Meeting, error) {
	records, err := a.client.ListRecords(ctx)
	if err != nil {
		return nil, err
	}

	var meetings []model.Meeting
	for _, rec := range records {
		fields := string(rec.Fields)

		if gjson.Get(fields, "Source Material").String() != a.sourceMaterial {
			continue
		}

		host := gjson.Get(fields, "Host Name").String()
		participants := gjson.Get(fields, "Participants").String()
		if a.participantEmail != "" &&
			!strings.Contains(host, a.participantEmail) &&
			!strings.Contains(participants, a.participantEmail) {
			continue
		}

		createdStr := gjson.Get(fields, "Created").String()
		if createdStr == "" {
			createdStr = rec.CreatedTime
		}
		created, err := time.Parse(time.RFC3339, createdStr)
		if err != nil {
			a.log.Warn("skipping record with unparseable date",
				zap.String("record_id", rec.ID),
				zap.String("created", createdStr),
			)
			continue
		}
		if !inWindow(created) {
			continue
		}

		title := gjson.Get(fields, "Title").String()
		if title == "" {
			title = "Untitled Meeting"
		}
		meetings = append(meetings, model.Meeting{
			ID:           rec.ID,
			Title:        title,
			Date:         created,
			Transcript:   gjson.Get(fields, "Text").String(),
			Summary:      gjson.Get(fields, "Summary").String(),
			Host:         host,
			Participants: participants,
		})
	}

	a.log.Info("fetched meetings from Airtable",
		zap.String("source", a.name),
		zap.Int("meetings", len(meetings)),
		zap.Int("records_scanned", len(records)),
	)
	return meetings, nil
}
