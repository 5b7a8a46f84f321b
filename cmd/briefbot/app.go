package main

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/dthevenow/briefbot/internal/ai"
	"github.com/dthevenow/briefbot/internal/brief"
	"github.com/dthevenow/briefbot/internal/credential"
	"github.com/dthevenow/briefbot/internal/meeting"
	"github.com/dthevenow/briefbot/internal/meeting/airtable"
	"github.com/dthevenow/briefbot/internal/meeting/inbox"
	"github.com/dthevenow/briefbot/internal/mention"
	"github.com/dthevenow/briefbot/internal/model"
	"github.com/dthevenow/briefbot/internal/slack"
	"github.com/dthevenow/briefbot/internal/store"
	"github.com/dthevenow/briefbot/internal/tracker/asana"
)

// app holds everything a command needs, fully wired from config and
// stored credentials.
type app struct {
	cfg     *model.AppConfig
	loc     *time.Location
	tracker *asana.Adapter
	sources []meeting.Source
	ledger  *mention.Ledger
	slack   *slack.Client
	llm     *ai.Client
	store   store.Store
	coord   *brief.Coordinator
	log     *zap.Logger
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// buildApp loads config and credentials and wires the full pipeline.
// Commands that only need part of it still get a consistent view.
func buildApp(log *zap.Logger) (*app, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if missing := cfg.Validate(); len(missing) > 0 {
		return nil, fmt.Errorf(
			"configuration incomplete (missing %v); run `briefbot setup` first", missing)
	}

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Schedule.Timezone, err)
	}

	trackerToken, err := credential.Get(credential.KeyTrackerToken)
	if err != nil {
		return nil, fmt.Errorf("loading tracker token: %w (run `briefbot setup`)", err)
	}
	slackToken, err := credential.Get(credential.KeySlackBotToken)
	if err != nil {
		return nil, fmt.Errorf("loading Slack token: %w (run `briefbot setup`)", err)
	}
	anthropicKey, err := credential.Get(credential.KeyAnthropicKey)
	if err != nil {
		return nil, fmt.Errorf("loading Anthropic key: %w (run `briefbot setup`)", err)
	}

	a := &app{cfg: cfg, loc: loc, log: log}

	a.tracker = asana.NewAdapter(asana.Options{
		BaseURL:             cfg.Tracker.BaseURL,
		Token:               trackerToken,
		WorkspaceGID:        cfg.Tracker.WorkspaceGID,
		TeamMembers:         cfg.Tracker.TeamMembers,
		OverdueAgeLimitDays: cfg.Tracker.OverdueAgeLimitDays,
		Location:            loc,
		Logger:              log.Named("asana"),
	})

	a.sources, err = buildSources(cfg, log)
	if err != nil {
		return nil, err
	}

	a.slack = slack.NewClient("", slackToken, cfg.Slack.ChannelID, log.Named("slack"))
	a.llm = ai.NewClient(anthropicKey, cfg.AI.Model, log.Named("ai"))
	a.ledger = mention.NewLedger(cfg.DataDir, log.Named("ledger"))

	a.store, err = store.NewSQLiteStore(filepath.Join(cfg.DataDir, "briefbot.db"))
	if err != nil {
		return nil, fmt.Errorf("opening run history: %w", err)
	}

	sender := slack.NewSender(a.slack, slack.SenderOptions{
		MonitoredUsers: cfg.Mentions.MonitoredUsers,
		AgeLimitDays:   cfg.Tracker.OverdueAgeLimitDays,
		AutoCreate:     cfg.Schedule.AutoCreateTasks,
		Logger:         log.Named("slack"),
	})

	a.coord = brief.New(brief.Options{
		Tracker:         a.tracker,
		Sources:         a.sources,
		Reconciler:      mention.NewReconciler(a.tracker, log.Named("mentions")),
		Ledger:          a.ledger,
		Analyzer:        ai.NewAnalyzer(a.llm, log.Named("analyzer")),
		Responder:       ai.NewResponder(a.llm, log.Named("responder")),
		Summarizer:      ai.NewSummarizer(a.llm, log.Named("summarizer")),
		Sender:          sender,
		Store:           a.store,
		MonitoredUsers:  cfg.Mentions.MonitoredUsers,
		LookbackHours:   cfg.Mentions.LookbackHours,
		CreateFollowups: cfg.Mentions.CreateFollowups,
		AutoCreateTasks: cfg.Schedule.AutoCreateTasks,
		Location:        loc,
		Logger:          log.Named("brief"),
	})
	return a, nil
}

func buildSources(cfg *model.AppConfig, log *zap.Logger) ([]meeting.Source, error) {
	var sources []meeting.Source
	for _, sc := range cfg.Meetings {
		if !sc.Enabled {
			continue
		}
		switch meeting.SourceType(sc.Type) {
		case meeting.SourceTypeAirtable:
			key, err := credential.Get(credential.KeyAirtableKey)
			if err != nil {
				return nil, fmt.Errorf("loading Airtable key for source %q: %w", sc.Name, err)
			}
			sources = append(sources, airtable.NewAdapter(airtable.Options{
				Name:             sc.Name,
				APIKey:           key,
				BaseID:           sc.Config["base_id"],
				Table:            sc.Config["table"],
				ParticipantEmail: sc.Config["participant_email"],
				SourceMaterial:   sc.Config["source_material"],
				Logger:           log.Named("airtable"),
			}))
		case meeting.SourceTypeInbox:
			password, err := credential.Get(credential.KeyInboxPassword)
			if err != nil {
				return nil, fmt.Errorf("loading inbox password for source %q: %w", sc.Name, err)
			}
			sources = append(sources, inbox.NewAdapter(inbox.Options{
				Name:          sc.Name,
				Host:          sc.Config["host"],
				Port:          sc.Config["port"],
				Username:      sc.Config["username"],
				Password:      password,
				TLS:           sc.Config["tls"] != "false",
				Mailbox:       sc.Config["mailbox"],
				SubjectFilter: sc.Config["subject_filter"],
				Logger:        log.Named("inbox"),
			}))
		default:
			return nil, fmt.Errorf("unknown meeting source type %q", sc.Type)
		}
	}
	return sources, nil
}
