package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/dthevenow/briefbot/internal/credential"
	"github.com/dthevenow/briefbot/internal/model"
	"github.com/dthevenow/briefbot/internal/theme"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive first-time configuration",
	Long: `Walks through configuring briefbot: API credentials (stored in the
system keyring), the Asana workspace and team, the Slack channel, and
the meeting transcript source. Writes the config file and leaves
credentials out of it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup()
	},
}

func runSetup() error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	var (
		asanaToken   string
		workspaceGID = cfg.Tracker.WorkspaceGID
		teamMembers  = strings.Join(cfg.Tracker.TeamMembers, ", ")
		monitored    = strings.Join(cfg.Mentions.MonitoredUsers, ", ")

		slackToken string
		channelID  = cfg.Slack.ChannelID

		anthropicKey string

		useAirtable      = true
		airtableKey      string
		airtableBaseID   string
		airtableTable    = "Meetings"
		participantEmail string

		autoCreate = cfg.Schedule.AutoCreateTasks
		runAt      = cfg.Schedule.RunAt
		timezone   = cfg.Schedule.Timezone
	)

	fmt.Println(theme.HeaderStyle.Render("briefbot setup"))
	fmt.Println(theme.SubtleStyle.Render(
		"Credentials go to the system keyring; everything else to " + configPath))

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Asana Personal Access Token").
				Description("From https://app.asana.com/0/my-apps").
				EchoMode(huh.EchoModePassword).
				Value(&asanaToken).
				Validate(required("Token")),
			huh.NewInput().
				Title("Asana Workspace GID").
				Placeholder("1200000000000000").
				Value(&workspaceGID).
				Validate(required("Workspace GID")),
			huh.NewInput().
				Title("Team members").
				Description("Display names whose tasks go in the brief, comma-separated").
				Placeholder("Alice Johnson, Bob Lee").
				Value(&teamMembers).
				Validate(required("Team members")),
			huh.NewInput().
				Title("Monitored users").
				Description("Display names watched for unanswered @mentions, comma-separated").
				Value(&monitored),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Slack Bot Token").
				Placeholder("xoxb-...").
				EchoMode(huh.EchoModePassword).
				Value(&slackToken).
				Validate(required("Bot token")),
			huh.NewInput().
				Title("Slack Channel ID").
				Description("The channel the brief is posted to").
				Placeholder("C0123456789").
				Value(&channelID).
				Validate(required("Channel ID")),
			huh.NewInput().
				Title("Anthropic API Key").
				EchoMode(huh.EchoModePassword).
				Value(&anthropicKey).
				Validate(required("API key")),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Use Airtable for meeting transcripts?").
				Description("Where your transcription bot stores call recordings").
				Value(&useAirtable),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Airtable API Key").
				EchoMode(huh.EchoModePassword).
				Value(&airtableKey).
				Validate(required("API key")),
			huh.NewInput().
				Title("Airtable Base ID").
				Placeholder("appXXXXXXXXXXXXXX").
				Value(&airtableBaseID).
				Validate(required("Base ID")),
			huh.NewInput().
				Title("Airtable Table Name").
				Value(&airtableTable).
				Validate(required("Table name")),
			huh.NewInput().
				Title("Your email").
				Description("Only meetings you hosted or attended are briefed").
				Placeholder("you@example.com").
				Value(&participantEmail),
		).WithHideFunc(func() bool { return !useAirtable }),
		huh.NewGroup(
			huh.NewInput().
				Title("Daily run time").
				Description("24h wall clock").
				Value(&runAt).
				Validate(validRunAt),
			huh.NewInput().
				Title("Timezone").
				Description("IANA name").
				Value(&timezone).
				Validate(required("Timezone")),
			huh.NewConfirm().
				Title("Create Asana tasks for meeting action items automatically?").
				Value(&autoCreate),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("setup aborted: %w", err)
	}

	creds := map[string]string{
		credential.KeyTrackerToken:  asanaToken,
		credential.KeySlackBotToken: slackToken,
		credential.KeyAnthropicKey:  anthropicKey,
	}
	if useAirtable {
		creds[credential.KeyAirtableKey] = airtableKey
	}
	for key, value := range creds {
		if err := credential.Set(key, value); err != nil {
			return fmt.Errorf("storing %s: %w", key, err)
		}
	}

	cfg.Tracker.WorkspaceGID = workspaceGID
	cfg.Tracker.TeamMembers = splitList(teamMembers)
	cfg.Mentions.MonitoredUsers = splitList(monitored)
	cfg.Slack.ChannelID = channelID
	cfg.Schedule.AutoCreateTasks = autoCreate
	cfg.Schedule.RunAt = runAt
	cfg.Schedule.Timezone = timezone
	if useAirtable {
		cfg.Meetings = upsertAirtableSource(cfg.Meetings, map[string]string{
			"base_id":           airtableBaseID,
			"table":             airtableTable,
			"participant_email": participantEmail,
		})
	}

	if err := model.SaveConfig(configPath, cfg); err != nil {
		return err
	}

	fmt.Println(theme.SuccessStyle.Render("\nSetup complete."))
	fmt.Println("Run " + theme.LabelStyle.Render("briefbot check") +
		" to verify the connections, then " +
		theme.LabelStyle.Render("briefbot run") + " for a first brief.")
	return nil
}

// upsertAirtableSource replaces the existing airtable source config or
// appends one, leaving other sources untouched.
func upsertAirtableSource(sources []model.MeetingSourceConfig, settings map[string]string) []model.MeetingSourceConfig {
	entry := model.MeetingSourceConfig{
		Type:    "airtable",
		Name:    "calls",
		Enabled: true,
		Config:  settings,
	}
	for i, sc := range sources {
		if sc.Type == "airtable" {
			entry.Name = sc.Name
			sources[i] = entry
			return sources
		}
	}
	return append(sources, entry)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validRunAt(s string) error {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return fmt.Errorf("use 24h HH:MM, e.g. 16:00")
	}
	return nil
}
