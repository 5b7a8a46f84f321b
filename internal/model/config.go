package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// TrackerConfig holds settings for the task-tracker integration.
type TrackerConfig struct {
	// BaseURL is the root URL of the tracker API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// WorkspaceGID is the tracker workspace to operate in.
	WorkspaceGID string `mapstructure:"workspace_gid" yaml:"workspace_gid"`

	// TeamMembers are the display names whose tasks are reported on.
	TeamMembers []string `mapstructure:"team_members" yaml:"team_members"`

	// OverdueAgeLimitDays limits overdue reporting to tasks created
	// within this many days. Zero means no limit.
	OverdueAgeLimitDays int `mapstructure:"overdue_age_limit_days" yaml:"overdue_age_limit_days"`
}

// MeetingSourceConfig holds the configuration for one meeting source.
type MeetingSourceConfig struct {
	// Type identifies the source kind ("airtable" or "inbox").
	Type string `mapstructure:"type" yaml:"type"`

	// Name is the user-defined label for this source instance.
	Name string `mapstructure:"name" yaml:"name"`

	// Enabled controls whether this source is consulted.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Config holds source-specific key-value settings
	// (e.g., base ID, table name, IMAP host, mailbox).
	Config map[string]string `mapstructure:"config" yaml:"config"`
}

// MentionConfig controls the unanswered-mention subsystem.
type MentionConfig struct {
	// MonitoredUsers are display names watched for unanswered mentions.
	MonitoredUsers []string `mapstructure:"monitored_users" yaml:"monitored_users"`

	// LookbackHours bounds how far back comments are considered current.
	LookbackHours int `mapstructure:"lookback_hours" yaml:"lookback_hours"`

	// CreateFollowups controls whether a respond-to-mentions task is
	// created in the tracker for newly surfaced mentions.
	CreateFollowups bool `mapstructure:"create_followups" yaml:"create_followups"`
}

// SlackConfig holds delivery settings for the report channel.
type SlackConfig struct {
	ChannelID string `mapstructure:"channel_id" yaml:"channel_id"`
}

// AIConfig holds settings for the Claude integration.
type AIConfig struct {
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// ScheduleConfig controls the daily run cadence.
type ScheduleConfig struct {
	// RunAt is the local wall-clock time of the daily run ("16:00").
	RunAt string `mapstructure:"run_at" yaml:"run_at"`

	// Timezone is an IANA location name ("America/Denver").
	Timezone string `mapstructure:"timezone" yaml:"timezone"`

	// AutoCreateTasks enables creating tracker tasks for extracted
	// meeting action items.
	AutoCreateTasks bool `mapstructure:"auto_create_tasks" yaml:"auto_create_tasks"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Tracker  TrackerConfig         `mapstructure:"tracker" yaml:"tracker"`
	Meetings []MeetingSourceConfig `mapstructure:"meetings" yaml:"meetings"`
	Mentions MentionConfig         `mapstructure:"mentions" yaml:"mentions"`
	Slack    SlackConfig           `mapstructure:"slack" yaml:"slack"`
	AI       AIConfig              `mapstructure:"ai" yaml:"ai"`
	Schedule ScheduleConfig        `mapstructure:"schedule" yaml:"schedule"`

	// DataDir is where durable state lives (run history database and
	// the processed-mentions ledger).
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/briefbot/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "briefbot", "config.yaml")
}

// DefaultDataDir returns the default directory for durable state.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "data")
	}
	return filepath.Join(home, ".local", "share", "briefbot")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Tracker: TrackerConfig{
			BaseURL: "https://app.asana.com/api/1.0",
		},
		Mentions: MentionConfig{
			LookbackHours:   168,
			CreateFollowups: true,
		},
		AI: AIConfig{
			Model:     "claude-sonnet-4-5-20250929",
			MaxTokens: 1024,
		},
		Schedule: ScheduleConfig{
			RunAt:    "16:00",
			Timezone: "America/Denver",
		},
		DataDir: DefaultDataDir(),
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("tracker.base_url", "https://app.asana.com/api/1.0")
	v.SetDefault("mentions.lookback_hours", 168)
	v.SetDefault("mentions.create_followups", true)
	v.SetDefault("ai.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("ai.max_tokens", 1024)
	v.SetDefault("schedule.run_at", "16:00")
	v.SetDefault("schedule.timezone", "America/Denver")
	v.SetDefault("data_dir", DefaultDataDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Viper unmarshals missing bools as false; treat an absent enabled
	// key as true for each meeting source.
	for i := range cfg.Meetings {
		key := fmt.Sprintf("meetings.%d.enabled", i)
		if !cfg.Meetings[i].Enabled && !v.IsSet(key) {
			cfg.Meetings[i].Enabled = true
		}
	}

	return cfg, nil
}

// Validate checks that the configuration names everything a scheduled
// run needs. It returns the list of missing settings.
func (c *AppConfig) Validate() []string {
	var missing []string
	if c.Tracker.WorkspaceGID == "" {
		missing = append(missing, "tracker.workspace_gid")
	}
	if c.Slack.ChannelID == "" {
		missing = append(missing, "slack.channel_id")
	}
	if len(c.Tracker.TeamMembers) == 0 {
		missing = append(missing, "tracker.team_members")
	}
	return missing
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("tracker", cfg.Tracker)
	v.Set("meetings", cfg.Meetings)
	v.Set("mentions", cfg.Mentions)
	v.Set("slack", cfg.Slack)
	v.Set("ai", cfg.AI)
	v.Set("schedule", cfg.Schedule)
	v.Set("data_dir", cfg.DataDir)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
