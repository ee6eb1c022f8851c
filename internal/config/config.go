// Package config loads and validates the sheetwatch configuration: global
// workbook/transport settings plus the list of notification rules.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/sheetwatch/sheetwatch/pkg/models"
)

// ErrInvalid marks configuration validation failures. Validation runs before
// any sheet access or matching, so a rule that fails here never dispatches.
var ErrInvalid = errors.New("invalid configuration")

// Config is the root configuration.
type Config struct {
	Workbook WorkbookConfig `koanf:"workbook"`
	Logging  LoggingConfig  `koanf:"logging"`
	SMTP     SMTPConfig     `koanf:"smtp"`
	Notify   NotifyConfig   `koanf:"notify"`
	Watch    WatchConfig    `koanf:"watch"`
	// Mentions are the workbook-wide defaults; a rule that leaves its own
	// mention lists unset inherits these.
	Mentions MentionConfig `koanf:"mentions"`
	Rules    []Rule        `koanf:"rules"`
}

// WorkbookConfig identifies the monitored workbook.
type WorkbookConfig struct {
	Path string `koanf:"path"`
	// URL is the externally reachable address of the workbook, used for
	// sheet and row deep links in notifications. Optional.
	URL string `koanf:"url"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `koanf:"level"`
}

// SMTPConfig holds the outbound email transport settings.
type SMTPConfig struct {
	Host          string        `koanf:"host"`
	Port          int           `koanf:"port"`
	Username      string        `koanf:"username"`
	Password      string        `koanf:"password"`
	From          string        `koanf:"from"`
	ReplyTo       string        `koanf:"reply_to"`
	Security      string        `koanf:"security"` // none, starttls, tls
	Timeout       time.Duration `koanf:"timeout"`
	SkipTLSVerify bool          `koanf:"skip_tls_verify"`
}

// NotifyConfig holds delivery settings shared by all channels.
type NotifyConfig struct {
	RequestTimeout time.Duration `koanf:"request_timeout"`
	// ErrorRecipient receives a best-effort email when a rule run fails.
	// Empty disables the side channel.
	ErrorRecipient string `koanf:"error_recipient"`
}

// WatchConfig holds settings for the periodic watch loop.
type WatchConfig struct {
	Interval    time.Duration `koanf:"interval"`
	MetricsAddr string        `koanf:"metrics_addr"`
}

// MentionConfig lists channel-specific principal IDs to ping.
type MentionConfig struct {
	SlackUsers   []string `koanf:"slack_users"`
	SlackGroups  []string `koanf:"slack_groups"`
	DiscordUsers []string `koanf:"discord_users"`
	DiscordRoles []string `koanf:"discord_roles"`
}

// Rule is one configured notification criterion. Kind selects the matching
// strategy; the remaining fields are shared metadata plus the kind-specific
// parameters.
type Rule struct {
	Name     string             `koanf:"name"`
	Kind     models.RuleKind    `koanf:"kind"`
	Sheet    string             `koanf:"sheet"`
	Title    string             `koanf:"title"`
	Channel  models.ChannelType `koanf:"channel"`
	Timezone string             `koanf:"timezone"`
	StartRow int                `koanf:"start_row"`
	// Columns are included in the rendered message but take no part in matching.
	Columns  []string      `koanf:"columns"`
	Mentions MentionConfig `koanf:"mentions"`

	WebhookURL     string `koanf:"webhook_url"`
	EmailRecipient string `koanf:"email_recipient"`
	EmailSubject   string `koanf:"email_subject"`

	// Date rule parameters.
	DateColumn string `koanf:"date_column"`
	DaysBefore int    `koanf:"days_before"`

	// Status rule parameters: parallel lists, a row matches when every
	// column equals its expected value.
	MatchColumns []string `koanf:"match_columns"`
	MatchValues  []string `koanf:"match_values"`
}

// Default returns the configuration defaults applied under the loaded file.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		SMTP: SMTPConfig{
			Port:     587,
			Security: "starttls",
			Timeout:  5 * time.Second,
		},
		Notify: NotifyConfig{RequestTimeout: 5 * time.Second},
		Watch:  WatchConfig{Interval: time.Hour},
	}
}

// ruleDefaults fills per-rule fallback values matching the historical
// behaviour of the property-driven setup this tool replaced.
func (c *Config) ruleDefaults() {
	for i := range c.Rules {
		rule := &c.Rules[i]
		if rule.Sheet == "" {
			rule.Sheet = "Sheet1"
		}
		if rule.Channel == "" {
			rule.Channel = models.ChannelSlack
		}
		if rule.Timezone == "" {
			rule.Timezone = "Asia/Tokyo"
		}
		if rule.StartRow == 0 {
			rule.StartRow = 2
		}
		if len(rule.Columns) == 0 {
			rule.Columns = []string{"D"}
		}
		if rule.Title == "" {
			switch rule.Kind {
			case models.RuleKindStatus:
				rule.Title = "ステータス通知"
			default:
				rule.Title = "日付通知"
			}
		}
		if rule.EmailSubject == "" {
			rule.EmailSubject = rule.Title
		}
		if rule.Name == "" {
			rule.Name = rule.Title
		}
		// Unset mention lists inherit the global defaults; an explicitly
		// empty list stays empty.
		if rule.Mentions.SlackUsers == nil {
			rule.Mentions.SlackUsers = c.Mentions.SlackUsers
		}
		if rule.Mentions.SlackGroups == nil {
			rule.Mentions.SlackGroups = c.Mentions.SlackGroups
		}
		if rule.Mentions.DiscordUsers == nil {
			rule.Mentions.DiscordUsers = c.Mentions.DiscordUsers
		}
		if rule.Mentions.DiscordRoles == nil {
			rule.Mentions.DiscordRoles = c.Mentions.DiscordRoles
		}
	}
}

// Load reads configuration from the TOML file at path, overlays SHEETWATCH_*
// environment variables and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %q: %w", path, err)
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// SHEETWATCH_LOGGING_LEVEL -> logging.level
	if err := k.Load(env.Provider("SHEETWATCH_", ".", func(s string) string {
		return envToKey(s[len("SHEETWATCH_"):])
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.ruleDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the structural invariants of the configuration.
func (c *Config) Validate() error {
	if c.Workbook.Path == "" {
		return fmt.Errorf("%w: workbook.path is required", ErrInvalid)
	}
	if len(c.Rules) == 0 {
		return fmt.Errorf("%w: at least one rule is required", ErrInvalid)
	}
	for i := range c.Rules {
		if err := c.Rules[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks one rule's invariants.
func (r *Rule) Validate() error {
	if r.Sheet == "" {
		return fmt.Errorf("%w: rule %q: sheet is required", ErrInvalid, r.Name)
	}
	switch r.Kind {
	case models.RuleKindDate:
		if r.DateColumn == "" {
			return fmt.Errorf("%w: rule %q: date_column is required", ErrInvalid, r.Name)
		}
		if r.DaysBefore < 0 {
			return fmt.Errorf("%w: rule %q: days_before must be a non-negative number", ErrInvalid, r.Name)
		}
	case models.RuleKindStatus:
		if len(r.MatchColumns) == 0 {
			return fmt.Errorf("%w: rule %q: match_columns is required", ErrInvalid, r.Name)
		}
		if len(r.MatchValues) == 0 {
			return fmt.Errorf("%w: rule %q: match_values is required", ErrInvalid, r.Name)
		}
		if len(r.MatchColumns) != len(r.MatchValues) {
			return fmt.Errorf("%w: rule %q: match_columns and match_values must have the same length", ErrInvalid, r.Name)
		}
	default:
		return fmt.Errorf("%w: rule %q: kind must be one of: date, status", ErrInvalid, r.Name)
	}

	switch r.Channel {
	case models.ChannelSlack, models.ChannelDiscord:
		if r.WebhookURL == "" {
			return fmt.Errorf("%w: rule %q: webhook_url is required for %s notifications", ErrInvalid, r.Name, r.Channel)
		}
	case models.ChannelEmail:
		if r.EmailRecipient == "" {
			return fmt.Errorf("%w: rule %q: email_recipient is required for email notifications", ErrInvalid, r.Name)
		}
	default:
		return fmt.Errorf("%w: rule %q: channel must be one of: slack, discord, email", ErrInvalid, r.Name)
	}
	return nil
}

// envToKey converts an environment variable suffix to a config key,
// e.g. LOGGING_LEVEL -> logging.level.
func envToKey(s string) string {
	result := ""
	for _, c := range s {
		if c == '_' {
			result += "."
			continue
		}
		if c >= 'A' && c <= 'Z' {
			c = c - 'A' + 'a'
		}
		result += string(c)
	}
	return result
}
