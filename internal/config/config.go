package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Limits are the shared fetch bounds every adapter honors.
type Limits struct {
	MaxItems      int           `yaml:"max_items"`      // stop after this many records (default 200)
	PageSize      int           `yaml:"page_size"`      // per-request batch size
	Timeout       time.Duration `yaml:"timeout"`        // HTTP request timeout
	FetchDeadline time.Duration `yaml:"fetch_deadline"` // wall-clock budget for one fetch
	MaxRetries    int           `yaml:"max_retries"`    // attempts per request (default 3)
	Backoff       time.Duration `yaml:"backoff"`        // initial backoff (default 500ms)
	MaxBackoff    time.Duration `yaml:"max_backoff"`    // backoff cap (default 30s)
}

type ShortPostConfig struct {
	Enabled     bool     `yaml:"enabled"`
	BaseURL     string   `yaml:"base_url"`
	BearerToken string   `yaml:"bearer_token"` // env SHORTPOST_BEARER_TOKEN overrides
	Terms       []string `yaml:"terms"`
	DaysBack    int      `yaml:"days_back"`
	Limits      Limits   `yaml:"limits"`
}

type VideoConfig struct {
	Enabled  bool     `yaml:"enabled"`
	BaseURL  string   `yaml:"base_url"`
	APIKey   string   `yaml:"api_key"` // env VIDEO_API_KEY overrides
	Terms    []string `yaml:"terms"`
	DaysBack int      `yaml:"days_back"`
	Limits   Limits   `yaml:"limits"`
}

type ForumConfig struct {
	Enabled    bool     `yaml:"enabled"`
	BaseURL    string   `yaml:"base_url"`
	UserAgent  string   `yaml:"user_agent"`
	Subreddits []string `yaml:"subreddits"`
	TimeFilter string   `yaml:"time_filter"` // day|week|month
	Limits     Limits   `yaml:"limits"`
}

type TrendsConfig struct {
	Enabled  bool     `yaml:"enabled"`
	BaseURL  string   `yaml:"base_url"`
	Keywords []string `yaml:"keywords"`
	Geo      string   `yaml:"geo"`
	DaysBack int      `yaml:"days_back"`
	Limits   Limits   `yaml:"limits"`
}

type SourcesConfig struct {
	ShortPost ShortPostConfig `yaml:"shortpost"`
	Video     VideoConfig     `yaml:"video"`
	Forum     ForumConfig     `yaml:"forum"`
	Trends    TrendsConfig    `yaml:"trends"`
}

type StoreConfig struct {
	DatabaseURL string `yaml:"database_url"` // env DATABASE_URL overrides; empty falls back to sqlite
	SQLitePath  string `yaml:"sqlite_path"`  // default data/optimizer.db
}

// Rule is one declarative alert predicate.
type Rule struct {
	Name      string        `yaml:"name"`
	Type      string        `yaml:"type"`      // engagement | keyword | volume
	Source    string        `yaml:"source"`    // empty = any source
	Metric    string        `yaml:"metric"`    // engagement rules: e.g. "views"
	Threshold int64         `yaml:"threshold"` // engagement/volume rules
	Contains  []string      `yaml:"contains"`  // keyword rules, case-insensitive
	Window    time.Duration `yaml:"window"`    // volume rules: rolling window
}

type AlertsConfig struct {
	Rules           []Rule `yaml:"rules"`
	MaxAttempts     int    `yaml:"max_attempts"` // delivery retries per sink
	SlackWebhookURL string `yaml:"slack_webhook_url"`
	SlackUsername   string `yaml:"slack_username"`
	SlackIconEmoji  string `yaml:"slack_icon_emoji"`
	TelegramChatID  string `yaml:"telegram_chat_id"`
}

type RunConfig struct {
	Deadline        time.Duration `yaml:"deadline"`         // overall sync run budget
	AdapterDeadline time.Duration `yaml:"adapter_deadline"` // per-adapter budget
}

type GenerationConfig struct {
	Models []string `yaml:"models"` // ordered fallback
}

type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Sources    SourcesConfig    `yaml:"sources"`
	Alerts     AlertsConfig     `yaml:"alerts"`
	Run        RunConfig        `yaml:"run"`
	Generation GenerationConfig `yaml:"generation"`
}

// Load reads the YAML config and overlays secrets from the
// environment. Credentials never live in the file in production;
// godotenv populates the environment before this runs.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	c.applyEnv()
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Store.DatabaseURL = v
	}
	if v := os.Getenv("SHORTPOST_BEARER_TOKEN"); v != "" {
		c.Sources.ShortPost.BearerToken = v
	}
	if v := os.Getenv("VIDEO_API_KEY"); v != "" {
		c.Sources.Video.APIKey = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		c.Alerts.SlackWebhookURL = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Alerts.TelegramChatID = v
	}
}

func (c *Config) validate() error {
	if !c.Sources.ShortPost.Enabled && !c.Sources.Video.Enabled &&
		!c.Sources.Forum.Enabled && !c.Sources.Trends.Enabled {
		return errors.New("no sources enabled")
	}
	for _, r := range c.Alerts.Rules {
		switch r.Type {
		case "engagement":
			if r.Metric == "" || r.Threshold <= 0 {
				return fmt.Errorf("rule %q: engagement rules need metric and threshold", r.Name)
			}
		case "keyword":
			if len(r.Contains) == 0 {
				return fmt.Errorf("rule %q: keyword rules need at least one term", r.Name)
			}
		case "volume":
			if r.Threshold <= 0 || r.Window <= 0 {
				return fmt.Errorf("rule %q: volume rules need threshold and window", r.Name)
			}
		default:
			return fmt.Errorf("rule %q: unknown type %q", r.Name, r.Type)
		}
	}
	return nil
}

// SQLitePath returns the configured local store path or its default.
func (c *Config) SQLitePathOrDefault() string {
	if c.Store.SQLitePath != "" {
		return c.Store.SQLitePath
	}
	return "data/optimizer.db"
}
