package config

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig
	GitHub    GitHubConfig
	Limits    LimitsConfig
	Badges    BadgesConfig
	Telemetry TelemetryConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`
	// RequestTimeout bounds one whole aggregation, across all upstream calls.
	RequestTimeout time.Duration
}

// GitHubConfig configures upstream GitHub API access.
type GitHubConfig struct {
	APIBaseURL     string
	GraphQLURL     string
	Token          string
	RequestTimeout time.Duration
	App            GitHubAppConfig
}

// GitHubAppConfig configures optional GitHub App installation authentication.
// When configured it replaces the static token on the REST transport.
type GitHubAppConfig struct {
	AppID          int64  `yaml:"app_id"`
	InstallationID int64  `yaml:"installation_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
}

// Configured reports whether any App authentication field is set.
func (c GitHubAppConfig) Configured() bool {
	return c.AppID != 0 || c.InstallationID != 0 || strings.TrimSpace(c.PrivateKeyPath) != ""
}

// LimitsConfig bounds how much of each upstream collection one request pulls.
type LimitsConfig struct {
	RepoPageSize       int `yaml:"repo_page_size"`
	EventSampleSize    int `yaml:"event_sample_size"`
	IssueSampleSize    int `yaml:"issue_sample_size"`
	LanguageRepoCap    int `yaml:"language_repo_cap"`
	LanguageWindowSize int `yaml:"language_window_size"`
}

// BadgesConfig holds the badge rule thresholds.
type BadgesConfig struct {
	RisingStarStars         int     `yaml:"rising_star_stars"`
	StellarStars            int     `yaml:"stellar_stars"`
	PRContributorMerged     int     `yaml:"pr_contributor_merged"`
	HighMergeRatio          float64 `yaml:"high_merge_ratio"`
	ActiveCommitterContribs int     `yaml:"active_committer_contributions"`
}

// TelemetryConfig configures OpenTelemetry behavior.
type TelemetryConfig struct {
	OTELEnabled          bool    `yaml:"otel_enabled"`
	OTELTraceMode        string  `yaml:"otel_trace_mode"`
	OTELTraceSampleRatio float64 `yaml:"otel_trace_sample_ratio"`
}

// Load reads configuration from YAML and validates the result.
func Load(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("config reader is nil")
	}

	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	var raw rawConfig
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	cfg := raw.toConfig()
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates configuration values.
func (c *Config) Validate() error {
	var errs []string

	if !slices.Contains(validLogLevels, c.Server.LogLevel) {
		errs = append(errs, "server.log_level must be one of debug|info|warn|error")
	}
	if strings.TrimSpace(c.Server.ListenAddr) == "" {
		errs = append(errs, "server.listen_addr is required")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "server.request_timeout must be > 0")
	}

	if c.GitHub.RequestTimeout <= 0 {
		errs = append(errs, "github.request_timeout must be > 0")
	}
	if c.GitHub.App.Configured() {
		if c.GitHub.App.AppID <= 0 {
			errs = append(errs, "github.app.app_id must be > 0")
		}
		if c.GitHub.App.InstallationID <= 0 {
			errs = append(errs, "github.app.installation_id must be > 0")
		}
		if strings.TrimSpace(c.GitHub.App.PrivateKeyPath) == "" {
			errs = append(errs, "github.app.private_key_path is required")
		}
	}

	if c.Limits.RepoPageSize <= 0 || c.Limits.RepoPageSize > 100 {
		errs = append(errs, "limits.repo_page_size must be in 1..100")
	}
	if c.Limits.EventSampleSize <= 0 {
		errs = append(errs, "limits.event_sample_size must be > 0")
	}
	if c.Limits.IssueSampleSize <= 0 {
		errs = append(errs, "limits.issue_sample_size must be > 0")
	}
	if c.Limits.LanguageRepoCap <= 0 {
		errs = append(errs, "limits.language_repo_cap must be > 0")
	}
	if c.Limits.LanguageWindowSize <= 0 {
		errs = append(errs, "limits.language_window_size must be > 0")
	}

	if c.Badges.HighMergeRatio < 0 || c.Badges.HighMergeRatio > 1 {
		errs = append(errs, "badges.high_merge_ratio must be in 0..1")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}

	if cfg.GitHub.APIBaseURL == "" {
		cfg.GitHub.APIBaseURL = "https://api.github.com"
	}
	if cfg.GitHub.GraphQLURL == "" {
		cfg.GitHub.GraphQLURL = "https://api.github.com/graphql"
	}
	if cfg.GitHub.RequestTimeout == 0 {
		cfg.GitHub.RequestTimeout = 20 * time.Second
	}

	if cfg.Limits.RepoPageSize == 0 {
		cfg.Limits.RepoPageSize = 100
	}
	if cfg.Limits.EventSampleSize == 0 {
		cfg.Limits.EventSampleSize = 20
	}
	if cfg.Limits.IssueSampleSize == 0 {
		cfg.Limits.IssueSampleSize = 50
	}
	if cfg.Limits.LanguageRepoCap == 0 {
		cfg.Limits.LanguageRepoCap = 40
	}
	if cfg.Limits.LanguageWindowSize == 0 {
		cfg.Limits.LanguageWindowSize = 5
	}

	if cfg.Badges.RisingStarStars == 0 {
		cfg.Badges.RisingStarStars = 100
	}
	if cfg.Badges.StellarStars == 0 {
		cfg.Badges.StellarStars = 1000
	}
	if cfg.Badges.PRContributorMerged == 0 {
		cfg.Badges.PRContributorMerged = 50
	}
	if cfg.Badges.ActiveCommitterContribs == 0 {
		cfg.Badges.ActiveCommitterContribs = 300
	}

	if cfg.Telemetry.OTELTraceMode == "" {
		cfg.Telemetry.OTELTraceMode = "sampled"
	}
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil || value.Kind == 0 || strings.TrimSpace(value.Value) == "" {
		d.Duration = 0
		return nil
	}

	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decode duration: %w", err)
	}

	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

type rawConfig struct {
	Server    rawServer    `yaml:"server"`
	GitHub    rawGitHub    `yaml:"github"`
	Limits    LimitsConfig `yaml:"limits"`
	Badges    rawBadges    `yaml:"badges"`
	Telemetry rawTelemetry `yaml:"telemetry"`
}

type rawServer struct {
	ListenAddr     string   `yaml:"listen_addr"`
	LogLevel       string   `yaml:"log_level"`
	RequestTimeout duration `yaml:"request_timeout"`
}

type rawGitHub struct {
	APIBaseURL     string          `yaml:"api_base_url"`
	GraphQLURL     string          `yaml:"graphql_url"`
	Token          string          `yaml:"token"`
	RequestTimeout duration        `yaml:"request_timeout"`
	App            GitHubAppConfig `yaml:"app"`
}

// The two ratio fields decode through pointers: zero is a meaningful
// configured value for them, distinct from unset.
type rawBadges struct {
	RisingStarStars         int      `yaml:"rising_star_stars"`
	StellarStars            int      `yaml:"stellar_stars"`
	PRContributorMerged     int      `yaml:"pr_contributor_merged"`
	HighMergeRatio          *float64 `yaml:"high_merge_ratio"`
	ActiveCommitterContribs int      `yaml:"active_committer_contributions"`
}

type rawTelemetry struct {
	OTELEnabled          bool     `yaml:"otel_enabled"`
	OTELTraceMode        string   `yaml:"otel_trace_mode"`
	OTELTraceSampleRatio *float64 `yaml:"otel_trace_sample_ratio"`
}

func floatOrDefault(value *float64, fallback float64) float64 {
	if value == nil {
		return fallback
	}
	return *value
}

func (r rawConfig) toConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:     r.Server.ListenAddr,
			LogLevel:       r.Server.LogLevel,
			RequestTimeout: r.Server.RequestTimeout.Duration,
		},
		GitHub: GitHubConfig{
			APIBaseURL:     r.GitHub.APIBaseURL,
			GraphQLURL:     r.GitHub.GraphQLURL,
			Token:          r.GitHub.Token,
			RequestTimeout: r.GitHub.RequestTimeout.Duration,
			App:            r.GitHub.App,
		},
		Limits: r.Limits,
		Badges: BadgesConfig{
			RisingStarStars:         r.Badges.RisingStarStars,
			StellarStars:            r.Badges.StellarStars,
			PRContributorMerged:     r.Badges.PRContributorMerged,
			HighMergeRatio:          floatOrDefault(r.Badges.HighMergeRatio, 0.6),
			ActiveCommitterContribs: r.Badges.ActiveCommitterContribs,
		},
		Telemetry: TelemetryConfig{
			OTELEnabled:          r.Telemetry.OTELEnabled,
			OTELTraceMode:        r.Telemetry.OTELTraceMode,
			OTELTraceSampleRatio: floatOrDefault(r.Telemetry.OTELTraceSampleRatio, 0.1),
		},
	}
}
