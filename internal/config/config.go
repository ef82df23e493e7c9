// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Store   StoreConfig   `mapstructure:"store"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Health  HealthConfig  `mapstructure:"health"`
	Usage   []UsageConfig `mapstructure:"usage"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// CrawlerConfig governs the crawl fan-out and fetch behavior.
type CrawlerConfig struct {
	UserAgent            string `mapstructure:"user_agent"`
	SourceTimeoutSeconds int    `mapstructure:"source_timeout_seconds"`
	RunBudgetSeconds     int    `mapstructure:"run_budget_seconds"`
	MaxBodyBytes         int    `mapstructure:"max_body_bytes"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Provider string         `mapstructure:"provider"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig controls the pgx connection pool.
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// NotifyConfig selects the alert notification backend.
type NotifyConfig struct {
	Provider string       `mapstructure:"provider"`
	PubSub   PubSubConfig `mapstructure:"pubsub"`
}

// PubSubConfig holds metadata for the Pub/Sub alert topic.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// ArchiveConfig selects the raw-page archive backend.
type ArchiveConfig struct {
	Provider string `mapstructure:"provider"`
	Prefix   string `mapstructure:"prefix"`
	Bucket   string `mapstructure:"gcs_bucket"`
	BaseDir  string `mapstructure:"base_dir"`
}

// HealthConfig tunes the health evaluation window.
type HealthConfig struct {
	LogWindow int `mapstructure:"log_window"`
}

// UsageConfig declares one externally tracked resource quota.
type UsageConfig struct {
	Name  string  `mapstructure:"name"`
	Used  float64 `mapstructure:"used"`
	Limit float64 `mapstructure:"limit"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CHARTCRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawler.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("crawler.source_timeout_seconds", 20)
	v.SetDefault("crawler.run_budget_seconds", 60)
	v.SetDefault("crawler.max_body_bytes", 5*1024*1024)
	v.SetDefault("store.provider", "memory")
	v.SetDefault("store.postgres.max_conns", 4)
	v.SetDefault("store.postgres.min_conns", 1)
	v.SetDefault("notify.provider", "log")
	v.SetDefault("archive.provider", "noop")
	v.SetDefault("archive.prefix", "pages")
	v.SetDefault("health.log_window", 20)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.SourceTimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.source_timeout_seconds must be > 0")
	}
	if c.Crawler.RunBudgetSeconds < c.Crawler.SourceTimeoutSeconds {
		return fmt.Errorf("crawler.run_budget_seconds must cover crawler.source_timeout_seconds")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.Store.Provider == "postgres" && c.Store.Postgres.DSN == "" {
		return fmt.Errorf("store.postgres.dsn must be set when store.provider is postgres")
	}
	if c.Notify.Provider == "pubsub" && (c.Notify.PubSub.ProjectID == "" || c.Notify.PubSub.TopicID == "") {
		return fmt.Errorf("notify.pubsub.project_id and topic_id must be set when notify.provider is pubsub")
	}
	if c.Health.LogWindow <= 0 {
		return fmt.Errorf("health.log_window must be > 0")
	}
	return nil
}

// SourceTimeout converts the per-source crawl bound into a duration.
func (c Config) SourceTimeout() time.Duration {
	return time.Duration(c.Crawler.SourceTimeoutSeconds) * time.Second
}

// RunBudget converts the whole-run wall-clock budget into a duration.
func (c Config) RunBudget() time.Duration {
	return time.Duration(c.Crawler.RunBudgetSeconds) * time.Second
}
