// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all crawler configuration knobs loaded via Viper.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	DB      DBConfig      `mapstructure:"db"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlerConfig sizes the two worker pools.
type CrawlerConfig struct {
	YearWorkers      int `mapstructure:"year_workers"`
	MembersPerWorker int `mapstructure:"members_per_worker"`
	MaxMemberWorkers int `mapstructure:"max_member_workers"`
}

// HTTPConfig configures the disclosure-site HTTP clients.
type HTTPConfig struct {
	ArchiveBaseURL   string `mapstructure:"archive_base_url"`
	DocumentBaseURL  string `mapstructure:"document_base_url"`
	UserAgent        string `mapstructure:"user_agent"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	MaxRetries       int    `mapstructure:"max_retries"`
	BackoffInitialMs int    `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int    `mapstructure:"backoff_max_ms"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

// MetricsConfig controls the optional Prometheus listener.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PTRCRAWLER")
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
	v.SetDefault("crawler.year_workers", 8)
	v.SetDefault("crawler.members_per_worker", 24)
	v.SetDefault("crawler.max_member_workers", 8)
	v.SetDefault("http.archive_base_url", "https://disclosures-clerk.house.gov/public_disc/financial-pdfs")
	v.SetDefault("http.document_base_url", "https://disclosures-clerk.house.gov/public_disc/ptr-pdfs")
	v.SetDefault("http.user_agent", "ptr-crawler/0.1 (+https://github.com/fedwatch/ptr-crawler)")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_retries", 2)
	v.SetDefault("http.backoff_initial_ms", 250)
	v.SetDefault("http.backoff_max_ms", 2000)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.YearWorkers <= 0 {
		return fmt.Errorf("crawler.year_workers must be > 0")
	}
	if c.Crawler.MembersPerWorker <= 0 {
		return fmt.Errorf("crawler.members_per_worker must be > 0")
	}
	if c.Crawler.MaxMemberWorkers <= 0 {
		return fmt.Errorf("crawler.max_member_workers must be > 0")
	}
	if c.HTTP.ArchiveBaseURL == "" {
		return fmt.Errorf("http.archive_base_url must be set")
	}
	if c.HTTP.DocumentBaseURL == "" {
		return fmt.Errorf("http.document_base_url must be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set")
	}
	if c.Metrics.Enabled && c.Metrics.Port <= 0 {
		return fmt.Errorf("metrics.port must be > 0 when metrics are enabled")
	}
	return nil
}

// HTTPTimeout converts the timeout setting into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffInitial converts the initial backoff setting into a duration.
func (c Config) BackoffInitial() time.Duration {
	return time.Duration(c.HTTP.BackoffInitialMs) * time.Millisecond
}

// BackoffMax converts the max backoff setting into a duration.
func (c Config) BackoffMax() time.Duration {
	return time.Duration(c.HTTP.BackoffMaxMs) * time.Millisecond
}
