// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Provider      ProviderConfig     `mapstructure:"provider"`
	Dealers       DealerConfig       `mapstructure:"dealers"`
	Templates     TemplateConfig     `mapstructure:"templates"`
	Cache         CacheConfig        `mapstructure:"cache"`
	Scheduler     SchedulerConfig    `mapstructure:"scheduler"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Database      DatabaseConfig     `mapstructure:"database"`
	History       HistoryConfig      `mapstructure:"history"`
	Audit         AuditConfig        `mapstructure:"audit"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// ProviderConfig holds connection settings for the remote booking system.
type ProviderConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RolloutStage   string `mapstructure:"rollout_stage"`   // sent as the rollout.stage cookie
	RequestsPerSec int    `mapstructure:"requests_per_sec"` // per-dealer rate limit
}

// DealerConfig points at the dealer registry document.
type DealerConfig struct {
	RegistryPath string `mapstructure:"registry_path"`
}

// TemplateConfig holds paths of the notification template documents.
type TemplateConfig struct {
	EmailPath string `mapstructure:"email_path"`
	TextPath  string `mapstructure:"text_path"`
}

// CacheConfig selects and configures the dedup cache backend.
type CacheConfig struct {
	Backend string `mapstructure:"backend"` // "file" or "redis"
	Path    string `mapstructure:"path"`    // file backend store location
}

// SchedulerConfig holds the per-record orchestration knobs.
type SchedulerConfig struct {
	SearchWindowDays       int `mapstructure:"search_window_days"`
	MaxRetries             int `mapstructure:"max_retries"`
	RetryBackoff           int `mapstructure:"retry_backoff"` // milliseconds, initial
	Workers                int `mapstructure:"workers"`
	DefaultIntervalMonths  int `mapstructure:"default_interval_months"`
}

// NotificationConfig holds settings for the notify layer.
type NotificationConfig struct {
	Backend string `mapstructure:"backend"` // "api" (provider communications) or "aws"
	Email   struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	Text struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"text"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// HistoryConfig toggles the Postgres run-history store.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// AuditConfig toggles the Elasticsearch outcome audit sink.
type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
