package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Enrich    EnrichConfig    `mapstructure:"enrich"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres or sqlite
	URL             string        `mapstructure:"url"`
	Path            string        `mapstructure:"path"` // sqlite file path
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// ProviderConfig configures the external scrape provider (BrightData-style
// async snapshot API).
type ProviderConfig struct {
	APIToken           string `mapstructure:"api_token"`
	DatasetID          string `mapstructure:"dataset_id"`
	BaseURL            string `mapstructure:"base_url"`
	UseMock            bool   `mapstructure:"use_mock"`
	PollIntervalSecs   int    `mapstructure:"poll_interval_seconds"`
	RunDeadlineSecs    int    `mapstructure:"run_deadline_seconds"`
	TriggerTimeoutSecs int    `mapstructure:"trigger_timeout_seconds"`
}

// EnrichConfig configures the LLM enrichment service and its retry policy.
type EnrichConfig struct {
	Model           string `mapstructure:"model"`
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	RetryDelayHours int    `mapstructure:"retry_delay_hours"`
	BatchLimit      int    `mapstructure:"batch_limit"`
}

type LifecycleConfig struct {
	InactivityThresholdDays int `mapstructure:"inactivity_threshold_days"`
	StuckRunMaxMinutes      int `mapstructure:"stuck_run_max_minutes"`
}

// ArchiveConfig configures the optional raw-snapshot archive on
// S3-compatible object storage. Disabled when the bucket is empty.
type ArchiveConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type SchedulerConfig struct {
	ScrapeSpec    string `mapstructure:"scrape_spec"`
	LifecycleSpec string `mapstructure:"lifecycle_spec"`
	EnrichSpec    string `mapstructure:"enrich_spec"`
	RankSpec      string `mapstructure:"rank_spec"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/jobpulse.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("provider.base_url", "https://api.brightdata.com/datasets/v3")
	v.SetDefault("provider.use_mock", false)
	v.SetDefault("provider.poll_interval_seconds", 10)
	v.SetDefault("provider.run_deadline_seconds", 1800)
	v.SetDefault("provider.trigger_timeout_seconds", 30)
	v.SetDefault("enrich.model", "gpt-4o-mini")
	v.SetDefault("enrich.base_url", "https://api.openai.com/v1")
	v.SetDefault("enrich.retry_delay_hours", 24)
	v.SetDefault("enrich.batch_limit", 50)
	v.SetDefault("lifecycle.inactivity_threshold_days", 14)
	v.SetDefault("lifecycle.stuck_run_max_minutes", 30)
	v.SetDefault("archive.region", "auto")
	v.SetDefault("archive.use_ssl", true)
	v.SetDefault("scheduler.scrape_spec", "@every 1h")
	v.SetDefault("scheduler.lifecycle_spec", "@every 6h")
	v.SetDefault("scheduler.enrich_spec", "@every 15m")
	v.SetDefault("scheduler.rank_spec", "@every 30m")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("provider.api_token", "BRIGHTDATA_API_TOKEN")
	v.BindEnv("provider.dataset_id", "BRIGHTDATA_DATASET_ID")
	v.BindEnv("provider.use_mock", "USE_MOCK_PROVIDER")
	v.BindEnv("enrich.api_key", "OPENAI_API_KEY")
	v.BindEnv("enrich.base_url", "OPENAI_BASE_URL")
	v.BindEnv("archive.endpoint", "ARCHIVE_ENDPOINT")
	v.BindEnv("archive.access_key", "ARCHIVE_ACCESS_KEY")
	v.BindEnv("archive.secret_key", "ARCHIVE_SECRET_KEY")
	v.BindEnv("archive.bucket", "ARCHIVE_BUCKET")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// DSN returns the database connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return c.URL
	}
	return c.Path
}

// PollInterval returns the provider status poll interval as a duration.
func (c *ProviderConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSecs) * time.Second
}

// RunDeadline returns the total wait-for-completion deadline as a duration.
func (c *ProviderConfig) RunDeadline() time.Duration {
	return time.Duration(c.RunDeadlineSecs) * time.Second
}

// TriggerTimeout returns the trigger request deadline as a duration.
func (c *ProviderConfig) TriggerTimeout() time.Duration {
	return time.Duration(c.TriggerTimeoutSecs) * time.Second
}

// RetryDelay returns the enrichment retry delay as a duration.
func (c *EnrichConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayHours) * time.Hour
}
