package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	GuardDriverPostgres = "postgres"
	GuardDriverRedis    = "redis"
	GuardDriverMemory   = "memory"

	DeliveryDriverSES = "ses"
	DeliveryDriverLog = "log"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// storage
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	RedisHost      string `toml:"redis_host"`
	RedisPort      string `toml:"redis_port"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// idempotency guard
	GuardDriver string   `toml:"guard_driver"`
	GuardLease  Duration `toml:"guard_lease"`

	// sweep
	SweepSchedule string `toml:"sweep_schedule"`
	SweepTimezone string `toml:"sweep_timezone"`
	SweepWorkers  int    `toml:"sweep_workers"`

	// the scheduler only runs in the service process with this set
	SchedulerEnabled bool     `toml:"scheduler_enabled"`
	SweepTimeout     Duration `toml:"sweep_timeout"`

	// delivery
	DeliveryDriver     string  `toml:"delivery_driver"`
	DeliveryRatePerSec float64 `toml:"delivery_rate_per_sec"`
	DeliveryRetryMax   int     `toml:"delivery_retry_max"`
	EmailSender        string  `toml:"email_sender"`
	SESRegion          string  `toml:"ses_region"`
	BaseURL            string  `toml:"base_url"`

	// templates
	TemplateCacheMB int `toml:"template_cache_mb"`

	// http api
	ProgressRateLimitPerMin int      `toml:"progress_rate_limit_per_min"`
	CorsAllowedOrigins      []string `toml:"cors_allowed_origins"`
}

// Duration decodes TOML strings like "30m" into a time.Duration.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path, picks the section for env and fills in defaults.
func Load(env, path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(env, string(content))
}

func Parse(env, content string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(content, &t); err != nil {
		return nil, fmt.Errorf("decode toml config: %w", err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.GuardDriver == "" {
		c.GuardDriver = GuardDriverPostgres
	}
	if c.GuardLease.Duration == 0 {
		c.GuardLease.Duration = 30 * time.Minute
	}
	if c.SweepSchedule == "" {
		c.SweepSchedule = "0 6 * * *"
	}
	if c.SweepTimezone == "" {
		c.SweepTimezone = "UTC"
	}
	if c.SweepWorkers <= 0 {
		c.SweepWorkers = 4
	}
	if c.SweepTimeout.Duration == 0 {
		c.SweepTimeout.Duration = time.Hour
	}
	if c.DeliveryDriver == "" {
		c.DeliveryDriver = DeliveryDriverLog
	}
	if c.DeliveryRatePerSec <= 0 {
		c.DeliveryRatePerSec = 10
	}
	if c.DeliveryRetryMax < 0 {
		c.DeliveryRetryMax = 0
	}
	if c.TemplateCacheMB <= 0 {
		c.TemplateCacheMB = 4
	}
	if c.ProgressRateLimitPerMin <= 0 {
		c.ProgressRateLimitPerMin = 120
	}
}

func (c *Config) Validate() error {
	switch c.GuardDriver {
	case GuardDriverPostgres, GuardDriverRedis, GuardDriverMemory:
	default:
		return fmt.Errorf("unknown guard driver: %s", c.GuardDriver)
	}
	switch c.DeliveryDriver {
	case DeliveryDriverSES, DeliveryDriverLog:
	default:
		return fmt.Errorf("unknown delivery driver: %s", c.DeliveryDriver)
	}
	if c.DeliveryDriver == DeliveryDriverSES && (c.EmailSender == "" || c.SESRegion == "") {
		return errors.New("ses delivery needs email_sender and ses_region")
	}
	if _, err := time.LoadLocation(c.SweepTimezone); err != nil {
		return fmt.Errorf("sweep timezone: %w", err)
	}
	return nil
}

// SweepLocation is the timezone in which "today" is evaluated for scheduled sweeps.
func (c *Config) SweepLocation() *time.Location {
	loc, err := time.LoadLocation(c.SweepTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
