package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Path   string       `yaml:"path"`
		Backup BackupConfig `yaml:"backup"`
	} `yaml:"database"`

	Server struct {
		Port   int    `yaml:"port"`
		APIKey string `yaml:"api_key"`
	} `yaml:"server"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Backend struct {
		BaseURL         string `yaml:"base_url"`
		APIKey          string `yaml:"api_key"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
		PollSeconds     int    `yaml:"poll_seconds"`
	} `yaml:"backend"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Reception struct {
		PaymentTolerance float64 `yaml:"payment_tolerance"`
		MaxExtensionDays int     `yaml:"max_extension_days"`
		MinSuggestPrefix int     `yaml:"min_suggest_prefix"`
		SuggestionLimit  int     `yaml:"suggestion_limit"`
	} `yaml:"reception"`
}

// BackupConfig controls periodic snapshots of the local database.
type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Dir           string `yaml:"dir"`
	IntervalHours int    `yaml:"interval_hours"`
	RetentionDays int    `yaml:"retention_days"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/frontdesk.db"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// PaymentTolerance returns the fully-paid rounding tolerance, defaulting
// to one rupee.
func (c *Config) PaymentTolerance() float64 {
	if c.Reception.PaymentTolerance <= 0 {
		return 1.0
	}
	return c.Reception.PaymentTolerance
}

func (c *Config) PollInterval() time.Duration {
	if c.Backend.PollSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Backend.PollSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Backend.CacheTTLSeconds) * time.Second
}

// ServerPort is the console API listen port.
func (c *Config) ServerPort() int {
	if c.Server.Port <= 0 {
		return 8080
	}
	return c.Server.Port
}

func (c *Config) MinSuggestPrefix() int {
	if c.Reception.MinSuggestPrefix <= 0 {
		return 3
	}
	return c.Reception.MinSuggestPrefix
}
