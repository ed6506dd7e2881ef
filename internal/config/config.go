package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported database.type values.
const (
	DatabasePostgres = "postgres"
	DatabaseSQLite   = "sqlite"
	DatabaseCSV      = "csv"
	DatabaseMemory   = "memory"
)

// Supported recommendations.source values.
const (
	RecommendationsTable  = "table"
	RecommendationsStatic = "static"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port                   string `yaml:"port"`
		ReadTimeoutSeconds     int    `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds    int    `yaml:"write_timeout_seconds"`
		ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // "console" or "json"
	} `yaml:"log"`
	Database struct {
		Type string `yaml:"type"`
		URL  string `yaml:"url"`  // PostgreSQL DSN
		Path string `yaml:"path"` // SQLite file or CSV export
	} `yaml:"database"`
	Analysis struct {
		MoodThreshold       int `yaml:"mood_threshold"`
		LookbackDays        int `yaml:"lookback_days"`
		TrendWindow         int `yaml:"trend_window"`
		FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds"`
	} `yaml:"analysis"`
	Recommendations struct {
		Source          string `yaml:"source"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"recommendations"`
	Auth struct {
		Enabled   bool   `yaml:"enabled"`
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Crypto struct {
		MasterKey string `yaml:"master_key"` // base64, 32 bytes; empty disables comment encryption
	} `yaml:"crypto"`
	Notifier struct {
		Enabled          bool   `yaml:"enabled"`
		TelegramBotToken string `yaml:"telegram_bot_token"`
		ChatID           int64  `yaml:"chat_id"`
	} `yaml:"notifier"`
	Sweeper struct {
		Enabled         bool `yaml:"enabled"`
		IntervalSeconds int  `yaml:"interval_seconds"`
	} `yaml:"sweeper"`
}

// LoadConfig reads configuration from the specified YAML file and fills in defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyDefaults()

	// Secrets usually come from the environment
	config.Database.URL = os.ExpandEnv(config.Database.URL)
	config.Auth.JWTSecret = os.ExpandEnv(config.Auth.JWTSecret)
	config.Crypto.MasterKey = os.ExpandEnv(config.Crypto.MasterKey)
	config.Notifier.TelegramBotToken = os.ExpandEnv(config.Notifier.TelegramBotToken)

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 30
	}
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = 10
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}

	if c.Database.Type == "" {
		c.Database.Type = DatabaseSQLite
	}
	c.Database.Type = strings.ToLower(c.Database.Type)
	if c.Database.Path == "" {
		switch c.Database.Type {
		case DatabaseCSV:
			c.Database.Path = "./data/entries.csv"
		default:
			c.Database.Path = "./data/moodwatch.db"
		}
	}

	if c.Analysis.MoodThreshold == 0 {
		c.Analysis.MoodThreshold = 3
	}
	if c.Analysis.LookbackDays == 0 {
		c.Analysis.LookbackDays = 30
	}
	if c.Analysis.TrendWindow == 0 {
		c.Analysis.TrendWindow = 3
	}
	if c.Analysis.FetchTimeoutSeconds == 0 {
		c.Analysis.FetchTimeoutSeconds = 10
	}

	if c.Recommendations.Source == "" {
		c.Recommendations.Source = RecommendationsTable
	}
	if c.Recommendations.CacheTTLSeconds == 0 {
		c.Recommendations.CacheTTLSeconds = 300
	}

	if c.Sweeper.IntervalSeconds == 0 {
		c.Sweeper.IntervalSeconds = 300
	}
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var problems []string

	switch c.Database.Type {
	case DatabasePostgres:
		if c.Database.URL == "" {
			problems = append(problems, "database.url is required for postgres")
		}
	case DatabaseSQLite, DatabaseCSV, DatabaseMemory:
	default:
		problems = append(problems, fmt.Sprintf("unknown database.type %q", c.Database.Type))
	}

	if c.Analysis.MoodThreshold < 1 || c.Analysis.MoodThreshold > 10 {
		problems = append(problems, "analysis.mood_threshold must be between 1 and 10")
	}
	if c.Analysis.LookbackDays <= 0 {
		problems = append(problems, "analysis.lookback_days must be positive")
	}
	if c.Analysis.TrendWindow <= 0 {
		problems = append(problems, "analysis.trend_window must be positive")
	}
	if c.Analysis.FetchTimeoutSeconds <= 0 {
		problems = append(problems, "analysis.fetch_timeout_seconds must be positive")
	}

	switch c.Recommendations.Source {
	case RecommendationsTable, RecommendationsStatic:
	default:
		problems = append(problems, fmt.Sprintf("unknown recommendations.source %q", c.Recommendations.Source))
	}
	if c.Recommendations.CacheTTLSeconds < 0 {
		problems = append(problems, "recommendations.cache_ttl_seconds must not be negative")
	}

	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		problems = append(problems, "auth.jwt_secret is required when auth is enabled")
	}
	if c.Notifier.Enabled && (c.Notifier.TelegramBotToken == "" || c.Notifier.ChatID == 0) {
		problems = append(problems, "notifier.telegram_bot_token and notifier.chat_id are required when the notifier is enabled")
	}
	if c.Sweeper.Enabled && c.Sweeper.IntervalSeconds <= 0 {
		problems = append(problems, "sweeper.interval_seconds must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Analysis.FetchTimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Recommendations.CacheTTLSeconds) * time.Second
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Sweeper.IntervalSeconds) * time.Second
}
