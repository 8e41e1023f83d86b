package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Scanner  ScannerConfig  `mapstructure:"scanner"`
	SourceA  SourceConfig   `mapstructure:"source_a"`
	SourceB  SourceConfig   `mapstructure:"source_b"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ScannerConfig holds scan loop and detection behavior configuration
type ScannerConfig struct {
	ScanInterval          time.Duration `mapstructure:"scan_interval"`
	RecoveryInterval      time.Duration `mapstructure:"recovery_interval"`
	MinProfitPct          float64       `mapstructure:"min_profit_pct"`
	AlertCooldown         time.Duration `mapstructure:"alert_cooldown"`
	SimilarityThreshold   float64       `mapstructure:"similarity_threshold"`
	DateToleranceDays     int           `mapstructure:"date_tolerance_days"`
	ResolutionHorizonDays int           `mapstructure:"resolution_horizon_days"`
	EventLimit            int           `mapstructure:"event_limit"`
}

// SourceConfig holds configuration for one market data source
type SourceConfig struct {
	Kind           string        `mapstructure:"kind"`
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	APIKey         string        `mapstructure:"api_key"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds scan statistics persistence configuration
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // "file" or "sqlite"
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	// Pick up a local .env if present; ignore when absent
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("ARBSCAN")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Scanner defaults
	v.SetDefault("scanner.scan_interval", "60s")
	v.SetDefault("scanner.recovery_interval", "10s")
	v.SetDefault("scanner.min_profit_pct", 0.5)
	v.SetDefault("scanner.alert_cooldown", "30m")
	v.SetDefault("scanner.similarity_threshold", 0.5)
	v.SetDefault("scanner.date_tolerance_days", 3)
	v.SetDefault("scanner.resolution_horizon_days", 3)
	v.SetDefault("scanner.event_limit", 50)

	// Source defaults
	v.SetDefault("source_a.kind", "polymarket")
	v.SetDefault("source_a.timeout", "10s")
	v.SetDefault("source_a.max_retries", 3)
	v.SetDefault("source_a.retry_delay_base", "1s")
	v.SetDefault("source_b.kind", "manifold")
	v.SetDefault("source_b.timeout", "10s")
	v.SetDefault("source_b.max_retries", 3)
	v.SetDefault("source_b.retry_delay_base", "1s")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Storage defaults
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.path", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Scanner config
	if c.Scanner.ScanInterval < 1*time.Second {
		return fmt.Errorf("scanner.scan_interval must be at least 1 second")
	}
	if c.Scanner.RecoveryInterval < 1*time.Second {
		return fmt.Errorf("scanner.recovery_interval must be at least 1 second")
	}
	if c.Scanner.MinProfitPct < 0 {
		return fmt.Errorf("scanner.min_profit_pct must not be negative")
	}
	if c.Scanner.AlertCooldown < 0 {
		return fmt.Errorf("scanner.alert_cooldown must not be negative")
	}
	if c.Scanner.SimilarityThreshold < 0.0 || c.Scanner.SimilarityThreshold > 1.0 {
		return fmt.Errorf("scanner.similarity_threshold must be between 0.0 and 1.0")
	}
	if c.Scanner.DateToleranceDays < 0 {
		return fmt.Errorf("scanner.date_tolerance_days must not be negative")
	}
	if c.Scanner.ResolutionHorizonDays < 1 {
		return fmt.Errorf("scanner.resolution_horizon_days must be at least 1")
	}
	if c.Scanner.EventLimit < 1 || c.Scanner.EventLimit > 1000 {
		return fmt.Errorf("scanner.event_limit must be between 1 and 1000")
	}

	// Validate source configs
	if err := validateSource("source_a", c.SourceA); err != nil {
		return err
	}
	if err := validateSource("source_b", c.SourceB); err != nil {
		return err
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Storage config
	validBackends := map[string]bool{"file": true, "sqlite": true}
	if !validBackends[c.Storage.Backend] {
		return fmt.Errorf("storage.backend must be one of: file, sqlite")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

func validateSource(name string, s SourceConfig) error {
	validKinds := map[string]bool{"polymarket": true, "manifold": true}
	if !validKinds[s.Kind] {
		return fmt.Errorf("%s.kind must be one of: polymarket, manifold", name)
	}
	if s.Timeout < 1*time.Second {
		return fmt.Errorf("%s.timeout must be at least 1 second", name)
	}
	if s.MaxRetries < 1 {
		return fmt.Errorf("%s.max_retries must be at least 1", name)
	}
	if s.RetryDelayBase < 0 {
		return fmt.Errorf("%s.retry_delay_base must not be negative", name)
	}
	return nil
}
