package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the main structure mapping the entire application configuration.
// This struct uses mapstructure tags to map YAML/JSON keys to Go struct fields.
type Config struct {
	// Server configuration section containing HTTP server settings
	Server struct {
		Port    int    `mapstructure:"port"`     // HTTP server port (default: 8080)
		BaseURL string `mapstructure:"base_url"` // Base URL of the service, used in generated links
	} `mapstructure:"server"`

	// Database configuration section for SQLite settings
	Database struct {
		Name string `mapstructure:"name"` // SQLite database file name
	} `mapstructure:"database"`

	// Analytics configuration for asynchronous event tracking
	Analytics struct {
		Enabled     bool `mapstructure:"enabled"`      // Whether analytics events are recorded at all
		BufferSize  int  `mapstructure:"buffer_size"`  // Size of the event channel buffer
		WorkerCount int  `mapstructure:"worker_count"` // Number of worker goroutines persisting events
	} `mapstructure:"analytics"`

	// Shortener configuration for optional link shortening of generated codes
	Shortener struct {
		Enabled bool   `mapstructure:"enabled"` // Whether a short id is minted per QR code
		Domain  string `mapstructure:"domain"`  // Prefix for shortened URLs, e.g. "https://qr.example.com/s/"
	} `mapstructure:"shortener"`

	// QR configuration for generation defaults
	QR struct {
		// DefaultExpirationDays sets an expiration on new codes when the
		// request doesn't carry one. 0 means codes never expire by default.
		DefaultExpirationDays int `mapstructure:"default_expiration_days"`
	} `mapstructure:"qr"`

	// Cleanup configuration for the expired-code sweep
	Cleanup struct {
		IntervalMinutes int `mapstructure:"interval_minutes"` // Minutes between expiration sweeps
	} `mapstructure:"cleanup"`
}

// LoadConfig loads the application configuration using Viper.
// It supports environment variable overrides and YAML configuration files.
// Returns a populated Config struct or an error if configuration loading fails.
func LoadConfig() (*Config, error) {
	// Enable automatic environment variable binding so any config value can
	// be overridden via environment variables
	viper.AutomaticEnv()

	// Replace dots with underscores in environment variable names
	// e.g., "shortener.enabled" becomes "SHORTENER_ENABLED"
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Look for config.yaml under ./configs
	viper.AddConfigPath("./configs")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Set default values for all configuration options
	// These are used if no config file is found or if specific keys are missing
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.base_url", "http://localhost:8080")
	viper.SetDefault("database.name", "qrcodes.db")
	viper.SetDefault("analytics.enabled", true)
	viper.SetDefault("analytics.buffer_size", 1000)
	viper.SetDefault("analytics.worker_count", 5)
	viper.SetDefault("shortener.enabled", false)
	viper.SetDefault("shortener.domain", "http://localhost:8080/s/")
	viper.SetDefault("qr.default_expiration_days", 0)
	viper.SetDefault("cleanup.interval_minutes", 60)

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Not fatal - defaults cover every key
			log.Println("Config file not found, using default values")
		} else {
			// Any other error (permissions, malformed YAML, etc.) is fatal
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal the loaded configuration into our strongly-typed struct
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	log.Printf("Configuration loaded: Server Port=%d, DB Name=%s, Analytics Enabled=%t, Shortener Enabled=%t, Cleanup Interval=%dmin",
		cfg.Server.Port, cfg.Database.Name, cfg.Analytics.Enabled, cfg.Shortener.Enabled, cfg.Cleanup.IntervalMinutes)

	return &cfg, nil
}
