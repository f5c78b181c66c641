package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the check-in puller
type Config struct {
	// Foursquare API endpoints and app credentials
	Foursquare FoursquareConfig `yaml:"foursquare" json:"foursquare"`

	// Rate limiting and retry configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Sync engine settings
	Sync SyncConfig `yaml:"sync" json:"sync"`

	// Local database settings
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// FoursquareConfig holds Foursquare-specific configuration
type FoursquareConfig struct {
	ClientID         string `yaml:"client_id" json:"client_id"`
	ClientSecret     string `yaml:"client_secret" json:"client_secret"`
	RedirectURI      string `yaml:"redirect_uri" json:"redirect_uri"`
	ServiceKey       string `yaml:"service_key" json:"service_key"`
	V2BaseURL        string `yaml:"v2_base_url" json:"v2_base_url"`
	PlacesBaseURL    string `yaml:"places_base_url" json:"places_base_url"`
	AuthURL          string `yaml:"auth_url" json:"auth_url"`
	TokenURL         string `yaml:"token_url" json:"token_url"`
	APIVersion       string `yaml:"api_version" json:"api_version"`
	PlacesAPIVersion string `yaml:"places_api_version" json:"places_api_version"`
}

// RateLimitConfig holds throttling and retry configuration
type RateLimitConfig struct {
	// RequestDelay is the minimum delay applied after each successful request
	RequestDelay time.Duration `yaml:"request_delay" json:"request_delay"`
	// RequestsPerMinute switches the throttle to a token bucket when > 0
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	RetryBaseDelay    time.Duration `yaml:"retry_base_delay" json:"retry_base_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoff_multiplier"`
}

// SyncConfig holds sync engine settings
type SyncConfig struct {
	PageSize       int           `yaml:"page_size" json:"page_size"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// DatabaseConfig holds local store settings
type DatabaseConfig struct {
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Foursquare: FoursquareConfig{
			RedirectURI:      "http://localhost:8888/callback",
			V2BaseURL:        "https://api.foursquare.com/v2",
			PlacesBaseURL:    "https://places-api.foursquare.com",
			AuthURL:          "https://foursquare.com/oauth2/authenticate",
			TokenURL:         "https://foursquare.com/oauth2/access_token",
			APIVersion:       "20250617",
			PlacesAPIVersion: "2025-06-17",
		},
		RateLimit: RateLimitConfig{
			RequestDelay:      time.Second,
			RequestsPerMinute: 0,
			MaxRetries:        3,
			RetryBaseDelay:    1500 * time.Millisecond,
			BackoffMultiplier: 1.5,
		},
		Sync: SyncConfig{
			PageSize:       200,
			RequestTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "foursquare.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if clientID := os.Getenv("CLIENT_ID"); clientID != "" {
		c.Foursquare.ClientID = clientID
	}
	if clientSecret := os.Getenv("CLIENT_SECRET"); clientSecret != "" {
		c.Foursquare.ClientSecret = clientSecret
	}
	if serviceKey := os.Getenv("FOURSQUARE_API_KEY"); serviceKey != "" {
		c.Foursquare.ServiceKey = serviceKey
	}
	if redirectURI := os.Getenv("FSQPULL_REDIRECT_URI"); redirectURI != "" {
		c.Foursquare.RedirectURI = redirectURI
	}
	if dbPath := os.Getenv("FSQPULL_DB_PATH"); dbPath != "" {
		c.Database.Path = dbPath
	}
	if pageSize := os.Getenv("FSQPULL_PAGE_SIZE"); pageSize != "" {
		if val, err := strconv.Atoi(pageSize); err == nil && val > 0 {
			c.Sync.PageSize = val
		}
	}
	if maxRetries := os.Getenv("FSQPULL_MAX_RETRIES"); maxRetries != "" {
		if val, err := strconv.Atoi(maxRetries); err == nil && val > 0 {
			c.RateLimit.MaxRetries = val
		}
	}
	if delay := os.Getenv("FSQPULL_REQUEST_DELAY"); delay != "" {
		if val, err := time.ParseDuration(delay); err == nil && val >= 0 {
			c.RateLimit.RequestDelay = val
		}
	}
	if logLevel := os.Getenv("FSQPULL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".fsqpull.yaml",
		".fsqpull.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "fsqpull", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".fsqpull.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if dbPath, ok := flags["db-path"].(string); ok && dbPath != "" {
		c.Database.Path = dbPath
	}
	if serviceKey, ok := flags["service-key"].(string); ok && serviceKey != "" {
		c.Foursquare.ServiceKey = serviceKey
	}
	if pageSize, ok := flags["page-size"].(int); ok && pageSize > 0 {
		c.Sync.PageSize = pageSize
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Foursquare.V2BaseURL == "" {
		errs = append(errs, errors.New("v2 base URL is required"))
	}
	if c.Foursquare.PlacesBaseURL == "" {
		errs = append(errs, errors.New("places base URL is required"))
	}
	if c.RateLimit.RequestDelay < 0 {
		errs = append(errs, errors.New("request delay cannot be negative"))
	}
	if c.RateLimit.MaxRetries <= 0 {
		errs = append(errs, errors.New("max retries must be positive"))
	}
	if c.RateLimit.BackoffMultiplier <= 1 {
		errs = append(errs, errors.New("backoff multiplier must be greater than 1"))
	}
	if c.Sync.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	if c.Sync.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database path is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: command line flags > environment variables > .env file > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".fsqpull.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
