// Package config loads and validates the service configuration from YAML
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Config represents the main configuration structure
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Logging      LoggingConfig      `yaml:"logging"`
	Auth         AuthConfig         `yaml:"auth"`
	Translator   TranslatorConfig   `yaml:"translator"`
	Integrations IntegrationsConfig `yaml:"integrations"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
}

// ServerConfig contains HTTP server specific configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	File   string `yaml:"file"`
}

// UserConfig is a statically provisioned API principal.
type UserConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Email    string `yaml:"email"`
	FullName string `yaml:"full_name"`
	Role     string `yaml:"role"`
	Disabled bool   `yaml:"disabled"`
}

// AuthConfig contains token signing and the static user directory.
type AuthConfig struct {
	Secret             string       `yaml:"secret"`
	TokenExpiryMinutes int          `yaml:"token_expiry_minutes"`
	Users              []UserConfig `yaml:"users"`
}

// TranslatorConfig contains translation engine configuration.
type TranslatorConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// IntegrationsConfig contains the collaborator service endpoints.
type IntegrationsConfig struct {
	IPAMBaseURL string `yaml:"ipam_base_url"`
	CMDBBaseURL string `yaml:"cmdb_base_url"`
}

// RateLimitConfig contains API rate limiting configuration.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8000,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Auth: AuthConfig{
			TokenExpiryMinutes: 30,
		},
		Translator: TranslatorConfig{
			OutputDir: "output",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 100,
			BurstSize:         200,
		},
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadFromEnv loads configuration from environment variables with defaults
func LoadFromEnv() *Config {
	config := DefaultConfig()
	config.applyEnv()
	return config
}

func (c *Config) applyEnv() {
	if port := os.Getenv("LBAAS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if level := os.Getenv("LBAAS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if secret := os.Getenv("LBAAS_AUTH_SECRET"); secret != "" {
		c.Auth.Secret = secret
	}
	if dir := os.Getenv("LBAAS_OUTPUT_DIR"); dir != "" {
		c.Translator.OutputDir = dir
	}
	if u := os.Getenv("LBAAS_IPAM_URL"); u != "" {
		c.Integrations.IPAMBaseURL = u
	}
	if u := os.Getenv("LBAAS_CMDB_URL"); u != "" {
		c.Integrations.CMDBBaseURL = u
	}
}

// Validate validates the configuration for correctness
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret must be set")
	}
	if c.Auth.TokenExpiryMinutes <= 0 {
		return fmt.Errorf("auth.token_expiry_minutes must be positive: %d", c.Auth.TokenExpiryMinutes)
	}

	usernames := make(map[string]bool)
	for i, user := range c.Auth.Users {
		if user.Username == "" {
			return fmt.Errorf("auth.users[%d]: username cannot be empty", i)
		}
		if usernames[user.Username] {
			return fmt.Errorf("auth.users[%d]: duplicate username '%s'", i, user.Username)
		}
		usernames[user.Username] = true

		switch user.Role {
		case "admin", "auditor", "user":
		default:
			return fmt.Errorf("auth.users[%d]: unsupported role '%s'", i, user.Role)
		}
	}

	if c.Translator.OutputDir == "" {
		return fmt.Errorf("translator.output_dir cannot be empty")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limit.requests_per_second must be positive")
		}
		if c.RateLimit.BurstSize <= 0 {
			return fmt.Errorf("rate_limit.burst_size must be positive")
		}
	}

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	validOutputs := map[string]bool{"stdout": true, "stderr": true, "file": true}
	if !validOutputs[c.Logging.Output] {
		return fmt.Errorf("invalid log output: %s", c.Logging.Output)
	}

	return nil
}
