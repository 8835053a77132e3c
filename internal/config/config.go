// Package config handles loading, parsing, and validating the YAML client
// configuration, with environment variable overrides for secrets.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/theplebdev/tmichat/internal/logger"
)

// Config is the full client configuration.
type Config struct {
	// Channel is the chat channel to join, without the # prefix.
	Channel string `yaml:"channel"`

	Auth AuthConfig `yaml:"auth"`

	Helix HelixConfig `yaml:"helix"`

	Logging LoggingConfig `yaml:"logging"`
}

// AuthConfig locates the chat credentials.
type AuthConfig struct {
	// Token is the OAuth token, without the oauth: prefix. Usually supplied
	// via TWITCH_OAUTH_TOKEN rather than the file.
	Token string `yaml:"token"`

	// SecretsFile, when set, points to a JSON file holding the token. The
	// file is re-read periodically so out-of-band refreshes are picked up.
	SecretsFile string `yaml:"secrets_file"`
}

// HelixConfig carries the identifiers for the moderation REST API. All fields
// are optional; moderation commands are disabled when they are empty.
type HelixConfig struct {
	ClientID      string `yaml:"client_id"`
	BroadcasterID string `yaml:"broadcaster_id"`
	ModeratorID   string `yaml:"moderator_id"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Dir     string `yaml:"dir"`
	NoColor bool   `yaml:"no_color"`
}

// Load reads the YAML config file at path, applies defaults, and overlays
// environment variables. A .env file next to the working directory is loaded
// first if present.
func Load(path string) (*Config, error) {
	// Missing .env is fine; real env vars still apply.
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
}

// applyEnvOverrides overlays environment variables. Secrets should come from
// the environment rather than the YAML file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TWITCH_CHANNEL"); v != "" {
		cfg.Channel = v
	}
	if v := os.Getenv("TWITCH_OAUTH_TOKEN"); v != "" {
		cfg.Auth.Token = v
	}
	if v := os.Getenv("TWITCH_SECRETS_FILE"); v != "" {
		cfg.Auth.SecretsFile = v
	}
	if v := os.Getenv("TWITCH_CLIENT_ID"); v != "" {
		cfg.Helix.ClientID = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for problems that would prevent the chat
// client from starting.
func (c *Config) Validate() error {
	var problems []string

	if c.Channel == "" {
		problems = append(problems, "channel is required (config channel: or TWITCH_CHANNEL)")
	}
	if strings.HasPrefix(c.Channel, "#") {
		problems = append(problems, "channel must not include the # prefix")
	}
	if c.Auth.Token == "" && c.Auth.SecretsFile == "" {
		problems = append(problems, "one of auth.token or auth.secrets_file is required")
	}
	if strings.HasPrefix(c.Auth.Token, "oauth:") {
		problems = append(problems, "auth.token must not include the oauth: prefix")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// LogLevel converts the configured level name to a slog level.
func (c *Config) LogLevel() slog.Level {
	return logger.ParseLevel(c.Logging.Level)
}
