package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DataDir        string `json:"data_dir"`
	LogLevel       string `json:"log_level"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	SkipMalformed  bool   `json:"skip_malformed"`
	Slack          struct {
		Token     string `json:"token"`
		Channel   string `json:"channel"`
		BaseURL   string `json:"base_url"`
		Paginate  bool   `json:"paginate"`
		PageLimit int    `json:"page_limit"`
	} `json:"slack"`
	Esa struct {
		Token   string `json:"token"`
		Team    string `json:"team"`
		BaseURL string `json:"base_url"`
	} `json:"esa"`
	Serve struct {
		Schedule string `json:"schedule"`
		Listen   string `json:"listen"`
	} `json:"serve"`
}

// Default returns the configuration used when no file or env override is set.
func Default() *Config {
	cfg := &Config{
		DataDir:        filepath.Join(os.Getenv("HOME"), ".nikki"),
		LogLevel:       "info",
		TimeoutSeconds: 30,
	}
	cfg.Slack.BaseURL = "https://slack.com/api"
	cfg.Esa.BaseURL = "https://api.esa.io"
	cfg.Serve.Schedule = "0 5 * * *"
	cfg.Serve.Listen = "127.0.0.1:8089"
	return cfg
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration from defaults, the JSON file at path (if it
// exists) and the environment, in increasing precedence. It does not
// validate; call Validate before use.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	// Override from env (highest precedence)
	if v := os.Getenv("SLACK_TOKEN"); v != "" {
		cfg.Slack.Token = v
	}
	if v := os.Getenv("SLACK_CHANNEL"); v != "" {
		cfg.Slack.Channel = v
	}
	if v := os.Getenv("ESA_TOKEN"); v != "" {
		cfg.Esa.Token = v
	}
	if v := os.Getenv("ESA_TEAMNAME"); v != "" {
		cfg.Esa.Team = v
	}
	if v := os.Getenv("NIKKI_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("NIKKI_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("NIKKI_SCHEDULE"); v != "" {
		cfg.Serve.Schedule = v
	}
	if v := os.Getenv("NIKKI_LISTEN"); v != "" {
		cfg.Serve.Listen = v
	}
	if v := os.Getenv("NIKKI_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &ConfigError{Field: "NIKKI_TIMEOUT_SECONDS", Message: "must be an integer"}
		}
		cfg.TimeoutSeconds = n
	}

	return cfg, nil
}

// Validate checks that required credentials are present.
func (c *Config) Validate() error {
	if c.Slack.Token == "" {
		return &ConfigError{Field: "SLACK_TOKEN", Message: "required"}
	}
	if c.Esa.Token == "" {
		return &ConfigError{Field: "ESA_TOKEN", Message: "required"}
	}
	if c.Esa.Team == "" {
		return &ConfigError{Field: "ESA_TEAMNAME", Message: "required"}
	}
	if c.TimeoutSeconds <= 0 {
		return &ConfigError{Field: "timeout_seconds", Message: "must be positive"}
	}
	return nil
}

// Timeout returns the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ListValues returns the configuration as a flat map with dot-separated
// keys, masking secrets when mask is true.
func ListValues(cfg *Config, mask bool) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	flat := Flatten(m)
	if mask {
		flat = MaskSecrets(flat)
	}
	return flat, nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
