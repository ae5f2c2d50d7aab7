package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SLACK_TOKEN", "SLACK_CHANNEL", "ESA_TOKEN", "ESA_TEAMNAME",
		"NIKKI_LOG_LEVEL", "NIKKI_DATA_DIR", "NIKKI_SCHEDULE", "NIKKI_LISTEN", "NIKKI_TIMEOUT_SECONDS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected log level info, got %s", cfg.LogLevel)
	}
	if cfg.Timeout().Seconds() != 30 {
		t.Errorf("expected 30s timeout, got %v", cfg.Timeout())
	}
	if cfg.Slack.BaseURL != "https://slack.com/api" || cfg.Esa.BaseURL != "https://api.esa.io" {
		t.Errorf("unexpected base URLs %s %s", cfg.Slack.BaseURL, cfg.Esa.BaseURL)
	}
	if cfg.Serve.Schedule != "0 5 * * *" {
		t.Errorf("unexpected default schedule %q", cfg.Serve.Schedule)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"log_level":"debug","slack":{"token":"file-token","channel":"C1","paginate":true},"esa":{"team":"file-team"}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SLACK_TOKEN", "env-token")
	t.Setenv("ESA_TOKEN", "esa-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug from file, got %s", cfg.LogLevel)
	}
	if cfg.Slack.Token != "env-token" {
		t.Errorf("expected env to override file token, got %s", cfg.Slack.Token)
	}
	if cfg.Slack.Channel != "C1" || !cfg.Slack.Paginate {
		t.Errorf("expected file values kept, got channel=%s paginate=%v", cfg.Slack.Channel, cfg.Slack.Paginate)
	}
	if cfg.Esa.Team != "file-team" || cfg.Esa.Token != "esa-env" {
		t.Errorf("unexpected esa config %+v", cfg.Esa)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_InvalidTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("NIKKI_TIMEOUT_SECONDS", "soon")
	_, err := Load("")
	var ce *ConfigError
	if !errors.As(err, &ce) || ce.Field != "NIKKI_TIMEOUT_SECONDS" {
		t.Errorf("expected ConfigError for timeout, got %v", err)
	}
}

func TestValidate_MissingFields(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Config)
		field string
	}{
		{"slack token", func(c *Config) {}, "SLACK_TOKEN"},
		{"esa token", func(c *Config) { c.Slack.Token = "s" }, "ESA_TOKEN"},
		{"esa team", func(c *Config) { c.Slack.Token = "s"; c.Esa.Token = "e" }, "ESA_TEAMNAME"},
		{"timeout", func(c *Config) { c.Slack.Token = "s"; c.Esa.Token = "e"; c.Esa.Team = "t"; c.TimeoutSeconds = 0 }, "timeout_seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.setup(cfg)
			err := cfg.Validate()
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if ce.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, ce.Field)
			}
			if err.Error() != tt.field+": "+ce.Message {
				t.Errorf("unexpected message %q", err.Error())
			}
		})
	}
}

func TestListValues_Masked(t *testing.T) {
	cfg := Default()
	cfg.Slack.Token = "xoxb-abcdef"
	cfg.Esa.Team = "docs"

	values, err := ListValues(cfg, true)
	if err != nil {
		t.Fatal(err)
	}
	if values["slack.token"] != "***cdef" {
		t.Errorf("expected masked token, got %v", values["slack.token"])
	}
	if values["esa.team"] != "docs" {
		t.Errorf("expected esa.team=docs, got %v", values["esa.team"])
	}
	if values["serve.schedule"] != "0 5 * * *" {
		t.Errorf("expected serve.schedule, got %v", values["serve.schedule"])
	}

	raw, err := ListValues(cfg, false)
	if err != nil {
		t.Fatal(err)
	}
	if raw["slack.token"] != "xoxb-abcdef" {
		t.Errorf("expected unmasked token, got %v", raw["slack.token"])
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ESA_TEAMNAME=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("ESA_TEAMNAME") })

	os.Unsetenv("ESA_TEAMNAME")
	if err := LoadEnvFile(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("ESA_TEAMNAME"); got != "from-dotenv" {
		t.Errorf("expected from-dotenv, got %q", got)
	}

	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("expected missing file to be ignored, got %v", err)
	}
}
