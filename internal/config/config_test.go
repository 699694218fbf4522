package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"poll too fast", func(c *Config) { c.Tracker.PollInterval = 100 * time.Millisecond }, true},
		{"poll too slow", func(c *Config) { c.Tracker.PollInterval = 2 * time.Minute }, true},
		{"zero idle threshold", func(c *Config) { c.Tracker.IdleThreshold = 0 }, true},
		{"suspend gap below poll", func(c *Config) {
			c.Tracker.PollInterval = 10 * time.Second
			c.Tracker.SuspendGap = 5 * time.Second
		}, true},
		{"suspend gap disabled", func(c *Config) { c.Tracker.SuspendGap = 0 }, false},
		{"bad devtools port", func(c *Config) { c.Browser.DevToolsPorts = []int{0} }, true},
		{"bad time zone", func(c *Config) { c.Report.TimeZone = "Mars/Olympus" }, true},
		{"utc time zone", func(c *Config) { c.Report.TimeZone = "UTC" }, false},
		{"empty host", func(c *Config) { c.Web.Host = "" }, true},
		{"bad port", func(c *Config) { c.Web.Port = 70000 }, true},
		{"empty pid file", func(c *Config) { c.Daemon.PIDFile = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ACTIVETIME_DB_PATH", "/tmp/test.db")
	t.Setenv("ACTIVETIME_POLL_INTERVAL", "5")
	t.Setenv("ACTIVETIME_IDLE_THRESHOLD", "120")
	t.Setenv("ACTIVETIME_BROWSER_TRACKING", "false")
	t.Setenv("ACTIVETIME_DEVTOOLS_PORTS", "9222, nope, 9229")
	t.Setenv("ACTIVETIME_WEB_PORT", "18080")

	cfg := Default()
	LoadFromEnv(cfg)

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %s", cfg.Database.Path)
	}
	if cfg.Tracker.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", cfg.Tracker.PollInterval)
	}
	if cfg.Tracker.IdleThreshold != 2*time.Minute {
		t.Errorf("IdleThreshold = %v, want 2m", cfg.Tracker.IdleThreshold)
	}
	if cfg.Browser.Enabled {
		t.Error("Browser.Enabled = true, want false")
	}
	if len(cfg.Browser.DevToolsPorts) != 2 || cfg.Browser.DevToolsPorts[1] != 9229 {
		t.Errorf("DevToolsPorts = %v, want [9222 9229]", cfg.Browser.DevToolsPorts)
	}
	if cfg.Web.Port != 18080 {
		t.Errorf("Web.Port = %d, want 18080", cfg.Web.Port)
	}
}

func TestLoadFromEnvIgnoresOutOfRange(t *testing.T) {
	t.Setenv("ACTIVETIME_POLL_INTERVAL", "3600")
	t.Setenv("ACTIVETIME_WEB_PORT", "-1")

	cfg := Default()
	LoadFromEnv(cfg)

	if cfg.Tracker.PollInterval != Default().Tracker.PollInterval {
		t.Errorf("PollInterval = %v, want default", cfg.Tracker.PollInterval)
	}
	if cfg.Web.Port != Default().Web.Port {
		t.Errorf("Web.Port = %d, want default", cfg.Web.Port)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
tracker:
  poll_interval: 2s
  idle_threshold: 10m
browser:
  devtools_ports: [9333]
categories:
  file: /etc/activetime/categories.yaml
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := LoadFile(cfg, path); err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	if cfg.Tracker.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.Tracker.PollInterval)
	}
	if cfg.Tracker.IdleThreshold != 10*time.Minute {
		t.Errorf("IdleThreshold = %v, want 10m", cfg.Tracker.IdleThreshold)
	}
	if len(cfg.Browser.DevToolsPorts) != 1 || cfg.Browser.DevToolsPorts[0] != 9333 {
		t.Errorf("DevToolsPorts = %v", cfg.Browser.DevToolsPorts)
	}
	if cfg.Categories.File != "/etc/activetime/categories.yaml" {
		t.Errorf("Categories.File = %s", cfg.Categories.File)
	}
	// untouched keys keep defaults
	if cfg.Tracker.MinPollInterval != time.Second {
		t.Errorf("MinPollInterval = %v, want 1s", cfg.Tracker.MinPollInterval)
	}
	if !cfg.Browser.Enabled {
		t.Error("Browser.Enabled lost its default")
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg := Default()
	if err := LoadFile(cfg, filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Errorf("LoadFile() on missing file = %v, want nil", err)
	}
}

func TestLoadFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("tracker: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadFile(Default(), path); err == nil {
		t.Error("LoadFile() expected error for invalid YAML")
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Tracker.IdleThreshold = 90 * time.Second

	if err := WriteFile(cfg, path); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	loaded := Default()
	if err := LoadFile(loaded, path); err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if loaded.Tracker.IdleThreshold != 90*time.Second {
		t.Errorf("IdleThreshold = %v, want 1m30s", loaded.Tracker.IdleThreshold)
	}
}

func TestFilePathFromEnv(t *testing.T) {
	t.Setenv("ACTIVETIME_CONFIG", "/custom/config.yaml")
	path, err := FilePath()
	if err != nil {
		t.Fatal(err)
	}
	if path != "/custom/config.yaml" {
		t.Errorf("FilePath() = %s", path)
	}
}

func TestCategoriesPath(t *testing.T) {
	t.Setenv("ACTIVETIME_CONFIG", "/custom/config.yaml")
	cfg := Default()

	path, err := cfg.CategoriesPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != "/custom/categories.yaml" {
		t.Errorf("CategoriesPath() = %s, want /custom/categories.yaml", path)
	}

	cfg.Categories.File = "/elsewhere/cats.yaml"
	if path, _ := cfg.CategoriesPath(); path != "/elsewhere/cats.yaml" {
		t.Errorf("CategoriesPath() = %s, want configured file", path)
	}
}

func TestGoalsPath(t *testing.T) {
	t.Setenv("ACTIVETIME_CONFIG", "/custom/config.yaml")
	cfg := Default()

	if path, err := cfg.GoalsPath(); err != nil || path != "/custom/goals.yaml" {
		t.Errorf("GoalsPath() = %s, %v; want /custom/goals.yaml", path, err)
	}

	t.Setenv("ACTIVETIME_GOALS_FILE", "/elsewhere/limits.yaml")
	cfg = New()
	if path, _ := cfg.GoalsPath(); path != "/elsewhere/limits.yaml" {
		t.Errorf("GoalsPath() = %s, want the ACTIVETIME_GOALS_FILE value", path)
	}
}
