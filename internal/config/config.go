package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig `yaml:"database"`

	// Tracker configuration
	Tracker TrackerConfig `yaml:"tracker"`

	// Browser tab resolution
	Browser BrowserConfig `yaml:"browser"`

	// App category mapping used by reports
	Categories CategoriesConfig `yaml:"categories"`

	// Daily screen time goal and per-app limits
	Goals GoalsConfig `yaml:"goals"`

	// Daemon configuration
	Daemon DaemonConfig `yaml:"daemon"`

	// Report configuration
	Report ReportConfig `yaml:"report"`

	// Web server configuration
	Web WebConfig `yaml:"web"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string `yaml:"path"` // Path to SQLite database file
}

// TrackerConfig holds tracking behavior configuration
type TrackerConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval"`   // How often to sample the foreground app
	MinPollInterval time.Duration `yaml:"-"`               // Minimum allowed poll interval
	MaxPollInterval time.Duration `yaml:"-"`               // Maximum allowed poll interval
	IdleThreshold   time.Duration `yaml:"idle_threshold"`  // No input for this long counts as idle
	SuspendGap      time.Duration `yaml:"suspend_gap"`     // Sample gap treated as a suspend
	MemoryFallback  bool          `yaml:"memory_fallback"` // Keep tracking in memory if the database is unreadable
}

// BrowserConfig controls how browser tabs are resolved
type BrowserConfig struct {
	Enabled       bool          `yaml:"enabled"`
	DevToolsPorts []int         `yaml:"devtools_ports"` // Chromium remote debugging ports to query for tab URLs
	Timeout       time.Duration `yaml:"timeout"`
}

// CategoriesConfig points at an optional YAML category mapping
type CategoriesConfig struct {
	File string `yaml:"file"`
}

// GoalsConfig points at an optional YAML goals file
type GoalsConfig struct {
	File string `yaml:"file"`
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string `yaml:"pid_file"` // Path to PID file for daemon management
	LogFile string `yaml:"log_file"`
}

// ReportConfig holds report generation configuration
type ReportConfig struct {
	TimeZone string `yaml:"timezone"`
}

// WebConfig holds web server configuration
type WebConfig struct {
	Host string `yaml:"host"` // Host to bind web server to
	Port int    `yaml:"port"` // Port for web server
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "", // Empty means use default ~/.config/activetime/activetime.db
		},
		Tracker: TrackerConfig{
			PollInterval:    1 * time.Second,
			MinPollInterval: 1 * time.Second,
			MaxPollInterval: 60 * time.Second,
			IdleThreshold:   300 * time.Second, // 5 minutes idle threshold
			SuspendGap:      30 * time.Second,
			MemoryFallback:  true,
		},
		Browser: BrowserConfig{
			Enabled:       true,
			DevToolsPorts: []int{9222, 9223},
			Timeout:       300 * time.Millisecond,
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/activetime-%d.pid", os.Getuid()),
			LogFile: fmt.Sprintf("/tmp/activetime-%d.log", os.Getuid()),
		},
		Report: ReportConfig{
			TimeZone: "Local",
		},
		Web: WebConfig{
			Host: "localhost",
			Port: 10000 + os.Getuid()%50000, // Per-user default port
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Tracker.PollInterval < c.Tracker.MinPollInterval {
		return fmt.Errorf("poll interval (%v) cannot be less than minimum (%v)",
			c.Tracker.PollInterval, c.Tracker.MinPollInterval)
	}

	if c.Tracker.PollInterval > c.Tracker.MaxPollInterval {
		return fmt.Errorf("poll interval (%v) cannot be greater than maximum (%v)",
			c.Tracker.PollInterval, c.Tracker.MaxPollInterval)
	}

	if c.Tracker.IdleThreshold <= 0 {
		return fmt.Errorf("idle threshold must be positive")
	}

	if c.Tracker.SuspendGap != 0 && c.Tracker.SuspendGap <= c.Tracker.PollInterval {
		return fmt.Errorf("suspend gap (%v) must be greater than poll interval (%v)",
			c.Tracker.SuspendGap, c.Tracker.PollInterval)
	}

	if c.Browser.Timeout < 0 {
		return fmt.Errorf("browser timeout cannot be negative")
	}

	for _, port := range c.Browser.DevToolsPorts {
		if port < 1 || port > 65535 {
			return fmt.Errorf("devtools port must be between 1 and 65535, got %d", port)
		}
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	return nil
}

// SetPollInterval sets the poll interval with validation
func (c *Config) SetPollInterval(interval time.Duration) error {
	if interval < c.Tracker.MinPollInterval {
		return fmt.Errorf("poll interval cannot be less than %v", c.Tracker.MinPollInterval)
	}
	if interval > c.Tracker.MaxPollInterval {
		return fmt.Errorf("poll interval cannot be greater than %v", c.Tracker.MaxPollInterval)
	}
	c.Tracker.PollInterval = interval
	return nil
}

// SetIdleThreshold sets the idle threshold with validation
func (c *Config) SetIdleThreshold(threshold time.Duration) error {
	if threshold <= 0 {
		return fmt.Errorf("idle threshold must be positive, got %v", threshold)
	}
	c.Tracker.IdleThreshold = threshold
	return nil
}

// SetWebPort sets the web server port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	c.Web.Port = port
	return nil
}

// Location resolves the report time zone; session dates use it too
func (c *Config) Location() (*time.Location, error) {
	if c.Report.TimeZone == "" || c.Report.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Report.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", c.Report.TimeZone, err)
	}
	return loc, nil
}

// WebAddress returns host:port for the web API
func (c *Config) WebAddress() string {
	return fmt.Sprintf("%s:%d", c.Web.Host, c.Web.Port)
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Database:
    Path: %s
  Tracker:
    Poll Interval: %v
    Idle Threshold: %v
    Suspend Gap: %v
    Memory Fallback: %v
  Browser:
    Enabled: %v
    DevTools Ports: %v
  Categories:
    File: %s
  Goals:
    File: %s
  Daemon:
    PID File: %s
    Log File: %s
  Report:
    Time Zone: %s
  Web:
    Host: %s
    Port: %d`,
		c.Database.Path,
		c.Tracker.PollInterval,
		c.Tracker.IdleThreshold,
		c.Tracker.SuspendGap,
		c.Tracker.MemoryFallback,
		c.Browser.Enabled,
		c.Browser.DevToolsPorts,
		c.Categories.File,
		c.Goals.File,
		c.Daemon.PIDFile,
		c.Daemon.LogFile,
		c.Report.TimeZone,
		c.Web.Host,
		c.Web.Port,
	)
}
