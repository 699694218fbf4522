package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFromEnv loads configuration from environment variables
// Environment variables override file and default values
func LoadFromEnv(cfg *Config) {
	if dbPath := os.Getenv("ACTIVETIME_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	if pollInterval := os.Getenv("ACTIVETIME_POLL_INTERVAL"); pollInterval != "" {
		if seconds, err := strconv.Atoi(pollInterval); err == nil && seconds > 0 {
			interval := time.Duration(seconds) * time.Second
			if interval >= cfg.Tracker.MinPollInterval && interval <= cfg.Tracker.MaxPollInterval {
				cfg.Tracker.PollInterval = interval
			}
		}
	}

	if idleThreshold := os.Getenv("ACTIVETIME_IDLE_THRESHOLD"); idleThreshold != "" {
		if seconds, err := strconv.Atoi(idleThreshold); err == nil && seconds > 0 {
			cfg.Tracker.IdleThreshold = time.Duration(seconds) * time.Second
		}
	}

	if suspendGap := os.Getenv("ACTIVETIME_SUSPEND_GAP"); suspendGap != "" {
		if seconds, err := strconv.Atoi(suspendGap); err == nil && seconds >= 0 {
			cfg.Tracker.SuspendGap = time.Duration(seconds) * time.Second
		}
	}

	if browser := os.Getenv("ACTIVETIME_BROWSER_TRACKING"); browser != "" {
		if val, err := strconv.ParseBool(browser); err == nil {
			cfg.Browser.Enabled = val
		}
	}

	if ports := os.Getenv("ACTIVETIME_DEVTOOLS_PORTS"); ports != "" {
		var parsed []int
		for _, field := range strings.Split(ports, ",") {
			port, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil || port < 1 || port > 65535 {
				log.Printf("Ignoring invalid devtools port %q", field)
				continue
			}
			parsed = append(parsed, port)
		}
		cfg.Browser.DevToolsPorts = parsed
	}

	if categories := os.Getenv("ACTIVETIME_CATEGORIES_FILE"); categories != "" {
		cfg.Categories.File = categories
	}

	if goals := os.Getenv("ACTIVETIME_GOALS_FILE"); goals != "" {
		cfg.Goals.File = goals
	}

	if pidFile := os.Getenv("ACTIVETIME_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	if logFile := os.Getenv("ACTIVETIME_LOG_FILE"); logFile != "" {
		cfg.Daemon.LogFile = logFile
	}

	if timeZone := os.Getenv("ACTIVETIME_TIMEZONE"); timeZone != "" {
		cfg.Report.TimeZone = timeZone
	}

	if webHost := os.Getenv("ACTIVETIME_WEB_HOST"); webHost != "" {
		cfg.Web.Host = webHost
	}

	if webPort := os.Getenv("ACTIVETIME_WEB_PORT"); webPort != "" {
		if port, err := strconv.Atoi(webPort); err == nil && port > 0 && port <= 65535 {
			cfg.Web.Port = port
		}
	}
}

// New creates a Config from defaults, the config file if present, and the
// environment. A broken config file is logged and skipped.
func New() *Config {
	cfg := Default()

	path, err := FilePath()
	if err == nil {
		if err := LoadFile(cfg, path); err != nil {
			log.Printf("Ignoring config file: %v", err)
		}
	}

	LoadFromEnv(cfg)
	return cfg
}
