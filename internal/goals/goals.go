// Package goals checks a day's usage against a daily screen time limit and
// per-app limits, and rate-limits the resulting notifications.
package goals

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the YAML goals file
type Settings struct {
	DailyLimit           time.Duration            `yaml:"daily_limit"`
	DailyLimitEnabled    bool                     `yaml:"daily_limit_enabled"`
	AppLimits            map[string]time.Duration `yaml:"app_limits"`
	AppLimitsEnabled     bool                     `yaml:"app_limits_enabled"`
	WarnAt               float64                  `yaml:"warn_at"` // fraction of a limit that triggers a warning
	NotificationsEnabled bool                     `yaml:"notifications_enabled"`
}

func DefaultSettings() Settings {
	return Settings{
		DailyLimit:           8 * time.Hour,
		DailyLimitEnabled:    true,
		AppLimits:            map[string]time.Duration{},
		AppLimitsEnabled:     true,
		WarnAt:               0.8,
		NotificationsEnabled: true,
	}
}

func (s Settings) Validate() error {
	if s.WarnAt <= 0 || s.WarnAt > 1 {
		return fmt.Errorf("warn_at must be in (0, 1], got %v", s.WarnAt)
	}
	if s.DailyLimit < 0 {
		return fmt.Errorf("daily_limit cannot be negative")
	}
	for app, limit := range s.AppLimits {
		if limit < 0 {
			return fmt.Errorf("limit for %s cannot be negative", app)
		}
	}
	return nil
}

// Manager holds the goal settings. It is safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	settings Settings
	path     string
}

// NewManager returns a Manager with the default settings
func NewManager() *Manager {
	return &Manager{settings: DefaultSettings()}
}

// Load reads the goals file at path. Keys missing from the file keep their
// defaults; an empty path or a missing file yields the defaults.
func Load(path string) (*Manager, error) {
	m := NewManager()
	m.path = path
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, nil
		}
		return nil, fmt.Errorf("reading goals %s: %w", path, err)
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing goals %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid goals %s: %w", path, err)
	}

	m.settings = settings
	m.settings.AppLimits = normalize(settings.AppLimits)
	return m, nil
}

// Settings returns a copy of the current settings
func (m *Manager) Settings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.settings
	s.AppLimits = make(map[string]time.Duration, len(m.settings.AppLimits))
	for app, limit := range m.settings.AppLimits {
		s.AppLimits[app] = limit
	}
	return s
}

func (m *Manager) SetDailyLimit(limit time.Duration) error {
	if limit <= 0 {
		return fmt.Errorf("daily limit must be positive")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings.DailyLimit = limit
	m.settings.DailyLimitEnabled = true
	return nil
}

func (m *Manager) SetAppLimit(app string, limit time.Duration) error {
	key := appKey(app)
	if key == "" {
		return fmt.Errorf("empty app name")
	}
	if limit <= 0 {
		return fmt.Errorf("limit for %s must be positive", app)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings.AppLimits == nil {
		m.settings.AppLimits = make(map[string]time.Duration)
	}
	m.settings.AppLimits[key] = limit
	return nil
}

// RemoveAppLimit reports whether app had a limit
func (m *Manager) RemoveAppLimit(app string) bool {
	key := appKey(app)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.settings.AppLimits[key]; !ok {
		return false
	}
	delete(m.settings.AppLimits, key)
	return true
}

// LimitedApps returns the apps with a limit, sorted
func (m *Manager) LimitedApps() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	apps := make([]string, 0, len(m.settings.AppLimits))
	for app := range m.settings.AppLimits {
		apps = append(apps, app)
	}
	sort.Strings(apps)
	return apps
}

// Save writes the settings to the file the Manager was loaded from
func (m *Manager) Save() error {
	if m.path == "" {
		return fmt.Errorf("no goals file configured")
	}

	data, err := yaml.Marshal(m.Settings())
	if err != nil {
		return fmt.Errorf("marshaling goals: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("creating goals directory: %w", err)
	}
	return os.WriteFile(m.path, data, 0644)
}

// appKey matches limits case-insensitively and ignores a .exe suffix
func appKey(app string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(app)), ".exe")
}

func normalize(limits map[string]time.Duration) map[string]time.Duration {
	out := make(map[string]time.Duration, len(limits))
	for app, limit := range limits {
		if key := appKey(app); key != "" {
			out[key] = limit
		}
	}
	return out
}
