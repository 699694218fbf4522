// Package category maps app names to productivity categories for reports.
package category

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type Category string

const (
	Productive    Category = "productive"
	Entertainment Category = "entertainment"
	Neutral       Category = "neutral"
	Social        Category = "social"
	Uncategorized Category = "uncategorized"
)

// order is the match order; the first category with a matching pattern wins
var order = []Category{Productive, Entertainment, Neutral, Social, Uncategorized}

// Weight is the category's contribution to the productivity score
func (c Category) Weight() float64 {
	switch c {
	case Productive:
		return 1.0
	case Neutral:
		return 0.5
	case Entertainment:
		return -0.3
	case Social:
		return -0.2
	default:
		return 0
	}
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range order {
		if c == known {
			return true
		}
	}
	return false
}

func Defaults() map[Category][]string {
	return map[Category][]string{
		Productive: {"code", "visual studio", "pycharm", "intellij", "vscode", "excel", "word",
			"powerpoint", "outlook", "teams", "slack", "github", "terminal", "cmd",
			"sublime", "atom", "webstorm", "rider", "clion", "datagrip", "goland",
			"alacritty", "kitty", "konsole", "foot", "libreoffice"},
		Entertainment: {"spotify", "netflix", "youtube", "prime", "vlc", "steam", "epic",
			"twitch", "discord", "reddit", "hulu", "disneyplus", "hbo"},
		Neutral: {"chrome", "firefox", "edge", "safari", "brave", "explorer", "finder",
			"notepad", "calculator", "file", "task", "photoshop", "nautilus", "dolphin"},
		Social: {"messenger", "telegram", "signal", "skype", "zoom", "whatsapp", "snapchat",
			"instagram", "facebook", "twitter"},
		Uncategorized: {"python"},
	}
}

// Manager holds the pattern lists. It is safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	patterns map[Category][]string
	path     string
}

// NewManager returns a Manager with the default patterns
func NewManager() *Manager {
	return &Manager{patterns: Defaults()}
}

// Load reads a YAML mapping of category to patterns from path. Categories
// missing from the file keep their defaults. An empty path or a missing
// file yields the defaults.
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
		return nil, fmt.Errorf("reading categories %s: %w", path, err)
	}

	var file map[Category][]string
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing categories %s: %w", path, err)
	}

	for cat, patterns := range file {
		if !cat.Valid() {
			return nil, fmt.Errorf("unknown category %q in %s", cat, path)
		}
		m.patterns[cat] = normalize(patterns)
	}
	return m, nil
}

// CategoryOf returns the first category whose pattern is a substring of the
// lowercased app name with any .exe suffix removed
func (m *Manager) CategoryOf(appName string) Category {
	app := cleanName(appName)
	if app == "" {
		return Uncategorized
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, cat := range order {
		for _, pattern := range m.patterns[cat] {
			if pattern != "" && strings.Contains(app, pattern) {
				return cat
			}
		}
	}
	return Uncategorized
}

// Set moves appName's pattern into cat
func (m *Manager) Set(appName string, cat Category) error {
	if !cat.Valid() {
		return fmt.Errorf("unknown category %q", cat)
	}
	pattern := cleanName(appName)
	if pattern == "" {
		return fmt.Errorf("empty app name")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for c, patterns := range m.patterns {
		m.patterns[c] = remove(patterns, pattern)
	}
	m.patterns[cat] = append([]string{pattern}, m.patterns[cat]...)
	return nil
}

// Patterns returns a copy of the pattern lists
func (m *Manager) Patterns() map[Category][]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[Category][]string, len(m.patterns))
	for cat, patterns := range m.patterns {
		out[cat] = append([]string(nil), patterns...)
	}
	return out
}

// Categories lists the known categories in match order
func Categories() []Category {
	return append([]Category(nil), order...)
}

// Save writes the patterns to the file the Manager was loaded from
func (m *Manager) Save() error {
	if m.path == "" {
		return fmt.Errorf("no categories file configured")
	}

	patterns := m.Patterns()
	for _, list := range patterns {
		sort.Strings(list)
	}

	data, err := yaml.Marshal(patterns)
	if err != nil {
		return fmt.Errorf("marshaling categories: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("creating categories directory: %w", err)
	}
	return os.WriteFile(m.path, data, 0644)
}

func cleanName(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToLower(name), ".exe", ""))
}

func normalize(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func remove(patterns []string, pattern string) []string {
	out := patterns[:0]
	for _, p := range patterns {
		if p != pattern {
			out = append(out, p)
		}
	}
	return out
}
