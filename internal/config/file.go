package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configDir  = ".config/activetime"
	configFile = "config.yaml"
)

// FilePath returns $ACTIVETIME_CONFIG or ~/.config/activetime/config.yaml
func FilePath() (string, error) {
	if path := os.Getenv("ACTIVETIME_CONFIG"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, configDir, configFile), nil
}

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current values. A missing file is not an error.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	return nil
}

// WriteFile writes cfg as YAML, creating the parent directory
func WriteFile(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// CategoriesPath returns the configured categories file or
// categories.yaml next to the config file
func (c *Config) CategoriesPath() (string, error) {
	if c.Categories.File != "" {
		return c.Categories.File, nil
	}
	path, err := FilePath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(path), "categories.yaml"), nil
}

// GoalsPath returns the configured goals file or goals.yaml next to the
// config file
func (c *Config) GoalsPath() (string, error) {
	if c.Goals.File != "" {
		return c.Goals.File, nil
	}
	path, err := FilePath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(path), "goals.yaml"), nil
}
