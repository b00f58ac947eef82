// Package config loads the chatvault configuration: where the contact
// cards and the message archive live, and where exports go.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the chatvault configuration.
type Config struct {
	ContactsDir string      `yaml:"contacts_dir"`
	ChatDB      string      `yaml:"chat_db"`
	ExportPath  string      `yaml:"export_path"`
	Watch       WatchConfig `yaml:"watch,omitempty"`
}

// WatchConfig controls the live re-export mode.
type WatchConfig struct {
	DebounceSeconds int `yaml:"debounce_seconds,omitempty"`
}

// GetConfigDir returns the XDG-compliant config directory.
func GetConfigDir() (string, error) {
	// Explicit override (useful for tests and portable installs)
	if override := os.Getenv("CHATVAULT_CONFIG_DIR"); override != "" {
		return override, nil
	}

	var base string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		base = xdg
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "chatvault"), nil
}

// GetDataDir returns the platform-specific data directory.
func GetDataDir() (string, error) {
	if override := os.Getenv("CHATVAULT_DATA_DIR"); override != "" {
		return override, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "Chatvault"), nil
	}

	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "chatvault"), nil
	}

	return filepath.Join(home, ".local", "share", "chatvault"), nil
}

// Load loads config from the config file, filling platform defaults for
// anything unset. A missing file is not an error.
func Load() (*Config, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}

	var cfg Config
	data, err := os.ReadFile(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.fillDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) fillDefaults() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	if c.ChatDB == "" {
		c.ChatDB = filepath.Join(home, "Library", "Messages", "chat.db")
	}
	if c.ContactsDir == "" {
		// AddressBook keeps one .abcdp card per contact under Sources.
		c.ContactsDir = filepath.Join(home, "Library", "Application Support", "AddressBook", "Sources")
	}
	if c.ExportPath == "" {
		dataDir, err := GetDataDir()
		if err != nil {
			return err
		}
		c.ExportPath = filepath.Join(dataDir, "chatvault.db")
	}
	if c.Watch.DebounceSeconds <= 0 {
		c.Watch.DebounceSeconds = 2
	}
	return nil
}

// Save saves the config to the config file.
func (c *Config) Save() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
