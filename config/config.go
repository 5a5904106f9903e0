// Package config loads the assistant's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// AgentConfig tunes the reply composer.
type AgentConfig struct {
	WarningDays     int `yaml:"warning_days,omitempty"`     // days ahead an expiry counts as upcoming
	ResponseHistory int `yaml:"response_history,omitempty"` // replies kept for repeat detection
}

// SpeechConfig selects the external text-to-speech command.
type SpeechConfig struct {
	Enabled bool     `yaml:"enabled,omitempty"`
	Command string   `yaml:"command,omitempty"` // e.g. espeak-ng, say
	Args    []string `yaml:"args,omitempty"`    // passed before the text
}

// RemindersConfig controls the document reminder daemon.
type RemindersConfig struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	Schedule string `yaml:"schedule,omitempty"` // cron expression or duration, e.g. "@every 1m", "15m"
	Hour     *int   `yaml:"hour,omitempty"`     // local hour reminders fire at
}

// NotificationsConfig sets the desktop notification text.
type NotificationsConfig struct {
	Title string `yaml:"title,omitempty"`
}

// Config is the full configuration file.
type Config struct {
	DBPath        string              `yaml:"db_path,omitempty"`
	HistoryLimit  int                 `yaml:"history_limit,omitempty"`
	Agent         AgentConfig         `yaml:"agent,omitempty"`
	Speech        SpeechConfig        `yaml:"speech,omitempty"`
	Reminders     RemindersConfig     `yaml:"reminders,omitempty"`
	Notifications NotificationsConfig `yaml:"notifications,omitempty"`
}

// Defaults returns the configuration used when no file overrides it.
func Defaults() Config {
	hour := 9
	return Config{
		DBPath:       "autocare.db",
		HistoryLimit: 100,
		Agent: AgentConfig{
			WarningDays:     30,
			ResponseHistory: 5,
		},
		Speech: SpeechConfig{
			Command: "espeak-ng",
			Args:    []string{"-v", "es"},
		},
		Reminders: RemindersConfig{
			Schedule: "@every 1m",
			Hour:     &hour,
		},
		Notifications: NotificationsConfig{
			Title: "Vencimiento de documento",
		},
	}
}

// GetConfigPath returns the config file path.
// Can be overridden via AUTOCARE_CONFIG_PATH environment variable.
func GetConfigPath() string {
	if envPath := os.Getenv("AUTOCARE_CONFIG_PATH"); envPath != "" {
		return expandPath(envPath)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.autocare/config.yaml"
	}
	return filepath.Join(homeDir, ".autocare", "config.yaml")
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// Load reads the config file at path and merges it onto Defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	defaults := Defaults()

	expandedPath := expandPath(path)
	if _, err := os.Stat(expandedPath); err != nil {
		return &defaults, nil
	}

	data, err := os.ReadFile(expandedPath) //#nosec 304 -- intentional file read for config
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", expandedPath, err)
	}
	return Parse(data, defaults)
}

// Parse merges YAML data onto base. Zero values in data keep base's value,
// so booleans can only be switched on from the file.
func Parse(data []byte, base Config) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := mergo.Merge(&base, cfg, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}
	// mergo skips a zero pointee, so midnight has to be applied by hand
	if cfg.Reminders.Hour != nil {
		base.Reminders.Hour = cfg.Reminders.Hour
	}
	base.DBPath = expandPath(base.DBPath)
	return &base, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(cfg *Config, path string) error {
	expandedPath := expandPath(path)

	if err := os.MkdirAll(filepath.Dir(expandedPath), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(expandedPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ReminderHour returns the configured hour, falling back to 9.
func (c *Config) ReminderHour() int {
	if c.Reminders.Hour == nil {
		return 9
	}
	return *c.Reminders.Hour
}
