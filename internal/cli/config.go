package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds optional file-based defaults for the CLI. Flags always win
// over file values.
type Config struct {
	// Database is the path to the checkpoint SQLite database.
	Database string `yaml:"database"`

	// ActiveLimit caps the active listing (0 = subsystem default).
	ActiveLimit int `yaml:"active_limit"`

	// HistoryLimit caps the history listing (0 = subsystem default).
	HistoryLimit int `yaml:"history_limit"`
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
