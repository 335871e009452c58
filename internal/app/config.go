package app

import (
	"errors"
	"os"
	"path/filepath"
)

// DefaultWorkers is the worker count used when none is configured.
const DefaultWorkers = 10

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ConfigPaths are loader configuration files or directories.
	ConfigPaths []string
	// Root is the directory local module locations resolve against.
	// Defaults to the directory of the first config path.
	Root string
	// Require replaces the configured entry list when not empty.
	Require []string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	Workers         int

	// Plan prints the load order instead of loading.
	Plan bool
	// JournalPath is a SQLite file recording every run. Empty keeps the
	// journal in memory.
	JournalPath string
	// EventsURL is a socket.io server that receives load events.
	EventsURL string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.ConfigPaths) == 0 {
		return nil, errors.New("at least one configuration path is required")
	}
	if cfg.Workers < 0 {
		return nil, errors.New("workers must not be negative")
	}
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Root == "" {
		cfg.Root = rootOf(cfg.ConfigPaths[0])
	}
	return &cfg, nil
}

func rootOf(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}
