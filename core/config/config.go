// Package config loads and validates the shell's YAML configuration.
package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultPath is where the shell looks for its configuration when
// --config is not given.
const DefaultPath = "~/.cybersh.yaml"

type Configuration struct {
	// Banner controls the startup header.
	Banner bool `json:"banner"`

	HistoryFile  string `json:"history_file" validate:"required"`
	HistoryLimit int    `json:"history_limit" validate:"gte=0"`

	// StateFile persists aliases and shell variables across sessions.
	StateFile string `json:"state_file" validate:"required"`

	// EventLog receives one JSON record per executed pipeline.
	// Empty disables the log.
	EventLog string `json:"event_log"`

	// Aliases and Vars seed the in-memory tables at startup.
	Aliases map[string]string `json:"aliases"`
	Vars    map[string]string `json:"vars"`
}

// Default returns the configuration used when no file exists.
func Default() *Configuration {
	return &Configuration{
		Banner:       true,
		HistoryFile:  "~/.cybersh_history",
		HistoryLimit: 1000,
		StateFile:    "~/.cybersh_state",
		EventLog:     "~/.cybersh_events.log",
	}
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// HistoryPath returns HistoryFile with a leading ~ expanded.
func (c *Configuration) HistoryPath() string { return ExpandHome(c.HistoryFile) }

// StatePath returns StateFile with a leading ~ expanded.
func (c *Configuration) StatePath() string { return ExpandHome(c.StateFile) }

// EventLogPath returns EventLog with a leading ~ expanded, or "" when
// the log is disabled.
func (c *Configuration) EventLogPath() string {
	if c.EventLog == "" {
		return ""
	}
	return ExpandHome(c.EventLog)
}

// ExpandHome expands a leading ~ to the user's home directory.
// Paths that do not start with ~ are returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
