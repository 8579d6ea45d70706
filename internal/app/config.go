package app

import (
	"os"
	"path/filepath"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	TemplateDirs   []string
	JobDirs        []string
	ConnectorsPath string
	LogFormat      string
	LogLevel       string
}

// ApplyDefaults fills unset directories from the user configuration
// directory, so `taskweave` works out of the box with files under
// ~/.config/taskweave (or the platform equivalent).
func (c *Config) ApplyDefaults() {
	base, err := os.UserConfigDir()
	if err != nil {
		return
	}
	root := filepath.Join(base, "taskweave")
	if len(c.TemplateDirs) == 0 {
		c.TemplateDirs = []string{filepath.Join(root, "templates")}
	}
	if len(c.JobDirs) == 0 {
		c.JobDirs = []string{filepath.Join(root, "jobs")}
	}
	if c.ConnectorsPath == "" {
		c.ConnectorsPath = filepath.Join(root, "connectors.yaml")
	}
}
