package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the agent's effective configuration. Command-line flags take
// precedence over file values.
type Config struct {
	ServerURL string
	Interval  time.Duration
	MachineID string
	StateDir  string
}

// configFile is the YAML shape; the interval is a Go duration string
// ("30s", "5m"). Every field is optional.
type configFile struct {
	ServerURL string `yaml:"server_url"`
	Interval  string `yaml:"interval"`
	MachineID string `yaml:"machine_id"`
	StateDir  string `yaml:"state_dir"`
}

func defaultConfig() *Config {
	return &Config{
		ServerURL: "http://localhost:8080",
		Interval:  30 * time.Second,
		StateDir:  ".",
	}
}

// loadFile overlays values from a YAML file onto the config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var file configFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if file.ServerURL != "" {
		c.ServerURL = file.ServerURL
	}
	if file.Interval != "" {
		d, err := time.ParseDuration(file.Interval)
		if err != nil {
			return fmt.Errorf("parse config interval: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("config interval must be positive, got %s", d)
		}
		c.Interval = d
	}
	if file.MachineID != "" {
		c.MachineID = file.MachineID
	}
	if file.StateDir != "" {
		c.StateDir = file.StateDir
	}
	return nil
}
