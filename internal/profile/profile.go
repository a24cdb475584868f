// Package profile loads engine settings from an optional YAML file so a
// deployment can pin worker counts and keep-alive behavior without CLI
// flags on every invocation.
package profile

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile is the on-disk engine configuration. Zero values fall back to
// the built-in defaults.
type Profile struct {
	Workers     int           `yaml:"workers"`
	KeepAlive   time.Duration `yaml:"keep_alive"`
	EventBuffer int           `yaml:"event_buffer"`
	LogLevel    string        `yaml:"log_level"`
	LogFormat   string        `yaml:"log_format"`
}

// Default returns the built-in settings.
func Default() *Profile {
	return &Profile{
		Workers:     4,
		KeepAlive:   10 * time.Second,
		EventBuffer: 64,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// Load reads path and overlays it on the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (*Profile, error) {
	p := Default()
	if path == "" {
		return p, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile %s: %w", path, err)
	}
	// keep_alive is a human-readable duration string; yaml cannot decode
	// those into time.Duration directly.
	var loaded struct {
		Workers     int    `yaml:"workers"`
		KeepAlive   string `yaml:"keep_alive"`
		EventBuffer int    `yaml:"event_buffer"`
		LogLevel    string `yaml:"log_level"`
		LogFormat   string `yaml:"log_format"`
	}
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	if loaded.Workers > 0 {
		p.Workers = loaded.Workers
	}
	if loaded.KeepAlive != "" {
		d, err := time.ParseDuration(loaded.KeepAlive)
		if err != nil {
			return nil, fmt.Errorf("parsing profile %s: keep_alive: %w", path, err)
		}
		p.KeepAlive = d
	}
	if loaded.EventBuffer > 0 {
		p.EventBuffer = loaded.EventBuffer
	}
	if loaded.LogLevel != "" {
		p.LogLevel = loaded.LogLevel
	}
	if loaded.LogFormat != "" {
		p.LogFormat = loaded.LogFormat
	}
	return p, nil
}
