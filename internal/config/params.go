// Package config loads optional JSON overrides for the server's runtime
// parameters. Fields omitted from the file keep their built-in defaults, so
// partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joyride-robotics/joyride/internal/watchdog"
)

// ServerConfig is the root of the config file. Every field is optional;
// duration fields are strings like "50ms" or "2.5s".
type ServerConfig struct {
	// Watchdog params
	LoopInterval      *string `json:"loop_interval,omitempty"`
	ResetBackoff      *string `json:"reset_backoff,omitempty"`
	ClientTimeout     *string `json:"client_timeout,omitempty"`
	ControlBrakeAfter *string `json:"control_brake_after,omitempty"`
	ControlStopAfter  *string `json:"control_stop_after,omitempty"`
	BrakeLevel        *int    `json:"brake_level,omitempty"`
	TouchPath         *string `json:"touch_path,omitempty"`
	TouchInterval     *string `json:"touch_interval,omitempty"`
}

// Load reads and validates a config file. The file must have a .json
// extension and stay under 1MB.
func Load(path string) (*ServerConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &ServerConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are parseable and sane.
func (c *ServerConfig) Validate() error {
	durations := map[string]*string{
		"loop_interval":       c.LoopInterval,
		"reset_backoff":       c.ResetBackoff,
		"client_timeout":      c.ClientTimeout,
		"control_brake_after": c.ControlBrakeAfter,
		"control_stop_after":  c.ControlStopAfter,
		"touch_interval":      c.TouchInterval,
	}
	for name, value := range durations {
		if value == nil || *value == "" {
			continue
		}
		d, err := time.ParseDuration(*value)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *value, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, *value)
		}
	}
	if c.BrakeLevel != nil && (*c.BrakeLevel < 1 || *c.BrakeLevel > 100) {
		return fmt.Errorf("brake_level must be between 1 and 100, got %d", *c.BrakeLevel)
	}
	return nil
}

// ApplyWatchdog overlays the configured values onto base and returns the
// result. Validate must have passed; durations parse unchecked here.
func (c *ServerConfig) ApplyWatchdog(base watchdog.Params) watchdog.Params {
	setDuration := func(dst *time.Duration, src *string) {
		if src != nil && *src != "" {
			if d, err := time.ParseDuration(*src); err == nil {
				*dst = d
			}
		}
	}
	setDuration(&base.LoopInterval, c.LoopInterval)
	setDuration(&base.ResetBackoff, c.ResetBackoff)
	setDuration(&base.ClientTimeout, c.ClientTimeout)
	setDuration(&base.ControlBrakeAfter, c.ControlBrakeAfter)
	setDuration(&base.ControlStopAfter, c.ControlStopAfter)
	setDuration(&base.TouchInterval, c.TouchInterval)
	if c.BrakeLevel != nil {
		base.BrakeLevel = *c.BrakeLevel
	}
	if c.TouchPath != nil {
		base.TouchPath = *c.TouchPath
	}
	return base
}
