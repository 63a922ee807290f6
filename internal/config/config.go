// Package config loads the daemon configuration and exposes resume
// thresholds as live-read values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ResumeThresholds controls when a reported playback position is worth
// keeping as a resume point.
type ResumeThresholds struct {
	// MinResumePct is the minimum percentage of an item that must be played
	// before a position is stored.
	MinResumePct float64 `json:"minResumePct"`
	// MaxResumePct is the percentage after which an item counts as finished.
	MaxResumePct float64 `json:"maxResumePct"`
	// MinResumeDurationSeconds is the minimum runtime an item needs for
	// resuming to apply at all.
	MinResumeDurationSeconds int64 `json:"minResumeDurationSeconds"`
}

// Config is the on-disk daemon configuration.
type Config struct {
	Addr         string           `json:"addr"`
	DatabasePath string           `json:"databasePath"`
	LogLevel     string           `json:"logLevel"`
	TokenTTL     Duration         `json:"tokenTTL"`
	Resume       ResumeThresholds `json:"resume"`
}

// Duration wraps time.Duration with JSON string encoding ("24h", "90s").
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:         ":8096",
		DatabasePath: "playhead.db",
		LogLevel:     "info",
		TokenTTL:     Duration(24 * time.Hour),
		Resume: ResumeThresholds{
			MinResumePct:             5,
			MaxResumePct:             90,
			MinResumeDurationSeconds: 300,
		},
	}
}

// Load reads the configuration file at path, applying defaults for absent
// fields. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects threshold combinations that would make the resume policy
// meaningless.
func (c Config) Validate() error {
	r := c.Resume
	if r.MinResumePct < 0 || r.MinResumePct > 100 {
		return fmt.Errorf("config: minResumePct %v out of range", r.MinResumePct)
	}
	if r.MaxResumePct < 0 || r.MaxResumePct > 100 {
		return fmt.Errorf("config: maxResumePct %v out of range", r.MaxResumePct)
	}
	if r.MinResumePct >= r.MaxResumePct {
		return fmt.Errorf("config: minResumePct %v must be below maxResumePct %v", r.MinResumePct, r.MaxResumePct)
	}
	if r.MinResumeDurationSeconds < 0 {
		return fmt.Errorf("config: minResumeDurationSeconds %d must not be negative", r.MinResumeDurationSeconds)
	}
	return nil
}
