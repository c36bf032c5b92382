// Package config loads the engine's YAML configuration file and converts it
// into an immutable transportcc.Config snapshot.
package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/alphacc/receiver/internal/transportcc"
)

// AlphaCCConfig is the on-disk configuration shape (spec.md §6,
// "Configuration"), named after the reference algorithm this engine
// implements the receiver side of.
type AlphaCCConfig struct {
	DefaultIntervalMS int64   `yaml:"default_interval_ms"`
	MinIntervalMS     int64   `yaml:"min_interval_ms"`
	MaxIntervalMS     int64   `yaml:"max_interval_ms"`
	BandwidthFraction float64 `yaml:"bandwidth_fraction"`

	BackWindowMS int64 `yaml:"back_window_ms"`

	BWEFeedbackDurationMS    int64 `yaml:"bwe_feedback_duration_ms"`
	TelemetryFlushDurationMS int64 `yaml:"redis_update_duration_ms"`
	TelemetryRetries         int   `yaml:"telemetry_retries"`

	OnnxModelPath string `yaml:"onnx_model_path"`
	RedisIP       string `yaml:"redis_ip"`
	RedisPort     int    `yaml:"redis_port"`
	RedisSID      string `yaml:"redis_sid"`

	TransportSequenceExtensionID uint8 `yaml:"transport_sequence_extension_id"`
	AbsSendTimeExtensionID       uint8 `yaml:"abs_send_time_extension_id"`
}

// maxConfigFileSize caps how large a config file LoadConfig will read, a
// defensive bound carried over from the teacher-adjacent site-config
// loading pattern (tinyrange-cc/cmd/ccapp/site_config.go).
const maxConfigFileSize = 1 << 20

// LoadConfig reads and parses path. A missing file is not an error: it
// returns DefaultAlphaCCConfig(), matching LoadSiteConfig's
// missing-file-returns-defaults behavior rather than failing startup over
// an optional override file.
func LoadConfig(path string) (AlphaCCConfig, error) {
	cfg := DefaultAlphaCCConfig()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: stat %s: %w", path, err)
	}

	if info.Size() > maxConfigFileSize {
		return cfg, fmt.Errorf("config: %s is %d bytes, exceeds %d byte limit", path, info.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// DefaultAlphaCCConfig returns the on-disk defaults matching
// transportcc.DefaultConfig().
func DefaultAlphaCCConfig() AlphaCCConfig {
	d := transportcc.DefaultConfig()
	return AlphaCCConfig{
		DefaultIntervalMS:            d.DefaultIntervalMS,
		MinIntervalMS:                d.MinIntervalMS,
		MaxIntervalMS:                d.MaxIntervalMS,
		BandwidthFraction:            d.BandwidthFraction,
		BackWindowMS:                 d.BackWindowMS,
		BWEFeedbackDurationMS:        d.BWEFeedbackDurationMS,
		TelemetryFlushDurationMS:     d.TelemetryFlushDurationMS,
		TelemetryRetries:             d.TelemetryRetries,
		TransportSequenceExtensionID: d.TransportSequenceExtensionID,
		AbsSendTimeExtensionID:       d.AbsSendTimeExtensionID,
	}
}

// Validate checks the bounds a Proxy assumes hold (spec.md §9's implicit
// config invariants: a sane interval ordering and a positive bandwidth
// fraction).
func (c AlphaCCConfig) Validate() error {
	if c.MinIntervalMS <= 0 || c.MaxIntervalMS <= 0 {
		return fmt.Errorf("config: interval bounds must be positive (min=%d, max=%d)", c.MinIntervalMS, c.MaxIntervalMS)
	}
	if c.MinIntervalMS > c.MaxIntervalMS {
		return fmt.Errorf("config: min_interval_ms (%d) exceeds max_interval_ms (%d)", c.MinIntervalMS, c.MaxIntervalMS)
	}
	if c.DefaultIntervalMS < c.MinIntervalMS || c.DefaultIntervalMS > c.MaxIntervalMS {
		return fmt.Errorf("config: default_interval_ms (%d) out of [min,max] bounds", c.DefaultIntervalMS)
	}
	if c.BandwidthFraction <= 0 || c.BandwidthFraction > 1 {
		return fmt.Errorf("config: bandwidth_fraction must be in (0,1], got %v", c.BandwidthFraction)
	}
	if c.TelemetryRetries < 0 {
		return fmt.Errorf("config: telemetry_retries must be non-negative, got %d", c.TelemetryRetries)
	}
	return nil
}

// Snapshot converts the loaded configuration into the immutable
// transportcc.Config a Proxy captures at construction.
func (c AlphaCCConfig) Snapshot() transportcc.Config {
	return transportcc.Config{
		DefaultIntervalMS:            c.DefaultIntervalMS,
		MinIntervalMS:                c.MinIntervalMS,
		MaxIntervalMS:                c.MaxIntervalMS,
		BandwidthFraction:            c.BandwidthFraction,
		BackWindowMS:                 c.BackWindowMS,
		BWEFeedbackDurationMS:        c.BWEFeedbackDurationMS,
		TelemetryFlushDurationMS:     c.TelemetryFlushDurationMS,
		TelemetryRetries:             c.TelemetryRetries,
		TelemetrySessionID:           c.RedisSID,
		TransportSequenceExtensionID: c.TransportSequenceExtensionID,
		AbsSendTimeExtensionID:       c.AbsSendTimeExtensionID,
	}
}

// LogFields returns a logrus.Fields view of the loaded configuration, for
// a single structured "config loaded" log line at startup.
func (c AlphaCCConfig) LogFields() logrus.Fields {
	return logrus.Fields{
		"default_interval_ms": c.DefaultIntervalMS,
		"min_interval_ms":     c.MinIntervalMS,
		"max_interval_ms":     c.MaxIntervalMS,
		"bandwidth_fraction":  c.BandwidthFraction,
		"back_window_ms":      c.BackWindowMS,
	}
}
