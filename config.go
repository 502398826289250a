package pulsekit

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pulsekit-dev/pulsekit/pkg/tracker"
)

// fileConfig is the YAML schema for LoadConfig. Durations are strings in
// time.ParseDuration syntax ("5s", "30m").
type fileConfig struct {
	ProjectID      string         `yaml:"project_id"`
	Endpoint       string         `yaml:"endpoint"`
	SampleRate     *float64       `yaml:"sample_rate"`
	Debug          bool           `yaml:"debug"`
	UserProperties map[string]any `yaml:"user_properties"`
	OfflineStorage *bool          `yaml:"offline_storage"`
	BatchSize      int            `yaml:"batch_size"`
	FlushInterval  string         `yaml:"flush_interval"`
	SessionTTL     string         `yaml:"session_ttl"`
	WebVitals      *bool          `yaml:"web_vitals"`
	ErrorTracking  *bool          `yaml:"error_tracking"`
	StorageDir     string         `yaml:"storage_dir"`
	RedisAddr      string         `yaml:"redis_addr"`
	RedisPassword  string         `yaml:"redis_password"`
	Namespace      string         `yaml:"namespace"`
}

// LoadConfig reads a tracker configuration from a YAML file. Fields left
// empty in the file fall back to PULSEKIT_* environment variables, then to
// the built-in defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is caller-supplied config input
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := tracker.Config{
		ProjectID:      fc.ProjectID,
		Endpoint:       fc.Endpoint,
		SampleRate:     fc.SampleRate,
		Debug:          fc.Debug,
		UserProperties: fc.UserProperties,
		OfflineStorage: fc.OfflineStorage,
		BatchSize:      fc.BatchSize,
		WebVitals:      fc.WebVitals,
		ErrorTracking:  fc.ErrorTracking,
		StorageDir:     fc.StorageDir,
		RedisAddr:      fc.RedisAddr,
		RedisPassword:  fc.RedisPassword,
		Namespace:      fc.Namespace,
	}

	if fc.FlushInterval != "" {
		d, err := time.ParseDuration(fc.FlushInterval)
		if err != nil {
			return Config{}, fmt.Errorf("parse flush_interval: %w", err)
		}
		cfg.FlushInterval = d
	}
	if fc.SessionTTL != "" {
		d, err := time.ParseDuration(fc.SessionTTL)
		if err != nil {
			return Config{}, fmt.Errorf("parse session_ttl: %w", err)
		}
		cfg.SessionTTL = d
	}

	if cfg.ProjectID == "" {
		cfg.ProjectID = os.Getenv("PULSEKIT_PROJECT_ID")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = os.Getenv("PULSEKIT_ENDPOINT")
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = os.Getenv("PULSEKIT_REDIS_ADDR")
	}
	if cfg.RedisPassword == "" {
		cfg.RedisPassword = os.Getenv("PULSEKIT_REDIS_PASSWORD")
	}

	return cfg, nil
}
