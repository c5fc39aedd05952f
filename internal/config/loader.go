package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads and validates a Sweeprun configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Runs.Root == "" {
		cfg.Runs.Root = "./runs"
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "bbolt"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "./.sweeprun.db"
	}

	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	if cfg.Retention.Enabled {
		if cfg.Retention.MaxAge == "" {
			cfg.Retention.MaxAge = "24h"
		}
		if cfg.Retention.SweepEvery == "" {
			cfg.Retention.SweepEvery = "10m"
		}
	}

	// Sweep-level defaults
	for i := range cfg.Sweeps {
		sweep := &cfg.Sweeps[i]
		if sweep.TimeoutSec == 0 {
			sweep.TimeoutSec = 600 // 10 minutes default
		}
		if sweep.Workdir == "" {
			sweep.Workdir = "."
		}
		if sweep.Workers == 0 {
			sweep.Workers = 4
		}
		if sweep.Env == nil {
			sweep.Env = make(map[string]string)
		}
	}
}

// validate checks the configuration for errors and inconsistencies.
func validate(cfg *Config) error {
	validDrivers := map[string]bool{
		"bbolt": true,
		"json":  true,
	}
	if !validDrivers[cfg.Store.Driver] {
		return fmt.Errorf("invalid store driver: %s (must be 'bbolt' or 'json')", cfg.Store.Driver)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s (must be 'json' or 'text')", cfg.Logging.Format)
	}

	if cfg.Retention.Enabled {
		if _, err := cfg.Retention.MaxAgeDuration(); err != nil {
			return fmt.Errorf("retention.max_age: %w", err)
		}
		if _, err := cfg.Retention.SweepEveryDuration(); err != nil {
			return fmt.Errorf("retention.sweep_every: %w", err)
		}
	}

	if len(cfg.Sweeps) == 0 {
		return fmt.Errorf("no sweeps defined in configuration")
	}

	names := make(map[string]bool)
	for i, sweep := range cfg.Sweeps {
		if sweep.Name == "" {
			return fmt.Errorf("sweep at index %d is missing a name", i)
		}
		if names[sweep.Name] {
			return fmt.Errorf("duplicate sweep name: %s", sweep.Name)
		}
		names[sweep.Name] = true

		if len(sweep.Command) == 0 {
			return fmt.Errorf("sweep %s is missing a command", sweep.Name)
		}
		if sweep.TimeoutSec < 0 {
			return fmt.Errorf("sweep %s has negative timeout_sec", sweep.Name)
		}
		if sweep.Workers < 1 {
			return fmt.Errorf("sweep %s must have at least one worker", sweep.Name)
		}

		if len(sweep.Outputs) == 0 {
			return fmt.Errorf("sweep %s declares no outputs", sweep.Name)
		}
		outputNames := make(map[string]bool)
		for _, out := range sweep.Outputs {
			if out.Name == "" {
				return fmt.Errorf("sweep %s has an output without a name", sweep.Name)
			}
			if outputNames[out.Name] {
				return fmt.Errorf("sweep %s has duplicate output: %s", sweep.Name, out.Name)
			}
			outputNames[out.Name] = true

			if out.Kind != "array" && out.Kind != "file" {
				return fmt.Errorf("sweep %s output %s has invalid kind: %s (must be 'array' or 'file')",
					sweep.Name, out.Name, out.Kind)
			}
		}
	}

	return nil
}

// MaxAgeDuration parses the retention max age.
func (r Retention) MaxAgeDuration() (time.Duration, error) {
	return parsePositiveDuration(r.MaxAge)
}

// SweepEveryDuration parses the retention sweep interval.
func (r Retention) SweepEveryDuration() (time.Duration, error) {
	return parsePositiveDuration(r.SweepEvery)
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", d)
	}
	return d, nil
}
