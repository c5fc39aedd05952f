package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveConfig writes a Config to a YAML file.
// It performs an atomic write by writing to a temporary file first,
// then renaming it to the target path.
func SaveConfig(cfg *Config, path string) error {
	if err := validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Atomic write: write to temp file, then rename
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// AddSweep adds a new sweep definition to an existing config file.
// If the config file doesn't exist, it creates a new one with defaults.
func AddSweep(configPath string, sweep Sweep) error {
	var cfg *Config
	var err error

	if _, statErr := os.Stat(configPath); statErr == nil {
		cfg, err = LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
	} else {
		cfg = NewDefaultConfig()
	}

	for _, existing := range cfg.Sweeps {
		if existing.Name == sweep.Name {
			return fmt.Errorf("sweep '%s' already exists", sweep.Name)
		}
	}

	cfg.Sweeps = append(cfg.Sweeps, sweep)
	applyDefaults(cfg)

	if err := SaveConfig(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// RemoveSweep removes a sweep definition from the config file by name.
func RemoveSweep(configPath string, name string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	found := false
	kept := make([]Sweep, 0, len(cfg.Sweeps))
	for _, sweep := range cfg.Sweeps {
		if sweep.Name == name {
			found = true
			continue
		}
		kept = append(kept, sweep)
	}

	if !found {
		return fmt.Errorf("sweep '%s' not found", name)
	}

	cfg.Sweeps = kept

	if err := SaveConfig(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// GetSweep retrieves a sweep definition by name from the config file.
func GetSweep(configPath string, name string) (*Sweep, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	for _, sweep := range cfg.Sweeps {
		if sweep.Name == name {
			return &sweep, nil
		}
	}

	return nil, fmt.Errorf("sweep '%s' not found", name)
}

// NewDefaultConfig creates a new Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Server: Server{Addr: ":8080"},
		Runs:   Runs{Root: "./runs"},
		Store: Store{
			Driver: "json",
			Path:   "./.sweeprun.json",
		},
		Logging: Logging{
			Format: "json",
			Level:  "info",
			Output: "stderr",
		},
		Sweeps: []Sweep{},
	}
}
