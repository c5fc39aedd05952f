package config

// Config represents the top-level configuration structure for Sweeprun.
type Config struct {
	Server    Server    `yaml:"server"`
	Runs      Runs      `yaml:"runs"`
	Store     Store     `yaml:"store"`
	Logging   Logging   `yaml:"logging"`
	Retention Retention `yaml:"retention"`
	Sweeps    []Sweep   `yaml:"sweeps"`
}

// Server configuration for the HTTP API.
type Server struct {
	Addr string `yaml:"addr"` // listen address, e.g. ":8080"
}

// Runs configuration for run folder placement.
type Runs struct {
	Root string `yaml:"root"` // parent directory for default run folders
}

// Store configuration for execution history persistence.
type Store struct {
	Driver string `yaml:"driver"` // "bbolt" or "json"
	Path   string `yaml:"path"`   // file path for the store
}

// Logging configuration for the structured logger.
type Logging struct {
	Format string `yaml:"format"` // "json" or "text"
	Level  string `yaml:"level"`  // "debug", "info", "warn", or "error"
	Output string `yaml:"output"` // "stderr", "stdout", "discard", or a file path
}

// Retention bounds how long finished jobs stay in the in-memory registry.
// Disabled by default: without it, jobs are kept until the process exits.
type Retention struct {
	Enabled    bool   `yaml:"enabled"`
	MaxAge     string `yaml:"max_age"`     // e.g. "24h"
	SweepEvery string `yaml:"sweep_every"` // e.g. "10m"
}

// Sweep defines one launchable parameter sweep.
type Sweep struct {
	Name       string            `yaml:"name"`        // unique sweep identifier
	Command    []string          `yaml:"command"`     // step executable and arguments
	Workdir    string            `yaml:"workdir"`     // working directory for the command
	TimeoutSec int               `yaml:"timeout_sec"` // per-invocation timeout
	Env        map[string]string `yaml:"env"`         // extra environment variables
	Workers    int               `yaml:"workers"`     // parallel point invocations
	Outputs    []Output          `yaml:"outputs"`     // outputs the sweep produces
}

// Output declares one output of a sweep.
type Output struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // "array" (one element per point) or "file" (single result)
}
