package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantError bool
		validate  func(*testing.T, *Config)
	}{
		{
			name: "valid minimal config",
			yaml: `
server:
  addr: ":9090"

store:
  driver: "bbolt"
  path: "./.sweeprun.db"

sweeps:
  - name: "lr-sweep"
    command: ["/usr/bin/train", "--json"]
    outputs:
      - name: "loss"
        kind: "array"
`,
			wantError: false,
			validate: func(t *testing.T, cfg *Config) {
				if len(cfg.Sweeps) != 1 {
					t.Errorf("expected 1 sweep, got %d", len(cfg.Sweeps))
				}
				if cfg.Sweeps[0].Name != "lr-sweep" {
					t.Errorf("expected sweep name 'lr-sweep', got %s", cfg.Sweeps[0].Name)
				}
				if cfg.Server.Addr != ":9090" {
					t.Errorf("expected addr :9090 (as set in config), got %s", cfg.Server.Addr)
				}
			},
		},
		{
			name: "config with defaults applied",
			yaml: `
sweeps:
  - name: "lr-sweep"
    command: ["/usr/bin/train"]
    outputs:
      - name: "loss"
        kind: "array"
`,
			wantError: false,
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Server.Addr != ":8080" {
					t.Errorf("expected default addr :8080, got %s", cfg.Server.Addr)
				}
				if cfg.Runs.Root != "./runs" {
					t.Errorf("expected default runs root ./runs, got %s", cfg.Runs.Root)
				}
				if cfg.Store.Driver != "bbolt" {
					t.Errorf("expected default store driver bbolt, got %s", cfg.Store.Driver)
				}
				if cfg.Logging.Format != "json" {
					t.Errorf("expected default logging format json, got %s", cfg.Logging.Format)
				}
				sweep := cfg.Sweeps[0]
				if sweep.TimeoutSec != 600 {
					t.Errorf("expected default timeout 600, got %d", sweep.TimeoutSec)
				}
				if sweep.Workdir != "." {
					t.Errorf("expected default workdir '.', got %s", sweep.Workdir)
				}
				if sweep.Workers != 4 {
					t.Errorf("expected default workers 4, got %d", sweep.Workers)
				}
				if sweep.Env == nil {
					t.Error("expected env map to be initialized")
				}
			},
		},
		{
			name: "no sweeps defined",
			yaml: `
store:
  driver: "json"
  path: "./x.json"
`,
			wantError: true,
		},
		{
			name: "missing sweep name",
			yaml: `
sweeps:
  - command: ["/usr/bin/train"]
    outputs:
      - name: "loss"
        kind: "array"
`,
			wantError: true,
		},
		{
			name: "duplicate sweep names",
			yaml: `
sweeps:
  - name: "a"
    command: ["/bin/a"]
    outputs:
      - {name: "y", kind: "array"}
  - name: "a"
    command: ["/bin/b"]
    outputs:
      - {name: "y", kind: "array"}
`,
			wantError: true,
		},
		{
			name: "missing command",
			yaml: `
sweeps:
  - name: "a"
    outputs:
      - {name: "y", kind: "array"}
`,
			wantError: true,
		},
		{
			name: "invalid store driver",
			yaml: `
store:
  driver: "postgres"
  path: "./x"

sweeps:
  - name: "a"
    command: ["/bin/a"]
    outputs:
      - {name: "y", kind: "array"}
`,
			wantError: true,
		},
		{
			name: "invalid output kind",
			yaml: `
sweeps:
  - name: "a"
    command: ["/bin/a"]
    outputs:
      - {name: "y", kind: "scalar"}
`,
			wantError: true,
		},
		{
			name: "duplicate output names",
			yaml: `
sweeps:
  - name: "a"
    command: ["/bin/a"]
    outputs:
      - {name: "y", kind: "array"}
      - {name: "y", kind: "file"}
`,
			wantError: true,
		},
		{
			name: "no outputs",
			yaml: `
sweeps:
  - name: "a"
    command: ["/bin/a"]
    outputs: []
`,
			wantError: true,
		},
		{
			name: "negative timeout",
			yaml: `
sweeps:
  - name: "a"
    command: ["/bin/a"]
    timeout_sec: -5
    outputs:
      - {name: "y", kind: "array"}
`,
			wantError: true,
		},
		{
			name: "invalid retention duration",
			yaml: `
retention:
  enabled: true
  max_age: "yesterday"

sweeps:
  - name: "a"
    command: ["/bin/a"]
    outputs:
      - {name: "y", kind: "array"}
`,
			wantError: true,
		},
		{
			name: "retention defaults when enabled",
			yaml: `
retention:
  enabled: true

sweeps:
  - name: "a"
    command: ["/bin/a"]
    outputs:
      - {name: "y", kind: "array"}
`,
			wantError: false,
			validate: func(t *testing.T, cfg *Config) {
				maxAge, err := cfg.Retention.MaxAgeDuration()
				if err != nil {
					t.Fatalf("MaxAgeDuration() error = %v", err)
				}
				if maxAge != 24*time.Hour {
					t.Errorf("default max age = %v, want 24h", maxAge)
				}
				every, err := cfg.Retention.SweepEveryDuration()
				if err != nil {
					t.Fatalf("SweepEveryDuration() error = %v", err)
				}
				if every != 10*time.Minute {
					t.Errorf("default sweep interval = %v, want 10m", every)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			cfg, err := LoadConfig(path)
			if (err != nil) != tt.wantError {
				t.Fatalf("LoadConfig() error = %v, wantError %v", err, tt.wantError)
			}
			if err == nil && tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadConfig() on a missing file should fail")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := NewDefaultConfig()
	cfg.Sweeps = []Sweep{
		{
			Name:    "grid",
			Command: []string{"/usr/bin/simulate", "--stdin"},
			Outputs: []Output{
				{Name: "energy", Kind: "array"},
				{Name: "summary", Kind: "file"},
			},
		},
	}
	applyDefaults(cfg)

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() after save error = %v", err)
	}
	if len(loaded.Sweeps) != 1 || loaded.Sweeps[0].Name != "grid" {
		t.Errorf("round-tripped sweeps = %+v, want the saved sweep", loaded.Sweeps)
	}
	if len(loaded.Sweeps[0].Outputs) != 2 {
		t.Errorf("round-tripped outputs = %d, want 2", len(loaded.Sweeps[0].Outputs))
	}
}

func TestAddAndRemoveSweep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	sweep := Sweep{
		Name:    "first",
		Command: []string{"/bin/run"},
		Outputs: []Output{{Name: "y", Kind: "array"}},
	}
	if err := AddSweep(path, sweep); err != nil {
		t.Fatalf("AddSweep() on fresh file error = %v", err)
	}

	if err := AddSweep(path, sweep); err == nil {
		t.Error("AddSweep() with duplicate name should fail")
	}

	second := sweep
	second.Name = "second"
	if err := AddSweep(path, second); err != nil {
		t.Fatalf("AddSweep() second sweep error = %v", err)
	}

	got, err := GetSweep(path, "second")
	if err != nil {
		t.Fatalf("GetSweep() error = %v", err)
	}
	if got.Name != "second" {
		t.Errorf("GetSweep() = %s, want second", got.Name)
	}

	if err := RemoveSweep(path, "second"); err != nil {
		t.Fatalf("RemoveSweep() error = %v", err)
	}
	if _, err := GetSweep(path, "second"); err == nil {
		t.Error("GetSweep() after removal should fail")
	}

	if err := RemoveSweep(path, "nope"); err == nil {
		t.Error("RemoveSweep() for unknown sweep should fail")
	}
}
