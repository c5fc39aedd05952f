// Package runs reads the persisted footprint of sweep runs: the run
// descriptor, per-output storage state, and whole-folder scans. Everything
// here works on disk artifacts alone; no live job is required.
package runs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MetadataFile is the well-known descriptor name inside every run folder.
const MetadataFile = "run.json"

// FormatVersion is written into new run descriptors.
const FormatVersion = "1"

// OutputKind tags how an output is persisted.
//
// NOTE: These values appear in run.json and are part of the stable
// on-disk contract.
type OutputKind string

const (
	// KindArray is an output with one element file per linear position.
	KindArray OutputKind = "array"
	// KindFile is a scalar output persisted as a single file.
	KindFile OutputKind = "file"
)

// OutputDescriptor describes where and how one output is stored.
type OutputDescriptor struct {
	Kind OutputKind `json:"kind"`
	// Shape holds the array dimensions. Meaningful only when Kind is
	// "array" and ShapeResolved is true.
	Shape []int `json:"shape,omitempty"`
	// ShapeResolved is false while the output's size still depends on a
	// not-yet-computed upstream step.
	ShapeResolved bool `json:"shape_resolved,omitempty"`
	// Location is the storage path relative to the run folder: a
	// directory for array outputs, a file for scalar outputs.
	Location string `json:"location"`
}

// TotalCount returns the number of array positions, or false when the
// shape is not resolved.
func (d OutputDescriptor) TotalCount() (int, bool) {
	if d.Kind != KindArray || !d.ShapeResolved {
		return 0, false
	}
	total := 1
	for _, dim := range d.Shape {
		total *= dim
	}
	return total, true
}

// Metadata is the persisted run descriptor. It is written once by the
// execution engine when a run starts and treated as read-only afterwards.
type Metadata struct {
	FormatVersion string                      `json:"format_version"`
	SweepName     string                      `json:"sweep_name,omitempty"`
	CreatedAt     time.Time                   `json:"created_at"`
	Outputs       map[string]OutputDescriptor `json:"outputs"`
}

// MetadataPath returns the descriptor location for a run folder.
func MetadataPath(runFolder string) string {
	return filepath.Join(runFolder, MetadataFile)
}

// LoadMetadata reads and parses the run descriptor of a run folder.
func LoadMetadata(runFolder string) (*Metadata, error) {
	path := MetadataPath(runFolder)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run metadata: %w", err)
	}

	if strings.TrimSpace(string(b)) == "" {
		return nil, fmt.Errorf("run metadata %s is empty", path)
	}

	var meta Metadata
	if err := json.Unmarshal(b, &meta); err != nil {
		return nil, fmt.Errorf("parse run metadata %s: %w", path, err)
	}
	if meta.Outputs == nil {
		meta.Outputs = map[string]OutputDescriptor{}
	}
	return &meta, nil
}

// WriteMetadata persists a run descriptor atomically (temp file + rename).
// Only the execution engine calls this; the inspection path never writes.
func WriteMetadata(runFolder string, meta *Metadata) error {
	if meta == nil {
		return fmt.Errorf("run metadata is nil")
	}
	if err := os.MkdirAll(runFolder, 0o755); err != nil {
		return fmt.Errorf("create run folder: %w", err)
	}

	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run metadata: %w", err)
	}
	b = append(b, '\n')

	tmpPath := MetadataPath(runFolder) + ".tmp"
	if err := os.WriteFile(tmpPath, b, 0o644); err != nil {
		return fmt.Errorf("write temp metadata: %w", err)
	}
	if err := os.Rename(tmpPath, MetadataPath(runFolder)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename metadata: %w", err)
	}
	return nil
}
