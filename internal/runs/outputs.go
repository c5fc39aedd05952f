package runs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// LoadOutputs reads persisted output values from a run folder. names
// selects which outputs to load; with no names every output in the run
// descriptor is loaded. Array outputs come back as a []any with one
// entry per linear position and require every element file to be
// present; file outputs come back as the stored value.
func LoadOutputs(runFolder string, names []string) (map[string]any, error) {
	meta, err := LoadMetadata(runFolder)
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		names = make([]string, 0, len(meta.Outputs))
		for name := range meta.Outputs {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	values := make(map[string]any, len(names))
	for _, name := range names {
		desc, ok := meta.Outputs[name]
		if !ok {
			return nil, fmt.Errorf("run has no output %q", name)
		}
		v, err := loadOutputValue(runFolder, name, desc)
		if err != nil {
			return nil, err
		}
		values[name] = v
	}
	return values, nil
}

func loadOutputValue(runFolder, name string, desc OutputDescriptor) (any, error) {
	switch desc.Kind {
	case KindArray:
		total, ok := desc.TotalCount()
		if !ok {
			return nil, fmt.Errorf("output %s: shape is not resolved", name)
		}
		dir := filepath.Join(runFolder, desc.Location)
		elems := make([]any, total)
		for i := 0; i < total; i++ {
			v, err := readStoredValue(filepath.Join(dir, ElementFile(i)))
			if err != nil {
				return nil, fmt.Errorf("output %s element %d: %w", name, i, err)
			}
			elems[i] = v
		}
		return elems, nil
	case KindFile:
		v, err := readStoredValue(filepath.Join(runFolder, desc.Location))
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", name, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("internal inconsistency: unknown storage kind %q", desc.Kind)
	}
}

// readStoredValue unwraps the {"value": ...} envelope every element and
// file output is stored in.
func readStoredValue(path string) (any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var stored struct {
		Value any `json:"value"`
	}
	if err := json.Unmarshal(b, &stored); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return stored.Value, nil
}
