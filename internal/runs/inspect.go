package runs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ElementFile returns the element file name for a linear array position.
// Presence of the file is the completion mask: a position is filled iff
// its element file exists.
func ElementFile(index int) string {
	return fmt.Sprintf("%06d.json", index)
}

// InspectOutput reports the completion state and byte footprint of one
// output from persisted state alone.
//
// A concurrently running job may still be writing the output; the result
// is a best-effort snapshot, not a consistency guarantee.
func InspectOutput(runFolder string, desc OutputDescriptor) (OutputProgress, error) {
	switch desc.Kind {
	case KindArray:
		return inspectArray(runFolder, desc)
	case KindFile:
		return inspectFile(runFolder, desc)
	default:
		// A descriptor with an unrecognized kind means the writer and
		// reader disagree about the on-disk contract. Fail loudly.
		return OutputProgress{}, fmt.Errorf("internal inconsistency: unknown storage kind %q", desc.Kind)
	}
}

func inspectArray(runFolder string, desc OutputDescriptor) (OutputProgress, error) {
	dir := filepath.Join(runFolder, desc.Location)

	bytes := dirBytes(dir)

	total, ok := desc.TotalCount()
	if !ok {
		// Shape depends on an upstream step that has not finished;
		// progress cannot be expressed as a fraction yet.
		return OutputProgress{Fraction: nil, Complete: false, Bytes: bytes}, nil
	}
	if total == 0 {
		return complete(1.0, bytes), nil
	}

	filled := 0
	for i := 0; i < total; i++ {
		if _, err := os.Stat(filepath.Join(dir, ElementFile(i))); err == nil {
			filled++
		}
	}

	fraction := float64(filled) / float64(total)
	if filled == total {
		return complete(fraction, bytes), nil
	}
	return OutputProgress{Fraction: &fraction, Complete: false, Bytes: bytes}, nil
}

func inspectFile(runFolder string, desc OutputDescriptor) (OutputProgress, error) {
	path := filepath.Join(runFolder, desc.Location)

	info, err := os.Stat(path)
	if err != nil {
		// Scalar outputs have no partial state: missing means 0.0.
		zero := 0.0
		return OutputProgress{Fraction: &zero, Complete: false, Bytes: 0}, nil
	}
	return complete(1.0, info.Size()), nil
}

func complete(fraction float64, bytes int64) OutputProgress {
	return OutputProgress{Fraction: &fraction, Complete: true, Bytes: bytes}
}

// dirBytes sums the sizes of every regular file under dir, recursively.
// Unreadable entries are skipped; the walk is advisory.
func dirBytes(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}
