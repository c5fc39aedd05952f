package runs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeLoadableRun lays out a finished run on disk: a 3-element array
// output y holding squares and a file output total holding their sum.
func writeLoadableRun(t *testing.T) string {
	t.Helper()
	runFolder := t.TempDir()

	meta := &Metadata{
		FormatVersion: FormatVersion,
		SweepName:     "square",
		CreatedAt:     time.Now().UTC(),
		Outputs: map[string]OutputDescriptor{
			"y": {
				Kind:          KindArray,
				Shape:         []int{3},
				ShapeResolved: true,
				Location:      filepath.Join("outputs", "y"),
			},
			"total": {
				Kind:     KindFile,
				Location: filepath.Join("outputs", "total.json"),
			},
		},
	}
	if err := WriteMetadata(runFolder, meta); err != nil {
		t.Fatalf("WriteMetadata() error = %v", err)
	}

	dir := filepath.Join(runFolder, "outputs", "y")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for i, body := range []string{`{"value":1}`, `{"value":4}`, `{"value":9}`} {
		if err := os.WriteFile(filepath.Join(dir, ElementFile(i)), []byte(body), 0o644); err != nil {
			t.Fatalf("write element %d: %v", i, err)
		}
	}
	if err := os.WriteFile(filepath.Join(runFolder, "outputs", "total.json"), []byte(`{"value":14}`), 0o644); err != nil {
		t.Fatalf("write total: %v", err)
	}

	return runFolder
}

func TestLoadOutputs_All(t *testing.T) {
	runFolder := writeLoadableRun(t)

	values, err := LoadOutputs(runFolder, nil)
	if err != nil {
		t.Fatalf("LoadOutputs() error = %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("loaded %d outputs, want 2", len(values))
	}

	ys, ok := values["y"].([]any)
	if !ok || len(ys) != 3 {
		t.Fatalf("y = %v, want 3 elements", values["y"])
	}
	if ys[2].(float64) != 9.0 {
		t.Errorf("y[2] = %v, want 9", ys[2])
	}
	if values["total"].(float64) != 14.0 {
		t.Errorf("total = %v, want 14", values["total"])
	}
}

func TestLoadOutputs_Named(t *testing.T) {
	runFolder := writeLoadableRun(t)

	values, err := LoadOutputs(runFolder, []string{"total"})
	if err != nil {
		t.Fatalf("LoadOutputs() error = %v", err)
	}
	if len(values) != 1 {
		t.Fatalf("loaded %d outputs, want only the named one", len(values))
	}
	if values["total"].(float64) != 14.0 {
		t.Errorf("total = %v, want 14", values["total"])
	}
}

func TestLoadOutputs_UnknownName(t *testing.T) {
	runFolder := writeLoadableRun(t)

	if _, err := LoadOutputs(runFolder, []string{"nope"}); err == nil {
		t.Error("LoadOutputs() with an undeclared name should fail")
	}
}

func TestLoadOutputs_MissingElement(t *testing.T) {
	runFolder := writeLoadableRun(t)
	if err := os.Remove(filepath.Join(runFolder, "outputs", "y", ElementFile(1))); err != nil {
		t.Fatalf("remove element: %v", err)
	}

	_, err := LoadOutputs(runFolder, []string{"y"})
	if err == nil {
		t.Fatal("LoadOutputs() on a partially written array should fail")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error = %v, want fs.ErrNotExist in the chain", err)
	}
}

func TestLoadOutputs_UnresolvedShape(t *testing.T) {
	runFolder := t.TempDir()
	meta := &Metadata{
		FormatVersion: FormatVersion,
		CreatedAt:     time.Now().UTC(),
		Outputs: map[string]OutputDescriptor{
			"y": {Kind: KindArray, Location: filepath.Join("outputs", "y")},
		},
	}
	if err := WriteMetadata(runFolder, meta); err != nil {
		t.Fatalf("WriteMetadata() error = %v", err)
	}

	if _, err := LoadOutputs(runFolder, nil); err == nil {
		t.Error("LoadOutputs() with an unresolved shape should fail")
	}
}

func TestLoadOutputs_MissingRunFolder(t *testing.T) {
	if _, err := LoadOutputs(filepath.Join(t.TempDir(), "nope"), nil); err == nil {
		t.Error("LoadOutputs() without a run descriptor should fail")
	}
}
