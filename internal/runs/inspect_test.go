package runs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeElementFiles(t *testing.T, dir string, indices ...int) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for _, i := range indices {
		path := filepath.Join(dir, ElementFile(i))
		if err := os.WriteFile(path, []byte(`{"value":1}`), 0o644); err != nil {
			t.Fatalf("write element %d: %v", i, err)
		}
	}
}

func TestInspectOutput_ArrayProgress(t *testing.T) {
	tests := []struct {
		name         string
		total        int
		filled       []int
		wantFraction float64
		wantComplete bool
	}{
		{"empty array", 5, nil, 0.0, false},
		{"partially filled", 5, []int{0, 2}, 0.4, false},
		{"fully filled", 5, []int{0, 1, 2, 3, 4}, 1.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runFolder := t.TempDir()
			writeElementFiles(t, filepath.Join(runFolder, "outputs", "y"), tt.filled...)

			desc := OutputDescriptor{
				Kind:          KindArray,
				Shape:         []int{tt.total},
				ShapeResolved: true,
				Location:      filepath.Join("outputs", "y"),
			}

			got, err := InspectOutput(runFolder, desc)
			if err != nil {
				t.Fatalf("InspectOutput() error = %v", err)
			}
			if got.Fraction == nil {
				t.Fatal("Fraction is nil, want known value")
			}
			if *got.Fraction != tt.wantFraction {
				t.Errorf("Fraction = %v, want %v", *got.Fraction, tt.wantFraction)
			}
			if got.Complete != tt.wantComplete {
				t.Errorf("Complete = %v, want %v", got.Complete, tt.wantComplete)
			}
		})
	}
}

func TestInspectOutput_ArrayMultiDimensional(t *testing.T) {
	runFolder := t.TempDir()
	// 2x3 array: six linear positions, all filled.
	writeElementFiles(t, filepath.Join(runFolder, "outputs", "grid"), 0, 1, 2, 3, 4, 5)

	desc := OutputDescriptor{
		Kind:          KindArray,
		Shape:         []int{2, 3},
		ShapeResolved: true,
		Location:      filepath.Join("outputs", "grid"),
	}

	got, err := InspectOutput(runFolder, desc)
	if err != nil {
		t.Fatalf("InspectOutput() error = %v", err)
	}
	if !got.Complete {
		t.Error("Complete = false, want true for a fully filled 2x3 array")
	}
}

func TestInspectOutput_ArrayUnresolvedShape(t *testing.T) {
	runFolder := t.TempDir()
	writeElementFiles(t, filepath.Join(runFolder, "outputs", "z"), 0, 1)

	desc := OutputDescriptor{
		Kind:     KindArray,
		Location: filepath.Join("outputs", "z"),
		// ShapeResolved left false: size depends on an unfinished step.
	}

	got, err := InspectOutput(runFolder, desc)
	if err != nil {
		t.Fatalf("InspectOutput() error = %v", err)
	}
	if got.Fraction != nil {
		t.Errorf("Fraction = %v, want nil for unresolved shape", *got.Fraction)
	}
	if got.Complete {
		t.Error("Complete = true, want false for unresolved shape")
	}
	if got.Bytes == 0 {
		t.Error("Bytes = 0, want byte footprint of existing element files")
	}
}

func TestInspectOutput_ArrayBytes(t *testing.T) {
	runFolder := t.TempDir()
	dir := filepath.Join(runFolder, "outputs", "y")
	// Nested files count too: byte size is a recursive sum.
	writeElementFiles(t, dir, 0)
	nested := filepath.Join(dir, "chunks")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "part"), []byte("0123456789"), 0o644); err != nil {
		t.Fatal(err)
	}

	desc := OutputDescriptor{
		Kind:          KindArray,
		Shape:         []int{1},
		ShapeResolved: true,
		Location:      filepath.Join("outputs", "y"),
	}

	got, err := InspectOutput(runFolder, desc)
	if err != nil {
		t.Fatalf("InspectOutput() error = %v", err)
	}
	elemSize := int64(len(`{"value":1}`))
	if got.Bytes != elemSize+10 {
		t.Errorf("Bytes = %d, want %d", got.Bytes, elemSize+10)
	}
}

func TestInspectOutput_File(t *testing.T) {
	runFolder := t.TempDir()
	path := filepath.Join(runFolder, "outputs", "summary.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	desc := OutputDescriptor{Kind: KindFile, Location: filepath.Join("outputs", "summary.json")}

	// Missing: no partial state for scalar outputs.
	got, err := InspectOutput(runFolder, desc)
	if err != nil {
		t.Fatalf("InspectOutput() error = %v", err)
	}
	if got.Fraction == nil || *got.Fraction != 0.0 || got.Complete || got.Bytes != 0 {
		t.Errorf("missing file: got %+v, want fraction 0.0, incomplete, 0 bytes", got)
	}

	if err := os.WriteFile(path, []byte("abcde"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err = InspectOutput(runFolder, desc)
	if err != nil {
		t.Fatalf("InspectOutput() error = %v", err)
	}
	if got.Fraction == nil || *got.Fraction != 1.0 || !got.Complete {
		t.Errorf("existing file: got %+v, want fraction 1.0 and complete", got)
	}
	if got.Bytes != 5 {
		t.Errorf("Bytes = %d, want 5", got.Bytes)
	}
}

func TestInspectOutput_UnknownKind(t *testing.T) {
	desc := OutputDescriptor{Kind: "blob", Location: "outputs/x"}

	_, err := InspectOutput(t.TempDir(), desc)
	if err == nil {
		t.Fatal("InspectOutput() with unknown kind should fail loudly")
	}
}
