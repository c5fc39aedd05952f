package runs

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSummarize_AllCompleteIsANDOverOutputs(t *testing.T) {
	runFolder := t.TempDir()
	writeElementFiles(t, filepath.Join(runFolder, "outputs", "done"), 0, 1)
	writeElementFiles(t, filepath.Join(runFolder, "outputs", "partial"), 0)

	meta := &Metadata{
		FormatVersion: FormatVersion,
		CreatedAt:     time.Now().UTC(),
		Outputs: map[string]OutputDescriptor{
			"done": {
				Kind: KindArray, Shape: []int{2}, ShapeResolved: true,
				Location: filepath.Join("outputs", "done"),
			},
			"partial": {
				Kind: KindArray, Shape: []int{2}, ShapeResolved: true,
				Location: filepath.Join("outputs", "partial"),
			},
		},
	}

	summary, err := Summarize(runFolder, meta)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.AllComplete {
		t.Error("AllComplete = true, want false while one output is partial")
	}
	if summary.TotalOutputs != 2 {
		t.Errorf("TotalOutputs = %d, want 2", summary.TotalOutputs)
	}
	if summary.CompletedOutputs != 1 {
		t.Errorf("CompletedOutputs = %d, want 1", summary.CompletedOutputs)
	}
}

func TestSummarize_ZeroOutputsIsVacuouslyComplete(t *testing.T) {
	meta := &Metadata{FormatVersion: FormatVersion, Outputs: map[string]OutputDescriptor{}}

	summary, err := Summarize(t.TempDir(), meta)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !summary.AllComplete {
		t.Error("AllComplete = false, want true for a run with zero outputs")
	}
}

func TestLoadMetadata_RoundTrip(t *testing.T) {
	runFolder := t.TempDir()
	meta := &Metadata{
		FormatVersion: FormatVersion,
		SweepName:     "round-trip",
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
		Outputs: map[string]OutputDescriptor{
			"y": {Kind: KindArray, Shape: []int{3}, ShapeResolved: true, Location: "outputs/y"},
			"s": {Kind: KindFile, Location: "outputs/s.json"},
		},
	}

	if err := WriteMetadata(runFolder, meta); err != nil {
		t.Fatalf("WriteMetadata() error = %v", err)
	}

	got, err := LoadMetadata(runFolder)
	if err != nil {
		t.Fatalf("LoadMetadata() error = %v", err)
	}
	if got.FormatVersion != meta.FormatVersion {
		t.Errorf("FormatVersion = %q, want %q", got.FormatVersion, meta.FormatVersion)
	}
	if got.SweepName != meta.SweepName {
		t.Errorf("SweepName = %q, want %q", got.SweepName, meta.SweepName)
	}
	if len(got.Outputs) != 2 {
		t.Fatalf("got %d outputs, want 2", len(got.Outputs))
	}
	if total, ok := got.Outputs["y"].TotalCount(); !ok || total != 3 {
		t.Errorf("TotalCount() = %d,%v, want 3,true", total, ok)
	}
	if _, ok := got.Outputs["s"].TotalCount(); ok {
		t.Error("TotalCount() resolved for a file output, want false")
	}
}

func TestLoadMetadata_Missing(t *testing.T) {
	if _, err := LoadMetadata(t.TempDir()); err == nil {
		t.Fatal("LoadMetadata() on an empty folder should fail")
	}
}
