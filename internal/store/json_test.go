package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewJSONStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.json")

	store, err := NewJSONStore(dbPath)
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}
	defer store.Close()

	if store == nil {
		t.Fatal("NewJSONStore() returned nil store")
	}
}

func TestJSONStore_SaveAndGetExecution(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.json")

	store, err := NewJSONStore(dbPath)
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}
	defer store.Close()

	exec := &Execution{
		JobID:       "job-1",
		DisplayName: "lr sweep",
		RunFolder:   "runs/job_job-1",
		StartedAt:   time.Now().Add(-time.Minute),
		EndedAt:     time.Now(),
		Status:      "completed",
	}

	if err := store.SaveExecution(exec); err != nil {
		t.Fatalf("SaveExecution() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("JSON file was not created")
	}

	got, err := store.GetExecution("job-1")
	if err != nil {
		t.Fatalf("GetExecution() error = %v", err)
	}

	if got.JobID != exec.JobID {
		t.Errorf("JobID = %v, want %v", got.JobID, exec.JobID)
	}
	if got.RunFolder != exec.RunFolder {
		t.Errorf("RunFolder = %v, want %v", got.RunFolder, exec.RunFolder)
	}
	if got.Status != exec.Status {
		t.Errorf("Status = %v, want %v", got.Status, exec.Status)
	}
	if got.Duration() <= 0 {
		t.Errorf("Duration() = %v, want positive", got.Duration())
	}
}

func TestJSONStore_Persistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.json")

	store1, err := NewJSONStore(dbPath)
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}

	exec := &Execution{
		JobID:     "persist-test",
		RunFolder: "runs/job_persist-test",
		StartedAt: time.Now(),
		EndedAt:   time.Now(),
		Status:    "cancelled",
	}

	if err := store1.SaveExecution(exec); err != nil {
		t.Fatalf("SaveExecution() error = %v", err)
	}
	store1.Close()

	// Open new store and verify data persisted
	store2, err := NewJSONStore(dbPath)
	if err != nil {
		t.Fatalf("NewJSONStore() second open error = %v", err)
	}
	defer store2.Close()

	got, err := store2.GetExecution("persist-test")
	if err != nil {
		t.Fatalf("GetExecution() after reload error = %v", err)
	}

	if got.Status != "cancelled" {
		t.Error("Data not persisted correctly")
	}
}

func TestJSONStore_SaveExecution_ValidationErrors(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.json")

	store, err := NewJSONStore(dbPath)
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}
	defer store.Close()

	tests := []struct {
		name    string
		exec    *Execution
		wantErr bool
	}{
		{
			name:    "empty JobID",
			exec:    &Execution{Status: "completed"},
			wantErr: true,
		},
		{
			name:    "empty Status",
			exec:    &Execution{JobID: "job-1"},
			wantErr: true,
		},
		{
			name:    "valid",
			exec:    &Execution{JobID: "job-1", Status: "failed", Error: "boom"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.SaveExecution(tt.exec)
			if (err != nil) != tt.wantErr {
				t.Errorf("SaveExecution() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestJSONStore_ListExecutions(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.json")

	store, err := NewJSONStore(dbPath)
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}
	defer store.Close()

	execs := []*Execution{
		{JobID: "job-1", Status: "completed", StartedAt: time.Now().Add(-3 * time.Hour)},
		{JobID: "job-2", Status: "failed", StartedAt: time.Now().Add(-2 * time.Hour)},
		{JobID: "job-3", Status: "completed", StartedAt: time.Now().Add(-1 * time.Hour)},
	}
	for _, exec := range execs {
		if err := store.SaveExecution(exec); err != nil {
			t.Fatalf("SaveExecution() error = %v", err)
		}
	}

	got, err := store.ListExecutions(10)
	if err != nil {
		t.Fatalf("ListExecutions() error = %v", err)
	}
	if len(got) != len(execs) {
		t.Errorf("ListExecutions() returned %d executions, want %d", len(got), len(execs))
	}

	// Verify ordering (newest first)
	if got[0].JobID != "job-3" {
		t.Errorf("ListExecutions()[0] = %s, want the newest job first", got[0].JobID)
	}

	got, err = store.ListExecutions(2)
	if err != nil {
		t.Fatalf("ListExecutions() with limit error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ListExecutions() with limit=2 returned %d executions, want 2", len(got))
	}
}

func TestJSONStore_ListByStatus(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.json")

	store, err := NewJSONStore(dbPath)
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}
	defer store.Close()

	execs := []*Execution{
		{JobID: "job-1", Status: "completed", StartedAt: time.Now().Add(-3 * time.Hour)},
		{JobID: "job-2", Status: "failed", StartedAt: time.Now().Add(-2 * time.Hour)},
		{JobID: "job-3", Status: "completed", StartedAt: time.Now().Add(-1 * time.Hour)},
	}
	for _, exec := range execs {
		if err := store.SaveExecution(exec); err != nil {
			t.Fatalf("SaveExecution() error = %v", err)
		}
	}

	got, err := store.ListByStatus("completed", 10)
	if err != nil {
		t.Fatalf("ListByStatus() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ListByStatus(completed) returned %d executions, want 2", len(got))
	}

	got, err = store.ListByStatus("cancelled", 10)
	if err != nil {
		t.Fatalf("ListByStatus() for unseen status error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListByStatus(cancelled) returned %d executions, want 0", len(got))
	}
}

func TestJSONStore_ConcurrentAccess(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.json")

	store, err := NewJSONStore(dbPath)
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}
	defer store.Close()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			exec := &Execution{
				JobID:     fmt.Sprintf("concurrent-job-%d", id),
				Status:    "completed",
				StartedAt: time.Now(),
			}
			if err := store.SaveExecution(exec); err != nil {
				t.Errorf("SaveExecution() concurrent error = %v", err)
			}
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	execs, err := store.ListExecutions(100)
	if err != nil {
		t.Fatalf("ListExecutions() error = %v", err)
	}
	if len(execs) != 10 {
		t.Errorf("Expected 10 concurrent executions, got %d", len(execs))
	}
}

func TestNewJSONStore_LoadExisting(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.json")

	existingData := `{
  "executions": [
    {
      "job_id": "existing-job",
      "run_folder": "runs/job_existing-job",
      "started_at": "2026-01-01T00:00:00Z",
      "ended_at": "2026-01-01T00:05:00Z",
      "status": "completed"
    }
  ]
}`
	if err := os.WriteFile(dbPath, []byte(existingData), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	store, err := NewJSONStore(dbPath)
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}
	defer store.Close()

	exec, err := store.GetExecution("existing-job")
	if err != nil {
		t.Fatalf("GetExecution() error = %v", err)
	}

	if exec.RunFolder != "runs/job_existing-job" {
		t.Errorf("Loaded RunFolder = %v, want 'runs/job_existing-job'", exec.RunFolder)
	}
}
