package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// JSONStore implements the Store interface using a simple JSON file.
// All executions are kept in memory and persisted to disk on each write.
// This implementation is suitable for small-scale deployments and testing.
type JSONStore struct {
	path  string
	execs map[string]*Execution // indexed by job_id
	mu    sync.RWMutex
}

// jsonPersistence is the on-disk format for the JSON store.
type jsonPersistence struct {
	Executions []*Execution `json:"executions"`
}

// NewJSONStore creates a new JSON file-backed store at the given path.
func NewJSONStore(path string) (Store, error) {
	s := &JSONStore{
		path:  path,
		execs: make(map[string]*Execution),
	}

	// Load existing data if file exists
	if _, err := os.Stat(path); err == nil {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("load existing data: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	return s, nil
}

// load reads the JSON file and populates the in-memory map.
func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var persist jsonPersistence
	if err := json.Unmarshal(data, &persist); err != nil {
		return fmt.Errorf("unmarshal json: %w", err)
	}

	s.execs = make(map[string]*Execution, len(persist.Executions))
	for _, exec := range persist.Executions {
		s.execs[exec.JobID] = exec
	}

	return nil
}

// save writes the in-memory map to the JSON file.
func (s *JSONStore) save() error {
	execs := make([]*Execution, 0, len(s.execs))
	for _, exec := range s.execs {
		execs = append(execs, exec)
	}

	persist := jsonPersistence{Executions: execs}
	data, err := json.MarshalIndent(persist, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	// Write to temp file first, then rename (atomic on POSIX)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// SaveExecution persists one terminal execution record.
func (s *JSONStore) SaveExecution(exec *Execution) error {
	if exec.JobID == "" {
		return fmt.Errorf("job_id is required")
	}
	if exec.Status == "" {
		return fmt.Errorf("status is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.execs[exec.JobID] = exec
	return s.save()
}

// GetExecution retrieves one execution by job id.
func (s *JSONStore) GetExecution(jobID string) (*Execution, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job_id is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	exec, ok := s.execs[jobID]
	if !ok {
		return nil, fmt.Errorf("execution not found: %s", jobID)
	}

	return exec, nil
}

// ListExecutions retrieves the most recent executions across all jobs.
func (s *JSONStore) ListExecutions(limit int) ([]*Execution, error) {
	if limit <= 0 {
		limit = 100 // default limit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	execs := make([]*Execution, 0, len(s.execs))
	for _, exec := range s.execs {
		execs = append(execs, exec)
	}

	sortNewestFirst(execs)

	if len(execs) > limit {
		execs = execs[:limit]
	}

	return execs, nil
}

// ListByStatus retrieves the most recent executions with the given status.
func (s *JSONStore) ListByStatus(status string, limit int) ([]*Execution, error) {
	if status == "" {
		return nil, fmt.Errorf("status is required")
	}
	if limit <= 0 {
		limit = 100 // default limit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var execs []*Execution
	for _, exec := range s.execs {
		if exec.Status == status {
			execs = append(execs, exec)
		}
	}

	sortNewestFirst(execs)

	if len(execs) > limit {
		execs = execs[:limit]
	}

	return execs, nil
}

// Close releases resources held by the store.
// For JSON store, this is a no-op since we don't hold open file handles.
func (s *JSONStore) Close() error {
	return nil
}
