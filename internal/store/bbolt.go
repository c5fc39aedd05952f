package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// executionsBucket holds all execution records keyed by job id.
	executionsBucket = "executions"
	// statusIndexBucket holds one sub-bucket per terminal status, each
	// mapping job ids to empty values.
	statusIndexBucket = "status_index"
)

// BoltStore implements the Store interface using BoltDB.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store at the given path.
func NewBoltStore(path string) (Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb at %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(executionsBucket)); err != nil {
			return fmt.Errorf("create executions bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(statusIndexBucket)); err != nil {
			return fmt.Errorf("create status index bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// SaveExecution persists one terminal execution record.
func (s *BoltStore) SaveExecution(exec *Execution) error {
	if exec.JobID == "" {
		return fmt.Errorf("job_id is required")
	}
	if exec.Status == "" {
		return fmt.Errorf("status is required")
	}

	data, err := json.Marshal(exec)
	if err != nil {
		return fmt.Errorf("marshal execution: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		execs := tx.Bucket([]byte(executionsBucket))
		index := tx.Bucket([]byte(statusIndexBucket))

		// Re-saving under a different status must not leave a stale
		// index entry behind.
		if prev := execs.Get([]byte(exec.JobID)); prev != nil {
			var old Execution
			if err := json.Unmarshal(prev, &old); err == nil && old.Status != exec.Status {
				if b := index.Bucket([]byte(old.Status)); b != nil {
					if err := b.Delete([]byte(exec.JobID)); err != nil {
						return fmt.Errorf("drop stale index entry: %w", err)
					}
				}
			}
		}

		if err := execs.Put([]byte(exec.JobID), data); err != nil {
			return fmt.Errorf("put execution: %w", err)
		}

		statusBucket, err := index.CreateBucketIfNotExists([]byte(exec.Status))
		if err != nil {
			return fmt.Errorf("create status bucket %s: %w", exec.Status, err)
		}
		if err := statusBucket.Put([]byte(exec.JobID), nil); err != nil {
			return fmt.Errorf("put status index entry: %w", err)
		}

		return nil
	})
}

// GetExecution retrieves one execution by job id.
func (s *BoltStore) GetExecution(jobID string) (*Execution, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job_id is required")
	}

	var exec *Execution

	err := s.db.View(func(tx *bolt.Tx) error {
		execs := tx.Bucket([]byte(executionsBucket))

		data := execs.Get([]byte(jobID))
		if data == nil {
			return fmt.Errorf("execution not found: %s", jobID)
		}

		exec = &Execution{}
		if err := json.Unmarshal(data, exec); err != nil {
			return fmt.Errorf("unmarshal execution: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return exec, nil
}

// ListExecutions retrieves the most recent executions across all jobs.
func (s *BoltStore) ListExecutions(limit int) ([]*Execution, error) {
	if limit <= 0 {
		limit = 100 // default limit
	}

	var execs []*Execution

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(executionsBucket))

		return bucket.ForEach(func(k, v []byte) error {
			exec := &Execution{}
			if err := json.Unmarshal(v, exec); err != nil {
				return fmt.Errorf("unmarshal execution %s: %w", string(k), err)
			}
			execs = append(execs, exec)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	sortNewestFirst(execs)

	if len(execs) > limit {
		execs = execs[:limit]
	}

	return execs, nil
}

// ListByStatus retrieves the most recent executions with the given status.
func (s *BoltStore) ListByStatus(status string, limit int) ([]*Execution, error) {
	if status == "" {
		return nil, fmt.Errorf("status is required")
	}
	if limit <= 0 {
		limit = 100 // default limit
	}

	var execs []*Execution

	err := s.db.View(func(tx *bolt.Tx) error {
		index := tx.Bucket([]byte(statusIndexBucket))
		all := tx.Bucket([]byte(executionsBucket))

		statusBucket := index.Bucket([]byte(status))
		if statusBucket == nil {
			// No executions with this status yet
			return nil
		}

		return statusBucket.ForEach(func(jobID, _ []byte) error {
			data := all.Get(jobID)
			if data == nil {
				return fmt.Errorf("indexed execution missing: %s", string(jobID))
			}
			exec := &Execution{}
			if err := json.Unmarshal(data, exec); err != nil {
				return fmt.Errorf("unmarshal execution %s: %w", string(jobID), err)
			}
			execs = append(execs, exec)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	sortNewestFirst(execs)

	if len(execs) > limit {
		execs = execs[:limit]
	}

	return execs, nil
}

// Close releases resources held by the store.
func (s *BoltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// sortNewestFirst orders executions by start time descending.
func sortNewestFirst(execs []*Execution) {
	sort.Slice(execs, func(i, j int) bool {
		return execs[i].StartedAt.After(execs[j].StartedAt)
	})
}
