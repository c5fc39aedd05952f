package jobs

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestNewSweeper_RejectsBadPolicy(t *testing.T) {
	reg := testRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cases := []struct {
		name   string
		policy RetentionPolicy
	}{
		{"zero max age", RetentionPolicy{SweepEvery: time.Minute}},
		{"zero interval", RetentionPolicy{MaxAge: time.Hour}},
		{"negative max age", RetentionPolicy{MaxAge: -time.Hour, SweepEvery: time.Minute}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSweeper(reg, tc.policy, logger); err == nil {
				t.Error("NewSweeper() accepted an invalid policy")
			}
		})
	}
}

func TestSweeper_PrunesOnSchedule(t *testing.T) {
	reg := testRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := newFakeHandle()
	id := reg.Register(h, "runs/r", "")
	h.finish(nil, nil)
	reg.Resolve(id)

	// Backdate so the first sweep pass already sees it expired.
	reg.mu.Lock()
	past := time.Now().UTC().Add(-time.Hour)
	reg.records[id].EndedAt = &past
	reg.mu.Unlock()

	sw, err := NewSweeper(reg, RetentionPolicy{MaxAge: time.Minute, SweepEvery: 20 * time.Millisecond}, logger)
	if err != nil {
		t.Fatalf("NewSweeper() error = %v", err)
	}
	sw.Start()
	defer sw.Stop()

	deadline := time.After(3 * time.Second)
	for reg.Len() != 0 {
		select {
		case <-deadline:
			t.Fatalf("registry still has %d records, sweeper never pruned", reg.Len())
		case <-time.After(10 * time.Millisecond):
		}
	}
}
