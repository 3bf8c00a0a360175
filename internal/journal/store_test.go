package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestRecordAndRecent verifies round-tripping runs through the journal.
func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	started := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	runs := []Run{
		{Task: "p", Workdir: "x_p", Status: "PASS", ReturnCode: 0, Started: started, Finished: started.Add(time.Minute)},
		{Task: "q", Workdir: "x_q", Status: "FAIL", ReturnCode: 1, Started: started, Finished: started.Add(2 * time.Minute)},
	}
	for _, r := range runs {
		if err := s.Record(ctx, r); err != nil {
			t.Fatalf("Record(%s): %v", r.Task, err)
		}
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d runs, want 2", len(got))
	}
	// Newest first.
	if got[0].Task != "q" || got[1].Task != "p" {
		t.Errorf("order = [%s %s], want [q p]", got[0].Task, got[1].Task)
	}
	if got[0].ReturnCode != 1 || got[0].Status != "FAIL" {
		t.Errorf("run q = %+v", got[0])
	}
	if !got[1].Started.Equal(started) {
		t.Errorf("started = %v, want %v", got[1].Started, started)
	}
}

// TestRecentLimit verifies the limit is honored.
func TestRecentLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now()
	for i := 0; i < 5; i++ {
		if err := s.Record(ctx, Run{Task: "p", Workdir: "x_p", Status: "PASS", Started: now, Finished: now}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d runs, want 3", len(got))
	}
}

// TestRecordCancelledContext verifies a cancelled context is not retried.
func TestRecordCancelledContext(t *testing.T) {
	s := openTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := s.Record(ctx, Run{Task: "p", Started: start, Finished: start})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancelled record took %v; retry loop did not stop", elapsed)
	}
}
