package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"taskloop/internal/eventbus"
	"taskloop/pkg/logx"
)

func openTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "runs.db")
	}
	s, err := Open(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndRecent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t, Config{})
	ctx := context.Background()

	base := time.Now().Add(-time.Minute).Truncate(time.Millisecond)
	for i := 0; i < 3; i++ {
		err := s.Append(ctx, Record{
			EntryID:  fmt.Sprintf("id-%d", i),
			Name:     fmt.Sprintf("job-%d", i),
			Mode:     "now",
			Started:  base.Add(time.Duration(i) * time.Second),
			Duration: 10 * time.Millisecond,
		})
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent returned %d records, want 3", len(got))
	}
	// Newest first.
	if got[0].EntryID != "id-2" || got[2].EntryID != "id-0" {
		t.Fatalf("order = [%s %s %s]", got[0].EntryID, got[1].EntryID, got[2].EntryID)
	}
	if !got[0].Started.Equal(base.Add(2 * time.Second)) {
		t.Fatalf("started = %v, want %v", got[0].Started, base.Add(2*time.Second))
	}
	if got[0].Name != "job-2" || got[0].Mode != "now" || got[0].Error != "" {
		t.Fatalf("record = %+v", got[0])
	}
}

func TestRecentLimit(t *testing.T) {
	t.Parallel()
	s := openTestStore(t, Config{})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := s.Append(ctx, Record{EntryID: "x", Mode: "now"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	got, err := s.Recent(ctx, 2)
	if err != nil || len(got) != 2 {
		t.Fatalf("Recent(2) = %d records, err %v", len(got), err)
	}
}

func TestPruneByCount(t *testing.T) {
	t.Parallel()
	s := openTestStore(t, Config{MaxRecords: 3})
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 10; i++ {
		err := s.Append(ctx, Record{
			EntryID: fmt.Sprintf("id-%d", i),
			Mode:    "now",
			Started: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := s.prune(ctx); err != nil {
		t.Fatalf("prune: %v", err)
	}

	got, err := s.Recent(ctx, 100)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("kept %d records, want 3", len(got))
	}
	if got[0].EntryID != "id-9" || got[2].EntryID != "id-7" {
		t.Fatalf("kept wrong records: %s..%s", got[0].EntryID, got[2].EntryID)
	}
}

func TestPruneByAge(t *testing.T) {
	t.Parallel()
	s := openTestStore(t, Config{MaxAge: time.Hour})
	ctx := context.Background()

	if err := s.Append(ctx, Record{EntryID: "old", Mode: "now", Started: time.Now().Add(-2 * time.Hour)}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(ctx, Record{EntryID: "fresh", Mode: "now", Started: time.Now()}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.prune(ctx); err != nil {
		t.Fatalf("prune: %v", err)
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].EntryID != "fresh" {
		t.Fatalf("records after prune = %+v", got)
	}
}

func TestNilStoreIsDisabled(t *testing.T) {
	t.Parallel()
	var s *Store
	if err := s.Append(context.Background(), Record{}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("Append on nil store: %v", err)
	}
	if _, err := s.Recent(context.Background(), 1); !errors.Is(err, ErrDisabled) {
		t.Fatalf("Recent on nil store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close on nil store: %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{}, logx.Nop()); err == nil {
		t.Fatal("Open accepted an empty path")
	}
}

func TestServicePersistsBusEvents(t *testing.T) {
	t.Parallel()
	s := openTestStore(t, Config{})
	bus := eventbus.New()
	svc := NewService(s, bus, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	svc.Start(ctx) // second call is a no-op

	bus.Publish(eventbus.RunEvent{
		ID:       "abc",
		Name:     "heartbeat",
		Mode:     "every 30s",
		Started:  time.Now().Truncate(time.Millisecond),
		Duration: 12 * time.Millisecond,
		Error:    "boom",
	})
	svc.Stop()

	got, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("persisted %d records, want 1", len(got))
	}
	if got[0].EntryID != "abc" || got[0].Name != "heartbeat" || got[0].Error != "boom" {
		t.Fatalf("record = %+v", got[0])
	}
}
