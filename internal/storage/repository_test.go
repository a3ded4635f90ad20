package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *RunStore {
	t.Helper()
	store, err := NewRunStore(filepath.Join(t.TempDir(), "treasury.db"))
	if err != nil {
		t.Fatalf("NewRunStore() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunStore_RecordAndLastSuccessful(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, time.August, 28, 6, 0, 0, 0, time.UTC)

	_, err := store.RecordRun(ctx, Run{
		Source: "accounting", StartedAt: base, FinishedAt: base.Add(time.Minute),
		Status: RunFailed, Detail: "moneybird GET -> 500",
	})
	if err != nil {
		t.Fatalf("RecordRun() error: %v", err)
	}

	_, err = store.RecordRun(ctx, Run{
		Source: "accounting", StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour + time.Minute),
		Status: RunSucceeded, ArtifactCount: 6,
	})
	if err != nil {
		t.Fatalf("RecordRun() error: %v", err)
	}

	got, err := store.LastSuccessful(ctx, "accounting")
	if err != nil {
		t.Fatalf("LastSuccessful() error: %v", err)
	}
	if got == nil {
		t.Fatal("LastSuccessful() = nil, want a run")
	}
	if got.Status != RunSucceeded || got.ArtifactCount != 6 {
		t.Errorf("run = %+v", got)
	}
	if !got.FinishedAt.Equal(base.Add(time.Hour + time.Minute)) {
		t.Errorf("finishedAt = %v", got.FinishedAt)
	}
}

func TestRunStore_LastSuccessful_NoRuns(t *testing.T) {
	store := newTestStore(t)

	got, err := store.LastSuccessful(context.Background(), "onchain")
	if err != nil {
		t.Fatalf("LastSuccessful() error: %v", err)
	}
	if got != nil {
		t.Errorf("LastSuccessful() = %+v, want nil", got)
	}
}

func TestRunStore_RecentRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, time.August, 28, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := store.RecordRun(ctx, Run{
			Source: "onchain", StartedAt: base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute),
			Status:     RunSucceeded,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	runs, err := store.RecentRuns(ctx, "onchain", 2)
	if err != nil {
		t.Fatalf("RecentRuns() error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if !runs[0].FinishedAt.After(runs[1].FinishedAt) {
		t.Error("runs not ordered newest first")
	}
}
