package store

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"tracksnag/internal/core"
)

func openTestHistory(t *testing.T) *History {
	t.Helper()

	path := filepath.Join(t.TempDir(), "history.db")
	history, err := OpenHistory(path, zap.NewNop())
	if err != nil {
		t.Fatalf("OpenHistory() returned error: %v", err)
	}
	t.Cleanup(func() { history.Close() })
	return history
}

func TestHistory_RecordAndRecent(t *testing.T) {
	history := openTestHistory(t)
	ctx := context.Background()

	entries := []core.HistoryEntry{
		{TrackID: "t1", Title: "First", Artist: "A", Status: core.StatusCompleted, ArtifactPath: "/lib/A - First.mp3", Attempts: 1, CreatedAt: 100},
		{TrackID: "t2", Title: "Second", Artist: "B", Status: core.StatusExhausted, FailureKind: "access_denied", Attempts: 3, CreatedAt: 200},
		{TrackID: "t3", Title: "Third", Artist: "C", Status: core.StatusNoCandidates, CreatedAt: 300},
	}
	for _, entry := range entries {
		if err := history.Record(ctx, entry); err != nil {
			t.Fatalf("Record() returned error: %v", err)
		}
	}

	recent, err := history.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() returned error: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Recent() returned %d entries, expected 3", len(recent))
	}

	// Newest first.
	if recent[0].TrackID != "t3" || recent[1].TrackID != "t2" || recent[2].TrackID != "t1" {
		t.Errorf("unexpected order: %s, %s, %s", recent[0].TrackID, recent[1].TrackID, recent[2].TrackID)
	}

	if recent[1].FailureKind != "access_denied" {
		t.Errorf("failure kind = %q", recent[1].FailureKind)
	}
	if recent[1].Attempts != 3 {
		t.Errorf("attempts = %d", recent[1].Attempts)
	}
	if recent[2].ArtifactPath != "/lib/A - First.mp3" {
		t.Errorf("artifact path = %q", recent[2].ArtifactPath)
	}
}

func TestHistory_RecentLimit(t *testing.T) {
	history := openTestHistory(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		entry := core.HistoryEntry{
			TrackID:   "t",
			Title:     "Song",
			Artist:    "Artist",
			Status:    core.StatusCompleted,
			CreatedAt: int64(i + 1),
		}
		if err := history.Record(ctx, entry); err != nil {
			t.Fatalf("Record() returned error: %v", err)
		}
	}

	recent, err := history.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() returned error: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("Recent(2) returned %d entries", len(recent))
	}
	if recent[0].CreatedAt != 5 {
		t.Errorf("newest entry created_at = %d, expected 5", recent[0].CreatedAt)
	}
}

func TestHistory_RecordFillsCreatedAt(t *testing.T) {
	history := openTestHistory(t)
	ctx := context.Background()

	entry := core.HistoryEntry{TrackID: "t", Title: "Song", Artist: "Artist", Status: core.StatusFailed}
	if err := history.Record(ctx, entry); err != nil {
		t.Fatalf("Record() returned error: %v", err)
	}

	recent, err := history.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent() returned error: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("Recent() returned %d entries", len(recent))
	}
	if recent[0].CreatedAt == 0 {
		t.Error("created_at was not filled in")
	}
}

func TestHistory_EmptyLedger(t *testing.T) {
	history := openTestHistory(t)

	recent, err := history.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() returned error: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("Recent() returned %d entries on an empty ledger", len(recent))
	}
}
