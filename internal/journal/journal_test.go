package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattjoyce/minibridge/internal/storage"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "bridge.db")
	db, err := storage.OpenSQLite(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db)
}

func TestAppendAndRecent(t *testing.T) {
	t.Parallel()

	j := openTestJournal(t)

	err := j.Append(context.Background(), Entry{
		RequestID: "req-1",
		Namespace: "system",
		Method:    "ping",
		Status:    StatusOK,
		Duration:  12 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Append 1: %v", err)
	}

	err = j.Append(context.Background(), Entry{
		Status: StatusDecodeFailed,
		Error:  "Invalid request: unexpected token",
	})
	if err != nil {
		t.Fatalf("Append 2: %v", err)
	}

	entries, err := j.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	// Newest-first: the decode failure was appended last.
	if entries[0].Status != StatusDecodeFailed {
		t.Errorf("entries[0].Status = %q", entries[0].Status)
	}
	if entries[0].RequestID != "" {
		t.Errorf("decode failure has request id %q", entries[0].RequestID)
	}
	if entries[1].RequestID != "req-1" || entries[1].Namespace != "system" {
		t.Errorf("entries[1] = %+v", entries[1])
	}
	if entries[1].Duration != 12*time.Millisecond {
		t.Errorf("duration = %v", entries[1].Duration)
	}
	if entries[1].ID == "" {
		t.Error("record id not assigned")
	}
}

func TestAppendRequiresStatus(t *testing.T) {
	t.Parallel()

	j := openTestJournal(t)
	if err := j.Append(context.Background(), Entry{}); err == nil {
		t.Fatal("expected error for empty status")
	}
}

func TestCountAndPrune(t *testing.T) {
	t.Parallel()

	j := openTestJournal(t)
	old := Entry{
		Status:    StatusOK,
		Namespace: "system",
		Method:    "ping",
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	}
	if err := j.Append(context.Background(), old); err != nil {
		t.Fatalf("Append old: %v", err)
	}
	if err := j.Append(context.Background(), Entry{Status: StatusOK}); err != nil {
		t.Fatalf("Append fresh: %v", err)
	}

	n, err := j.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Fatalf("Count = %d, want 2", n)
	}

	if err := j.Prune(context.Background(), 24*time.Hour); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	n, _ = j.Count(context.Background())
	if n != 1 {
		t.Fatalf("Count after prune = %d, want 1", n)
	}
}
