package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(context.Background(), "sqlite://"+path)
	if err != nil {
		t.Fatalf("failed to open history store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	sessionID := NewSessionID()

	entries := []Entry{
		{SessionID: sessionID, Seq: 1, Source: "print 1;", Result: "1", RecordedAt: time.Now()},
		{SessionID: sessionID, Seq: 2, Source: "print bogus;", Result: "undefined variable", IsError: true, RecordedAt: time.Now()},
	}
	for _, e := range entries {
		if err := store.Record(context.Background(), e); err != nil {
			t.Fatalf("unexpected error recording entry: %v", err)
		}
	}

	got, err := store.Recent(context.Background(), sessionID, 10)
	if err != nil {
		t.Fatalf("unexpected error reading history: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Seq != 1 || got[1].Seq != 2 {
		t.Errorf("entries not ordered oldest-first: %+v", got)
	}
	if !got[1].IsError {
		t.Errorf("expected second entry to be flagged as an error")
	}
}

func TestRecentScopesToSession(t *testing.T) {
	store := openTestStore(t)

	a := NewSessionID()
	b := NewSessionID()
	store.Record(context.Background(), Entry{SessionID: a, Seq: 1, Source: "1;", Result: "1", RecordedAt: time.Now()})
	store.Record(context.Background(), Entry{SessionID: b, Seq: 1, Source: "2;", Result: "2", RecordedAt: time.Now()})

	got, err := store.Recent(context.Background(), a, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Source != "1;" {
		t.Errorf("expected history scoped to session a only, got %+v", got)
	}
}

func TestNilStoreRecordIsNoop(t *testing.T) {
	var store *Store
	if err := store.Record(context.Background(), Entry{}); err != nil {
		t.Errorf("expected nil-store Record to be a no-op, got error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("expected nil-store Close to be a no-op, got error: %v", err)
	}
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	if _, err := Open(context.Background(), "postgres://localhost/db"); err == nil {
		t.Fatalf("expected an error for an unsupported DSN scheme")
	}
}
