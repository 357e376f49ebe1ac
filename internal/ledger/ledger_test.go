package ledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestPageClaims(t *testing.T) {
	c := NewPageClaims()

	if !c.Claim("a.pdf", 0) {
		t.Fatal("first claim should succeed")
	}
	if c.Claim("a.pdf", 0) {
		t.Error("second claim of the same page should fail")
	}
	if !c.Claim("b.pdf", 0) {
		t.Error("same page number in another document is a different page")
	}
	c.Claim("a.pdf", 3)

	if got := c.Unclaimed("a.pdf", []int{0, 1, 2, 3}); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("Unclaimed = %v, want [1 2]", got)
	}
	if c.Count("a.pdf") != 2 {
		t.Errorf("Count(a.pdf) = %d, want 2", c.Count("a.pdf"))
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lote.pdf")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}

	fp1, err := Fingerprint(path)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if !strings.HasPrefix(fp1, "lote.pdf_3_") {
		t.Errorf("unexpected fingerprint %q", fp1)
	}

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	fp2, err := Fingerprint(path)
	if err != nil {
		t.Fatal(err)
	}
	if fp1 == fp2 {
		t.Error("fingerprint should change with modification time")
	}

	if _, err := Fingerprint(filepath.Join(dir, "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	sqlite, err := OpenSQLiteStore(context.Background(), filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"json":   NewJSONStore(filepath.Join(dir, "history.json")),
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

func TestHistory_Stores(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			h, err := OpenHistory(ctx, store, nil)
			if err != nil {
				t.Fatalf("OpenHistory: %v", err)
			}
			if h.IsProcessed("a_1_1") {
				t.Fatal("empty history should not know any document")
			}

			entry := Entry{DisplayName: "a.pdf", Timestamp: ts, PagesExtracted: 2, PagesUnmatched: 1, FilesWritten: 2}
			if err := h.MarkProcessed(ctx, "a_1_1", entry); err != nil {
				t.Fatalf("MarkProcessed: %v", err)
			}
			if !h.IsProcessed("a_1_1") {
				t.Error("document should be processed after marking")
			}

			// A fresh History over the same store sees the entry.
			reopened, err := OpenHistory(ctx, store, nil)
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			got, ok := reopened.Get("a_1_1")
			if !ok {
				t.Fatal("entry not persisted")
			}
			if got.DisplayName != "a.pdf" || got.PagesExtracted != 2 || got.PagesUnmatched != 1 || got.FilesWritten != 2 {
				t.Errorf("unexpected entry %+v", got)
			}
			if !got.Timestamp.Equal(ts) {
				t.Errorf("timestamp = %v, want %v", got.Timestamp, ts)
			}

			// Re-marking overwrites.
			entry.PagesExtracted = 5
			if err := reopened.MarkProcessed(ctx, "a_1_1", entry); err != nil {
				t.Fatal(err)
			}
			if e, _ := reopened.Get("a_1_1"); e.PagesExtracted != 5 {
				t.Errorf("expected overwrite, got %+v", e)
			}

			if err := reopened.ClearAll(ctx); err != nil {
				t.Fatalf("ClearAll: %v", err)
			}
			if reopened.Len() != 0 || reopened.IsProcessed("a_1_1") {
				t.Error("history should be empty after ClearAll")
			}
			again, err := OpenHistory(ctx, store, nil)
			if err != nil {
				t.Fatal(err)
			}
			if again.Len() != 0 {
				t.Errorf("cleared history came back with %d entries", again.Len())
			}
		})
	}
}

func TestHistory_Records(t *testing.T) {
	ctx := context.Background()
	h, err := OpenHistory(ctx, NewMemoryStore(), nil)
	if err != nil {
		t.Fatal(err)
	}
	h.MarkProcessed(ctx, "z_1_1", Entry{DisplayName: "z.pdf"})
	h.MarkProcessed(ctx, "b_1_1", Entry{DisplayName: "b.pdf"})

	recs := h.Records()
	if len(recs) != 2 || recs[0].DisplayName != "b.pdf" || recs[1].DisplayName != "z.pdf" {
		t.Errorf("unexpected order %+v", recs)
	}
	if recs[0].Timestamp.IsZero() {
		t.Error("timestamp should default to now")
	}
}

func TestHistory_PersistFailure(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.PutErr = errors.New("disk full")

	h, err := OpenHistory(ctx, store, nil)
	if err != nil {
		t.Fatal(err)
	}
	h.delay = time.Millisecond

	err = h.MarkProcessed(ctx, "a_1_1", Entry{DisplayName: "a.pdf"})
	if err == nil {
		t.Fatal("expected error")
	}
	if store.Puts != 3 {
		t.Errorf("expected 3 attempts, got %d", store.Puts)
	}
	if h.IsProcessed("a_1_1") {
		t.Error("failed write must not mark the document")
	}
}

func TestJSONStore_Corrupt(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{oops"},
		{"wrong shape", `{"a_1_1": {"display_name": 3}}`},
		{"missing fields", `{"a_1_1": {"display_name": "a.pdf"}}`},
		{"negative count", `{"a_1_1": {"display_name": "a.pdf", "timestamp": "2024-01-01T00:00:00Z", "pages_extracted": -1, "pages_unmatched": 0}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "history.json")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := OpenHistory(ctx, NewJSONStore(path), nil)
			if !errors.Is(err, ErrCorruptHistory) {
				t.Errorf("expected ErrCorruptHistory, got %v", err)
			}
		})
	}
}

func TestJSONStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	h, err := OpenHistory(context.Background(), NewJSONStore(path), nil)
	if err != nil {
		t.Fatalf("empty file should load: %v", err)
	}
	if h.Len() != 0 {
		t.Errorf("expected empty history, got %d", h.Len())
	}
}

func TestJSONStore_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	store := NewJSONStore(filepath.Join(dir, "nested", "history.json"))
	if err := store.Put(context.Background(), "a_1_1", Entry{DisplayName: "a.pdf", Timestamp: time.Now()}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	files, err := os.ReadDir(filepath.Join(dir, "nested"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Name() != "history.json" {
		var names []string
		for _, f := range files {
			names = append(names, f.Name())
		}
		t.Errorf("expected only history.json, got %v", names)
	}
}
