// Package ledger holds the two ledgers of a reconciliation run: the durable
// history of processed documents and the run-scoped set of claimed pages.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/avast/retry-go/v4"
)

// ErrCorruptHistory is returned when the history cannot be decoded or does
// not match its schema.
var ErrCorruptHistory = errors.New("corrupt history")

// Entry is the record kept for one processed document.
type Entry struct {
	DisplayName    string    `json:"display_name" yaml:"display_name"`
	Timestamp      time.Time `json:"timestamp" yaml:"timestamp"`
	PagesExtracted int       `json:"pages_extracted" yaml:"pages_extracted"`
	PagesUnmatched int       `json:"pages_unmatched" yaml:"pages_unmatched"`
	FilesWritten   int       `json:"files_written" yaml:"files_written"`
}

// Record pairs an Entry with its fingerprint.
type Record struct {
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
	Entry       `yaml:",inline"`
}

// Store persists history entries.
type Store interface {
	// Load returns every stored entry keyed by fingerprint.
	Load(ctx context.Context) (map[string]Entry, error)
	// Put inserts or overwrites one entry durably.
	Put(ctx context.Context, fingerprint string, entry Entry) error
	// Clear removes every entry.
	Clear(ctx context.Context) error
	// Close releases the store's resources.
	Close() error
}

// History is the processed-document ledger. Lookups are served from memory;
// every write goes straight to the store.
type History struct {
	store   Store
	entries map[string]Entry
	logger  *slog.Logger

	attempts uint
	delay    time.Duration
}

// OpenHistory loads the ledger from store.
func OpenHistory(ctx context.Context, store Store, logger *slog.Logger) (*History, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if entries == nil {
		entries = make(map[string]Entry)
	}
	return &History{
		store:    store,
		entries:  entries,
		logger:   logger,
		attempts: 3,
		delay:    100 * time.Millisecond,
	}, nil
}

// IsProcessed reports whether the document with this fingerprint was already
// processed.
func (h *History) IsProcessed(fingerprint string) bool {
	_, ok := h.entries[fingerprint]
	return ok
}

// Get returns the entry for fingerprint.
func (h *History) Get(fingerprint string) (Entry, bool) {
	e, ok := h.entries[fingerprint]
	return e, ok
}

// MarkProcessed records a document and persists it immediately, overwriting
// any earlier entry. Transient store failures are retried.
func (h *History) MarkProcessed(ctx context.Context, fingerprint string, entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	err := retry.Do(
		func() error {
			return h.store.Put(ctx, fingerprint, entry)
		},
		retry.Context(ctx),
		retry.Attempts(h.attempts),
		retry.Delay(h.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			h.logger.Warn("retrying history write", "attempt", n+1, "document", entry.DisplayName, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to persist history entry for %s: %w", entry.DisplayName, err)
	}
	h.entries[fingerprint] = entry
	return nil
}

// ClearAll forgets every processed document.
func (h *History) ClearAll(ctx context.Context) error {
	if err := h.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	h.entries = make(map[string]Entry)
	return nil
}

// Len returns the number of recorded documents.
func (h *History) Len() int {
	return len(h.entries)
}

// Records returns every entry sorted by display name, then fingerprint.
func (h *History) Records() []Record {
	out := make([]Record, 0, len(h.entries))
	for fp, e := range h.entries {
		out = append(out, Record{Fingerprint: fp, Entry: e})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].Fingerprint < out[j].Fingerprint
	})
	return out
}

// Close closes the underlying store.
func (h *History) Close() error {
	return h.store.Close()
}

// Fingerprint identifies a document by name, size and modification time.
// A renamed or touched copy is a new document.
func Fingerprint(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return fmt.Sprintf("%s_%d_%d", filepath.Base(path), info.Size(), info.ModTime().UnixNano()), nil
}
