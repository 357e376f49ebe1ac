package ledger

import (
	"context"
	"sync"
)

// MemoryStore is a Store that lives only as long as the process. PutErr, when
// set, is returned by Put; tests use it to simulate a failing disk.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	PutErr  error
	Puts    int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Load(ctx context.Context) (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Entry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Put(ctx context.Context, fingerprint string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Puts++
	if s.PutErr != nil {
		return s.PutErr
	}
	s.entries[fingerprint] = entry
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
