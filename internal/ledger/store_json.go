package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const historySchemaURL = "history.schema.json"

const historySchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "required": ["display_name", "timestamp", "pages_extracted", "pages_unmatched"],
    "properties": {
      "display_name": {"type": "string"},
      "timestamp": {"type": "string"},
      "pages_extracted": {"type": "integer", "minimum": 0},
      "pages_unmatched": {"type": "integer", "minimum": 0},
      "files_written": {"type": "integer", "minimum": 0}
    }
  }
}`

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaErr  error
	compiledSchemaOnce sync.Once
)

func historyJSONSchema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(historySchemaURL, strings.NewReader(historySchema)); err != nil {
			compiledSchemaErr = fmt.Errorf("failed to add history schema: %w", err)
			return
		}
		compiledSchema, compiledSchemaErr = c.Compile(historySchemaURL)
	})
	return compiledSchema, compiledSchemaErr
}

// JSONStore keeps the history as a single JSON object in a file, keyed by
// fingerprint. Every write replaces the file atomically.
type JSONStore struct {
	path    string
	mu      sync.Mutex
	entries map[string]Entry
}

// NewJSONStore creates a store backed by path. The file need not exist.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file.
func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) Load(ctx context.Context) (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return nil, err
	}
	s.entries = entries

	out := make(map[string]Entry, len(entries))
	for k, v := range entries {
		out[k] = v
	}
	return out, nil
}

func (s *JSONStore) read() (map[string]Entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]Entry), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return make(map[string]Entry), nil
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptHistory, s.path, err)
	}
	schema, err := historyJSONSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptHistory, s.path, err)
	}

	entries := make(map[string]Entry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptHistory, s.path, err)
	}
	return entries, nil
}

func (s *JSONStore) Put(ctx context.Context, fingerprint string, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries == nil {
		entries, err := s.read()
		if err != nil {
			return err
		}
		s.entries = entries
	}

	next := make(map[string]Entry, len(s.entries)+1)
	for k, v := range s.entries {
		next[k] = v
	}
	next[fingerprint] = entry

	if err := s.write(next); err != nil {
		return err
	}
	s.entries = next
	return nil
}

func (s *JSONStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove history file: %w", err)
	}
	s.entries = make(map[string]Entry)
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

// write replaces the history file through a temp file in the same directory
// so readers never observe a partial document.
func (s *JSONStore) write(entries map[string]Entry) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close history: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}
	return nil
}
