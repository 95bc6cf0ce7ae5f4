package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"linkstash/pkg/logging"
)

// DefaultTokenFileName is the file the file backend keeps the session in.
const DefaultTokenFileName = "tokens.json"

// FileStore persists tokens as a single JSON document.
//
// SECURITY: This store handles sensitive credentials. The following
// measures are implemented:
//   - The file is created with 0600 permissions (owner read/write only)
//   - The storage directory is created with 0700 permissions (owner only)
//   - Writes go to a temporary file that is renamed into place, so readers
//     never observe a half-written document
//   - Token values are NEVER logged (only key names)
//
// The document is re-read on every Get so a session captured by one process
// (e.g. `linkstash auth login`) is visible to others.
type FileStore struct {
	mu     sync.Mutex
	path   string
	closed bool
}

// fileDocument is the on-disk layout.
type fileDocument struct {
	Values map[string]string `json:"values"`
}

// NewFileStore creates the storage directory if needed and returns a store
// backed by dir/tokens.json.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file token store needs a directory")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create token storage directory: %w", err)
	}

	return &FileStore{path: filepath.Join(dir, DefaultTokenFileName)}, nil
}

// Path returns the token file location.
func (s *FileStore) Path() string {
	return s.path
}

// Get reads the document and returns the present values for keys.
func (s *FileStore) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	doc, err := s.readLocked()
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(keys))
	for _, k := range dedupe(keys) {
		if v, ok := doc.Values[k]; ok && v != "" {
			out[k] = v
		}
	}
	return out, nil
}

// Set merges values into the document and replaces the file atomically.
func (s *FileStore) Set(ctx context.Context, values map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	doc, err := s.readLocked()
	if err != nil {
		return err
	}

	for k, v := range values {
		if v == "" {
			delete(doc.Values, k)
			continue
		}
		doc.Values[k] = v
	}

	if err := s.writeLocked(doc); err != nil {
		slog.Warn("SECURITY_AUDIT: token file write failed",
			"event", "token_store_failed",
			"path", s.path,
			"error", err.Error(),
		)
		return fmt.Errorf("failed to persist tokens: %w", err)
	}

	logging.Debug("TokenStore", "Wrote %d key(s) to %s", len(values), s.path)
	return nil
}

// Close marks the store closed.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// readLocked loads the document. A missing file is an empty document.
// REQUIRES: s.mu held.
func (s *FileStore) readLocked() (*fileDocument, error) {
	doc := &fileDocument{Values: make(map[string]string)}

	// #nosec G304 -- path is built from configuration, not request input
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	if len(data) == 0 {
		return doc, nil
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token file: %w", err)
	}
	if doc.Values == nil {
		doc.Values = make(map[string]string)
	}
	return doc, nil
}

// writeLocked writes doc to a temp file in the same directory and renames
// it over the token file.
// REQUIRES: s.mu held.
func (s *FileStore) writeLocked(doc *fileDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tokens-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename has succeeded.
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to restrict temp token file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp token file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp token file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}
