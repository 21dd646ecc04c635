// Package scratch persists uploaded files for the duration of a single
// processing attempt. Every Save is paired with a Cleanup by the caller,
// whatever the outcome of processing.
package scratch

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store writes uploads beneath a base directory. Each saved file lives in
// its own per-attempt subdirectory, so two concurrent uploads with the same
// declared name never clobber each other.
type Store struct {
	baseDir string
}

// NewStore creates a Store rooted at baseDir, creating it if necessary.
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		return nil, errors.New("scratch: base directory required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch directory %s: %w", baseDir, err)
	}
	return &Store{baseDir: baseDir}, nil
}

// BaseDir returns the scratch root.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// Save writes the reader's bytes under the file's declared name and returns
// the stored path.
func (s *Store) Save(name string, r io.Reader) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", errors.New("scratch: file name required")
	}

	dir := filepath.Join(s.baseDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create attempt directory: %w", err)
	}

	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		_ = os.Remove(dir)
		return "", fmt.Errorf("create scratch file %s: %w", name, err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		s.Cleanup(path)
		return "", fmt.Errorf("write scratch file %s: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		s.Cleanup(path)
		return "", fmt.Errorf("close scratch file %s: %w", name, err)
	}
	return path, nil
}

// Cleanup removes the stored file and its per-attempt directory. Absent
// paths are a no-op; failures are logged but never surfaced, cleanup must
// not fail the caller.
func (s *Store) Cleanup(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("scratch: remove %s: %v", path, err)
	}
	dir := filepath.Dir(path)
	if dir == s.baseDir || !strings.HasPrefix(dir, s.baseDir) {
		return
	}
	if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
		log.Printf("scratch: remove attempt directory %s: %v", dir, err)
	}
}
