// Package file persists the session store as a single JSON document.
//
// SECURITY: the directory is created 0700 and the document written 0600.
// Values are never logged; sealing is left to store/sealed.
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/workbench-session/store"
)

var _ store.Store = (*FileStore)(nil)

// FileStore reads and rewrites the document on every operation so that
// several processes (e.g. `workbench login` then `workbench whoami`) see each
// other's writes.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// New returns a store backed by path, creating the parent directory.
func New(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("[file.New] path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("[file.New] create storage directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the document location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Put(key, value string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	values[key] = value
	return s.write(values)
}

func (s *FileStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", err
	}
	value, ok := values[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return value, nil
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.write(values)
}

func (s *FileStore) read() (map[string]string, error) {
	// #nosec G304 -- path comes from configuration, not request input
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("[FileStore.read] %w", err)
	}

	values := make(map[string]string)
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("[FileStore.read] corrupt store %s: %w", s.path, err)
	}
	return values, nil
}

// write replaces the document atomically via a temp file and rename.
func (s *FileStore) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("[FileStore.write] marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("[FileStore.write] temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileStore.write] chmod: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileStore.write] %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[FileStore.write] close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		log.Warn().Str("path", s.path).Err(err).Msg("session store write failed")
		return fmt.Errorf("[FileStore.write] rename: %w", err)
	}
	return nil
}
