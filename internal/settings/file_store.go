package settings

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// FileStore keeps every client's flags in one JSON document on disk.
// Writes go to a temp file that is renamed over the original.
type FileStore struct {
	path string

	mu     sync.Mutex
	values map[string]map[string]string
}

// NewFileStore loads path, creating its directory when missing
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create settings directory")
	}

	store := &FileStore{path: path, values: map[string]map[string]string{}}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return store, nil
	case err != nil:
		return nil, errors.Wrap(err, "read settings file")
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &store.values); err != nil {
			return nil, errors.Wrapf(err, "parse settings file %s", path)
		}
		if store.values == nil {
			store.values = map[string]map[string]string{}
		}
	}
	return store, nil
}

func (s *FileStore) DarkMode(_ context.Context, clientID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decodeFlag(s.values[clientID][darkModeKey]), nil
}

func (s *FileStore) SetDarkMode(_ context.Context, clientID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.values[clientID]
	next := make(map[string]string, len(previous)+1)
	for key, value := range previous {
		next[key] = value
	}
	next[darkModeKey] = encodeFlag(enabled)
	s.values[clientID] = next

	if err := s.flush(); err != nil {
		if existed {
			s.values[clientID] = previous
		} else {
			delete(s.values, clientID)
		}
		return err
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) flush() error {
	raw, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode settings")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.json")
	if err != nil {
		return errors.Wrap(err, "create temp settings file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write settings")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close settings")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "replace settings file")
}
