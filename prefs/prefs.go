// Package prefs stores named preference files of boolean values, the way Android SharedPreferences do.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/bitrise-io/go-utils/fileutil"
	"github.com/bitrise-io/go-utils/pathutil"
)

// Store persists boolean preferences grouped by preference file name.
// SetBool must be atomic for a single key.
type Store interface {
	Bool(name, key string) (value bool, ok bool, err error)
	SetBool(name, key string, value bool) error
}

// MemoryStore ...
type MemoryStore struct {
	mu    sync.Mutex
	files map[string]map[string]bool
}

// NewMemoryStore ...
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: map[string]map[string]bool{}}
}

// Bool ...
func (s *MemoryStore) Bool(name, key string) (bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.files[name][key]
	return value, ok, nil
}

// SetBool ...
func (s *MemoryStore) SetBool(name, key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.files[name] == nil {
		s.files[name] = map[string]bool{}
	}
	s.files[name][key] = value
	return nil
}

// FileStore keeps every preference file in a single JSON document.
type FileStore struct {
	mu  sync.Mutex
	pth string
}

// NewFileStore ...
func NewFileStore(pth string) *FileStore {
	return &FileStore{pth: pth}
}

func (s *FileStore) read() (map[string]map[string]bool, error) {
	files := map[string]map[string]bool{}

	if exist, err := pathutil.IsPathExists(s.pth); err != nil {
		return nil, err
	} else if !exist {
		return files, nil
	}

	content, err := fileutil.ReadBytesFromFile(s.pth)
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences (%s): %w", s.pth, err)
	}
	if len(content) == 0 {
		return files, nil
	}
	if err := json.Unmarshal(content, &files); err != nil {
		return nil, fmt.Errorf("failed to parse preferences (%s): %w", s.pth, err)
	}
	return files, nil
}

// Bool ...
func (s *FileStore) Bool(name, key string) (bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.read()
	if err != nil {
		return false, false, err
	}
	value, ok := files[name][key]
	return value, ok, nil
}

// SetBool ...
func (s *FileStore) SetBool(name, key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.read()
	if err != nil {
		return err
	}
	if files[name] == nil {
		files[name] = map[string]bool{}
	}
	files[name][key] = value

	content, err := json.MarshalIndent(files, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	// readers see either the previous or the new document
	tmpPth := s.pth + ".tmp"
	if err := fileutil.WriteBytesToFile(tmpPth, content); err != nil {
		return fmt.Errorf("failed to write preferences (%s): %w", tmpPth, err)
	}
	if err := os.Rename(tmpPth, s.pth); err != nil {
		return fmt.Errorf("failed to replace preferences (%s): %w", s.pth, err)
	}
	return nil
}
