// Package memory implements storage.Storage in process memory.
package memory

import (
	"fmt"
	"iter"
	"sort"
	"sync"

	"wikix/internal/storage"
)

type Store struct {
	mu      sync.RWMutex
	ext     string
	entries map[string][]byte
}

var _ storage.Storage = (*Store)(nil)

func New(ext string) *Store {
	return &Store{ext: ext, entries: make(map[string][]byte)}
}

func (s *Store) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[name]
	return ok
}

func (s *Store) Content(name string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.entries[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (s *Store) Edit(name string, data []byte) error {
	if err := storage.CheckName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = append([]byte(nil), data...)
	return nil
}

// Each yields a snapshot taken when iteration starts, in name order.
func (s *Store) Each() iter.Seq[string] {
	return func(yield func(string) bool) {
		s.mu.RLock()
		names := make([]string, 0, len(s.entries))
		for entry := range s.entries {
			if name, ok := storage.MatchExt(entry, s.ext); ok {
				names = append(names, name)
			}
		}
		s.mu.RUnlock()
		sort.Strings(names)
		for _, name := range names {
			if !yield(name) {
				return
			}
		}
	}
}

func (s *Store) Move(oldName, newName string) error {
	for _, name := range []string{oldName, newName} {
		if err := storage.CheckName(name); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[newName]; ok {
		return fmt.Errorf("%s %w", newName, storage.ErrExists)
	}
	data, ok := s.entries[oldName]
	if !ok {
		return fmt.Errorf("failed to move %q to %q: no such entry", oldName, newName)
	}
	delete(s.entries, oldName)
	s.entries[newName] = data
	return nil
}

func (s *Store) Delete(name string) error {
	if err := storage.CheckName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[name]; !ok {
		return fmt.Errorf("failed to delete %q: no such entry", name)
	}
	delete(s.entries, name)
	return nil
}
