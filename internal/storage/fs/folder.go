// Package fs implements storage.Storage on top of a directory.
package fs

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"

	"wikix/internal/storage"
)

// Folder stores entries as regular files directly under root. When ext is
// set, Each only yields files carrying that extension.
type Folder struct {
	root   string
	ext    string
	locker *Locker
}

var (
	_ storage.Storage = (*Folder)(nil)
	_ storage.Dated   = (*Folder)(nil)
)

func NewFolder(root, ext string) *Folder {
	return &Folder{root: root, ext: ext, locker: NewLocker()}
}

func (f *Folder) Root() string { return f.root }

func (f *Folder) path(name string) (string, error) {
	if err := storage.CheckName(name); err != nil {
		return "", err
	}
	return filepath.Join(f.root, name), nil
}

func (f *Folder) Exists(name string) bool {
	p, err := f.path(name)
	if err != nil {
		return false
	}
	return isFile(p)
}

func (f *Folder) Content(name string) ([]byte, bool, error) {
	p, err := f.path(name)
	if err != nil {
		return nil, false, err
	}
	if !isFile(p) {
		return nil, false, nil
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (f *Folder) Edit(name string, data []byte) error {
	p, err := f.path(name)
	if err != nil {
		return err
	}
	unlock := f.locker.Lock(name)
	defer unlock()

	_, statErr := os.Stat(p)
	if err := atomic.WriteFile(p, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if errors.Is(statErr, os.ErrNotExist) {
		if err := os.Chmod(p, 0o644); err != nil {
			return fmt.Errorf("chmod %s: %w", name, err)
		}
	}
	return nil
}

func (f *Folder) Each() iter.Seq[string] {
	return func(yield func(string) bool) {
		entries, err := os.ReadDir(f.root)
		if err != nil {
			slog.Warn("list storage", "root", f.root, "err", err)
			return
		}
		for _, entry := range entries {
			if !isFile(filepath.Join(f.root, entry.Name())) {
				continue
			}
			name, ok := storage.MatchExt(entry.Name(), f.ext)
			if !ok {
				continue
			}
			if !yield(name) {
				return
			}
		}
	}
}

func (f *Folder) Move(oldName, newName string) error {
	oldPath, err := f.path(oldName)
	if err != nil {
		return err
	}
	newPath, err := f.path(newName)
	if err != nil {
		return err
	}
	if isFile(newPath) {
		return fmt.Errorf("%s %w", newName, storage.ErrExists)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("failed to move %q to %q, is the destination a directory?: %w", oldPath, newPath, err)
	}
	return nil
}

func (f *Folder) Delete(name string) error {
	p, err := f.path(name)
	if err != nil {
		return err
	}
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		return fmt.Errorf("failed to delete %q, is it a directory?", p)
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("failed to delete %q: %w", p, err)
	}
	return nil
}

// UpdatedAt reports the entry's modification time.
func (f *Folder) UpdatedAt(name string) (time.Time, bool, error) {
	p, err := f.path(name)
	if err != nil {
		return time.Time{}, false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	if !info.Mode().IsRegular() {
		return time.Time{}, false, nil
	}
	return info.ModTime(), true, nil
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
