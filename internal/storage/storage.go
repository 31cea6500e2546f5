// Package storage defines the flat, named blob namespace that backs pages,
// static assets and view templates.
package storage

import (
	"errors"
	"fmt"
	"iter"
	"path"
	"strings"
	"time"
)

var (
	ErrExists     = errors.New("already exists")
	ErrUnsafeName = errors.New("unsafe name")
)

// Storage is a flat collection of named blobs. Names passed to Exists,
// Content, Edit, Move and Delete are full entry names (extension included);
// Each yields names with the configured extension stripped.
//
// Move and Delete report failures as descriptive error values; callers
// decide how to surface them.
type Storage interface {
	Exists(name string) bool
	// Content returns ok=false when the entry is absent.
	Content(name string) (data []byte, ok bool, err error)
	Edit(name string, data []byte) error
	Each() iter.Seq[string]
	Move(oldName, newName string) error
	Delete(name string) error
}

// Dated is implemented by storages that know when an entry last changed.
type Dated interface {
	UpdatedAt(name string) (t time.Time, ok bool, err error)
}

// CheckName rejects names that would escape the flat namespace.
func CheckName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	if strings.ContainsRune(name, 0) || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	if path.Clean(name) != name {
		return fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	return nil
}

// MatchExt reports whether entry carries ext and returns the stripped name.
// An empty ext matches everything.
func MatchExt(entry, ext string) (string, bool) {
	if ext == "" {
		return entry, true
	}
	if path.Ext(entry) != ext {
		return "", false
	}
	name := strings.TrimSuffix(entry, ext)
	if name == "" {
		return "", false
	}
	return name, true
}

// Copy writes every entry of src into dst. ext is the extension src strips
// from the names it yields.
func Copy(dst, src Storage, ext string) (int, error) {
	n := 0
	for name := range src.Each() {
		data, ok, err := src.Content(name + ext)
		if err != nil {
			return n, fmt.Errorf("read %s: %w", name+ext, err)
		}
		if !ok {
			continue
		}
		if err := dst.Edit(name+ext, data); err != nil {
			return n, fmt.Errorf("write %s: %w", name+ext, err)
		}
		n++
	}
	return n, nil
}
