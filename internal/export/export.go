// Package export writes the wiki as a tree of static HTML files laid out
// like the server's routes, so any file server can host it.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/natefinch/atomic"

	"wikix/internal/storage"
	"wikix/internal/view"
)

// Source is what the exporter reads from. view.Renderer implements it.
type Source interface {
	Page(name string) ([]byte, error)
	PageNames() []string
	PageAll() ([]byte, error)
	TagIndex() (map[string][]string, error)
	Tag(name string) ([]byte, error)
	TagAll() ([]byte, error)
	StaticNames() []string
	Static(name string) ([]byte, string, error)
	StaticAll() ([]byte, error)
}

type Stats struct {
	Pages   int
	Tags    int
	Statics int
}

// Build renders every view of src into outDir. indexPage becomes
// outDir/index.html when it exists. A page name listed twice is an error.
func Build(src Source, indexPage, outDir string) (Stats, error) {
	var stats Stats
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return stats, fmt.Errorf("create output dir: %w", err)
	}
	w := &writer{root: outDir}

	body, err := src.Page(indexPage)
	switch {
	case errors.Is(err, view.ErrNotFound):
		slog.Warn("index page missing; skipping index.html", "page", indexPage)
	case err != nil:
		return stats, fmt.Errorf("render index page %q: %w", indexPage, err)
	default:
		if err := w.write(body, "index.html"); err != nil {
			return stats, err
		}
	}

	body, err = src.PageAll()
	if err != nil {
		return stats, fmt.Errorf("render page list: %w", err)
	}
	if err := w.write(body, "p", "index.html"); err != nil {
		return stats, err
	}
	seen := make(map[string]struct{})
	for _, name := range src.PageNames() {
		if _, ok := seen[name]; ok {
			return stats, fmt.Errorf("duplicate page name %q", name)
		}
		seen[name] = struct{}{}
		body, err := src.Page(name)
		if err != nil {
			return stats, fmt.Errorf("render page %q: %w", name, err)
		}
		if err := w.write(body, "p", name, "index.html"); err != nil {
			return stats, err
		}
		stats.Pages++
	}

	body, err = src.TagAll()
	if err != nil {
		return stats, fmt.Errorf("render tag list: %w", err)
	}
	if err := w.write(body, "t", "index.html"); err != nil {
		return stats, err
	}
	index, err := src.TagIndex()
	if err != nil {
		return stats, fmt.Errorf("collect tags: %w", err)
	}
	tags := make([]string, 0, len(index))
	for tag := range index {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		if err := storage.CheckName(tag); err != nil {
			slog.Warn("tag cannot be used as a directory; skipping", "tag", tag, "err", err)
			continue
		}
		body, err := src.Tag(tag)
		if err != nil {
			return stats, fmt.Errorf("render tag %q: %w", tag, err)
		}
		if err := w.write(body, "t", tag, "index.html"); err != nil {
			return stats, err
		}
		stats.Tags++
	}

	body, err = src.StaticAll()
	if err != nil {
		return stats, fmt.Errorf("render static list: %w", err)
	}
	if err := w.write(body, "s", "index.html"); err != nil {
		return stats, err
	}
	for _, name := range src.StaticNames() {
		data, _, err := src.Static(name)
		if err != nil {
			return stats, fmt.Errorf("read static %q: %w", name, err)
		}
		if err := w.write(data, "s", name); err != nil {
			return stats, err
		}
		stats.Statics++
	}

	slog.Info("export complete", "dir", outDir, "pages", stats.Pages, "tags", stats.Tags, "statics", stats.Statics)
	return stats, nil
}

type writer struct {
	root string
}

func (w *writer) write(data []byte, elem ...string) error {
	path := filepath.Join(append([]string{w.root}, elem...)...)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Chmod(path, 0o644)
}
