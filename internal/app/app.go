// Package app assembles storages and renderers from a Config.
package app

import (
	"fmt"
	"log/slog"
	"os"

	"wikix/internal/config"
	"wikix/internal/render"
	"wikix/internal/storage"
	"wikix/internal/storage/fs"
	"wikix/internal/storage/sqlitestore"
	"wikix/internal/view"
)

type App struct {
	Pages     storage.Storage
	Static    storage.Storage
	Templates storage.Storage
	Renderer  *view.Renderer

	db *sqlitestore.DB
}

// Open builds the storages named by cfg.Storage and the renderer on top of
// them. Empty SQLite buckets are seeded from the configured directories.
func Open(cfg config.Config) (*App, error) {
	a := &App{}
	pageDir := fs.NewFolder(cfg.Path(cfg.PageDir), cfg.PageExt)
	staticDir := fs.NewFolder(cfg.Path(cfg.StaticDir), "")
	templateDir := fs.NewFolder(cfg.Path(cfg.TemplateDir), ".html")

	switch cfg.Storage {
	case config.StorageSQLite:
		db, err := sqlitestore.Open(cfg.Path(cfg.DatabasePath))
		if err != nil {
			return nil, err
		}
		a.db = db
		a.Pages = db.Bucket("pages", cfg.PageExt)
		a.Static = db.Bucket("static", "")
		a.Templates = db.Bucket("templates", ".html")
		seeds := []struct {
			bucket storage.Storage
			dir    *fs.Folder
			ext    string
		}{
			{a.Pages, pageDir, cfg.PageExt},
			{a.Static, staticDir, ""},
			{a.Templates, templateDir, ".html"},
		}
		for _, seed := range seeds {
			if err := seedBucket(seed.bucket, seed.dir, seed.ext); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
	default:
		for _, dir := range []string{pageDir.Root(), staticDir.Root()} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create %s: %w", dir, err)
			}
		}
		a.Pages, a.Static, a.Templates = pageDir, staticDir, templateDir
	}

	content := render.NewContentRenderer(a.Pages,
		render.WithExt(cfg.PageExt),
		render.WithMacroPage(cfg.MacroPage),
	)
	a.Renderer = view.NewRenderer(a.Pages, a.Static, view.NewTemplates(a.Templates, nil), content)
	return a, nil
}

func seedBucket(bucket storage.Storage, dir *fs.Folder, ext string) error {
	for range bucket.Each() {
		return nil
	}
	n, err := storage.Copy(bucket, dir, ext)
	if err != nil {
		return fmt.Errorf("seed from %s: %w", dir.Root(), err)
	}
	if n > 0 {
		slog.Info("seeded database bucket", "dir", dir.Root(), "entries", n)
	}
	return nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
