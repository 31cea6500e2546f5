// Package view composes rendered pages into the wiki's HTML views and
// serves static assets.
package view

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"path"
	"slices"
	"sort"
	"strings"
	"time"

	"wikix/internal/render"
	"wikix/internal/storage"
)

// ErrNotFound marks a missing page, tag or static asset.
var ErrNotFound = render.ErrNotFound

const defaultContentType = "application/octet-stream"

type PageData struct {
	Name       string
	Content    template.HTML
	RawContent string
	Tags       []string
	Updated    time.Time // zero when the storage does not track it
}

type PageListData struct {
	Pages []string
}

type TagData struct {
	Name  string
	Pages []string
}

type TagListData struct {
	Tags []string
}

type StaticListData struct {
	Statics []string
}

type SearchData struct {
	Query string
	Pages []string
}

type Renderer struct {
	pages     storage.Storage
	static    storage.Storage
	templates *Templates
	content   *render.ContentRenderer
}

func NewRenderer(pages, static storage.Storage, templates *Templates, content *render.ContentRenderer) *Renderer {
	return &Renderer{
		pages:     pages,
		static:    static,
		templates: templates,
		content:   content,
	}
}

func (r *Renderer) pageFile(name string) string {
	return name + r.content.Ext()
}

// Page renders the page view; a missing page yields ErrNotFound.
func (r *Renderer) Page(name string) ([]byte, error) {
	page, err := r.content.Render(name)
	if err != nil {
		return nil, err
	}
	return r.templates.Render("page.html", PageData{
		Name:       page.Name,
		Content:    template.HTML(page.HTML),
		RawContent: page.Raw,
		Tags:       page.Tags,
		Updated:    r.updatedAt(name),
	})
}

func (r *Renderer) updatedAt(name string) time.Time {
	dated, ok := r.pages.(storage.Dated)
	if !ok {
		return time.Time{}
	}
	at, ok, err := dated.UpdatedAt(r.pageFile(name))
	if err != nil {
		slog.Warn("page modification time", "page", name, "err", err)
		return time.Time{}
	}
	if !ok {
		return time.Time{}
	}
	return at
}

// PageNames lists every page in storage, sorted.
func (r *Renderer) PageNames() []string {
	names := slices.Collect(r.pages.Each())
	sort.Strings(names)
	return names
}

func (r *Renderer) PageAll() ([]byte, error) {
	return r.templates.Render("page-all.html", PageListData{Pages: r.PageNames()})
}

// EachPage renders every page in storage. Pages that vanish between
// listing and rendering are skipped.
func (r *Renderer) EachPage(fn func(render.Page) error) error {
	for _, name := range r.PageNames() {
		page, err := r.content.Render(name)
		if errors.Is(err, render.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			return err
		}
	}
	return nil
}

// TagIndex maps each tag to the sorted names of the pages declaring it,
// recomputed from the page sources.
func (r *Renderer) TagIndex() (map[string][]string, error) {
	index := make(map[string][]string)
	err := r.EachPage(func(page render.Page) error {
		for _, tag := range page.Tags {
			index[tag] = append(index[tag], page.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return index, nil
}

// Tag renders the pages declaring tag; an unknown tag yields ErrNotFound.
func (r *Renderer) Tag(name string) ([]byte, error) {
	var pages []string
	err := r.EachPage(func(page render.Page) error {
		if slices.Contains(page.Tags, name) {
			pages = append(pages, page.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("tag %q: %w", name, ErrNotFound)
	}
	return r.templates.Render("tag.html", TagData{Name: name, Pages: pages})
}

func (r *Renderer) TagAll() ([]byte, error) {
	index, err := r.TagIndex()
	if err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(index))
	for tag := range index {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return r.templates.Render("tag-all.html", TagListData{Tags: tags})
}

// Static returns the asset bytes and a content type guessed from the
// name, falling back to application/octet-stream.
func (r *Renderer) Static(name string) ([]byte, string, error) {
	if err := storage.CheckName(name); err != nil {
		return nil, "", fmt.Errorf("static %q: %w", name, ErrNotFound)
	}
	data, ok, err := r.static.Content(name)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", fmt.Errorf("static %q: %w", name, ErrNotFound)
	}
	return data, ContentType(name), nil
}

func ContentType(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return defaultContentType
}

// StaticNames lists every static asset, sorted.
func (r *Renderer) StaticNames() []string {
	names := slices.Collect(r.static.Each())
	sort.Strings(names)
	return names
}

func (r *Renderer) StaticAll() ([]byte, error) {
	return r.templates.Render("static-all.html", StaticListData{Statics: r.StaticNames()})
}

// Search lists pages whose name or source contains query, ignoring case.
// It reads every page; there is no index.
func (r *Renderer) Search(query string) ([]byte, error) {
	query = strings.TrimSpace(query)
	var pages []string
	if query != "" {
		needle := strings.ToLower(query)
		for _, name := range r.PageNames() {
			if strings.Contains(strings.ToLower(name), needle) {
				pages = append(pages, name)
				continue
			}
			raw, ok, err := r.pages.Content(r.pageFile(name))
			if err != nil {
				return nil, err
			}
			if ok && strings.Contains(strings.ToLower(string(raw)), needle) {
				pages = append(pages, name)
			}
		}
	}
	return r.templates.Render("search.html", SearchData{Query: query, Pages: pages})
}

// Save stores content under name with every line ending normalized to
// "\n". Concurrent saves of one page are last-writer-wins.
func (r *Renderer) Save(name, content string) error {
	content = NormalizeNewlines(content)
	if err := r.pages.Edit(r.pageFile(name), []byte(content)); err != nil {
		return err
	}
	slog.Debug("page saved", "page", name, "bytes", len(content))
	return nil
}

func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// Move renames a page. The returned error is the storage's description of
// what went wrong.
func (r *Renderer) Move(oldName, newName string) error {
	return r.pages.Move(r.pageFile(oldName), r.pageFile(newName))
}

func (r *Renderer) Delete(name string) error {
	return r.pages.Delete(r.pageFile(name))
}
