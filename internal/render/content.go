// Package render turns wiki page sources into HTML: macro expansion,
// tag extraction, then markdown conversion.
package render

import (
	"fmt"

	"wikix/internal/storage"
)

// Page is one rendered wiki page. Raw is the source as stored, before
// macro expansion.
type Page struct {
	Name string
	Raw  string
	HTML string
	Tags []string
}

type ContentRenderer struct {
	pages     storage.Storage
	ext       string
	macroPage string
	md        *Markdown
}

type Option func(*ContentRenderer)

// WithExt sets the storage extension of page entries (default ".md").
func WithExt(ext string) Option {
	return func(c *ContentRenderer) { c.ext = ext }
}

// WithMacroPage overrides the page imported as $m.
func WithMacroPage(name string) Option {
	return func(c *ContentRenderer) { c.macroPage = name }
}

// WithLinkBuilder overrides how wikilink labels become URLs.
func WithLinkBuilder(build LinkBuilder) Option {
	return func(c *ContentRenderer) { c.md = NewMarkdown(build) }
}

func NewContentRenderer(pages storage.Storage, opts ...Option) *ContentRenderer {
	c := &ContentRenderer{
		pages:     pages,
		ext:       ".md",
		macroPage: DefaultMacroPage,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.md == nil {
		c.md = NewMarkdown(PageURL)
	}
	return c
}

func (c *ContentRenderer) Ext() string { return c.ext }

func (c *ContentRenderer) file(name string) string { return name + c.ext }

// load returns the raw page and the source handed to the template engine,
// along with the number of synthesized lines in front of the raw text.
// Every page except the macro page itself imports the macro page as $m
// when it exists.
func (c *ContentRenderer) load(name string) ([]byte, string, int, error) {
	raw, ok, err := c.pages.Content(c.file(name))
	if err != nil {
		return nil, "", 0, err
	}
	if !ok {
		return nil, "", 0, ErrNotFound
	}
	if name == c.macroPage || !c.pages.Exists(c.file(c.macroPage)) {
		return raw, string(raw), 0, nil
	}
	preamble := fmt.Sprintf("{{ $m := import %q }}\n", c.macroPage)
	return raw, preamble + string(raw), 1, nil
}

// Render expands, strips tags from and converts the named page. Missing
// pages yield ErrNotFound.
func (c *ContentRenderer) Render(name string) (Page, error) {
	if err := storage.CheckName(c.file(name)); err != nil {
		return Page{}, ErrNotFound
	}
	raw, src, offset, err := c.load(name)
	if err != nil {
		return Page{}, err
	}
	expanded, err := (&expansion{c: c}).run(name, src, offset)
	if err != nil {
		return Page{}, err
	}
	body, tags := ExtractTags(expanded)
	out, err := c.md.Convert(body)
	if err != nil {
		return Page{}, fmt.Errorf("convert %s: %w", name, err)
	}
	return Page{Name: name, Raw: string(raw), HTML: out, Tags: tags}, nil
}
