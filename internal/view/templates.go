package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"

	"wikix/internal/render"
	"wikix/internal/storage"
)

const templateExt = ".html"

// Templates loads view templates from storage on every call, so edits to
// the template files show up on the next request.
type Templates struct {
	store storage.Storage
	funcs template.FuncMap
}

func NewTemplates(store storage.Storage, build render.LinkBuilder) *Templates {
	if build == nil {
		build = render.PageURL
	}
	return &Templates{
		store: store,
		funcs: template.FuncMap{
			"dict":      dict,
			"pageURL":   build,
			"tagURL":    func(tag string) string { return "/t/" + url.PathEscape(tag) },
			"staticURL": func(name string) string { return "/s/" + url.PathEscape(name) },
		},
	}
}

// parse builds a fresh template set from every template file. Each file is
// registered under its file name; files may also {{ define }} shared parts.
func (t *Templates) parse() (*template.Template, error) {
	set := template.New("").Funcs(t.funcs)
	for name := range t.store.Each() {
		file := name + templateExt
		src, ok, err := t.store.Content(file)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", file, err)
		}
		if !ok {
			continue
		}
		if _, err := set.New(file).Parse(string(src)); err != nil {
			return nil, render.AsSyntaxError(err, file, file, 0)
		}
	}
	return set, nil
}

// Render executes the template file name (e.g. "page.html") with data.
func (t *Templates) Render(name string, data any) ([]byte, error) {
	set, err := t.parse()
	if err != nil {
		return nil, err
	}
	if set.Lookup(name) == nil {
		return nil, fmt.Errorf("template %s not found", name)
	}
	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, render.AsSyntaxError(err, name, name, 0)
	}
	return buf.Bytes(), nil
}

func dict(values ...any) (map[string]any, error) {
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("dict requires even number of arguments")
	}
	out := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict keys must be strings")
		}
		out[key] = values[i+1]
	}
	return out, nil
}
