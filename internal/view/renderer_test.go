package view

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikix/internal/render"
	"wikix/internal/storage/fs"
	"wikix/internal/storage/memory"
)

var testTemplates = map[string]string{
	"page.html":       `{{ .Name }}|{{ .Content }}|{{ .RawContent }}|{{ range .Tags }}{{ . }},{{ end }}`,
	"page-all.html":   `{{ range .Pages }}{{ . }},{{ end }}`,
	"tag.html":        `{{ .Name }}:{{ range .Pages }}{{ . }},{{ end }}`,
	"tag-all.html":    `{{ range .Tags }}{{ . }},{{ end }}`,
	"static-all.html": `{{ range .Statics }}{{ . }},{{ end }}`,
	"search.html":     `{{ .Query }}:{{ range .Pages }}{{ . }},{{ end }}`,
}

type fixture struct {
	pages     *memory.Store
	static    *memory.Store
	templates *memory.Store
	renderer  *Renderer
}

func newFixture(t *testing.T, pages map[string]string) *fixture {
	t.Helper()
	f := &fixture{
		pages:     memory.New(".md"),
		static:    memory.New(""),
		templates: memory.New(".html"),
	}
	for name, src := range pages {
		require.NoError(t, f.pages.Edit(name+".md", []byte(src)))
	}
	for name, src := range testTemplates {
		require.NoError(t, f.templates.Edit(name, []byte(src)))
	}
	f.renderer = NewRenderer(f.pages, f.static, NewTemplates(f.templates, nil), render.NewContentRenderer(f.pages))
	return f
}

func TestPage(t *testing.T) {
	f := newFixture(t, map[string]string{"A": "hello <tag>x</tag>"})
	out, err := f.renderer.Page("A")
	require.NoError(t, err)
	assert.Equal(t, "A|<p>hello</p>\n|hello &lt;tag&gt;x&lt;/tag&gt;|x,", string(out))

	_, err = f.renderer.Page("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPageAll(t *testing.T) {
	f := newFixture(t, map[string]string{"b": "", "a": "", "c": ""})
	out, err := f.renderer.PageAll()
	require.NoError(t, err)
	assert.Equal(t, "a,b,c,", string(out))
}

func TestTagMembership(t *testing.T) {
	f := newFixture(t, map[string]string{
		"A": "<tag>x</tag><tag>y</tag>",
		"B": "<tag>y</tag>",
		"C": "<tag>z</tag>",
		"D": "untagged",
	})

	out, err := f.renderer.Tag("x")
	require.NoError(t, err)
	assert.Equal(t, "x:A,", string(out))

	out, err = f.renderer.Tag("y")
	require.NoError(t, err)
	assert.Equal(t, "y:A,B,", string(out))

	out, err = f.renderer.Tag("z")
	require.NoError(t, err)
	assert.Equal(t, "z:C,", string(out))

	_, err = f.renderer.Tag("unknown")
	assert.ErrorIs(t, err, ErrNotFound)

	out, err = f.renderer.TagAll()
	require.NoError(t, err)
	assert.Equal(t, "x,y,z,", string(out))

	index, err := f.renderer.TagIndex()
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"x": {"A"}, "y": {"A", "B"}, "z": {"C"}}, index)
}

func TestTagSeesLatestSource(t *testing.T) {
	f := newFixture(t, map[string]string{"A": "<tag>old</tag>"})
	_, err := f.renderer.Tag("old")
	require.NoError(t, err)

	require.NoError(t, f.renderer.Save("A", "<tag>new</tag>"))
	_, err = f.renderer.Tag("old")
	assert.ErrorIs(t, err, ErrNotFound)
	out, err := f.renderer.Tag("new")
	require.NoError(t, err)
	assert.Equal(t, "new:A,", string(out))
}

func TestSaveNormalizesLineEndings(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.renderer.Save("N", "a\r\nb\rc\n"))
	data, ok, err := f.pages.Content("N.md")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a\nb\nc\n", string(data))
}

func TestStatic(t *testing.T) {
	f := newFixture(t, nil)
	png := []byte{0x89, 'P', 'N', 'G', 0x00}
	require.NoError(t, f.static.Edit("logo.png", png))
	require.NoError(t, f.static.Edit("blob.unknownext", []byte("x")))

	data, ct, err := f.renderer.Static("logo.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, png, data)

	_, ct, err = f.renderer.Static("blob.unknownext")
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", ct)

	_, _, err = f.renderer.Static("missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = f.renderer.Static("../secret")
	assert.ErrorIs(t, err, ErrNotFound)

	out, err := f.renderer.StaticAll()
	require.NoError(t, err)
	assert.Equal(t, "blob.unknownext,logo.png,", string(out))
}

func TestSearch(t *testing.T) {
	f := newFixture(t, map[string]string{
		"Gardening": "tomatoes",
		"Cooking":   "Tomato soup",
		"Other":     "nothing",
	})
	out, err := f.renderer.Search("tomato")
	require.NoError(t, err)
	assert.Equal(t, "tomato:Cooking,Gardening,", string(out))

	out, err = f.renderer.Search("garden")
	require.NoError(t, err)
	assert.Equal(t, "garden:Gardening,", string(out))

	out, err = f.renderer.Search("  ")
	require.NoError(t, err)
	assert.Equal(t, ":", string(out))
}

func TestMoveDelete(t *testing.T) {
	f := newFixture(t, map[string]string{"A": "a", "B": "b"})
	assert.Error(t, f.renderer.Move("A", "B"))
	require.NoError(t, f.renderer.Move("A", "C"))
	assert.True(t, f.pages.Exists("C.md"))
	require.NoError(t, f.renderer.Delete("C"))
	assert.Error(t, f.renderer.Delete("C"))
}

func TestTemplatesReloadEveryRender(t *testing.T) {
	f := newFixture(t, map[string]string{"A": "a"})
	out, err := f.renderer.PageAll()
	require.NoError(t, err)
	assert.Equal(t, "A,", string(out))

	require.NoError(t, f.templates.Edit("page-all.html", []byte(`count={{ len .Pages }}`)))
	out, err = f.renderer.PageAll()
	require.NoError(t, err)
	assert.Equal(t, "count=1", string(out))
}

func TestTemplateSyntaxError(t *testing.T) {
	f := newFixture(t, map[string]string{"A": "a"})
	require.NoError(t, f.templates.Edit("page-all.html", []byte("ok\n{{ range }}")))

	_, err := f.renderer.PageAll()
	var se *render.SyntaxError
	require.True(t, errors.As(err, &se), "got %T: %v", err, err)
	assert.Equal(t, "page-all.html", se.Name)
	assert.Equal(t, "page-all.html", se.File)
	assert.Equal(t, 2, se.Line)
}

func TestPageSyntaxErrorPropagates(t *testing.T) {
	f := newFixture(t, map[string]string{"A": "{{ end }}"})
	_, err := f.renderer.Page("A")
	var se *render.SyntaxError
	require.True(t, errors.As(err, &se), "got %T: %v", err, err)
	assert.Equal(t, "A.md", se.File)

	_, err = f.renderer.TagAll()
	assert.True(t, errors.As(err, &se))
}

func TestDefaultTemplatesRender(t *testing.T) {
	pages := memory.New(".md")
	require.NoError(t, pages.Edit("Welcome.md", []byte("# Hi\n\n<tag>intro</tag>See [[Other Page]].")))
	static := memory.New("")
	require.NoError(t, static.Edit("logo.png", []byte{0x89}))
	templates := fs.NewFolder("../../templates", ".html")

	r := NewRenderer(pages, static, NewTemplates(templates, nil), render.NewContentRenderer(pages))

	out, err := r.Page("Welcome")
	require.NoError(t, err)
	assert.Contains(t, string(out), `href="/p/Other%20Page"`)
	assert.Contains(t, string(out), `href="/t/intro"`)
	assert.Contains(t, string(out), `name="raw_content"`)

	for _, fn := range []func() ([]byte, error){
		r.PageAll,
		r.TagAll,
		r.StaticAll,
		func() ([]byte, error) { return r.Tag("intro") },
		func() ([]byte, error) { return r.Search("hi") },
	} {
		out, err := fn()
		require.NoError(t, err)
		assert.Contains(t, string(out), "<!DOCTYPE html>")
	}
}

func TestPageShowsModificationTime(t *testing.T) {
	dir := t.TempDir()
	pages := fs.NewFolder(dir, ".md")
	require.NoError(t, pages.Edit("A.md", []byte("body")))
	stamp := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "A.md"), stamp, stamp))

	templates := fs.NewFolder("../../templates", ".html")
	r := NewRenderer(pages, memory.New(""), NewTemplates(templates, nil), render.NewContentRenderer(pages))
	out, err := r.Page("A")
	require.NoError(t, err)
	assert.Contains(t, string(out), `datetime="2024-03-01T12:30:00Z"`)

	undated := newFixture(t, map[string]string{"A": "body"})
	templates2 := memory.New(".html")
	require.NoError(t, templates2.Edit("page.html", []byte(`{{ .Updated.IsZero }}`)))
	undated.renderer.templates = NewTemplates(templates2, nil)
	out, err = undated.renderer.Page("A")
	require.NoError(t, err)
	assert.Equal(t, "true", string(out))
}
