package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikix/internal/storage/memory"
)

func newPages(t *testing.T, pages map[string]string) *memory.Store {
	t.Helper()
	store := memory.New(".md")
	for name, src := range pages {
		require.NoError(t, store.Edit(name+".md", []byte(src)))
	}
	return store
}

func TestRenderMissingPage(t *testing.T) {
	c := NewContentRenderer(newPages(t, nil))
	_, err := c.Render("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Render("../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRenderPage(t *testing.T) {
	src := "# Hello\n\n<tag>x</tag><tag>y</tag>Link to [[Other]].\n"
	c := NewContentRenderer(newPages(t, map[string]string{"A": src}))

	page, err := c.Render("A")
	require.NoError(t, err)
	assert.Equal(t, "A", page.Name)
	assert.Equal(t, src, page.Raw)
	assert.Equal(t, []string{"x", "y"}, page.Tags)
	assert.Contains(t, page.HTML, `<h1 id="hello">Hello</h1>`)
	assert.Contains(t, page.HTML, `href="/p/Other"`)
	assert.NotContains(t, page.HTML, "<tag>")
}

func TestRenderIsDeterministic(t *testing.T) {
	src := "# T\n\n```go\nfunc main() {}\n```\n\n<tag>b</tag><tag>a</tag>\n"
	c := NewContentRenderer(newPages(t, map[string]string{"A": src}))
	first, err := c.Render("A")
	require.NoError(t, err)
	second, err := c.Render("A")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRenderImportsMacroPage(t *testing.T) {
	c := NewContentRenderer(newPages(t, map[string]string{
		DefaultMacroPage: `{{ define "greet" }}hi{{ end }}{{ define "shout" }}{{ . }}!{{ end }}`,
		"A":              "{{ call $m.greet }} {{ call $m.shout \"hey\" }}",
	}))

	page, err := c.Render("A")
	require.NoError(t, err)
	assert.Contains(t, page.HTML, "hi hey!")
	assert.Equal(t, "{{ call $m.greet }} {{ call $m.shout \"hey\" }}", page.Raw)

	macro, err := c.Render(DefaultMacroPage)
	require.NoError(t, err)
	assert.NotContains(t, macro.HTML, "hi")
}

func TestRenderWithoutMacroPageHasNoPreamble(t *testing.T) {
	c := NewContentRenderer(newPages(t, map[string]string{"A": "{{ if true }}yes{{ end }}"}))
	raw, src, offset, err := c.load("A")
	require.NoError(t, err)
	assert.Equal(t, string(raw), src)
	assert.Zero(t, offset)

	page, err := c.Render("A")
	require.NoError(t, err)
	assert.Equal(t, "<p>yes</p>\n", page.HTML)
}

func TestRenderMacroPageIsNotImportedIntoItself(t *testing.T) {
	c := NewContentRenderer(newPages(t, map[string]string{
		DefaultMacroPage: "body",
		"A":              "a",
	}))
	_, src, _, err := c.load(DefaultMacroPage)
	require.NoError(t, err)
	assert.Equal(t, "body", src)

	_, src, offset, err := c.load("A")
	require.NoError(t, err)
	assert.Equal(t, "{{ $m := import \"__default\" }}\na", src)
	assert.Equal(t, 1, offset)
}

func TestRenderLoopsAndConditionals(t *testing.T) {
	c := NewContentRenderer(newPages(t, map[string]string{
		"A": "{{ range $i, $t := dict \"k\" \"v\" }}{{ $i }}={{ $t }}{{ end }}",
	}))
	page, err := c.Render("A")
	require.NoError(t, err)
	assert.Contains(t, page.HTML, "k=v")
}

func TestRenderTagsProducedByMacros(t *testing.T) {
	c := NewContentRenderer(newPages(t, map[string]string{
		DefaultMacroPage: `{{ define "tag" }}<tag>{{ . }}</tag>{{ end }}`,
		"A":              `{{ call $m.tag "auto" }}text`,
	}))
	page, err := c.Render("A")
	require.NoError(t, err)
	assert.Equal(t, []string{"auto"}, page.Tags)
}

func TestRenderSyntaxErrorLocation(t *testing.T) {
	c := NewContentRenderer(newPages(t, map[string]string{
		DefaultMacroPage: `{{ define "greet" }}hi{{ end }}`,
		"A":              "line one\n{{ if }}\n",
	}))
	_, err := c.Render("A")
	require.Error(t, err)

	var se *SyntaxError
	require.True(t, errors.As(err, &se), "got %T: %v", err, err)
	assert.Equal(t, "A", se.Name)
	assert.Equal(t, "A.md", se.File)
	assert.Equal(t, 2, se.Line)
	assert.NotEmpty(t, se.Msg)
}

func TestRenderImportOfMissingPage(t *testing.T) {
	c := NewContentRenderer(newPages(t, map[string]string{
		"A": `{{ $x := import "Nope" }}`,
	}))
	_, err := c.Render("A")
	require.Error(t, err)
	var se *SyntaxError
	assert.True(t, errors.As(err, &se))
}

func TestRenderSelfImportIsBounded(t *testing.T) {
	c := NewContentRenderer(newPages(t, map[string]string{
		"A": `{{ define "loop" }}{{ $x := import "A" }}{{ call $x.loop }}{{ end }}{{ $a := import "A" }}{{ call $a.loop }}`,
	}))
	_, err := c.Render("A")
	require.Error(t, err)
}

func TestRenderCustomExtAndMacroPage(t *testing.T) {
	store := memory.New(".txt")
	require.NoError(t, store.Edit("macros.txt", []byte(`{{ define "x" }}X{{ end }}`)))
	require.NoError(t, store.Edit("A.txt", []byte(`{{ call $m.x }}`)))

	c := NewContentRenderer(store, WithExt(".txt"), WithMacroPage("macros"))
	page, err := c.Render("A")
	require.NoError(t, err)
	assert.Equal(t, "<p>X</p>\n", page.HTML)
}
