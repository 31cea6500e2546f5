package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownWikilinks(t *testing.T) {
	md := NewMarkdown(nil)
	out, err := md.Convert("See [[My Page]] and [[Other#part]].")
	require.NoError(t, err)
	assert.Contains(t, out, `href="/p/My%20Page"`)
	assert.Contains(t, out, `href="/p/Other#part"`)
}

func TestMarkdownInjectedLinkBuilder(t *testing.T) {
	md := NewMarkdown(func(label string) string {
		return "/wiki/" + strings.ReplaceAll(label, " ", "_") + ".html"
	})
	out, err := md.Convert("[[My Page]]")
	require.NoError(t, err)
	assert.Contains(t, out, `href="/wiki/My_Page.html"`)
}

func TestMarkdownExtensions(t *testing.T) {
	md := NewMarkdown(nil)
	src := strings.Join([]string{
		"# Title {#custom}",
		"",
		"| a | b |",
		"|---|---|",
		"| 1 | 2 |",
		"",
		"Note[^1].",
		"",
		"[^1]: footnote text",
		"",
		"```",
		"code",
		"```",
	}, "\n")
	out, err := md.Convert(src)
	require.NoError(t, err)
	assert.Contains(t, out, `<h1 id="custom">Title</h1>`)
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "footnote text")
	assert.Contains(t, out, "code")
}

func TestMarkdownAttributeLists(t *testing.T) {
	md := NewMarkdown(nil)
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"paragraph", "para text\n{: .note }\n", `<p class="note">para text</p>`},
		{"paragraph id and key", "para\n{: #p1 title=\"hi\" }\n", `<p id="p1" title="hi">para</p>`},
		{"heading suffix", "# Head {: #custom .cls }", `<h1 id="custom" class="cls">Head</h1>`},
		{"heading class keeps generated id", "## Plain {: .cls }", `<h2 id="plain" class="cls">Plain</h2>`},
		{"heading native form", "# Title {#native}", `<h1 id="native">Title</h1>`},
		{"link", "[link](http://x){: .ext }", `<p><a href="http://x" class="ext">link</a></p>`},
		{"link followed by text", "[a](http://x){: .ext } after", `<a href="http://x" class="ext">a</a> after`},
		{"emphasis", "*em*{: .hot }", `<em class="hot">em</em>`},
		{"lone braces stay text", "{: .x }\n", `<p>{: .x }</p>`},
		{"plain braces stay text", "a {b} c\n", `<p>a {b} c</p>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := md.Convert(tc.src)
			require.NoError(t, err)
			assert.Contains(t, out, tc.want)
			assert.NotContains(t, out, "{: .ext")
		})
	}
}

func TestMarkdownTableOfContentsUsesAttributeIDs(t *testing.T) {
	out, err := NewMarkdown(nil).Convert("[TOC]\n\n# One {: #first }\n")
	require.NoError(t, err)
	assert.Contains(t, out, `<a href="#first">One</a>`)
}

func TestPageURLEscapesLikeAPath(t *testing.T) {
	assert.Equal(t, "/p/C%2B%2B", PageURL("C++"))
	assert.Equal(t, "/p/My%20Page", PageURL("My Page"))
	assert.Equal(t, "/p/a%26b%3Dc%3Ad%40e", PageURL("a&b=c:d@e"))
	assert.Equal(t, "/p/a/b", PageURL("a/b"))
	assert.Equal(t, "/p/%C3%A9t%C3%A9", PageURL("été"))

	out, err := NewMarkdown(nil).Convert("[[C++]]")
	require.NoError(t, err)
	assert.Contains(t, out, `href="/p/C%2B%2B"`)
}

func TestMarkdownTableOfContents(t *testing.T) {
	md := NewMarkdown(nil)
	src := "[TOC]\n\n# One\n\n## Two\n\n# Three\n"
	out, err := md.Convert(src)
	require.NoError(t, err)
	assert.NotContains(t, out, "[TOC]")
	assert.Contains(t, out, `<div class="toc">`)
	assert.Contains(t, out, `<a href="#one">One</a>`)
	assert.Contains(t, out, `<a href="#two">Two</a>`)
	assert.Contains(t, out, `<a href="#three">Three</a>`)
	assert.Less(t, strings.Index(out, `class="toc"`), strings.Index(out, `<h1 id="one"`))
}

func TestMarkdownPassesRawHTML(t *testing.T) {
	out, err := NewMarkdown(nil).Convert("<div class=\"box\">hi</div>\n")
	require.NoError(t, err)
	assert.Contains(t, out, `<div class="box">hi</div>`)
}
