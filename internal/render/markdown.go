package render

import (
	"bytes"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/wikilink"
)

// PageBase is the URL prefix wikilinks resolve under.
const PageBase = "/p/"

// LinkBuilder maps a wikilink label to a URL.
type LinkBuilder func(label string) string

// PageURL is the default LinkBuilder: PageBase plus the escaped label.
func PageURL(label string) string {
	return PageBase + EscapePath(label)
}

// EscapePath percent-encodes every byte of s except unreserved characters
// and "/". Unlike url.PathEscape it also encodes sub-delimiters such as
// "+", "&", "=", ":" and "@".
func EscapePath(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			c == '-', c == '.', c == '_', c == '~', c == '/':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0f])
		}
	}
	return b.String()
}

type wikiResolver struct {
	build LinkBuilder
}

func (r wikiResolver) ResolveWikilink(n *wikilink.Node) ([]byte, error) {
	target := strings.TrimSpace(string(n.Target))
	var dest string
	if target != "" {
		dest = r.build(target)
	}
	if len(n.Fragment) > 0 {
		dest += "#" + string(n.Fragment)
	}
	return []byte(dest), nil
}

// Markdown converts page text to HTML5. It is safe for concurrent use.
type Markdown struct {
	md goldmark.Markdown
}

func NewMarkdown(build LinkBuilder) *Markdown {
	if build == nil {
		build = PageURL
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Footnote,
			&wikilink.Extender{Resolver: wikiResolver{build: build}},
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
				highlighting.WithFormatOptions(
					chromahtml.TabWidth(4),
				),
			),
			attrListExtension{},
			tocExtension{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	return &Markdown{md: md}
}

func (m *Markdown) Convert(src string) (string, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
