package render

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// tocMarker on a line of its own is replaced by the table of contents.
const tocMarker = "[TOC]"

var kindTOC = ast.NewNodeKind("TOC")

type tocEntry struct {
	level int
	id    string
	title string
}

type tocBlock struct {
	ast.BaseBlock
	entries []tocEntry
}

func (n *tocBlock) Kind() ast.NodeKind { return kindTOC }

func (n *tocBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

type tocTransformer struct{}

func (tocTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	var markers []ast.Node
	var entries []tocEntry
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			id := ""
			if v, ok := node.AttributeString("id"); ok {
				if b, ok := v.([]byte); ok {
					id = string(b)
				}
			}
			entries = append(entries, tocEntry{level: node.Level, id: id, title: plainText(node, source)})
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			lines := node.Lines()
			if lines.Len() == 1 {
				seg := lines.At(0)
				if string(bytes.TrimSpace(seg.Value(source))) == tocMarker {
					markers = append(markers, node)
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	for _, marker := range markers {
		parent := marker.Parent()
		if parent == nil {
			continue
		}
		parent.ReplaceChild(parent, marker, &tocBlock{entries: entries})
	}
}

func plainText(n ast.Node, source []byte) string {
	var b bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

type tocRenderer struct{}

func (tocRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(kindTOC, renderTOC)
}

func renderTOC(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	block := n.(*tocBlock)
	_, _ = w.WriteString("<div class=\"toc\">\n")
	var levels []int
	for _, e := range block.entries {
		if len(levels) == 0 || e.level > levels[len(levels)-1] {
			_, _ = w.WriteString("<ul>\n")
			levels = append(levels, e.level)
		} else {
			_, _ = w.WriteString("</li>\n")
			for len(levels) > 1 && e.level < levels[len(levels)-1] {
				levels = levels[:len(levels)-1]
				_, _ = w.WriteString("</ul>\n</li>\n")
			}
		}
		_, _ = w.WriteString(`<li><a href="#` + html.EscapeString(e.id) + `">` + html.EscapeString(e.title) + "</a>")
	}
	if len(levels) > 0 {
		_, _ = w.WriteString("</li>\n")
		for len(levels) > 1 {
			levels = levels[:len(levels)-1]
			_, _ = w.WriteString("</ul>\n</li>\n")
		}
		_, _ = w.WriteString("</ul>\n")
	}
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}

type tocExtension struct{}

func (tocExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(util.Prioritized(tocTransformer{}, 500)))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(util.Prioritized(tocRenderer{}, 500)))
}
