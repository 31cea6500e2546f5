package render

import (
	"bytes"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Attribute lists read "{: #id .class key=value }". goldmark only
// understands the "{#id}" heading form on its own.
var (
	attrLineRe   = regexp.MustCompile(`^\{:[^{}\n]*\}$`)
	attrSuffixRe = regexp.MustCompile(`\s*\{:[^{}\n]*\}\s*$`)
	attrPrefixRe = regexp.MustCompile(`^\{:[^{}\n]*\}`)
)

// parseAttrList turns "{: ... }" into goldmark attributes.
func parseAttrList(src []byte) (parser.Attributes, bool) {
	inner := bytes.TrimSpace(src[2 : len(src)-1])
	buf := make([]byte, 0, len(inner)+2)
	buf = append(buf, '{')
	buf = append(buf, inner...)
	buf = append(buf, '}')
	return parser.ParseAttributes(text.NewReader(buf))
}

func setAttrs(n ast.Node, attrs parser.Attributes) {
	for _, attr := range attrs {
		n.SetAttribute(attr.Name, attr.Value)
	}
}

// attrListTransformer runs before the TOC transformer so the TOC sees
// the final heading ids and titles.
type attrListTransformer struct{}

func (attrListTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	var paragraphs, headings []ast.Node
	var inlines []ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindParagraph:
			paragraphs = append(paragraphs, n)
		case ast.KindHeading:
			headings = append(headings, n)
		case ast.KindLink, ast.KindImage, ast.KindEmphasis, ast.KindCodeSpan, ast.KindAutoLink:
			inlines = append(inlines, n)
		}
		return ast.WalkContinue, nil
	})
	for _, n := range paragraphs {
		paragraphAttrs(n, source)
	}
	for _, n := range headings {
		headingAttrs(n.(*ast.Heading), source, pc)
	}
	for _, n := range inlines {
		inlineAttrs(n, source)
	}
}

// paragraphAttrs consumes a last line that holds only an attribute list.
func paragraphAttrs(n ast.Node, source []byte) {
	lines := n.Lines()
	if lines.Len() < 2 {
		return
	}
	last := lines.At(lines.Len() - 1)
	value := bytes.TrimSpace(last.Value(source))
	if !attrLineRe.Match(value) {
		return
	}
	attrs, ok := parseAttrList(value)
	if !ok {
		return
	}
	var first ast.Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok && t.Segment.Start >= last.Start {
			first = c
			break
		}
	}
	if first == nil {
		return
	}
	for c := first; c != nil; {
		next := c.NextSibling()
		n.RemoveChild(n, c)
		c = next
	}
	if t, ok := n.LastChild().(*ast.Text); ok {
		t.SetSoftLineBreak(false)
		t.SetHardLineBreak(false)
	}
	lines.SetSliced(0, lines.Len()-1)
	setAttrs(n, attrs)
}

// headingAttrs consumes a trailing attribute list and regenerates the
// heading id from the remaining text unless the list names one.
func headingAttrs(h *ast.Heading, source []byte, pc parser.Context) {
	lines := h.Lines()
	if lines.Len() == 0 {
		return
	}
	line := lines.At(lines.Len() - 1)
	value := line.Value(source)
	loc := attrSuffixRe.FindIndex(value)
	if loc == nil {
		return
	}
	attrs, ok := parseAttrList(bytes.TrimSpace(value[loc[0]:]))
	if !ok {
		return
	}
	cut := line.Start + loc[0]
	for c := h.FirstChild(); c != nil; {
		next := c.NextSibling()
		if t, ok := c.(*ast.Text); ok && t.Segment.Stop > cut {
			if t.Segment.Start >= cut {
				h.RemoveChild(h, c)
			} else {
				t.Segment = t.Segment.WithStop(cut)
			}
		}
		c = next
	}
	if t, ok := h.LastChild().(*ast.Text); ok {
		t.Segment = t.Segment.TrimRightSpace(source)
	}
	if _, ok := h.AttributeString("id"); ok {
		h.SetAttribute([]byte("id"), pc.IDs().Generate([]byte(plainText(h, source)), ast.KindHeading))
	}
	setAttrs(h, attrs)
}

// inlineAttrs attaches a "{: ...}" that directly follows an inline
// element to that element.
func inlineAttrs(n ast.Node, source []byte) {
	t, ok := n.NextSibling().(*ast.Text)
	if !ok {
		return
	}
	value := t.Segment.Value(source)
	loc := attrPrefixRe.FindIndex(value)
	if loc == nil {
		return
	}
	attrs, ok := parseAttrList(value[:loc[1]])
	if !ok {
		return
	}
	t.Segment = t.Segment.WithStart(t.Segment.Start + loc[1])
	if t.Segment.Len() == 0 && !t.SoftLineBreak() && !t.HardLineBreak() {
		t.Parent().RemoveChild(t.Parent(), t)
	}
	setAttrs(n, attrs)
}

type attrListExtension struct{}

func (attrListExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(util.Prioritized(attrListTransformer{}, 600)))
}
