package render

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// DefaultMacroPage is the page imported as $m into every other page.
const DefaultMacroPage = "__default"

const maxImportDepth = 16

// Namespace exposes the {{ define }} blocks of an imported page as
// callable macros: {{ call $m.greet "arg" }}.
type Namespace map[string]func(args ...any) (string, error)

// expansion carries the state of one page expansion.
type expansion struct {
	c     *ContentRenderer
	depth int
}

func (e *expansion) parse(name, src string) (*template.Template, error) {
	return template.New(name).
		Option("missingkey=zero").
		Funcs(template.FuncMap{
			"import": e.importPage,
			"dict":   dict,
		}).
		Parse(src)
}

func (e *expansion) run(name, src string, offset int) (string, error) {
	file := e.c.file(name)
	t, err := e.parse(name, src)
	if err != nil {
		return "", AsSyntaxError(err, name, file, offset)
	}
	var b strings.Builder
	if err := t.Execute(&b, map[string]any{}); err != nil {
		return "", AsSyntaxError(err, name, file, offset)
	}
	return b.String(), nil
}

func (e *expansion) importPage(name string) (Namespace, error) {
	if e.depth >= maxImportDepth {
		return nil, fmt.Errorf("import %q: nested deeper than %d imports", name, maxImportDepth)
	}
	_, src, offset, err := e.c.load(name)
	if err != nil {
		return nil, fmt.Errorf("import %q: %w", name, err)
	}
	file := e.c.file(name)
	child := &expansion{c: e.c, depth: e.depth + 1}
	t, err := child.parse(name, src)
	if err != nil {
		return nil, AsSyntaxError(err, name, file, offset)
	}

	ns := make(Namespace)
	for _, def := range t.Templates() {
		if def.Name() == name {
			continue
		}
		ns[def.Name()] = func(args ...any) (string, error) {
			var b strings.Builder
			if err := def.Execute(&b, macroData(args)); err != nil {
				return "", AsSyntaxError(err, name, file, offset)
			}
			return b.String(), nil
		}
	}
	return ns, nil
}

func macroData(args []any) any {
	switch len(args) {
	case 0:
		return nil
	case 1:
		return args[0]
	default:
		return args
	}
}

func dict(values ...any) (map[string]any, error) {
	if len(values)%2 != 0 {
		return nil, errors.New("dict requires even number of arguments")
	}
	out := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, errors.New("dict keys must be strings")
		}
		out[key] = values[i+1]
	}
	return out, nil
}
