package render

import (
	"errors"
	"fmt"
	htmltemplate "html/template"
	"regexp"
	"strconv"
	"text/template"
)

// ErrNotFound is returned for pages that do not exist in storage.
var ErrNotFound = errors.New("not found")

// SyntaxError is a template parse or execution failure, located in the
// source it came from.
type SyntaxError struct {
	Name string // template name
	File string // backing storage entry
	Line int    // 1-based line in File, 0 when unknown
	Msg  string
	err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s (template %q, line %d, file %q)", e.Msg, e.Name, e.Line, e.File)
}

func (e *SyntaxError) Unwrap() error { return e.err }

// Parse and exec errors from text/template read "template: NAME:LINE: MSG"
// or "template: NAME:LINE:COL: MSG".
var templateErrRe = regexp.MustCompile(`^template: (.+?):(\d+):(?:\d+:)? ?(.*)$`)

// AsSyntaxError converts a template error into a *SyntaxError. lineOffset
// is subtracted from the reported line to account for synthesized
// preamble lines. Errors that do not come from a template are returned
// unchanged.
func AsSyntaxError(err error, name, file string, lineOffset int) error {
	if err == nil {
		return nil
	}
	var se *SyntaxError
	if errors.As(err, &se) {
		return err
	}
	out := &SyntaxError{Name: name, File: file, Msg: err.Error(), err: err}

	var herr *htmltemplate.Error
	if errors.As(err, &herr) {
		if herr.Name != "" {
			out.Name = herr.Name
		}
		out.Line = herr.Line
		out.Msg = herr.Description
		return out.located(name, lineOffset)
	}

	msg := err.Error()
	var exec template.ExecError
	isExec := errors.As(err, &exec)
	if isExec {
		if exec.Name != "" {
			out.Name = exec.Name
		}
		msg = exec.Err.Error()
	}
	m := templateErrRe.FindStringSubmatch(msg)
	if m == nil {
		if isExec {
			return out
		}
		return err
	}
	out.Name = m[1]
	out.Line, _ = strconv.Atoi(m[2])
	out.Msg = m[3]
	return out.located(name, lineOffset)
}

// located shifts the line back by offset when the error points into the
// template the offset belongs to.
func (e *SyntaxError) located(name string, offset int) *SyntaxError {
	if e.Name != name || e.Line <= 0 {
		return e
	}
	e.Line -= offset
	if e.Line < 1 {
		e.Line = 1
	}
	return e
}
