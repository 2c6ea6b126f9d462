package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"

	"github.com/deepnoodle-ai/scopegen/errors"
)

// exitError ends the program with a status code, after the command already
// printed what went wrong.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

var red = color.New(color.FgRed).SprintFunc()

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// flatten returns the errors aggregated by err.
func flatten(err error) []error {
	var merr *multierror.Error
	if stderrors.As(err, &merr) {
		return merr.Errors
	}
	return []error{err}
}

// compileErrors returns the compile errors carried by err, if any.
func compileErrors(err error) []*errors.CompileError {
	if err == nil {
		return nil
	}
	var out []*errors.CompileError
	for _, e := range flatten(err) {
		var ce *errors.CompileError
		if stderrors.As(e, &ce) {
			out = append(out, ce)
		}
	}
	return out
}

// report prints err and returns the exit status of the program.
func (a *app) report(err error) int {
	var exit *exitError
	if stderrors.As(err, &exit) {
		return exit.code
	}
	var formatted []*errors.FormattedError
	for _, e := range flatten(err) {
		var fe errors.FormattableError
		if stderrors.As(e, &fe) {
			formatted = append(formatted, fe.ToFormatted())
			continue
		}
		fmt.Fprintln(a.stderr, red(e.Error()))
	}
	if len(formatted) > 0 {
		f := errors.NewFormatter(!color.NoColor)
		fmt.Fprint(a.stderr, f.FormatMultiple(formatted))
	}
	return 1
}

// diagnostic is the JSON form of a compile error.
type diagnostic struct {
	Code        string   `json:"code"`
	Kind        string   `json:"kind"`
	Message     string   `json:"message"`
	Function    string   `json:"function,omitempty"`
	File        string   `json:"file,omitempty"`
	Line        int      `json:"line,omitempty"`
	Column      int      `json:"column,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Note        string   `json:"note,omitempty"`
}

func newDiagnostic(e *errors.CompileError) diagnostic {
	d := diagnostic{
		Code:     string(e.Code),
		Kind:     e.Code.Description(),
		Message:  e.Message,
		Function: e.Function,
		File:     e.Filename,
		Line:     e.Line,
		Column:   e.Column,
		Note:     e.Note,
	}
	for _, s := range e.Suggestions {
		d.Suggestions = append(d.Suggestions, s.Value)
	}
	return d
}

func marshalJSON(v any) ([]byte, error) {
	if color.NoColor {
		return json.MarshalIndent(v, "", "  ")
	}
	return prettyjson.Marshal(v)
}
