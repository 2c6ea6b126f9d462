package errors

import (
	"fmt"
	"strings"
)

// CompileError represents a user-facing error found while lowering one
// function. The function that produced it is abandoned; other functions in
// the same input are still lowered.
type CompileError struct {
	Code        ErrorCode
	Message     string
	Function    string
	Filename    string
	Line        int
	Column      int
	SourceLine  string
	Suggestions []Suggestion
	Note        string
}

// NewCompileError creates a CompileError at the given location.
func NewCompileError(code ErrorCode, loc SourceLocation, format string, args ...any) *CompileError {
	return &CompileError{
		Code:       code,
		Message:    fmt.Sprintf(format, args...),
		Filename:   loc.Filename,
		Line:       loc.Line,
		Column:     loc.Column,
		SourceLine: loc.Source,
	}
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString("compile error: ")
	b.WriteString(e.Message)
	if e.Function != "" {
		fmt.Fprintf(&b, " (in function %q)", e.Function)
	}
	if e.Filename != "" || e.Line > 0 {
		b.WriteString("\n\nlocation: ")
		if e.Filename != "" {
			b.WriteString(e.Filename)
			b.WriteString(":")
		}
		fmt.Fprintf(&b, "%d:%d", e.Line, e.Column)
		fmt.Fprintf(&b, " (line %d, column %d)", e.Line, e.Column)
	}
	return b.String()
}

// Location returns the source location of the error.
func (e *CompileError) Location() SourceLocation {
	return SourceLocation{
		Filename: e.Filename,
		Line:     e.Line,
		Column:   e.Column,
		Source:   e.SourceLine,
	}
}

// WithSuggestions attaches "did you mean" suggestions to the error.
func (e *CompileError) WithSuggestions(suggestions []Suggestion) *CompileError {
	e.Suggestions = suggestions
	return e
}

// WithNote attaches an explanatory note to the error.
func (e *CompileError) WithNote(note string) *CompileError {
	e.Note = note
	return e
}

// FriendlyErrorMessage returns a human-friendly error message.
func (e *CompileError) FriendlyErrorMessage() string {
	return NewFormatter(false).Format(e.ToFormatted())
}

// ToFormatted converts to the FormattedError type for display.
func (e *CompileError) ToFormatted() *FormattedError {
	fe := &FormattedError{
		Code:     e.Code,
		Kind:     "error",
		Message:  e.Message,
		Filename: e.Filename,
		Line:     e.Line,
		Column:   e.Column,
		Note:     e.Note,
	}
	if e.Function != "" && fe.Note == "" {
		fe.Note = fmt.Sprintf("function %q was not generated", e.Function)
	}
	if e.SourceLine != "" {
		fe.SourceLines = []SourceLineEntry{
			{Number: e.Line, Text: e.SourceLine, IsMain: true},
		}
	}
	if len(e.Suggestions) > 0 {
		fe.Hint = FormatSuggestions(e.Suggestions)
	}
	return fe
}
