// Package errors defines the diagnostics reported while lowering function
// bodies, along with their source locations and display formatting.
package errors

import (
	"fmt"

	"github.com/deepnoodle-ai/scopegen/internal/token"
)

// SourceLocation represents a position in source code.
type SourceLocation struct {
	Filename string
	Line     int    // 1-based line number
	Column   int    // 1-based column number
	Source   string // The line of source code
}

// LocationOf converts a token position into a SourceLocation.
func LocationOf(pos token.Position) SourceLocation {
	if !pos.IsValid() {
		return SourceLocation{Filename: pos.File}
	}
	return SourceLocation{
		Filename: pos.File,
		Line:     pos.LineNumber(),
		Column:   pos.ColumnNumber(),
	}
}

// String returns a formatted string representation of the source location.
func (s SourceLocation) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsZero returns true if the location has not been set.
func (s SourceLocation) IsZero() bool {
	return s.Line == 0 && s.Column == 0
}

// FormattableError is an interface for errors that can be formatted with
// the diagnostic formatter.
type FormattableError interface {
	Error() string
	ToFormatted() *FormattedError
}
