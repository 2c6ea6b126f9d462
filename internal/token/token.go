// Package token defines the statement keywords and source positions used when
// decoding function bodies.
package token

import "fmt"

// Type describes the kind of a statement as the keyword that introduces it.
type Type string

// Position points to a particular location in an input document.
type Position struct {
	Line   int    // 0-indexed line number
	Column int    // 0-indexed column number
	File   string // filename
}

// LineNumber returns the 1-indexed line number for this position in the input.
func (p Position) LineNumber() int {
	return p.Line + 1
}

// ColumnNumber returns the 1-indexed column number for this position in the input.
func (p Position) ColumnNumber() int {
	return p.Column + 1
}

// IsValid returns true if this position has been set.
func (p Position) IsValid() bool {
	return p.File != "" || p.Line > 0 || p.Column > 0
}

func (p Position) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.LineNumber(), p.ColumnNumber())
	}
	return fmt.Sprintf("%d:%d", p.LineNumber(), p.ColumnNumber())
}

// NoPos is the zero value Position, representing an invalid/unset position.
var NoPos = Position{}

// Statement keywords
const (
	ILLEGAL  Type = "ILLEGAL"
	BREAK    Type = "break"
	CALL     Type = "call"
	CONTINUE Type = "continue"
	GOTO     Type = "goto"
	IF       Type = "if"
	LABEL    Type = "label"
	LOOP     Type = "loop"
	RETURN   Type = "return"
	SCOPE    Type = "scope"
	SWITCH   Type = "switch"
	THROW    Type = "throw"
	TRY      Type = "try"
)

var keywords = map[string]Type{
	"break":    BREAK,
	"call":     CALL,
	"continue": CONTINUE,
	"goto":     GOTO,
	"if":       IF,
	"label":    LABEL,
	"loop":     LOOP,
	"return":   RETURN,
	"scope":    SCOPE,
	"switch":   SWITCH,
	"throw":    THROW,
	"try":      TRY,
}

// Lookup returns the statement type introduced by the given key, or ILLEGAL.
func Lookup(key string) Type {
	if tok, ok := keywords[key]; ok {
		return tok
	}
	return ILLEGAL
}

// Keywords returns every statement keyword, in no particular order.
func Keywords() []string {
	names := make([]string, 0, len(keywords))
	for k := range keywords {
		names = append(names, k)
	}
	return names
}
