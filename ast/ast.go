// Package ast defines the statement tree of the function bodies that get
// lowered to LLVM IR.
package ast

import (
	"strings"

	"github.com/deepnoodle-ai/scopegen/internal/token"
)

// Node represents a portion of the syntax tree. All nodes have position
// information indicating where they appear in the input document.
type Node interface {
	// Pos returns the position of the key that introduced the node.
	Pos() token.Position

	// String returns a human friendly representation of the Node, in a
	// C-like notation.
	String() string
}

// Stmt represents a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// File is the root of a decoded input document.
type File struct {
	Name      string
	Functions []*Func

	lines []string
}

// NewFile creates a File for the given source text.
func NewFile(name, source string, funcs []*Func) *File {
	return &File{Name: name, Functions: funcs, lines: strings.Split(source, "\n")}
}

func (f *File) Pos() token.Position { return token.Position{File: f.Name} }

func (f *File) String() string {
	parts := make([]string, 0, len(f.Functions))
	for _, fn := range f.Functions {
		parts = append(parts, fn.String())
	}
	return strings.Join(parts, "\n\n")
}

// Line returns the source text of the given 1-indexed line, or "" if it does
// not exist.
func (f *File) Line(n int) string {
	if n < 1 || n > len(f.lines) {
		return ""
	}
	return strings.TrimRight(f.lines[n-1], "\r")
}

// Func is a function definition: a name and a body.
type Func struct {
	NamePos token.Position
	Name    string
	Body    *Block
}

func (x *Func) Pos() token.Position { return x.NamePos }

func (x *Func) String() string {
	return "func " + x.Name + "() " + x.Body.String()
}

// Block is a sequence of statements. A nil Block is empty.
type Block struct {
	Start token.Position
	Stmts []Stmt
}

func (x *Block) Pos() token.Position {
	if x == nil {
		return token.NoPos
	}
	return x.Start
}

func (x *Block) Len() int {
	if x == nil {
		return 0
	}
	return len(x.Stmts)
}

func (x *Block) String() string {
	if x.Len() == 0 {
		return "{}"
	}
	var out strings.Builder
	out.WriteString("{\n")
	for _, stmt := range x.Stmts {
		for _, line := range strings.Split(stmt.String(), "\n") {
			out.WriteString("\t")
			out.WriteString(line)
			out.WriteString("\n")
		}
	}
	out.WriteString("}")
	return out.String()
}

// BadStmt represents a statement that could not be decoded. It is used to
// keep decoding after an error, so that later errors are reported too.
type BadStmt struct {
	From token.Position
}

func (x *BadStmt) stmtNode() {}

func (x *BadStmt) Pos() token.Position { return x.From }
func (x *BadStmt) String() string      { return "<bad statement>" }
