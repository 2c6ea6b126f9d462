// Package parser decodes YAML documents describing function bodies into the
// statement tree of package ast.
//
// A parser is created by calling New() with the document text as input. The
// parser should then be used only once, by calling parser.Parse() to produce
// the AST.
package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/deepnoodle-ai/scopegen/ast"
	"github.com/deepnoodle-ai/scopegen/errors"
	"github.com/deepnoodle-ai/scopegen/internal/token"
)

// Parse the provided input as a YAML document and return the AST. This is
// shorthand for creating a Parser and calling Parse on it.
func Parse(ctx context.Context, input string, options ...Option) (*ast.File, error) {
	return New(input, options...).Parse(ctx)
}

// Option is a configuration function for a Parser.
type Option func(*Parser)

// WithFilename sets the file name reported in positions and errors.
func WithFilename(filename string) Option {
	return func(p *Parser) {
		p.filename = filename
	}
}

// WithMaxDepth sets the maximum nesting depth of statement blocks.
// This prevents stack overflow on deeply nested input.
// The default is 500.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		p.maxDepth = depth
	}
}

// DefaultMaxDepth is the default maximum nesting depth for parsing.
const DefaultMaxDepth = 500

// Parser object
type Parser struct {
	// the Context supplied in the Parse() call
	ctx context.Context

	input string
	lines []string

	// The filename of the input
	filename string

	// decoding errors collected so far
	errors *multierror.Error

	// Current block nesting depth
	depth int

	// Maximum allowed block nesting depth
	maxDepth int
}

// New returns a Parser for the given document.
func New(input string, options ...Option) *Parser {
	p := &Parser{
		input:    input,
		lines:    strings.Split(input, "\n"),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Parse decodes the document. All decoding errors are collected and returned
// together; the AST is only returned if there were none.
func (p *Parser) Parse(ctx context.Context) (*ast.File, error) {
	p.ctx = ctx
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(p.input), &doc); err != nil {
		return nil, errors.NewCompileError(errors.E1002, errors.SourceLocation{Filename: p.filename},
			"invalid YAML document: %s", strings.TrimPrefix(err.Error(), "yaml: "))
	}
	var funcs []*ast.Func
	if root := documentRoot(&doc); root == nil {
		p.errorf(errors.E1003, &doc, "missing field %q", "functions")
	} else {
		funcs = p.parseFile(root)
	}
	if err := p.ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.errors.ErrorOrNil(); err != nil {
		return nil, err
	}
	return ast.NewFile(p.filename, p.input, funcs), nil
}

func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	return doc.Content[0]
}

func (p *Parser) parseFile(root *yaml.Node) []*ast.Func {
	fields := p.fields(root, "document", "functions")
	if fields == nil {
		return nil
	}
	list, ok := fields["functions"]
	if !ok {
		p.errorf(errors.E1003, root, "missing field %q", "functions")
		return nil
	}
	if list.Kind != yaml.SequenceNode {
		p.errorf(errors.E1002, list, "functions must be a list")
		return nil
	}
	var funcs []*ast.Func
	seen := map[string]bool{}
	for _, n := range list.Content {
		if p.ctx.Err() != nil {
			return nil
		}
		fn := p.parseFunc(n)
		if fn == nil {
			continue
		}
		if seen[fn.Name] {
			p.errorf(errors.E1004, n, "function %q is defined more than once", fn.Name)
			continue
		}
		seen[fn.Name] = true
		funcs = append(funcs, fn)
	}
	return funcs
}

func (p *Parser) parseFunc(n *yaml.Node) *ast.Func {
	fields := p.fields(n, "function", "name", "body")
	if fields == nil {
		return nil
	}
	nameNode, ok := fields["name"]
	if !ok {
		p.errorf(errors.E1003, n, "function is missing field %q", "name")
		return nil
	}
	name, ok := p.name(nameNode, "function name")
	if !ok {
		return nil
	}
	return &ast.Func{
		NamePos: p.pos(nameNode),
		Name:    name,
		Body:    p.parseBlock(fields["body"]),
	}
}

// parseBlock decodes a statement list. A missing or null list is a nil block.
func (p *Parser) parseBlock(n *yaml.Node) *ast.Block {
	if n == nil || isNull(n) {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		p.errorf(errors.E1002, n, "expected a list of statements")
		return nil
	}
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.maxDepth {
		p.errorf(errors.E1002, n, "maximum nesting depth of %d exceeded", p.maxDepth)
		return nil
	}
	block := &ast.Block{Start: p.pos(n)}
	for _, item := range n.Content {
		block.Stmts = append(block.Stmts, p.parseStmt(item))
	}
	return block
}

func (p *Parser) pos(n *yaml.Node) token.Position {
	pos := token.Position{File: p.filename}
	if n.Line > 0 {
		pos.Line = n.Line - 1
	}
	if n.Column > 0 {
		pos.Column = n.Column - 1
	}
	return pos
}

func (p *Parser) location(n *yaml.Node) errors.SourceLocation {
	loc := errors.SourceLocation{Filename: p.filename, Line: n.Line, Column: n.Column}
	if n.Line > 0 && n.Line <= len(p.lines) {
		loc.Source = strings.TrimRight(p.lines[n.Line-1], "\r")
	}
	return loc
}

func (p *Parser) errorf(code errors.ErrorCode, n *yaml.Node, format string, args ...any) *errors.CompileError {
	err := errors.NewCompileError(code, p.location(n), format, args...)
	p.errors = multierror.Append(p.errors, err)
	return err
}

// fields returns the key/value pairs of a mapping node, reporting keys that
// are not in allowed.
func (p *Parser) fields(n *yaml.Node, what string, allowed ...string) map[string]*yaml.Node {
	if n.Kind != yaml.MappingNode {
		p.errorf(errors.E1002, n, "%s must be a mapping", what)
		return nil
	}
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		if !contains(allowed, key.Value) {
			p.errorf(errors.E1002, key, "unknown field %q in %s", key.Value, what).
				WithSuggestions(errors.SuggestSimilar(key.Value, allowed))
			continue
		}
		if _, dup := out[key.Value]; dup {
			p.errorf(errors.E1002, key, "field %q given twice in %s", key.Value, what)
			continue
		}
		out[key.Value] = value
	}
	return out
}

// name decodes a required, non-empty scalar.
func (p *Parser) name(n *yaml.Node, what string) (string, bool) {
	if n.Kind != yaml.ScalarNode || isNull(n) || n.Value == "" {
		p.errorf(errors.E1002, n, "%s must be a non-empty string", what)
		return "", false
	}
	return n.Value, true
}

// optionalName decodes a scalar that may be null or empty.
func (p *Parser) optionalName(n *yaml.Node, what string) (string, bool) {
	if n == nil || isNull(n) {
		return "", true
	}
	if n.Kind != yaml.ScalarNode {
		p.errorf(errors.E1002, n, "%s must be a string", what)
		return "", false
	}
	return n.Value, true
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func describe(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "list"
	case yaml.ScalarNode:
		return fmt.Sprintf("value %q", n.Value)
	default:
		return "node"
	}
}
