// Package scopegen lowers structured function bodies, described in YAML, to
// LLVM IR with explicit cleanup and exception dispatch code.
//
//	mod, err := scopegen.Compile(ctx, source, scopegen.WithFilename("f.yaml"))
package scopegen

import (
	"context"

	"github.com/llir/llvm/ir"
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/scopegen/ast"
	"github.com/deepnoodle-ai/scopegen/codegen"
	"github.com/deepnoodle-ai/scopegen/parser"
)

// Option configures a compilation.
type Option func(*options)

type options struct {
	filename       string
	logger         *zerolog.Logger
	personality    string
	throwFunc      string
	resumeFunc     string
	typeInfoPrefix string
	maxDepth       int
}

func collectOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) parserOpts() []parser.Option {
	var opts []parser.Option
	if o.filename != "" {
		opts = append(opts, parser.WithFilename(o.filename))
	}
	if o.maxDepth > 0 {
		opts = append(opts, parser.WithMaxDepth(o.maxDepth))
	}
	return opts
}

func (o *options) codegenConfig() *codegen.Config {
	return &codegen.Config{
		Filename:       o.filename,
		Personality:    o.personality,
		ThrowFunc:      o.throwFunc,
		ResumeFunc:     o.resumeFunc,
		TypeInfoPrefix: o.typeInfoPrefix,
		Logger:         o.logger,
	}
}

// WithFilename sets the filename of the input. This is used for error
// messages and as the source filename of the module.
func WithFilename(filename string) Option {
	return func(o *options) {
		o.filename = filename
	}
}

// WithLogger sets the logger receiving debug events from code generation.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithPersonality sets the name of the personality function used by
// functions with landing pads.
func WithPersonality(name string) Option {
	return func(o *options) {
		o.personality = name
	}
}

// WithThrowFunc sets the name of the function called by throw statements.
func WithThrowFunc(name string) Option {
	return func(o *options) {
		o.throwFunc = name
	}
}

// WithResumeFunc sets the name of the function that resumes unwinding once
// the cleanups of a function ran.
func WithResumeFunc(name string) Option {
	return func(o *options) {
		o.resumeFunc = name
	}
}

// WithTypeInfoPrefix sets the prefix that turns an exception type name into
// the name of its type descriptor.
func WithTypeInfoPrefix(prefix string) Option {
	return func(o *options) {
		o.typeInfoPrefix = prefix
	}
}

// WithMaxDepth limits the nesting depth of statement blocks.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// Parse decodes source into its statement tree.
func Parse(ctx context.Context, source string, opts ...Option) (*ast.File, error) {
	o := collectOptions(opts...)
	return parser.Parse(ctx, source, o.parserOpts()...)
}

// Compile parses source and lowers every function to LLVM IR. If only some
// functions fail to lower, the module holds the others and the error lists
// the failures.
func Compile(ctx context.Context, source string, opts ...Option) (*ir.Module, error) {
	o := collectOptions(opts...)
	file, err := parser.Parse(ctx, source, o.parserOpts()...)
	if err != nil {
		return nil, err
	}
	return codegen.Compile(file, o.codegenConfig())
}

// Build is like Compile, but returns the module as LLVM IR assembly. Nothing
// is returned unless every function was lowered.
func Build(ctx context.Context, source string, opts ...Option) (string, error) {
	m, err := Compile(ctx, source, opts...)
	if err != nil {
		return "", err
	}
	return m.String(), nil
}
