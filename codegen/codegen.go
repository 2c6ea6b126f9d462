// Package codegen lowers the statement tree of package ast to LLVM IR.
//
// # Two-Pass Lowering
//
// Every function of the input is declared first, so calls may refer to
// functions that are defined later in the document. The bodies are lowered in
// the second pass, each with its own scope.ScopeStack.
//
// # Runtime Interface
//
// Generated code relies on a small set of external symbols:
//
//   - <Type>.ctor(i8*) and <Type>.dtor(i8*) construct and destroy scoped locals
//   - <prefix><Type> is the i8 global used as type descriptor of an exception
//   - the throw function, void(i8*), throws a new exception of a type
//   - the resume function, void(i8*), continues unwinding after cleanups ran
//   - the personality function drives the landing pads
//
// Functions called by the input are declared as void(), conditions as i1()
// and switch selectors as i32(). Constructors, destructors, conditions and
// selectors are declared nounwind; only calls and throw statements raise
// exceptions. The first declaration of a name fixes its signature, and using
// the name with another signature is an error.
//
// # Errors
//
// A function that cannot be lowered is abandoned: its body is dropped, its
// declaration stays, and the remaining functions are still lowered. All
// errors are returned together.
package codegen

import (
	"github.com/hashicorp/go-multierror"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/scopegen/ast"
)

const (
	// DefaultPersonality is the personality function of the Itanium C++ ABI.
	DefaultPersonality = "__gxx_personality_v0"

	// DefaultThrowFunc is the function called by throw statements.
	DefaultThrowFunc = "__scopegen_throw"

	// DefaultResumeFunc is the function that resumes unwinding.
	DefaultResumeFunc = "_Unwind_Resume"

	// DefaultTypeInfoPrefix is prepended to exception type names to form the
	// name of their type descriptor.
	DefaultTypeInfoPrefix = "typeinfo."

	typeIDForName = "llvm.eh.typeid.for"
)

// Signatures of generated declarations.
var (
	callSig        = types.NewFunc(types.Void)
	condSig        = types.NewFunc(types.I1)
	selectorSig    = types.NewFunc(types.I32)
	objectSig      = types.NewFunc(types.Void, types.I8Ptr)
	typeIDSig      = types.NewFunc(types.I32, types.I8Ptr)
	personalitySig = &types.FuncType{RetType: types.I32, Variadic: true}
)

// Config holds code generation options.
type Config struct {
	// Filename is the input filename, used for error messages. Defaults to
	// the name recorded in the ast.File.
	Filename string

	// Personality is the name of the personality function.
	Personality string

	// ThrowFunc is the name of the function called by throw statements.
	ThrowFunc string

	// ResumeFunc is the name of the function that resumes unwinding.
	ResumeFunc string

	// TypeInfoPrefix is prepended to exception type names to form the name
	// of their type descriptor.
	TypeInfoPrefix string

	// Logger receives debug events. Nil disables logging.
	Logger *zerolog.Logger
}

func (cfg *Config) withDefaults() Config {
	out := Config{}
	if cfg != nil {
		out = *cfg
	}
	if out.Personality == "" {
		out.Personality = DefaultPersonality
	}
	if out.ThrowFunc == "" {
		out.ThrowFunc = DefaultThrowFunc
	}
	if out.ResumeFunc == "" {
		out.ResumeFunc = DefaultResumeFunc
	}
	if out.TypeInfoPrefix == "" {
		out.TypeInfoPrefix = DefaultTypeInfoPrefix
	}
	return out
}

// Compiler lowers the functions of one input document into one module.
type Compiler struct {
	cfg Config
	log zerolog.Logger
	m   *ir.Module

	// Declared and defined functions by name
	funcs map[string]*ir.Func

	// Exception type descriptors by type name
	typeInfos map[string]*ir.Global
}

// Compile lowers every function of file into a new module. Pass nil for cfg
// to use default settings. If some functions could not be lowered, the
// module is returned along with the error, which aggregates one or more
// *errors.CompileError values.
func Compile(file *ast.File, cfg *Config) (*ir.Module, error) {
	return New(cfg).Compile(file)
}

// New creates a Compiler. Pass nil for cfg to use defaults.
func New(cfg *Config) *Compiler {
	c := &Compiler{
		cfg:       cfg.withDefaults(),
		log:       zerolog.Nop(),
		m:         ir.NewModule(),
		funcs:     map[string]*ir.Func{},
		typeInfos: map[string]*ir.Global{},
	}
	if c.cfg.Logger != nil {
		c.log = *c.cfg.Logger
	}
	return c
}

// Module returns the module being generated.
func (c *Compiler) Module() *ir.Module {
	return c.m
}

// Compile lowers every function of file into the compiler's module.
func (c *Compiler) Compile(file *ast.File) (*ir.Module, error) {
	if c.cfg.Filename != "" {
		file.Name = c.cfg.Filename
	}
	if file.Name != "" {
		c.m.SourceFilename = file.Name
	}

	// First pass: declare every function so calls may refer forward.
	defined := make([]*ir.Func, len(file.Functions))
	for i, fn := range file.Functions {
		defined[i], _ = c.declare(fn.Name, callSig, false)
	}

	// Second pass: lower the bodies.
	var errs *multierror.Error
	for i, fn := range file.Functions {
		g := newFuncGen(c, file, fn, defined[i])
		if err := g.lower(); err != nil {
			errs = multierror.Append(errs, err)
			g.abandon()
			c.log.Debug().
				Str("func", fn.Name).
				Err(err).
				Msg("function abandoned")
			continue
		}
		c.log.Debug().
			Str("func", fn.Name).
			Int("blocks", len(g.f.Blocks)).
			Msg("function lowered")
	}
	return c.m, errs.ErrorOrNil()
}

// declare returns the function with the given name, declaring it with sig
// on first use. The result is false if the name is already declared with a
// different signature.
func (c *Compiler) declare(name string, sig *types.FuncType, nounwind bool) (*ir.Func, bool) {
	if f, ok := c.funcs[name]; ok {
		return f, f.Sig.Equal(sig)
	}
	f := newFunc(name, sig, nounwind)
	f.Parent = c.m
	c.m.Funcs = append(c.m.Funcs, f)
	c.funcs[name] = f
	return f, true
}

func newFunc(name string, sig *types.FuncType, nounwind bool) *ir.Func {
	params := make([]*ir.Param, len(sig.Params))
	for i, typ := range sig.Params {
		params[i] = ir.NewParam("", typ)
	}
	f := ir.NewFunc(name, sig.RetType, params...)
	f.Sig.Variadic = sig.Variadic
	if nounwind {
		f.FuncAttrs = append(f.FuncAttrs, enum.FuncAttrNoUnwind)
	}
	return f
}

// typeInfo returns the type descriptor of an exception type.
func (c *Compiler) typeInfo(typeName string) *ir.Global {
	if g, ok := c.typeInfos[typeName]; ok {
		return g
	}
	g := c.m.NewGlobal(c.cfg.TypeInfoPrefix+typeName, types.I8)
	c.typeInfos[typeName] = g
	return g
}
