package codegen

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"github.com/deepnoodle-ai/scopegen/ast"
	"github.com/deepnoodle-ai/scopegen/dis"
	"github.com/deepnoodle-ai/scopegen/errors"
	"github.com/deepnoodle-ai/scopegen/internal/token"
	"github.com/deepnoodle-ai/scopegen/scope"
)

// funcGen is the context for lowering one function body. It implements
// scope.Builder for the function's ScopeStack.
type funcGen struct {
	c    *Compiler
	file *ast.File
	fn   *ast.Func
	f    *ir.Func

	scopes *scope.ScopeStack

	entry *ir.Block
	ret   *ir.Block
	cur   *ir.Block

	// live is false while the current block cannot be reached, after a
	// statement that transfers control elsewhere.
	live bool

	// Labels named by a goto anywhere in the function
	gotoLabels map[string]bool

	// Enclosing loops and switches, innermost last
	jumps []*jumpFrame

	// Position of the statement being lowered
	pos token.Position

	// Number of allocas at the start of the entry block
	allocas int

	// Uses of each local name, for making names unique
	names map[string]int

	ehPtr  *ir.InstAlloca
	ehSel  *ir.InstAlloca
	resume *ir.Block
	usesEH bool

	errs *multierror.Error
}

var _ scope.Reachability = (*funcGen)(nil)

// jumpFrame is an enclosing loop or switch. The flags record whether
// reachable code continues or breaks out of it.
type jumpFrame struct {
	stmt     ast.Stmt
	cont     *ir.Block
	brk      *ir.Block
	contLive bool
	brkLive  bool
}

func newFuncGen(c *Compiler, file *ast.File, fn *ast.Func, f *ir.Func) *funcGen {
	g := &funcGen{
		c:          c,
		file:       file,
		fn:         fn,
		f:          f,
		names:      map[string]int{},
		gotoLabels: map[string]bool{},
		pos:        fn.Pos(),
	}
	logger := c.log.With().Str("func", fn.Name).Logger()
	g.scopes = scope.New(g, scope.WithLogger(logger))
	return g
}

// lower generates the function body.
func (g *funcGen) lower() error {
	if err := g.checkLabels(); err != nil {
		return err
	}
	g.entry = g.NewBlock("entry")
	g.ret = g.NewBlock("return")
	g.ret.NewRet(nil)
	g.enter(g.entry)

	g.block(g.fn.Body, true)
	if g.live {
		g.cur.NewBr(g.ret)
	}
	g.fail(g.scopes.Finish())
	if g.usesEH {
		g.pos = g.fn.Pos()
		g.f.Personality = g.function(g.c.cfg.Personality, personalitySig, false)
	}
	g.prune()
	g.moveToEnd(g.ret)
	return g.errs.ErrorOrNil()
}

// abandon drops the body, leaving a declaration.
func (g *funcGen) abandon() {
	g.f.Blocks = nil
	g.f.Personality = nil
}

// checkLabels reports labels defined more than once, which would make
// lowering the function ambiguous. It also records the labels gotos refer to.
func (g *funcGen) checkLabels() error {
	var errs *multierror.Error
	seen := map[string]bool{}
	for n := range ast.Preorder(g.fn) {
		var name string
		switch n := n.(type) {
		case *ast.Label:
			name = n.Name
		case *ast.Loop:
			name = n.Label
		case *ast.Switch:
			name = n.Label
		case *ast.Goto:
			g.gotoLabels[n.Label] = true
		}
		if name == "" {
			continue
		}
		if seen[name] {
			err := errors.NewCompileError(errors.E2014, g.loc(n.Pos()), "label %q is already defined", name)
			err.Function = g.fn.Name
			errs = multierror.Append(errs, err)
		}
		seen[name] = true
	}
	return errs.ErrorOrNil()
}

// gotoTarget reports whether a goto may enter the tree at root.
func (g *funcGen) gotoTarget(root ast.Node) bool {
	for n := range ast.Preorder(root) {
		var name string
		switch n := n.(type) {
		case *ast.Label:
			name = n.Name
		case *ast.Loop:
			name = n.Label
		case *ast.Switch:
			name = n.Label
		}
		if name != "" && g.gotoLabels[name] {
			return true
		}
	}
	return false
}

// fail records a lowering error. The function is abandoned at the end.
func (g *funcGen) fail(err error) {
	if err == nil {
		return
	}
	if merr, ok := err.(*multierror.Error); ok {
		for _, e := range merr.Errors {
			g.fail(e)
		}
		return
	}
	if ce, ok := err.(*errors.CompileError); ok {
		ce.Function = g.fn.Name
		if ce.SourceLine == "" {
			ce.SourceLine = g.file.Line(ce.Line)
		}
	}
	g.errs = multierror.Append(g.errs, err)
}

func (g *funcGen) loc(pos token.Position) errors.SourceLocation {
	loc := errors.LocationOf(pos)
	if loc.Filename == "" {
		loc.Filename = g.file.Name
	}
	loc.Source = g.file.Line(loc.Line)
	return loc
}

// enter makes b the current block. Blocks entered this way are reachable.
func (g *funcGen) enter(b *ir.Block) {
	g.enterAt(b, true)
}

// enterAt makes b the current block, reachable if live is set.
func (g *funcGen) enterAt(b *ir.Block, live bool) {
	g.cur = b
	g.live = live
}

// Reachable reports whether the current block can be reached.
func (g *funcGen) Reachable() bool {
	return g.live
}

// unreachable continues in a new block that nothing branches to, for the
// statements following a jump.
func (g *funcGen) unreachable(after string) {
	g.cur = g.NewBlock("dummy.after" + after)
	g.live = false
}

func (g *funcGen) uniqueName(name string) string {
	n := g.names[name]
	g.names[name] = n + 1
	if n == 0 {
		return name
	}
	return fmt.Sprintf("%s%d", name, n)
}

// NewBlock appends a new basic block to the function.
func (g *funcGen) NewBlock(name string) *ir.Block {
	return g.f.NewBlock(g.uniqueName(name))
}

// Block returns the current insertion block.
func (g *funcGen) Block() *ir.Block {
	return g.cur
}

// SetBlock moves the insertion point to the end of b.
func (g *funcGen) SetBlock(b *ir.Block) {
	g.cur = b
}

// Alloca allocates a stack slot in the entry block, after the slots
// allocated so far.
func (g *funcGen) Alloca(typ types.Type, name string) *ir.InstAlloca {
	a := g.entry.NewAlloca(typ)
	a.SetName(g.uniqueName(name))
	insts := g.entry.Insts
	copy(insts[g.allocas+1:], insts[g.allocas:len(insts)-1])
	insts[g.allocas] = a
	g.allocas++
	return a
}

// EHPtrSlot returns the slot of the in-flight exception object.
func (g *funcGen) EHPtrSlot() *ir.InstAlloca {
	if g.ehPtr == nil {
		g.ehPtr = g.Alloca(types.I8Ptr, "eh.ptr")
		g.usesEH = true
	}
	return g.ehPtr
}

// EHSelectorSlot returns the slot of the selector of the in-flight exception.
func (g *funcGen) EHSelectorSlot() *ir.InstAlloca {
	if g.ehSel == nil {
		g.ehSel = g.Alloca(types.I32, "eh.selector")
		g.usesEH = true
	}
	return g.ehSel
}

// TypeIDFor returns the llvm.eh.typeid.for intrinsic.
func (g *funcGen) TypeIDFor() *ir.Func {
	return g.function(typeIDForName, typeIDSig, true)
}

// ResumeUnwindBlock returns the block that hands the in-flight exception back
// to the unwinder.
func (g *funcGen) ResumeUnwindBlock() *ir.Block {
	if g.resume == nil {
		g.resume = g.NewBlock("eh.resume")
		ptr := g.resume.NewLoad(types.I8Ptr, g.EHPtrSlot())
		g.resume.NewCall(g.function(g.c.cfg.ResumeFunc, objectSig, false), ptr)
		g.resume.NewUnreachable()
	}
	return g.resume
}

// function returns the function called name, declaring it with sig on first
// use. A name already declared with another signature is reported at the
// statement being lowered, and a detached declaration stands in for it.
func (g *funcGen) function(name string, sig *types.FuncType, nounwind bool) *ir.Func {
	f, ok := g.c.declare(name, sig, nounwind)
	if ok {
		return f
	}
	g.fail(errors.NewCompileError(errors.E2015, g.loc(g.pos),
		"%q is used as %s but was declared as %s", name, sig, f.Sig).
		WithNote("a name refers to one function across the whole input"))
	return newFunc(name, sig, nounwind)
}

func (g *funcGen) ctor(typeName string) *ir.Func {
	return g.function(typeName+".ctor", objectSig, true)
}

func (g *funcGen) dtor(typeName string) *ir.Func {
	return g.function(typeName+".dtor", objectSig, true)
}

// hasPredecessor reports whether any block of the function branches to b.
func (g *funcGen) hasPredecessor(b *ir.Block) bool {
	for _, other := range g.f.Blocks {
		if other.Term == nil {
			continue
		}
		for _, succ := range dis.Successors(other.Term) {
			if succ == b {
				return true
			}
		}
	}
	return false
}

// prune removes the blocks that cannot be reached from the entry block.
// Statements following a jump end up in such blocks, as do cleanups that are
// never left.
func (g *funcGen) prune() {
	reached := map[*ir.Block]bool{g.entry: true}
	work := []*ir.Block{g.entry}
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		if b.Term == nil {
			continue
		}
		for _, succ := range dis.Successors(b.Term) {
			if !reached[succ] {
				reached[succ] = true
				work = append(work, succ)
			}
		}
	}
	kept := g.f.Blocks[:0]
	for _, b := range g.f.Blocks {
		if reached[b] {
			kept = append(kept, b)
		}
	}
	for i := len(kept); i < len(g.f.Blocks); i++ {
		g.f.Blocks[i] = nil
	}
	g.f.Blocks = kept
}

// moveToEnd moves b after every other block of the function, if it is still
// part of it.
func (g *funcGen) moveToEnd(b *ir.Block) {
	blocks := g.f.Blocks
	for i, other := range blocks {
		if other == b {
			copy(blocks[i:], blocks[i+1:])
			blocks[len(blocks)-1] = b
			return
		}
	}
}
