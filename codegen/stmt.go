package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/deepnoodle-ai/scopegen/ast"
	"github.com/deepnoodle-ai/scopegen/errors"
	"github.com/deepnoodle-ai/scopegen/errz"
	"github.com/deepnoodle-ai/scopegen/scope"
)

// block lowers a statement list. If tail is set, the list ends the function
// body, and a scoped last statement exits straight to the return block.
func (g *funcGen) block(b *ast.Block, tail bool) {
	if b == nil {
		return
	}
	for i, stmt := range b.Stmts {
		g.stmt(stmt, tail && i == len(b.Stmts)-1)
	}
}

func (g *funcGen) stmt(stmt ast.Stmt, tail bool) {
	g.pos = stmt.Pos()
	switch s := stmt.(type) {
	case *ast.Scope:
		g.scopeStmt(s, tail)
	case *ast.Try:
		g.tryStmt(s, tail)
	case *ast.Loop:
		g.loopStmt(s)
	case *ast.Switch:
		g.switchStmt(s)
	case *ast.If:
		g.ifStmt(s)
	case *ast.Label:
		g.labelStmt(s)
	case *ast.Goto:
		g.fail(g.scopes.JumpToLabel(g.loc(s.Pos()), s.Label))
		g.afterJump("goto")
	case *ast.Break:
		g.breakStmt(s)
	case *ast.Continue:
		g.continueStmt(s)
	case *ast.Return:
		g.scopes.RunAllCleanups(g.ret)
		g.afterJump("return")
	case *ast.Call:
		g.callStmt(s)
	case *ast.Throw:
		g.throwStmt(s)
	default:
		errz.Panicf(errz.ErrState, "cannot lower %T at %s", stmt, stmt.Pos())
	}
}

// afterJump starts the unreachable code following a jump statement.
func (g *funcGen) afterJump(kind string) {
	if g.cur.Term == nil {
		// The jump was rejected.
		g.cur.NewUnreachable()
	}
	g.unreachable(kind)
}

// exitBlock returns the block a scoped statement continues at.
func (g *funcGen) exitBlock(name string, tail bool) *ir.Block {
	if tail {
		return g.ret
	}
	return g.NewBlock(name)
}

// continueAt continues after a scoped statement. live tells whether the
// statement body fell through.
func (g *funcGen) continueAt(after *ir.Block, live bool) {
	if after == g.ret {
		g.unreachable("return")
		return
	}
	g.enterAt(after, live)
}

// withCleanup lowers body with cleanup registered as the code to run
// whenever body is left. The cleanup code is emitted once, at the nesting
// that encloses the statement. Only the fall-through out of body reaches the
// block after the statement.
func (g *funcGen) withCleanup(name, afterName string, tail bool, cleanup, body func()) {
	outer := g.scopes.CurrentCleanupScope()

	saved, live := g.cur, g.live
	begin := g.NewBlock(name)
	g.enter(begin)
	cleanup()
	end := g.cur
	g.cur, g.live = saved, live

	g.scopes.PushCleanup(begin, end)
	body()
	after := g.exitBlock(afterName, tail)
	fallthru := g.live
	if fallthru {
		g.scopes.RunCleanups(outer, after)
	}
	g.scopes.PopCleanups(outer)
	g.continueAt(after, fallthru)
}

func (g *funcGen) scopeStmt(s *ast.Scope, tail bool) {
	obj := g.Alloca(types.I8, s.Var)
	g.scopes.CallOrInvoke(g.ctor(s.Type), []value.Value{obj})
	g.withCleanup("cleanup."+s.Var, "scope.end", tail,
		func() { g.scopes.CallOrInvoke(g.dtor(s.Type), []value.Value{obj}) },
		func() { g.block(s.Body, false) },
	)
}

func (g *funcGen) tryStmt(s *ast.Try, tail bool) {
	switch {
	case s.Finally == nil:
		g.tryCatch(s)
	case len(s.Catches) == 0:
		g.withCleanup("finally", "try.end", tail,
			func() { g.block(s.Finally, false) },
			func() { g.block(s.Body, false) },
		)
	default:
		// The catch clauses are nested inside the finally block.
		g.withCleanup("finally", "try.end", tail,
			func() { g.block(s.Finally, false) },
			func() { g.tryCatch(s) },
		)
	}
}

// tryCatch lowers the body and catch clauses of a try statement. The catch
// bodies follow the body, at the enclosing nesting, so that exceptions thrown
// in them propagate outwards. A catch body is reachable once a landing pad
// dispatches to it.
func (g *funcGen) tryCatch(s *ast.Try) {
	depth := g.scopes.CurrentCleanupScope()
	end := g.NewBlock("catch.end")
	bodies := make([]*ir.Block, len(s.Catches))
	for i, c := range s.Catches {
		bodies[i] = g.NewBlock("catch." + c.Type)
	}

	// The first clause is tested first.
	for i := len(s.Catches) - 1; i >= 0; i-- {
		g.scopes.PushCatch(g.c.typeInfo(s.Catches[i].Type), bodies[i])
	}
	g.block(s.Body, false)
	endLive := g.live
	if g.live {
		g.scopes.RunCleanups(depth, end)
	}
	for range s.Catches {
		g.scopes.PopCatch()
	}

	g.scopes.PushUnwindMode(scope.UnwindAlways)
	for i, c := range s.Catches {
		g.pos = c.Pos()
		g.enterAt(bodies[i], g.hasPredecessor(bodies[i]))
		if g.live {
			exn := g.cur.NewLoad(types.I8Ptr, g.EHPtrSlot())
			exn.SetName(g.uniqueName("exn"))
		}
		g.block(c.Body, false)
		if g.live {
			endLive = true
			g.scopes.RunCleanups(depth, end)
		}
	}
	g.scopes.PopUnwindMode()
	g.enterAt(end, endLive)
}

// innermost returns the innermost enclosing loop or switch, or only loops if
// loops is set.
func (g *funcGen) innermost(loops bool) *jumpFrame {
	for i := len(g.jumps) - 1; i >= 0; i-- {
		if f := g.jumps[i]; !loops || f.cont != nil {
			return f
		}
	}
	return nil
}

func (g *funcGen) frameOf(stmt any) *jumpFrame {
	for i := len(g.jumps) - 1; i >= 0; i-- {
		if f := g.jumps[i]; f.stmt == stmt {
			return f
		}
	}
	return nil
}

func (g *funcGen) loopStmt(s *ast.Loop) {
	cond := g.NewBlock("loop.cond")
	body := g.NewBlock("loop.body")
	end := g.NewBlock("loop.end")
	entered := g.live
	if entered {
		g.cur.NewBr(cond)
	}
	// A goto into the body reaches the condition through continue.
	condLive := entered || g.gotoTarget(s)
	g.enterAt(cond, condLive)
	if s.Label != "" {
		g.fail(g.scopes.AddLabelTarget(s.Label, cond, s))
	}
	v := g.scopes.CallOrInvoke(g.function(s.Cond, condSig, true), nil)
	g.cur.NewCondBr(v, body, end)

	frame := &jumpFrame{stmt: s, cont: cond, brk: end}
	g.jumps = append(g.jumps, frame)
	g.scopes.PushLoopTarget(s, cond, end)
	g.enterAt(body, condLive)
	g.block(s.Body, false)
	bodyLive := g.live
	if bodyLive {
		g.cur.NewBr(cond)
	}
	g.scopes.PopLoopTarget()
	g.jumps = g.jumps[:len(g.jumps)-1]

	g.enterAt(end, condLive || bodyLive || frame.contLive || frame.brkLive)
}

func (g *funcGen) switchStmt(s *ast.Switch) {
	head := g.NewBlock("switch")
	entered := g.live
	if entered {
		g.cur.NewBr(head)
	}
	headLive := entered || (s.Label != "" && g.gotoLabels[s.Label])
	g.enterAt(head, headLive)
	if s.Label != "" {
		g.fail(g.scopes.AddLabelTarget(s.Label, head, s))
	}
	v := g.scopes.CallOrInvoke(g.function(s.On, selectorSig, true), nil)
	dispatch := g.cur

	arms := make([]*ir.Block, len(s.Cases))
	var cases []*ir.Case
	for i, c := range s.Cases {
		arms[i] = g.NewBlock("switch.case")
		for _, x := range c.Values {
			cases = append(cases, ir.NewCase(constant.NewInt(types.I32, x), arms[i]))
		}
	}
	var def *ir.Block
	if s.Default != nil {
		def = g.NewBlock("switch.default")
	}
	end := g.NewBlock("switch.end")
	endLive := headLive && def == nil
	if def == nil {
		def = end
	}
	dispatch.NewSwitch(v, def, cases...)

	frame := &jumpFrame{stmt: s, brk: end}
	g.jumps = append(g.jumps, frame)
	g.scopes.PushBreakTarget(s, end)
	for i, c := range s.Cases {
		g.enterAt(arms[i], headLive)
		g.block(c.Body, false)
		if g.live {
			endLive = true
			g.cur.NewBr(end)
		}
	}
	if s.Default != nil {
		g.enterAt(def, headLive)
		g.block(s.Default, false)
		if g.live {
			endLive = true
			g.cur.NewBr(end)
		}
	}
	g.scopes.PopBreakTarget()
	g.jumps = g.jumps[:len(g.jumps)-1]
	g.enterAt(end, endLive || frame.brkLive)
}

func (g *funcGen) ifStmt(s *ast.If) {
	condLive := g.live
	v := g.scopes.CallOrInvoke(g.function(s.Cond, condSig, true), nil)
	then := g.NewBlock("if.then")
	var els *ir.Block
	if s.Else != nil {
		els = g.NewBlock("if.else")
	}
	end := g.NewBlock("if.end")
	endLive := condLive && s.Else == nil
	if els == nil {
		els = end
	}
	g.cur.NewCondBr(v, then, els)

	g.enterAt(then, condLive)
	g.block(s.Then, false)
	if g.live {
		endLive = true
		g.cur.NewBr(end)
	}
	if s.Else != nil {
		g.enterAt(els, condLive)
		g.block(s.Else, false)
		if g.live {
			endLive = true
			g.cur.NewBr(end)
		}
	}
	g.enterAt(end, endLive)
}

// labelStmt starts a new block, reachable by falling through or by a goto.
func (g *funcGen) labelStmt(s *ast.Label) {
	blk := g.NewBlock(s.Name)
	live := g.live || g.gotoLabels[s.Name]
	if g.live {
		g.cur.NewBr(blk)
	}
	g.enterAt(blk, live)
	g.fail(g.scopes.AddLabelTarget(s.Name, blk, nil))
}

func (g *funcGen) breakStmt(s *ast.Break) {
	loc := g.loc(s.Pos())
	live := g.live
	var frame *jumpFrame
	var err error
	if s.Label == "" {
		frame, err = g.innermost(false), g.scopes.BreakToClosest(loc)
	} else if stmt, ok := g.labeled(loc, s.Label, errors.E2003); ok {
		frame, err = g.frameOf(stmt), g.scopes.BreakToStatement(loc, stmt)
	}
	if err == nil && frame != nil && live {
		frame.brkLive = true
	}
	g.fail(err)
	g.afterJump("break")
}

func (g *funcGen) continueStmt(s *ast.Continue) {
	loc := g.loc(s.Pos())
	live := g.live
	var frame *jumpFrame
	var err error
	if s.Label == "" {
		frame, err = g.innermost(true), g.scopes.ContinueWithClosest(loc)
	} else if stmt, ok := g.labeled(loc, s.Label, errors.E2004); ok {
		frame, err = g.frameOf(stmt), g.scopes.ContinueWithLoop(loc, stmt)
	}
	if err == nil && frame != nil && live {
		frame.contLive = true
	}
	g.fail(err)
	g.afterJump("continue")
}

// labeled returns the loop or switch statement carrying label. code is
// reported if the label exists but is not attached to one.
func (g *funcGen) labeled(loc errors.SourceLocation, label string, code errors.ErrorCode) (any, bool) {
	if stmt, ok := g.scopes.LabeledStatement(label); ok {
		return stmt, true
	}
	labels := g.scopes.Labels()
	for _, l := range labels {
		if l == label {
			g.fail(errors.NewCompileError(code, loc, "label %q does not name a loop or switch", label))
			return nil, false
		}
	}
	g.fail(errors.NewCompileError(errors.E2011, loc, "undefined label %q", label).
		WithSuggestions(errors.SuggestSimilar(label, labels)))
	return nil, false
}

func (g *funcGen) callStmt(s *ast.Call) {
	g.scopes.CallOrInvoke(g.function(s.Func, callSig, s.NoThrow), nil)
}

func (g *funcGen) throwStmt(s *ast.Throw) {
	g.scopes.CallOrInvoke(g.function(g.c.cfg.ThrowFunc, objectSig, false), []value.Value{g.c.typeInfo(s.Type)})
	g.cur.NewUnreachable()
	g.unreachable("throw")
}
