package scope

import (
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/deepnoodle-ai/scopegen/errz"
)

// EHType is the type of the value produced by a landing pad: the exception
// object and the selector of the matching clause.
var EHType = types.NewStruct(types.I8Ptr, types.I32)

// CatchScope is one active catch clause. Each catch body is emitted once but
// may be the target of many landing pads.
type CatchScope struct {
	// TypeInfo is the type descriptor the exception is matched against.
	TypeInfo constant.Constant

	// Body is the block to branch to if the exception type matches.
	Body *ir.Block

	// Cursor is the cleanup depth at which the catch was entered.
	Cursor Cursor
}

// PushCatch registers a catch clause for exceptions thrown within the current
// scope. Catches are kept on a stack; the last pushed one is tested first.
func (s *ScopeStack) PushCatch(typeInfo constant.Constant, body *ir.Block) {
	s.catches = append(s.catches, CatchScope{
		TypeInfo: typeInfo,
		Body:     body,
		Cursor:   s.CurrentCleanupScope(),
	})
	s.pushFrame(frameCatch)
}

// PopCatch unregisters the last registered catch clause.
func (s *ScopeStack) PopCatch() {
	errz.Assert(len(s.catches) > 0, errz.ErrUnbalanced, "no catch scope to pop")
	top := s.catches[len(s.catches)-1]
	if top.Cursor != s.CurrentCleanupScope() {
		errz.Panicf(errz.ErrUnbalanced, "catch entered at depth %d popped at depth %d", top.Cursor, s.CurrentCleanupScope())
	}
	s.popFrame(frameCatch)
	s.catches = s.catches[:len(s.catches)-1]
}

// DoesCalleeNeedInvoke reports whether a call to callee has to be emitted as
// an invoke, using the same criteria as CallOrInvoke.
func (s *ScopeStack) DoesCalleeNeedInvoke(callee value.Value) bool {
	if f, ok := callee.(*ir.Func); ok && !mayThrow(f) {
		return false
	}
	if s.UnwindMode() == UnwindAlways {
		return true
	}
	return len(s.catches) > 0 || len(s.cleanups) > 0
}

// Intrinsics cannot be invoked and nounwind functions do not need to be.
func mayThrow(f *ir.Func) bool {
	if strings.HasPrefix(f.Name(), "llvm.") {
		return false
	}
	for _, attr := range f.FuncAttrs {
		if attr.String() == "nounwind" {
			return false
		}
	}
	return true
}

// CallOrInvoke emits a call to callee with the given arguments. If there is
// anything to unwind to within the function, the call becomes an invoke whose
// unwind edge goes to the landing pad of the current nesting, and a fresh
// block becomes the insertion point. Calls in unreachable code stay calls.
func (s *ScopeStack) CallOrInvoke(callee value.Value, args []value.Value) value.Value {
	cur := s.current()
	if !s.DoesCalleeNeedInvoke(callee) || !s.reachable() {
		return cur.NewCall(callee, args...)
	}
	pad := s.landingPad()
	post := s.b.NewBlock("postinvoke")
	inv := cur.NewInvoke(callee, args, post, pad)
	s.b.SetBlock(post)
	return inv
}

// landingPad returns the landing pad for the current nesting, emitting it on
// first use.
func (s *ScopeStack) landingPad() *ir.Block {
	top := len(s.frames) - 1
	if pad := s.frames[top].landingPad; pad != nil {
		return pad
	}
	pad := s.emitLandingPad()
	s.frames[top].landingPad = pad
	return pad
}

// emitLandingPad emits a landing pad honoring all active cleanups and
// catches. Catches are tested innermost first; the cleanups between two
// catches run before the outer one is tested. If nothing matches, the
// remaining cleanups run and the exception propagates to the caller.
func (s *ScopeStack) emitLandingPad() *ir.Block {
	saved := s.b.Block()
	defer s.b.SetBlock(saved)

	begin := s.b.NewBlock("landingpad")
	s.b.SetBlock(begin)
	lp := begin.NewLandingPad(EHType)
	begin.NewStore(begin.NewExtractValue(lp, 0), s.b.EHPtrSlot())
	begin.NewStore(begin.NewExtractValue(lp, 1), s.b.EHSelectorSlot())

	last := s.CurrentCleanupScope()
	for i := len(s.catches) - 1; i >= 0; i-- {
		c := s.catches[i]
		errz.Assert(last >= c.Cursor, errz.ErrCrossing, "catch at depth %d nested in depth %d", c.Cursor, last)
		if last > c.Cursor {
			lp.Cleanup = true
			after := s.b.NewBlock(begin.Name() + ".after.cleanup")
			s.runCleanups(last, c.Cursor, after)
			s.b.SetBlock(after)
			last = c.Cursor
		}

		// The clause makes the type descriptor part of the EH tables.
		lp.Clauses = append(lp.Clauses, ir.NewClause(enum.ClauseTypeCatch, c.TypeInfo))

		mismatch := s.b.NewBlock(begin.Name() + ".mismatch")
		cur := s.b.Block()
		typeID := cur.NewCall(s.b.TypeIDFor(), c.TypeInfo)
		sel := cur.NewLoad(types.I32, s.b.EHSelectorSlot())
		cur.NewCondBr(cur.NewICmp(enum.IPredEQ, sel, typeID), c.Body, mismatch)
		s.b.SetBlock(mismatch)
	}

	// No catch matched.
	if last > 0 {
		lp.Cleanup = true
		s.runCleanups(last, 0, s.b.ResumeUnwindBlock())
	} else {
		s.b.Block().NewBr(s.b.ResumeUnwindBlock())
	}
	if len(lp.Clauses) == 0 {
		lp.Cleanup = true
	}
	s.log.Debug().
		Str("block", begin.Name()).
		Int("catches", len(s.catches)).
		Int("cleanups", len(s.cleanups)).
		Msg("landing pad emitted")
	return begin
}
