package scope

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"github.com/deepnoodle-ai/scopegen/errz"
)

// exitTarget is one way of leaving a cleanup: the block to continue at after
// the cleanup ran, and the blocks that asked to continue there.
type exitTarget struct {
	target  *ir.Block
	sources []*ir.Block
}

// CleanupScope is a piece of code that has to run whenever a scope is left,
// whether by normal control flow or by exception unwinding. Finally blocks
// and destructor calls both end up here.
type CleanupScope struct {
	// Begin is the block to branch to for running the cleanup.
	Begin *ir.Block

	// End contains the end of the cleanup code. It differs from Begin if the
	// cleanup contains control flow. Its terminator is owned by the scope.
	End *ir.Block

	// selector is nil until a second distinct continuation is requested.
	selector *ir.InstAlloca

	// The index in exits is the selector value of that target.
	exits []exitTarget
}

// Selector returns the branch selector slot, or nil if the cleanup has never
// had more than one continuation.
func (c *CleanupScope) Selector() *ir.InstAlloca {
	return c.selector
}

// Continuations returns the distinct blocks execution may continue at after
// the cleanup, in selector order.
func (c *CleanupScope) Continuations() []*ir.Block {
	out := make([]*ir.Block, len(c.exits))
	for i, e := range c.exits {
		out[i] = e.target
	}
	return out
}

// Sources returns the blocks that requested the i-th continuation.
func (c *CleanupScope) Sources(i int) []*ir.Block {
	return c.exits[i].sources
}

func (c *CleanupScope) exitIndex(target *ir.Block) int {
	for i, e := range c.exits {
		if e.target == target {
			return i
		}
	}
	return -1
}

func selectorValue(i int) *constant.Int {
	return constant.NewInt(types.I32, int64(i))
}

// PushCleanup registers a piece of cleanup code to be run when the scope
// that starts now is left. The end block must not have a terminator yet; one
// is added based on where code from within the scope continues.
func (s *ScopeStack) PushCleanup(begin, end *ir.Block) {
	if end.Term != nil {
		errz.Panicf(errz.ErrTerminated, "cleanup end block %s already has a terminator", blockName(end))
	}
	s.cleanups = append(s.cleanups, &CleanupScope{Begin: begin, End: end})
	s.gotos = append(s.gotos, nil)
	s.pushFrame(frameCleanup)
	s.log.Debug().
		Str("begin", begin.Name()).
		Int("depth", len(s.cleanups)).
		Msg("cleanup pushed")
}

// RunCleanups terminates the current block with a branch into the cleanups
// needed for going from the current scope to target. After running them,
// execution continues at continueWith.
func (s *ScopeStack) RunCleanups(target Cursor, continueWith *ir.Block) {
	source := s.CurrentCleanupScope()
	if target >= 0 && target < source && !s.reachable() {
		s.current().NewUnreachable()
		return
	}
	s.runCleanups(source, target, continueWith)
}

// RunAllCleanups is like RunCleanups, but runs every active cleanup.
func (s *ScopeStack) RunAllCleanups(continueWith *ir.Block) {
	s.RunCleanups(0, continueWith)
}

// PopCleanups pops every cleanup between the current scope and target
// without emitting calls to them; use RunCleanups beforehand. Pending forward
// gotos necessarily leave the popped scopes, so they are routed through them.
// A cleanup that was never left ends in unreachable.
func (s *ScopeStack) PopCleanups(target Cursor) {
	s.checkCursor(target)
	for d := s.CurrentCleanupScope(); d > target; d-- {
		c := s.cleanups[d-1]
		s.popFrame(frameCleanup)
		for _, g := range s.gotos[d] {
			if g.state == gotoPending && !g.dead {
				s.threadGoto(c, g)
			}
		}
		if len(c.exits) == 0 && c.End.Term == nil {
			c.End.NewUnreachable()
		}
		s.gotos = s.gotos[:d]
		s.cleanups = s.cleanups[:d-1]
		s.log.Debug().
			Str("begin", c.Begin.Name()).
			Int("depth", int(d)).
			Int("exits", len(c.exits)).
			Msg("cleanup popped")
	}
}

func (s *ScopeStack) runCleanups(source, target Cursor, continueWith *ir.Block) {
	s.checkCursor(source)
	if target < 0 || target > source {
		errz.Panicf(errz.ErrCrossing, "cannot run cleanups from depth %d to depth %d", source, target)
	}
	cur := s.current()
	if target == source {
		cur.NewBr(continueWith)
		return
	}
	cur.NewBr(s.cleanups[source-1].Begin)
	for i := int(source) - 1; i >= int(target); i-- {
		next := continueWith
		if i > int(target) {
			next = s.cleanups[i-1].Begin
		}
		s.executeCleanup(s.cleanups[i], cur, next)
	}
}

// executeCleanup arranges for c to continue at continueWith when it is
// entered from source. source must already branch (directly or through inner
// cleanups) to c.Begin.
func (s *ScopeStack) executeCleanup(c *CleanupScope, source, continueWith *ir.Block) {
	if len(c.exits) == 0 {
		c.End.NewBr(continueWith)
		c.exits = append(c.exits, exitTarget{target: continueWith, sources: []*ir.Block{source}})
		return
	}
	if i := c.exitIndex(continueWith); i >= 0 {
		if c.selector != nil {
			source.NewStore(selectorValue(i), c.selector)
		}
		c.exits[i].sources = append(c.exits[i].sources, source)
		return
	}
	if c.selector == nil {
		s.promote(c)
	}
	i := len(c.exits)
	sw, ok := c.End.Term.(*ir.TermSwitch)
	errz.Assert(ok, errz.ErrState, "cleanup %s does not end in a selector switch", blockName(c.Begin))
	sw.Cases = append(sw.Cases, ir.NewCase(selectorValue(i), continueWith))
	source.NewStore(selectorValue(i), c.selector)
	c.exits = append(c.exits, exitTarget{target: continueWith, sources: []*ir.Block{source}})
}

// promote converts a cleanup with a single direct exit into one that
// dispatches on a branch selector.
func (s *ScopeStack) promote(c *CleanupScope) {
	c.selector = s.b.Alloca(types.I32, "branchsel."+c.Begin.Name())
	for _, src := range c.exits[0].sources {
		src.NewStore(selectorValue(0), c.selector)
	}
	c.End.Term = nil
	sel := c.End.NewLoad(types.I32, c.selector)
	c.End.NewSwitch(sel, c.exits[0].target)
	s.log.Debug().
		Str("begin", c.Begin.Name()).
		Msg("branch selector created")
}
