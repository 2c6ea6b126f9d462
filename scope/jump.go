package scope

import (
	"github.com/llir/llvm/ir"

	"github.com/deepnoodle-ai/scopegen/errors"
	"github.com/deepnoodle-ai/scopegen/errz"
)

// PushLoopTarget registers a loop statement as a target for break and
// continue.
func (s *ScopeStack) PushLoopTarget(stmt any, continueTarget, breakTarget *ir.Block) {
	s.continueTargets = append(s.continueTargets, s.target(stmt, continueTarget))
	s.breakTargets = append(s.breakTargets, s.target(stmt, breakTarget))
}

// PopLoopTarget pops the last pushed loop target.
func (s *ScopeStack) PopLoopTarget() {
	errz.Assert(len(s.continueTargets) > 0 && len(s.breakTargets) > 0,
		errz.ErrUnbalanced, "no loop target to pop")
	s.continueTargets = s.continueTargets[:len(s.continueTargets)-1]
	s.breakTargets = s.breakTargets[:len(s.breakTargets)-1]
}

// PushBreakTarget registers a statement, typically a switch, as a target for
// break only.
func (s *ScopeStack) PushBreakTarget(stmt any, target *ir.Block) {
	s.breakTargets = append(s.breakTargets, s.target(stmt, target))
}

// PopBreakTarget pops the last pushed break target.
func (s *ScopeStack) PopBreakTarget() {
	errz.Assert(len(s.breakTargets) > 0, errz.ErrUnbalanced, "no break target to pop")
	s.breakTargets = s.breakTargets[:len(s.breakTargets)-1]
}

// ContinueWithLoop continues the given loop statement with its next
// iteration, running the cleanups on the way.
func (s *ScopeStack) ContinueWithLoop(loc errors.SourceLocation, stmt any) error {
	t, ok := findTarget(s.continueTargets, stmt)
	if !ok {
		return errors.NewCompileError(errors.E2004, loc, "continue target is not an enclosing loop")
	}
	s.RunCleanups(t.Cursor, t.Block)
	return nil
}

// ContinueWithClosest continues the innermost loop.
func (s *ScopeStack) ContinueWithClosest(loc errors.SourceLocation) error {
	if len(s.continueTargets) == 0 {
		return errors.NewCompileError(errors.E2004, loc, "continue outside of a loop")
	}
	t := s.continueTargets[len(s.continueTargets)-1]
	s.RunCleanups(t.Cursor, t.Block)
	return nil
}

// BreakToStatement breaks out of the given loop or switch statement.
func (s *ScopeStack) BreakToStatement(loc errors.SourceLocation, stmt any) error {
	t, ok := findTarget(s.breakTargets, stmt)
	if !ok {
		return errors.NewCompileError(errors.E2003, loc, "break target is not an enclosing loop or switch")
	}
	s.RunCleanups(t.Cursor, t.Block)
	return nil
}

// BreakToClosest breaks out of the innermost loop or switch.
func (s *ScopeStack) BreakToClosest(loc errors.SourceLocation) error {
	if len(s.breakTargets) == 0 {
		return errors.NewCompileError(errors.E2003, loc, "break outside of a loop or switch")
	}
	t := s.breakTargets[len(s.breakTargets)-1]
	s.RunCleanups(t.Cursor, t.Block)
	return nil
}

func (s *ScopeStack) target(stmt any, block *ir.Block) JumpTarget {
	d := s.CurrentCleanupScope()
	return JumpTarget{Block: block, Cursor: d, Statement: stmt, owner: s.ownerAt(d)}
}

// findTarget searches from the innermost target outwards.
func findTarget(targets []JumpTarget, stmt any) (JumpTarget, bool) {
	for i := len(targets) - 1; i >= 0; i-- {
		if targets[i].Statement == stmt {
			return targets[i], true
		}
	}
	return JumpTarget{}, false
}
