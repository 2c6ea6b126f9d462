package scope

import (
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/llir/llvm/ir"

	"github.com/deepnoodle-ai/scopegen/errors"
	"github.com/deepnoodle-ai/scopegen/errz"
)

// JumpTarget stores what is needed to jump to a label or to the break or
// continue destination of a loop or switch.
type JumpTarget struct {
	// Block is the block to ultimately branch to.
	Block *ir.Block

	// Cursor is the cleanup depth of the target. The cleanups between the
	// jump and this depth run on the way there.
	Cursor Cursor

	// Statement is the loop or switch statement the target belongs to, or
	// the statement following a label. Compared by identity.
	Statement any

	// owner is the innermost cleanup scope at the target, nil at the top
	// level. A jump is only legal while that scope is still active.
	owner *CleanupScope
}

type gotoState int

const (
	gotoPending gotoState = iota
	gotoResolved
	gotoFailed
)

// GotoJump is a goto whose label has not been seen yet.
type GotoJump struct {
	// Loc is the location of the goto statement, for error reporting.
	Loc errors.SourceLocation

	// Source is the block that contains the goto.
	Source *ir.Block

	// Tentative is the placeholder the jump currently continues at. It is
	// replaced each time the jump is routed through a cleanup.
	Tentative *ir.Block

	// Label is the label to jump to.
	Label string

	state gotoState

	// dead is set for gotos in unreachable code. They are not routed
	// through the cleanups they leave.
	dead bool
}

func (s *ScopeStack) ownerAt(c Cursor) *CleanupScope {
	if c == 0 {
		return nil
	}
	return s.cleanups[c-1]
}

// AddLabelTarget adds a label to serve as a target for gotos, located at the
// current cleanup depth. stmt is the labeled statement, if any. In-flight
// forward gotos to the label are resolved; those that would enter a cleanup
// scope they are not part of are reported.
func (s *ScopeStack) AddLabelTarget(label string, block *ir.Block, stmt any) error {
	if _, ok := s.labels[label]; ok {
		errz.Panicf(errz.ErrState, "label %q defined twice", label)
	}
	d := s.CurrentCleanupScope()
	s.labels[label] = JumpTarget{Block: block, Cursor: d, Statement: stmt, owner: s.ownerAt(d)}

	resolved := 0
	for _, g := range s.gotos[d] {
		if g.state == gotoPending && g.Label == label {
			g.Tentative.NewBr(block)
			g.state = gotoResolved
			resolved++
		}
	}

	// Whatever is left for this label in a shallower registry was recorded
	// outside of the current cleanup scope.
	var errs error
	for k := 0; k < int(d); k++ {
		for _, g := range s.gotos[k] {
			if g.state == gotoPending && g.Label == label {
				g.state = gotoFailed
				g.Tentative.NewUnreachable()
				errs = multierror.Append(errs, errors.NewCompileError(errors.E2012, g.Loc,
					"goto %q jumps into a cleanup scope", label).
					WithNote("a goto may not enter a try, finally or scope with destructors"))
			}
		}
	}
	s.compactGotos()
	s.log.Debug().
		Str("label", label).
		Int("depth", int(d)).
		Int("resolved", resolved).
		Msg("label added")
	return errs
}

// LabeledStatement returns the statement registered with a label.
func (s *ScopeStack) LabeledStatement(label string) (any, bool) {
	t, ok := s.labels[label]
	if !ok || t.Statement == nil {
		return nil, false
	}
	return t.Statement, true
}

// Labels returns the names of the labels seen so far, sorted.
func (s *ScopeStack) Labels() []string {
	names := make([]string, 0, len(s.labels))
	for name := range s.labels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// JumpToLabel terminates the current block with a jump to the given label,
// running the cleanups on the way there. Jumps to labels that have not been
// seen yet are resolved once the label is added or reported by Finish.
func (s *ScopeStack) JumpToLabel(loc errors.SourceLocation, label string) error {
	if t, ok := s.labels[label]; ok {
		if t.Cursor > s.CurrentCleanupScope() || s.ownerAt(t.Cursor) != t.owner {
			return errors.NewCompileError(errors.E2012, loc, "goto %q jumps into a cleanup scope", label).
				WithNote("a goto may not enter a try, finally or scope with destructors")
		}
		s.RunCleanups(t.Cursor, t.Block)
		return nil
	}

	src := s.current()
	tentative := s.b.NewBlock("goto.unresolved")
	src.NewBr(tentative)
	g := &GotoJump{Loc: loc, Source: src, Tentative: tentative, Label: label, dead: !s.reachable()}
	for d := range s.gotos {
		s.gotos[d] = append(s.gotos[d], g)
	}
	s.log.Debug().
		Str("label", label).
		Int("depth", len(s.cleanups)).
		Msg("goto deferred")
	return nil
}

// PendingGotos returns the forward gotos that are still unresolved.
func (s *ScopeStack) PendingGotos() []*GotoJump {
	var out []*GotoJump
	for _, g := range s.gotos[0] {
		if g.state == gotoPending {
			out = append(out, g)
		}
	}
	return out
}

// threadGoto routes a pending goto through cleanup c, which is being popped.
func (s *ScopeStack) threadGoto(c *CleanupScope, g *GotoJump) {
	from := g.Tentative
	from.NewBr(c.Begin)
	next := s.b.NewBlock("goto.unresolved")
	s.executeCleanup(c, from, next)
	g.Tentative = next
}

func (s *ScopeStack) compactGotos() {
	for d, list := range s.gotos {
		kept := list[:0]
		for _, g := range list {
			if g.state == gotoPending {
				kept = append(kept, g)
			}
		}
		for i := len(kept); i < len(list); i++ {
			list[i] = nil
		}
		s.gotos[d] = kept
	}
}

func (s *ScopeStack) reportUnresolved() error {
	var errs error
	for _, g := range s.gotos[0] {
		if g.state != gotoPending {
			continue
		}
		g.state = gotoFailed
		g.Tentative.NewUnreachable()
		errs = multierror.Append(errs, errors.NewCompileError(errors.E2013, g.Loc,
			"goto %q does not match any label in the function", g.Label).
			WithSuggestions(errors.SuggestSimilar(g.Label, s.Labels())))
	}
	s.gotos[0] = nil
	return errs
}
