// Package scope tracks the structured constructs that are active while code
// is generated for one function body: cleanups (finally blocks, destructor
// calls), catch clauses, loops, switches and labels. It synthesizes the
// control flow needed whenever execution leaves one of them early, whether by
// return, break, continue, goto or exception unwinding.
//
// # Visiting order
//
// A ScopeStack depends on the function body being visited in its natural
// order, depth-first and in lexical order: after a cleanup, catch, loop or
// switch has been pushed, its contents are generated and it is popped again.
// None of the jump operations take a source cursor; the source is always the
// current scope.
//
// # Shared cleanups
//
// The code of each cleanup is emitted exactly once. Every exit path that has
// to run it branches into its begin block and registers the block it wants to
// continue at afterwards. A cleanup with one continuation ends in a plain
// branch. Once a second distinct continuation is requested, the cleanup gets
// an i32 branch selector in the entry block, every path stores its arm index
// before entering the cleanup, and the end block switches on the selector.
//
// # Forward gotos
//
// A goto to a label that has not been seen yet branches to a placeholder
// block. The pending jump is registered at every cleanup depth between the
// goto and the function top level, since the label may turn up at any of
// them. Whenever a cleanup scope is popped, its pending gotos are threaded
// through the cleanup and continue at a fresh placeholder. Adding the label
// finally branches the placeholder to the label block.
package scope

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/scopegen/errz"
)

// Cursor identifies a position on the stack of active cleanup scopes. Since a
// contiguous part of the stack is always run in order, two cursors are enough
// to describe a sequence of cleanups to run. A cursor is only valid as long as
// the scope it refers to has not been popped.
type Cursor int

// Builder is the part of the function context a ScopeStack emits through.
type Builder interface {
	// NewBlock appends a new basic block to the function.
	NewBlock(name string) *ir.Block

	// Block returns the current insertion block.
	Block() *ir.Block

	// SetBlock moves the insertion point to the end of b.
	SetBlock(b *ir.Block)

	// Alloca allocates a stack slot in the entry block of the function.
	Alloca(typ types.Type, name string) *ir.InstAlloca

	// EHPtrSlot returns the stack slot holding the in-flight exception
	// object while a landing pad runs.
	EHPtrSlot() *ir.InstAlloca

	// EHSelectorSlot returns the stack slot holding the selector value the
	// personality routine reported for the in-flight exception.
	EHSelectorSlot() *ir.InstAlloca

	// TypeIDFor returns the function mapping a type descriptor to the
	// selector value the personality routine reports for it.
	TypeIDFor() *ir.Func

	// ResumeUnwindBlock returns the block that continues propagating the
	// exception stored in EHPtrSlot to the caller.
	ResumeUnwindBlock() *ir.Block
}

// Reachability is implemented by builders that know whether the current
// insertion block can be reached. Jumps out of unreachable code are still
// checked, but they add no continuations to cleanups, and calls there never
// become invokes.
type Reachability interface {
	Reachable() bool
}

// Option configures a ScopeStack.
type Option func(*ScopeStack)

// WithLogger sets the logger used for debug events.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *ScopeStack) {
		s.log = logger
	}
}

type frameKind int

const (
	frameTop frameKind = iota
	frameCleanup
	frameCatch
)

func (k frameKind) String() string {
	switch k {
	case frameCleanup:
		return "cleanup"
	case frameCatch:
		return "catch"
	default:
		return "top"
	}
}

// frame is one level of cleanup-or-catch nesting. The landing pad, once
// emitted, is valid for exactly this nesting.
type frame struct {
	kind       frameKind
	landingPad *ir.Block
}

// ScopeStack keeps track of the active scopes of a single function.
type ScopeStack struct {
	b   Builder
	log zerolog.Logger

	// cleanups[i] contains the information to go from
	// CurrentCleanupScope() == i+1 to CurrentCleanupScope() == i.
	cleanups []*CleanupScope
	catches  []CatchScope

	// frames[0] is the function top level.
	frames []frame
	modes  []UnwindMode

	labels          map[string]JumpTarget
	breakTargets    []JumpTarget
	continueTargets []JumpTarget

	// gotos[d] holds the forward gotos that may still resolve to a label at
	// depth d. gotos[0] is the top level.
	gotos [][]*GotoJump
}

// New returns an empty ScopeStack emitting through b.
func New(b Builder, opts ...Option) *ScopeStack {
	s := &ScopeStack{
		b:      b,
		log:    zerolog.Nop(),
		frames: []frame{{kind: frameTop}},
		labels: map[string]JumpTarget{},
		gotos:  make([][]*GotoJump, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentCleanupScope returns a cursor identifying the current cleanup scope,
// to be used later with RunCleanups and PopCleanups.
func (s *ScopeStack) CurrentCleanupScope() Cursor {
	return Cursor(len(s.cleanups))
}

// CleanupAt returns the cleanup scope that is left when going from depth c
// to depth c-1.
func (s *ScopeStack) CleanupAt(c Cursor) *CleanupScope {
	s.checkCursor(c)
	errz.Assert(c > 0, errz.ErrStaleCursor, "no cleanup scope at the top level")
	return s.cleanups[c-1]
}

// Finish must be called once the whole function body has been generated.
// It verifies every push has been matched by a pop and reports the gotos
// whose label never appeared.
func (s *ScopeStack) Finish() error {
	errz.Assert(len(s.cleanups) == 0, errz.ErrUnbalanced, "%d cleanup scopes still active", len(s.cleanups))
	errz.Assert(len(s.catches) == 0, errz.ErrUnbalanced, "%d catch scopes still active", len(s.catches))
	errz.Assert(len(s.frames) == 1, errz.ErrUnbalanced, "%d unwind frames still active", len(s.frames)-1)
	errz.Assert(len(s.breakTargets) == 0 && len(s.continueTargets) == 0,
		errz.ErrUnbalanced, "break or continue targets still active")
	errz.Assert(len(s.modes) == 0, errz.ErrUnbalanced, "%d unwind modes still active", len(s.modes))
	return s.reportUnresolved()
}

func (s *ScopeStack) checkCursor(c Cursor) {
	if c < 0 || c > s.CurrentCleanupScope() {
		errz.Panicf(errz.ErrStaleCursor, "cursor %d beyond current depth %d", c, s.CurrentCleanupScope())
	}
}

func (s *ScopeStack) pushFrame(kind frameKind) {
	s.frames = append(s.frames, frame{kind: kind})
}

func (s *ScopeStack) popFrame(kind frameKind) {
	top := s.frames[len(s.frames)-1]
	if top.kind != kind {
		errz.Panicf(errz.ErrUnbalanced, "popping a %s scope while a %s scope is innermost", kind, top.kind)
	}
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *ScopeStack) reachable() bool {
	r, ok := s.b.(Reachability)
	return !ok || r.Reachable()
}

func (s *ScopeStack) current() *ir.Block {
	cur := s.b.Block()
	errz.Assert(cur != nil, errz.ErrState, "no insertion block")
	if cur.Term != nil {
		errz.Panicf(errz.ErrTerminated, "block %s is already terminated", blockName(cur))
	}
	return cur
}

func blockName(b *ir.Block) string {
	if name := b.Name(); name != "" {
		return fmt.Sprintf("%%%s", name)
	}
	return "<unnamed block>"
}
