package scope

import "github.com/deepnoodle-ai/scopegen/errz"

// UnwindMode selects how potentially throwing calls are emitted.
type UnwindMode int

const (
	// UnwindAuto emits an invoke only if a catch or cleanup is active.
	UnwindAuto UnwindMode = iota
	// UnwindAlways emits an invoke for every call that may throw, even when
	// the landing pad has nothing to do but resume unwinding.
	UnwindAlways
)

func (m UnwindMode) String() string {
	switch m {
	case UnwindAlways:
		return "always"
	default:
		return "auto"
	}
}

// PushUnwindMode makes m the unwind mode until the matching PopUnwindMode.
func (s *ScopeStack) PushUnwindMode(m UnwindMode) {
	s.modes = append(s.modes, m)
}

// PopUnwindMode restores the previous unwind mode.
func (s *ScopeStack) PopUnwindMode() {
	errz.Assert(len(s.modes) > 0, errz.ErrUnbalanced, "no unwind mode to pop")
	s.modes = s.modes[:len(s.modes)-1]
}

// UnwindMode returns the innermost unwind mode.
func (s *ScopeStack) UnwindMode() UnwindMode {
	if len(s.modes) == 0 {
		return UnwindAuto
	}
	return s.modes[len(s.modes)-1]
}
