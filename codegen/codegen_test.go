package codegen

import (
	"context"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/value"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/scopegen/errors"
	"github.com/deepnoodle-ai/scopegen/parser"
)

func compileSource(t *testing.T, source string, cfg *Config) (*ir.Module, error) {
	t.Helper()
	file, err := parser.Parse(context.Background(), source, parser.WithFilename("test.yaml"))
	require.NoError(t, err)
	return Compile(file, cfg)
}

func mustCompile(t *testing.T, source string) *ir.Module {
	t.Helper()
	m, err := compileSource(t, source, nil)
	require.NoError(t, err)
	return m
}

func requireErrors(t *testing.T, err error, codes ...errors.ErrorCode) []*errors.CompileError {
	t.Helper()
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	var got []errors.ErrorCode
	var out []*errors.CompileError
	for _, e := range merr.Errors {
		ce, ok := e.(*errors.CompileError)
		require.True(t, ok, "unexpected error %v", e)
		got = append(got, ce.Code)
		out = append(out, ce)
	}
	require.Equal(t, codes, got)
	return out
}

func funcNamed(t *testing.T, m *ir.Module, name string) *ir.Func {
	t.Helper()
	for _, f := range m.Funcs {
		if f.Name() == name {
			return f
		}
	}
	require.FailNow(t, "no function "+name)
	return nil
}

func blockNamed(t *testing.T, f *ir.Func, name string) *ir.Block {
	t.Helper()
	for _, b := range f.Blocks {
		if b.Name() == name {
			return b
		}
	}
	require.FailNow(t, "no block "+name+" in "+f.Name())
	return nil
}

func blockNames(f *ir.Func) []string {
	var names []string
	for _, b := range f.Blocks {
		names = append(names, b.Name())
	}
	return names
}

func countBlocks(f *ir.Func, name string) int {
	n := 0
	for _, b := range f.Blocks {
		if b.Name() == name {
			n++
		}
	}
	return n
}

func name(v value.Value) string {
	return v.(*ir.Block).Name()
}

func brTarget(t *testing.T, b *ir.Block) string {
	t.Helper()
	br, ok := b.Term.(*ir.TermBr)
	require.True(t, ok, "%s ends in %T", b.Name(), b.Term)
	return name(br.Target)
}

func selectorStore(t *testing.T, b *ir.Block) int64 {
	t.Helper()
	for i := len(b.Insts) - 1; i >= 0; i-- {
		if st, ok := b.Insts[i].(*ir.InstStore); ok {
			c, ok := st.Src.(*constant.Int)
			require.True(t, ok)
			return c.X.Int64()
		}
	}
	require.FailNow(t, "no store in "+b.Name())
	return 0
}

func TestConfigDefaults(t *testing.T) {
	cfg := (*Config)(nil).withDefaults()
	require.Equal(t, DefaultPersonality, cfg.Personality)
	require.Equal(t, DefaultThrowFunc, cfg.ThrowFunc)
	require.Equal(t, DefaultResumeFunc, cfg.ResumeFunc)
	require.Equal(t, DefaultTypeInfoPrefix, cfg.TypeInfoPrefix)

	cfg = (&Config{Personality: "p", TypeInfoPrefix: "_ZTI"}).withDefaults()
	require.Equal(t, "p", cfg.Personality)
	require.Equal(t, "_ZTI", cfg.TypeInfoPrefix)
	require.Equal(t, DefaultThrowFunc, cfg.ThrowFunc)
}

func TestEmptyFunction(t *testing.T) {
	m := mustCompile(t, "functions:\n  - name: f\n")
	f := funcNamed(t, m, "f")
	require.Equal(t, []string{"entry", "return"}, blockNames(f))
	require.Equal(t, "return", brTarget(t, f.Blocks[0]))
	require.Nil(t, f.Personality)
	require.Equal(t, "test.yaml", m.SourceFilename)
}

func TestForwardCalls(t *testing.T) {
	m := mustCompile(t, `functions:
  - name: caller
    body:
      - call: callee
  - name: callee
`)
	caller := funcNamed(t, m, "caller")
	callee := funcNamed(t, m, "callee")
	call := caller.Blocks[0].Insts[0].(*ir.InstCall)
	require.Same(t, callee, call.Callee)
	require.NotEmpty(t, callee.Blocks)

	n := 0
	for _, f := range m.Funcs {
		if f.Name() == "callee" {
			n++
		}
	}
	require.Equal(t, 1, n)
}

func TestSharedCleanups(t *testing.T) {
	// b is left by the early return and by falling off its end; a is left
	// once, towards the return block, by both paths.
	m := mustCompile(t, `functions:
  - name: f
    body:
      - scope:
          var: a
          type: Res
          body:
            - scope:
                var: b
                type: Res
                body:
                  - if:
                      cond: early
                      then: [{return: }]
                  - {call: work, nothrow: true}
`)
	f := funcNamed(t, m, "f")
	require.Equal(t, []string{
		"entry", "cleanup.a", "cleanup.b", "if.then", "if.end", "scope.end", "return",
	}, blockNames(f))
	require.Equal(t, 1, countBlocks(f, "cleanup.a"))
	require.Equal(t, 1, countBlocks(f, "cleanup.b"))

	// Slots for a, b and b's branch selector.
	entry := f.Blocks[0]
	var slots []string
	for _, inst := range entry.Insts {
		if a, ok := inst.(*ir.InstAlloca); ok {
			slots = append(slots, a.Name())
		}
	}
	require.Equal(t, []string{"a", "b", "branchsel.cleanup.b"}, slots)

	cleanupB := blockNamed(t, f, "cleanup.b")
	dtor := cleanupB.Insts[0].(*ir.InstCall)
	require.Equal(t, "Res.dtor", dtor.Callee.(*ir.Func).Name())
	sw, ok := cleanupB.Term.(*ir.TermSwitch)
	require.True(t, ok)
	require.Equal(t, "cleanup.a", name(sw.TargetDefault))
	require.Len(t, sw.Cases, 1)
	require.Equal(t, "scope.end", name(sw.Cases[0].Target))

	require.Equal(t, int64(0), selectorStore(t, blockNamed(t, f, "if.then")))
	require.Equal(t, int64(1), selectorStore(t, blockNamed(t, f, "if.end")))
	require.Equal(t, "cleanup.b", brTarget(t, blockNamed(t, f, "if.then")))
	require.Equal(t, "cleanup.b", brTarget(t, blockNamed(t, f, "if.end")))

	// a has a single continuation and no selector.
	require.Equal(t, "return", brTarget(t, blockNamed(t, f, "cleanup.a")))
	require.Equal(t, "cleanup.a", brTarget(t, blockNamed(t, f, "scope.end")))
	require.Nil(t, f.Personality)
}

func TestFinallyWithBreak(t *testing.T) {
	m := mustCompile(t, `functions:
  - name: f
    body:
      - loop:
          cond: more
          body:
            - try:
                body:
                  - call: step
                  - if: {cond: done, then: [{break: }]}
                finally: [{call: release, nothrow: true}]
`)
	f := funcNamed(t, m, "f")
	require.Equal(t, 1, countBlocks(f, "finally"))

	body := blockNamed(t, f, "loop.body")
	inv, ok := body.Term.(*ir.TermInvoke)
	require.True(t, ok)
	require.Equal(t, "step", inv.Invokee.(*ir.Func).Name())
	require.Equal(t, "postinvoke", name(inv.NormalRetTarget))
	require.Equal(t, "landingpad", name(inv.ExceptionRetTarget))

	pad := blockNamed(t, f, "landingpad")
	lp := pad.Insts[0].(*ir.InstLandingPad)
	require.True(t, lp.Cleanup)
	require.Empty(t, lp.Clauses)
	require.Equal(t, "finally", brTarget(t, pad))

	// Unwinding, break and fall-through share the finally block.
	fin := blockNamed(t, f, "finally")
	sw, ok := fin.Term.(*ir.TermSwitch)
	require.True(t, ok)
	require.Equal(t, "eh.resume", name(sw.TargetDefault))
	require.Len(t, sw.Cases, 2)
	require.Equal(t, "loop.end", name(sw.Cases[0].Target))
	require.Equal(t, "try.end", name(sw.Cases[1].Target))
	require.Equal(t, int64(0), selectorStore(t, pad))
	require.Equal(t, int64(1), selectorStore(t, blockNamed(t, f, "if.then")))
	require.Equal(t, int64(2), selectorStore(t, blockNamed(t, f, "if.end")))

	require.Equal(t, "loop.cond", brTarget(t, blockNamed(t, f, "try.end")))
	require.NotNil(t, f.Personality)
	require.Equal(t, DefaultPersonality, f.Personality.(*ir.Func).Name())

	resume := blockNamed(t, f, "eh.resume")
	_, ok = resume.Term.(*ir.TermUnreachable)
	require.True(t, ok)
	require.Equal(t, "return", f.Blocks[len(f.Blocks)-1].Name())
}

func TestTryCatch(t *testing.T) {
	m := mustCompile(t, `functions:
  - name: f
    body:
      - try:
          body: [{call: risky}]
          catch:
            - {type: IOError, body: [{call: handle}]}
            - {type: Error, body: []}
`)
	f := funcNamed(t, m, "f")

	entry := f.Blocks[0]
	inv, ok := entry.Term.(*ir.TermInvoke)
	require.True(t, ok)
	require.Equal(t, "risky", inv.Invokee.(*ir.Func).Name())
	require.Equal(t, "landingpad", name(inv.ExceptionRetTarget))

	pad := blockNamed(t, f, "landingpad")
	lp := pad.Insts[0].(*ir.InstLandingPad)
	require.False(t, lp.Cleanup)
	require.Len(t, lp.Clauses, 2)
	require.Equal(t, "typeinfo.IOError", lp.Clauses[0].X.(*ir.Global).Name())
	require.Equal(t, "typeinfo.Error", lp.Clauses[1].X.(*ir.Global).Name())

	// The first catch clause is tested first.
	test, ok := pad.Term.(*ir.TermCondBr)
	require.True(t, ok)
	require.Equal(t, "catch.IOError", name(test.TargetTrue))
	require.Equal(t, "landingpad.mismatch", name(test.TargetFalse))
	mismatch := blockNamed(t, f, "landingpad.mismatch")
	test, ok = mismatch.Term.(*ir.TermCondBr)
	require.True(t, ok)
	require.Equal(t, "catch.Error", name(test.TargetTrue))
	require.Equal(t, "eh.resume", brTarget(t, blockNamed(t, f, "landingpad.mismatch1")))

	// Calls in a catch body are invoked so the caught exception can be
	// rethrown past it.
	handler := blockNamed(t, f, "catch.IOError")
	exn := handler.Insts[0].(*ir.InstLoad)
	require.Equal(t, "exn", exn.Name())
	inv, ok = handler.Term.(*ir.TermInvoke)
	require.True(t, ok)
	require.Equal(t, "handle", inv.Invokee.(*ir.Func).Name())
	require.Equal(t, "landingpad1", name(inv.ExceptionRetTarget))
	outer := blockNamed(t, f, "landingpad1")
	require.Equal(t, "eh.resume", brTarget(t, outer))
	require.True(t, outer.Insts[0].(*ir.InstLandingPad).Cleanup)

	require.Equal(t, "catch.end", brTarget(t, blockNamed(t, f, "catch.Error")))
	require.Equal(t, "return", brTarget(t, blockNamed(t, f, "catch.end")))

	var globals []string
	for _, g := range m.Globals {
		globals = append(globals, g.Name())
	}
	// Catches are registered innermost first.
	require.Equal(t, []string{"typeinfo.Error", "typeinfo.IOError"}, globals)
}

func TestThrow(t *testing.T) {
	m := mustCompile(t, `functions:
  - name: f
    body:
      - try:
          body: [{throw: Oops}]
          catch: [{type: Oops, body: []}]
  - name: g
    body:
      - throw: Oops
      - call: never
`)
	f := funcNamed(t, m, "f")
	inv, ok := f.Blocks[0].Term.(*ir.TermInvoke)
	require.True(t, ok)
	require.Equal(t, DefaultThrowFunc, inv.Invokee.(*ir.Func).Name())
	require.Equal(t, "typeinfo.Oops", inv.Args[0].(*ir.Global).Name())
	post := blockNamed(t, f, "postinvoke")
	_, ok = post.Term.(*ir.TermUnreachable)
	require.True(t, ok)
	require.Zero(t, countBlocks(f, "dummy.afterthrow"))

	// Outside of any scope the throw is a plain call, and the code after it
	// is dropped.
	g := funcNamed(t, m, "g")
	require.Equal(t, []string{"entry"}, blockNames(g))
	call := g.Blocks[0].Insts[0].(*ir.InstCall)
	require.Equal(t, DefaultThrowFunc, call.Callee.(*ir.Func).Name())
	_, ok = g.Blocks[0].Term.(*ir.TermUnreachable)
	require.True(t, ok)
	require.Nil(t, g.Personality)
}

func TestSwitch(t *testing.T) {
	m := mustCompile(t, `functions:
  - name: f
    body:
      - switch:
          on: pick
          cases:
            - {values: [1, 2], body: [{call: one, nothrow: true}]}
            - {values: [3], body: [{break: }]}
          default: [{return: }]
`)
	f := funcNamed(t, m, "f")
	require.Equal(t, "switch", brTarget(t, f.Blocks[0]))
	head := blockNamed(t, f, "switch")
	sw, ok := head.Term.(*ir.TermSwitch)
	require.True(t, ok)
	require.Equal(t, "switch.default", name(sw.TargetDefault))
	require.Len(t, sw.Cases, 3)
	require.Equal(t, "switch.case", name(sw.Cases[0].Target))
	require.Equal(t, "switch.case", name(sw.Cases[1].Target))
	require.Equal(t, "switch.case1", name(sw.Cases[2].Target))

	require.Equal(t, "switch.end", brTarget(t, blockNamed(t, f, "switch.case")))
	require.Equal(t, "switch.end", brTarget(t, blockNamed(t, f, "switch.case1")))
	require.Equal(t, "return", brTarget(t, blockNamed(t, f, "switch.default")))
}

func TestLabeledContinue(t *testing.T) {
	m := mustCompile(t, `functions:
  - name: f
    body:
      - loop:
          label: outer
          cond: more
          body:
            - scope:
                var: r
                type: Res
                body:
                  - loop: {cond: inner, body: [{continue: outer}]}
`)
	f := funcNamed(t, m, "f")
	require.Equal(t, "loop.cond", brTarget(t, f.Blocks[0]))
	cleanup := blockNamed(t, f, "cleanup.r")
	sw, ok := cleanup.Term.(*ir.TermSwitch)
	require.True(t, ok)
	require.Equal(t, "loop.cond", name(sw.TargetDefault))
	require.Len(t, sw.Cases, 1)
	require.Equal(t, "scope.end", name(sw.Cases[0].Target))
	require.Equal(t, "cleanup.r", brTarget(t, blockNamed(t, f, "loop.body1")))
}

func TestGotoLeavingScope(t *testing.T) {
	m := mustCompile(t, `functions:
  - name: f
    body:
      - scope:
          var: r
          type: Res
          body:
            - if: {cond: stop, then: [{goto: out}]}
      - label: out
`)
	f := funcNamed(t, m, "f")
	cleanup := blockNamed(t, f, "cleanup.r")
	sw, ok := cleanup.Term.(*ir.TermSwitch)
	require.True(t, ok)
	require.Equal(t, "scope.end", name(sw.TargetDefault))
	require.Len(t, sw.Cases, 1)
	require.Equal(t, "goto.unresolved1", name(sw.Cases[0].Target))
	require.Equal(t, "out", brTarget(t, blockNamed(t, f, "goto.unresolved1")))
	require.Equal(t, "cleanup.r", brTarget(t, blockNamed(t, f, "goto.unresolved")))
	require.Equal(t, "out", brTarget(t, blockNamed(t, f, "scope.end")))
}

func TestBackwardGoto(t *testing.T) {
	m := mustCompile(t, `functions:
  - name: f
    body:
      - label: again
      - scope:
          var: r
          type: Res
          body:
            - if: {cond: retry, then: [{goto: again}]}
      - call: done
`)
	f := funcNamed(t, m, "f")
	require.Equal(t, "again", brTarget(t, f.Blocks[0]))
	cleanup := blockNamed(t, f, "cleanup.r")
	sw, ok := cleanup.Term.(*ir.TermSwitch)
	require.True(t, ok)
	require.Equal(t, "again", name(sw.TargetDefault))
	require.Equal(t, "scope.end", name(sw.Cases[0].Target))
}

func TestAbandonedFunction(t *testing.T) {
	m, err := compileSource(t, `functions:
  - name: bad
    body:
      - goto: inside
      - scope: {var: r, type: Res, body: [{label: inside}]}
  - name: good
    body:
      - call: bad
`, nil)
	require.NotNil(t, m)
	errs := requireErrors(t, err, errors.E2012)
	require.Equal(t, "bad", errs[0].Function)
	require.Equal(t, 4, errs[0].Line)
	require.Equal(t, "      - goto: inside", errs[0].SourceLine)
	require.Equal(t, "test.yaml", errs[0].Filename)
	require.NotEmpty(t, errs[0].Note)

	bad := funcNamed(t, m, "bad")
	require.Empty(t, bad.Blocks)
	require.Nil(t, bad.Personality)
	good := funcNamed(t, m, "good")
	require.NotEmpty(t, good.Blocks)
	require.Same(t, bad, good.Blocks[0].Insts[0].(*ir.InstCall).Callee)
}

func TestUnresolvedGoto(t *testing.T) {
	_, err := compileSource(t, `functions:
  - name: f
    body:
      - label: retry
      - goto: retyr
      - loop: {cond: c, body: [{break: outr}]}
`, nil)
	errs := requireErrors(t, err, errors.E2011, errors.E2013)
	require.Equal(t, `undefined label "outr"`, errs[0].Message)
	require.Empty(t, errs[0].Suggestions)
	require.Equal(t, `goto "retyr" does not match any label in the function`, errs[1].Message)
	require.Equal(t, []errors.Suggestion{{Value: "retry", Distance: 2}}, errs[1].Suggestions)
	require.Equal(t, 5, errs[1].Line)
}

func TestInvalidJumps(t *testing.T) {
	_, err := compileSource(t, `functions:
  - name: dup
    body:
      - label: L
      - loop: {label: L, cond: c}
  - name: jumps
    body:
      - break:
      - continue:
      - label: plain
      - loop: {cond: c, body: [{continue: plain}]}
`, nil)
	errs := requireErrors(t, err, errors.E2014, errors.E2003, errors.E2004, errors.E2004)
	require.Equal(t, "dup", errs[0].Function)
	require.Equal(t, 5, errs[0].Line)
	require.Equal(t, "jumps", errs[1].Function)
	require.Equal(t, "break outside of a loop or switch", errs[1].Message)
	require.Equal(t, "continue outside of a loop", errs[2].Message)
	require.Equal(t, `label "plain" does not name a loop or switch`, errs[3].Message)
}

func TestCustomRuntimeNames(t *testing.T) {
	m, err := compileSource(t, `functions:
  - name: f
    body:
      - scope:
          var: r
          type: Res
          body: [{call: g}, {throw: E}]
`, &Config{
		Personality:    "__my_personality",
		ThrowFunc:      "my_throw",
		ResumeFunc:     "my_resume",
		TypeInfoPrefix: "_ZTI",
		Filename:       "other.yaml",
	})
	require.NoError(t, err)
	require.Equal(t, "other.yaml", m.SourceFilename)
	f := funcNamed(t, m, "f")
	require.Equal(t, "__my_personality", f.Personality.(*ir.Func).Name())
	funcNamed(t, m, "my_throw")
	funcNamed(t, m, "my_resume")
	require.Equal(t, "_ZTIE", m.Globals[0].Name())

	text := m.String()
	require.Contains(t, text, `source_filename = "other.yaml"`)
	require.Contains(t, text, "landingpad")
	require.Contains(t, text, "personality")
	require.Contains(t, text, "@_ZTIE = external global i8")
	require.Contains(t, text, "declare void @Res.dtor(i8*")
}

func TestLogging(t *testing.T) {
	var buf strings.Builder
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	_, err := compileSource(t, `functions:
  - name: f
    body:
      - scope: {var: r, type: Res, body: [{return: }]}
  - name: g
    body:
      - goto: nowhere
`, &Config{Logger: &logger})
	requireErrors(t, err, errors.E2013)
	out := buf.String()
	require.Contains(t, out, `"message":"cleanup pushed"`)
	require.Contains(t, out, `"message":"function lowered"`)
	require.Contains(t, out, `"message":"function abandoned"`)
	require.Contains(t, out, `"func":"g"`)
}

func allocaNames(f *ir.Func) []string {
	var names []string
	for _, inst := range f.Blocks[0].Insts {
		if a, ok := inst.(*ir.InstAlloca); ok {
			names = append(names, a.Name())
		}
	}
	return names
}

func TestCleanupNeverLeft(t *testing.T) {
	// The finally block only runs if the endless goto loop is left, which
	// never happens. Its loop must not survive without a terminator.
	m := mustCompile(t, `functions:
  - name: f
    body:
      - try:
          body:
            - label: L
            - goto: L
          finally:
            - loop: {cond: c, body: []}
      - call: after
`)
	f := funcNamed(t, m, "f")
	require.Equal(t, []string{"entry", "L"}, blockNames(f))
	require.Equal(t, "L", brTarget(t, blockNamed(t, f, "L")))
	for _, b := range f.Blocks {
		require.NotNil(t, b.Term, b.Name())
	}
	var text string
	require.NotPanics(t, func() { text = m.String() })
	require.Contains(t, text, "define void @f()")
}

func TestDeadCodeInScope(t *testing.T) {
	m := mustCompile(t, `functions:
  - name: f
    body:
      - scope:
          var: a
          type: Res
          body:
            - return:
            - call: g
            - if: {cond: c, then: []}
      - {call: after, nothrow: true}
`)
	f := funcNamed(t, m, "f")
	require.Equal(t, []string{"entry", "cleanup.a", "return"}, blockNames(f))
	require.Equal(t, []string{"a"}, allocaNames(f))
	require.Equal(t, "return", brTarget(t, blockNamed(t, f, "cleanup.a")))
	require.Nil(t, f.Personality)
	require.NotContains(t, m.String(), "branchsel")
}

func TestDeadJumpInScope(t *testing.T) {
	m := mustCompile(t, `functions:
  - name: f
    body:
      - loop:
          cond: more
          body:
            - scope:
                var: a
                type: Res
                body:
                  - return:
                  - break:
                  - goto: out
      - label: out
`)
	f := funcNamed(t, m, "f")
	require.Equal(t, []string{"a"}, allocaNames(f))
	require.Equal(t, "return", brTarget(t, blockNamed(t, f, "cleanup.a")))
	require.Zero(t, countBlocks(f, "goto.unresolved"))
	require.Zero(t, countBlocks(f, "scope.end"))
}

func TestLiveAfterDeadIf(t *testing.T) {
	// A label revives the code after a return only if a goto names it.
	m := mustCompile(t, `functions:
  - name: f
    body:
      - scope:
          var: a
          type: Res
          body:
            - if: {cond: c, then: [{goto: again}]}
            - return:
            - label: again
            - if: {cond: d, then: [{return: }]}
`)
	f := funcNamed(t, m, "f")
	cleanup := blockNamed(t, f, "cleanup.a")
	require.Equal(t, "return", brTarget(t, cleanup))
	require.Equal(t, "cleanup.a", brTarget(t, blockNamed(t, f, "if.end1")))
	require.Equal(t, []string{"a"}, allocaNames(f))
}

func TestConflictingDeclaration(t *testing.T) {
	m, err := compileSource(t, `functions:
  - name: f
    body:
      - call: c
      - if: {cond: c, then: []}
  - name: g
    body:
      - {call: c, nothrow: true}
  - name: Res.ctor
  - name: h
    body:
      - scope: {var: r, type: Res, body: []}
`, nil)
	errs := requireErrors(t, err, errors.E2015, errors.E2015)
	require.Equal(t, "f", errs[0].Function)
	require.Equal(t, 5, errs[0].Line)
	require.Contains(t, errs[0].Message, `"c"`)
	require.Equal(t, "h", errs[1].Function)
	require.Equal(t, 12, errs[1].Line)

	require.Empty(t, funcNamed(t, m, "f").Blocks)
	require.NotEmpty(t, funcNamed(t, m, "g").Blocks)
	require.Empty(t, funcNamed(t, m, "h").Blocks)
	require.NotContains(t, m.String(), "br void")
}

func TestGotoIntoSkippedLoop(t *testing.T) {
	m := mustCompile(t, `functions:
  - name: f
    body:
      - goto: inside
      - loop:
          cond: more
          body:
            - if: {cond: c, then: [{call: g}]}
            - label: inside
            - continue:
`)
	f := funcNamed(t, m, "f")
	for _, b := range f.Blocks {
		require.NotNil(t, b.Term, b.Name())
	}
	require.Equal(t, "inside", brTarget(t, blockNamed(t, f, "goto.unresolved")))
	require.Equal(t, "inside", brTarget(t, blockNamed(t, f, "if.end")))
	require.Equal(t, "loop.cond", brTarget(t, blockNamed(t, f, "inside")))
	require.Equal(t, "return", brTarget(t, blockNamed(t, f, "loop.end")))
	require.NotPanics(t, func() { _ = m.String() })
}
