package scope

import (
	"fmt"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/scopegen/errz"
)

// testBuilder is a minimal function context for driving a ScopeStack.
type testBuilder struct {
	m      *ir.Module
	f      *ir.Func
	entry  *ir.Block
	cur    *ir.Block
	names  map[string]int
	ehPtr  *ir.InstAlloca
	ehSel  *ir.InstAlloca
	typeID *ir.Func
	resume *ir.Block
}

func newTestBuilder() *testBuilder {
	m := ir.NewModule()
	f := m.NewFunc("test", types.Void)
	b := &testBuilder{m: m, f: f, names: map[string]int{}}
	b.entry = b.NewBlock("entry")
	b.cur = b.NewBlock("body")
	b.entry.NewBr(b.cur)
	return b
}

func (b *testBuilder) NewBlock(name string) *ir.Block {
	n := b.names[name]
	b.names[name] = n + 1
	if n > 0 {
		name = fmt.Sprintf("%s%d", name, n)
	}
	return b.f.NewBlock(name)
}

func (b *testBuilder) Block() *ir.Block { return b.cur }

func (b *testBuilder) SetBlock(blk *ir.Block) { b.cur = blk }

func (b *testBuilder) Alloca(typ types.Type, name string) *ir.InstAlloca {
	a := b.entry.NewAlloca(typ)
	a.SetName(name)
	insts := b.entry.Insts
	copy(insts[1:], insts[:len(insts)-1])
	insts[0] = a
	return a
}

func (b *testBuilder) EHPtrSlot() *ir.InstAlloca {
	if b.ehPtr == nil {
		b.ehPtr = b.Alloca(types.I8Ptr, "eh.ptr")
	}
	return b.ehPtr
}

func (b *testBuilder) EHSelectorSlot() *ir.InstAlloca {
	if b.ehSel == nil {
		b.ehSel = b.Alloca(types.I32, "eh.selector")
	}
	return b.ehSel
}

func (b *testBuilder) TypeIDFor() *ir.Func {
	if b.typeID == nil {
		b.typeID = b.m.NewFunc("llvm.eh.typeid.for", types.I32, ir.NewParam("", types.I8Ptr))
	}
	return b.typeID
}

func (b *testBuilder) ResumeUnwindBlock() *ir.Block {
	if b.resume == nil {
		b.resume = b.NewBlock("eh.resume")
		b.resume.NewUnreachable()
	}
	return b.resume
}

func (b *testBuilder) function(name string) *ir.Func {
	return b.m.NewFunc(name, types.Void)
}

func (b *testBuilder) typeInfo(name string) constant.Constant {
	return b.m.NewGlobal("typeinfo."+name, types.I8)
}

// requireInvariant runs fn and checks it panics with the given kind.
func requireInvariant(t *testing.T, kind errz.ErrorKind, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(*errz.InvariantError)
		require.True(t, ok, "unexpected panic value %v", r)
		require.Equal(t, kind, err.Kind)
	}()
	fn()
}

func branchTarget(t *testing.T, blk *ir.Block) *ir.Block {
	t.Helper()
	br, ok := blk.Term.(*ir.TermBr)
	require.True(t, ok, "block %s does not end in br", blk.Name())
	target, ok := br.Target.(*ir.Block)
	require.True(t, ok)
	return target
}

func lastStore(t *testing.T, blk *ir.Block) *ir.InstStore {
	t.Helper()
	require.NotEmpty(t, blk.Insts)
	st, ok := blk.Insts[len(blk.Insts)-1].(*ir.InstStore)
	require.True(t, ok, "block %s does not end in a store", blk.Name())
	return st
}

func storedInt(t *testing.T, st *ir.InstStore) int64 {
	t.Helper()
	c, ok := st.Src.(*constant.Int)
	require.True(t, ok)
	return c.X.Int64()
}
