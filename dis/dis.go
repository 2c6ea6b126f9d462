// Package dis summarizes the control flow of generated functions.
package dis

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
	"github.com/olekukonko/tablewriter"
)

// Block describes one basic block of a function.
type Block struct {
	Name         string
	Instructions int // not counting the terminator
	Terminator   string
	Successors   []string
	LandingPad   bool
}

// Successors returns the blocks a terminator may transfer control to, in
// operand order. The unwind destination of an invoke is included.
func Successors(term ir.Terminator) []*ir.Block {
	var out []*ir.Block
	add := func(v value.Value) {
		if b, ok := v.(*ir.Block); ok {
			out = append(out, b)
		}
	}
	switch t := term.(type) {
	case *ir.TermBr:
		add(t.Target)
	case *ir.TermCondBr:
		add(t.TargetTrue)
		add(t.TargetFalse)
	case *ir.TermSwitch:
		add(t.TargetDefault)
		for _, c := range t.Cases {
			add(c.Target)
		}
	case *ir.TermInvoke:
		add(t.NormalRetTarget)
		add(t.ExceptionRetTarget)
	}
	return out
}

// TerminatorName returns the mnemonic of a terminator, or "" for nil.
func TerminatorName(term ir.Terminator) string {
	switch term.(type) {
	case nil:
		return ""
	case *ir.TermRet:
		return "ret"
	case *ir.TermBr:
		return "br"
	case *ir.TermCondBr:
		return "condbr"
	case *ir.TermSwitch:
		return "switch"
	case *ir.TermInvoke:
		return "invoke"
	case *ir.TermResume:
		return "resume"
	case *ir.TermUnreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("%T", term)
	}
}

// Disassemble returns a summary of every block of f, in layout order.
func Disassemble(f *ir.Func) ([]Block, error) {
	if len(f.Blocks) == 0 {
		return nil, fmt.Errorf("function %q has no body", f.Name())
	}
	blocks := make([]Block, 0, len(f.Blocks))
	for _, b := range f.Blocks {
		info := Block{
			Name:         b.Name(),
			Instructions: len(b.Insts),
			Terminator:   TerminatorName(b.Term),
		}
		if len(b.Insts) > 0 {
			_, info.LandingPad = b.Insts[0].(*ir.InstLandingPad)
		}
		if b.Term != nil {
			for _, succ := range Successors(b.Term) {
				info.Successors = append(info.Successors, succ.Name())
			}
		}
		blocks = append(blocks, info)
	}
	return blocks, nil
}

// Print writes blocks as a table.
func Print(blocks []Block, writer io.Writer) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"Block", "Insts", "Terminator", "Successors"})
	table.SetAutoWrapText(false)
	for _, b := range blocks {
		name := b.Name
		if b.LandingPad {
			name += " (lp)"
		}
		table.Append([]string{
			name,
			strconv.Itoa(b.Instructions),
			b.Terminator,
			strings.Join(b.Successors, ", "),
		})
	}
	table.Render()
}

// Func disassembles f and prints the table, preceded by its name.
func Func(f *ir.Func, writer io.Writer) error {
	blocks, err := Disassemble(f)
	if err != nil {
		return err
	}
	fmt.Fprintf(writer, "%s:\n", f.Name())
	Print(blocks, writer)
	return nil
}
