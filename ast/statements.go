package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/scopegen/internal/token"
)

// Scope declares a local object of a type with a destructor. The destructor
// runs whenever the body is left.
type Scope struct {
	ScopePos token.Position
	Var      string // variable name
	Type     string // type name, selects the constructor and destructor
	Body     *Block
}

func (x *Scope) stmtNode() {}

func (x *Scope) Pos() token.Position { return x.ScopePos }

func (x *Scope) String() string {
	return fmt.Sprintf("scope %s %s %s", x.Type, x.Var, x.Body)
}

// Try is a try statement with catch clauses, a finally block or both.
type Try struct {
	TryPos  token.Position
	Body    *Block
	Catches []*Catch
	Finally *Block // nil if absent
}

func (x *Try) stmtNode() {}

func (x *Try) Pos() token.Position { return x.TryPos }

func (x *Try) String() string {
	var out strings.Builder
	out.WriteString("try ")
	out.WriteString(x.Body.String())
	for _, c := range x.Catches {
		out.WriteString(" ")
		out.WriteString(c.String())
	}
	if x.Finally != nil {
		out.WriteString(" finally ")
		out.WriteString(x.Finally.String())
	}
	return out.String()
}

// Catch is one catch clause of a Try. Clauses are tested in order.
type Catch struct {
	CatchPos token.Position
	Type     string // exception type name
	Body     *Block
}

func (x *Catch) Pos() token.Position { return x.CatchPos }

func (x *Catch) String() string {
	return fmt.Sprintf("catch (%s) %s", x.Type, x.Body)
}

// Loop is a while loop. Cond names a function returning the loop condition.
type Loop struct {
	LoopPos token.Position
	Label   string // optional
	Cond    string
	Body    *Block
}

func (x *Loop) stmtNode() {}

func (x *Loop) Pos() token.Position { return x.LoopPos }

func (x *Loop) String() string {
	return fmt.Sprintf("%swhile (%s()) %s", labelPrefix(x.Label), x.Cond, x.Body)
}

// Switch dispatches on the value returned by the function named On.
type Switch struct {
	SwitchPos token.Position
	Label     string // optional
	On        string
	Cases     []*Case
	Default   *Block // nil if absent
}

func (x *Switch) stmtNode() {}

func (x *Switch) Pos() token.Position { return x.SwitchPos }

func (x *Switch) String() string {
	var out strings.Builder
	out.WriteString(labelPrefix(x.Label))
	fmt.Fprintf(&out, "switch (%s()) {\n", x.On)
	for _, c := range x.Cases {
		out.WriteString(c.String())
		out.WriteString("\n")
	}
	if x.Default != nil {
		out.WriteString("default: ")
		out.WriteString(x.Default.String())
		out.WriteString("\n")
	}
	out.WriteString("}")
	return out.String()
}

// Case is one arm of a Switch.
type Case struct {
	CasePos token.Position
	Values  []int64
	Body    *Block
}

func (x *Case) Pos() token.Position { return x.CasePos }

func (x *Case) String() string {
	values := make([]string, 0, len(x.Values))
	for _, v := range x.Values {
		values = append(values, strconv.FormatInt(v, 10))
	}
	return fmt.Sprintf("case %s: %s", strings.Join(values, ", "), x.Body)
}

// If is a conditional. Cond names a function returning the condition.
type If struct {
	IfPos token.Position
	Cond  string
	Then  *Block
	Else  *Block // nil if absent
}

func (x *If) stmtNode() {}

func (x *If) Pos() token.Position { return x.IfPos }

func (x *If) String() string {
	s := fmt.Sprintf("if (%s()) %s", x.Cond, x.Then)
	if x.Else != nil {
		s += " else " + x.Else.String()
	}
	return s
}

// Label marks a goto target.
type Label struct {
	LabelPos token.Position
	Name     string
}

func (x *Label) stmtNode() {}

func (x *Label) Pos() token.Position { return x.LabelPos }
func (x *Label) String() string      { return x.Name + ":" }

// Goto jumps to a label of the same function.
type Goto struct {
	GotoPos token.Position
	Label   string
}

func (x *Goto) stmtNode() {}

func (x *Goto) Pos() token.Position { return x.GotoPos }
func (x *Goto) String() string      { return "goto " + x.Label }

// Break leaves the innermost loop or switch, or the one with the given label.
type Break struct {
	BreakPos token.Position
	Label    string // optional
}

func (x *Break) stmtNode() {}

func (x *Break) Pos() token.Position { return x.BreakPos }
func (x *Break) String() string      { return jumpString("break", x.Label) }

// Continue starts the next iteration of the innermost loop, or of the one
// with the given label.
type Continue struct {
	ContinuePos token.Position
	Label       string // optional
}

func (x *Continue) stmtNode() {}

func (x *Continue) Pos() token.Position { return x.ContinuePos }
func (x *Continue) String() string      { return jumpString("continue", x.Label) }

// Return leaves the function.
type Return struct {
	ReturnPos token.Position
}

func (x *Return) stmtNode() {}

func (x *Return) Pos() token.Position { return x.ReturnPos }
func (x *Return) String() string      { return "return" }

// Call calls a function without arguments. Unless NoThrow is set, the
// callee may throw.
type Call struct {
	CallPos token.Position
	Func    string
	NoThrow bool
}

func (x *Call) stmtNode() {}

func (x *Call) Pos() token.Position { return x.CallPos }

func (x *Call) String() string {
	if x.NoThrow {
		return x.Func + "() nothrow"
	}
	return x.Func + "()"
}

// Throw throws a new exception of the given type.
type Throw struct {
	ThrowPos token.Position
	Type     string
}

func (x *Throw) stmtNode() {}

func (x *Throw) Pos() token.Position { return x.ThrowPos }
func (x *Throw) String() string      { return "throw " + x.Type + "()" }

func labelPrefix(label string) string {
	if label == "" {
		return ""
	}
	return label + ": "
}

func jumpString(keyword, label string) string {
	if label == "" {
		return keyword
	}
	return keyword + " " + label
}
