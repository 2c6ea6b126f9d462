package ast

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/scopegen/internal/token"
)

func sampleFile() *File {
	return &File{Functions: []*Func{{
		NamePos: token.Position{Line: 1, Column: 4},
		Name:    "f",
		Body: &Block{Stmts: []Stmt{
			&Label{Name: "top"},
			&Try{
				Body: &Block{Stmts: []Stmt{&Call{Func: "g"}}},
				Catches: []*Catch{
					{Type: "E", Body: &Block{Stmts: []Stmt{&Goto{Label: "top"}}}},
				},
				Finally: &Block{Stmts: []Stmt{&Label{Name: "inner"}}},
			},
			&Switch{
				On: "pick",
				Cases: []*Case{
					{Values: []int64{1}, Body: &Block{Stmts: []Stmt{&Break{}}}},
				},
			},
		}},
	}}}
}

func kinds(nodes []Node) []string {
	var out []string
	for _, n := range nodes {
		switch n.(type) {
		case *File:
			out = append(out, "File")
		case *Func:
			out = append(out, "Func")
		case *Block:
			out = append(out, "Block")
		case *Label:
			out = append(out, "Label")
		case *Try:
			out = append(out, "Try")
		case *Catch:
			out = append(out, "Catch")
		case *Call:
			out = append(out, "Call")
		case *Goto:
			out = append(out, "Goto")
		case *Switch:
			out = append(out, "Switch")
		case *Case:
			out = append(out, "Case")
		case *Break:
			out = append(out, "Break")
		}
	}
	return out
}

func TestInspect(t *testing.T) {
	var visited []Node
	Inspect(sampleFile(), func(n Node) bool {
		visited = append(visited, n)
		return true
	})
	require.Equal(t, []string{
		"File", "Func", "Block", "Label",
		"Try", "Block", "Call", "Catch", "Block", "Goto", "Block", "Label",
		"Switch", "Case", "Block", "Break",
	}, kinds(visited))
}

func TestInspectSkipsChildren(t *testing.T) {
	var visited []Node
	Inspect(sampleFile(), func(n Node) bool {
		visited = append(visited, n)
		_, isTry := n.(*Try)
		return !isTry
	})
	require.Equal(t, []string{
		"File", "Func", "Block", "Label", "Try", "Switch", "Case", "Block", "Break",
	}, kinds(visited))
}

func TestPreorderStops(t *testing.T) {
	var visited []Node
	for n := range Preorder(sampleFile()) {
		visited = append(visited, n)
		if _, ok := n.(*Call); ok {
			break
		}
	}
	require.Equal(t, []string{"File", "Func", "Block", "Label", "Try", "Block", "Call"}, kinds(visited))
}

func TestLabels(t *testing.T) {
	labels := Labels(sampleFile())
	require.Len(t, labels, 2)
	require.Equal(t, "top", labels[0].Name)
	require.Equal(t, "inner", labels[1].Name)
}
