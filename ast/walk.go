package ast

import "iter"

// Visitor defines the interface for AST traversal. If Visit returns nil,
// children of the node are not visited. Otherwise, the returned Visitor
// is used to visit children.
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses an AST in depth-first order. It starts by calling
// v.Visit(node); if the returned visitor w is not nil, Walk is invoked
// recursively with visitor w for each of the non-nil children of node.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}
	for _, child := range children(node) {
		Walk(v, child)
	}
}

// children returns the direct children of a node in source order.
func children(node Node) []Node {
	var out []Node
	block := func(b *Block) {
		if b != nil {
			out = append(out, b)
		}
	}
	switch n := node.(type) {
	case *File:
		for _, fn := range n.Functions {
			out = append(out, fn)
		}
	case *Func:
		block(n.Body)
	case *Block:
		for _, stmt := range n.Stmts {
			out = append(out, stmt)
		}
	case *Scope:
		block(n.Body)
	case *Try:
		block(n.Body)
		for _, c := range n.Catches {
			out = append(out, c)
		}
		block(n.Finally)
	case *Catch:
		block(n.Body)
	case *Loop:
		block(n.Body)
	case *Switch:
		for _, c := range n.Cases {
			out = append(out, c)
		}
		block(n.Default)
	case *Case:
		block(n.Body)
	case *If:
		block(n.Then)
		block(n.Else)
	}
	return out
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses an AST in depth-first order. It calls f(node) for each
// node; if f returns true, Inspect continues with the children of node.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

// Preorder returns an iterator over all the nodes of the tree rooted at root,
// in depth-first preorder.
func Preorder(root Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		var visit func(Node) bool
		visit = func(n Node) bool {
			if !yield(n) {
				return false
			}
			for _, child := range children(n) {
				if !visit(child) {
					return false
				}
			}
			return true
		}
		visit(root)
	}
}

// Labels returns the goto labels defined in the tree, in source order.
func Labels(root Node) []*Label {
	var out []*Label
	for n := range Preorder(root) {
		if l, ok := n.(*Label); ok {
			out = append(out, l)
		}
	}
	return out
}
