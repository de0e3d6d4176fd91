package fdt

import (
	"strings"
)

// A Node is one node of a Tree.
type Node struct {
	Name string

	tree     *Tree
	parent   *Node
	children []*Node
	props    []*Property
}

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the child nodes in insertion order.
func (n *Node) Children() []*Node {
	return n.children
}

// Properties returns the properties in insertion order.
func (n *Node) Properties() []*Property {
	return n.props
}

// Child returns the direct child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
	}

	return nil
}

// AddChild appends a new child node.
func (n *Node) AddChild(name string) (*Node, error) {
	if name == "" || strings.Contains(name, "/") {
		return nil, ErrInvalidPath
	}

	if n.Child(name) != nil {
		return nil, ErrNodeExists
	}

	c := &Node{
		Name:   name,
		tree:   n.tree,
		parent: n,
	}
	n.children = append(n.children, c)

	if n.tree != nil {
		n.tree.invalidate()
	}

	return c, nil
}

// Depth returns the number of edges between the node and the root.
func (n *Node) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}

	return d
}

// Path returns the absolute path of the node.
func (n *Node) Path() string {
	if n.parent == nil {
		return "/"
	}

	names := []string{}
	for c := n; c.parent != nil; c = c.parent {
		names = append(names, c.Name)
	}

	var b strings.Builder
	for i := len(names) - 1; i >= 0; i-- {
		b.WriteString("/")
		b.WriteString(names[i])
	}

	return b.String()
}

// Property returns the property with the given name, or nil.
func (n *Node) Property(name string) *Property {
	for _, p := range n.props {
		if p.Name == name {
			return p
		}
	}

	return nil
}

// SetProperty creates or replaces a property.
func (n *Node) SetProperty(name string, value []byte) {
	if p := n.Property(name); p != nil {
		p.Value = value
		return
	}

	n.props = append(n.props, &Property{Name: name, Value: value})
}

func (n *Node) walk(visit func(n *Node) bool) bool {
	if !visit(n) {
		return false
	}

	for _, c := range n.children {
		if !c.walk(visit) {
			return false
		}
	}

	return true
}
