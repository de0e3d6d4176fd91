// Package fdt provides an in-memory hardware-description tree together with
// a codec for the flattened devicetree binary format.
package fdt

import (
	"errors"
	"fmt"
	"strings"
)

// Errors reported by tree accessors.
var (
	ErrNodeNotFound     = errors.New("node not found")
	ErrNodeExists       = errors.New("node already exists")
	ErrPropertyNotFound = errors.New("property not found")
	ErrCellOutOfRange   = errors.New("cell index out of range")
	ErrInvalidPath      = errors.New("invalid node path")
	ErrCellOverflow     = errors.New("value does not fit in cells")
)

// A ReserveEntry is one entry of the memory reservation block.
type ReserveEntry struct {
	Address uint64
	Size    uint64
}

// A Tree is a mutable hardware-description tree.
//
// A Tree is owned by a single caller at a time. It is not safe for concurrent
// use.
type Tree struct {
	root *Node

	// Reserved lists the memory reservation entries of the blob.
	Reserved []ReserveEntry

	// BootCPUID is the physical ID of the boot CPU.
	BootCPUID uint32

	order []*Node
	dirty bool
}

// NewTree creates a tree that only holds an empty root node.
func NewTree() *Tree {
	t := &Tree{}
	t.root = &Node{tree: t}
	t.dirty = true

	return t
}

// Root returns the root node.
func (t *Tree) Root() *Node {
	return t.root
}

func (t *Tree) invalidate() {
	t.dirty = true
}

// nodes returns all the nodes in depth-first pre-order.
func (t *Tree) nodes() []*Node {
	if !t.dirty {
		return t.order
	}

	// A fresh slice keeps earlier snapshots valid for callers that mutate
	// the tree while iterating.
	order := make([]*Node, 0, len(t.order))
	t.root.walk(func(n *Node) bool {
		order = append(order, n)
		return true
	})
	t.order = order
	t.dirty = false

	return t.order
}

// Walk visits every node in depth-first pre-order. Returning false from visit
// stops the walk.
func (t *Tree) Walk(visit func(n *Node) bool) {
	for _, n := range t.nodes() {
		if !visit(n) {
			return
		}
	}
}

// NumNodes returns the number of nodes in the tree, including the root.
func (t *Tree) NumNodes() int {
	return len(t.nodes())
}

func splitPath(path string) ([]string, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	if path == "/" {
		return nil, nil
	}

	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}

	return parts, nil
}

// Lookup returns the node at the given path.
func (t *Tree) Lookup(path string) (*Node, error) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	n := t.root
	for _, p := range parts {
		n = n.Child(p)
		if n == nil {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, path)
		}
	}

	return n, nil
}

// FindNodeByName returns the path of the first node, in depth-first
// pre-order, whose name is name or starts with name followed by a unit
// address ("memory" matches both "memory" and "memory@0").
func (t *Tree) FindNodeByName(name string) (string, bool) {
	for _, n := range t.nodes() {
		if n == t.root {
			continue
		}

		if n.Name == name || strings.HasPrefix(n.Name, name+"@") {
			return n.Path(), true
		}
	}

	return "", false
}

// AddNode creates an empty node at path. The parent must already exist.
func (t *Tree) AddNode(path string) error {
	parts, err := splitPath(path)
	if err != nil {
		return err
	}

	if len(parts) == 0 {
		return fmt.Errorf("%w: /", ErrNodeExists)
	}

	parentPath := "/" + strings.Join(parts[:len(parts)-1], "/")

	parent, err := t.Lookup(parentPath)
	if err != nil {
		return err
	}

	_, err = parent.AddChild(parts[len(parts)-1])
	if err != nil {
		return fmt.Errorf("%w: %s", err, path)
	}

	return nil
}

// Depth returns the depth of the node at path. The root has depth 0.
func (t *Tree) Depth(path string) (int, error) {
	n, err := t.Lookup(path)
	if err != nil {
		return 0, err
	}

	return n.Depth(), nil
}
