package platform

import (
	"fmt"

	"github.com/sarchlab/fdtplatform/fdt"
)

// Names used to locate the canonical memory node.
const (
	MemoryNodeName      = "memory"
	CanonicalMemoryPath = "/memory@0"
)

// NormalizeOutcome tells how the canonical memory node was obtained.
type NormalizeOutcome int

// The canonical memory node was either already in the tree or created.
const (
	MemoryNodeFound NormalizeOutcome = iota
	MemoryNodeCreated
)

func (o NormalizeOutcome) String() string {
	if o == MemoryNodeCreated {
		return "created"
	}

	return "found"
}

// MemoryNode identifies the canonical memory node.
type MemoryNode struct {
	Path    string
	Outcome NormalizeOutcome
}

// Created reports whether the node was added by normalization.
func (n MemoryNode) Created() bool {
	return n.Outcome == MemoryNodeCreated
}

// EnsureTopLevelMemoryNode returns the canonical memory node of the tree. If
// the tree has no node named "memory" or "memory@<addr>", it adds
// /memory@0 with reg = <0 requested> encoded with the root's cell counts,
// and gives it a handle so that regions can refer to it.
func EnsureTopLevelMemoryNode(tree Tree, requested uint64) (MemoryNode, error) {
	if path, found := tree.FindNodeByName(MemoryNodeName); found {
		return MemoryNode{Path: path, Outcome: MemoryNodeFound}, nil
	}

	reg, err := seedReg(tree, requested)
	if err != nil {
		return MemoryNode{}, fmt.Errorf("seeding %s: %w",
			CanonicalMemoryPath, err)
	}

	err = tree.AddNode(CanonicalMemoryPath)
	if err != nil {
		return MemoryNode{}, err
	}

	err = tree.SetPropertyCells(CanonicalMemoryPath, "reg", reg...)
	if err != nil {
		return MemoryNode{}, err
	}

	_, err = tree.AssignHandle(CanonicalMemoryPath)
	if err != nil {
		return MemoryNode{}, err
	}

	return MemoryNode{Path: CanonicalMemoryPath, Outcome: MemoryNodeCreated}, nil
}

func seedReg(tree Tree, requested uint64) ([]uint32, error) {
	ac, err := tree.AddressCells("/")
	if err != nil {
		return nil, err
	}

	sc, err := tree.SizeCells("/")
	if err != nil {
		return nil, err
	}

	return fdt.EncodeReg(fdt.RegEntry{Address: 0, Size: requested}, ac, sc)
}
