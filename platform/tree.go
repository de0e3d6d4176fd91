// Package platform assembles a running platform from a hardware-description
// tree. It settles the memory topology of the tree and brackets the
// instantiation of every described component.
package platform

import "github.com/sarchlab/fdtplatform/fdt"

// Tree is what the assembler needs from a hardware-description tree.
// *fdt.Tree implements it.
type Tree interface {
	FindNodeByName(name string) (string, bool)
	AddNode(path string) error
	SetPropertyCells(path, name string, cells ...uint32) error
	PropertyCell(path, name string, index int) (uint32, error)
	Handle(path string) (fdt.Handle, bool, error)
	AssignHandle(path string) (fdt.Handle, error)
	NextByCompatible(
		compat string,
		from fdt.Cursor,
	) (path string, next fdt.Cursor, found bool)
	Depth(path string) (int, error)
	AddressCells(path string) (int, error)
	SizeCells(path string) (int, error)
	DecodeReg(path string) ([]fdt.RegEntry, error)
}

var _ Tree = (*fdt.Tree)(nil)
