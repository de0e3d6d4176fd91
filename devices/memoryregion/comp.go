// Package memoryregion builds the memory regions declared in a
// hardware-description tree.
package memoryregion

import "github.com/sarchlab/fdtplatform/fdt"

// Comp is a memory region.
type Comp struct {
	name string

	base         uint64
	size         uint64
	container    fdt.Handle
	hasContainer bool
	banks        []string
}

// Name returns the path of the region node.
func (c *Comp) Name() string {
	return c.name
}

// Base returns the start address of the region.
func (c *Comp) Base() uint64 {
	return c.base
}

// Size returns the size of the region in bytes.
func (c *Comp) Size() uint64 {
	return c.size
}

// Container returns the handle of the node that owns the region.
func (c *Comp) Container() (fdt.Handle, bool) {
	return c.container, c.hasContainer
}

// Banks returns the paths of the sibling banks the region added to the tree.
func (c *Comp) Banks() []string {
	return c.banks
}
