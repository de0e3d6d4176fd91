package memoryregion

import (
	"errors"
	"fmt"
	"math"
	"path"
	"strings"

	"github.com/sarchlab/fdtplatform/fdt"
	"github.com/sarchlab/fdtplatform/fdtgeneric"
)

// Compatible is the compatible string memory regions are declared with.
const Compatible = "qemu:memory-region"

const bankCountProp = "qemu,bank-count"

// MaxBankCount is the largest qemu,bank-count a region may declare.
const MaxBankCount = 64

var (
	// ErrBadReg is returned when a region does not carry a 3-cell reg.
	ErrBadReg = errors.New("memory region reg must have 3 cells")

	// ErrBadBankCount is returned when qemu,bank-count exceeds MaxBankCount.
	ErrBadBankCount = errors.New("memory region bank count out of range")

	// ErrBankOverflow is returned when the banks of a region do not fit in
	// the 64-bit address space.
	ErrBankOverflow = errors.New("memory region banks overflow 64 bits")
)

// Register binds the memory region factory to its compatible string.
func Register(r *fdtgeneric.Registry) {
	r.Register(Compatible, fdtgeneric.FactoryFunc(
		func(ctx fdtgeneric.BuildContext, path string) (
			fdtgeneric.Component, error,
		) {
			return MakeBuilder().WithTree(ctx.Tree).Build(path)
		}))
}

// Builder can build memory regions.
type Builder struct {
	tree *fdt.Tree
}

// MakeBuilder returns a new Builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithTree sets the tree the region is declared in.
func (b Builder) WithTree(tree *fdt.Tree) Builder {
	b.tree = tree
	return b
}

// Build builds the region declared by the node at nodePath. A region that
// declares more than one bank adds the other banks to the tree as siblings.
func (b Builder) Build(nodePath string) (*Comp, error) {
	if b.tree == nil {
		panic("tree is not set")
	}

	c := &Comp{name: nodePath}

	err := b.decodeReg(c)
	if err != nil {
		return nil, err
	}

	b.decodeContainer(c)

	err = b.addBanks(c)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (b Builder) decodeReg(c *Comp) error {
	reg, err := b.tree.PropertyCells(c.name, "reg")
	if err != nil {
		return err
	}

	if len(reg) < 3 {
		return fmt.Errorf("%w: %s has %d", ErrBadReg, c.name, len(reg))
	}

	c.base = uint64(reg[0])<<32 | uint64(reg[1])
	c.size = uint64(reg[2])

	return nil
}

func (b Builder) decodeContainer(c *Comp) {
	cells, err := b.tree.PropertyCells(c.name, "container")
	if err != nil || len(cells) == 0 {
		return
	}

	c.container = fdt.Handle(cells[0])
	c.hasContainer = true
}

func (b Builder) addBanks(c *Comp) error {
	cells, err := b.tree.PropertyCells(c.name, bankCountProp)
	if err != nil || len(cells) == 0 || cells[0] < 2 {
		return nil
	}

	count := uint64(cells[0])
	if count > MaxBankCount {
		return fmt.Errorf("%w: %s declares %d, at most %d",
			ErrBadBankCount, c.name, count, MaxBankCount)
	}

	// i*size and (i+1)*size fit since count and size are bounded.
	if c.base > math.MaxUint64-count*c.size {
		return fmt.Errorf("%w: %s base 0x%x, %d banks of 0x%x",
			ErrBankOverflow, c.name, c.base, count, c.size)
	}

	parent, name := path.Split(c.name)
	baseName, _, _ := strings.Cut(name, "@")

	for i := uint64(1); i < count; i++ {
		addr := c.base + i*c.size
		bankPath := fmt.Sprintf("%s%s-bank%d@%x", parent, baseName, i, addr)

		err = b.addBank(c, bankPath, addr)
		if errors.Is(err, fdt.ErrNodeExists) {
			continue
		}

		if err != nil {
			return err
		}

		c.banks = append(c.banks, bankPath)
	}

	return nil
}

func (b Builder) addBank(c *Comp, bankPath string, addr uint64) error {
	err := b.tree.AddNode(bankPath)
	if err != nil {
		return err
	}

	err = b.tree.SetPropertyStrings(bankPath, "compatible", Compatible)
	if err != nil {
		return err
	}

	err = b.tree.SetPropertyCells(bankPath, "reg",
		uint32(addr>>32), uint32(addr), uint32(c.size))
	if err != nil {
		return err
	}

	if c.hasContainer {
		return b.tree.SetPropertyCells(bankPath, "container",
			uint32(c.container))
	}

	return nil
}
