package fdt

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// A Property is a named value attached to a node.
type Property struct {
	Name  string
	Value []byte
}

// NumCells returns how many 32-bit cells the value holds.
func (p *Property) NumCells() int {
	return len(p.Value) / 4
}

// Cell returns the cell at index.
func (p *Property) Cell(index int) (uint32, error) {
	if index < 0 || (index+1)*4 > len(p.Value) {
		return 0, fmt.Errorf("%w: %s[%d]", ErrCellOutOfRange, p.Name, index)
	}

	return binary.BigEndian.Uint32(p.Value[index*4:]), nil
}

// Cells decodes the whole value as 32-bit cells. Trailing bytes that do not
// make a whole cell are ignored.
func (p *Property) Cells() []uint32 {
	cells := make([]uint32, p.NumCells())
	for i := range cells {
		cells[i] = binary.BigEndian.Uint32(p.Value[i*4:])
	}

	return cells
}

// Strings decodes the value as a list of NUL-terminated strings.
func (p *Property) Strings() []string {
	if len(p.Value) == 0 {
		return nil
	}

	v := bytes.TrimSuffix(p.Value, []byte{0})
	parts := bytes.Split(v, []byte{0})

	strs := make([]string, len(parts))
	for i, s := range parts {
		strs[i] = string(s)
	}

	return strs
}

// EncodeCells packs 32-bit values into a property value.
func EncodeCells(cells ...uint32) []byte {
	b := make([]byte, 4*len(cells))
	for i, c := range cells {
		binary.BigEndian.PutUint32(b[i*4:], c)
	}

	return b
}

// EncodeStrings packs strings into a NUL-separated property value.
func EncodeStrings(strs ...string) []byte {
	var b bytes.Buffer
	for _, s := range strs {
		b.WriteString(s)
		b.WriteByte(0)
	}

	return b.Bytes()
}

// SplitValue splits value into n big-endian cells, most significant first.
func SplitValue(value uint64, n int) ([]uint32, error) {
	if n < 1 || n > 2 {
		if n == 0 && value == 0 {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: %#x in %d cells", ErrCellOverflow, value, n)
	}

	if n == 1 {
		if value > 0xffffffff {
			return nil, fmt.Errorf(
				"%w: %#x in %d cells", ErrCellOverflow, value, n)
		}

		return []uint32{uint32(value)}, nil
	}

	return []uint32{uint32(value >> 32), uint32(value)}, nil
}

// JoinCells combines big-endian cells, most significant first, into a
// 64-bit value. Only the last two cells contribute.
func JoinCells(cells []uint32) uint64 {
	var v uint64
	for _, c := range cells {
		v = v<<32 | uint64(c)
	}

	return v
}

// SetProperty creates or replaces the raw value of a property.
func (t *Tree) SetProperty(path, name string, value []byte) error {
	n, err := t.Lookup(path)
	if err != nil {
		return err
	}

	n.SetProperty(name, value)

	return nil
}

// SetPropertyCells stores cells as the value of a property.
func (t *Tree) SetPropertyCells(path, name string, cells ...uint32) error {
	return t.SetProperty(path, name, EncodeCells(cells...))
}

// SetPropertyStrings stores a string list as the value of a property.
func (t *Tree) SetPropertyStrings(path, name string, strs ...string) error {
	return t.SetProperty(path, name, EncodeStrings(strs...))
}

// Property returns the named property of the node at path.
func (t *Tree) Property(path, name string) (*Property, error) {
	n, err := t.Lookup(path)
	if err != nil {
		return nil, err
	}

	p := n.Property(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s:%s", ErrPropertyNotFound, path, name)
	}

	return p, nil
}

// PropertyCell reads a single 32-bit cell of a property.
func (t *Tree) PropertyCell(path, name string, index int) (uint32, error) {
	p, err := t.Property(path, name)
	if err != nil {
		return 0, err
	}

	v, err := p.Cell(index)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	return v, nil
}

// PropertyCells reads a property as a list of 32-bit cells.
func (t *Tree) PropertyCells(path, name string) ([]uint32, error) {
	p, err := t.Property(path, name)
	if err != nil {
		return nil, err
	}

	return p.Cells(), nil
}

// PropertyStrings reads a property as a string list.
func (t *Tree) PropertyStrings(path, name string) ([]string, error) {
	p, err := t.Property(path, name)
	if err != nil {
		return nil, err
	}

	return p.Strings(), nil
}
