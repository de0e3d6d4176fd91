package fdt

// Default cell counts when a node does not carry #address-cells or
// #size-cells.
const (
	DefaultAddressCells = 2
	DefaultSizeCells    = 1
)

// AddressCells returns the #address-cells value that applies to the children
// of the node at path.
func (t *Tree) AddressCells(path string) (int, error) {
	return t.cellCount(path, "#address-cells", DefaultAddressCells)
}

// SizeCells returns the #size-cells value that applies to the children of
// the node at path.
func (t *Tree) SizeCells(path string) (int, error) {
	return t.cellCount(path, "#size-cells", DefaultSizeCells)
}

func (t *Tree) cellCount(path, name string, def int) (int, error) {
	n, err := t.Lookup(path)
	if err != nil {
		return 0, err
	}

	p := n.Property(name)
	if p == nil {
		return def, nil
	}

	v, err := p.Cell(0)
	if err != nil {
		return 0, err
	}

	return int(v), nil
}

// RegEntry is one (address, size) pair of a reg property.
type RegEntry struct {
	Address uint64
	Size    uint64
}

// EncodeReg encodes a single reg entry using the given cell counts.
func EncodeReg(e RegEntry, addressCells, sizeCells int) ([]uint32, error) {
	addr, err := SplitValue(e.Address, addressCells)
	if err != nil {
		return nil, err
	}

	size, err := SplitValue(e.Size, sizeCells)
	if err != nil {
		return nil, err
	}

	return append(addr, size...), nil
}

// DecodeReg decodes the reg property of the node at path using the cell
// counts of its parent.
func (t *Tree) DecodeReg(path string) ([]RegEntry, error) {
	n, err := t.Lookup(path)
	if err != nil {
		return nil, err
	}

	parentPath := "/"
	if n.parent != nil {
		parentPath = n.parent.Path()
	}

	ac, err := t.AddressCells(parentPath)
	if err != nil {
		return nil, err
	}

	sc, err := t.SizeCells(parentPath)
	if err != nil {
		return nil, err
	}

	cells, err := t.PropertyCells(path, "reg")
	if err != nil {
		return nil, err
	}

	stride := ac + sc
	if stride == 0 || len(cells)%stride != 0 {
		return nil, ErrCellOutOfRange
	}

	entries := make([]RegEntry, 0, len(cells)/stride)
	for i := 0; i < len(cells); i += stride {
		entries = append(entries, RegEntry{
			Address: JoinCells(cells[i : i+ac]),
			Size:    JoinCells(cells[i+ac : i+stride]),
		})
	}

	return entries, nil
}
