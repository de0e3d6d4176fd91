package fdt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Format constants of the flattened devicetree blob.
const (
	Magic           = 0xd00dfeed
	Version         = 17
	LastCompVersion = 16

	headerSize = 40

	tokenBeginNode = 0x1
	tokenEndNode   = 0x2
	tokenProp      = 0x3
	tokenNop       = 0x4
	tokenEnd       = 0x9
)

// ErrMalformed is returned when a blob cannot be decoded.
var ErrMalformed = errors.New("malformed flattened devicetree")

type header struct {
	Magic           uint32
	TotalSize       uint32
	OffStruct       uint32
	OffStrings      uint32
	OffMemRsv       uint32
	Version         uint32
	LastCompVersion uint32
	BootCPUID       uint32
	SizeStrings     uint32
	SizeStruct      uint32
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMalformed}, args...)...)
}

// Unmarshal decodes a flattened devicetree blob.
func Unmarshal(data []byte) (*Tree, error) {
	if len(data) < headerSize {
		return nil, malformed("blob too short (%d bytes)", len(data))
	}

	h := header{}
	err := binary.Read(bytes.NewReader(data), binary.BigEndian, &h)
	if err != nil {
		return nil, malformed("%v", err)
	}

	err = h.validate(len(data))
	if err != nil {
		return nil, err
	}

	t := NewTree()
	t.BootCPUID = h.BootCPUID

	t.Reserved, err = decodeReserved(data[h.OffMemRsv:h.TotalSize])
	if err != nil {
		return nil, err
	}

	d := &structDecoder{
		data:    data[h.OffStruct : h.OffStruct+h.SizeStruct],
		strings: data[h.OffStrings : h.OffStrings+h.SizeStrings],
	}

	err = d.decode(t)
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (h *header) validate(blobSize int) error {
	if h.Magic != Magic {
		return malformed("bad magic %#x", h.Magic)
	}

	if h.Version < LastCompVersion || h.LastCompVersion > Version {
		return malformed("unsupported version %d", h.Version)
	}

	if int(h.TotalSize) > blobSize {
		return malformed("total size %d exceeds blob size %d",
			h.TotalSize, blobSize)
	}

	if h.Version < Version && h.OffStruct <= h.TotalSize {
		h.SizeStruct = h.TotalSize - h.OffStruct
	}

	blocks := [][2]uint32{
		{h.OffMemRsv, 0},
		{h.OffStruct, h.SizeStruct},
		{h.OffStrings, h.SizeStrings},
	}
	for _, b := range blocks {
		end := uint64(b[0]) + uint64(b[1])
		if b[0] < headerSize || end > uint64(h.TotalSize) {
			return malformed("block [%d, %d) outside blob", b[0], end)
		}
	}

	return nil
}

func decodeReserved(data []byte) ([]ReserveEntry, error) {
	var entries []ReserveEntry

	for off := 0; ; off += 16 {
		if off+16 > len(data) {
			return nil, malformed("unterminated memory reservation block")
		}

		e := ReserveEntry{
			Address: binary.BigEndian.Uint64(data[off:]),
			Size:    binary.BigEndian.Uint64(data[off+8:]),
		}
		if e.Address == 0 && e.Size == 0 {
			return entries, nil
		}

		entries = append(entries, e)
	}
}

type structDecoder struct {
	data    []byte
	strings []byte
	pos     int
}

func (d *structDecoder) u32() (uint32, error) {
	if d.pos+4 > len(d.data) {
		return 0, malformed("unexpected end of struct block")
	}

	v := binary.BigEndian.Uint32(d.data[d.pos:])
	d.pos += 4

	return v, nil
}

func (d *structDecoder) align() {
	d.pos = (d.pos + 3) &^ 3
}

func (d *structDecoder) name() (string, error) {
	end := bytes.IndexByte(d.data[d.pos:], 0)
	if end < 0 {
		return "", malformed("unterminated node name")
	}

	s := string(d.data[d.pos : d.pos+end])
	d.pos += end + 1
	d.align()

	return s, nil
}

func (d *structDecoder) propName(off uint32) (string, error) {
	if int(off) >= len(d.strings) {
		return "", malformed("string offset %d out of range", off)
	}

	end := bytes.IndexByte(d.strings[off:], 0)
	if end < 0 {
		return "", malformed("unterminated property name")
	}

	return string(d.strings[off : int(off)+end]), nil
}

func (d *structDecoder) decode(t *Tree) error {
	var stack []*Node

	rootSeen := false

	for {
		tok, err := d.u32()
		if err != nil {
			return err
		}

		switch tok {
		case tokenNop:
		case tokenBeginNode:
			stack, err = d.beginNode(t, stack, rootSeen)
			if err != nil {
				return err
			}

			rootSeen = true
		case tokenEndNode:
			if len(stack) == 0 {
				return malformed("unbalanced END_NODE at %d", d.pos-4)
			}

			stack = stack[:len(stack)-1]
		case tokenProp:
			if len(stack) == 0 {
				return malformed("property outside node at %d", d.pos-4)
			}

			err = d.prop(stack[len(stack)-1])
			if err != nil {
				return err
			}
		case tokenEnd:
			if !rootSeen || len(stack) != 0 {
				return malformed("END before the root node is closed")
			}

			return nil
		default:
			return malformed("unknown token %#x at %d", tok, d.pos-4)
		}
	}
}

func (d *structDecoder) beginNode(
	t *Tree,
	stack []*Node,
	rootSeen bool,
) ([]*Node, error) {
	name, err := d.name()
	if err != nil {
		return nil, err
	}

	if len(stack) == 0 {
		if rootSeen {
			return nil, malformed("second root node %q", name)
		}

		return append(stack, t.root), nil
	}

	n, err := stack[len(stack)-1].AddChild(name)
	if err != nil {
		return nil, malformed("node %q: %v", name, err)
	}

	return append(stack, n), nil
}

func (d *structDecoder) prop(n *Node) error {
	length, err := d.u32()
	if err != nil {
		return err
	}

	nameOff, err := d.u32()
	if err != nil {
		return err
	}

	if d.pos+int(length) > len(d.data) {
		return malformed("property value overruns struct block")
	}

	name, err := d.propName(nameOff)
	if err != nil {
		return err
	}

	value := make([]byte, length)
	copy(value, d.data[d.pos:])
	d.pos += int(length)
	d.align()

	n.SetProperty(name, value)

	return nil
}
