package fdt

import (
	"bytes"
	"encoding/binary"
)

type stringTable struct {
	buf     bytes.Buffer
	offsets map[string]uint32
}

func (s *stringTable) offset(name string) uint32 {
	if off, ok := s.offsets[name]; ok {
		return off
	}

	off := uint32(s.buf.Len())
	s.buf.WriteString(name)
	s.buf.WriteByte(0)
	s.offsets[name] = off

	return off
}

type structEncoder struct {
	buf     bytes.Buffer
	strings *stringTable
}

func (e *structEncoder) u32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *structEncoder) pad() {
	for e.buf.Len()%4 != 0 {
		e.buf.WriteByte(0)
	}
}

func (e *structEncoder) node(n *Node) {
	e.u32(tokenBeginNode)
	e.buf.WriteString(n.Name)
	e.buf.WriteByte(0)
	e.pad()

	for _, p := range n.props {
		e.u32(tokenProp)
		e.u32(uint32(len(p.Value)))
		e.u32(e.strings.offset(p.Name))
		e.buf.Write(p.Value)
		e.pad()
	}

	for _, c := range n.children {
		e.node(c)
	}

	e.u32(tokenEndNode)
}

// Marshal encodes the tree as a version 17 flattened devicetree blob.
func Marshal(t *Tree) ([]byte, error) {
	strs := &stringTable{offsets: make(map[string]uint32)}
	enc := &structEncoder{strings: strs}
	enc.node(t.root)
	enc.u32(tokenEnd)

	rsv := make([]byte, 16*(len(t.Reserved)+1))
	for i, r := range t.Reserved {
		binary.BigEndian.PutUint64(rsv[i*16:], r.Address)
		binary.BigEndian.PutUint64(rsv[i*16+8:], r.Size)
	}

	offRsv := uint32(headerSize)
	offStruct := offRsv + uint32(len(rsv))
	offStrings := offStruct + uint32(enc.buf.Len())
	total := offStrings + uint32(strs.buf.Len())

	h := header{
		Magic:           Magic,
		TotalSize:       total,
		OffStruct:       offStruct,
		OffStrings:      offStrings,
		OffMemRsv:       offRsv,
		Version:         Version,
		LastCompVersion: LastCompVersion,
		BootCPUID:       t.BootCPUID,
		SizeStrings:     uint32(strs.buf.Len()),
		SizeStruct:      uint32(enc.buf.Len()),
	}

	out := bytes.NewBuffer(make([]byte, 0, total))

	err := binary.Write(out, binary.BigEndian, &h)
	if err != nil {
		return nil, err
	}

	out.Write(rsv)
	out.Write(enc.buf.Bytes())
	out.Write(strs.buf.Bytes())

	return out.Bytes(), nil
}
