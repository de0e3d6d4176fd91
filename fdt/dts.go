package fdt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteDTS prints the tree in devicetree source syntax.
func (t *Tree) WriteDTS(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprint(bw, "/dts-v1/;\n\n")

	for _, r := range t.Reserved {
		fmt.Fprintf(bw, "/memreserve/ %#x %#x;\n", r.Address, r.Size)
	}

	if len(t.Reserved) > 0 {
		fmt.Fprint(bw, "\n")
	}

	writeDTSNode(bw, t.root, 0)

	return bw.Flush()
}

func writeDTSNode(w *bufio.Writer, n *Node, depth int) {
	indent := strings.Repeat("\t", depth)

	name := n.Name
	if n.parent == nil {
		name = "/"
	}

	fmt.Fprintf(w, "%s%s {\n", indent, name)

	for _, p := range n.props {
		if len(p.Value) == 0 {
			fmt.Fprintf(w, "%s\t%s;\n", indent, p.Name)
			continue
		}

		fmt.Fprintf(w, "%s\t%s = %s;\n", indent, p.Name, formatValue(p))
	}

	for _, c := range n.children {
		writeDTSNode(w, c, depth+1)
	}

	fmt.Fprintf(w, "%s};\n", indent)
}

func formatValue(p *Property) string {
	if isStringList(p.Value) {
		strs := p.Strings()
		quoted := make([]string, len(strs))
		for i, s := range strs {
			quoted[i] = fmt.Sprintf("%q", s)
		}

		return strings.Join(quoted, ", ")
	}

	if len(p.Value)%4 == 0 {
		cells := p.Cells()
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = fmt.Sprintf("%#x", c)
		}

		return "<" + strings.Join(parts, " ") + ">"
	}

	parts := make([]string, len(p.Value))
	for i, b := range p.Value {
		parts[i] = fmt.Sprintf("%02x", b)
	}

	return "[" + strings.Join(parts, " ") + "]"
}

func isStringList(v []byte) bool {
	if len(v) == 0 || v[0] == 0 || v[len(v)-1] != 0 {
		return false
	}

	for i, b := range v {
		if b == 0 {
			if i > 0 && v[i-1] == 0 {
				return false
			}

			continue
		}

		if b < 0x20 || b > 0x7e {
			return false
		}
	}

	return true
}
