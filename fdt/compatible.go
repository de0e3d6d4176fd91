package fdt

// A Cursor marks a position in a depth-first pre-order scan of the tree.
// The zero Cursor starts at the root.
type Cursor int

// Compatible returns the compatible strings of the node, most specific
// first.
func (n *Node) Compatible() []string {
	p := n.Property("compatible")
	if p == nil {
		return nil
	}

	return p.Strings()
}

// IsCompatible reports whether compat is listed in the node's compatible
// property.
func (n *Node) IsCompatible(compat string) bool {
	for _, c := range n.Compatible() {
		if c == compat {
			return true
		}
	}

	return false
}

// NextByCompatible returns the path of the first node at or after from
// that is compatible with compat, together with the cursor that resumes the
// scan after it.
func (t *Tree) NextByCompatible(
	compat string,
	from Cursor,
) (path string, next Cursor, found bool) {
	nodes := t.nodes()

	if from < 0 {
		from = 0
	}

	for i := int(from); i < len(nodes); i++ {
		if nodes[i].IsCompatible(compat) {
			return nodes[i].Path(), Cursor(i + 1), true
		}
	}

	return "", Cursor(len(nodes)), false
}
