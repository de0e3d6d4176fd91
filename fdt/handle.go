package fdt

// A Handle is a tree-wide unique reference to a node (a phandle).
type Handle uint32

var handleProps = []string{"phandle", "linux,phandle"}

// Handle returns the handle of the node at path. The boolean is false if the
// node does not carry a handle.
func (t *Tree) Handle(path string) (Handle, bool, error) {
	n, err := t.Lookup(path)
	if err != nil {
		return 0, false, err
	}

	h, ok := nodeHandle(n)

	return h, ok, nil
}

func nodeHandle(n *Node) (Handle, bool) {
	for _, name := range handleProps {
		p := n.Property(name)
		if p == nil {
			continue
		}

		v, err := p.Cell(0)
		if err != nil || v == 0 || v == 0xffffffff {
			continue
		}

		return Handle(v), true
	}

	return 0, false
}

// PathByHandle returns the path of the node that carries handle h.
func (t *Tree) PathByHandle(h Handle) (string, bool) {
	for _, n := range t.nodes() {
		nh, ok := nodeHandle(n)
		if ok && nh == h {
			return n.Path(), true
		}
	}

	return "", false
}

// MaxHandle returns the largest handle used in the tree, or 0.
func (t *Tree) MaxHandle() Handle {
	var highest Handle
	for _, n := range t.nodes() {
		if h, ok := nodeHandle(n); ok && h > highest {
			highest = h
		}
	}

	return highest
}

// AssignHandle gives the node at path a handle if it does not have one yet,
// and returns the node's handle.
func (t *Tree) AssignHandle(path string) (Handle, error) {
	n, err := t.Lookup(path)
	if err != nil {
		return 0, err
	}

	if h, ok := nodeHandle(n); ok {
		return h, nil
	}

	h := t.MaxHandle() + 1
	n.SetProperty("phandle", EncodeCells(uint32(h)))

	return h, nil
}
