package platform

import (
	"github.com/sarchlab/fdtplatform/fdt"
	"github.com/sarchlab/fdtplatform/fdtgeneric"
)

// A Framework instantiates the components a tree describes.
type Framework interface {
	// Open builds every component of the tree. Components may add nodes to
	// the tree while they are built.
	Open(tree *fdt.Tree) (Session, error)
}

// A Session holds the live components of one instantiation pass.
type Session interface {
	// Close releases the session. It is called exactly once.
	Close() error
}

// ComponentInfo describes a component that was live during assembly.
type ComponentInfo struct {
	Name       string
	Compatible string
}

// An Inventory is a session that can list its components.
type Inventory interface {
	Inventory() []ComponentInfo
}

// GenericFramework adapts the generic instantiation framework.
func GenericFramework(f *fdtgeneric.Framework) Framework {
	return genericFramework{f: f}
}

type genericFramework struct {
	f *fdtgeneric.Framework
}

func (g genericFramework) Open(tree *fdt.Tree) (Session, error) {
	s, err := g.f.Open(tree)
	if err != nil {
		return nil, err
	}

	return genericSession{Session: s}, nil
}

type genericSession struct {
	*fdtgeneric.Session
}

func (s genericSession) Inventory() []ComponentInfo {
	comps := s.Components()
	infos := make([]ComponentInfo, 0, len(comps))

	for _, c := range comps {
		compatible, _ := s.CompatibleOf(c.Name())
		infos = append(infos, ComponentInfo{
			Name:       c.Name(),
			Compatible: compatible,
		})
	}

	return infos
}
