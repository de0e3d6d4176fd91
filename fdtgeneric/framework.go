package fdtgeneric

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sarchlab/fdtplatform/fdt"
	"github.com/sarchlab/fdtplatform/hooking"
)

// Hook positions of the framework.
var (
	// HookPosComponentCreated is triggered after a component is built. The
	// item is the Component and the detail is a ComponentCreated.
	HookPosComponentCreated = &hooking.HookPos{Name: "ComponentCreated"}

	// HookPosNodeSkipped is triggered for nodes that declare compatible
	// strings none of which has a factory. The item is the node path and the
	// detail is the compatible list.
	HookPosNodeSkipped = &hooking.HookPos{Name: "NodeSkipped"}
)

// ComponentCreated describes a newly built component.
type ComponentCreated struct {
	SessionID  string
	Path       string
	Compatible string
}

// A Framework opens instantiation sessions over trees.
type Framework struct {
	hooking.HookableBase

	registry *Registry
}

// NewFramework creates a framework that builds components with the
// factories of registry.
func NewFramework(registry *Registry) *Framework {
	return &Framework{registry: registry}
}

// Registry returns the registry the framework dispatches to.
func (f *Framework) Registry() *Registry {
	return f.registry
}

// Open builds one component for every node that declares a recognized
// compatible string. Nodes that factories add while the session is being
// opened are built too.
func (f *Framework) Open(tree *fdt.Tree) (*Session, error) {
	s := newSession(tree)
	visited := make(map[*fdt.Node]bool)

	for {
		pending := f.unvisitedNodes(tree, visited)
		if len(pending) == 0 {
			break
		}

		for _, n := range pending {
			visited[n] = true

			err := f.instantiate(s, n)
			if err != nil {
				releaseErr := s.release()
				s.closed = true

				if releaseErr != nil {
					err = multierror.Append(err, releaseErr)
				}

				return nil, err
			}
		}
	}

	return s, nil
}

func (f *Framework) unvisitedNodes(
	tree *fdt.Tree,
	visited map[*fdt.Node]bool,
) []*fdt.Node {
	var pending []*fdt.Node

	tree.Walk(func(n *fdt.Node) bool {
		if !visited[n] {
			pending = append(pending, n)
		}

		return true
	})

	return pending
}

func (f *Framework) instantiate(s *Session, n *fdt.Node) error {
	compatibles := n.Compatible()
	if len(compatibles) == 0 {
		return nil
	}

	path := n.Path()

	for _, c := range compatibles {
		factory, found := f.registry.Lookup(c)
		if !found {
			continue
		}

		comp, err := factory.Create(BuildContext{Tree: s.tree, Session: s}, path)
		if err != nil {
			return fmt.Errorf("%w: %s (%s): %w", ErrFactory, path, c, err)
		}

		s.register(comp, c)

		f.InvokeHook(hooking.HookCtx{
			Domain: f,
			Pos:    HookPosComponentCreated,
			Item:   comp,
			Detail: ComponentCreated{
				SessionID:  s.id,
				Path:       path,
				Compatible: c,
			},
		})

		return nil
	}

	f.InvokeHook(hooking.HookCtx{
		Domain: f,
		Pos:    HookPosNodeSkipped,
		Item:   path,
		Detail: compatibles,
	})

	return nil
}
