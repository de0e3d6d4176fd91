// Package fdtgeneric instantiates hardware components from the nodes of a
// hardware-description tree.
package fdtgeneric

import (
	"sort"

	"github.com/sarchlab/fdtplatform/fdt"
)

// A Component is a hardware object built from one tree node.
type Component interface {
	// Name returns the path of the node the component was built from.
	Name() string
}

// A Releaser is a component that holds resources until its session closes.
type Releaser interface {
	Release() error
}

// BuildContext is what a factory can see while it builds a component.
type BuildContext struct {
	Tree    *fdt.Tree
	Session *Session
}

// A Factory builds a component from the node at path.
type Factory interface {
	Create(ctx BuildContext, path string) (Component, error)
}

// FactoryFunc turns a function into a Factory.
type FactoryFunc func(ctx BuildContext, path string) (Component, error)

// Create calls f.
func (f FactoryFunc) Create(ctx BuildContext, path string) (Component, error) {
	return f(ctx, path)
}

// A Registry maps compatible strings to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register binds a factory to a compatible string.
func (r *Registry) Register(compatible string, f Factory) {
	if _, found := r.factories[compatible]; found {
		panic("factory for " + compatible + " already registered")
	}

	r.factories[compatible] = f
}

// Lookup returns the factory bound to compatible.
func (r *Registry) Lookup(compatible string) (Factory, bool) {
	f, found := r.factories[compatible]
	return f, found
}

// Compatibles lists the registered compatible strings in sorted order.
func (r *Registry) Compatibles() []string {
	list := make([]string, 0, len(r.factories))
	for c := range r.factories {
		list = append(list, c)
	}

	sort.Strings(list)

	return list
}
