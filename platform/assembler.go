package platform

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sarchlab/fdtplatform/fdt"
	"github.com/sarchlab/fdtplatform/hooking"
)

// A Platform is the outcome of a successful assembly.
type Platform struct {
	Tree       *fdt.Tree
	MemoryNode MemoryNode
	Regions    []MemoryRegion
	FromSeed   bool

	// RequestedSize is the memory size the caller asked for.
	RequestedSize uint64

	// MemorySize is the authoritative memory size. The caller publishes it
	// into its runtime configuration.
	MemorySize uint64

	// Components lists what was live while the session was open.
	Components []ComponentInfo
}

// Builder can build assemblers.
type Builder struct {
	framework Framework
	hooks     []hooking.Hook
}

// MakeBuilder returns a new Builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithFramework sets the instantiation framework.
func (b Builder) WithFramework(f Framework) Builder {
	b.framework = f
	return b
}

// WithHook adds a hook to the assembler.
func (b Builder) WithHook(h hooking.Hook) Builder {
	b.hooks = append(b.hooks[:len(b.hooks):len(b.hooks)], h)
	return b
}

// Build creates the assembler.
func (b Builder) Build() *Assembler {
	if b.framework == nil {
		panic("framework is not set")
	}

	a := &Assembler{framework: b.framework}
	for _, h := range b.hooks {
		a.AcceptHook(h)
	}

	return a
}

// An Assembler turns a hardware description into a platform.
type Assembler struct {
	hooking.HookableBase

	framework Framework
}

// Assemble loads the description, normalizes its memory topology, opens an
// instantiation session, measures the memory the tree declares, reconciles
// it against requested, and closes the session. The session is closed on
// every path once it has been opened.
func (a *Assembler) Assemble(
	src DescriptionSource,
	requested uint64,
) (p *Platform, err error) {
	tree, err := src.Load()
	if err != nil {
		return nil, err
	}

	node, err := EnsureTopLevelMemoryNode(tree, requested)
	if err != nil {
		return nil, err
	}

	if node.Created() {
		a.invoke(HookPosMemoryNodeCreated, node, requested)
	}

	session, err := a.framework.Open(tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInstantiation, err)
	}

	defer func() {
		closeErr := session.Close()
		if closeErr == nil {
			return
		}

		err = multierror.Append(err,
			fmt.Errorf("closing instantiation session: %w", closeErr))
		p = nil
	}()

	return a.measure(tree, node, session, requested)
}

func (a *Assembler) measure(
	tree *fdt.Tree,
	node MemoryNode,
	session Session,
	requested uint64,
) (*Platform, error) {
	ext, err := ScanTopLevelMemory(tree, node.Path)
	if err != nil {
		return nil, err
	}

	for _, r := range ext.Regions {
		a.invoke(HookPosRegionFound, r, nil)
	}

	size, err := Reconcile(ext.Effective, requested)
	if err != nil {
		a.invoke(HookPosInsufficientMemory, err, ext)
		return nil, err
	}

	a.invoke(HookPosMemoryReconciled, size, requested)

	p := &Platform{
		Tree:          tree,
		MemoryNode:    node,
		Regions:       ext.Regions,
		FromSeed:      ext.FromSeed,
		RequestedSize: requested,
		MemorySize:    size,
	}

	if inv, ok := session.(Inventory); ok {
		p.Components = inv.Inventory()
	}

	return p, nil
}

func (a *Assembler) invoke(pos *hooking.HookPos, item, detail any) {
	if a.NumHooks() == 0 {
		return
	}

	a.InvokeHook(hooking.HookCtx{
		Domain: a,
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}
