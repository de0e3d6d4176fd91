package fdtgeneric

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/xid"
	"github.com/sarchlab/fdtplatform/fdt"
)

// Errors reported by the framework.
var (
	ErrFactory       = errors.New("component factory failed")
	ErrSessionClosed = errors.New("session already closed")
)

// A Session holds every component built from one pass over a tree.
type Session struct {
	id   string
	tree *fdt.Tree

	components    []Component
	compatibles   []string
	compNameIndex map[string]int
	closed        bool
}

func newSession(tree *fdt.Tree) *Session {
	return &Session{
		id:            xid.New().String(),
		tree:          tree,
		compNameIndex: make(map[string]int),
	}
}

// ID returns the unique identifier of the session.
func (s *Session) ID() string {
	return s.id
}

// Tree returns the tree the session was opened on.
func (s *Session) Tree() *fdt.Tree {
	return s.tree
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	return s.closed
}

func (s *Session) register(c Component, compatible string) {
	name := c.Name()
	if _, found := s.compNameIndex[name]; found {
		panic("component " + name + " already registered")
	}

	s.components = append(s.components, c)
	s.compatibles = append(s.compatibles, compatible)
	s.compNameIndex[name] = len(s.components) - 1
}

// Components returns the components in creation order.
func (s *Session) Components() []Component {
	return s.components
}

// GetComponentByName returns the component built from the node at path.
func (s *Session) GetComponentByName(name string) (Component, bool) {
	i, found := s.compNameIndex[name]
	if !found {
		return nil, false
	}

	return s.components[i], true
}

// CompatibleOf returns the compatible string the named component was built
// for.
func (s *Session) CompatibleOf(name string) (string, bool) {
	i, found := s.compNameIndex[name]
	if !found {
		return "", false
	}

	return s.compatibles[i], true
}

// Close releases the components in reverse creation order. It must be
// called exactly once.
func (s *Session) Close() error {
	if s.closed {
		return ErrSessionClosed
	}

	s.closed = true

	return s.release()
}

func (s *Session) release() error {
	var result *multierror.Error

	for i := len(s.components) - 1; i >= 0; i-- {
		r, ok := s.components[i].(Releaser)
		if !ok {
			continue
		}

		err := r.Release()
		if err != nil {
			result = multierror.Append(result,
				fmt.Errorf("%s: %w", s.components[i].Name(), err))
		}
	}

	s.components = nil
	s.compatibles = nil
	s.compNameIndex = make(map[string]int)

	return result.ErrorOrNil()
}
