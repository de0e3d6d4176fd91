package platform

import (
	"fmt"

	"github.com/sarchlab/fdtplatform/fdt"
	"github.com/spf13/afero"
)

// A DescriptionSource provides the hardware-description tree.
type DescriptionSource interface {
	Load() (*fdt.Tree, error)
}

// FileSource loads a flattened devicetree blob from a file system.
type FileSource struct {
	fs   afero.Fs
	path string
}

// NewFileSource creates a FileSource that reads path from fs.
func NewFileSource(fs afero.Fs, path string) *FileSource {
	return &FileSource{fs: fs, path: path}
}

// Load reads and decodes the blob.
func (s *FileSource) Load() (*fdt.Tree, error) {
	if s.path == "" {
		return nil, fmt.Errorf("%w: the option hw-dtb must be specified",
			ErrDescriptionUnavailable)
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to load device tree %s: %w",
			ErrDescriptionUnavailable, s.path, err)
	}

	tree, err := fdt.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to parse device tree %s: %w",
			ErrDescriptionUnavailable, s.path, err)
	}

	return tree, nil
}

// TreeSource hands out a tree that is already in memory.
type TreeSource struct {
	Tree *fdt.Tree
}

// Load returns the tree.
func (s TreeSource) Load() (*fdt.Tree, error) {
	if s.Tree == nil {
		return nil, fmt.Errorf("%w: no tree", ErrDescriptionUnavailable)
	}

	return s.Tree, nil
}
