package platform

import (
	"errors"
	"math"

	"github.com/sarchlab/fdtplatform/fdt"
)

// MemoryRegionCompatible tags the nodes that describe memory regions.
const MemoryRegionCompatible = "qemu:memory-region"

// A MemoryRegion is a top-level region that backs the canonical memory
// node.
type MemoryRegion struct {
	Path    string
	Address uint64
	Size    uint64
}

// Extent returns the first address past the region.
func (r MemoryRegion) Extent() uint64 {
	return r.Address + r.Size
}

// MemoryExtent is the result of scanning a tree for top-level memory.
type MemoryExtent struct {
	// Regions lists the qualifying regions in tree order.
	Regions []MemoryRegion

	// Effective is the largest extent over Regions.
	Effective uint64

	// FromSeed is set when no region qualified and Effective was read from
	// the canonical node's own reg.
	FromSeed bool
}

// containerRef is a region's reference to its owning node. A region that
// names no owner has no reference at all, which never equals a handle.
type containerRef struct {
	handle  fdt.Handle
	present bool
}

func (r containerRef) refersTo(h fdt.Handle) bool {
	return r.present && r.handle == h
}

// ScanTopLevelMemory aggregates the memory regions that sit directly under
// the root and belong to the canonical memory node at canonicalPath.
func ScanTopLevelMemory(tree Tree, canonicalPath string) (MemoryExtent, error) {
	ext := MemoryExtent{}

	canonical, hasHandle, err := tree.Handle(canonicalPath)
	if err != nil {
		return ext, err
	}

	if hasHandle {
		err = scanRegions(tree, canonical, &ext)
		if err != nil {
			return MemoryExtent{}, err
		}
	}

	if len(ext.Regions) > 0 {
		return ext, nil
	}

	return seedExtent(tree, canonicalPath)
}

func scanRegions(tree Tree, canonical fdt.Handle, ext *MemoryExtent) error {
	cursor := fdt.Cursor(0)

	for {
		path, next, found := tree.NextByCompatible(
			MemoryRegionCompatible, cursor)
		if !found {
			return nil
		}

		cursor = next

		qualifies, err := isTopLevelRegionOf(tree, path, canonical)
		if err != nil {
			return err
		}

		if !qualifies {
			continue
		}

		region, err := decodeRegion(tree, path)
		if err != nil {
			return err
		}

		ext.Regions = append(ext.Regions, region)
		ext.Effective = max(ext.Effective, region.Extent())
	}
}

func isTopLevelRegionOf(
	tree Tree,
	path string,
	canonical fdt.Handle,
) (bool, error) {
	depth, err := tree.Depth(path)
	if err != nil {
		return false, err
	}

	if depth != 1 {
		return false, nil
	}

	ref, err := readContainer(tree, path)
	if err != nil {
		return false, err
	}

	return ref.refersTo(canonical), nil
}

func readContainer(tree Tree, path string) (containerRef, error) {
	cell, err := tree.PropertyCell(path, "container", 0)
	if errors.Is(err, fdt.ErrPropertyNotFound) ||
		errors.Is(err, fdt.ErrCellOutOfRange) {
		return containerRef{}, nil
	}

	if err != nil {
		return containerRef{}, err
	}

	if cell == 0 {
		return containerRef{}, nil
	}

	return containerRef{handle: fdt.Handle(cell), present: true}, nil
}

func decodeRegion(tree Tree, path string) (MemoryRegion, error) {
	var words [3]uint32

	for i := range words {
		w, err := tree.PropertyCell(path, "reg", i)
		if err != nil {
			return MemoryRegion{}, &MalformedRegionError{Path: path, Err: err}
		}

		words[i] = w
	}

	region := MemoryRegion{
		Path:    path,
		Address: uint64(words[0])<<32 + uint64(words[1]),
		Size:    uint64(words[2]),
	}

	if region.Address > math.MaxUint64-region.Size {
		return MemoryRegion{}, &MalformedRegionError{
			Path: path,
			Err:  ErrExtentOverflow,
		}
	}

	return region, nil
}

func seedExtent(tree Tree, canonicalPath string) (MemoryExtent, error) {
	ext := MemoryExtent{FromSeed: true}

	entries, err := tree.DecodeReg(canonicalPath)
	if errors.Is(err, fdt.ErrPropertyNotFound) {
		return ext, nil
	}

	if err != nil {
		return MemoryExtent{}, &MalformedRegionError{
			Path: canonicalPath,
			Err:  err,
		}
	}

	for _, e := range entries {
		if e.Address > math.MaxUint64-e.Size {
			return MemoryExtent{}, &MalformedRegionError{
				Path: canonicalPath,
				Err:  ErrExtentOverflow,
			}
		}

		ext.Effective = max(ext.Effective, e.Address+e.Size)
	}

	return ext, nil
}
