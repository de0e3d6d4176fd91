package platform

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// Errors that end platform assembly.
var (
	ErrDescriptionUnavailable = errors.New("hardware description unavailable")
	ErrInstantiation          = errors.New("platform instantiation failed")
	ErrExtentOverflow         = errors.New("region extent overflows 64 bits")
)

// InsufficientMemoryError reports that the tree declares less memory than
// requested.
type InsufficientMemoryError struct {
	Effective uint64
	Requested uint64
}

func (e *InsufficientMemoryError) Error() string {
	return fmt.Sprintf(
		"not enough memory was specified in the device-tree: "+
			"%s (%#x) declared, %s (%#x) requested",
		humanize.IBytes(e.Effective), e.Effective,
		humanize.IBytes(e.Requested), e.Requested)
}

// MalformedRegionError reports a memory region whose reg cannot be read.
type MalformedRegionError struct {
	Path string
	Err  error
}

func (e *MalformedRegionError) Error() string {
	return fmt.Sprintf("malformed memory region %s: %v", e.Path, e.Err)
}

func (e *MalformedRegionError) Unwrap() error {
	return e.Err
}
