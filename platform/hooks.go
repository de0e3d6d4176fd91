package platform

import (
	"log"

	"github.com/dustin/go-humanize"
	"github.com/sarchlab/fdtplatform/datarecording"
	"github.com/sarchlab/fdtplatform/hooking"
)

// Hook positions of the assembler.
var (
	// HookPosMemoryNodeCreated is triggered when normalization adds the
	// canonical memory node. The item is the MemoryNode and the detail is
	// the requested size.
	HookPosMemoryNodeCreated = &hooking.HookPos{Name: "MemoryNodeCreated"}

	// HookPosRegionFound is triggered for every qualifying region. The item
	// is the MemoryRegion.
	HookPosRegionFound = &hooking.HookPos{Name: "RegionFound"}

	// HookPosMemoryReconciled is triggered when the tree declares enough
	// memory. The item is the published size and the detail is the
	// requested size.
	HookPosMemoryReconciled = &hooking.HookPos{Name: "MemoryReconciled"}

	// HookPosInsufficientMemory is triggered when the tree declares too
	// little memory. The item is the *InsufficientMemoryError and the detail
	// is the MemoryExtent.
	HookPosInsufficientMemory = &hooking.HookPos{Name: "InsufficientMemory"}
)

// LogHook prints the assembler's diagnostics. Verbosity 0 prints regions and
// the outcome, verbosity 1 adds the decoded address and size of each region.
type LogHook struct {
	hooking.LogHookBase

	verbosity int
}

// NewLogHook creates a LogHook that writes to logger.
func NewLogHook(logger *log.Logger, verbosity int) *LogHook {
	h := &LogHook{verbosity: verbosity}
	h.Logger = logger

	return h
}

// Func prints the hook context.
func (h *LogHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case HookPosMemoryNodeCreated:
		n := ctx.Item.(MemoryNode)
		h.Printf("Added memory node %s of %s",
			n.Path, humanize.IBytes(ctx.Detail.(uint64)))
	case HookPosRegionFound:
		r := ctx.Item.(MemoryRegion)
		h.Printf("Found top level memory region %s", r.Path)

		if h.verbosity >= 1 {
			h.Printf("    Address: %#x Size: %#x Extent: %#x",
				r.Address, r.Size, r.Extent())
		}
	case HookPosMemoryReconciled:
		h.Printf("No extra memory is required, memory size is %s",
			humanize.IBytes(ctx.Item.(uint64)))
	case HookPosInsufficientMemory:
		h.Printf("Error: %v", ctx.Item)
	}
}

const (
	regionTable   = "memory_region"
	assemblyTable = "assembly"
)

type regionEntry struct {
	Path    string
	Address uint64
	Size    uint64
	Extent  uint64
}

type assemblyEntry struct {
	Requested uint64
	Effective uint64
	Outcome   string
}

// RecordHook writes regions and the reconciliation outcome into a data
// recorder.
type RecordHook struct {
	recorder datarecording.DataRecorder
}

// NewRecordHook creates a RecordHook and the tables it writes to.
func NewRecordHook(recorder datarecording.DataRecorder) *RecordHook {
	recorder.CreateTable(regionTable, regionEntry{})
	recorder.CreateTable(assemblyTable, assemblyEntry{})

	return &RecordHook{recorder: recorder}
}

// Func records the hook context.
func (h *RecordHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case HookPosRegionFound:
		r := ctx.Item.(MemoryRegion)
		h.recorder.InsertData(regionTable, regionEntry{
			Path:    r.Path,
			Address: r.Address,
			Size:    r.Size,
			Extent:  r.Extent(),
		})
	case HookPosMemoryReconciled:
		size := ctx.Item.(uint64)
		h.recorder.InsertData(assemblyTable, assemblyEntry{
			Requested: ctx.Detail.(uint64),
			Effective: size,
			Outcome:   "reconciled",
		})
	case HookPosInsufficientMemory:
		e := ctx.Item.(*InsufficientMemoryError)
		h.recorder.InsertData(assemblyTable, assemblyEntry{
			Requested: e.Requested,
			Effective: e.Effective,
			Outcome:   "insufficient",
		})
	}
}
