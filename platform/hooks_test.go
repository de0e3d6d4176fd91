package platform

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/fdtplatform/hooking"
)

type fakeRecorder struct {
	tables  []string
	entries map[string][]any
}

func (r *fakeRecorder) CreateTable(tableName string, _ any) {
	r.tables = append(r.tables, tableName)
}

func (r *fakeRecorder) InsertData(tableName string, entry any) {
	r.entries[tableName] = append(r.entries[tableName], entry)
}

func (r *fakeRecorder) ListTables() []string { return r.tables }

func (r *fakeRecorder) Flush() {}

func (r *fakeRecorder) Close() error { return nil }

var _ = Describe("LogHook", func() {
	var (
		buf    *bytes.Buffer
		logger *log.Logger
		region MemoryRegion
	)

	BeforeEach(func() {
		buf = new(bytes.Buffer)
		logger = log.New(buf, "", 0)
		region = MemoryRegion{Path: "/ram@1000", Address: 0x1000, Size: 0x2000}
	})

	It("should print regions", func() {
		hook := NewLogHook(logger, 0)

		hook.Func(hooking.HookCtx{Pos: HookPosRegionFound, Item: region})

		Expect(buf.String()).To(Equal(
			"Found top level memory region /ram@1000\n"))
	})

	It("should print address and extent when verbose", func() {
		hook := NewLogHook(logger, 1)

		hook.Func(hooking.HookCtx{Pos: HookPosRegionFound, Item: region})

		Expect(buf.String()).To(ContainSubstring(
			"Address: 0x1000 Size: 0x2000 Extent: 0x3000"))
	})

	It("should print the outcome", func() {
		hook := NewLogHook(logger, 0)

		hook.Func(hooking.HookCtx{
			Pos:    HookPosMemoryReconciled,
			Item:   uint64(0x3000),
			Detail: uint64(0x2000),
		})
		hook.Func(hooking.HookCtx{
			Pos:  HookPosInsufficientMemory,
			Item: &InsufficientMemoryError{Effective: 1, Requested: 2},
		})

		Expect(buf.String()).To(ContainSubstring("No extra memory is required"))
		Expect(buf.String()).To(ContainSubstring(
			"Error: not enough memory was specified in the device-tree"))
	})
})

var _ = Describe("RecordHook", func() {
	It("should record regions and outcomes", func() {
		recorder := &fakeRecorder{entries: make(map[string][]any)}
		hook := NewRecordHook(recorder)

		Expect(recorder.tables).To(Equal([]string{"memory_region", "assembly"}))

		hook.Func(hooking.HookCtx{
			Pos:  HookPosRegionFound,
			Item: MemoryRegion{Path: "/ram@0", Size: 0x1000},
		})
		hook.Func(hooking.HookCtx{
			Pos:  HookPosInsufficientMemory,
			Item: &InsufficientMemoryError{Effective: 0x1000, Requested: 0x2000},
		})

		Expect(recorder.entries["memory_region"]).To(Equal([]any{
			regionEntry{Path: "/ram@0", Size: 0x1000, Extent: 0x1000},
		}))
		Expect(recorder.entries["assembly"]).To(Equal([]any{
			assemblyEntry{
				Requested: 0x2000,
				Effective: 0x1000,
				Outcome:   "insufficient",
			},
		}))
	})
})
