package fdtgeneric

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/fdtplatform/fdt"
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

var _ = Describe("RecordHook", func() {
	It("should record created components only", func() {
		recorder := &fakeRecorder{entries: make(map[string][]any)}
		hook := NewRecordHook(recorder)

		Expect(recorder.tables).To(Equal([]string{"component"}))

		hook.Func(hooking.HookCtx{
			Pos:  HookPosNodeSkipped,
			Item: "/gpio@0",
		})
		hook.Func(hooking.HookCtx{
			Pos: HookPosComponentCreated,
			Detail: ComponentCreated{
				SessionID:  "s1",
				Path:       "/uart@0",
				Compatible: "acme,uart",
			},
		})

		Expect(recorder.entries["component"]).To(Equal([]any{
			componentEntry{
				SessionID:  "s1",
				Path:       "/uart@0",
				Compatible: "acme,uart",
			},
		}))
	})

	It("should record a whole session", func() {
		recorder := &fakeRecorder{entries: make(map[string][]any)}
		registry := NewRegistry()
		registry.Register("acme,uart", FactoryFunc(
			func(_ BuildContext, path string) (Component, error) {
				return &fakeComponent{name: path, released: &[]string{}}, nil
			}))

		framework := NewFramework(registry)
		framework.AcceptHook(NewRecordHook(recorder))

		tree := fdt.NewTree()
		Expect(tree.AddNode("/uart@0")).To(Succeed())
		Expect(tree.SetPropertyStrings("/uart@0", "compatible", "acme,uart")).
			To(Succeed())

		s, err := framework.Open(tree)
		Expect(err).ToNot(HaveOccurred())
		Expect(recorder.entries["component"]).To(HaveLen(1))
		Expect(recorder.entries["component"][0].(componentEntry).SessionID).
			To(Equal(s.ID()))
	})
})
