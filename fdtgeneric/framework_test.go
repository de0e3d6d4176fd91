package fdtgeneric

import (
	"bytes"
	"errors"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/fdtplatform/fdt"
	"github.com/sarchlab/fdtplatform/hooking"
)

type fakeComponent struct {
	name       string
	releaseErr error
	released   *[]string
}

func (c *fakeComponent) Name() string {
	return c.name
}

func (c *fakeComponent) Release() error {
	*c.released = append(*c.released, c.name)
	return c.releaseErr
}

var _ = Describe("Framework", func() {
	var (
		tree      *fdt.Tree
		registry  *Registry
		framework *Framework
		released  []string
		fakeFac   FactoryFunc
	)

	addNode := func(path string, compatibles ...string) {
		Expect(tree.AddNode(path)).To(Succeed())
		if len(compatibles) > 0 {
			Expect(tree.SetPropertyStrings(path, "compatible",
				compatibles...)).To(Succeed())
		}
	}

	BeforeEach(func() {
		released = nil
		tree = fdt.NewTree()
		registry = NewRegistry()
		framework = NewFramework(registry)

		fakeFac = func(_ BuildContext, path string) (Component, error) {
			return &fakeComponent{name: path, released: &released}, nil
		}
	})

	It("should panic on duplicated registration", func() {
		registry.Register("acme,uart", fakeFac)

		Expect(func() { registry.Register("acme,uart", fakeFac) }).
			To(Panic())
		Expect(registry.Compatibles()).To(Equal([]string{"acme,uart"}))
	})

	It("should build one component per recognized node", func() {
		registry.Register("acme,uart", fakeFac)
		addNode("/uart@0", "acme,uart")
		addNode("/soc")
		addNode("/soc/uart@1", "vendor,uart", "acme,uart")
		addNode("/soc/gpio@0", "acme,gpio")

		s, err := framework.Open(tree)
		Expect(err).ToNot(HaveOccurred())

		names := []string{}
		for _, c := range s.Components() {
			names = append(names, c.Name())
		}
		Expect(names).To(Equal([]string{"/uart@0", "/soc/uart@1"}))

		compat, found := s.CompatibleOf("/soc/uart@1")
		Expect(found).To(BeTrue())
		Expect(compat).To(Equal("acme,uart"))

		_, found = s.GetComponentByName("/soc/gpio@0")
		Expect(found).To(BeFalse())
		Expect(s.ID()).ToNot(BeEmpty())
		Expect(s.Tree()).To(BeIdenticalTo(tree))
	})

	It("should prefer the first listed compatible", func() {
		registry.Register("acme,uart", fakeFac)
		registry.Register("acme,uart-v2", FactoryFunc(
			func(_ BuildContext, path string) (Component, error) {
				return &fakeComponent{name: path, released: &released}, nil
			}))
		addNode("/uart@0", "acme,uart-v2", "acme,uart")

		s, err := framework.Open(tree)
		Expect(err).ToNot(HaveOccurred())

		compat, _ := s.CompatibleOf("/uart@0")
		Expect(compat).To(Equal("acme,uart-v2"))
	})

	It("should build nodes that factories add while opening", func() {
		registry.Register("acme,bus", FactoryFunc(
			func(ctx BuildContext, path string) (Component, error) {
				child := path + "/dev@0"
				Expect(ctx.Tree.AddNode(child)).To(Succeed())
				Expect(ctx.Tree.SetPropertyStrings(child, "compatible",
					"acme,dev")).To(Succeed())

				return &fakeComponent{name: path, released: &released}, nil
			}))
		registry.Register("acme,dev", fakeFac)
		addNode("/bus@0", "acme,bus")

		s, err := framework.Open(tree)
		Expect(err).ToNot(HaveOccurred())

		_, found := s.GetComponentByName("/bus@0/dev@0")
		Expect(found).To(BeTrue())
	})

	It("should release what was built when a factory fails", func() {
		registry.Register("acme,uart", fakeFac)
		registry.Register("acme,broken", FactoryFunc(
			func(BuildContext, string) (Component, error) {
				return nil, errors.New("no clock")
			}))
		addNode("/uart@0", "acme,uart")
		addNode("/broken@0", "acme,broken")

		s, err := framework.Open(tree)

		Expect(s).To(BeNil())
		Expect(err).To(MatchError(ErrFactory))
		Expect(err).To(MatchError(ContainSubstring("no clock")))
		Expect(released).To(Equal([]string{"/uart@0"}))
	})

	It("should report release errors along with the factory error", func() {
		registry.Register("acme,uart", FactoryFunc(
			func(_ BuildContext, path string) (Component, error) {
				return &fakeComponent{
					name:       path,
					releaseErr: errors.New("uart stuck"),
					released:   &released,
				}, nil
			}))
		registry.Register("acme,broken", FactoryFunc(
			func(BuildContext, string) (Component, error) {
				return nil, errors.New("no clock")
			}))
		addNode("/uart@0", "acme,uart")
		addNode("/broken@0", "acme,broken")

		s, err := framework.Open(tree)

		Expect(s).To(BeNil())
		Expect(err).To(MatchError(ErrFactory))
		Expect(err).To(MatchError(ContainSubstring("no clock")))
		Expect(err).To(MatchError(ContainSubstring("/uart@0: uart stuck")))
		Expect(released).To(Equal([]string{"/uart@0"}))
	})

	Context("closing", func() {
		BeforeEach(func() {
			registry.Register("acme,uart", fakeFac)
			addNode("/uart@0", "acme,uart")
			addNode("/uart@1", "acme,uart")
		})

		It("should release components in reverse order", func() {
			s, err := framework.Open(tree)
			Expect(err).ToNot(HaveOccurred())

			Expect(s.Close()).To(Succeed())
			Expect(s.Closed()).To(BeTrue())
			Expect(released).To(Equal([]string{"/uart@1", "/uart@0"}))
			Expect(s.Components()).To(BeEmpty())
		})

		It("should refuse to close twice", func() {
			s, _ := framework.Open(tree)

			Expect(s.Close()).To(Succeed())
			Expect(s.Close()).To(MatchError(ErrSessionClosed))
			Expect(released).To(HaveLen(2))
		})

		It("should aggregate release errors", func() {
			s, _ := framework.Open(tree)
			for _, c := range s.Components() {
				c.(*fakeComponent).releaseErr = errors.New("busy")
			}

			err := s.Close()

			Expect(err).To(MatchError(ContainSubstring("/uart@0: busy")))
			Expect(err).To(MatchError(ContainSubstring("/uart@1: busy")))
			Expect(released).To(HaveLen(2))
		})
	})

	Context("hooks", func() {
		It("should report created and skipped nodes", func() {
			registry.Register("acme,uart", fakeFac)
			addNode("/uart@0", "acme,uart")
			addNode("/gpio@0", "acme,gpio")

			positions := []*hooking.HookPos{}
			framework.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
				positions = append(positions, ctx.Pos)
			}))

			_, err := framework.Open(tree)
			Expect(err).ToNot(HaveOccurred())

			Expect(positions).To(Equal([]*hooking.HookPos{
				HookPosComponentCreated, HookPosNodeSkipped,
			}))
		})

		It("should log through the log hook", func() {
			registry.Register("acme,uart", fakeFac)
			addNode("/uart@0", "acme,uart")
			addNode("/gpio@0", "acme,gpio")

			buf := bytes.NewBuffer(nil)
			framework.AcceptHook(NewLogHook(log.New(buf, "", 0)))

			_, err := framework.Open(tree)
			Expect(err).ToNot(HaveOccurred())

			Expect(buf.String()).To(Equal(
				"created acme,uart at /uart@0\n" +
					"skipped /gpio@0: no factory for acme,gpio\n"))
		})
	})
})
