package memoryregion

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/fdtplatform/fdt"
	"github.com/sarchlab/fdtplatform/fdtgeneric"
)

var _ = Describe("Builder", func() {
	var tree *fdt.Tree

	BeforeEach(func() {
		tree = fdt.NewTree()
		Expect(tree.AddNode("/ddr@100000000")).To(Succeed())
		Expect(tree.SetPropertyStrings("/ddr@100000000", "compatible",
			Compatible)).To(Succeed())
		Expect(tree.SetPropertyCells("/ddr@100000000", "reg",
			0x1, 0x0, 0x10)).To(Succeed())
	})

	It("should decode a 64-bit base address", func() {
		c, err := MakeBuilder().WithTree(tree).Build("/ddr@100000000")

		Expect(err).ToNot(HaveOccurred())
		Expect(c.Name()).To(Equal("/ddr@100000000"))
		Expect(c.Base()).To(Equal(uint64(0x100000000)))
		Expect(c.Size()).To(Equal(uint64(0x10)))

		_, ok := c.Container()
		Expect(ok).To(BeFalse())
	})

	It("should read the container handle", func() {
		Expect(tree.SetPropertyCells("/ddr@100000000", "container", 4)).
			To(Succeed())

		c, err := MakeBuilder().WithTree(tree).Build("/ddr@100000000")
		Expect(err).ToNot(HaveOccurred())

		h, ok := c.Container()
		Expect(ok).To(BeTrue())
		Expect(h).To(Equal(fdt.Handle(4)))
	})

	It("should reject a short reg", func() {
		Expect(tree.SetPropertyCells("/ddr@100000000", "reg", 0, 0x10)).
			To(Succeed())

		_, err := MakeBuilder().WithTree(tree).Build("/ddr@100000000")
		Expect(err).To(MatchError(ErrBadReg))
	})

	It("should reject a missing reg", func() {
		Expect(tree.AddNode("/ddr@0")).To(Succeed())

		_, err := MakeBuilder().WithTree(tree).Build("/ddr@0")
		Expect(err).To(MatchError(fdt.ErrPropertyNotFound))
	})

	It("should add sibling banks", func() {
		Expect(tree.SetPropertyCells("/ddr@100000000", "container", 1)).
			To(Succeed())
		Expect(tree.SetPropertyCells("/ddr@100000000", "qemu,bank-count", 3)).
			To(Succeed())

		c, err := MakeBuilder().WithTree(tree).Build("/ddr@100000000")
		Expect(err).ToNot(HaveOccurred())

		Expect(c.Banks()).To(Equal([]string{
			"/ddr-bank1@100000010",
			"/ddr-bank2@100000020",
		}))

		reg, err := tree.PropertyCells("/ddr-bank2@100000020", "reg")
		Expect(err).ToNot(HaveOccurred())
		Expect(reg).To(Equal([]uint32{0x1, 0x20, 0x10}))

		container, err := tree.PropertyCell("/ddr-bank2@100000020",
			"container", 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(container).To(Equal(uint32(1)))

		again, err := MakeBuilder().WithTree(tree).Build("/ddr@100000000")
		Expect(err).ToNot(HaveOccurred())
		Expect(again.Banks()).To(BeEmpty())
	})

	It("should reject banks that wrap the address space", func() {
		Expect(tree.AddNode("/ddr@fffffffffffff000")).To(Succeed())
		Expect(tree.SetPropertyCells("/ddr@fffffffffffff000", "reg",
			0xffffffff, 0xfffff000, 0x1000)).To(Succeed())
		Expect(tree.SetPropertyCells("/ddr@fffffffffffff000",
			"qemu,bank-count", 3)).To(Succeed())

		_, err := MakeBuilder().WithTree(tree).Build("/ddr@fffffffffffff000")

		Expect(err).To(MatchError(ErrBankOverflow))
		_, err = tree.Lookup("/ddr-bank1@0")
		Expect(err).To(MatchError(fdt.ErrNodeNotFound))
	})

	It("should reject too many banks", func() {
		Expect(tree.SetPropertyCells("/ddr@100000000", "qemu,bank-count",
			0xffffffff)).To(Succeed())

		_, err := MakeBuilder().WithTree(tree).Build("/ddr@100000000")

		Expect(err).To(MatchError(ErrBadBankCount))
		_, err = tree.Lookup("/ddr-bank1@100000010")
		Expect(err).To(MatchError(fdt.ErrNodeNotFound))
	})

	It("should accept the largest bank count", func() {
		Expect(tree.SetPropertyCells("/ddr@100000000", "qemu,bank-count",
			MaxBankCount)).To(Succeed())

		c, err := MakeBuilder().WithTree(tree).Build("/ddr@100000000")

		Expect(err).ToNot(HaveOccurred())
		Expect(c.Banks()).To(HaveLen(MaxBankCount - 1))
	})

	It("should be reachable through the framework", func() {
		Expect(tree.SetPropertyCells("/ddr@100000000", "qemu,bank-count", 2)).
			To(Succeed())

		registry := fdtgeneric.NewRegistry()
		Register(registry)

		s, err := fdtgeneric.NewFramework(registry).Open(tree)
		Expect(err).ToNot(HaveOccurred())

		Expect(s.Components()).To(HaveLen(2))

		bank, found := s.GetComponentByName("/ddr-bank1@100000010")
		Expect(found).To(BeTrue())
		Expect(bank.(*Comp).Base()).To(Equal(uint64(0x100000010)))
	})
})
