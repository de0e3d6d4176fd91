package platform

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/fdtplatform/fdt"
	"github.com/spf13/afero"
)

var _ = Describe("FileSource", func() {
	var fs afero.Fs

	BeforeEach(func() {
		fs = afero.NewMemMapFs()
	})

	It("should load a blob", func() {
		tree := fdt.NewTree()
		Expect(tree.AddNode("/memory@0")).To(Succeed())
		blob, err := fdt.Marshal(tree)
		Expect(err).ToNot(HaveOccurred())
		Expect(afero.WriteFile(fs, "/board.dtb", blob, 0o644)).To(Succeed())

		loaded, err := NewFileSource(fs, "/board.dtb").Load()

		Expect(err).ToNot(HaveOccurred())
		_, found := loaded.FindNodeByName("memory")
		Expect(found).To(BeTrue())
	})

	It("should require a path", func() {
		_, err := NewFileSource(fs, "").Load()

		Expect(err).To(MatchError(ErrDescriptionUnavailable))
		Expect(err.Error()).To(ContainSubstring("hw-dtb"))
	})

	It("should report a missing file", func() {
		_, err := NewFileSource(fs, "/missing.dtb").Load()

		Expect(err).To(MatchError(ErrDescriptionUnavailable))
	})

	It("should report a corrupt blob", func() {
		Expect(afero.WriteFile(fs, "/bad.dtb", []byte("not a dtb"), 0o644)).
			To(Succeed())

		_, err := NewFileSource(fs, "/bad.dtb").Load()

		Expect(err).To(MatchError(ErrDescriptionUnavailable))
		Expect(err).To(MatchError(fdt.ErrMalformed))
	})
})

var _ = Describe("TreeSource", func() {
	It("should reject a nil tree", func() {
		_, err := TreeSource{}.Load()

		Expect(err).To(MatchError(ErrDescriptionUnavailable))
	})
})
