package cmd

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
)

var _ = Describe("createDevice", func() {
	var (
		savedFs afero.Fs
		out     *bytes.Buffer
	)

	BeforeEach(func() {
		savedFs = appFs
		appFs = afero.NewMemMapFs()
		DeferCleanup(func() { appFs = savedFs })
		out = new(bytes.Buffer)
	})

	It("should scaffold a device package", func() {
		Expect(createDevice("devices", "uart", "acme,uart", out)).
			To(Succeed())

		builder, err := afero.ReadFile(appFs, "devices/uart/builder.go")
		Expect(err).ToNot(HaveOccurred())
		Expect(string(builder)).To(HavePrefix("package uart\n"))
		Expect(string(builder)).To(ContainSubstring(
			`const Compatible = "acme,uart"`))

		comp, err := afero.ReadFile(appFs, "devices/uart/comp.go")
		Expect(err).ToNot(HaveOccurred())
		Expect(string(comp)).To(ContainSubstring("type Comp struct"))
		Expect(out.String()).To(ContainSubstring("Comp file generated"))
	})

	It("should default the compatible string", func() {
		Expect(createDevice("devices", "gpio", "", out)).To(Succeed())

		builder, err := afero.ReadFile(appFs, "devices/gpio/builder.go")
		Expect(err).ToNot(HaveOccurred())
		Expect(string(builder)).To(ContainSubstring(`"vendor,gpio"`))
	})

	It("should not overwrite a device", func() {
		Expect(createDevice("devices", "uart", "", out)).To(Succeed())

		Expect(createDevice("devices", "uart", "", out)).
			To(MatchError(ContainSubstring("already exists")))
	})

	It("should reject names that are not package names", func() {
		Expect(createDevice("devices", "My-UART", "", out)).
			To(MatchError(errBadDeviceName))
	})
})
