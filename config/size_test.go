package config

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"
)

var _ = Describe("ParseSize", func() {
	DescribeTable("accepted sizes",
		func(in string, want uint64) {
			got, err := ParseSize(in)
			Expect(err).ToNot(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("bare number is MiB", "512", uint64(512<<20)),
		Entry("short binary suffix", "2G", uint64(2<<30)),
		Entry("lower case suffix", "64k", uint64(64<<10)),
		Entry("IEC unit", "1GiB", uint64(1<<30)),
		Entry("SI unit", "1GB", uint64(1000000000)),
		Entry("padding", " 16M ", uint64(16<<20)),
	)

	DescribeTable("rejected sizes",
		func(in string) {
			_, err := ParseSize(in)
			Expect(err).To(MatchError(ErrBadSize))
		},
		Entry("empty", ""),
		Entry("unit only", "M"),
		Entry("unknown unit", "12parsecs"),
	)

	It("should read sizes from YAML", func() {
		var v struct {
			Memory Size `yaml:"memory"`
		}

		Expect(yaml.Unmarshal([]byte("memory: 1G\n"), &v)).To(Succeed())
		Expect(v.Memory).To(Equal(Size(1 << 30)))

		Expect(yaml.Unmarshal([]byte("memory: 256\n"), &v)).To(Succeed())
		Expect(v.Memory).To(Equal(Size(256 << 20)))
	})

	It("should print binary units", func() {
		Expect(Size(2 << 30).String()).To(Equal("2.0 GiB"))
	})
})
