package utils_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quarryhq/dossier/pkg/utils"
)

var _ = Describe("Truncate", func() {
	It("returns short strings unchanged", func() {
		Expect(utils.Truncate("hello", 10)).To(Equal("hello"))
	})

	It("caps long strings and appends the marker", func() {
		out := utils.Truncate(strings.Repeat("a", 20), 5)
		Expect(out).To(Equal("aaaaa..."))
	})

	It("counts runes, not bytes", func() {
		out := utils.Truncate("你好世界再见", 4)
		Expect(out).To(Equal("你好世界..."))
	})

	It("treats a non-positive cap as unlimited", func() {
		Expect(utils.Truncate("hello", 0)).To(Equal("hello"))
	})
})
