package dotdir_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quarryhq/dossier/pkg/dotdir"
)

func TestDotdir(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Dotdir Suite")
}

var _ = Describe("Manager", func() {
	It("uses the override directory when provided", func() {
		override := filepath.Join(GinkgoT().TempDir(), "custom")
		target, err := dotdir.NewManager().Target(override)
		Expect(err).NotTo(HaveOccurred())
		Expect(target).To(Equal(override))

		info, err := os.Stat(target)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})

	It("creates the override directory if missing", func() {
		override := filepath.Join(GinkgoT().TempDir(), "a", "b")
		target, err := dotdir.NewManager().Target(override)
		Expect(err).NotTo(HaveOccurred())
		Expect(target).To(BeADirectory())
	})
})
