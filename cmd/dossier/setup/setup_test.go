package setup_test

import (
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/quarryhq/dossier/cmd/dossier/setup"
	"github.com/quarryhq/dossier/pkg/config"
)

func TestSetup(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Setup Suite")
}

var _ = Describe("ResolvePaths", func() {
	var (
		tmpDir string
		v      *viper.Viper
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()

		var err error
		v, err = config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("anchors relative paths at the dossier directory", func() {
		paths, err := setup.ResolvePaths(v, tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(paths.Corpus).To(Equal(filepath.Join(tmpDir, "corpus")))
		Expect(paths.Playbooks).To(Equal(filepath.Join(tmpDir, "playbooks")))
		Expect(paths.SQLite).To(Equal(filepath.Join(tmpDir, "vectors.db")))
		Expect(paths.Telemetry).To(Equal(filepath.Join(tmpDir, "metrics", "curation_log.jsonl")))
	})

	It("leaves absolute paths untouched", func() {
		v.Set("storage.corpus_dir", "/var/lib/dossier/corpus")

		paths, err := setup.ResolvePaths(v, tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(paths.Corpus).To(Equal("/var/lib/dossier/corpus"))
	})
})

var _ = Describe("OpenPlaybooks", func() {
	It("opens the configured playbook store", func() {
		tmpDir := GinkgoT().TempDir()

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		store, err := setup.OpenPlaybooks(v, tmpDir, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Dir()).To(Equal(filepath.Join(tmpDir, "playbooks")))
	})
})
