package playbookcmder_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	playbookcmder "github.com/quarryhq/dossier/cmd/dossier/playbook"
	"github.com/quarryhq/dossier/pkg/playbook"
)

func TestPlaybookCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Playbook Command Suite")
}

var _ = Describe("NewPlaybookCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := playbookcmder.NewPlaybookCmd()
		Expect(cmd.Use).To(Equal("playbook"))
	})

	It("has list, show, versions, and prune subcommands", func() {
		cmd := playbookcmder.NewPlaybookCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("list", "show", "versions", "prune"))
	})
})

var _ = Describe("Playbook command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dossier-playbook-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		err = os.MkdirAll(filepath.Join(tmpDir, ".dossier"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	// seed writes a playbook into the default store location.
	seed := func(slug, content string) {
		store, err := playbook.NewStore(filepath.Join(tmpDir, ".dossier", "playbooks"), zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Put(slug, content)).To(Succeed())
	}

	Describe("list subcommand", func() {
		It("runs without error on an empty store", func() {
			cmd := playbookcmder.NewPlaybookCmd()
			cmd.SetArgs([]string{"list"})
			Expect(cmd.Execute()).To(Succeed())
		})

		It("runs without error with playbooks present", func() {
			seed("acme-corp", "# Acme Corp\n\nNotes.")

			cmd := playbookcmder.NewPlaybookCmd()
			cmd.SetArgs([]string{"list"})
			Expect(cmd.Execute()).To(Succeed())
		})
	})

	Describe("show subcommand", func() {
		It("shows an existing playbook", func() {
			seed("acme-corp", "# Acme Corp\n\nNotes.")

			cmd := playbookcmder.NewPlaybookCmd()
			cmd.SetArgs([]string{"show", "acme-corp", "--raw"})
			Expect(cmd.Execute()).To(Succeed())
		})

		It("errors for a missing playbook", func() {
			cmd := playbookcmder.NewPlaybookCmd()
			cmd.SetArgs([]string{"show", "nobody"})
			Expect(cmd.Execute()).To(HaveOccurred())
		})

		It("requires a slug", func() {
			cmd := playbookcmder.NewPlaybookCmd()
			cmd.SetArgs([]string{"show"})
			Expect(cmd.Execute()).To(HaveOccurred())
		})
	})

	Describe("versions subcommand", func() {
		It("runs without error when no archives exist", func() {
			seed("acme-corp", "# Acme Corp\n\nNotes.")

			cmd := playbookcmder.NewPlaybookCmd()
			cmd.SetArgs([]string{"versions", "acme-corp"})
			Expect(cmd.Execute()).To(Succeed())
		})
	})

	Describe("prune subcommand", func() {
		It("prunes a single entity's archives", func() {
			seed("acme-corp", "version 1")
			seed("acme-corp", "version 2")

			cmd := playbookcmder.NewPlaybookCmd()
			cmd.SetArgs([]string{"prune", "acme-corp", "--keep", "0"})
			Expect(cmd.Execute()).To(Succeed())
		})

		It("prunes all entities with --all", func() {
			seed("acme-corp", "version 1")

			cmd := playbookcmder.NewPlaybookCmd()
			cmd.SetArgs([]string{"prune", "--all", "--keep", "0"})
			Expect(cmd.Execute()).To(Succeed())
		})

		It("rejects --all combined with a slug", func() {
			cmd := playbookcmder.NewPlaybookCmd()
			cmd.SetArgs([]string{"prune", "acme-corp", "--all"})
			Expect(cmd.Execute()).To(HaveOccurred())
		})

		It("requires a slug without --all", func() {
			cmd := playbookcmder.NewPlaybookCmd()
			cmd.SetArgs([]string{"prune"})
			Expect(cmd.Execute()).To(HaveOccurred())
		})
	})
})
