package playbook_test

import (
	"fmt"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/quarryhq/dossier/pkg/playbook"
)

func TestPlaybook(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Playbook Suite")
}

var _ = Describe("Store", func() {
	var store *playbook.Store

	BeforeEach(func() {
		var err error
		store, err = playbook.NewStore(GinkgoT().TempDir(), zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Get", func() {
		It("returns empty for an entity with no playbook", func() {
			content, err := store.Get("acme")
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(BeEmpty())
		})
	})

	Describe("Put", func() {
		It("writes the live playbook without archiving on first write", func() {
			Expect(store.Put("acme", "first version")).To(Succeed())

			content, err := store.Get("acme")
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(Equal("first version"))

			versions, err := store.Versions("acme")
			Expect(err).NotTo(HaveOccurred())
			Expect(versions).To(BeEmpty())
		})

		It("archives the previous value before every overwrite", func() {
			for i := 1; i <= 4; i++ {
				Expect(store.Put("acme", fmt.Sprintf("version %d", i))).To(Succeed())
			}

			content, err := store.Get("acme")
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(Equal("version 4"))

			// N writes leave N-1 archived versions.
			versions, err := store.Versions("acme")
			Expect(err).NotTo(HaveOccurred())
			Expect(versions).To(HaveLen(3))

			newest, err := store.Show("acme", versions[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(newest).To(Equal("version 3"))
		})

		It("does not archive a blank previous value", func() {
			Expect(store.Put("acme", "   \n")).To(Succeed())
			Expect(store.Put("acme", "real content")).To(Succeed())

			versions, err := store.Versions("acme")
			Expect(err).NotTo(HaveOccurred())
			Expect(versions).To(BeEmpty())
		})
	})

	Describe("List", func() {
		It("lists live playbooks sorted by slug", func() {
			Expect(store.Put("globex", "g")).To(Succeed())
			Expect(store.Put("acme", "a")).To(Succeed())

			infos, err := store.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(infos).To(HaveLen(2))
			Expect(infos[0].Slug).To(Equal("acme"))
			Expect(infos[1].Slug).To(Equal("globex"))
			Expect(infos[0].Size).To(Equal(int64(1)))
		})

		It("returns nothing for an empty store", func() {
			infos, err := store.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(infos).To(BeEmpty())
		})
	})

	Describe("Versions", func() {
		It("keeps newest-first order past ten same-second archives", func() {
			for i := 1; i <= 13; i++ {
				Expect(store.Put("acme", fmt.Sprintf("version %d", i))).To(Succeed())
			}

			versions, err := store.Versions("acme")
			Expect(err).NotTo(HaveOccurred())
			Expect(versions).To(HaveLen(12))

			newest, err := store.Show("acme", versions[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(newest).To(Equal("version 12"))

			oldest, err := store.Show("acme", versions[len(versions)-1])
			Expect(err).NotTo(HaveOccurred())
			Expect(oldest).To(Equal("version 1"))

			// Pruning keeps the newest version, not a lexical accident.
			deleted, err := store.PruneArchives("acme", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal(11))

			versions, err = store.Versions("acme")
			Expect(err).NotTo(HaveOccurred())
			Expect(versions).To(HaveLen(1))
			kept, err := store.Show("acme", versions[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(kept).To(Equal("version 12"))
		})
	})

	Describe("Show", func() {
		It("shows the live playbook when version is empty", func() {
			Expect(store.Put("acme", "live")).To(Succeed())

			content, err := store.Show("acme", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(Equal("live"))
		})

		It("errors for a missing playbook", func() {
			_, err := store.Show("unknown", "")
			Expect(err).To(HaveOccurred())
		})

		It("errors for a missing archived version", func() {
			Expect(store.Put("acme", "live")).To(Succeed())
			_, err := store.Show("acme", "19700101000000")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("PruneArchives", func() {
		It("keeps only the N most recent versions", func() {
			for i := 1; i <= 6; i++ {
				Expect(store.Put("acme", fmt.Sprintf("version %d", i))).To(Succeed())
			}

			deleted, err := store.PruneArchives("acme", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal(3))

			versions, err := store.Versions("acme")
			Expect(err).NotTo(HaveOccurred())
			Expect(versions).To(HaveLen(2))

			newest, err := store.Show("acme", versions[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(newest).To(Equal("version 5"))
		})

		It("does nothing when the archive is within bounds", func() {
			Expect(store.Put("acme", "v1")).To(Succeed())
			Expect(store.Put("acme", "v2")).To(Succeed())

			deleted, err := store.PruneArchives("acme", 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(BeZero())
		})
	})

	Describe("PruneAll", func() {
		It("prunes every entity's archive", func() {
			for i := 1; i <= 4; i++ {
				Expect(store.Put("acme", fmt.Sprintf("a%d", i))).To(Succeed())
				Expect(store.Put("globex", fmt.Sprintf("g%d", i))).To(Succeed())
			}

			deleted, err := store.PruneAll(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(HaveKeyWithValue("acme", 2))
			Expect(deleted).To(HaveKeyWithValue("globex", 2))
		})

		It("returns nothing when no archives exist", func() {
			deleted, err := store.PruneAll(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(BeEmpty())
		})
	})
})
