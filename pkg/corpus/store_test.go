package corpus_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/quarryhq/dossier/pkg/corpus"
)

func TestCorpus(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Corpus Suite")
}

var _ = Describe("DocHash", func() {
	It("hashes trimmed content identically", func() {
		Expect(corpus.DocHash("  some text \n")).To(Equal(corpus.DocHash("some text")))
	})

	It("differs for different content", func() {
		Expect(corpus.DocHash("alpha")).NotTo(Equal(corpus.DocHash("beta")))
	})
})

var _ = Describe("Store", func() {
	var (
		dir   string
		store *corpus.Store
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		var err error
		store, err = corpus.NewStore(dir, 5, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewStore", func() {
		It("requires a directory", func() {
			_, err := corpus.NewStore("", 5, zap.NewNop())
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Write and Read", func() {
		It("persists a snapshot and reads it back", func() {
			path, err := store.Write("acme", "Acme Corp", "Acme opened a plant.", map[string]string{"source": "u1"}, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(HavePrefix(filepath.Join(dir, "acme")))
			Expect(path).To(HaveSuffix(".json"))

			snap, err := store.Read(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.EntityName).To(Equal("Acme Corp"))
			Expect(snap.Content).To(Equal("Acme opened a plant."))
			Expect(snap.Metadata).To(HaveKeyWithValue("source", "u1"))
			Expect(snap.StoredAt).NotTo(BeEmpty())
		})

		It("never overwrites an existing snapshot file", func() {
			path, err := store.Write("acme", "Acme Corp", "same content", nil, 0)
			Expect(err).NotTo(HaveOccurred())

			before, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())

			again, err := store.Write("acme", "Acme Corp", "same content", map[string]string{"source": "changed"}, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(Equal(path))

			after, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(after).To(Equal(before))
		})

		It("embeds the doc hash prefix in the filename", func() {
			path, err := store.Write("acme", "Acme Corp", "hashed content", nil, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(filepath.Base(path)).To(ContainSubstring(corpus.DocHash("hashed content")[:8]))
		})
	})

	Describe("List and Count", func() {
		It("returns nothing for an unknown slug", func() {
			paths, err := store.List("unknown")
			Expect(err).NotTo(HaveOccurred())
			Expect(paths).To(BeEmpty())

			count, err := store.Count("unknown")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})

		It("orders snapshots newest first by modification time", func() {
			base := time.Now().Add(-time.Hour)
			var paths []string
			for i := 0; i < 3; i++ {
				path, err := store.Write("acme", "Acme Corp", fmt.Sprintf("doc %d", i), nil, i)
				Expect(err).NotTo(HaveOccurred())
				Expect(os.Chtimes(path, base.Add(time.Duration(i)*time.Minute), base.Add(time.Duration(i)*time.Minute))).To(Succeed())
				paths = append(paths, path)
			}

			listed, err := store.List("acme")
			Expect(err).NotTo(HaveOccurred())
			Expect(listed).To(Equal([]string{paths[2], paths[1], paths[0]}))
		})
	})

	Describe("Prune", func() {
		It("keeps only the most recent snapshots", func() {
			base := time.Now().Add(-time.Hour)
			var paths []string
			for i := 0; i < 10; i++ {
				path, err := store.Write("acme", "Acme Corp", fmt.Sprintf("doc %d", i), nil, i)
				Expect(err).NotTo(HaveOccurred())
				mt := base.Add(time.Duration(i) * time.Minute)
				Expect(os.Chtimes(path, mt, mt)).To(Succeed())
				paths = append(paths, path)
			}

			deleted := store.Prune("acme")
			Expect(deleted).To(Equal(5))

			remaining, err := store.List("acme")
			Expect(err).NotTo(HaveOccurred())
			Expect(remaining).To(HaveLen(5))
			// The five newest survive.
			for _, path := range paths[5:] {
				Expect(remaining).To(ContainElement(path))
			}
		})

		It("does nothing below the cap", func() {
			_, err := store.Write("acme", "Acme Corp", "only doc", nil, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Prune("acme")).To(BeZero())
		})

		It("does nothing for an unknown slug", func() {
			Expect(store.Prune("unknown")).To(BeZero())
		})
	})

	Describe("Entities", func() {
		It("lists slugs with snapshots", func() {
			_, err := store.Write("acme", "Acme Corp", "a", nil, 0)
			Expect(err).NotTo(HaveOccurred())
			_, err = store.Write("globex", "Globex", "g", nil, 0)
			Expect(err).NotTo(HaveOccurred())

			slugs, err := store.Entities()
			Expect(err).NotTo(HaveOccurred())
			Expect(slugs).To(Equal([]string{"acme", "globex"}))
		})
	})
})
