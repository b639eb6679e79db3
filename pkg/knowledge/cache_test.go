package knowledge_test

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/quarryhq/dossier/pkg/corpus"
	"github.com/quarryhq/dossier/pkg/curator"
	"github.com/quarryhq/dossier/pkg/knowledge"
	"github.com/quarryhq/dossier/pkg/playbook"
	"github.com/quarryhq/dossier/pkg/telemetry"
	testutils "github.com/quarryhq/dossier/pkg/utils/test"
)

func TestKnowledge(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Knowledge Suite")
}

var _ = Describe("Cache", func() {
	var (
		ctx       context.Context
		cache     *knowledge.Cache
		driver    *testutils.MockVectorDriver
		embedder  *testutils.MockEmbedder
		playbooks *playbook.Store
		tlog      *telemetry.Log
		snapshots *corpus.Store
	)

	// newCache rebuilds the facade with an optional generator.
	newCache := func(gen *testutils.MockGenerator, maxRawFiles int) {
		logger := zap.NewNop()
		root := GinkgoT().TempDir()

		var err error
		snapshots, err = corpus.NewStore(filepath.Join(root, "corpus"), maxRawFiles, logger)
		Expect(err).NotTo(HaveOccurred())
		playbooks, err = playbook.NewStore(filepath.Join(root, "playbooks"), logger)
		Expect(err).NotTo(HaveOccurred())
		tlog, err = telemetry.NewLog(filepath.Join(root, "metrics", "curation_log.jsonl"), logger)
		Expect(err).NotTo(HaveOccurred())

		driver = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()

		var cur *curator.Curator
		if gen != nil {
			cur = curator.New(gen, logger)
		} else {
			cur = curator.New(nil, logger)
		}

		cache, err = knowledge.NewCache(knowledge.Options{
			Corpus:    snapshots,
			Playbooks: playbooks,
			Driver:    driver,
			Embedder:  embedder,
			Curator:   cur,
			Telemetry: tlog,
			Logger:    logger,
		})
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		ctx = context.Background()
		newCache(nil, 120)
	})

	Describe("NewCache", func() {
		It("requires its collaborators", func() {
			_, err := knowledge.NewCache(knowledge.Options{})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("CollectionName", func() {
		It("derives a slug-based collection name", func() {
			Expect(knowledge.CollectionName("Acme Corp")).To(Equal("entity_acme-corp"))
		})
	})

	Describe("IngestDocuments", func() {
		It("skips blank texts and returns zero", func() {
			count, err := cache.IngestDocuments(ctx, "Acme", []string{"", "   \n"}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})

		It("is idempotent for identical normalized text", func() {
			count1, err := cache.IngestDocuments(ctx, "Acme", []string{"stable fact"}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(count1).To(Equal(1))

			count2, err := cache.IngestDocuments(ctx, "Acme", []string{"  stable fact  "}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(count2).To(Equal(count1))

			stored, err := driver.Count(ctx, "entity_acme")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(Equal(1))
		})

		It("uses deterministic chunk ids", func() {
			_, err := cache.IngestDocuments(ctx, "Acme", []string{"T"}, nil)
			Expect(err).NotTo(HaveOccurred())

			docs := driver.Collections["entity_acme"]
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].ID).To(Equal(fmt.Sprintf("acme_%s_0", corpus.DocHash("T"))))
		})

		It("keeps snapshot count bounded by the retention cap", func() {
			newCache(nil, 5)

			texts := make([]string, 10)
			for i := range texts {
				texts[i] = fmt.Sprintf("document number %d", i)
			}
			_, err := cache.IngestDocuments(ctx, "Acme", texts, nil)
			Expect(err).NotTo(HaveOccurred())

			remaining, err := snapshots.Count("acme")
			Expect(err).NotTo(HaveOccurred())
			Expect(remaining).To(Equal(5))
		})

		It("carries source and category into chunk metadata", func() {
			_, err := cache.IngestDocuments(ctx, "Acme", []string{"fact"}, map[string]string{
				"source":   "https://example.com",
				"category": "news",
				"origin":   "crawler",
			})
			Expect(err).NotTo(HaveOccurred())

			doc := driver.Collections["entity_acme"][0]
			Expect(doc.Metadata.Source).To(Equal("https://example.com"))
			Expect(doc.Metadata.Category).To(Equal("news"))
			Expect(doc.Metadata.Extra).To(HaveKeyWithValue("origin", "crawler"))
			Expect(doc.Metadata.RawPath).NotTo(BeEmpty())
		})
	})

	Describe("Query", func() {
		It("returns empty before any ingest", func() {
			results, err := cache.Query(ctx, "Acme", "anything", 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("returns empty for a non-positive topK", func() {
			_, err := cache.IngestDocuments(ctx, "Acme", []string{"fact"}, nil)
			Expect(err).NotTo(HaveOccurred())

			results, err := cache.Query(ctx, "Acme", "fact", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})
	})

	Describe("Ingest", func() {
		It("rejects an empty entity", func() {
			Expect(cache.Ingest(ctx, "  ", "content", "", "")).To(Equal("entity must not be empty."))
		})

		It("rejects empty content", func() {
			Expect(cache.Ingest(ctx, "Acme", "   ", "", "")).To(Equal("content must not be empty."))
		})

		It("stores a short fact verbatim and starts the playbook with it", func() {
			msg := cache.Ingest(ctx, "Acme", "short fact", "u1", "news")
			Expect(msg).To(ContainSubstring("1 vector chunks stored"))
			Expect(msg).To(ContainSubstring("playbook updated"))

			book, err := playbooks.Get("acme")
			Expect(err).NotTo(HaveOccurred())
			lines := strings.SplitN(book, "\n", 2)
			Expect(lines[0]).To(HavePrefix("[source] u1 | [category] news | [captured] "))
			Expect(lines[1]).To(Equal("short fact"))

			// First write archives nothing.
			versions, err := playbooks.Versions("acme")
			Expect(err).NotTo(HaveOccurred())
			Expect(versions).To(BeEmpty())
		})

		It("archives the previous playbook on every later ingest", func() {
			for i := 1; i <= 4; i++ {
				cache.Ingest(ctx, "Acme", fmt.Sprintf("fact number %d", i), "u1", "news")
			}

			versions, err := playbooks.Versions("acme")
			Expect(err).NotTo(HaveOccurred())
			Expect(versions).To(HaveLen(3))

			book, err := playbooks.Get("acme")
			Expect(err).NotTo(HaveOccurred())
			Expect(book).To(ContainSubstring("fact number 1"))
			Expect(book).To(ContainSubstring("fact number 4"))
		})

		It("records one telemetry event per curated ingest", func() {
			cache.Ingest(ctx, "Acme", "short fact", "u1", "news")
			cache.Ingest(ctx, "Globex", "another fact", "u2", "news")

			summary, err := tlog.Summarize(time.Hour)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Events).To(Equal(2))
			Expect(summary.PerEntity).To(HaveKey("Acme"))
			Expect(summary.PerEntity).To(HaveKey("Globex"))
		})

		It("still ingests when the generator fails", func() {
			gen := testutils.NewMockGenerator("")
			gen.Fail = true
			newCache(gen, 120)

			long := strings.Repeat("an important detail. ", 40)
			msg := cache.Ingest(ctx, "Acme", long, "u1", "news")
			Expect(msg).To(ContainSubstring("playbook updated"))

			book, err := playbooks.Get("acme")
			Expect(err).NotTo(HaveOccurred())
			Expect(book).To(ContainSubstring("an important detail."))
		})

		It("loses no facts under concurrent ingests for one entity", func() {
			const workers = 8

			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					msg := cache.Ingest(ctx, "Acme", fmt.Sprintf("concurrent fact %d", i), "u1", "news")
					Expect(msg).To(ContainSubstring("playbook updated"))
				}(i)
			}
			wg.Wait()

			// Every ingest's entry survives the read-archive-merge-write
			// sequence; none is overwritten by a racing writer.
			book, err := playbooks.Get("acme")
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < workers; i++ {
				Expect(book).To(ContainSubstring(fmt.Sprintf("concurrent fact %d", i)))
			}

			versions, err := playbooks.Versions("acme")
			Expect(err).NotTo(HaveOccurred())
			Expect(versions).To(HaveLen(workers - 1))
		})

		It("reports upsert failures as a string, not an error", func() {
			driver.FailUpsert = true
			msg := cache.Ingest(ctx, "Acme", "short fact", "u1", "news")
			Expect(msg).To(HavePrefix("ingest failed"))
		})
	})

	Describe("Retrieve", func() {
		It("rejects an empty entity", func() {
			Expect(cache.Retrieve(ctx, "", "query", 5)).To(Equal("entity must not be empty."))
		})

		It("returns the sentinel for an unknown entity", func() {
			Expect(cache.Retrieve(ctx, "Nobody Ever Heard Of", "query", 5)).To(Equal(knowledge.NoCachedKnowledge))
		})

		It("returns playbook plus raw evidence after an ingest", func() {
			cache.Ingest(ctx, "Acme", "short fact", "u1", "news")

			out := cache.Retrieve(ctx, "Acme", "short fact", 5)
			Expect(out).To(ContainSubstring("## Curated summary"))
			Expect(out).To(ContainSubstring("short fact"))
			Expect(out).To(ContainSubstring("## Raw evidence"))
			Expect(out).To(ContainSubstring("[RAG-1]"))
		})

		It("seeds the query from the playbook when none is supplied", func() {
			cache.Ingest(ctx, "Acme", "short fact", "u1", "news")

			out := cache.Retrieve(ctx, "Acme", "", 0)
			Expect(out).To(ContainSubstring("short fact"))
			// The seed text sent to the embedder comes from the playbook.
			lastEmbedded := embedder.Calls[len(embedder.Calls)-1]
			Expect(lastEmbedded).To(ContainSubstring("short fact"))
		})
	})
})
