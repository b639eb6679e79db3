package vector_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quarryhq/dossier/pkg/vector"
)

func TestVector(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Vector Suite")
}

var _ = Describe("Metadata", func() {
	Describe("ToMap", func() {
		It("never lets extension keys shadow explicit fields", func() {
			m := vector.Metadata{
				ChunkIndex: 2,
				DocHash:    "abc",
				Extra:      map[string]string{"doc_hash": "shadow", "origin": "crawler"},
			}

			flat := m.ToMap()
			Expect(flat).To(HaveKeyWithValue("doc_hash", "abc"))
			Expect(flat).To(HaveKeyWithValue("chunk_index", 2))
			Expect(flat).To(HaveKeyWithValue("origin", "crawler"))
		})
	})

	Describe("MetadataFromMap", func() {
		It("tolerates the numeric types driver payloads come back as", func() {
			// JSON round-trips hand back float64; the qdrant payload
			// decoder hands back int64.
			m := vector.MetadataFromMap(map[string]any{
				"chunk_index": int64(3),
				"doc_hash":    "abc",
				"raw_path":    "/tmp/x.json",
				"page":        int64(7),
				"score":       float64(2),
				"fresh":       true,
			})

			Expect(m.ChunkIndex).To(Equal(3))
			Expect(m.DocHash).To(Equal("abc"))
			Expect(m.RawPath).To(Equal("/tmp/x.json"))
			Expect(m.Extra).To(HaveKeyWithValue("page", "7"))
			Expect(m.Extra).To(HaveKeyWithValue("score", "2"))
			Expect(m.Extra).To(HaveKeyWithValue("fresh", "true"))
		})

		It("treats a float64 chunk index as an int", func() {
			m := vector.MetadataFromMap(map[string]any{"chunk_index": float64(5)})
			Expect(m.ChunkIndex).To(Equal(5))
		})
	})
})
