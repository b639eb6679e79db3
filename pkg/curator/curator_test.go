package curator_test

import (
	"context"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/quarryhq/dossier/pkg/curator"
	"github.com/quarryhq/dossier/pkg/utils"
	testutils "github.com/quarryhq/dossier/pkg/utils/test"
)

func TestCurator(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Curator Suite")
}

var _ = Describe("Curator", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("Curate", func() {
		It("returns empty for blank content", func() {
			c := curator.New(nil, zap.NewNop())
			Expect(c.Curate(ctx, curator.CurateRequest{Content: "   \n\t"})).To(BeEmpty())
		})

		It("keeps short text verbatim under a provenance header", func() {
			c := curator.New(nil, zap.NewNop())
			entry := c.Curate(ctx, curator.CurateRequest{
				EntityName: "Acme Corp",
				Source:     "https://example.com",
				Category:   "news",
				Content:    "  Acme opened a new plant.  ",
			})

			lines := strings.SplitN(entry, "\n", 2)
			Expect(lines).To(HaveLen(2))
			Expect(lines[0]).To(HavePrefix("[source] https://example.com | [category] news | [captured] "))
			Expect(lines[0]).To(HaveSuffix(" UTC"))
			Expect(lines[1]).To(Equal("Acme opened a new plant."))
		})

		It("keeps long text verbatim when no generator is configured", func() {
			c := curator.New(nil, zap.NewNop())
			long := strings.Repeat("fact. ", 100)
			entry := c.Curate(ctx, curator.CurateRequest{Content: long})
			Expect(entry).To(ContainSubstring(strings.TrimSpace(long)))

			gen := testutils.NewMockGenerator("unused")
			Expect(gen.Calls).To(BeEmpty())
		})

		It("distills long text through the generator", func() {
			gen := testutils.NewMockGenerator("- Acme opened a plant\n- Revenue grew 20%")
			c := curator.New(gen, zap.NewNop())

			long := strings.Repeat("Acme news paragraph. ", 50)
			entry := c.Curate(ctx, curator.CurateRequest{
				EntityName:      "Acme Corp",
				LocationHint:    "Springfield",
				Source:          "https://example.com",
				Category:        "news",
				Content:         long,
				ExistingContext: "Acme exists.",
			})

			Expect(entry).To(ContainSubstring("- Acme opened a plant"))
			Expect(gen.Calls).To(HaveLen(1))
			Expect(gen.Calls[0][1].Content).To(ContainSubstring("Acme Corp"))
			Expect(gen.Calls[0][1].Content).To(ContainSubstring("Acme exists."))
		})

		It("does not call the generator for short text", func() {
			gen := testutils.NewMockGenerator("unused")
			c := curator.New(gen, zap.NewNop())

			c.Curate(ctx, curator.CurateRequest{Content: "short fact"})
			Expect(gen.Calls).To(BeEmpty())
		})

		It("falls back to the raw text when generation fails", func() {
			gen := testutils.NewMockGenerator("")
			gen.Fail = true
			c := curator.New(gen, zap.NewNop())

			long := strings.Repeat("important fact. ", 50)
			entry := c.Curate(ctx, curator.CurateRequest{Content: long})
			Expect(entry).NotTo(BeEmpty())
			Expect(entry).To(ContainSubstring("important fact."))
		})

		It("caps oversized entries with a truncation marker", func() {
			gen := testutils.NewMockGenerator(strings.Repeat("x", curator.MaxEntryChars+500))
			c := curator.New(gen, zap.NewNop())

			long := strings.Repeat("padding text. ", 50)
			entry := c.Curate(ctx, curator.CurateRequest{Content: long})

			body := strings.SplitN(entry, "\n", 2)[1]
			Expect(body).To(HaveSuffix(utils.TruncationMarker))
			Expect(len([]rune(body))).To(Equal(curator.MaxEntryChars + len(utils.TruncationMarker)))
		})
	})

	Describe("MergePlaybook", func() {
		It("returns the current playbook unchanged for a blank entry", func() {
			c := curator.New(nil, zap.NewNop())
			Expect(c.MergePlaybook(ctx, curator.MergeRequest{
				Current: "existing playbook",
				Entry:   "   ",
			})).To(Equal("existing playbook"))
		})

		It("starts a new playbook from the first entry", func() {
			c := curator.New(nil, zap.NewNop())
			Expect(c.MergePlaybook(ctx, curator.MergeRequest{
				Current: "",
				Entry:   "first entry",
			})).To(Equal("first entry"))
		})

		It("appends without a generator", func() {
			c := curator.New(nil, zap.NewNop())
			merged := c.MergePlaybook(ctx, curator.MergeRequest{
				Current: "old entry",
				Entry:   "new entry",
			})
			Expect(merged).To(Equal("old entry\n\nnew entry"))
		})

		It("merges through the generator when available", func() {
			gen := testutils.NewMockGenerator("merged playbook")
			c := curator.New(gen, zap.NewNop())

			merged := c.MergePlaybook(ctx, curator.MergeRequest{
				EntityName: "Acme Corp",
				Current:    "old entry",
				Entry:      "new entry",
			})
			Expect(merged).To(Equal("merged playbook"))
			Expect(gen.Calls).To(HaveLen(1))
			Expect(gen.Calls[0][1].Content).To(ContainSubstring("old entry"))
			Expect(gen.Calls[0][1].Content).To(ContainSubstring("new entry"))
		})

		It("appends when generation fails so the entry is never lost", func() {
			gen := testutils.NewMockGenerator("")
			gen.Fail = true
			c := curator.New(gen, zap.NewNop())

			merged := c.MergePlaybook(ctx, curator.MergeRequest{
				Current: "old entry",
				Entry:   "new entry",
			})
			Expect(merged).To(Equal("old entry\n\nnew entry"))
		})

		It("caps the merged playbook with a truncation marker", func() {
			gen := testutils.NewMockGenerator(strings.Repeat("y", curator.MaxPlaybookChars+100))
			c := curator.New(gen, zap.NewNop())

			merged := c.MergePlaybook(ctx, curator.MergeRequest{Current: "old", Entry: "new"})
			Expect(merged).To(HaveSuffix(utils.TruncationMarker))
			Expect(len([]rune(merged))).To(Equal(curator.MaxPlaybookChars + len(utils.TruncationMarker)))
		})
	})
})
