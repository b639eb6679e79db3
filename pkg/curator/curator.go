// Package curator distills freshly fetched text into playbook-ready entries
// and folds entries into an entity's rolling playbook.
package curator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quarryhq/dossier/pkg/llm"
	"github.com/quarryhq/dossier/pkg/utils"
)

const (
	// ShortTextLimit is the trimmed length at or below which text is kept
	// verbatim instead of summarized. Small precise facts survive intact and
	// no generative call is spent on them.
	ShortTextLimit = 320

	// MaxEntryChars caps a single curated entry.
	MaxEntryChars = 2000

	// MaxPlaybookChars caps the merged playbook.
	MaxPlaybookChars = 4000

	// TargetPlaybookChars is the length the merge prompt steers toward.
	TargetPlaybookChars = 800

	headerTimeLayout = "2006-01-02 15:04 UTC"
)

// Curator decides between verbatim storage and generative distillation.
// A nil generator degrades every path to the verbatim fallback.
type Curator struct {
	generator llm.Generator
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a curator. generator may be nil.
func New(generator llm.Generator, logger *zap.Logger) *Curator {
	return &Curator{
		generator: generator,
		logger:    logger,
		now:       time.Now,
	}
}

// CurateRequest carries one document through curation.
type CurateRequest struct {
	EntityName      string
	LocationHint    string
	Source          string
	Category        string
	Content         string
	ExistingContext string
}

// MergeRequest folds a curated entry into the current playbook.
type MergeRequest struct {
	EntityName   string
	LocationHint string
	Source       string
	Category     string
	Current      string
	Entry        string
}

func (c *Curator) header(source, category string) string {
	ts := c.now().UTC().Format(headerTimeLayout)
	return fmt.Sprintf("[source] %s | [category] %s | [captured] %s", source, category, ts)
}

// Curate returns a provenance-headed entry for the document, or "" when the
// content trims empty. Curation never fails: any generation error falls back
// to the verbatim text.
func (c *Curator) Curate(ctx context.Context, req CurateRequest) string {
	text := strings.TrimSpace(req.Content)
	if text == "" {
		return ""
	}

	header := c.header(req.Source, req.Category)

	if len([]rune(text)) <= ShortTextLimit || c.generator == nil {
		return header + "\n" + text
	}

	existing := req.ExistingContext
	if strings.TrimSpace(existing) == "" {
		existing = "(none yet)"
	}

	system := "You are a research assistant organizing corporate due-diligence material. " +
		"Summarize the most valuable findings from newly fetched raw text, avoid repeating " +
		"what the existing notes already cover, and call out contradictions or follow-ups " +
		"when needed. Output a bullet list suitable for a knowledge base."
	user := fmt.Sprintf(
		"Entity: %s\nFocus region: %s\nSource category: %s\nOriginal channel: %s\n\n"+
			"Excerpt of existing notes (may be empty):\n%s\n\n"+
			"New raw text:\n%s\n\n"+
			"Output at most 6 bullet points, each starting with \"- \" and containing a fact, "+
			"figure or event from this text. If a point duplicates or contradicts the existing "+
			"notes, tag it [duplicate] or [verify] and say why.",
		req.EntityName, req.LocationHint, req.Category, req.Source, existing, text,
	)

	content, err := c.generator.Generate(ctx, []llm.Message{
		llm.NewSystemMessage(system),
		llm.NewUserMessage(user),
	})
	if err != nil {
		c.logger.Warn("curation generation failed, keeping raw text",
			zap.String("entity", req.EntityName),
			zap.Error(err),
		)
		content = text
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	// Prevent runaway generations from polluting the index.
	content = utils.Truncate(content, MaxEntryChars)

	return header + "\n" + content
}

// MergePlaybook returns the next playbook value after folding the entry in.
// A blank entry leaves the current value untouched. Generation failures fall
// back to appending rather than discarding the entry.
func (c *Curator) MergePlaybook(ctx context.Context, req MergeRequest) string {
	existing := strings.TrimSpace(req.Current)
	addition := strings.TrimSpace(req.Entry)
	if addition == "" {
		return req.Current
	}

	if c.generator == nil {
		return cap4000(appendEntry(existing, addition))
	}

	shownExisting := existing
	if shownExisting == "" {
		shownExisting = "(none yet)"
	}

	system := "You maintain a due-diligence playbook for one entity. Keep it lean and " +
		"structured around key facts, risks, opportunities and watch items. It evolves over " +
		"time; drop redundancy and keep provenance hints."
	user := fmt.Sprintf(
		"Entity: %s\nFocus region: %s\nSource category: %s\nOriginal channel: %s\n\n"+
			"Current playbook:\n%s\n\n"+
			"New note:\n%s\n\n"+
			"Output the updated playbook. Nested bullets or sections are fine:\n"+
			"- keep key information, dates and sources;\n"+
			"- remove duplicated and low-value content;\n"+
			"- tag contested or unverified items [verify];\n"+
			"- stay within about %d characters.",
		req.EntityName, req.LocationHint, req.Category, req.Source,
		shownExisting, addition, TargetPlaybookChars,
	)

	content, err := c.generator.Generate(ctx, []llm.Message{
		llm.NewSystemMessage(system),
		llm.NewUserMessage(user),
	})
	if err != nil {
		c.logger.Warn("playbook merge generation failed, appending instead",
			zap.String("entity", req.EntityName),
			zap.Error(err),
		)
		content = appendEntry(existing, addition)
	}

	return cap4000(strings.TrimSpace(content))
}

func appendEntry(existing, addition string) string {
	if existing == "" {
		return addition
	}
	return existing + "\n\n" + addition
}

func cap4000(content string) string {
	return utils.Truncate(content, MaxPlaybookChars)
}
