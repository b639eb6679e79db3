// Package knowledge composes the snapshot store, vector index, curator,
// playbook store and telemetry log into the ingest/retrieve cache consumed by
// the agent layer.
package knowledge

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/quarryhq/dossier/pkg/corpus"
	"github.com/quarryhq/dossier/pkg/curator"
	"github.com/quarryhq/dossier/pkg/embeddings"
	"github.com/quarryhq/dossier/pkg/playbook"
	"github.com/quarryhq/dossier/pkg/slug"
	"github.com/quarryhq/dossier/pkg/telemetry"
	"github.com/quarryhq/dossier/pkg/textsplit"
	"github.com/quarryhq/dossier/pkg/vector"
)

const (
	// DefaultTopK is the number of raw snippets retrieve returns.
	DefaultTopK = 5

	// contextTopK bounds the existing-context lookup fed to curation.
	contextTopK = 3

	// querySeedRunes is how much of the playbook seeds retrieval when the
	// caller supplies no query.
	querySeedRunes = 400
)

// NoCachedKnowledge is returned by Retrieve when nothing is cached for an
// entity. Callers branch on it to decide whether to research from scratch.
const NoCachedKnowledge = "No cached knowledge found for this entity; continue with fresh research."

// Cache is the entity knowledge cache facade. All tool-facing operations
// return strings and never fail toward the caller; the maintenance surface
// underneath (the stores themselves) surfaces hard errors.
type Cache struct {
	corpus    *corpus.Store
	playbooks *playbook.Store
	driver    vector.Driver
	embedder  embeddings.Embedder
	splitter  textsplit.Splitter
	curator   *curator.Curator
	telemetry *telemetry.Log
	logger    *zap.Logger

	locationHint string

	// mu guards entityLocks; each entity lock serializes that entity's
	// playbook read-archive-merge-write sequence so concurrent ingests
	// cannot lose updates.
	mu          sync.Mutex
	entityLocks map[string]*sync.Mutex
}

// Options wires the cache's collaborators.
type Options struct {
	Corpus    *corpus.Store
	Playbooks *playbook.Store
	Driver    vector.Driver
	Embedder  embeddings.Embedder
	Splitter  textsplit.Splitter
	Curator   *curator.Curator
	Telemetry *telemetry.Log
	Logger    *zap.Logger

	// LocationHint narrows curation prompts to a region of interest. Optional.
	LocationHint string
}

// NewCache creates the facade. Corpus, Playbooks, Driver and Embedder are
// required; a nil Splitter gets the default recursive splitter and a nil
// Curator a generator-less one.
func NewCache(opts Options) (*Cache, error) {
	if opts.Corpus == nil {
		return nil, fmt.Errorf("corpus store is required")
	}
	if opts.Playbooks == nil {
		return nil, fmt.Errorf("playbook store is required")
	}
	if opts.Driver == nil {
		return nil, fmt.Errorf("vector driver is required")
	}
	if opts.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Splitter == nil {
		opts.Splitter = textsplit.NewRecursive(textsplit.DefaultChunkSize, textsplit.DefaultChunkOverlap)
	}
	if opts.Curator == nil {
		opts.Curator = curator.New(nil, opts.Logger)
	}

	return &Cache{
		corpus:       opts.Corpus,
		playbooks:    opts.Playbooks,
		driver:       opts.Driver,
		embedder:     opts.Embedder,
		splitter:     opts.Splitter,
		curator:      opts.Curator,
		telemetry:    opts.Telemetry,
		logger:       opts.Logger,
		locationHint: opts.LocationHint,
		entityLocks:  make(map[string]*sync.Mutex),
	}, nil
}

// CollectionName maps an entity name to its vector collection.
func CollectionName(entity string) string {
	return "entity_" + slug.Make(entity)
}

// Corpus exposes the snapshot store for the maintenance surface.
func (c *Cache) Corpus() *corpus.Store { return c.corpus }

// Playbooks exposes the playbook store for the maintenance surface.
func (c *Cache) Playbooks() *playbook.Store { return c.playbooks }

// Telemetry exposes the telemetry log; may be nil when not configured.
func (c *Cache) Telemetry() *telemetry.Log { return c.telemetry }

func (c *Cache) entityLock(s string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.entityLocks[s]
	if !ok {
		lock = &sync.Mutex{}
		c.entityLocks[s] = lock
	}
	return lock
}

// IngestDocuments snapshots and indexes raw documents for an entity and
// returns the number of vector chunks upserted. Blank texts are skipped.
func (c *Cache) IngestDocuments(ctx context.Context, entity string, texts []string, metadata map[string]string) (int, error) {
	entitySlug := slug.Make(entity)
	collection := CollectionName(entity)

	total := 0
	for index, text := range texts {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}

		docHash := corpus.DocHash(trimmed)
		rawPath, err := c.corpus.Write(entitySlug, entity, trimmed, metadata, index)
		if err != nil {
			return total, fmt.Errorf("persisting snapshot: %w", err)
		}

		chunks := c.splitter.Split(trimmed)
		if len(chunks) == 0 {
			continue
		}

		docs := make([]vector.Document, 0, len(chunks))
		for i, chunk := range chunks {
			embedding, err := c.embedder.Embed(ctx, chunk)
			if err != nil {
				return total, fmt.Errorf("embedding chunk %d: %w", i, err)
			}

			meta := vector.Metadata{
				ChunkIndex: i,
				DocHash:    docHash,
				RawPath:    rawPath,
				Source:     metadata["source"],
				Category:   metadata["category"],
			}
			for k, v := range metadata {
				if k == "source" || k == "category" {
					continue
				}
				if meta.Extra == nil {
					meta.Extra = make(map[string]string)
				}
				meta.Extra[k] = v
			}

			docs = append(docs, vector.Document{
				ID:        fmt.Sprintf("%s_%s_%d", entitySlug, docHash, i),
				Content:   chunk,
				Metadata:  meta,
				Embedding: embedding,
			})
		}

		if err := c.driver.Upsert(ctx, collection, docs); err != nil {
			return total, fmt.Errorf("upserting chunks: %w", err)
		}
		total += len(chunks)

		c.corpus.Prune(entitySlug)
	}

	c.logger.Debug("ingested documents",
		zap.String("entity", entity),
		zap.Int("chunks", total),
	)

	return total, nil
}

// Query returns the top matching chunks for an entity. A non-positive topK or
// an entity with nothing indexed yields an empty result, not an error.
func (c *Cache) Query(ctx context.Context, entity, query string, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	collection := CollectionName(entity)
	count, err := c.driver.Count(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("counting chunks: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	embedding, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	return c.driver.Query(ctx, collection, embedding, topK)
}

// Ingest is the tool-facing write operation. It curates the content, indexes
// the curated entry, folds it into the playbook and records telemetry. The
// returned string reports the outcome; it never raises toward the agent.
func (c *Cache) Ingest(ctx context.Context, entity, content, source, category string) string {
	entity = strings.TrimSpace(entity)
	if entity == "" {
		return "entity must not be empty."
	}
	text := strings.TrimSpace(content)
	if text == "" {
		return "content must not be empty."
	}

	entitySlug := slug.Make(entity)
	lock := c.entityLock(entitySlug)
	lock.Lock()
	defer lock.Unlock()

	// Give the curator a sample of what is already indexed so it can
	// deduplicate against it.
	seed := truncateRunes(text, querySeedRunes)
	existing, err := c.Query(ctx, entity, seed, contextTopK)
	if err != nil {
		c.logger.Warn("existing-context lookup failed", zap.String("entity", entity), zap.Error(err))
		existing = nil
	}
	contextParts := make([]string, 0, len(existing))
	for _, result := range existing {
		if result.Content != "" {
			contextParts = append(contextParts, result.Content)
		}
	}

	entry := c.curator.Curate(ctx, curator.CurateRequest{
		EntityName:      entity,
		LocationHint:    c.locationHint,
		Source:          source,
		Category:        category,
		Content:         text,
		ExistingContext: strings.Join(contextParts, "\n\n"),
	})
	if entry == "" {
		return "Nothing worth keeping was extracted; knowledge cache unchanged."
	}

	if c.telemetry != nil {
		err := c.telemetry.Record(ctx, telemetry.Event{
			Entity:       entity,
			LocationHint: c.locationHint,
			Source:       source,
			Category:     category,
			InputChars:   len([]rune(text)),
			OutputChars:  len([]rune(entry)),
		})
		if err != nil {
			c.logger.Warn("recording telemetry failed", zap.Error(err))
		}
	}

	metadata := map[string]string{}
	if source != "" {
		metadata["source"] = source
	}
	if category != "" {
		metadata["category"] = category
	}

	chunkCount, err := c.IngestDocuments(ctx, entity, []string{entry}, metadata)
	if err != nil {
		return fmt.Sprintf("ingest failed: %v", err)
	}

	current, err := c.playbooks.Get(entitySlug)
	if err != nil {
		return fmt.Sprintf("ingest failed reading playbook: %v", err)
	}
	merged := c.curator.MergePlaybook(ctx, curator.MergeRequest{
		EntityName:   entity,
		LocationHint: c.locationHint,
		Source:       source,
		Category:     category,
		Current:      current,
		Entry:        entry,
	})
	if err := c.playbooks.Put(entitySlug, merged); err != nil {
		return fmt.Sprintf("ingest failed writing playbook: %v", err)
	}

	return fmt.Sprintf("Ingested: %d vector chunks stored; playbook updated.", chunkCount)
}

// Retrieve is the tool-facing read operation. It returns the live playbook
// plus top-k matching raw snippets, or the NoCachedKnowledge sentinel when
// the entity has no playbook yet. It never raises toward the agent.
func (c *Cache) Retrieve(ctx context.Context, entity, query string, topK int) string {
	entity = strings.TrimSpace(entity)
	if entity == "" {
		return "entity must not be empty."
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	entitySlug := slug.Make(entity)
	book, err := c.playbooks.Get(entitySlug)
	if err != nil {
		c.logger.Warn("reading playbook failed", zap.String("entity", entity), zap.Error(err))
		return NoCachedKnowledge
	}
	if strings.TrimSpace(book) == "" {
		return NoCachedKnowledge
	}

	// With no query, match against the playbook's own opening so related raw
	// evidence still surfaces.
	q := strings.TrimSpace(query)
	if q == "" {
		q = truncateRunes(book, querySeedRunes)
	}

	var sections []string
	sections = append(sections, "## Curated summary\n"+strings.TrimSpace(book))

	results, err := c.Query(ctx, entity, q, topK)
	if err != nil {
		c.logger.Warn("snippet lookup failed", zap.String("entity", entity), zap.Error(err))
		results = nil
	}

	if len(results) > 0 {
		parts := make([]string, 0, len(results))
		for i, result := range results {
			parts = append(parts, fmt.Sprintf(
				"[RAG-%d] chunk_index=%d doc_hash=%s raw_path=%s\n%s",
				i+1,
				result.Metadata.ChunkIndex,
				orNA(result.Metadata.DocHash),
				orNA(result.Metadata.RawPath),
				strings.TrimSpace(result.Content),
			))
		}
		sections = append(sections, "## Raw evidence\n"+strings.Join(parts, "\n\n"))
	}

	return strings.Join(sections, "\n\n")
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func orNA(s string) string {
	if s == "" {
		return "NA"
	}
	return s
}
