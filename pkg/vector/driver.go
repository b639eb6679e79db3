// Package vector provides interfaces and implementations for per-entity
// vector storage and similarity retrieval.
package vector

import "context"

// Metadata is the explicit field set attached to every stored chunk, plus an
// open string-keyed extension map for caller-supplied annotations.
type Metadata struct {
	// ChunkIndex is the zero-based position of the chunk within its
	// source document.
	ChunkIndex int

	// DocHash is the content hash of the source document.
	DocHash string

	// RawPath points at the raw snapshot file the chunk came from.
	RawPath string

	// Source records where the document was fetched from (URL, outlet).
	Source string

	// Category labels the kind of evidence (news, filing, web_visit, ...).
	Category string

	// Extra carries any additional caller-supplied key/value pairs.
	Extra map[string]string
}

// Document represents a stored chunk with its embedding and metadata.
type Document struct {
	// ID is the deterministic chunk identifier: slug_dochash_index.
	// Re-upserting the same ID replaces the stored record.
	ID string

	// Content is the chunk text.
	Content string

	// Metadata describes the chunk's provenance.
	Metadata Metadata

	// Embedding is the vector representation of Content.
	Embedding []float32
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Document

	// Score represents the similarity score (higher = more similar).
	Score float32
}

// Driver handles storage and retrieval of chunk embeddings. Each entity owns
// one collection; collection names are derived from the entity slug and
// created lazily on first use.
type Driver interface {
	// Upsert stores documents in the named collection, replacing any
	// existing document with the same ID.
	Upsert(ctx context.Context, collection string, docs []Document) error

	// Query finds the topK most similar documents in the named collection.
	// A missing or empty collection yields an empty result, not an error.
	Query(ctx context.Context, collection string, embedding []float32, topK int) ([]QueryResult, error)

	// Count reports how many documents the named collection holds.
	// A missing collection counts as zero.
	Count(ctx context.Context, collection string) (int, error)

	// Close releases any resources held by the driver.
	Close() error
}
