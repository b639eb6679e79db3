// Package qdrant provides a Qdrant vector database driver implementation
// backed by the official gRPC client. Qdrant point IDs must be UUIDs or
// integers, so chunk IDs are mapped to deterministic UUIDs and the original
// ID travels in the payload.
package qdrant

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	qdrantgo "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/quarryhq/dossier/pkg/vector"
)

// payloadChunkID is the payload key carrying the caller-facing chunk ID.
const payloadChunkID = "chunk_id"

// pointIDNamespace seeds the deterministic chunk-ID to UUID mapping. Changing
// it orphans every previously written point.
var pointIDNamespace = uuid.MustParse("8a9e6f40-6f06-4cc5-9cfe-d8206fca52a1")

// Driver implements vector.Driver using Qdrant.
type Driver struct {
	client *qdrantgo.Client
	dims   uint64
	logger *zap.Logger

	mu sync.Mutex
	// known caches collection names confirmed to exist server-side.
	known map[string]bool
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Host is the Qdrant server host (e.g., "localhost").
	Host string

	// Port is the Qdrant gRPC port (typically 6334).
	Port int

	// APIKey authenticates against Qdrant Cloud. Optional.
	APIKey string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewDriver creates a new Qdrant vector driver.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions cannot be 0, must be configured")
	}
	if c.Port == 0 {
		c.Port = 6334
	}

	client, err := qdrantgo.NewClient(&qdrantgo.Config{
		Host:   c.Host,
		Port:   c.Port,
		APIKey: c.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrConnection, err)
	}

	logger.Info("qdrant vector driver initialized",
		zap.String("host", c.Host),
		zap.Int("port", c.Port),
		zap.Uint("dimensions", c.Dimensions),
	)

	return &Driver{
		client: client,
		dims:   uint64(c.Dimensions),
		logger: logger,
		known:  make(map[string]bool),
	}, nil
}

// pointID derives the stable Qdrant UUID for a chunk ID.
func pointID(chunkID string) string {
	return uuid.NewSHA1(pointIDNamespace, []byte(chunkID)).String()
}

// ensureCollection creates the collection on first use.
func (d *Driver) ensureCollection(ctx context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.known[name] {
		return nil
	}

	exists, err := d.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: checking collection %q: %v", vector.ErrConnection, name, err)
	}

	if !exists {
		err = d.client.CreateCollection(ctx, &qdrantgo.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrantgo.NewVectorsConfig(&qdrantgo.VectorParams{
				Size:     d.dims,
				Distance: qdrantgo.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("creating collection %q: %w", name, err)
		}
		d.logger.Debug("created qdrant collection", zap.String("collection", name))
	}

	d.known[name] = true
	return nil
}

// collectionExists checks for a collection without creating it.
func (d *Driver) collectionExists(ctx context.Context, name string) (bool, error) {
	d.mu.Lock()
	if d.known[name] {
		d.mu.Unlock()
		return true, nil
	}
	d.mu.Unlock()

	exists, err := d.client.CollectionExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("%w: checking collection %q: %v", vector.ErrConnection, name, err)
	}
	if exists {
		d.mu.Lock()
		d.known[name] = true
		d.mu.Unlock()
	}
	return exists, nil
}

// Upsert stores documents in the named collection, replacing points that map
// to the same chunk ID.
func (d *Driver) Upsert(ctx context.Context, collection string, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	if err := d.ensureCollection(ctx, collection); err != nil {
		return err
	}

	points := make([]*qdrantgo.PointStruct, len(docs))
	for i, doc := range docs {
		payload := doc.Metadata.ToMap()
		payload[payloadChunkID] = doc.ID
		payload["content"] = doc.Content

		points[i] = &qdrantgo.PointStruct{
			Id:      qdrantgo.NewID(pointID(doc.ID)),
			Vectors: qdrantgo.NewVectors(doc.Embedding...),
			Payload: qdrantgo.NewValueMap(payload),
		}
	}

	_, err := d.client.Upsert(ctx, &qdrantgo.UpsertPoints{
		CollectionName: collection,
		Points:         points,
		Wait:           qdrantgo.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("upserted documents into qdrant",
		zap.String("collection", collection),
		zap.Int("count", len(docs)),
	)

	return nil
}

// Query finds the topK most similar documents in the named collection.
// A collection that was never created yields an empty result.
func (d *Driver) Query(ctx context.Context, collection string, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	exists, err := d.collectionExists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	points, err := d.client.Query(ctx, &qdrantgo.QueryPoints{
		CollectionName: collection,
		Query:          qdrantgo.NewQuery(embedding...),
		Limit:          qdrantgo.PtrOf(uint64(topK)),
		WithPayload:    qdrantgo.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	var results []vector.QueryResult
	for _, point := range points {
		raw := make(map[string]any, len(point.Payload))
		for k, v := range point.Payload {
			raw[k] = valueToAny(v)
		}

		doc := vector.Document{}
		if id, ok := raw[payloadChunkID].(string); ok {
			doc.ID = id
			delete(raw, payloadChunkID)
		}
		if content, ok := raw["content"].(string); ok {
			doc.Content = content
			delete(raw, "content")
		}
		doc.Metadata = vector.MetadataFromMap(raw)

		results = append(results, vector.QueryResult{
			Document: doc,
			Score:    point.Score,
		})
	}

	d.logger.Debug("queried qdrant",
		zap.String("collection", collection),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// Count reports how many points the named collection holds. A collection
// that was never created counts as zero.
func (d *Driver) Count(ctx context.Context, collection string) (int, error) {
	exists, err := d.collectionExists(ctx, collection)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	count, err := d.client.Count(ctx, &qdrantgo.CountPoints{
		CollectionName: collection,
		Exact:          qdrantgo.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}

	return int(count), nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.client.Close()
}

// valueToAny unwraps a Qdrant payload value into a plain Go value.
func valueToAny(v *qdrantgo.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrantgo.Value_StringValue:
		return kind.StringValue
	case *qdrantgo.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrantgo.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrantgo.Value_BoolValue:
		return kind.BoolValue
	default:
		return nil
	}
}
