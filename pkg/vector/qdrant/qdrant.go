// Package qdrant provides a qdrant-backed vector driver over gRPC.
package qdrant

import (
	"context"
	"fmt"

	qd "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/vector"
)

// collectionPrefix namespaces memoire collections inside a shared qdrant
// instance.
const collectionPrefix = "memoire_"

// QdrantDriver implements vector.Driver against a qdrant instance.
// Each project maps to its own collection.
type QdrantDriver struct {
	client     *qd.Client
	dimensions uint64
	logger     *zap.Logger
}

// Config holds configuration for the qdrant driver.
type Config struct {
	// Host is the qdrant gRPC host.
	Host string

	// Port is the qdrant gRPC port.
	Port int

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewQdrantDriver creates a new qdrant vector driver.
func NewQdrantDriver(c Config, logger *zap.Logger) (*QdrantDriver, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}

	if c.Dimensions == 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions cannot be 0, must be configured")
	}

	port := c.Port
	if port == 0 {
		port = 6334
	}

	client, err := qd.NewClient(&qd.Config{
		Host: c.Host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", vector.ErrConnection, err)
	}

	logger.Info("qdrant vector driver initialized",
		zap.String("host", c.Host),
		zap.Int("port", port),
		zap.Uint("dimensions", c.Dimensions),
	)

	return &QdrantDriver{
		client:     client,
		dimensions: uint64(c.Dimensions),
		logger:     logger,
	}, nil
}

func collectionName(projectID string) string {
	return collectionPrefix + projectID
}

// ensureCollection creates the project's collection if it does not exist yet.
func (d *QdrantDriver) ensureCollection(ctx context.Context, projectID string) error {
	name := collectionName(projectID)

	exists, err := d.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: checking collection %s: %v", vector.ErrConnection, name, err)
	}
	if exists {
		return nil
	}

	err = d.client.CreateCollection(ctx, &qd.CreateCollection{
		CollectionName: name,
		VectorsConfig: qd.NewVectorsConfig(&qd.VectorParams{
			Size:     d.dimensions,
			Distance: qd.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}

	return nil
}

// Add stores documents with their embeddings in the project's collection.
func (d *QdrantDriver) Add(ctx context.Context, projectID string, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	if err := d.ensureCollection(ctx, projectID); err != nil {
		return err
	}

	points := make([]*qd.PointStruct, 0, len(docs))
	for _, doc := range docs {
		payload := make(map[string]any, len(doc.Metadata))
		for k, v := range doc.Metadata {
			payload[k] = v
		}

		points = append(points, &qd.PointStruct{
			Id:      qd.NewIDUUID(doc.ID),
			Vectors: qd.NewVectors(doc.Embedding...),
			Payload: qd.NewValueMap(payload),
		})
	}

	_, err := d.client.Upsert(ctx, &qd.UpsertPoints{
		CollectionName: collectionName(projectID),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("added documents to qdrant",
		zap.String("project_id", projectID),
		zap.Int("count", len(docs)),
	)

	return nil
}

// Search finds documents similar to the given embedding within the project's
// collection. A missing collection yields no results rather than an error.
func (d *QdrantDriver) Search(ctx context.Context, projectID string, embedding []float32, opts vector.SearchOptions) ([]vector.QueryResult, error) {
	name := collectionName(projectID)

	exists, err := d.client.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: checking collection %s: %v", vector.ErrConnection, name, err)
	}
	if !exists {
		return nil, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	query := &qd.QueryPoints{
		CollectionName: name,
		Query:          qd.NewQuery(embedding...),
		Limit:          qd.PtrOf(uint64(limit)),
		WithPayload:    qd.NewWithPayload(true),
	}

	if opts.Threshold > 0 {
		query.ScoreThreshold = qd.PtrOf(opts.Threshold)
	}

	if len(opts.Filters) > 0 {
		conditions := make([]*qd.Condition, 0, len(opts.Filters))
		for k, v := range opts.Filters {
			conditions = append(conditions, qd.NewMatch(k, v))
		}
		query.Filter = &qd.Filter{Must: conditions}
	}

	points, err := d.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, p := range points {
		metadata := make(map[string]string, len(p.Payload))
		for k, v := range p.Payload {
			metadata[k] = v.GetStringValue()
		}

		results = append(results, vector.QueryResult{
			Document: vector.Document{
				ID:       p.Id.GetUuid(),
				Metadata: metadata,
			},
			Score: p.Score,
		})
	}

	d.logger.Debug("queried qdrant",
		zap.String("project_id", projectID),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// Delete removes documents by their IDs from the project's collection.
func (d *QdrantDriver) Delete(ctx context.Context, projectID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qd.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qd.NewIDUUID(id))
	}

	_, err := d.client.Delete(ctx, &qd.DeletePoints{
		CollectionName: collectionName(projectID),
		Points:         qd.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	d.logger.Debug("deleted documents from qdrant",
		zap.String("project_id", projectID),
		zap.Int("count", len(ids)),
	)

	return nil
}

// DropProject removes the project's collection entirely.
func (d *QdrantDriver) DropProject(ctx context.Context, projectID string) error {
	name := collectionName(projectID)

	exists, err := d.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: checking collection %s: %v", vector.ErrConnection, name, err)
	}
	if !exists {
		return nil
	}

	if err := d.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("deleting collection %s: %w", name, err)
	}

	d.logger.Debug("dropped project from qdrant",
		zap.String("project_id", projectID),
	)

	return nil
}

// Close releases the gRPC connection.
func (d *QdrantDriver) Close() error {
	return d.client.Close()
}
