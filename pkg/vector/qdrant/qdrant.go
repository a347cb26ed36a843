// Package qdrant provides the production vector.Driver on a Qdrant
// cluster, using the official gRPC client. The role filter is pushed down
// to Qdrant as a payload condition so excluded chunks never reach ranking.
package qdrant

import (
	"context"
	"fmt"
	"sort"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/canopyhq/rolechat/pkg/rbac"
	"github.com/canopyhq/rolechat/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for chunk vectors.
	DefaultCollectionName = "rolechat_docs"

	// DefaultHost and DefaultPort point at a local Qdrant gRPC endpoint.
	DefaultHost = "localhost"
	DefaultPort = 6334
)

const (
	payloadRole       = "role"
	payloadSource     = "source"
	payloadSection    = "section"
	payloadText       = "text"
	payloadChunkIndex = "chunk_index"
)

// Driver implements vector.Driver against Qdrant.
type Driver struct {
	client     *qdrant.Client
	collection string
	logger     *zap.Logger
}

// Config holds connection settings for the Qdrant driver.
type Config struct {
	// Host is the Qdrant gRPC host. Defaults to DefaultHost.
	Host string

	// Port is the Qdrant gRPC port. Defaults to DefaultPort.
	Port int

	// APIKey authenticates against a secured cluster. Optional.
	APIKey string

	// UseTLS enables transport security. Required by Qdrant Cloud.
	UseTLS bool

	// CollectionName defaults to DefaultCollectionName if empty.
	CollectionName string
}

// NewDriver connects to Qdrant. The collection is created lazily by Init.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	host := c.Host
	if host == "" {
		host = DefaultHost
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrConnection, err)
	}

	logger.Info("connected to qdrant",
		zap.String("host", host),
		zap.Int("port", port),
		zap.String("collection", collection),
	)

	return &Driver{
		client:     client,
		collection: collection,
		logger:     logger,
	}, nil
}

// Init creates the collection with cosine distance, or verifies the
// dimensionality of an existing one. A dimensionality conflict is fatal
// until an explicit clear and re-init.
func (d *Driver) Init(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: invalid dimensions %d", vector.ErrIndexInit, dimensions)
	}

	exists, err := d.client.CollectionExists(ctx, d.collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection: %v", vector.ErrIndexInit, err)
	}

	if exists {
		info, err := d.client.GetCollectionInfo(ctx, d.collection)
		if err != nil {
			return fmt.Errorf("%w: inspecting collection: %v", vector.ErrIndexInit, err)
		}
		size := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
		if size != uint64(dimensions) {
			return fmt.Errorf("%w: collection %q exists with %d dimensions, requested %d",
				vector.ErrIndexInit, d.collection, size, dimensions)
		}
		d.logger.Info("collection already exists", zap.String("collection", d.collection))
		return nil
	}

	err = d.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: d.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimensions),
			Distance: qdrant.Distance_Cosine,
			OnDisk:   qdrant.PtrOf(true),
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: creating collection: %v", vector.ErrIndexInit, err)
	}

	d.logger.Info("created collection",
		zap.String("collection", d.collection),
		zap.Int("dimensions", dimensions),
	)
	return nil
}

// Upsert writes records keyed by chunk id; Qdrant replaces points with the
// same id, which makes re-indexing idempotent.
func (d *Driver) Upsert(ctx context.Context, records []vector.Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, rec := range records {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(rec.ID),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadRole:       string(rec.Role),
				payloadSource:     rec.Payload.Source,
				payloadSection:    rec.Payload.Section,
				payloadText:       rec.Payload.Text,
				payloadChunkIndex: int64(rec.Payload.ChunkIndex),
			}),
		}
	}

	_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting %d points: %w", len(points), err)
	}

	d.logger.Debug("upserted points", zap.Int("count", len(points)))
	return nil
}

// Search queries Qdrant with a mandatory role filter. An empty allowed set
// returns no results rather than an unfiltered search.
func (d *Driver) Search(ctx context.Context, query []float32, allowedRoles []rbac.Role, topK int) ([]vector.Result, error) {
	if topK <= 0 || len(allowedRoles) == 0 {
		return nil, nil
	}

	conditions := make([]*qdrant.Condition, len(allowedRoles))
	for i, role := range allowedRoles {
		conditions[i] = qdrant.NewMatch(payloadRole, string(role))
	}

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		Filter:         &qdrant.Filter{Should: conditions},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	results := make([]vector.Result, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		results = append(results, vector.Result{
			Record: vector.Record{
				ID:   p.GetId().GetUuid(),
				Role: rbac.Role(payload[payloadRole].GetStringValue()),
				Payload: vector.Payload{
					Source:     payload[payloadSource].GetStringValue(),
					Section:    payload[payloadSection].GetStringValue(),
					Text:       payload[payloadText].GetStringValue(),
					ChunkIndex: int(payload[payloadChunkIndex].GetIntegerValue()),
				},
			},
			Score: p.GetScore(),
		})
	}

	// Qdrant orders by score; re-sort only to pin the equal-score
	// tie-break to ascending chunk id.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	return results, nil
}

// Stats counts records in total and per role via filtered count queries.
func (d *Driver) Stats(ctx context.Context) (*vector.Stats, error) {
	exists, err := d.client.CollectionExists(ctx, d.collection)
	if err != nil {
		return nil, fmt.Errorf("checking collection: %w", err)
	}
	if !exists {
		return nil, vector.ErrNotInitialized
	}

	info, err := d.client.GetCollectionInfo(ctx, d.collection)
	if err != nil {
		return nil, fmt.Errorf("inspecting collection: %w", err)
	}

	perRole := make(map[rbac.Role]int, len(rbac.DocumentRoles))
	total := 0
	for _, role := range rbac.DocumentRoles {
		count, err := d.client.Count(ctx, &qdrant.CountPoints{
			CollectionName: d.collection,
			Exact:          qdrant.PtrOf(true),
			Filter: &qdrant.Filter{
				Must: []*qdrant.Condition{qdrant.NewMatch(payloadRole, string(role))},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("counting role %s: %w", role, err)
		}
		if count > 0 {
			perRole[role] = int(count)
		}
		total += int(count)
	}

	return &vector.Stats{
		Total:      total,
		PerRole:    perRole,
		Dimensions: int(info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()),
		Collection: d.collection,
	}, nil
}

// Clear deletes every point but keeps the collection and its
// dimensionality, so searches return empty until the next indexing run.
func (d *Driver) Clear(ctx context.Context) error {
	_, err := d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collection,
		Points:         qdrant.NewPointsSelectorFilter(&qdrant.Filter{}),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("clearing collection: %w", err)
	}

	d.logger.Info("cleared collection", zap.String("collection", d.collection))
	return nil
}

// Close releases the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

var _ vector.Driver = (*Driver)(nil)
