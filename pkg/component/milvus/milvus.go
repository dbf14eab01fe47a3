// Package milvus wraps the Milvus SDK for article embedding storage.
//
// Embeddings are keyed by article id (VarChar primary key) and scoped to
// one partition per workspace, which keeps cross-workspace reads impossible
// at the storage layer.
package milvus

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/kart-io/newsloom/pkg/component/storage"
	milvusopts "github.com/kart-io/newsloom/pkg/options/milvus"
)

// fetchBatchSize 按 id 批量查询时的单批上限。
const fetchBatchSize = 1000

// Client wraps the Milvus SDK client.
type Client struct {
	client *milvusclient.Client
	opts   *milvusopts.Options
	// pingCollection 用于 Ping 的探测集合
	pingCollection string
}

var _ storage.Client = (*Client)(nil)

// New creates a new Milvus client.
func New(opts *milvusopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("milvus options is nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DBName:   opts.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}

	return &Client{
		client: c,
		opts:   opts,
	}, nil
}

// Name returns the storage type identifier.
func (c *Client) Name() string {
	return "milvus"
}

// Ping verifies connectivity with a lightweight collection existence check.
func (c *Client) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("milvus client is nil")
	}
	coll := c.pingCollection
	if coll == "" {
		coll = "articles"
	}
	_, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(coll))
	return err
}

// Health returns a HealthChecker for this client.
func (c *Client) Health() storage.HealthChecker {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
		defer cancel()
		return c.Ping(ctx)
	}
}

// Close closes the Milvus client connection.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
	defer cancel()
	return c.client.Close(ctx)
}

// RawClient returns the underlying Milvus client.
func (c *Client) RawClient() *milvusclient.Client {
	return c.client
}

// EnsureCollection creates the embedding collection if it does not exist.
// Schema: id VarChar primary key, embedding FloatVector of the given
// dimension. The collection is indexed (IVF_FLAT, L2) and loaded.
func (c *Client) EnsureCollection(ctx context.Context, name string, dimension int) error {
	c.pingCollection = name

	exists, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	collSchema := entity.NewSchema().
		WithName(name).
		WithDescription("article embeddings, one partition per workspace")

	collSchema.WithField(
		entity.NewField().
			WithName("id").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(64).
			WithIsPrimaryKey(true),
	)
	collSchema.WithField(
		entity.NewField().
			WithName("embedding").
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(dimension)),
	)

	if err := c.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(name, collSchema)); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx := index.NewIvfFlatIndex(entity.L2, 128)
	createIdxTask, err := c.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(name, "embedding", idx))
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := createIdxTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for index creation: %w", err)
	}

	loadTask, err := c.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for collection loading: %w", err)
	}

	return nil
}

// EnsurePartition creates the workspace partition if it does not exist.
func (c *Client) EnsurePartition(ctx context.Context, collection, partition string) error {
	exists, err := c.client.HasPartition(ctx, milvusclient.NewHasPartitionOption(collection, partition))
	if err != nil {
		return fmt.Errorf("failed to check partition existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := c.client.CreatePartition(ctx, milvusclient.NewCreatePartitionOption(collection, partition)); err != nil {
		return fmt.Errorf("failed to create partition: %w", err)
	}
	return nil
}

// Embedding pairs a vector with its article id.
type Embedding struct {
	ID     string
	Vector []float32
}

// Upsert writes embeddings into the workspace partition.
func (c *Client) Upsert(ctx context.Context, collection, partition string, embeddings []Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	ids := make([]string, len(embeddings))
	vectors := make([][]float32, len(embeddings))
	for i, e := range embeddings {
		ids[i] = e.ID
		vectors[i] = e.Vector
	}

	columns := []column.Column{
		column.NewColumnVarChar("id", ids),
		column.NewColumnFloatVector("embedding", len(vectors[0]), vectors),
	}

	opt := milvusclient.NewColumnBasedInsertOption(collection, columns...)
	if partition != "" {
		opt = opt.WithPartition(partition)
	}
	if _, err := c.client.Upsert(ctx, opt); err != nil {
		return fmt.Errorf("failed to upsert embeddings: %w", err)
	}
	return nil
}

// FetchByIDs fetches embeddings for the given article ids from the
// workspace partition. Missing ids are silently absent from the result.
// Queries run in batches to keep filter expressions bounded.
func (c *Client) FetchByIDs(ctx context.Context, collection, partition string, ids []string) (map[string][]float32, error) {
	result := make(map[string][]float32, len(ids))

	for start := 0; start < len(ids); start += fetchBatchSize {
		end := start + fetchBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		opt := milvusclient.NewQueryOption(collection).
			WithFilter(idInExpr(ids[start:end])).
			WithOutputFields("id", "embedding")
		if partition != "" {
			opt = opt.WithPartitions(partition)
		}

		rs, err := c.client.Query(ctx, opt)
		if err != nil {
			return nil, fmt.Errorf("failed to query embeddings: %w", err)
		}

		var idCol *column.ColumnVarChar
		var vecCol *column.ColumnFloatVector
		for _, field := range rs.Fields {
			switch col := field.(type) {
			case *column.ColumnVarChar:
				if col.Name() == "id" {
					idCol = col
				}
			case *column.ColumnFloatVector:
				if col.Name() == "embedding" {
					vecCol = col
				}
			}
		}
		if idCol == nil || vecCol == nil {
			continue
		}

		idData := idCol.Data()
		vecData := vecCol.Data()
		for i := range idData {
			if i < len(vecData) {
				result[idData[i]] = vecData[i]
			}
		}
	}

	return result, nil
}

// DeleteByIDs deletes embeddings by article ids from the workspace partition.
func (c *Client) DeleteByIDs(ctx context.Context, collection, partition string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	opt := milvusclient.NewDeleteOption(collection).WithStringIDs("id", ids)
	if partition != "" {
		opt = opt.WithPartition(partition)
	}
	if _, err := c.client.Delete(ctx, opt); err != nil {
		return fmt.Errorf("failed to delete by ids: %w", err)
	}
	return nil
}

// GetCollectionStats returns the number of entities in a collection.
func (c *Client) GetCollectionStats(ctx context.Context, collection string) (int64, error) {
	stats, err := c.client.GetCollectionStats(ctx, milvusclient.NewGetCollectionStatsOption(collection))
	if err != nil {
		return 0, fmt.Errorf("failed to get collection stats: %w", err)
	}

	if val, ok := stats["row_count"]; ok {
		return strconv.ParseInt(val, 10, 64)
	}
	return 0, nil
}

// idInExpr builds a Milvus filter expression matching the given ids.
func idInExpr(ids []string) string {
	var sb strings.Builder
	sb.WriteString(`id in [`)
	for i, id := range ids {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Quote(id))
	}
	sb.WriteString(`]`)
	return sb.String()
}
