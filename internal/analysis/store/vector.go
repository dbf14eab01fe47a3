package store

import (
	"context"

	"github.com/kart-io/newsloom/internal/model"
	"github.com/kart-io/newsloom/pkg/component/milvus"
	errs "github.com/kart-io/newsloom/pkg/utils/errors"
)

// milvusRepository implements VectorRepository over a Milvus collection
// partitioned by workspace.
type milvusRepository struct {
	client     *milvus.Client
	collection string
}

// NewMilvusRepository creates a VectorRepository over the given collection.
func NewMilvusRepository(client *milvus.Client, collection string) VectorRepository {
	return &milvusRepository{
		client:     client,
		collection: collection,
	}
}

// Fetch 按 id 批量取回嵌入。返回顺序与请求 id 顺序一致（缺失项跳过）。
func (r *milvusRepository) Fetch(ctx context.Context, namespace string, ids []string) ([]model.ArticleEmbedding, []string, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}

	// 去重，保留首次出现的顺序
	seen := make(map[string]bool, len(ids))
	distinct := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}

	vectors, err := r.client.FetchByIDs(ctx, r.collection, namespace, distinct)
	if err != nil {
		return nil, nil, errs.ErrVectorFetch.WithCause(err)
	}

	embeddings := make([]model.ArticleEmbedding, 0, len(vectors))
	var missing []string
	for _, id := range distinct {
		vec, ok := vectors[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		embeddings = append(embeddings, model.ArticleEmbedding{ID: id, Embedding: vec})
	}

	return embeddings, missing, nil
}
