package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kart-io/newsloom/internal/model"
	"github.com/kart-io/newsloom/pkg/component/mongodb"
)

// datastore implements Factory backed by MongoDB.
type datastore struct {
	client *mongodb.Client
}

// NewMongoFactory creates a Factory over the given MongoDB client.
func NewMongoFactory(client *mongodb.Client) Factory {
	return &datastore{client: client}
}

func (ds *datastore) Workspaces() WorkspaceStore {
	return &workspaces{coll: ds.client.Collection(model.Workspace{}.CollectionName())}
}

func (ds *datastore) Articles() ArticleStore {
	return &articles{coll: ds.client.Collection(model.Article{}.CollectionName())}
}

func (ds *datastore) Sessions() SessionStore {
	return &sessions{coll: ds.client.Collection(model.ClusteringSession{}.CollectionName())}
}

func (ds *datastore) Clusters() ClusterStore {
	return &clusters{coll: ds.client.Collection(model.Cluster{}.CollectionName())}
}

func (ds *datastore) Starters() StartersStore {
	return &starters{coll: ds.client.Collection(model.Starters{}.CollectionName())}
}

func (ds *datastore) Tasks() TaskStore {
	return &tasks{coll: ds.client.Collection(model.AnalysisTask{}.CollectionName())}
}

func (ds *datastore) Close() error {
	return ds.client.Close()
}

// findPage 构造分页查询选项。limit <= 0 时不限制。
func findPage(offset, limit int, sort bson.D) *mongoopts.FindOptions {
	opts := mongoopts.Find().SetSort(sort)
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

// EnsureIndexes creates the indexes the pipeline depends on. Safe to run
// at every startup; MongoDB treats existing identical indexes as no-ops.
func (ds *datastore) EnsureIndexes(ctx context.Context) error {
	type indexSpec struct {
		collection string
		model      mongo.IndexModel
	}

	specs := []indexSpec{
		{
			collection: model.Article{}.CollectionName(),
			model: mongo.IndexModel{
				Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "date", Value: 1}},
			},
		},
		{
			collection: model.Article{}.CollectionName(),
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "url", Value: 1}},
				Options: mongoopts.Index().SetUnique(true),
			},
		},
		{
			collection: model.Cluster{}.CollectionName(),
			model: mongo.IndexModel{
				Keys: bson.D{{Key: "session_id", Value: 1}},
			},
		},
		{
			collection: model.ClusteringSession{}.CollectionName(),
			model: mongo.IndexModel{
				Keys: bson.D{{Key: "workspace_id", Value: 1}, {Key: "status", Value: 1}},
			},
		},
		{
			collection: model.AnalysisTask{}.CollectionName(),
			model: mongo.IndexModel{
				Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
			},
		},
	}

	for _, spec := range specs {
		if _, err := ds.client.Collection(spec.collection).Indexes().CreateOne(ctx, spec.model); err != nil {
			return fmt.Errorf("create index on %s: %w", spec.collection, err)
		}
	}
	return nil
}
