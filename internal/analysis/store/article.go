package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kart-io/newsloom/internal/model"
	errs "github.com/kart-io/newsloom/pkg/utils/errors"
)

type articles struct {
	coll *mongo.Collection
}

// Get retrieves an article by id.
func (s *articles) Get(ctx context.Context, id string) (*model.Article, error) {
	var article model.Article
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&article)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.ErrNotFound.WithMessagef("article %s not found", id)
		}
		return nil, errs.ErrDatabase.WithCause(err)
	}
	return &article, nil
}

// ListByIDs retrieves articles by id. Missing ids are silently absent.
func (s *articles) ListByIDs(ctx context.Context, ids []string) ([]*model.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errs.ErrDatabase.WithCause(err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var list []*model.Article
	if err := cursor.All(ctx, &list); err != nil {
		return nil, errs.ErrDatabase.WithCause(err)
	}
	return list, nil
}

// ListIndexed 返回时间窗口内已建向量索引的文章，按日期升序。
func (s *articles) ListIndexed(ctx context.Context, workspaceID string, start, end time.Time) ([]*model.Article, error) {
	filter := bson.M{
		"workspace_id":   workspaceID,
		"vector_indexed": true,
		"date": bson.M{
			"$gte": start,
			"$lte": end,
		},
	}

	opts := mongoopts.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errs.ErrDatabase.WithCause(err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var list []*model.Article
	if err := cursor.All(ctx, &list); err != nil {
		return nil, errs.ErrDatabase.WithCause(err)
	}
	return list, nil
}
