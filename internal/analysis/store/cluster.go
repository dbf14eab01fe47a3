package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kart-io/newsloom/internal/model"
	errs "github.com/kart-io/newsloom/pkg/utils/errors"
)

type clusters struct {
	coll *mongo.Collection
}

// InsertMany persists cluster skeletons in discovery order.
func (s *clusters) InsertMany(ctx context.Context, list []*model.Cluster) error {
	if len(list) == 0 {
		return nil
	}

	docs := make([]interface{}, len(list))
	for i, c := range list {
		docs[i] = c
	}

	// 保序插入，簇 id 顺序即发现顺序
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return errs.ErrDatabase.WithCause(err)
	}
	return nil
}

// Get retrieves a cluster by id.
func (s *clusters) Get(ctx context.Context, id string) (*model.Cluster, error) {
	var cluster model.Cluster
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&cluster)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.ErrClusterNotFound
		}
		return nil, errs.ErrDatabase.WithCause(err)
	}
	return &cluster, nil
}

// ListBySession lists a session's clusters ordered by id (discovery order,
// ids are monotonic ULIDs).
func (s *clusters) ListBySession(ctx context.Context, sessionID string) ([]*model.Cluster, error) {
	cursor, err := s.coll.Find(ctx,
		bson.M{"session_id": sessionID},
		findPage(0, 0, bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, errs.ErrDatabase.WithCause(err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var list []*model.Cluster
	if err := cursor.All(ctx, &list); err != nil {
		return nil, errs.ErrDatabase.WithCause(err)
	}
	return list, nil
}

// SetOverview stores the generated overview and the resolved first image.
func (s *clusters) SetOverview(ctx context.Context, id string, overview *model.ClusterOverview, firstImage string) error {
	set := bson.M{"overview": overview}
	if firstImage != "" {
		set["first_image"] = firstImage
	}
	return s.update(ctx, id, set)
}

// SetEvaluation stores the include/exclude decision.
func (s *clusters) SetEvaluation(ctx context.Context, id string, evaluation *model.ClusterEvaluation) error {
	return s.update(ctx, id, bson.M{"evaluation": evaluation})
}

// UpdateMembers 替换簇的成员列表并同步计数。
func (s *clusters) UpdateMembers(ctx context.Context, id string, articleIDs []string) error {
	return s.update(ctx, id, bson.M{
		"articles":       articleIDs,
		"articles_count": len(articleIDs),
	})
}

func (s *clusters) update(ctx context.Context, id string, set bson.M) error {
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return errs.ErrDatabase.WithCause(err)
	}
	if result.MatchedCount == 0 {
		return errs.ErrClusterNotFound
	}
	return nil
}
