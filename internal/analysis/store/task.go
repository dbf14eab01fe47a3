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

type tasks struct {
	coll *mongo.Collection
}

// Create creates a new analysis task.
func (s *tasks) Create(ctx context.Context, task *model.AnalysisTask) error {
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, task); err != nil {
		return errs.ErrDatabase.WithCause(err)
	}
	return nil
}

// Get retrieves a task by id.
func (s *tasks) Get(ctx context.Context, id string) (*model.AnalysisTask, error) {
	var task model.AnalysisTask
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.ErrTaskNotFound
		}
		return nil, errs.ErrDatabase.WithCause(err)
	}
	return &task, nil
}

// List lists tasks, optionally filtered by workspace, newest first.
func (s *tasks) List(ctx context.Context, workspaceID string, offset, limit int) (int64, []*model.AnalysisTask, error) {
	filter := bson.M{}
	if workspaceID != "" {
		filter["workspace_id"] = workspaceID
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, nil, errs.ErrDatabase.WithCause(err)
	}

	cursor, err := s.coll.Find(ctx, filter, findPage(offset, limit, bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return 0, nil, errs.ErrDatabase.WithCause(err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var list []*model.AnalysisTask
	if err := cursor.All(ctx, &list); err != nil {
		return 0, nil, errs.ErrDatabase.WithCause(err)
	}
	return total, list, nil
}

// ClaimPending 原子地认领最早的 pending 任务。
// FindOneAndUpdate 保证同一任务不会被两个 watcher 同时认领。
func (s *tasks) ClaimPending(ctx context.Context) (*model.AnalysisTask, error) {
	opts := mongoopts.FindOneAndUpdate().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetReturnDocument(mongoopts.After)

	var task model.AnalysisTask
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"status": model.TaskPending},
		bson.M{"$set": bson.M{
			"status":     model.TaskRunning,
			"updated_at": time.Now().UTC(),
		}},
		opts,
	).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, errs.ErrDatabase.WithCause(err)
	}
	return &task, nil
}

// MarkCompleted 任务完成，记录产出的会话 id。
func (s *tasks) MarkCompleted(ctx context.Context, id, sessionID string) error {
	return s.update(ctx, id, bson.M{
		"status":     model.TaskCompleted,
		"session_id": sessionID,
	})
}

// MarkFailed 任务失败，记录原因。
func (s *tasks) MarkFailed(ctx context.Context, id, reason string) error {
	return s.update(ctx, id, bson.M{
		"status": model.TaskFailed,
		"error":  reason,
	})
}

func (s *tasks) update(ctx context.Context, id string, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return errs.ErrDatabase.WithCause(err)
	}
	if result.MatchedCount == 0 {
		return errs.ErrTaskNotFound
	}
	return nil
}
