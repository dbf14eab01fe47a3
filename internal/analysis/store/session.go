package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kart-io/newsloom/internal/model"
	errs "github.com/kart-io/newsloom/pkg/utils/errors"
)

type sessions struct {
	coll *mongo.Collection
}

// Create creates a new clustering session.
func (s *sessions) Create(ctx context.Context, session *model.ClusteringSession) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	if _, err := s.coll.InsertOne(ctx, session); err != nil {
		return errs.ErrDatabase.WithCause(err)
	}
	return nil
}

// Get retrieves a session by id.
func (s *sessions) Get(ctx context.Context, id string) (*model.ClusteringSession, error) {
	var session model.ClusteringSession
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.ErrSessionNotFound
		}
		return nil, errs.ErrDatabase.WithCause(err)
	}
	return &session, nil
}

// ListByWorkspace lists sessions for a workspace, newest first.
func (s *sessions) ListByWorkspace(ctx context.Context, workspaceID string, offset, limit int) (int64, []*model.ClusteringSession, error) {
	filter := bson.M{"workspace_id": workspaceID}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, nil, errs.ErrDatabase.WithCause(err)
	}

	cursor, err := s.coll.Find(ctx, filter, findPage(offset, limit, bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return 0, nil, errs.ErrDatabase.WithCause(err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var list []*model.ClusteringSession
	if err := cursor.All(ctx, &list); err != nil {
		return 0, nil, errs.ErrDatabase.WithCause(err)
	}
	return total, list, nil
}

// HasRunning 查询工作区是否存在 running 状态的会话。
func (s *sessions) HasRunning(ctx context.Context, workspaceID string) (bool, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{
		"workspace_id": workspaceID,
		"status":       model.SessionRunning,
	})
	if err != nil {
		return false, errs.ErrDatabase.WithCause(err)
	}
	return count > 0, nil
}

// Claim 原子地把 pending 会话置为 running。
func (s *sessions) Claim(ctx context.Context, id string) (bool, error) {
	result, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": model.SessionPending},
		bson.M{"$set": bson.M{"status": model.SessionRunning}},
	)
	if err != nil {
		return false, errs.ErrDatabase.WithCause(err)
	}
	return result.ModifiedCount == 1, nil
}

// UpdateMetrics 更新 running 会话的指标。
func (s *sessions) UpdateMetrics(ctx context.Context, id string, metrics model.SessionMetrics) error {
	return s.updateRunning(ctx, id, bson.M{"metrics": metrics})
}

// SetSummary 写入 running 会话的总结和 starters 引用。
func (s *sessions) SetSummary(ctx context.Context, id, summary, startersID string) error {
	set := bson.M{"summary": summary}
	if startersID != "" {
		set["starters_id"] = startersID
	}
	return s.updateRunning(ctx, id, set)
}

// Finish 把 running 会话置为终态。
func (s *sessions) Finish(ctx context.Context, id string, status model.SessionStatus, reason string) error {
	if !status.Terminal() {
		return errs.ErrInternal.WithMessagef("finish with non-terminal status %s", status)
	}

	now := time.Now().UTC()
	set := bson.M{
		"status":       status,
		"completed_at": now,
	}
	if reason != "" {
		set["failure_reason"] = reason
	}

	result, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": model.SessionRunning},
		bson.M{"$set": set},
	)
	if err != nil {
		return errs.ErrDatabase.WithCause(err)
	}
	if result.MatchedCount == 0 {
		return errs.ErrSessionTerminal
	}
	return nil
}

// updateRunning 仅在会话仍为 running 时应用 $set，终态会话拒绝写入。
func (s *sessions) updateRunning(ctx context.Context, id string, set bson.M) error {
	result, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": model.SessionRunning},
		bson.M{"$set": set},
	)
	if err != nil {
		return errs.ErrDatabase.WithCause(err)
	}
	if result.MatchedCount == 0 {
		return errs.ErrSessionTerminal
	}
	return nil
}
