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

type workspaces struct {
	coll *mongo.Collection
}

// Create creates a new workspace.
func (s *workspaces) Create(ctx context.Context, workspace *model.Workspace) error {
	now := time.Now().UTC()
	if workspace.CreatedAt.IsZero() {
		workspace.CreatedAt = now
	}
	workspace.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, workspace); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errs.ErrConflict.WithCause(err)
		}
		return errs.ErrDatabase.WithCause(err)
	}
	return nil
}

// Update updates an existing workspace.
func (s *workspaces) Update(ctx context.Context, workspace *model.Workspace) error {
	workspace.UpdatedAt = time.Now().UTC()

	result, err := s.coll.ReplaceOne(ctx, bson.M{"_id": workspace.ID}, workspace)
	if err != nil {
		return errs.ErrDatabase.WithCause(err)
	}
	if result.MatchedCount == 0 {
		return errs.ErrWorkspaceNotFound
	}
	return nil
}

// Delete deletes a workspace by id.
func (s *workspaces) Delete(ctx context.Context, id string) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errs.ErrDatabase.WithCause(err)
	}
	if result.DeletedCount == 0 {
		return errs.ErrWorkspaceNotFound
	}
	return nil
}

// Get retrieves a workspace by id.
func (s *workspaces) Get(ctx context.Context, id string) (*model.Workspace, error) {
	var workspace model.Workspace
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&workspace)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.ErrWorkspaceNotFound
		}
		return nil, errs.ErrDatabase.WithCause(err)
	}
	return &workspace, nil
}

// List lists workspaces with pagination.
func (s *workspaces) List(ctx context.Context, offset, limit int) (int64, []*model.Workspace, error) {
	total, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, nil, errs.ErrDatabase.WithCause(err)
	}

	cursor, err := s.coll.Find(ctx, bson.M{}, findPage(offset, limit, bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return 0, nil, errs.ErrDatabase.WithCause(err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var list []*model.Workspace
	if err := cursor.All(ctx, &list); err != nil {
		return 0, nil, errs.ErrDatabase.WithCause(err)
	}
	return total, list, nil
}
