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

type starters struct {
	coll *mongo.Collection
}

// Create persists a starters document. Written once per successful session.
func (s *starters) Create(ctx context.Context, doc *model.Starters) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return errs.ErrDatabase.WithCause(err)
	}
	return nil
}

// Get retrieves a starters document by id.
func (s *starters) Get(ctx context.Context, id string) (*model.Starters, error) {
	var doc model.Starters
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.ErrNotFound.WithMessagef("starters %s not found", id)
		}
		return nil, errs.ErrDatabase.WithCause(err)
	}
	return &doc, nil
}

// GetBySession retrieves the starters generated for a session.
func (s *starters) GetBySession(ctx context.Context, sessionID string) (*model.Starters, error) {
	var doc model.Starters
	err := s.coll.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.ErrNotFound.WithMessagef("no starters for session %s", sessionID)
		}
		return nil, errs.ErrDatabase.WithCause(err)
	}
	return &doc, nil
}
