package model

import (
	"time"
)

// Bounds for the number of conversation starters per session.
const (
	MinStarters = 3
	MaxStarters = 6
)

// Starters holds the short user-facing conversation prompts generated
// from a session's surviving clusters. Written exactly once per
// successful session.
type Starters struct {
	ID          string    `bson:"_id" json:"id"`
	WorkspaceID string    `bson:"workspace_id" json:"workspace_id"`
	SessionID   string    `bson:"session_id" json:"session_id"`
	Starters    []string  `bson:"starters" json:"starters"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// CollectionName specifies the MongoDB collection for Starters.
func (Starters) CollectionName() string {
	return "starters"
}
