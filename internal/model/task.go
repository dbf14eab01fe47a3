package model

import (
	"time"
)

// TaskStatus is the lifecycle state of an analysis task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// AnalysisTask is the external trigger for the orchestrator. The watcher
// claims pending tasks atomically (pending → running) and drives one
// clustering session per task.
type AnalysisTask struct {
	ID          string     `bson:"_id" json:"id"`
	WorkspaceID string     `bson:"workspace_id" json:"workspace_id"`
	Status      TaskStatus `bson:"status" json:"status"`
	DataStart   time.Time  `bson:"data_start" json:"data_start"`
	DataEnd     time.Time  `bson:"data_end" json:"data_end"`
	SessionID   string     `bson:"session_id,omitempty" json:"session_id,omitempty"`
	Error       string     `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// CollectionName specifies the MongoDB collection for AnalysisTask.
func (AnalysisTask) CollectionName() string {
	return "analysis_tasks"
}
