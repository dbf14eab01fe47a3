package model

import (
	"time"
)

// SessionStatus is the lifecycle state of a clustering session.
type SessionStatus string

const (
	// SessionPending 会话已创建，等待编排器接管。
	SessionPending SessionStatus = "pending"
	// SessionRunning 编排器正在执行分析流水线。
	SessionRunning SessionStatus = "running"
	// SessionCompleted 会话正常结束（可能没有任何簇）。
	SessionCompleted SessionStatus = "completed"
	// SessionFailed 会话因错误终止，原因记录在 FailureReason。
	SessionFailed SessionStatus = "failed"
)

// Terminal reports whether the status is a terminal state. Once a session
// is terminal no further writes are applied to the session document.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionFailed
}

// SessionMetrics carries aggregate counters for one analysis run.
type SessionMetrics struct {
	ArticleCount         int `bson:"n_articles" json:"n_articles"`
	ClusterCount         int `bson:"n_clusters" json:"n_clusters"`
	RetainedClusterCount int `bson:"n_retained_clusters" json:"n_retained_clusters"`
	NoiseCount           int `bson:"noise_count" json:"noise_count"`
}

// ClusteringSession is the artifact of one analysis run over a workspace
// and a time window. Invariant: DataStart < DataEnd. At most one running
// session exists per workspace at a time (enforced by the orchestrator).
type ClusteringSession struct {
	ID            string         `bson:"_id" json:"id"`
	WorkspaceID   string         `bson:"workspace_id" json:"workspace_id"`
	DataStart     time.Time      `bson:"data_start" json:"data_start"`
	DataEnd       time.Time      `bson:"data_end" json:"data_end"`
	Status        SessionStatus  `bson:"status" json:"status"`
	FailureReason string         `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	Summary       string         `bson:"summary,omitempty" json:"summary,omitempty"`
	StartersID    string         `bson:"starters_id,omitempty" json:"starters_id,omitempty"`
	Metrics       SessionMetrics `bson:"metrics" json:"metrics"`
	CreatedAt     time.Time      `bson:"created_at" json:"created_at"`
	CompletedAt   *time.Time     `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// CollectionName specifies the MongoDB collection for ClusteringSession.
func (ClusteringSession) CollectionName() string {
	return "clustering_sessions"
}
