// Package store persists the analysis domain to MongoDB and reads
// article embeddings from Milvus.
package store

import (
	"context"
	"time"

	"github.com/kart-io/newsloom/internal/model"
)

// Factory defines the factory interface for creating stores.
type Factory interface {
	Workspaces() WorkspaceStore
	Articles() ArticleStore
	Sessions() SessionStore
	Clusters() ClusterStore
	Starters() StartersStore
	Tasks() TaskStore

	// EnsureIndexes creates the MongoDB indexes required by the pipeline.
	EnsureIndexes(ctx context.Context) error

	Close() error
}

// WorkspaceStore defines the workspace storage interface.
type WorkspaceStore interface {
	Create(ctx context.Context, workspace *model.Workspace) error
	Update(ctx context.Context, workspace *model.Workspace) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*model.Workspace, error)
	List(ctx context.Context, offset, limit int) (int64, []*model.Workspace, error)
}

// ArticleStore defines the article storage interface.
type ArticleStore interface {
	Get(ctx context.Context, id string) (*model.Article, error)
	ListByIDs(ctx context.Context, ids []string) ([]*model.Article, error)

	// ListIndexed 返回时间窗口内已建向量索引的文章。
	ListIndexed(ctx context.Context, workspaceID string, start, end time.Time) ([]*model.Article, error)
}

// SessionStore defines the clustering session storage interface.
type SessionStore interface {
	Create(ctx context.Context, session *model.ClusteringSession) error
	Get(ctx context.Context, id string) (*model.ClusteringSession, error)
	ListByWorkspace(ctx context.Context, workspaceID string, offset, limit int) (int64, []*model.ClusteringSession, error)

	// HasRunning 查询工作区是否存在 running 状态的会话。
	HasRunning(ctx context.Context, workspaceID string) (bool, error)

	// Claim 原子地把 pending 会话置为 running。
	// 返回 false 表示会话已不处于 pending 状态。
	Claim(ctx context.Context, id string) (bool, error)

	// UpdateMetrics 更新 running 会话的指标。
	UpdateMetrics(ctx context.Context, id string, metrics model.SessionMetrics) error

	// SetSummary 写入 running 会话的总结和 starters 引用。
	SetSummary(ctx context.Context, id, summary, startersID string) error

	// Finish 把 running 会话置为终态。终态会话不再接受任何写入。
	Finish(ctx context.Context, id string, status model.SessionStatus, reason string) error
}

// ClusterStore defines the cluster storage interface.
type ClusterStore interface {
	InsertMany(ctx context.Context, clusters []*model.Cluster) error
	Get(ctx context.Context, id string) (*model.Cluster, error)
	ListBySession(ctx context.Context, sessionID string) ([]*model.Cluster, error)
	SetOverview(ctx context.Context, id string, overview *model.ClusterOverview, firstImage string) error
	SetEvaluation(ctx context.Context, id string, evaluation *model.ClusterEvaluation) error

	// UpdateMembers 替换簇的成员列表（文章过滤后收缩）。
	UpdateMembers(ctx context.Context, id string, articles []string) error
}

// StartersStore defines the conversation starters storage interface.
type StartersStore interface {
	Create(ctx context.Context, starters *model.Starters) error
	Get(ctx context.Context, id string) (*model.Starters, error)
	GetBySession(ctx context.Context, sessionID string) (*model.Starters, error)
}

// TaskStore defines the analysis task storage interface.
type TaskStore interface {
	Create(ctx context.Context, task *model.AnalysisTask) error
	Get(ctx context.Context, id string) (*model.AnalysisTask, error)
	List(ctx context.Context, workspaceID string, offset, limit int) (int64, []*model.AnalysisTask, error)

	// ClaimPending 原子地认领最早的 pending 任务（pending → running）。
	// 没有待处理任务时返回 nil。
	ClaimPending(ctx context.Context) (*model.AnalysisTask, error)

	MarkCompleted(ctx context.Context, id, sessionID string) error
	MarkFailed(ctx context.Context, id, reason string) error
}

// VectorRepository fetches article embeddings from the vector store.
// Namespace is the workspace id.
type VectorRepository interface {
	// Fetch 按 id 批量取回嵌入。缺失的 id 在 missing 中返回；
	// err 仅在后端调用失败时非空。
	Fetch(ctx context.Context, namespace string, ids []string) (embeddings []model.ArticleEmbedding, missing []string, err error)
}
