package biz

import (
	"context"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/newsloom/internal/analysis/store"
)

// Watcher 轮询 analysis_tasks 集合，认领 pending 任务并驱动编排器。
// 多实例部署时 ClaimPending 的原子更新保证任务只被执行一次。
type Watcher struct {
	tasks        store.TaskStore
	orchestrator *Orchestrator
	interval     time.Duration
}

// NewWatcher creates a Watcher polling at the given interval.
func NewWatcher(tasks store.TaskStore, orchestrator *Orchestrator, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Watcher{
		tasks:        tasks,
		orchestrator: orchestrator,
		interval:     interval,
	}
}

// Run 阻塞运行直到 ctx 取消。每个周期内连续认领任务直到队列为空。
func (w *Watcher) Run(ctx context.Context) {
	logger.Infow("task watcher started", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.drain(ctx)
		select {
		case <-ctx.Done():
			logger.Infow("task watcher stopped")
			return
		case <-ticker.C:
		}
	}
}

// drain 连续认领并执行 pending 任务直到队列为空。
func (w *Watcher) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		task, err := w.tasks.ClaimPending(ctx)
		if err != nil {
			logger.Errorw("failed to claim pending task", "error", err.Error())
			return
		}
		if task == nil {
			return
		}
		w.process(ctx, task.ID, task.WorkspaceID, task.DataStart, task.DataEnd)
	}
}

func (w *Watcher) process(ctx context.Context, taskID, workspaceID string, dataStart, dataEnd time.Time) {
	logger.Infow("processing analysis task",
		"task_id", taskID,
		"workspace_id", workspaceID,
	)

	sessionID, err := w.orchestrator.Run(ctx, workspaceID, dataStart, dataEnd)
	if err != nil {
		logger.Errorw("analysis task failed",
			"task_id", taskID,
			"workspace_id", workspaceID,
			"session_id", sessionID,
			"error", err.Error(),
		)
		if markErr := w.tasks.MarkFailed(ctx, taskID, err.Error()); markErr != nil {
			logger.Errorw("failed to mark task failed", "task_id", taskID, "error", markErr.Error())
		}
		return
	}

	if err := w.tasks.MarkCompleted(ctx, taskID, sessionID); err != nil {
		logger.Errorw("failed to mark task completed", "task_id", taskID, "error", err.Error())
		return
	}
	logger.Infow("analysis task completed", "task_id", taskID, "session_id", sessionID)
}
