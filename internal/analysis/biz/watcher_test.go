package biz

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kart-io/newsloom/internal/model"
)

func TestWatcherProcessesPendingTask(t *testing.T) {
	factory := newMemFactory()
	vectors := &fakeVectors{vectors: make(map[string][]float32)}
	workspace := testWorkspace()
	factory.state.workspaces[workspace.ID] = workspace

	seedBlob(factory, vectors, workspace.ID, "aaa", []float32{0, 0, 0}, 6)
	seedBlob(factory, vectors, workspace.ID, "bbb", []float32{50, 0, 0}, 5)

	o := newTestOrchestrator(factory, vectors, &fakeGateway{reply: happyReply}, time.Minute)
	w := NewWatcher(factory.Tasks(), o, time.Second)

	task := &model.AnalysisTask{
		ID:          "task-1",
		WorkspaceID: workspace.ID,
		Status:      model.TaskPending,
		DataStart:   testWindow.start,
		DataEnd:     testWindow.end,
		CreatedAt:   time.Now().UTC(),
	}
	if err := factory.Tasks().Create(context.Background(), task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	w.drain(context.Background())

	got, err := factory.Tasks().Get(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.TaskCompleted {
		t.Fatalf("task status = %s, want completed", got.Status)
	}
	if got.SessionID == "" {
		t.Error("completed task should reference its session")
	}
	if session := factory.state.sessions[got.SessionID]; session == nil || session.Status != model.SessionCompleted {
		t.Errorf("session missing or not completed")
	}
}

func TestWatcherMarksTaskFailed(t *testing.T) {
	factory := newMemFactory()
	vectors := &fakeVectors{vectors: make(map[string][]float32)}

	o := newTestOrchestrator(factory, vectors, &fakeGateway{reply: happyReply}, time.Minute)
	w := NewWatcher(factory.Tasks(), o, time.Second)

	task := &model.AnalysisTask{
		ID:          "task-2",
		WorkspaceID: "no-such-workspace",
		Status:      model.TaskPending,
		DataStart:   testWindow.start,
		DataEnd:     testWindow.end,
		CreatedAt:   time.Now().UTC(),
	}
	if err := factory.Tasks().Create(context.Background(), task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	w.drain(context.Background())

	got, err := factory.Tasks().Get(context.Background(), "task-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.TaskFailed {
		t.Fatalf("task status = %s, want failed", got.Status)
	}
	if got.Error == "" {
		t.Error("failed task should record the error")
	}
}

func TestWatcherDrainsQueue(t *testing.T) {
	factory := newMemFactory()
	vectors := &fakeVectors{vectors: make(map[string][]float32)}
	workspace := testWorkspace()
	factory.state.workspaces[workspace.ID] = workspace

	seedBlob(factory, vectors, workspace.ID, "aaa", []float32{0, 0, 0}, 6)
	seedBlob(factory, vectors, workspace.ID, "bbb", []float32{50, 0, 0}, 5)

	o := newTestOrchestrator(factory, vectors, &fakeGateway{reply: happyReply}, time.Minute)
	w := NewWatcher(factory.Tasks(), o, time.Second)

	for i := 0; i < 3; i++ {
		task := &model.AnalysisTask{
			ID:          fmt.Sprintf("task-%d", i),
			WorkspaceID: workspace.ID,
			Status:      model.TaskPending,
			DataStart:   testWindow.start,
			DataEnd:     testWindow.end,
			CreatedAt:   time.Now().UTC(),
		}
		if err := factory.Tasks().Create(context.Background(), task); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	w.drain(context.Background())

	for i := 0; i < 3; i++ {
		got, err := factory.Tasks().Get(context.Background(), fmt.Sprintf("task-%d", i))
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Status == model.TaskPending || got.Status == model.TaskRunning {
			t.Errorf("task-%d status = %s, want terminal", i, got.Status)
		}
	}
}
