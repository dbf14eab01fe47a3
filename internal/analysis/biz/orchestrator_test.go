package biz

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kart-io/newsloom/internal/analysis/store"
	"github.com/kart-io/newsloom/internal/model"
	errs "github.com/kart-io/newsloom/pkg/utils/errors"
)

// ---- in-memory store fakes ----

type memState struct {
	mu         sync.Mutex
	workspaces map[string]*model.Workspace
	articles   []*model.Article
	sessions   map[string]*model.ClusteringSession
	clusters   []*model.Cluster
	starters   []*model.Starters
	tasks      map[string]*model.AnalysisTask
	taskOrder  []string
}

type memFactory struct{ state *memState }

func newMemFactory() *memFactory {
	return &memFactory{state: &memState{
		workspaces: make(map[string]*model.Workspace),
		sessions:   make(map[string]*model.ClusteringSession),
		tasks:      make(map[string]*model.AnalysisTask),
	}}
}

func (f *memFactory) Workspaces() store.WorkspaceStore        { return &memWorkspaces{f.state} }
func (f *memFactory) Articles() store.ArticleStore            { return &memArticles{f.state} }
func (f *memFactory) Sessions() store.SessionStore            { return &memSessions{f.state} }
func (f *memFactory) Clusters() store.ClusterStore            { return &memClusters{f.state} }
func (f *memFactory) Starters() store.StartersStore           { return &memStarters{f.state} }
func (f *memFactory) Tasks() store.TaskStore                  { return &memTasks{f.state} }
func (f *memFactory) EnsureIndexes(_ context.Context) error   { return nil }
func (f *memFactory) Close() error                            { return nil }

type memWorkspaces struct{ s *memState }

func (m *memWorkspaces) Create(_ context.Context, w *model.Workspace) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.workspaces[w.ID] = w
	return nil
}
func (m *memWorkspaces) Update(_ context.Context, w *model.Workspace) error { return nil }
func (m *memWorkspaces) Delete(_ context.Context, id string) error          { return nil }
func (m *memWorkspaces) Get(_ context.Context, id string) (*model.Workspace, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	w, ok := m.s.workspaces[id]
	if !ok {
		return nil, errs.ErrWorkspaceNotFound
	}
	return w, nil
}
func (m *memWorkspaces) List(_ context.Context, _, _ int) (int64, []*model.Workspace, error) {
	return 0, nil, nil
}

type memArticles struct{ s *memState }

func (m *memArticles) Get(_ context.Context, id string) (*model.Article, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, a := range m.s.articles {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, errs.ErrNotFound
}
func (m *memArticles) ListByIDs(_ context.Context, ids []string) ([]*model.Article, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*model.Article
	for _, a := range m.s.articles {
		if want[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}
func (m *memArticles) ListIndexed(_ context.Context, workspaceID string, start, end time.Time) ([]*model.Article, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*model.Article
	for _, a := range m.s.articles {
		if a.WorkspaceID == workspaceID && a.VectorIndexed && !a.Date.Before(start) && !a.Date.After(end) {
			out = append(out, a)
		}
	}
	return out, nil
}

type memSessions struct{ s *memState }

func (m *memSessions) Create(_ context.Context, session *model.ClusteringSession) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.sessions[session.ID] = session
	return nil
}
func (m *memSessions) Get(_ context.Context, id string) (*model.ClusteringSession, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	session, ok := m.s.sessions[id]
	if !ok {
		return nil, errs.ErrSessionNotFound
	}
	return session, nil
}
func (m *memSessions) ListByWorkspace(_ context.Context, _ string, _, _ int) (int64, []*model.ClusteringSession, error) {
	return 0, nil, nil
}
func (m *memSessions) HasRunning(_ context.Context, workspaceID string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, session := range m.s.sessions {
		if session.WorkspaceID == workspaceID && session.Status == model.SessionRunning {
			return true, nil
		}
	}
	return false, nil
}
func (m *memSessions) Claim(_ context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	session, ok := m.s.sessions[id]
	if !ok || session.Status != model.SessionPending {
		return false, nil
	}
	session.Status = model.SessionRunning
	return true, nil
}
func (m *memSessions) UpdateMetrics(_ context.Context, id string, metrics model.SessionMetrics) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	session, ok := m.s.sessions[id]
	if !ok || session.Status != model.SessionRunning {
		return errs.ErrSessionTerminal
	}
	session.Metrics = metrics
	return nil
}
func (m *memSessions) SetSummary(_ context.Context, id, summary, startersID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	session, ok := m.s.sessions[id]
	if !ok || session.Status != model.SessionRunning {
		return errs.ErrSessionTerminal
	}
	session.Summary = summary
	session.StartersID = startersID
	return nil
}
func (m *memSessions) Finish(_ context.Context, id string, status model.SessionStatus, reason string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	session, ok := m.s.sessions[id]
	if !ok || session.Status != model.SessionRunning {
		return errs.ErrSessionTerminal
	}
	now := time.Now().UTC()
	session.Status = status
	session.FailureReason = reason
	session.CompletedAt = &now
	return nil
}

type memClusters struct{ s *memState }

func (m *memClusters) InsertMany(_ context.Context, clusters []*model.Cluster) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, c := range clusters {
		copied := *c
		m.s.clusters = append(m.s.clusters, &copied)
	}
	return nil
}
func (m *memClusters) Get(_ context.Context, id string) (*model.Cluster, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, c := range m.s.clusters {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, errs.ErrClusterNotFound
}
func (m *memClusters) ListBySession(_ context.Context, sessionID string) ([]*model.Cluster, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*model.Cluster
	for _, c := range m.s.clusters {
		if c.SessionID == sessionID {
			out = append(out, c)
		}
	}
	return out, nil
}
func (m *memClusters) SetOverview(_ context.Context, id string, overview *model.ClusterOverview, firstImage string) error {
	return m.mutate(id, func(c *model.Cluster) {
		c.Overview = overview
		c.FirstImage = firstImage
	})
}
func (m *memClusters) SetEvaluation(_ context.Context, id string, evaluation *model.ClusterEvaluation) error {
	return m.mutate(id, func(c *model.Cluster) { c.Evaluation = evaluation })
}
func (m *memClusters) UpdateMembers(_ context.Context, id string, articles []string) error {
	return m.mutate(id, func(c *model.Cluster) {
		c.Articles = articles
		c.ArticleCount = len(articles)
	})
}
func (m *memClusters) mutate(id string, fn func(*model.Cluster)) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, c := range m.s.clusters {
		if c.ID == id {
			fn(c)
			return nil
		}
	}
	return errs.ErrClusterNotFound
}

type memStarters struct{ s *memState }

func (m *memStarters) Create(_ context.Context, starters *model.Starters) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.starters = append(m.s.starters, starters)
	return nil
}
func (m *memStarters) Get(_ context.Context, id string) (*model.Starters, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, st := range m.s.starters {
		if st.ID == id {
			return st, nil
		}
	}
	return nil, errs.ErrNotFound
}
func (m *memStarters) GetBySession(_ context.Context, sessionID string) (*model.Starters, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, st := range m.s.starters {
		if st.SessionID == sessionID {
			return st, nil
		}
	}
	return nil, errs.ErrNotFound
}

type memTasks struct{ s *memState }

func (m *memTasks) Create(_ context.Context, task *model.AnalysisTask) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.tasks[task.ID] = task
	m.s.taskOrder = append(m.s.taskOrder, task.ID)
	return nil
}
func (m *memTasks) Get(_ context.Context, id string) (*model.AnalysisTask, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	task, ok := m.s.tasks[id]
	if !ok {
		return nil, errs.ErrTaskNotFound
	}
	return task, nil
}
func (m *memTasks) List(_ context.Context, _ string, _, _ int) (int64, []*model.AnalysisTask, error) {
	return 0, nil, nil
}
func (m *memTasks) ClaimPending(_ context.Context) (*model.AnalysisTask, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, id := range m.s.taskOrder {
		task := m.s.tasks[id]
		if task.Status == model.TaskPending {
			task.Status = model.TaskRunning
			return task, nil
		}
	}
	return nil, nil
}
func (m *memTasks) MarkCompleted(_ context.Context, id, sessionID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	task, ok := m.s.tasks[id]
	if !ok {
		return errs.ErrTaskNotFound
	}
	task.Status = model.TaskCompleted
	task.SessionID = sessionID
	return nil
}
func (m *memTasks) MarkFailed(_ context.Context, id, reason string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	task, ok := m.s.tasks[id]
	if !ok {
		return errs.ErrTaskNotFound
	}
	task.Status = model.TaskFailed
	task.Error = reason
	return nil
}

// fakeVectors 从内存映射取回嵌入。
type fakeVectors struct {
	vectors map[string][]float32
}

func (v *fakeVectors) Fetch(_ context.Context, _ string, ids []string) ([]model.ArticleEmbedding, []string, error) {
	var embeddings []model.ArticleEmbedding
	var missing []string
	for _, id := range ids {
		vec, ok := v.vectors[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		embeddings = append(embeddings, model.ArticleEmbedding{ID: id, Embedding: vec})
	}
	return embeddings, missing, nil
}

// ---- fixtures ----

var testWindow = struct {
	start time.Time
	end   time.Time
}{
	start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	end:   time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
}

// seedBlob 添加 count 篇已建索引的文章和围绕 base 的嵌入。
func seedBlob(factory *memFactory, vectors *fakeVectors, workspaceID, prefix string, base []float32, count int) {
	for i := 0; i < count; i++ {
		id := fmt.Sprintf("%s-%02d", prefix, i)
		factory.state.articles = append(factory.state.articles, &model.Article{
			ID:            id,
			WorkspaceID:   workspaceID,
			Title:         "title " + id,
			Body:          "body " + id,
			URL:           "https://example.com/" + id,
			Date:          testWindow.start.Add(time.Duration(i) * time.Hour),
			Source:        "example.com",
			VectorIndexed: true,
		})
		vec := make([]float32, len(base))
		for d := range base {
			vec[d] = base[d] + float32(i)*0.01
		}
		vectors.vectors[id] = vec
	}
}

func happyReply(name string, vars map[string]string) (string, error) {
	switch name {
	case "articles-overview":
		return `{"title":"theme","summary":"what happened"}`, nil
	case "cluster-eval":
		return `{"decision":"include","justification":"relevant"}`, nil
	case "article-eval":
		return `{"evaluations":[]}`, nil
	case "big-summary":
		return `{"summary":"the period in review"}`, nil
	case "conversation-starters":
		return `{"starters":["q1","q2","q3"]}`, nil
	}
	return "", fmt.Errorf("unexpected prompt %s", name)
}

func newTestOrchestrator(factory *memFactory, vectors *fakeVectors, gw LLMGateway, maxRuntime time.Duration) *Orchestrator {
	return NewOrchestrator(
		factory,
		vectors,
		NewClusterer(&ClustererConfig{MinClusterSize: 3, MinSamples: 1, MinArticles: 10}),
		NewOverviewGenerator(gw, nil, &OverviewConfig{MaxArticles: 30, IncludeContents: false}),
		NewClusterEvaluator(gw),
		NewArticleFilter(gw, nil, &ArticleFilterConfig{BatchSize: 10, MinClusterSize: 3}),
		NewSessionSummarizer(gw, nil),
		nil,
		&OrchestratorConfig{MinArticles: 10, MaxRuntime: maxRuntime},
	)
}

// ---- scenarios ----

func TestOrchestratorHappyPath(t *testing.T) {
	factory := newMemFactory()
	vectors := &fakeVectors{vectors: make(map[string][]float32)}
	workspace := testWorkspace()
	factory.state.workspaces[workspace.ID] = workspace

	seedBlob(factory, vectors, workspace.ID, "aaa", []float32{0, 0, 0}, 6)
	seedBlob(factory, vectors, workspace.ID, "bbb", []float32{50, 0, 0}, 5)
	seedBlob(factory, vectors, workspace.ID, "ccc", []float32{0, 50, 0}, 4)

	gw := &fakeGateway{reply: happyReply}
	o := newTestOrchestrator(factory, vectors, gw, time.Minute)

	sessionID, err := o.Run(context.Background(), workspace.ID, testWindow.start, testWindow.end)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	session := factory.state.sessions[sessionID]
	if session.Status != model.SessionCompleted {
		t.Fatalf("status = %s, want completed", session.Status)
	}
	if session.Metrics.ArticleCount != 15 || session.Metrics.ClusterCount != 3 {
		t.Errorf("metrics = %+v", session.Metrics)
	}
	if session.Metrics.RetainedClusterCount != 3 {
		t.Errorf("retained = %d, want 3", session.Metrics.RetainedClusterCount)
	}
	if session.Summary == "" || session.StartersID == "" {
		t.Errorf("summary/starters missing: %+v", session)
	}

	for _, c := range factory.state.clusters {
		if c.Overview == nil || c.Evaluation == nil {
			t.Errorf("cluster %s missing overview or evaluation", c.ID)
		}
	}
	if len(factory.state.starters) != 1 {
		t.Fatalf("starters docs = %d, want 1", len(factory.state.starters))
	}
	if n := len(factory.state.starters[0].Starters); n < model.MinStarters || n > model.MaxStarters {
		t.Errorf("starters count = %d", n)
	}
}

func TestOrchestratorBelowThreshold(t *testing.T) {
	factory := newMemFactory()
	vectors := &fakeVectors{vectors: make(map[string][]float32)}
	workspace := testWorkspace()
	factory.state.workspaces[workspace.ID] = workspace
	seedBlob(factory, vectors, workspace.ID, "aaa", []float32{0, 0, 0}, 9)

	o := newTestOrchestrator(factory, vectors, &fakeGateway{reply: happyReply}, time.Minute)

	sessionID, err := o.Run(context.Background(), workspace.ID, testWindow.start, testWindow.end)
	if !errs.IsCode(err, errs.ErrInsufficientArticles.Code) {
		t.Fatalf("err = %v, want ErrInsufficientArticles", err)
	}

	session := factory.state.sessions[sessionID]
	if session.Status != model.SessionFailed {
		t.Fatalf("status = %s, want failed", session.Status)
	}
	if session.FailureReason != ReasonInsufficientData {
		t.Errorf("reason = %q, want %q", session.FailureReason, ReasonInsufficientData)
	}
	if len(factory.state.clusters) != 0 {
		t.Errorf("clusters persisted = %d, want 0", len(factory.state.clusters))
	}
}

func TestOrchestratorNoiseOnly(t *testing.T) {
	factory := newMemFactory()
	vectors := &fakeVectors{vectors: make(map[string][]float32)}
	workspace := testWorkspace()
	factory.state.workspaces[workspace.ID] = workspace

	// 两两等距的孤立向量，没有任何簇
	dim := 12
	for i := 0; i < dim; i++ {
		id := fmt.Sprintf("iso-%02d", i)
		factory.state.articles = append(factory.state.articles, &model.Article{
			ID:            id,
			WorkspaceID:   workspace.ID,
			Title:         "title " + id,
			Date:          testWindow.start.Add(time.Duration(i) * time.Hour),
			VectorIndexed: true,
		})
		vec := make([]float32, dim)
		vec[i] = 100
		vectors.vectors[id] = vec
	}

	gw := &fakeGateway{reply: happyReply}
	o := newTestOrchestrator(factory, vectors, gw, time.Minute)

	sessionID, err := o.Run(context.Background(), workspace.ID, testWindow.start, testWindow.end)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	session := factory.state.sessions[sessionID]
	if session.Status != model.SessionCompleted {
		t.Fatalf("status = %s, want completed", session.Status)
	}
	if session.Metrics.ClusterCount != 0 || session.Metrics.NoiseCount != dim {
		t.Errorf("metrics = %+v", session.Metrics)
	}
	if session.Summary != "" || len(factory.state.starters) != 0 {
		t.Errorf("noise-only session must not have summary or starters")
	}
	if len(gw.calls) != 0 {
		t.Errorf("no LLM calls expected, got %d", len(gw.calls))
	}
}

func TestOrchestratorPartialLLMFailure(t *testing.T) {
	factory := newMemFactory()
	vectors := &fakeVectors{vectors: make(map[string][]float32)}
	workspace := testWorkspace()
	factory.state.workspaces[workspace.ID] = workspace

	seedBlob(factory, vectors, workspace.ID, "aaa", []float32{0, 0, 0}, 6)
	seedBlob(factory, vectors, workspace.ID, "bad", []float32{50, 0, 0}, 5)
	seedBlob(factory, vectors, workspace.ID, "ccc", []float32{0, 50, 0}, 4)

	gw := &fakeGateway{reply: func(name string, vars map[string]string) (string, error) {
		if name == "articles-overview" && strings.Contains(vars["articles"], "title bad-") {
			return "", fmt.Errorf("overview generation broke")
		}
		return happyReply(name, vars)
	}}
	o := newTestOrchestrator(factory, vectors, gw, time.Minute)

	sessionID, err := o.Run(context.Background(), workspace.ID, testWindow.start, testWindow.end)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	session := factory.state.sessions[sessionID]
	if session.Status != model.SessionCompleted {
		t.Fatalf("status = %s, want completed", session.Status)
	}
	if session.Metrics.RetainedClusterCount != 2 {
		t.Errorf("retained = %d, want 2", session.Metrics.RetainedClusterCount)
	}

	var failed *model.Cluster
	for _, c := range factory.state.clusters {
		if c.Articles[0][:3] == "bad" {
			failed = c
		}
	}
	if failed == nil {
		t.Fatal("failing cluster not persisted")
	}
	if failed.Evaluation == nil || failed.Evaluation.Decision != model.DecisionExclude {
		t.Fatalf("failing cluster evaluation = %+v, want exclude", failed.Evaluation)
	}
	if !strings.Contains(failed.Evaluation.Justification, "EvaluationError") {
		t.Errorf("justification = %q, want EvaluationError marker", failed.Evaluation.Justification)
	}
}

func TestOrchestratorTimeout(t *testing.T) {
	factory := newMemFactory()
	vectors := &fakeVectors{vectors: make(map[string][]float32)}
	workspace := testWorkspace()
	factory.state.workspaces[workspace.ID] = workspace

	seedBlob(factory, vectors, workspace.ID, "aaa", []float32{0, 0, 0}, 6)
	seedBlob(factory, vectors, workspace.ID, "bbb", []float32{50, 0, 0}, 5)

	gw := &fakeGateway{reply: func(name string, vars map[string]string) (string, error) {
		if name == "articles-overview" {
			time.Sleep(150 * time.Millisecond)
		}
		return happyReply(name, vars)
	}}
	o := newTestOrchestrator(factory, vectors, gw, 30*time.Millisecond)

	sessionID, err := o.Run(context.Background(), workspace.ID, testWindow.start, testWindow.end)
	if err == nil {
		t.Fatal("Run should fail on timeout")
	}

	session := factory.state.sessions[sessionID]
	if session.Status != model.SessionFailed {
		t.Fatalf("status = %s, want failed", session.Status)
	}
	if session.FailureReason != ReasonTimeout {
		t.Errorf("reason = %q, want %q", session.FailureReason, ReasonTimeout)
	}
	// 已持久化的簇骨架在超时后保持可见
	if len(factory.state.clusters) == 0 {
		t.Error("cluster skeletons should remain persisted after timeout")
	}
}

func TestOrchestratorRejectsBeforeMutation(t *testing.T) {
	factory := newMemFactory()
	vectors := &fakeVectors{vectors: make(map[string][]float32)}
	workspace := testWorkspace()
	factory.state.workspaces[workspace.ID] = workspace

	o := newTestOrchestrator(factory, vectors, &fakeGateway{reply: happyReply}, time.Minute)

	// 非法时间窗口
	if _, err := o.Run(context.Background(), workspace.ID, testWindow.end, testWindow.start); !errs.IsCode(err, errs.ErrAnalysisInvalidWindow.Code) {
		t.Errorf("err = %v, want ErrAnalysisInvalidWindow", err)
	}

	// 工作区不存在
	if _, err := o.Run(context.Background(), "missing", testWindow.start, testWindow.end); !errs.IsCode(err, errs.ErrWorkspaceNotFound.Code) {
		t.Errorf("err = %v, want ErrWorkspaceNotFound", err)
	}

	// 工作区停用
	workspace.Enabled = false
	if _, err := o.Run(context.Background(), workspace.ID, testWindow.start, testWindow.end); !errs.IsCode(err, errs.ErrWorkspaceDisabled.Code) {
		t.Errorf("err = %v, want ErrWorkspaceDisabled", err)
	}
	workspace.Enabled = true

	// 已有运行中的会话
	factory.state.sessions["running"] = &model.ClusteringSession{
		ID:          "running",
		WorkspaceID: workspace.ID,
		Status:      model.SessionRunning,
	}
	if _, err := o.Run(context.Background(), workspace.ID, testWindow.start, testWindow.end); !errs.IsCode(err, errs.ErrSessionAlreadyRunning.Code) {
		t.Errorf("err = %v, want ErrSessionAlreadyRunning", err)
	}
	if len(factory.state.sessions) != 1 {
		t.Errorf("rejected runs must not create sessions, have %d", len(factory.state.sessions))
	}
}

func TestOrchestratorProceedsOnPartialVectorLoss(t *testing.T) {
	factory := newMemFactory()
	vectors := &fakeVectors{vectors: make(map[string][]float32)}
	workspace := testWorkspace()
	factory.state.workspaces[workspace.ID] = workspace

	seedBlob(factory, vectors, workspace.ID, "aaa", []float32{0, 0, 0}, 6)
	seedBlob(factory, vectors, workspace.ID, "bbb", []float32{50, 0, 0}, 6)

	// 两个向量丢失，其余照常聚类
	delete(vectors.vectors, "aaa-05")
	delete(vectors.vectors, "bbb-05")

	o := newTestOrchestrator(factory, vectors, &fakeGateway{reply: happyReply}, time.Minute)

	sessionID, err := o.Run(context.Background(), workspace.ID, testWindow.start, testWindow.end)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	session := factory.state.sessions[sessionID]
	if session.Status != model.SessionCompleted {
		t.Fatalf("status = %s, want completed", session.Status)
	}
	if session.Metrics.ClusterCount != 2 {
		t.Errorf("clusters = %d, want 2", session.Metrics.ClusterCount)
	}
}

func TestOrchestratorFilterExcludesEverything(t *testing.T) {
	factory := newMemFactory()
	vectors := &fakeVectors{vectors: make(map[string][]float32)}
	workspace := testWorkspace()
	factory.state.workspaces[workspace.ID] = workspace

	seedBlob(factory, vectors, workspace.ID, "aaa", []float32{0, 0, 0}, 6)
	seedBlob(factory, vectors, workspace.ID, "bbb", []float32{50, 0, 0}, 5)

	// 文章评估把所有文章判为不相关
	gw := &fakeGateway{reply: func(name string, vars map[string]string) (string, error) {
		if name != "article-eval" {
			return happyReply(name, vars)
		}
		var entries []string
		for _, line := range strings.Split(vars["articles"], "\n") {
			if id, ok := strings.CutPrefix(strings.TrimSpace(line), "- id: "); ok {
				entries = append(entries, fmt.Sprintf(`{"id":%q,"decision":"exclude"}`, id))
			}
		}
		return fmt.Sprintf(`{"evaluations":[%s]}`, strings.Join(entries, ",")), nil
	}}
	o := newTestOrchestrator(factory, vectors, gw, time.Minute)

	sessionID, err := o.Run(context.Background(), workspace.ID, testWindow.start, testWindow.end)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	session := factory.state.sessions[sessionID]
	if session.Status != model.SessionCompleted {
		t.Fatalf("status = %s, want completed", session.Status)
	}
	if session.Metrics.RetainedClusterCount != 0 {
		t.Errorf("retained = %d, want 0", session.Metrics.RetainedClusterCount)
	}
	if session.Summary != "" || session.StartersID != "" {
		t.Errorf("no summary expected with zero retained clusters: %+v", session)
	}

	// 完全被过滤的簇保留原始成员并带排除评估，成员列表不允许为空
	for _, c := range factory.state.clusters {
		if len(c.Articles) == 0 || c.ArticleCount != len(c.Articles) {
			t.Errorf("cluster %s persisted with empty members: %+v", c.ID, c.Articles)
		}
		if c.Evaluation == nil || c.Evaluation.Decision != model.DecisionExclude {
			t.Errorf("cluster %s should carry an exclude evaluation", c.ID)
		}
	}
}
