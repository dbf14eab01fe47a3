package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/newsloom/internal/analysis/store"
	"github.com/kart-io/newsloom/internal/model"
	"github.com/kart-io/newsloom/pkg/component/storage"
	errs "github.com/kart-io/newsloom/pkg/utils/errors"
	"github.com/kart-io/newsloom/pkg/utils/json"
)

// fakeFactory 内存版 store.Factory，只实现路由测试用到的读写。
type fakeFactory struct {
	workspaces map[string]*model.Workspace
	sessions   map[string]*model.ClusteringSession
	clusters   map[string]*model.Cluster
	starters   map[string]*model.Starters
	articles   map[string]*model.Article
	tasks      map[string]*model.AnalysisTask
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		workspaces: make(map[string]*model.Workspace),
		sessions:   make(map[string]*model.ClusteringSession),
		clusters:   make(map[string]*model.Cluster),
		starters:   make(map[string]*model.Starters),
		articles:   make(map[string]*model.Article),
		tasks:      make(map[string]*model.AnalysisTask),
	}
}

func (f *fakeFactory) Workspaces() store.WorkspaceStore      { return (*fakeWorkspaces)(f) }
func (f *fakeFactory) Articles() store.ArticleStore          { return (*fakeArticles)(f) }
func (f *fakeFactory) Sessions() store.SessionStore          { return (*fakeSessions)(f) }
func (f *fakeFactory) Clusters() store.ClusterStore          { return (*fakeClusters)(f) }
func (f *fakeFactory) Starters() store.StartersStore         { return (*fakeStarters)(f) }
func (f *fakeFactory) Tasks() store.TaskStore                { return (*fakeTasks)(f) }
func (f *fakeFactory) EnsureIndexes(_ context.Context) error { return nil }
func (f *fakeFactory) Close() error                          { return nil }

type fakeWorkspaces fakeFactory

func (f *fakeWorkspaces) Create(_ context.Context, w *model.Workspace) error {
	f.workspaces[w.ID] = w
	return nil
}
func (f *fakeWorkspaces) Update(_ context.Context, w *model.Workspace) error {
	f.workspaces[w.ID] = w
	return nil
}
func (f *fakeWorkspaces) Delete(_ context.Context, id string) error {
	if _, ok := f.workspaces[id]; !ok {
		return errs.ErrWorkspaceNotFound
	}
	delete(f.workspaces, id)
	return nil
}
func (f *fakeWorkspaces) Get(_ context.Context, id string) (*model.Workspace, error) {
	w, ok := f.workspaces[id]
	if !ok {
		return nil, errs.ErrWorkspaceNotFound
	}
	return w, nil
}
func (f *fakeWorkspaces) List(_ context.Context, _, _ int) (int64, []*model.Workspace, error) {
	var out []*model.Workspace
	for _, w := range f.workspaces {
		out = append(out, w)
	}
	return int64(len(out)), out, nil
}

type fakeArticles fakeFactory

func (f *fakeArticles) Get(_ context.Context, id string) (*model.Article, error) {
	a, ok := f.articles[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return a, nil
}
func (f *fakeArticles) ListByIDs(_ context.Context, ids []string) ([]*model.Article, error) {
	var out []*model.Article
	// 故意乱序返回，验证 handler 按簇内顺序重排
	for i := len(ids) - 1; i >= 0; i-- {
		if a, ok := f.articles[ids[i]]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}
func (f *fakeArticles) ListIndexed(_ context.Context, _ string, _, _ time.Time) ([]*model.Article, error) {
	return nil, nil
}

type fakeSessions fakeFactory

func (f *fakeSessions) Create(_ context.Context, s *model.ClusteringSession) error {
	f.sessions[s.ID] = s
	return nil
}
func (f *fakeSessions) Get(_ context.Context, id string) (*model.ClusteringSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, errs.ErrSessionNotFound
	}
	return s, nil
}
func (f *fakeSessions) ListByWorkspace(_ context.Context, workspaceID string, _, _ int) (int64, []*model.ClusteringSession, error) {
	var out []*model.ClusteringSession
	for _, s := range f.sessions {
		if s.WorkspaceID == workspaceID {
			out = append(out, s)
		}
	}
	return int64(len(out)), out, nil
}
func (f *fakeSessions) HasRunning(_ context.Context, _ string) (bool, error) { return false, nil }
func (f *fakeSessions) Claim(_ context.Context, _ string) (bool, error)      { return false, nil }
func (f *fakeSessions) UpdateMetrics(_ context.Context, _ string, _ model.SessionMetrics) error {
	return nil
}
func (f *fakeSessions) SetSummary(_ context.Context, _, _, _ string) error { return nil }
func (f *fakeSessions) Finish(_ context.Context, _ string, _ model.SessionStatus, _ string) error {
	return nil
}

type fakeClusters fakeFactory

func (f *fakeClusters) InsertMany(_ context.Context, clusters []*model.Cluster) error {
	for _, c := range clusters {
		f.clusters[c.ID] = c
	}
	return nil
}
func (f *fakeClusters) Get(_ context.Context, id string) (*model.Cluster, error) {
	c, ok := f.clusters[id]
	if !ok {
		return nil, errs.ErrClusterNotFound
	}
	return c, nil
}
func (f *fakeClusters) ListBySession(_ context.Context, sessionID string) ([]*model.Cluster, error) {
	var out []*model.Cluster
	for _, c := range f.clusters {
		if c.SessionID == sessionID {
			out = append(out, c)
		}
	}
	return out, nil
}
func (f *fakeClusters) SetOverview(_ context.Context, _ string, _ *model.ClusterOverview, _ string) error {
	return nil
}
func (f *fakeClusters) SetEvaluation(_ context.Context, _ string, _ *model.ClusterEvaluation) error {
	return nil
}
func (f *fakeClusters) UpdateMembers(_ context.Context, _ string, _ []string) error { return nil }

type fakeStarters fakeFactory

func (f *fakeStarters) Create(_ context.Context, s *model.Starters) error {
	f.starters[s.ID] = s
	return nil
}
func (f *fakeStarters) Get(_ context.Context, id string) (*model.Starters, error) {
	s, ok := f.starters[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return s, nil
}
func (f *fakeStarters) GetBySession(_ context.Context, sessionID string) (*model.Starters, error) {
	for _, s := range f.starters {
		if s.SessionID == sessionID {
			return s, nil
		}
	}
	return nil, errs.ErrNotFound
}

type fakeTasks fakeFactory

func (f *fakeTasks) Create(_ context.Context, t *model.AnalysisTask) error {
	f.tasks[t.ID] = t
	return nil
}
func (f *fakeTasks) Get(_ context.Context, id string) (*model.AnalysisTask, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, errs.ErrTaskNotFound
	}
	return t, nil
}
func (f *fakeTasks) List(_ context.Context, _ string, _, _ int) (int64, []*model.AnalysisTask, error) {
	var out []*model.AnalysisTask
	for _, t := range f.tasks {
		out = append(out, t)
	}
	return int64(len(out)), out, nil
}
func (f *fakeTasks) ClaimPending(_ context.Context) (*model.AnalysisTask, error) { return nil, nil }
func (f *fakeTasks) MarkCompleted(_ context.Context, _, _ string) error          { return nil }
func (f *fakeTasks) MarkFailed(_ context.Context, _, _ string) error             { return nil }

func newTestServer(factory *fakeFactory) *httptest.Server {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	Register(engine, factory, storage.NewManager())
	return httptest.NewServer(engine)
}

type apiResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func decodeResponse(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestCreateWorkspace(t *testing.T) {
	factory := newFakeFactory()
	srv := newTestServer(factory)
	defer srv.Close()

	body := `{"organization_id":"org-1","name":"AI infra","description":"AI news","language":"en"}`
	resp, err := http.Post(srv.URL+"/v1/workspaces", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out apiResponse
	decodeResponse(t, resp, &out)
	if out.Code != 0 {
		t.Errorf("code = %d, message = %s", out.Code, out.Message)
	}
	if len(factory.workspaces) != 1 {
		t.Errorf("workspaces stored = %d, want 1", len(factory.workspaces))
	}
	for _, w := range factory.workspaces {
		if !w.Enabled {
			t.Error("workspace should default to enabled")
		}
	}
}

func TestCreateWorkspaceInvalidLanguage(t *testing.T) {
	srv := newTestServer(newFakeFactory())
	defer srv.Close()

	body := `{"organization_id":"org-1","name":"n","description":"d","language":"jp"}`
	resp, err := http.Post(srv.URL+"/v1/workspaces", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateTaskInvalidWindow(t *testing.T) {
	factory := newFakeFactory()
	factory.workspaces["ws-1"] = &model.Workspace{ID: "ws-1", Enabled: true}
	srv := newTestServer(factory)
	defer srv.Close()

	body := `{"workspace_id":"ws-1","data_start":"2024-01-07T00:00:00Z","data_end":"2024-01-01T00:00:00Z"}`
	resp, err := http.Post(srv.URL+"/v1/tasks", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var out apiResponse
	decodeResponse(t, resp, &out)
	if out.Code != errs.ErrAnalysisInvalidWindow.Code {
		t.Errorf("code = %d, want %d", out.Code, errs.ErrAnalysisInvalidWindow.Code)
	}
}

func TestCreateTaskDisabledWorkspace(t *testing.T) {
	factory := newFakeFactory()
	factory.workspaces["ws-1"] = &model.Workspace{ID: "ws-1", Enabled: false}
	srv := newTestServer(factory)
	defer srv.Close()

	body := `{"workspace_id":"ws-1","data_start":"2024-01-01T00:00:00Z","data_end":"2024-01-07T00:00:00Z"}`
	resp, err := http.Post(srv.URL+"/v1/tasks", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	if len(factory.tasks) != 0 {
		t.Errorf("tasks stored = %d, want 0", len(factory.tasks))
	}
}

func TestCreateTaskHappyPath(t *testing.T) {
	factory := newFakeFactory()
	factory.workspaces["ws-1"] = &model.Workspace{ID: "ws-1", Enabled: true}
	srv := newTestServer(factory)
	defer srv.Close()

	body := `{"workspace_id":"ws-1","data_start":"2024-01-01T00:00:00Z","data_end":"2024-01-07T00:00:00Z"}`
	resp, err := http.Post(srv.URL+"/v1/tasks", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(factory.tasks) != 1 {
		t.Fatalf("tasks stored = %d, want 1", len(factory.tasks))
	}
	for _, task := range factory.tasks {
		if task.Status != model.TaskPending {
			t.Errorf("task status = %s, want pending", task.Status)
		}
	}
}

func TestGetSessionNotFound(t *testing.T) {
	srv := newTestServer(newFakeFactory())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/sessions/missing")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestClusterArticlesKeepOrder(t *testing.T) {
	factory := newFakeFactory()
	factory.clusters["c-1"] = &model.Cluster{
		ID:       "c-1",
		Articles: []string{"a2", "a1", "a3"},
	}
	for _, id := range []string{"a1", "a2", "a3"} {
		factory.articles[id] = &model.Article{ID: id, Title: "t-" + id}
	}
	srv := newTestServer(factory)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/clusters/c-1/articles")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	decodeResponse(t, resp, &out)
	want := []string{"a2", "a1", "a3"}
	if len(out.Data) != len(want) {
		t.Fatalf("articles = %d, want %d", len(out.Data), len(want))
	}
	for i, a := range out.Data {
		if a.ID != want[i] {
			t.Errorf("articles[%d] = %s, want %s", i, a.ID, want[i])
		}
	}
}

func TestSessionStarters(t *testing.T) {
	factory := newFakeFactory()
	factory.sessions["s-1"] = &model.ClusteringSession{ID: "s-1", WorkspaceID: "ws-1", Status: model.SessionCompleted}
	factory.starters["st-1"] = &model.Starters{ID: "st-1", SessionID: "s-1", Starters: []string{"q1", "q2", "q3"}}
	srv := newTestServer(factory)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/sessions/s-1/starters")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out struct {
		Data model.Starters `json:"data"`
	}
	decodeResponse(t, resp, &out)
	if len(out.Data.Starters) != 3 {
		t.Errorf("starters = %v", out.Data.Starters)
	}
}

func TestHealthzEmptyManagerIsOK(t *testing.T) {
	srv := newTestServer(newFakeFactory())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
