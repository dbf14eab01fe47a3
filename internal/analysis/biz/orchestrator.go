package biz

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/newsloom/internal/analysis/store"
	"github.com/kart-io/newsloom/internal/model"
	"github.com/kart-io/newsloom/pkg/id"
	"github.com/kart-io/newsloom/pkg/infra/pool"
	errs "github.com/kart-io/newsloom/pkg/utils/errors"
)

// 会话失败原因，写入 ClusteringSession.FailureReason。
const (
	ReasonInsufficientData = "InsufficientData"
	ReasonTimeout          = "Timeout"
	ReasonTransient        = "Transient"
	ReasonLLMError         = "LLMError"
	ReasonValidationError  = "ValidationError"
	ReasonInternal         = "Internal"
)

// OrchestratorConfig tunes the session pipeline.
type OrchestratorConfig struct {
	// MinArticles 窗口内可用文章低于该值时会话失败。
	MinArticles int
	// MaxRuntime 单次会话最大运行时长，超时后会话以 Timeout 失败。
	MaxRuntime time.Duration
}

// Orchestrator 驱动一次完整的分析会话:
// 取文章 → 取向量 → 聚类 → 概览/评估 → 文章过滤 → 会话摘要。
// 每一步落库形成检查点，超时或失败时已写入的产物保持可见。
type Orchestrator struct {
	store      store.Factory
	vectors    store.VectorRepository
	clusterer  *Clusterer
	overviews  *OverviewGenerator
	evaluator  *ClusterEvaluator
	filter     *ArticleFilter
	summarizer *SessionSummarizer
	llmPool    *pool.Pool
	idgen      *id.Generator
	config     *OrchestratorConfig
}

// NewOrchestrator creates an Orchestrator. llmPool bounds the concurrent
// overview/evaluation fan-out; nil falls back to plain goroutines.
func NewOrchestrator(
	factory store.Factory,
	vectors store.VectorRepository,
	clusterer *Clusterer,
	overviews *OverviewGenerator,
	evaluator *ClusterEvaluator,
	filter *ArticleFilter,
	summarizer *SessionSummarizer,
	llmPool *pool.Pool,
	config *OrchestratorConfig,
) *Orchestrator {
	if config == nil {
		config = &OrchestratorConfig{MinArticles: 10, MaxRuntime: 30 * time.Minute}
	}
	return &Orchestrator{
		store:      factory,
		vectors:    vectors,
		clusterer:  clusterer,
		overviews:  overviews,
		evaluator:  evaluator,
		filter:     filter,
		summarizer: summarizer,
		llmPool:    llmPool,
		idgen:      id.NewGenerator(),
		config:     config,
	}
}

// Run 执行一次分析会话并返回会话 id。
// 会话文档总是落库：即使流水线失败，会话也会以 failed 终态留存。
// 工作区停用、窗口非法或已有运行中会话时在任何写入前拒绝。
func (o *Orchestrator) Run(ctx context.Context, workspaceID string, dataStart, dataEnd time.Time) (string, error) {
	if !dataStart.Before(dataEnd) {
		return "", errs.ErrAnalysisInvalidWindow
	}

	workspace, err := o.store.Workspaces().Get(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	if !workspace.Enabled {
		return "", errs.ErrWorkspaceDisabled.WithMessagef("workspace %s is disabled", workspaceID)
	}

	running, err := o.store.Sessions().HasRunning(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	if running {
		return "", errs.ErrSessionAlreadyRunning
	}

	session := &model.ClusteringSession{
		ID:          o.idgen.Generate(),
		WorkspaceID: workspaceID,
		DataStart:   dataStart,
		DataEnd:     dataEnd,
		Status:      model.SessionPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := o.store.Sessions().Create(ctx, session); err != nil {
		return "", err
	}
	claimed, err := o.store.Sessions().Claim(ctx, session.ID)
	if err != nil {
		return session.ID, err
	}
	if !claimed {
		return session.ID, errs.ErrSessionAlreadyRunning
	}

	logger.Infow("analysis session started",
		"session_id", session.ID,
		"workspace_id", workspaceID,
		"data_start", dataStart,
		"data_end", dataEnd,
	)

	runCtx, cancel := context.WithTimeout(ctx, o.config.MaxRuntime)
	defer cancel()

	runErr := o.execute(runCtx, workspace, session)

	// 终态写入不使用已超时的 runCtx
	if runErr != nil {
		reason := failureReason(runErr)
		logger.Errorw("analysis session failed",
			"session_id", session.ID,
			"workspace_id", workspaceID,
			"reason", reason,
			"error", runErr.Error(),
		)
		if err := o.persist(ctx, "finish failed", func() error {
			return o.store.Sessions().Finish(ctx, session.ID, model.SessionFailed, reason)
		}); err != nil {
			logger.Errorw("failed to mark session failed", "session_id", session.ID, "error", err.Error())
		}
		return session.ID, runErr
	}

	if err := o.persist(ctx, "finish completed", func() error {
		return o.store.Sessions().Finish(ctx, session.ID, model.SessionCompleted, "")
	}); err != nil {
		return session.ID, err
	}

	logger.Infow("analysis session completed", "session_id", session.ID, "workspace_id", workspaceID)
	return session.ID, nil
}

// execute 执行检查点 2 到 7。返回错误时由调用方标记会话失败。
func (o *Orchestrator) execute(ctx context.Context, workspace *model.Workspace, session *model.ClusteringSession) error {
	// 检查点 2: 窗口内已建向量索引的文章
	articles, err := o.store.Articles().ListIndexed(ctx, workspace.ID, session.DataStart, session.DataEnd)
	if err != nil {
		return err
	}
	metrics := model.SessionMetrics{ArticleCount: len(articles)}
	if err := o.updateMetrics(ctx, session.ID, metrics); err != nil {
		return err
	}
	if len(articles) < o.config.MinArticles {
		return errs.ErrInsufficientArticles.WithMessagef(
			"%d indexed articles in window, need %d", len(articles), o.config.MinArticles)
	}

	// 检查点 3: 取回嵌入，部分缺失时继续
	ids := make([]string, len(articles))
	articlesByID := make(map[string]*model.Article, len(articles))
	for i, a := range articles {
		ids[i] = a.ID
		articlesByID[a.ID] = a
	}
	embeddings, missing, err := o.vectors.Fetch(ctx, workspace.ID, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		logger.Warnw("embeddings missing for indexed articles, proceeding without them",
			"session_id", session.ID,
			"missing", len(missing),
			"fetched", len(embeddings),
		)
	}
	if len(embeddings) < o.config.MinArticles {
		return errs.ErrInsufficientArticles.WithMessagef(
			"%d embeddings available after vector fetch, need %d", len(embeddings), o.config.MinArticles)
	}

	// 检查点 4: 聚类并持久化簇骨架
	results, noise, err := o.clusterer.Cluster(embeddings)
	if err != nil {
		return err
	}
	metrics.ClusterCount = len(results)
	metrics.NoiseCount = noise
	if err := o.updateMetrics(ctx, session.ID, metrics); err != nil {
		return err
	}
	if len(results) == 0 {
		// 全噪声也是正常结束，没有摘要和引导语
		return nil
	}

	clusters := make([]*model.Cluster, len(results))
	for i, r := range results {
		clusters[i] = &model.Cluster{
			ID:           o.idgen.Generate(),
			SessionID:    session.ID,
			WorkspaceID:  workspace.ID,
			Articles:     r.Members,
			ArticleCount: len(r.Members),
			Center:       r.Center,
		}
	}
	if err := o.persist(ctx, "insert clusters", func() error {
		return o.store.Clusters().InsertMany(ctx, clusters)
	}); err != nil {
		return err
	}

	// 检查点 5: 每簇并发执行概览生成与相关性评估
	o.enrichClusters(ctx, workspace, clusters, articlesByID)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	metrics.RetainedClusterCount = countRetained(clusters)
	if err := o.updateMetrics(ctx, session.ID, metrics); err != nil {
		return err
	}

	// 检查点 6: 逐文章过滤，收缩保留簇
	retained := retainedClusters(clusters)
	if len(retained) > 0 {
		updates, excluded, err := o.filter.Filter(ctx, workspace, retained, articlesByID)
		if err != nil {
			return err
		}
		if err := o.applyFilterUpdates(ctx, clusters, updates); err != nil {
			return err
		}
		if excluded > 0 {
			logger.Infow("article filtering excluded articles",
				"session_id", session.ID,
				"excluded_articles", excluded,
				"shrunk_clusters", len(updates),
			)
		}
		metrics.RetainedClusterCount = countRetained(clusters)
		if err := o.updateMetrics(ctx, session.ID, metrics); err != nil {
			return err
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	// 检查点 7: 会话摘要与引导语。失败不影响会话完成。
	retained = retainedClusters(clusters)
	if len(retained) == 0 {
		return nil
	}
	summary, starterLines, err := o.summarizer.Summarize(ctx, workspace, retained)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warnw("session summarization failed, completing without summary",
			"session_id", session.ID,
			"error", err.Error(),
		)
		return nil
	}

	starters := &model.Starters{
		ID:          o.idgen.Generate(),
		WorkspaceID: workspace.ID,
		SessionID:   session.ID,
		Starters:    starterLines,
		CreatedAt:   time.Now().UTC(),
	}
	if err := o.persist(ctx, "insert starters", func() error {
		return o.store.Starters().Create(ctx, starters)
	}); err != nil {
		return err
	}
	return o.persist(ctx, "set summary", func() error {
		return o.store.Sessions().SetSummary(ctx, session.ID, summary, starters.ID)
	})
}

// enrichClusters 并发地为每个簇生成概览并评估相关性。
// 单簇失败不会中止会话，该簇被排除且理由带 EvaluationError 标记。
func (o *Orchestrator) enrichClusters(ctx context.Context, workspace *model.Workspace, clusters []*model.Cluster, articlesByID map[string]*model.Article) {
	var wg sync.WaitGroup
	for _, cluster := range clusters {
		wg.Add(1)
		c := cluster
		run := func() {
			defer wg.Done()
			o.enrichCluster(ctx, workspace, c, articlesByID)
		}
		if o.llmPool != nil {
			if err := o.llmPool.SubmitWithContext(ctx, run); err == nil {
				continue
			}
		}
		go run()
	}
	wg.Wait()
}

func (o *Orchestrator) enrichCluster(ctx context.Context, workspace *model.Workspace, cluster *model.Cluster, articlesByID map[string]*model.Article) {
	clusterArticles := make([]*model.Article, 0, len(cluster.Articles))
	for _, articleID := range cluster.Articles {
		if a, ok := articlesByID[articleID]; ok {
			clusterArticles = append(clusterArticles, a)
		}
	}

	overview, firstImage, err := o.overviews.Generate(ctx, workspace, clusterArticles)
	if err != nil {
		o.excludeForEvaluationError(ctx, cluster, err)
		return
	}
	cluster.Overview = overview
	cluster.FirstImage = firstImage
	if err := o.persist(ctx, "set overview", func() error {
		return o.store.Clusters().SetOverview(ctx, cluster.ID, overview, firstImage)
	}); err != nil {
		o.excludeForEvaluationError(ctx, cluster, err)
		return
	}

	evaluation, err := o.evaluator.Evaluate(ctx, workspace, overview)
	if err != nil {
		o.excludeForEvaluationError(ctx, cluster, err)
		return
	}
	cluster.Evaluation = evaluation
	if err := o.persist(ctx, "set evaluation", func() error {
		return o.store.Clusters().SetEvaluation(ctx, cluster.ID, evaluation)
	}); err != nil {
		o.excludeForEvaluationError(ctx, cluster, err)
	}
}

// excludeForEvaluationError 把概览或评估失败的簇标记为排除。
func (o *Orchestrator) excludeForEvaluationError(ctx context.Context, cluster *model.Cluster, cause error) {
	logger.Warnw("cluster enrichment failed, excluding cluster",
		"cluster_id", cluster.ID,
		"session_id", cluster.SessionID,
		"error", cause.Error(),
	)
	evaluation := &model.ClusterEvaluation{
		Decision:          model.DecisionExclude,
		Justification:     "EvaluationError: " + cause.Error(),
		IrrelevancyReason: "EvaluationError: " + cause.Error(),
	}
	cluster.Evaluation = evaluation
	if err := o.persist(ctx, "set evaluation", func() error {
		return o.store.Clusters().SetEvaluation(ctx, cluster.ID, evaluation)
	}); err != nil {
		logger.Errorw("failed to persist cluster exclusion",
			"cluster_id", cluster.ID,
			"error", err.Error(),
		)
	}
}

// applyFilterUpdates 把文章过滤结果写回簇文档和内存副本。
func (o *Orchestrator) applyFilterUpdates(ctx context.Context, clusters []*model.Cluster, updates []*ClusterUpdate) error {
	byID := make(map[string]*model.Cluster, len(clusters))
	for _, c := range clusters {
		byID[c.ID] = c
	}
	for _, u := range updates {
		c, ok := byID[u.ClusterID]
		if !ok {
			continue
		}
		if err := o.persist(ctx, "update members", func() error {
			return o.store.Clusters().UpdateMembers(ctx, c.ID, u.Members)
		}); err != nil {
			return err
		}
		c.Articles = u.Members
		c.ArticleCount = len(u.Members)

		if u.Evaluation != nil {
			if err := o.persist(ctx, "set evaluation", func() error {
				return o.store.Clusters().SetEvaluation(ctx, c.ID, u.Evaluation)
			}); err != nil {
				return err
			}
			c.Evaluation = u.Evaluation
		}
	}
	return nil
}

func (o *Orchestrator) updateMetrics(ctx context.Context, sessionID string, metrics model.SessionMetrics) error {
	return o.persist(ctx, "update metrics", func() error {
		return o.store.Sessions().UpdateMetrics(ctx, sessionID, metrics)
	})
}

// persist 执行一次落库操作，失败时重试一次。
func (o *Orchestrator) persist(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if err == nil || ctx.Err() != nil {
		return err
	}
	logger.Warnw("persistence failed, retrying once", "op", op, "error", err.Error())
	return fn()
}

func retainedClusters(clusters []*model.Cluster) []*model.Cluster {
	var out []*model.Cluster
	for _, c := range clusters {
		if c.Retained() {
			out = append(out, c)
		}
	}
	return out
}

func countRetained(clusters []*model.Cluster) int {
	n := 0
	for _, c := range clusters {
		if c.Retained() {
			n++
		}
	}
	return n
}

// failureReason 把流水线错误映射为会话失败原因。
func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errs.IsCode(err, errs.ErrInsufficientArticles.Code):
		return ReasonInsufficientData
	case errs.IsCode(err, errs.ErrAnalysisTimeout.Code) || errs.IsCode(err, errs.ErrLLMTimeout.Code):
		return ReasonTimeout
	case errs.IsCode(err, errs.ErrLLMUnavailable.Code):
		return ReasonLLMError
	case errs.IsCode(err, errs.ErrLLMResponseInvalid.Code):
		return ReasonValidationError
	case errs.IsCode(err, errs.ErrVectorFetch.Code) || errs.IsCode(err, errs.ErrDatabase.Code):
		return ReasonTransient
	default:
		return ReasonInternal
	}
}
