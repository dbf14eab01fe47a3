package biz

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kart-io/logger"

	"github.com/kart-io/newsloom/internal/model"
	"github.com/kart-io/newsloom/pkg/infra/pool"
	"github.com/kart-io/newsloom/pkg/llm/prompt"
)

// ArticleFilterConfig tunes per-article relevance filtering.
type ArticleFilterConfig struct {
	// BatchSize 每次模型调用评估的文章数。
	BatchSize int
	// MinClusterSize 过滤后存活文章数低于该值的簇被整体排除。
	MinClusterSize int
}

// ArticleFilter 对保留簇内的文章逐条评估相关性，
// 移除不相关文章，并回溯排除缩水到阈值以下的簇。
type ArticleFilter struct {
	gateway LLMGateway
	pool    *pool.Pool
	config  *ArticleFilterConfig
}

// NewArticleFilter creates an ArticleFilter. llmPool may be nil, in
// which case batches run on plain goroutines.
func NewArticleFilter(gateway LLMGateway, llmPool *pool.Pool, config *ArticleFilterConfig) *ArticleFilter {
	if config == nil {
		config = &ArticleFilterConfig{BatchSize: 10, MinClusterSize: 3}
	}
	if config.BatchSize < 1 {
		config.BatchSize = 10
	}
	if config.MinClusterSize < 2 {
		config.MinClusterSize = 2
	}
	return &ArticleFilter{
		gateway: gateway,
		pool:    llmPool,
		config:  config,
	}
}

// ClusterUpdate 描述过滤后需要写回的簇变更。
// Evaluation 非空表示簇被回溯排除，此时 Members 保持过滤前的成员列表。
type ClusterUpdate struct {
	ClusterID  string
	Members    []string
	Evaluation *model.ClusterEvaluation
}

type articleEvalOutput struct {
	Evaluations []articleEvalEntry `json:"evaluations" validate:"required,dive"`
}

type articleEvalEntry struct {
	ID       string `json:"id" validate:"required"`
	Decision string `json:"decision" validate:"required,oneof=include exclude"`
}

// Filter 评估 clusters 中全部成员文章并返回变更集与被排除文章数。
// 批次并发执行；单个批次失败时该批文章全部保留并记录告警。
func (f *ArticleFilter) Filter(ctx context.Context, workspace *model.Workspace, clusters []*model.Cluster, articles map[string]*model.Article) ([]*ClusterUpdate, int, error) {
	var ids []string
	for _, c := range clusters {
		for _, id := range c.Articles {
			if _, ok := articles[id]; ok {
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return nil, 0, nil
	}

	excluded := make(map[string]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for start := 0; start < len(ids); start += f.config.BatchSize {
		end := start + f.config.BatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		wg.Add(1)
		run := func() {
			defer wg.Done()
			verdicts, err := f.evaluateBatch(ctx, workspace, batch, articles)
			if err != nil {
				// 失败批次的文章全部保留
				logger.Warnw("article evaluation batch failed, keeping articles",
					"workspace_id", workspace.ID,
					"batch_size", len(batch),
					"error", err.Error(),
				)
				return
			}
			mu.Lock()
			for id, keep := range verdicts {
				if !keep {
					excluded[id] = true
				}
			}
			mu.Unlock()
		}

		if f.pool != nil {
			if err := f.pool.SubmitWithContext(ctx, run); err == nil {
				continue
			}
		}
		go run()
	}
	wg.Wait()

	var updates []*ClusterUpdate
	for _, c := range clusters {
		survivors := make([]string, 0, len(c.Articles))
		for _, id := range c.Articles {
			if !excluded[id] {
				survivors = append(survivors, id)
			}
		}
		if len(survivors) == len(c.Articles) {
			continue
		}

		update := &ClusterUpdate{ClusterID: c.ID, Members: survivors}
		if len(survivors) < f.config.MinClusterSize {
			// 回溯排除的簇保留过滤前成员，簇文档不允许空成员列表
			update.Members = c.Articles
			update.Evaluation = &model.ClusterEvaluation{
				Decision:          model.DecisionExclude,
				Justification:     "insufficient surviving articles after relevance filtering",
				IrrelevancyReason: "insufficient surviving articles after relevance filtering",
			}
		}
		updates = append(updates, update)
	}
	return updates, len(excluded), nil
}

// evaluateBatch 评估一批文章，返回 id → 是否保留。
// 响应中缺失的 id 默认保留。
func (f *ArticleFilter) evaluateBatch(ctx context.Context, workspace *model.Workspace, ids []string, articles map[string]*model.Article) (map[string]bool, error) {
	var out articleEvalOutput
	err := f.gateway.Call(ctx, prompt.ArticleEval, map[string]string{
		"workspace_description": workspaceFocus(workspace),
		"articles":              renderArticleBatch(ids, articles),
	}, &out)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	verdicts := make(map[string]bool, len(ids))
	for _, id := range ids {
		verdicts[id] = true
	}
	for _, e := range out.Evaluations {
		if !known[e.ID] {
			logger.Debugw("article evaluation returned unknown id",
				"workspace_id", workspace.ID,
				"article_id", e.ID,
			)
			continue
		}
		verdicts[e.ID] = e.Decision == string(model.DecisionInclude)
	}
	return verdicts, nil
}

func renderArticleBatch(ids []string, articles map[string]*model.Article) string {
	var b strings.Builder
	for i, id := range ids {
		a := articles[id]
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- id: %s\n", a.ID)
		fmt.Fprintf(&b, "  title: %s\n", a.Title)
		fmt.Fprintf(&b, "  body: %s\n", a.Body)
	}
	return b.String()
}
