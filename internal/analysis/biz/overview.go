package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/newsloom/internal/model"
	"github.com/kart-io/newsloom/pkg/llm/prompt"
)

// LLMGateway 是业务层对结构化模型调用的最小依赖，
// 便于在测试中用假网关替换。
type LLMGateway interface {
	Call(ctx context.Context, promptName string, vars map[string]string, out any) error
}

// OverviewConfig tunes cluster overview generation.
type OverviewConfig struct {
	// MaxArticles 送入提示词的文章数上限，取与质心最近的前 N 篇。
	MaxArticles int
	// IncludeContents 为真时提示词包含抓取到的正文。
	IncludeContents bool
}

// OverviewGenerator 为单个簇生成标题与摘要，并解析代表图片。
type OverviewGenerator struct {
	gateway LLMGateway
	probe   *ImageProbe
	config  *OverviewConfig
}

// NewOverviewGenerator creates an OverviewGenerator. probe may be nil,
// in which case no first image is resolved.
func NewOverviewGenerator(gateway LLMGateway, probe *ImageProbe, config *OverviewConfig) *OverviewGenerator {
	if config == nil {
		config = &OverviewConfig{MaxArticles: 30, IncludeContents: true}
	}
	if config.MaxArticles < 1 {
		config.MaxArticles = 30
	}
	return &OverviewGenerator{
		gateway: gateway,
		probe:   probe,
		config:  config,
	}
}

type overviewOutput struct {
	Title   string `json:"title" validate:"required"`
	Summary string `json:"summary" validate:"required"`
}

// Generate 生成簇概览。articles 必须已按质心距离排序；
// 提示词最多包含前 MaxArticles 篇，图片探测覆盖全部文章。
func (g *OverviewGenerator) Generate(ctx context.Context, workspace *model.Workspace, articles []*model.Article) (*model.ClusterOverview, string, error) {
	top := articles
	if len(top) > g.config.MaxArticles {
		top = top[:g.config.MaxArticles]
	}

	var out overviewOutput
	err := g.gateway.Call(ctx, prompt.ArticlesOverview, map[string]string{
		"language": workspace.Language,
		"articles": renderArticles(top, g.config.IncludeContents),
	}, &out)
	if err != nil {
		return nil, "", err
	}

	firstImage := ""
	if g.probe != nil {
		firstImage = g.probe.FirstImage(ctx, articles)
	}

	return &model.ClusterOverview{
		Title:   out.Title,
		Summary: out.Summary,
	}, firstImage, nil
}

// renderArticles 把文章列表渲染为提示词文本块。
func renderArticles(articles []*model.Article, includeContents bool) string {
	var b strings.Builder
	for i, a := range articles {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%d] title: %s\n", i+1, a.Title)
		fmt.Fprintf(&b, "    url: %s\n", a.URL)
		fmt.Fprintf(&b, "    date: %s\n", a.Date.Format("2006-01-02"))
		fmt.Fprintf(&b, "    source: %s\n", a.Source)
		fmt.Fprintf(&b, "    body: %s\n", a.Body)
		if includeContents {
			if content := articleContent(a); content != "" {
				fmt.Fprintf(&b, "    content: %s\n", content)
			}
		}
	}
	return b.String()
}

// articleContent 返回文章正文，优先用摄取阶段清洗后的 markdown。
func articleContent(a *model.Article) string {
	if a.Content != "" {
		return a.Content
	}
	if a.ContentFetchingResult != nil {
		return a.ContentFetchingResult.Markdown
	}
	return ""
}
