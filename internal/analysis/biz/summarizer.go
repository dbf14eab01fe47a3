package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/newsloom/internal/model"
	"github.com/kart-io/newsloom/pkg/llm/prompt"
	errs "github.com/kart-io/newsloom/pkg/utils/errors"
)

// SummarizerConfig tunes session summarization.
type SummarizerConfig struct {
	// DetailThreshold 保留簇数低于该值时，提示词包含每个簇的完整摘要。
	DetailThreshold int
	// MaxClusters 参与摘要的保留簇数量上限，超出部分按发现顺序截断。
	MaxClusters int
}

// SessionSummarizer 从保留簇生成会话摘要与对话引导语。
type SessionSummarizer struct {
	gateway LLMGateway
	config  *SummarizerConfig
}

// NewSessionSummarizer creates a SessionSummarizer.
func NewSessionSummarizer(gateway LLMGateway, config *SummarizerConfig) *SessionSummarizer {
	if config == nil {
		config = &SummarizerConfig{DetailThreshold: 30, MaxClusters: 400}
	}
	if config.MaxClusters < 1 {
		config.MaxClusters = 400
	}
	return &SessionSummarizer{gateway: gateway, config: config}
}

type bigSummaryOutput struct {
	Summary string `json:"summary" validate:"required"`
}

type startersOutput struct {
	Starters []string `json:"starters" validate:"required,min=3,max=6,dive,required"`
}

// Summarize 生成会话级摘要和 3 到 6 条对话引导语。
// clusters 必须是保留簇且已按发现顺序排列。
func (s *SessionSummarizer) Summarize(ctx context.Context, workspace *model.Workspace, clusters []*model.Cluster) (string, []string, error) {
	if len(clusters) > s.config.MaxClusters {
		logger.Warnw("retained clusters exceed summary cap, truncating",
			"workspace_id", workspace.ID,
			"retained", len(clusters),
			"cap", s.config.MaxClusters,
		)
		clusters = clusters[:s.config.MaxClusters]
	}

	includeSummaries := len(clusters) < s.config.DetailThreshold

	var summary bigSummaryOutput
	err := s.gateway.Call(ctx, prompt.BigSummary, map[string]string{
		"language":              workspace.Language,
		"workspace_description": workspaceFocus(workspace),
		"clusters":              renderClusters(clusters, includeSummaries),
	}, &summary)
	if err != nil {
		return "", nil, err
	}

	var starters startersOutput
	err = s.gateway.Call(ctx, prompt.ConversationStarters, map[string]string{
		"language": workspace.Language,
		"summary":  summary.Summary,
	}, &starters)
	if err != nil {
		return "", nil, err
	}
	if len(starters.Starters) < model.MinStarters || len(starters.Starters) > model.MaxStarters {
		return "", nil, errs.ErrLLMResponseInvalid.WithMessagef(
			"starters count %d outside [%d, %d]", len(starters.Starters), model.MinStarters, model.MaxStarters)
	}

	return summary.Summary, starters.Starters, nil
}

// renderClusters 渲染簇列表。簇数较多时只保留标题，控制提示词长度。
func renderClusters(clusters []*model.Cluster, includeSummaries bool) string {
	var b strings.Builder
	for i, c := range clusters {
		if c.Overview == nil {
			continue
		}
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s (%d articles)\n", c.Overview.Title, c.ArticleCount)
		if includeSummaries {
			fmt.Fprintf(&b, "  %s\n", c.Overview.Summary)
		}
	}
	return b.String()
}
