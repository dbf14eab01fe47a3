package biz

import (
	"context"
	"strings"

	"github.com/kart-io/newsloom/internal/model"
	"github.com/kart-io/newsloom/pkg/llm/prompt"
)

// ClusterEvaluator 依据工作区编辑意图评估簇的相关性。
type ClusterEvaluator struct {
	gateway LLMGateway
}

// NewClusterEvaluator creates a ClusterEvaluator.
func NewClusterEvaluator(gateway LLMGateway) *ClusterEvaluator {
	return &ClusterEvaluator{gateway: gateway}
}

type clusterEvalOutput struct {
	Decision      string `json:"decision" validate:"required,oneof=include exclude"`
	Justification string `json:"justification" validate:"required"`
}

// Evaluate 评估一个簇是否进入下游。exclude 时 IrrelevancyReason
// 记录模型给出的理由，include 时保持为空。
func (e *ClusterEvaluator) Evaluate(ctx context.Context, workspace *model.Workspace, overview *model.ClusterOverview) (*model.ClusterEvaluation, error) {
	var out clusterEvalOutput
	err := e.gateway.Call(ctx, prompt.ClusterEval, map[string]string{
		"workspace_description": workspaceFocus(workspace),
		"title":                 overview.Title,
		"summary":               overview.Summary,
	}, &out)
	if err != nil {
		return nil, err
	}

	eval := &model.ClusterEvaluation{
		Decision:      model.EvaluationDecision(out.Decision),
		Justification: out.Justification,
	}
	if eval.Decision == model.DecisionExclude {
		eval.IrrelevancyReason = out.Justification
	}
	return eval, nil
}

// workspaceFocus 拼接工作区描述与相关性标准，作为评估提示词的上下文。
func workspaceFocus(workspace *model.Workspace) string {
	if workspace.RelevanceCriteria == "" {
		return workspace.Description
	}
	var b strings.Builder
	b.WriteString(workspace.Description)
	b.WriteString("\n\nRelevance criteria:\n")
	b.WriteString(workspace.RelevanceCriteria)
	return b.String()
}
