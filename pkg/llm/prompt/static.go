package prompt

import (
	"context"

	errs "github.com/kart-io/newsloom/pkg/utils/errors"
)

// builtinTemplates 内置降级模板，注册中心不可用时使用。
var builtinTemplates = map[string]*Template{
	ArticlesOverview: {
		Name: ArticlesOverview,
		SystemPrompt: "You are an editorial assistant. You write concise, factual overviews " +
			"of groups of related news articles. Respond in {{language}}. " +
			"Answer with a single JSON object and nothing else.",
		UserTemplate: "The following articles belong to one thematic cluster:\n\n{{articles}}\n\n" +
			"Write a JSON object {\"title\": string, \"summary\": string} where title is a short " +
			"headline (max 12 words) naming the common theme and summary is a neutral paragraph " +
			"(3 to 5 sentences) covering the main facts across the articles.",
	},
	ClusterEval: {
		Name: ClusterEval,
		SystemPrompt: "You decide whether a cluster of news articles is relevant to an editorial " +
			"workspace. Answer with a single JSON object and nothing else.",
		UserTemplate: "Workspace focus:\n{{workspace_description}}\n\n" +
			"Cluster overview:\ntitle: {{title}}\nsummary: {{summary}}\n\n" +
			"Return {\"decision\": \"include\"|\"exclude\", \"justification\": string}. " +
			"The justification must always be a non-empty sentence explaining the decision.",
	},
	ArticleEval: {
		Name: ArticleEval,
		SystemPrompt: "You filter individual news articles against an editorial workspace focus. " +
			"Answer with a single JSON object and nothing else.",
		UserTemplate: "Workspace focus:\n{{workspace_description}}\n\n" +
			"Articles:\n{{articles}}\n\n" +
			"Return {\"evaluations\": [{\"id\": string, \"decision\": \"include\"|\"exclude\"}]} " +
			"with exactly one entry per listed article id.",
	},
	BigSummary: {
		Name: BigSummary,
		SystemPrompt: "You summarize the themes of a news analysis session for an editorial team. " +
			"Respond in {{language}}. Answer with a single JSON object and nothing else.",
		UserTemplate: "Workspace focus:\n{{workspace_description}}\n\n" +
			"Clusters from this session:\n{{clusters}}\n\n" +
			"Return {\"summary\": string}: a prose summary (1 to 3 paragraphs) of what happened " +
			"across these themes during the period.",
	},
	ConversationStarters: {
		Name: ConversationStarters,
		SystemPrompt: "You propose short conversation starters about recent news themes. " +
			"Respond in {{language}}. Answer with a single JSON object and nothing else.",
		UserTemplate: "Session summary:\n{{summary}}\n\n" +
			"Return {\"starters\": [string]} with 3 to 6 short user-facing questions or prompts, " +
			"each inviting a conversation about one of the themes above.",
	},
}

// StaticRegistry 只提供内置模板。
type StaticRegistry struct{}

var _ Registry = (*StaticRegistry)(nil)

// NewStaticRegistry 创建内置模板注册表。
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{}
}

// Get 返回内置模板。
func (r *StaticRegistry) Get(_ context.Context, name string) (*Template, error) {
	tpl, ok := builtinTemplates[name]
	if !ok {
		return nil, errs.ErrPromptNotFound.WithMessagef("prompt %q has no builtin template", name)
	}
	return tpl, nil
}
