// Package prompt 管理命名提示词模板。
// 模板来自外部注册中心，带 Redis 缓存，并内置降级模板。
package prompt

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// 核心流水线使用的命名提示词。
const (
	ArticlesOverview     = "articles-overview"
	ClusterEval          = "cluster-eval"
	ArticleEval          = "article-eval"
	BigSummary           = "big-summary"
	ConversationStarters = "conversation-starters"
)

// Template 一个命名提示词模板。
// UserTemplate 中以 {{name}} 形式引用变量。
type Template struct {
	Name         string `json:"name"`
	SystemPrompt string `json:"system_prompt"`
	UserTemplate string `json:"user_template"`
}

var placeholderRe = regexp.MustCompile(`\{\{([a-zA-Z0-9_]+)\}\}`)

// Render 绑定变量并返回系统提示词和用户提示词。
// 未提供值的占位符视为错误，避免把模板原文发给模型。
func (t *Template) Render(vars map[string]string) (system string, user string, err error) {
	system, err = t.renderText(t.SystemPrompt, vars)
	if err != nil {
		return "", "", err
	}
	user, err = t.renderText(t.UserTemplate, vars)
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}

func (t *Template) renderText(text string, vars map[string]string) (string, error) {
	rendered := placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		key := strings.Trim(m, "{}")
		if v, ok := vars[key]; ok {
			return v
		}
		return m
	})

	if leftover := placeholderRe.FindString(rendered); leftover != "" {
		return "", fmt.Errorf("prompt %s: unbound variable %s", t.Name, leftover)
	}
	return rendered, nil
}

// Registry 按名称解析提示词模板。
type Registry interface {
	// Get 返回命名模板。
	Get(ctx context.Context, name string) (*Template, error)
}
