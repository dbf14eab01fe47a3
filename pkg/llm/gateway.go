package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/newsloom/pkg/llm/prompt"
	errs "github.com/kart-io/newsloom/pkg/utils/errors"
	"github.com/kart-io/newsloom/pkg/utils/json"
	"github.com/kart-io/newsloom/pkg/validator"
)

// RetryPolicy 传输层重试策略。
type RetryPolicy interface {
	// Do 在可重试错误上重复执行 fn。
	Do(ctx context.Context, fn func() error) error
}

// Gateway 将命名提示词绑定到结构化输出调用。
// 并发由调用方的信号量控制，网关自身不并行发起调用。
type Gateway struct {
	provider ChatProvider
	registry prompt.Registry
	retry    RetryPolicy
}

// NewGateway 创建 LLM 网关。retry 为 nil 时不做传输层重试。
func NewGateway(provider ChatProvider, registry prompt.Registry, retry RetryPolicy) *Gateway {
	return &Gateway{
		provider: provider,
		registry: registry,
		retry:    retry,
	}
}

// Call 解析命名提示词、绑定变量、调用模型并将输出解析进 out。
// out 必须是带 validate 标签的结构体指针；解析或校验失败时
// 附带错误信息做一次纠正重试，仍失败则返回 ErrLLMResponseInvalid。
func (g *Gateway) Call(ctx context.Context, promptName string, vars map[string]string, out any) error {
	tpl, err := g.registry.Get(ctx, promptName)
	if err != nil {
		return err
	}

	system, user, err := tpl.Render(vars)
	if err != nil {
		return errs.ErrPromptNotFound.WithCause(err)
	}

	raw, err := g.generate(ctx, func() (string, error) {
		return g.provider.Generate(ctx, user, system)
	})
	if err != nil {
		return err
	}

	decodeErr := decodeStructured(raw, out)
	if decodeErr == nil {
		return nil
	}

	// 纠正重试：把上一次输出和校验错误一起发回模型
	logger.Warnw("LLM output failed validation, retrying with correction hint",
		"prompt", promptName,
		"error", decodeErr.Error(),
	)

	correction := fmt.Sprintf(
		"Your previous answer was rejected: %s. Respond again with only the corrected JSON object, no other text.",
		decodeErr.Error(),
	)
	messages := []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
		{Role: RoleAssistant, Content: raw},
		{Role: RoleUser, Content: correction},
	}

	raw, err = g.generate(ctx, func() (string, error) {
		return g.provider.Chat(ctx, messages)
	})
	if err != nil {
		return err
	}

	if decodeErr = decodeStructured(raw, out); decodeErr != nil {
		return errs.ErrLLMResponseInvalid.WithCause(decodeErr)
	}
	return nil
}

// generate 执行一次模型调用，带传输层重试和错误归类。
func (g *Gateway) generate(ctx context.Context, fn func() (string, error)) (string, error) {
	var raw string
	call := func() error {
		var err error
		raw, err = fn()
		return err
	}

	var err error
	if g.retry != nil {
		err = g.retry.Do(ctx, call)
	} else {
		err = call()
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", errs.ErrLLMTimeout.WithCause(err)
		}
		return "", errs.ErrLLMUnavailable.WithCause(err)
	}
	return raw, nil
}

// decodeStructured 从模型输出中提取 JSON 并解析校验。
func decodeStructured(raw string, out any) error {
	payload := extractJSON(raw)
	if payload == "" {
		return fmt.Errorf("no JSON object found in response")
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validator.Struct(out); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// extractJSON 截取输出中第一个 JSON 对象或数组。
// 模型经常在 JSON 外包裹代码块标记或解释文字。
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	closing := byte('}')
	if s[start] == '[' {
		closing = ']'
	}
	end := strings.LastIndexByte(s, closing)
	if end <= start {
		return ""
	}
	return s[start : end+1]
}
