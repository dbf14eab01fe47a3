// Package openai 实现 OpenAI Chat 供应商。
// 兼容所有提供 OpenAI 风格 /chat/completions 接口的网关。
package openai

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kart-io/newsloom/pkg/llm"
	"github.com/kart-io/newsloom/pkg/utils/httpclient"
	"github.com/kart-io/newsloom/pkg/utils/json"
)

// ProviderName 供应商注册名称。
const ProviderName = "openai"

func init() {
	llm.RegisterChatProvider(ProviderName, func(config map[string]any) (llm.ChatProvider, error) {
		return NewProvider(config)
	})
}

// Config OpenAI 供应商配置。
type Config struct {
	// BaseURL API 基础地址，兼容网关可覆盖。
	BaseURL string
	// APIKey API 密钥。
	APIKey string
	// ChatModel 对话模型名称。
	ChatModel string
	// Timeout 单次请求超时。
	Timeout time.Duration
	// MaxRetries 传输层重试次数。
	MaxRetries int
	// Organization 组织 ID（可选）。
	Organization string

	// 生成参数，零值表示使用服务端默认。
	Temperature      float64
	TopP             float64
	MaxTokens        int
	FrequencyPenalty float64
	PresencePenalty  float64
	Stop             []string
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "https://api.openai.com/v1",
		ChatModel:  "gpt-4o-mini",
		Timeout:    120 * time.Second,
		MaxRetries: 3,
	}
}

// Provider OpenAI Chat 供应商实现。
type Provider struct {
	config *Config
	client *httpclient.Client
}

var _ llm.ChatProvider = (*Provider)(nil)

// NewProvider 从配置 map 创建供应商实例。
func NewProvider(config map[string]any) (*Provider, error) {
	cfg := DefaultConfig()

	if v, ok := config["base_url"].(string); ok && v != "" {
		cfg.BaseURL = v
	}
	if v, ok := config["api_key"].(string); ok {
		cfg.APIKey = v
	}
	if v, ok := config["chat_model"].(string); ok && v != "" {
		cfg.ChatModel = v
	}
	if v, ok := config["timeout"].(time.Duration); ok && v > 0 {
		cfg.Timeout = v
	}
	if v, ok := config["max_retries"].(int); ok && v > 0 {
		cfg.MaxRetries = v
	}
	if v, ok := config["organization"].(string); ok {
		cfg.Organization = v
	}
	if v, ok := config["temperature"].(float64); ok {
		cfg.Temperature = v
	}
	if v, ok := config["max_tokens"].(int); ok {
		cfg.MaxTokens = v
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api_key is required")
	}

	return NewProviderWithConfig(cfg), nil
}

// NewProviderWithConfig 从结构化配置创建供应商实例。
func NewProviderWithConfig(cfg *Config) *Provider {
	return &Provider{
		config: cfg,
		client: httpclient.NewClient(cfg.Timeout, cfg.MaxRetries),
	}
}

// Name 返回供应商名称。
func (p *Provider) Name() string {
	return ProviderName
}

// chatRequest OpenAI chat API 请求体。
type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Stream           bool          `json:"stream"`
	MaxTokens        int           `json:"max_tokens,omitempty"`
	Temperature      float64       `json:"temperature,omitempty"`
	TopP             float64       `json:"top_p,omitempty"`
	FrequencyPenalty float64       `json:"frequency_penalty,omitempty"`
	PresencePenalty  float64       `json:"presence_penalty,omitempty"`
	Stop             []string      `json:"stop,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse OpenAI chat API 响应体。
type chatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Chat 进行多轮对话。
func (p *Provider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	chatMessages := make([]chatMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = chatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	return p.complete(ctx, chatMessages)
}

// Generate 根据提示生成文本。
func (p *Provider) Generate(ctx context.Context, prompt string, systemPrompt string) (string, error) {
	var chatMessages []chatMessage
	if systemPrompt != "" {
		chatMessages = append(chatMessages, chatMessage{
			Role:    string(llm.RoleSystem),
			Content: systemPrompt,
		})
	}
	chatMessages = append(chatMessages, chatMessage{
		Role:    string(llm.RoleUser),
		Content: prompt,
	})

	return p.complete(ctx, chatMessages)
}

// complete 调用 /chat/completions 并返回首个候选内容。
func (p *Provider) complete(ctx context.Context, chatMessages []chatMessage) (string, error) {
	reqBody := chatRequest{
		Model:    p.config.ChatModel,
		Messages: chatMessages,
		Stream:   false,
	}

	// 应用配置的生成参数（仅在非零值时设置）
	if p.config.MaxTokens > 0 {
		reqBody.MaxTokens = p.config.MaxTokens
	}
	if p.config.Temperature > 0 {
		reqBody.Temperature = p.config.Temperature
	}
	if p.config.TopP > 0 {
		reqBody.TopP = p.config.TopP
	}
	if p.config.FrequencyPenalty != 0 {
		reqBody.FrequencyPenalty = p.config.FrequencyPenalty
	}
	if p.config.PresencePenalty != 0 {
		reqBody.PresencePenalty = p.config.PresencePenalty
	}
	if len(p.config.Stop) > 0 {
		reqBody.Stop = p.config.Stop
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}
	p.setHeaders(req)

	var chatResp chatResponse
	if err := p.client.DoJSON(req, &chatResp); err != nil {
		return "", err
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("未返回响应内容")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// ListModels 列出可用模型。
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	p.setHeaders(req)

	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := p.client.DoJSON(req, &result); err != nil {
		return nil, err
	}

	models := make([]string, len(result.Data))
	for i, m := range result.Data {
		models[i] = m.ID
	}

	return models, nil
}

// setHeaders 设置请求头。
func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	if p.config.Organization != "" {
		req.Header.Set("OpenAI-Organization", p.config.Organization)
	}
}
