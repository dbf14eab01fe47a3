package resilience

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/kart-io/logger"
	"github.com/kart-io/newsloom/pkg/llm"
)

// ResilientChatProvider 包装 ChatProvider，为每次调用加上
// 重试与熔断。实现 llm.ChatProvider，可直接交给网关。
type ResilientChatProvider struct {
	provider llm.ChatProvider
	retry    *RetryConfig
	cb       *CircuitBreaker
}

// NewResilientChatProvider 创建带韧性的 ChatProvider。
// 配置为 nil 时使用默认值。
func NewResilientChatProvider(
	provider llm.ChatProvider,
	retryConfig *RetryConfig,
	cbConfig *CircuitBreakerConfig,
) *ResilientChatProvider {
	if retryConfig == nil {
		retryConfig = DefaultRetryConfig()
	}
	if retryConfig.RetryableErrors == nil {
		retryConfig.RetryableErrors = IsRetryableError
	}

	return &ResilientChatProvider{
		provider: provider,
		retry:    retryConfig,
		cb:       NewCircuitBreaker(cbConfig),
	}
}

// Chat 进行多轮对话。
func (r *ResilientChatProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	var result string
	var err error

	err = RetryWithCircuitBreaker(ctx, r.retry, r.cb, func() error {
		result, err = r.provider.Chat(ctx, messages)
		return err
	})

	return result, err
}

// Generate 根据提示生成文本。
func (r *ResilientChatProvider) Generate(ctx context.Context, prompt string, systemPrompt string) (string, error) {
	var result string
	var err error

	err = RetryWithCircuitBreaker(ctx, r.retry, r.cb, func() error {
		result, err = r.provider.Generate(ctx, prompt, systemPrompt)
		return err
	})

	return result, err
}

// Name 返回供应商名称。
func (r *ResilientChatProvider) Name() string {
	return r.provider.Name() + "-resilient"
}

// retryableMessages 出现在错误文本中即可重试的片段。
// 供应商错误经 httpclient 包装后只剩文本可判断。
var retryableMessages = []string{
	"status code 5",
	"status code 429",
	"status code 408",
	"rate limit",
	"EOF",
	"connection reset",
}

// IsRetryableError 判断传输层错误是否值得重试。
// 熔断与上下文取消不重试，网络故障与服务端瞬时错误重试。
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCircuitBreakerOpen) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	errMsg := err.Error()
	for _, m := range retryableMessages {
		if strings.Contains(errMsg, m) {
			return true
		}
	}

	logger.Debugw("error not retryable", "error", errMsg)
	return false
}
