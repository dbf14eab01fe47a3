package resilience

import "context"

// Backoff 以指数退避执行调用，实现网关的重试策略接口。
type Backoff struct {
	config *RetryConfig
}

// NewBackoff 创建退避执行器。config 为 nil 时使用默认配置。
func NewBackoff(config *RetryConfig) *Backoff {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if config.RetryableErrors == nil {
		config.RetryableErrors = IsRetryableError
	}
	return &Backoff{config: config}
}

// Do 在可重试错误上重复执行 fn。
func (b *Backoff) Do(ctx context.Context, fn func() error) error {
	return RetryWithBackoff(ctx, b.config, fn)
}
