package prompt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/logger"

	errs "github.com/kart-io/newsloom/pkg/utils/errors"
	"github.com/kart-io/newsloom/pkg/utils/httpclient"
)

// HTTPRegistry 从外部注册中心按名称拉取模板。
// 拉取失败时降级到 fallback（通常是内置模板）。
type HTTPRegistry struct {
	endpoint string
	client   *httpclient.Client
	fallback Registry
}

var _ Registry = (*HTTPRegistry)(nil)

// NewHTTPRegistry 创建 HTTP 注册中心客户端。
func NewHTTPRegistry(endpoint string, timeout time.Duration, maxRetries int, fallback Registry) *HTTPRegistry {
	return &HTTPRegistry{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   httpclient.NewClient(timeout, maxRetries),
		fallback: fallback,
	}
}

// Get 拉取命名模板，失败时降级。
func (r *HTTPRegistry) Get(ctx context.Context, name string) (*Template, error) {
	var tpl Template
	url := fmt.Sprintf("%s/prompts/%s", r.endpoint, name)

	err := r.client.GetJSON(ctx, url, nil, &tpl)
	if err == nil {
		if tpl.Name == "" {
			tpl.Name = name
		}
		return &tpl, nil
	}

	if r.fallback != nil {
		logger.Warnw("prompt registry fetch failed, using fallback template",
			"prompt", name,
			"error", err.Error(),
		)
		return r.fallback.Get(ctx, name)
	}

	return nil, errs.ErrPromptUnavailable.WithCause(err)
}
