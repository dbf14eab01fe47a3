// Package prompt provides options for the external prompt registry.
package prompt

import (
	"fmt"
	"os"
	"time"

	"github.com/kart-io/newsloom/pkg/options"
	"github.com/spf13/pflag"
)

var _ options.IOptions = (*Options)(nil)

// Options 定义提示词注册中心配置。
// Endpoint 为空时使用内置模板，不访问外部服务。
type Options struct {
	// Endpoint 注册中心 HTTP 地址。
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`

	// Timeout 单次拉取超时。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 拉取最大重试次数。
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	// CacheTTL Redis 缓存的模板有效期。
	CacheTTL time.Duration `json:"cache-ttl" mapstructure:"cache-ttl"`

	// CacheEnabled 是否启用 Redis 缓存。
	CacheEnabled bool `json:"cache-enabled" mapstructure:"cache-enabled"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Timeout:      10 * time.Second,
		MaxRetries:   2,
		CacheTTL:     5 * time.Minute,
		CacheEnabled: false,
	}
}

// AddFlags adds flags for prompt registry options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	join := options.Join(prefixes...)
	fs.StringVar(&o.Endpoint, join+"prompt.endpoint", o.Endpoint, "Prompt registry endpoint URL. Empty uses built-in templates.")
	fs.DurationVar(&o.Timeout, join+"prompt.timeout", o.Timeout, "Prompt registry request timeout.")
	fs.IntVar(&o.MaxRetries, join+"prompt.max-retries", o.MaxRetries, "Prompt registry maximum retries.")
	fs.DurationVar(&o.CacheTTL, join+"prompt.cache-ttl", o.CacheTTL, "Template cache TTL.")
	fs.BoolVar(&o.CacheEnabled, join+"prompt.cache-enabled", o.CacheEnabled, "Enable Redis-backed template caching.")
}

// Complete applies environment variable overrides.
func (o *Options) Complete() error {
	if v := os.Getenv("PROMPT_REGISTRY_ENDPOINT"); v != "" {
		o.Endpoint = v
	}
	return nil
}

// Validate validates the prompt registry options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("prompt.timeout must be positive"))
	}
	if o.CacheEnabled && o.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("prompt.cache-ttl must be positive when caching is enabled"))
	}
	return errs
}
