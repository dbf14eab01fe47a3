package prompt

import (
	"context"
	"errors"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/newsloom/pkg/utils/json"
)

// cacheKeyPrefix Redis 中模板缓存键前缀。
const cacheKeyPrefix = "newsloom:prompt:"

// CachedRegistry 在注册中心前加一层 Redis TTL 缓存。
// 缓存故障不影响拉取，只记录日志。
type CachedRegistry struct {
	next Registry
	rdb  goredis.UniversalClient
	ttl  time.Duration
}

var _ Registry = (*CachedRegistry)(nil)

// NewCachedRegistry 创建带缓存的注册表。
func NewCachedRegistry(next Registry, rdb goredis.UniversalClient, ttl time.Duration) *CachedRegistry {
	return &CachedRegistry{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
	}
}

// Get 先查缓存，未命中则回源并写回。
func (r *CachedRegistry) Get(ctx context.Context, name string) (*Template, error) {
	key := cacheKeyPrefix + name

	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var tpl Template
		if uErr := json.Unmarshal(raw, &tpl); uErr == nil {
			return &tpl, nil
		}
		// 缓存内容损坏，当作未命中处理
		logger.Warnw("cached prompt template is corrupt, refetching", "prompt", name)
	} else if !errors.Is(err, goredis.Nil) {
		logger.Warnw("prompt cache read failed", "prompt", name, "error", err.Error())
	}

	tpl, err := r.next.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	if raw, mErr := json.Marshal(tpl); mErr == nil {
		if sErr := r.rdb.Set(ctx, key, raw, r.ttl).Err(); sErr != nil {
			logger.Warnw("prompt cache write failed", "prompt", name, "error", sErr.Error())
		}
	}

	return tpl, nil
}
