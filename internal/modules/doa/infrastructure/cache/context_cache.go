package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"time"

	"DoaLink/internal/modules/doa/infrastructure/assemble"
	"DoaLink/pkg/redis"
	"DoaLink/pkg/zlog"

	"go.uber.org/zap"
)

const cacheKeyPrefix = "doa:ctx:"

// RedisContextCache 装配结果缓存，按扩展后 query 的 SHA-1 做 key。
// Redis 不可用或出错时静默降级为直查。
type RedisContextCache struct {
	ttl time.Duration
}

func NewRedisContextCache(ttl time.Duration) *RedisContextCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisContextCache{ttl: ttl}
}

var _ assemble.ContextCache = (*RedisContextCache)(nil)

func (c *RedisContextCache) Get(ctx context.Context, query string) (assemble.AssembledContext, bool) {
	if !redis.IsConnected() {
		return assemble.AssembledContext{}, false
	}
	raw, err := redis.Get(ctx, cacheKey(query))
	if err != nil {
		return assemble.AssembledContext{}, false
	}
	var val assemble.AssembledContext
	if err := json.Unmarshal([]byte(raw), &val); err != nil {
		// 坏条目直接清掉，下次重新装配
		if _, delErr := redis.Del(ctx, cacheKey(query)); delErr != nil {
			zlog.Warn("doa context cache del failed", zap.Error(delErr))
		}
		return assemble.AssembledContext{}, false
	}
	return val, true
}

func (c *RedisContextCache) Set(ctx context.Context, query string, val assemble.AssembledContext) {
	if !redis.IsConnected() {
		return
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := redis.Set(ctx, cacheKey(query), string(raw), c.ttl); err != nil {
		zlog.Warn("doa context cache set failed", zap.Error(err))
	}
}

func cacheKey(query string) string {
	sum := sha1.Sum([]byte(query))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
