// internal/cache/token_cache.go
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const tokenKey = "mpesa:access_token"

// TokenCache stores the gateway access token in redis so that repeated
// initiations within the token's lifetime skip the OAuth round trip.
// Every failure degrades to a cache miss; the caller fetches a fresh token.
type TokenCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewTokenCache(rdb *redis.Client, logger *zap.Logger) *TokenCache {
	return &TokenCache{rdb: rdb, logger: logger}
}

// Get returns the cached token, or "" on a miss or cache error.
func (c *TokenCache) Get(ctx context.Context) string {
	token, err := c.rdb.Get(ctx, tokenKey).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("token cache read failed", zap.Error(err))
		}
		return ""
	}
	return token
}

// Set stores the token with the given TTL. Errors are logged and swallowed;
// a missed write only costs an extra OAuth call later.
func (c *TokenCache) Set(ctx context.Context, token string, ttl time.Duration) {
	if err := c.rdb.Set(ctx, tokenKey, token, ttl).Err(); err != nil {
		c.logger.Warn("token cache write failed", zap.Error(err))
	}
}
