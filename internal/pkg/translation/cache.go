// internal/pkg/translation/cache.go
package translation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache is a Redis-backed cache for localized copy. It is injected into
// the services that need it; there is no package-level state. A lookup
// failure always degrades to the fallback text, never to an error —
// translations are enrichment, not required data.
type Cache struct {
	redisClient *redis.Client
	ttl         time.Duration
	enabled     bool
	logger      *logrus.Logger
}

// NewCache creates a translation cache with an explicit TTL policy
func NewCache(redisClient *redis.Client, ttl time.Duration, enabled bool, logger *logrus.Logger) *Cache {
	if logger == nil {
		logger = logrus.New()
	}
	return &Cache{
		redisClient: redisClient,
		ttl:         ttl,
		enabled:     enabled,
		logger:      logger,
	}
}

// Localize returns the cached translation for (key, lang), or fallback
// when the cache is disabled, the entry is missing, or Redis is down.
func (c *Cache) Localize(ctx context.Context, key, lang, fallback string) string {
	if !c.enabled || lang == "" {
		return fallback
	}

	val, err := c.redisClient.Get(ctx, c.cacheKey(key, lang)).Result()
	if err == redis.Nil {
		return fallback
	}
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"key":  key,
			"lang": lang,
		}).Warn("Translation lookup failed, using original text")
		return fallback
	}

	return val
}

// Store writes a translation with the configured TTL
func (c *Cache) Store(ctx context.Context, key, lang, text string) error {
	if !c.enabled {
		return nil
	}
	return c.redisClient.Set(ctx, c.cacheKey(key, lang), text, c.ttl).Err()
}

// Invalidate removes all cached languages for a key
func (c *Cache) Invalidate(ctx context.Context, key string, langs ...string) error {
	if !c.enabled || len(langs) == 0 {
		return nil
	}
	keys := make([]string, len(langs))
	for i, lang := range langs {
		keys[i] = c.cacheKey(key, lang)
	}
	return c.redisClient.Del(ctx, keys...).Err()
}

func (c *Cache) cacheKey(key, lang string) string {
	return fmt.Sprintf("translation:%s:%s", lang, key)
}
