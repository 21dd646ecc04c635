// Package cache provides an optional Redis-backed cache for plain query
// answers. A nil *AnswerCache is valid and always misses, so callers never
// branch on whether caching is configured.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"raggate/internal/config"

	redis "github.com/redis/go-redis/v9"
)

// AnswerCache stores query answers keyed by (mode, query).
type AnswerCache struct {
	inner *redis.Client
	ttl   time.Duration
}

// New connects to Redis using the service config. The connection is
// verified up front so a misconfigured cache fails at startup, not on the
// first query.
func New(cfg config.RedisConfig, ttl time.Duration) (*AnswerCache, error) {
	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 6379
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AnswerCache{inner: client, ttl: ttl}, nil
}

// Get returns a cached answer and whether one was found.
func (c *AnswerCache) Get(ctx context.Context, mode, query string) (string, bool) {
	if c == nil || c.inner == nil {
		return "", false
	}
	answer, err := c.inner.Get(ctx, answerKey(mode, query)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache: get answer: %v", err)
		}
		return "", false
	}
	return answer, true
}

// Set stores an answer. Failures are logged and swallowed; the cache never
// fails a query.
func (c *AnswerCache) Set(ctx context.Context, mode, query, answer string) {
	if c == nil || c.inner == nil {
		return
	}
	if err := c.inner.Set(ctx, answerKey(mode, query), answer, c.ttl).Err(); err != nil {
		log.Printf("cache: set answer: %v", err)
	}
}

// Close releases the underlying client.
func (c *AnswerCache) Close() error {
	if c == nil || c.inner == nil {
		return nil
	}
	return c.inner.Close()
}

func answerKey(mode, query string) string {
	sum := sha256.Sum256([]byte(mode + "\x00" + query))
	return "answer:" + hex.EncodeToString(sum[:])
}
