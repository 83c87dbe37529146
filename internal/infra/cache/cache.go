// Package cache stores computed month availability. Entries are advisory and
// dropped whenever a barber's schedule changes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/NikolajSankovDev/zyron/internal/infra/otel"
)

const (
	otelScopeName         = "cache"
	otelCacheKeyAttribute = "cache.key"

	// KeyPrefix namespaces every availability entry.
	KeyPrefix = "availability:"
)

var ErrMiss = errors.New("cache: miss")

type Cache interface {
	Get(ctx context.Context, key string, value any) error
	Save(ctx context.Context, key string, value any, ttl time.Duration) error
	Clear(ctx context.Context, pattern string) error
}

type redisCache struct {
	client *redis.Client
	otel   otel.Otel
}

func NewRedis(client *redis.Client, ot otel.Otel) Cache {
	return &redisCache{client: client, otel: ot}
}

func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().Str("addr", addr).Int("db", db).Msg("connected to redis")
	return client, nil
}

func (c *redisCache) Get(ctx context.Context, key string, value any) (err error) {
	ctx, scope := c.otel.NewScope(ctx, otelScopeName, otelScopeName+".Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute(otelCacheKeyAttribute, key)

	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("failed to get cache value: %w", err)
	}

	if err = json.Unmarshal(raw, value); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return nil
}

func (c *redisCache) Save(ctx context.Context, key string, value any, ttl time.Duration) (err error) {
	ctx, scope := c.otel.NewScope(ctx, otelScopeName, otelScopeName+".Save")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute(otelCacheKeyAttribute, key)

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	if err = c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache value: %w", err)
	}
	return nil
}

// Clear deletes every key matching pattern.
func (c *redisCache) Clear(ctx context.Context, pattern string) (err error) {
	ctx, scope := c.otel.NewScope(ctx, otelScopeName, otelScopeName+".Clear")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute(otelCacheKeyAttribute, pattern)

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err = c.client.Del(ctx, key).Err(); err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to delete cache key")
			return fmt.Errorf("failed to delete cache value: %w", err)
		}
	}
	return iter.Err()
}

type noop struct{}

// Noop never hits. Used when REDIS_ADDR is empty.
func Noop() Cache { return noop{} }

func (noop) Get(context.Context, string, any) error                 { return ErrMiss }
func (noop) Save(context.Context, string, any, time.Duration) error { return nil }
func (noop) Clear(context.Context, string) error                    { return nil }
