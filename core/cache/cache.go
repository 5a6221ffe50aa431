package cache

import (
	"context"
	"fmt"
	"time"

	"calshare/core/config"
	"calshare/core/constants"
	"calshare/core/logger"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	AddToTokenBlacklist(ctx context.Context, token string) error
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
	IncrementLoginAttempt(ctx context.Context, key string) error
	IsLoginBlocked(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type redisCache struct {
	client *redis.Client
}

func NewCache(cfg config.RedisConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Cache:NewCache:Ping:Error:", err)
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis cache initialized", "addr", client.Options().Addr)
	return &redisCache{client: client}, nil
}

func (c *redisCache) AddToTokenBlacklist(ctx context.Context, token string) error {
	cfg := config.Get()
	ttl := constants.BlockDuration
	if cfg != nil {
		// Keep the entry around as long as the longest-lived token could be valid.
		ttl = cfg.JWT.RefreshTTL
	}
	return c.client.Set(ctx, constants.RedisKeyTokenBlacklist+token, "1", ttl).Err()
}

func (c *redisCache) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := c.client.Exists(ctx, constants.RedisKeyTokenBlacklist+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *redisCache) IncrementLoginAttempt(ctx context.Context, key string) error {
	count, err := c.client.Incr(ctx, constants.RedisKeyLoginAttempt+key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return c.client.Expire(ctx, constants.RedisKeyLoginAttempt+key, constants.BlockDuration).Err()
	}
	return nil
}

func (c *redisCache) IsLoginBlocked(ctx context.Context, key string) (bool, error) {
	count, err := c.client.Get(ctx, constants.RedisKeyLoginAttempt+key).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return count >= constants.MaxLoginAttempts, nil
}

func (c *redisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Expire(ctx, constants.RedisKeyLoginAttempt+key, ttl).Err()
}

func (c *redisCache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, constants.RedisKeyLoginAttempt+key).Err()
}
