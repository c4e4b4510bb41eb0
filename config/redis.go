package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the global Redis client, nil when REDIS_ADDR is unset.
var RedisClient *redis.Client

func InitRedis(cfg *Config) {
	if cfg.RedisAddr == "" {
		RedisClient = nil
		return
	}
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})
}

func RedisCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Second)
}
