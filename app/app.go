// Package app wires the registry service from configuration. The HTTP
// server, the standalone GraphQL server and the CLI all start here.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"launcher.GO/config"
	"launcher.GO/core/cache"
	"launcher.GO/core/events"
	"launcher.GO/model/repository/asset"
	catalogRepo "launcher.GO/model/repository/catalog"
	catalogService "launcher.GO/service/catalog"
)

// App holds the wired stores and service.
type App struct {
	Config  *config.Config
	Catalog *catalogRepo.FileRepository
	Assets  *asset.FileRepository
	Service *catalogService.Service
	// Redis is nil when REDIS_ADDR is unset or the server did not answer.
	Redis *redis.Client

	log *slog.Logger
}

// Build creates the stores, makes sure the catalog document and the
// default image exist, and connects the change notifier.
func Build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	a := &App{Config: cfg, log: log}

	a.Catalog = catalogRepo.NewFileRepository(catalogRepo.Options{
		Path:     cfg.DataFile,
		CacheTTL: cfg.CatalogCacheTTL,
		Cache:    cache.GetInstance(),
		Logger:   log,
	})
	a.Assets = asset.NewFileRepository(asset.Options{
		PublicDir:    cfg.PublicDir,
		UploadDir:    cfg.UploadDir,
		DefaultImage: cfg.DefaultImage,
		Logger:       log,
	})

	if _, err := a.Catalog.Init(ctx); err != nil {
		return nil, fmt.Errorf("init catalog %s: %w", cfg.DataFile, err)
	}
	if made, err := a.Assets.EnsureDefault(); err != nil {
		log.Warn("default image unavailable", "path", filepath.Join(cfg.PublicDir, cfg.DefaultImage), "error", err)
	} else if made {
		log.Info("default image generated", "ref", cfg.DefaultImage)
	}

	var notifier events.Notifier = events.Nop{}
	a.Redis = connectRedis(cfg, log)
	if a.Redis != nil {
		notifier = events.NewRedisNotifier(a.Redis, cfg.RedisChannel)
	}

	a.Service = catalogService.NewService(a.Catalog, a.Assets, catalogService.Options{
		MaxImageBytes: cfg.MaxImageBytes,
		Notifier:      notifier,
		Logger:        log,
	})
	return a, nil
}

// connectRedis returns a client only when the server answers a ping.
func connectRedis(cfg *config.Config, log *slog.Logger) *redis.Client {
	config.InitRedis(cfg)
	if config.RedisClient == nil {
		log.Debug("redis not configured, change notifications disabled")
		return nil
	}
	ctx, cancel := config.RedisCtx()
	defer cancel()
	if err := config.RedisClient.Ping(ctx).Err(); err != nil {
		log.Warn("redis configured but not reachable, change notifications disabled", "addr", cfg.RedisAddr, "error", err)
		_ = config.RedisClient.Close()
		config.RedisClient = nil
		return nil
	}
	log.Info("redis connection successful", "addr", cfg.RedisAddr, "channel", cfg.RedisChannel)
	return config.RedisClient
}

// watchDebounce coalesces the write and rename of one external save.
const watchDebounce = 100 * time.Millisecond

// WatchCatalog starts the file watcher when enabled. The watcher stops with ctx.
func (a *App) WatchCatalog(ctx context.Context) {
	if !a.Config.WatchCatalog {
		return
	}
	if err := a.Catalog.Watch(ctx, watchDebounce); err != nil {
		a.log.Warn("catalog watcher not started, relying on cache ttl", "path", a.Config.DataFile, "error", err)
		return
	}
	a.log.Debug("watching catalog document", "path", a.Config.DataFile)
}

// Close releases the Redis connection.
func (a *App) Close() error {
	if a.Redis == nil {
		return nil
	}
	return a.Redis.Close()
}
