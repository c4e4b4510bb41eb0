package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
)

// AppConfig holds global application configuration
var AppConfig *Config
var once sync.Once

type Config struct {
	AppName string `env:"APP_NAME" envDefault:"launcher"`
	Port    string `env:"PORT" envDefault:"3000"`
	Env     string `env:"APP_ENV" envDefault:"production"`
	Debug   bool   `env:"DEBUG"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Catalog document and the static tree the client and assets are served from
	DataFile        string        `env:"DATA_FILE" envDefault:"services.json"`
	PublicDir       string        `env:"PUBLIC_DIR" envDefault:"public"`
	UploadDir       string        `env:"UPLOAD_DIR" envDefault:"src"`
	DefaultImage    string        `env:"DEFAULT_IMAGE" envDefault:"img/default.png"`
	MaxImageBytes   int64         `env:"MAX_IMAGE_BYTES" envDefault:"2097152"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"30s"`
	WatchCatalog    bool          `env:"WATCH_CATALOG" envDefault:"true"`

	AssetSweepSchedule string        `env:"ASSET_SWEEP_SCHEDULE" envDefault:"@every 1h"`
	AssetSweepGrace    time.Duration `env:"ASSET_SWEEP_GRACE" envDefault:"10m"`

	RedisAddr    string `env:"REDIS_ADDR"`
	RedisPass    string `env:"REDIS_PASS"`
	RedisChannel string `env:"REDIS_CHANNEL" envDefault:"launcher:catalog"`
}

// Parse reads a Config from the environment.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MaxImageBytes <= 0 {
		return nil, fmt.Errorf("parse env: MAX_IMAGE_BYTES must be positive, got %d", cfg.MaxImageBytes)
	}
	if filepath.IsAbs(cfg.UploadDir) {
		return nil, fmt.Errorf("parse env: UPLOAD_DIR must be relative to PUBLIC_DIR, got %s", cfg.UploadDir)
	}
	return cfg, nil
}

// LoadAppConfig initializes the global AppConfig variable. Panics on a malformed environment.
func LoadAppConfig() *Config {
	once.Do(func() {
		cfg, err := Parse()
		if err != nil {
			panic("config: " + err.Error())
		}
		AppConfig = cfg
	})
	return AppConfig
}
