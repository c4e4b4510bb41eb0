package config

import (
	"log/slog"

	"github.com/joho/godotenv"
)

func LoadEnv() {
	// A missing .env is fine, env vars can be set by other means
	_ = godotenv.Load()
	slog.Debug("environment variables loaded (if .env present)")
}
