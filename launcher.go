//go:build !cli
// +build !cli

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"launcher.GO/api"
	graphqlApi "launcher.GO/api/graphql"
	_ "launcher.GO/api/services"
	_ "launcher.GO/custom"
	"launcher.GO/app"
	"launcher.GO/config"
	"launcher.GO/core/logger"
	"launcher.GO/core/registry"
)

// requestDuration stamps every response with its handling time.
func requestDuration(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		c.Set(registry.KeyRequestStart, start)
		c.Response().Before(func() {
			c.Response().Header().Set("X-Request-Duration-ms", strconv.FormatInt(time.Since(start).Milliseconds(), 10))
		})
		return next(c)
	}
}

func newServer(cfg *config.Config, a *app.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Gzip())
	e.Use(middleware.BodyLimit(config.BodyLimit(cfg)))
	e.Use(requestDuration)

	apiGroup := e.Group(config.APIPrefix)
	api.ApplyModules(apiGroup, a.Service)
	graphqlApi.RegisterGraphQLRoutes(e, a.Service)
	api.ApplyRoutes(e, a.Service)

	// the client bundle and uploaded images
	e.Static("/", cfg.PublicDir)
	return e
}

func main() {
	config.LoadEnv()
	cfg := config.LoadAppConfig()
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, slog.Default())
	if err != nil {
		log.Fatalf("failed to start registry: %v", err)
	}
	defer a.Close()
	a.WatchCatalog(ctx)

	e := newServer(cfg, a)

	figure.NewFigure(cfg.AppName, "standard", true).Print()
	slog.Info("server running", "port", cfg.Port, "catalog", cfg.DataFile, "public", cfg.PublicDir)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
}
