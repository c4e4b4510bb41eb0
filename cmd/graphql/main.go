// Standalone GraphQL server. Run with: go run ./cmd/graphql
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	graphqlApi "launcher.GO/api/graphql"
	"launcher.GO/app"
	"launcher.GO/config"
	"launcher.GO/core/logger"
)

func main() {
	config.LoadEnv()
	cfg, err := config.Parse()
	if err != nil {
		log.Fatal(err)
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, slog.Default())
	if err != nil {
		log.Fatal("registry:", err)
	}
	defer a.Close()
	a.WatchCatalog(ctx)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	graphqlApi.RegisterGraphQLRoutes(e, a.Service)

	// ASCII banner on start (random font each run)
	gqlFonts := []string{"banner", "big", "block", "slant", "standard", "small", "shadow", "speed", "doom", "larry3d", "puffy", "rectangles"}
	fig := figure.NewFigure("Launcher GQL ->", gqlFonts[rand.Intn(len(gqlFonts))], true)
	fig.Print()
	fmt.Println("Standalone GraphQL server")

	port := os.Getenv("GRAPHQL_PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("GraphQL at http://localhost:%s/graphql  Playground at http://localhost:%s/playground", port, port)
	go func() {
		<-ctx.Done()
		_ = e.Close()
	}()
	if err := e.Start(":" + port); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
}
