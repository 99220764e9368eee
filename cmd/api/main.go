package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"assetkit/internal/adapter/repo"
	"assetkit/internal/httpapi"
	"assetkit/internal/infra"
	"assetkit/internal/runner"
	"assetkit/internal/wiring"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if err := cfg.RequireKeys(); err != nil {
		logger.Fatal().Err(err).Msg("missing credentials")
	}

	ctx := context.Background()

	var recorder runner.Recorder
	var history httpapi.RunHistory
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()

		runs := repo.NewRunRepository(infra.NewSQLRunner(pool, logger), logger)
		if err := runs.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare run history schema")
		}
		recorder = runs
		history = runs
	}

	factory := func() (runner.Pipeline, error) {
		return wiring.BuildPipeline(cfg, logger)
	}
	r := runner.New(factory, recorder, &logger)

	app := httpapi.NewApp(r, &logger)
	app.History = history
	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
