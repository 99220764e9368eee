package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"assetkit/internal/adapter/repo"
	"assetkit/internal/gateway"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var recorder runner.Recorder
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
	}

	factory := func() (runner.Pipeline, error) {
		return wiring.BuildPipeline(cfg, logger)
	}
	r := runner.New(factory, recorder, &logger)

	agent := gateway.NewAgent(gateway.Options{
		URL:       cfg.GatewayWSURL,
		SessionID: cfg.AgentSessionID,
		AgentName: cfg.AgentName,
		OutputDir: cfg.OutputDir,
		Logger:    &logger,
	}, r)

	logger.Info().Str("gateway", cfg.GatewayWSURL).Str("session", cfg.AgentSessionID).Msg("starting agent")
	if err := agent.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("agent stopped")
	}
	logger.Info().Msg("agent stopped")
}
