package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/pulsefeed/pulsefeed/internal/api"
	"github.com/pulsefeed/pulsefeed/internal/auth"
	"github.com/pulsefeed/pulsefeed/internal/cluster"
	"github.com/pulsefeed/pulsefeed/internal/config"
	"github.com/pulsefeed/pulsefeed/internal/database"
	"github.com/pulsefeed/pulsefeed/internal/ingestion"
	"github.com/pulsefeed/pulsefeed/internal/logging"
	"github.com/pulsefeed/pulsefeed/internal/metrics"
	"github.com/pulsefeed/pulsefeed/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting pulsefeed")

	ctx := context.Background()

	dbConfig := database.DefaultConfig()
	dbConfig.URL = cfg.Database.URL

	logger.Info("connecting to database")
	db, err := database.Connect(ctx, dbConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	if err := database.RunMigrations(ctx, db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Repositories
	eventRepo := database.NewPostgresEventRepository(db)
	recordRepo := database.NewPostgresSourceRecordRepository(db)
	userRepo := database.NewPostgresUserRepository(db)

	// Summarization source with deterministic fallback
	clusterConfig := cluster.ConfigFromEnv()

	var source cluster.Source
	if clusterConfig.APIKey == "" {
		logger.Warn("SUMMARIZER_API_KEY not set, running on the fallback clusterer only")
		source = cluster.NewFallback()
	} else {
		source = cluster.NewOpenAIClient(clusterConfig, logger)
	}

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	pipeline := ingestion.NewPipeline(source, cluster.NewFallback(), eventRepo, logger, collector.Engine())
	regenerator := ingestion.NewRegenerator(source, eventRepo, recordRepo, logger)

	authConfig := auth.Config{
		JWTSecret:     cfg.Auth.JWTSecret,
		TokenDuration: cfg.Auth.TokenDuration,
	}
	logger.Info("auth configured", "jwt_secret_set", authConfig.JWTSecret != "change-this-secret")
	authService := auth.NewService(userRepo, authConfig)

	mux := http.NewServeMux()
	handler := api.NewHandler(pipeline, regenerator, eventRepo, recordRepo, db, logger)
	authHandler := api.NewAuthHandler(authService, logger)
	api.SetupRoutes(mux, handler, authHandler, authConfig, collector.Handler())

	srv := server.New(cfg.Server, logger, collector.InstrumentHandler(mux))

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("pulsefeed started successfully")
	logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port))

	waitForSignal(logger)

	logger.Info("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
