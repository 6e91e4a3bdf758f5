// Package main provides the HTTP API server for XoptYmiZ.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xoptymiz/xoptymiz/internal/annotate"
	"github.com/xoptymiz/xoptymiz/internal/config"
	"github.com/xoptymiz/xoptymiz/internal/extract"
	"github.com/xoptymiz/xoptymiz/internal/metrics"
	"github.com/xoptymiz/xoptymiz/internal/pipeline"
	"github.com/xoptymiz/xoptymiz/internal/server"
	"github.com/xoptymiz/xoptymiz/internal/store"
)

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	cfg := config.Load()

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = cleanup() }()
	slog.SetDefault(logger)

	logger.Info("starting xoptymiz-server", "port", cfg.ServerPort)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	graphStore, err := store.New(ctx, store.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger)
	if err != nil {
		cancel()
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := graphStore.InitSchema(ctx); err != nil {
		cancel()
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}
	if *wipeDB || os.Getenv("XOPTYMIZ_WIPE_DB") == "true" {
		if err := graphStore.WipeData(ctx); err != nil {
			cancel()
			logger.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
	}
	cancel()
	defer func() {
		if err := graphStore.Close(context.Background()); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	collector := metrics.NewCollector()

	var strategy annotate.Strategy
	if llm, err := annotate.NewLLMStrategy(cfg); err != nil {
		logger.Warn("LLM unavailable, using local extraction only", "error", err)
	} else {
		strategy = llm
	}

	extractor := extract.New(cfg.FetchTimeout, logger)
	annotator := annotate.New(strategy, collector, logger)
	proc := pipeline.New(extractor, annotator, graphStore, collector, logger)

	router := server.NewRouter(proc, graphStore, collector, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // batch runs can take a while
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s/api", cfg.ServerPort))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
