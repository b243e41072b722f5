// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the slide deck backend. It loads
// configuration, connects to services, starts the generation jobs runner
// and serves the REST API with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slidedeck/internal/ai"
	"slidedeck/internal/cache"
	"slidedeck/internal/config"
	"slidedeck/internal/database"
	"slidedeck/internal/generator"
	"slidedeck/internal/handlers"
	"slidedeck/internal/router"
	"slidedeck/internal/storage"
	"slidedeck/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed a sample deck (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Valkey backs the proxy cache and the per-slide locks. Both are
	// optional: without Valkey the proxy always fetches and slides are not
	// locked across processes.
	var (
		images handlers.ImageStore
		locker handlers.Locker
	)
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Warn("valkey not available, proxy cache and slide locks disabled", "error", err)
	} else {
		defer valkeyClient.Close()
		images = cache.NewImageCache(valkeyClient, cache.DefaultImageTTL)
		locker = cache.NewLocker(valkeyClient, handlers.ImageLockTTL)
	}

	// Object storage is optional; without it image generation answers 503.
	var uploader generator.Uploader
	storageClient, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
	switch {
	case err != nil:
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	case storageClient == nil:
		slog.Warn("s3 storage not configured, background generation disabled")
	default:
		uploader = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	}

	aiRegistry := ai.NewRegistry(cfg.AIProvider, map[string]ai.ProviderConfig{
		"openai":  {APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel, ImageModel: cfg.OpenAIImageModel, BaseURL: cfg.OpenAIBaseURL},
		"gemini":  {APIKey: cfg.GeminiKey, Model: cfg.GeminiModel, ImageModel: cfg.GeminiImageModel, BaseURL: cfg.GeminiBaseURL},
		"claude":  {APIKey: cfg.ClaudeKey, Model: cfg.ClaudeModel, BaseURL: cfg.ClaudeBaseURL},
		"mistral": {APIKey: cfg.MistralKey, Model: cfg.MistralModel, BaseURL: cfg.MistralBaseURL},
	})

	// Fall back to any configured provider when the chosen one has no key.
	if !aiRegistry.HasProvider(cfg.AIProvider) {
		if available := aiRegistry.Available(); len(available) > 0 {
			if err := aiRegistry.SetActive(available[0]); err == nil {
				slog.Warn("ai provider not configured, using fallback", "wanted", cfg.AIProvider, "using", available[0])
			}
		} else {
			slog.Warn("no ai provider configured, generation will fail")
		}
	}

	slog.Info("ai providers initialized",
		"active", aiRegistry.ActiveName(),
		"available", aiRegistry.Available(),
	)

	generationStore := store.NewGenerationStore(db)
	gen := generator.New(generationStore, aiRegistry, uploader, cfg.ImageConcurrency)

	apiHandlers := handlers.NewAPI(generationStore, gen, locker)
	proxyHandlers := handlers.NewProxy(nil, images)

	r := router.NewAPI(apiHandlers, proxyHandlers, cfg.CORSOrigins)
	defer r.Stop()

	// WriteTimeout must cover a synchronous image generation.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	if err := gen.Shutdown(ctx); err != nil {
		slog.Error("generation jobs did not stop in time", "error", err)
	}

	slog.Info("server stopped gracefully")
}
