// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the slide studio: the dashboard and
// the deck editor. It talks to the backend over its REST API and keeps the
// open decks in memory.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slidedeck/internal/api"
	"slidedeck/internal/canvas"
	"slidedeck/internal/config"
	"slidedeck/internal/deck"
	"slidedeck/internal/export"
	"slidedeck/internal/handlers"
	"slidedeck/internal/render"
	"slidedeck/internal/router"
	"slidedeck/web"
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
		"addr", cfg.StudioAddr(),
		"backend", cfg.BackendURL,
	)

	client := api.New(cfg.BackendURL, nil)

	// Exports fetch backgrounds through the backend proxy, like the canvas.
	exporter, err := export.New(client)
	if err != nil {
		slog.Error("failed to initialize exporter", "error", err)
		os.Exit(1)
	}

	workspace := deck.NewWorkspace(client, exporter, canvas.Options{
		ProxyBase: client.ProxyBase(),
		Watermark: cfg.Watermark,
	})

	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	studio := handlers.NewStudio(renderer, client, workspace, cfg.PollInterval)
	r := router.NewStudio(studio, web.Static())

	// Generate actions wait on the backend, which waits on the image model.
	srv := &http.Server{
		Addr:         cfg.StudioAddr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("studio starting", "addr", cfg.StudioAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("studio failed to start", "error", err)
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
		slog.Error("studio forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("studio stopped gracefully")
}
