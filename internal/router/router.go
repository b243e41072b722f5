// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up the HTTP routes and middleware chains of both
// binaries: the REST backend under /api and the studio pages.
package router

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"slidedeck/internal/handlers"
	"slidedeck/internal/middleware"
)

// Limits for the endpoints that reach paid or external services.
const (
	triggerLimit = 10
	proxyLimit   = 300
	limitWindow  = time.Minute
)

// API is the backend router together with the rate limiters it owns.
type API struct {
	chi.Router
	limiters []*middleware.RateLimiter
}

// Stop ends the limiter cleanup goroutines.
func (a *API) Stop() {
	for _, l := range a.limiters {
		l.Stop()
	}
}

// NewAPI creates the backend router.
func NewAPI(api *handlers.API, proxy *handlers.Proxy, corsOrigins []string) *API {
	triggerLimiter := middleware.NewRateLimiter(triggerLimit, limitWindow)
	proxyLimiter := middleware.NewRateLimiter(proxyLimit, limitWindow)

	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS(corsOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", api.Health)

		r.Route("/generations", func(r chi.Router) {
			r.Get("/", api.ListGenerations)
			r.Get("/{id}", api.GetGeneration)
			r.Put("/{id}", api.UpdateGeneration)
			r.Delete("/{id}", api.DeleteGeneration)
			r.Post("/{id}/generate-image/{slideID}", api.GenerateImage)
			r.Post("/{id}/generate-viral-visuals", api.GenerateViralVisuals)
		})

		r.With(triggerLimiter.Middleware).Post("/webhooks/trigger", api.Trigger)
		r.With(proxyLimiter.Middleware).Get("/proxy/image", proxy.Image)
	})

	return &API{Router: r, limiters: []*middleware.RateLimiter{triggerLimiter, proxyLimiter}}
}

// NewStudio creates the studio router. static holds the assets served at
// /static/.
func NewStudio(studio *handlers.Studio, static fs.FS) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", healthHandler)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(static)))

	// Dashboard
	r.Get("/", studio.Dashboard)
	r.Get("/generations", studio.Generations)
	r.Post("/generations", studio.Trigger)

	// Editor
	r.Route("/editor/{id}", func(r chi.Router) {
		r.Get("/", studio.Editor)
		r.Get("/canvas", studio.Canvas)
		r.Get("/export.png", studio.Export)
		r.Post("/select/{index}", studio.Select)
		r.Post("/slides", studio.AddSlide)
		r.Delete("/slides/{index}", studio.DeleteSlide)
		r.Post("/field", studio.UpdateField)
		r.Post("/save", studio.Save)
		r.Post("/reload", studio.Reload)
		r.Post("/generate-image", studio.GenerateImage)
		r.Post("/generate-visuals", studio.GenerateVisuals)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
