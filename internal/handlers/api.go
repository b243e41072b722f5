// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers of both binaries: the JSON
// API and image proxy of the backend, and the HTMX pages of the studio.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"slidedeck/internal/cache"
	"slidedeck/internal/generator"
	"slidedeck/internal/models"
	"slidedeck/internal/store"
)

// maxJSONBody caps API request bodies. A deck of ten slides is a few KB.
const maxJSONBody = 1 << 20

// ImageLockTTL is how long a slide stays locked for background generation.
// It outlives the slowest image provider call.
const ImageLockTTL = 3 * time.Minute

// DeckStore is the deck persistence the API reads and patches directly.
type DeckStore interface {
	List(limit int) ([]models.Generation, error)
	FindByID(id uuid.UUID) (*models.Generation, error)
	Update(id uuid.UUID, patch models.GenerationPatch) error
	Delete(id uuid.UUID) error
}

// Jobs starts generation work. generator.Generator implements it.
type Jobs interface {
	Trigger(req models.TriggerRequest) (*models.Generation, error)
	GenerateBackground(ctx context.Context, deckID uuid.UUID, slideID string) (string, error)
	StartVisuals(id uuid.UUID) error
}

// Locker serializes background generation per slide. cache.Locker
// implements it.
type Locker interface {
	Lock(ctx context.Context, key string) (token string, err error)
	Unlock(ctx context.Context, key, token string)
}

// API groups the JSON endpoints of the backend.
type API struct {
	store  DeckStore
	jobs   Jobs
	locker Locker // nil disables per-slide locking
}

// NewAPI creates the API handler group. locker may be nil when Valkey is
// not available.
func NewAPI(deckStore DeckStore, jobs Jobs, locker Locker) *API {
	return &API{store: deckStore, jobs: jobs, locker: locker}
}

// Health reports that the process is serving.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListGenerations returns the newest decks first.
func (a *API) ListGenerations(w http.ResponseWriter, r *http.Request) {
	decks, err := a.store.List(store.DefaultListLimit)
	if err != nil {
		slog.Error("list generations failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list generations")
		return
	}
	if decks == nil {
		decks = []models.Generation{}
	}
	writeJSON(w, http.StatusOK, decks)
}

// GetGeneration returns one deck with its slides.
func (a *API) GetGeneration(w http.ResponseWriter, r *http.Request) {
	id, ok := deckID(w, r)
	if !ok {
		return
	}
	deck, err := a.store.FindByID(id)
	if err != nil {
		slog.Error("find generation failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to load generation")
		return
	}
	if deck == nil {
		writeError(w, http.StatusNotFound, "Generation not found")
		return
	}
	writeJSON(w, http.StatusOK, deck)
}

// UpdateGeneration applies a partial update. Absent fields are kept; a
// present slides array replaces the stored one.
func (a *API) UpdateGeneration(w http.ResponseWriter, r *http.Request) {
	id, ok := deckID(w, r)
	if !ok {
		return
	}

	var patch models.GenerationPatch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if patch.Status != nil && !patch.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if patch.Mode != nil && !patch.Mode.Valid() {
		writeError(w, http.StatusBadRequest, "invalid mode")
		return
	}
	if patch.Slides != nil && len(patch.Slides) == 0 {
		writeError(w, http.StatusBadRequest, "slides must not be empty")
		return
	}

	err := a.store.Update(id, patch)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Generation not found")
		return
	case err != nil:
		slog.Error("update generation failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to update generation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DeleteGeneration removes a deck. Stored backgrounds are left in the
// bucket.
func (a *API) DeleteGeneration(w http.ResponseWriter, r *http.Request) {
	id, ok := deckID(w, r)
	if !ok {
		return
	}
	err := a.store.Delete(id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Generation not found")
		return
	case err != nil:
		slog.Error("delete generation failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete generation")
		return
	}
	slog.Info("generation deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// GenerateImage draws the background of one slide and returns its URL. It
// runs inside the request; a second request for the same slide while one
// is running gets 409.
func (a *API) GenerateImage(w http.ResponseWriter, r *http.Request) {
	id, ok := deckID(w, r)
	if !ok {
		return
	}
	slideID := chi.URLParam(r, "slideID")
	ctx := r.Context()

	if a.locker != nil {
		key := id.String() + ":" + slideID
		token, err := a.locker.Lock(ctx, key)
		switch {
		case errors.Is(err, cache.ErrLocked):
			writeError(w, http.StatusConflict, "image generation already running for this slide")
			return
		case err != nil:
			// Valkey trouble must not block generation.
			slog.Warn("slide lock failed, continuing unlocked", "error", err, "key", key)
		default:
			defer a.locker.Unlock(context.WithoutCancel(ctx), key, token)
		}
	}

	url, err := a.jobs.GenerateBackground(ctx, id, slideID)
	if err != nil {
		status, msg := jobError(err)
		if status >= 500 {
			slog.Error("generate image failed", "error", err, "id", id, "slide", slideID)
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// GenerateViralVisuals starts bulk background generation and returns at
// once.
func (a *API) GenerateViralVisuals(w http.ResponseWriter, r *http.Request) {
	id, ok := deckID(w, r)
	if !ok {
		return
	}
	if err := a.jobs.StartVisuals(id); err != nil {
		status, msg := jobError(err)
		if status >= 500 {
			slog.Error("start visuals failed", "error", err, "id", id)
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// Trigger creates a deck and writes its copy in the background.
func (a *API) Trigger(w http.ResponseWriter, r *http.Request) {
	var req models.TriggerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Normalize()
	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}

	deck, err := a.jobs.Trigger(req)
	if err != nil {
		status, msg := jobError(err)
		slog.Error("trigger generation failed", "error", err, "topic", req.Topic)
		writeError(w, status, msg)
		return
	}
	slog.Info("generation triggered", "id", deck.ID, "topic", deck.Topic, "slides", deck.SlideCount)
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "accepted", "id": deck.ID})
}

// jobError maps generator errors to a status code and client message.
func jobError(err error) (int, string) {
	switch {
	case errors.Is(err, generator.ErrDeckNotFound):
		return http.StatusNotFound, "Generation not found"
	case errors.Is(err, generator.ErrSlideNotFound):
		return http.StatusNotFound, "Slide not found"
	case errors.Is(err, generator.ErrFlagged):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, generator.ErrNoStorage), errors.Is(err, generator.ErrClosed):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// deckID parses the {id} URL parameter, answering 404 for malformed ids.
func deckID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Generation not found")
		return uuid.Nil, false
	}
	return id, true
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
