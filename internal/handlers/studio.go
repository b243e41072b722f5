// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"slidedeck/internal/api"
	"slidedeck/internal/deck"
	"slidedeck/internal/models"
	"slidedeck/internal/render"
	"slidedeck/internal/style"
)

// Backend is what the dashboard needs from the REST backend. api.Client
// implements it.
type Backend interface {
	ListGenerations(ctx context.Context) ([]models.Generation, error)
	TriggerGeneration(ctx context.Context, req models.TriggerRequest) (uuid.UUID, error)
}

// Studio groups the dashboard and editor handlers.
type Studio struct {
	renderer  *render.Renderer
	backend   Backend
	workspace *deck.Workspace
	tables    *style.Tables
	poll      time.Duration
}

// NewStudio creates the studio handler group. poll is the dashboard
// refresh interval.
func NewStudio(renderer *render.Renderer, backend Backend, workspace *deck.Workspace, poll time.Duration) *Studio {
	return &Studio{
		renderer:  renderer,
		backend:   backend,
		workspace: workspace,
		tables:    style.DefaultTables(),
		poll:      poll,
	}
}

// option is one entry of a <select>.
type option struct {
	Value string
	Label string
}

// listView is the data of the "generations" partial.
type listView struct {
	Generations []models.Generation
	Poll        string
	Flashes     []render.Flash
}

// Dashboard renders the deck list and the trigger form.
func (s *Studio) Dashboard(w http.ResponseWriter, r *http.Request) {
	s.renderer.Page(w, r, "dashboard", &render.PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Data: map[string]any{
			"Themes": s.themeOptions(),
			"List":   s.list(r.Context(), nil),
		},
	})
}

// Generations renders the deck list partial. The dashboard polls it.
func (s *Studio) Generations(w http.ResponseWriter, r *http.Request) {
	s.renderer.Partial(w, "generations", s.list(r.Context(), nil))
}

// Trigger starts a generation job from the dashboard form and answers with
// the refreshed deck list.
func (s *Studio) Trigger(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	count, _ := strconv.Atoi(r.FormValue("slide_count"))
	req := models.TriggerRequest{
		Topic:        r.FormValue("topic"),
		SlideCount:   count,
		Theme:        r.FormValue("theme"),
		Mode:         r.FormValue("mode"),
		ExtraContext: r.FormValue("extra_context"),
	}
	req.Normalize()

	var flash render.Flash
	if req.Topic == "" {
		flash = render.Flash{Type: deck.LevelError, Message: "Topic is required"}
	} else if id, err := s.backend.TriggerGeneration(r.Context(), req); err != nil {
		slog.Error("trigger generation failed", "error", err, "topic", req.Topic)
		flash = render.Flash{Type: deck.LevelError, Message: "Failed to start generation"}
	} else {
		slog.Info("generation triggered", "id", id, "topic", req.Topic)
		flash = render.Flash{Type: deck.LevelSuccess, Message: fmt.Sprintf("Generation of %q started", req.Topic)}
	}

	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderer.Partial(w, "generations", s.list(r.Context(), []render.Flash{flash}))
}

func (s *Studio) list(ctx context.Context, flashes []render.Flash) listView {
	v := listView{Poll: s.poll.String(), Flashes: flashes}
	decks, err := s.backend.ListGenerations(ctx)
	if err != nil {
		// Polling continues at the same interval; the next tick may succeed.
		slog.Warn("list generations failed", "error", err)
		v.Flashes = append(v.Flashes, render.Flash{Type: deck.LevelError, Message: "Could not load decks"})
		return v
	}
	v.Generations = decks
	return v
}

func (s *Studio) themeOptions() []option {
	keys := s.tables.Themes.Keys()
	out := make([]option, len(keys))
	for i, k := range keys {
		th, _ := s.tables.Themes.Lookup(k)
		out[i] = option{Value: k, Label: th.Name}
	}
	return out
}

// Editor renders the editor page of one deck.
func (s *Studio) Editor(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	c, err := s.workspace.Open(r.Context(), id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		slog.Error("open deck failed", "error", err, "id", id)
		http.Error(w, "Failed to load deck", http.StatusBadGateway)
		return
	}

	view := s.editorView(c)
	s.renderer.Page(w, r, "editor", &render.PageData{
		Title:   view.Deck.Topic,
		Section: "editor",
		Data:    map[string]any{"View": view},
	})
}

// controller returns the open controller of the {id} deck, loading it if
// the studio restarted since the page was rendered.
func (s *Studio) controller(w http.ResponseWriter, r *http.Request) (*deck.Controller, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return nil, false
	}
	c, err := s.workspace.Open(r.Context(), id)
	if err != nil {
		slog.Error("open deck failed", "error", err, "id", id)
		http.Error(w, "Failed to load deck", http.StatusBadGateway)
		return nil, false
	}
	return c, true
}

// workspaceResponse re-renders the editor workspace after an action,
// flushing queued notices. extra is shown in addition to them.
func (s *Studio) workspaceResponse(w http.ResponseWriter, c *deck.Controller, extra ...render.Flash) {
	view := s.editorView(c)
	view.Flashes = append(view.Flashes, extra...)
	s.renderer.Partial(w, "workspace", view)
}

// Select makes a slide active.
func (s *Studio) Select(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || c.SelectSlide(i) != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	s.workspaceResponse(w, c)
}

// AddSlide inserts a slide of the posted type.
func (s *Studio) AddSlide(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	c.AddSlide(models.SlideType(r.FormValue("type")))
	s.workspaceResponse(w, c)
}

// DeleteSlide removes a slide. Deleting the last one only shows a warning.
func (s *Studio) DeleteSlide(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if err := c.DeleteSlide(i); errors.Is(err, deck.ErrOutOfRange) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	s.workspaceResponse(w, c)
}

// UpdateField applies every posted editable field to the deck. Inputs post
// themselves on change, so this is normally a single field.
func (s *Studio) UpdateField(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var flashes []render.Flash
	for name, values := range r.PostForm {
		// Forms post more than slide fields; anything else is ignored.
		if len(values) == 0 || !deck.EditableField(name) {
			continue
		}
		if err := c.UpdateField(name, values[0]); err != nil {
			flashes = append(flashes, render.Flash{Type: deck.LevelError, Message: err.Error()})
		}
	}
	s.workspaceResponse(w, c, flashes...)
}

// Save persists the local edits.
func (s *Studio) Save(w http.ResponseWriter, r *http.Request) {
	s.remote(w, r, func(ctx context.Context, c *deck.Controller) error {
		return c.Save(ctx)
	})
}

// GenerateImage generates the background of the active slide.
func (s *Studio) GenerateImage(w http.ResponseWriter, r *http.Request) {
	s.remote(w, r, func(ctx context.Context, c *deck.Controller) error {
		slide, _, ok := c.Active()
		if !ok {
			return deck.ErrNotLoaded
		}
		return c.RequestBackgroundImage(ctx, slide.ID)
	})
}

// GenerateVisuals starts bulk background generation.
func (s *Studio) GenerateVisuals(w http.ResponseWriter, r *http.Request) {
	s.remote(w, r, func(ctx context.Context, c *deck.Controller) error {
		return c.GenerateVisuals(ctx)
	})
}

// Reload discards local edits and loads the deck again.
func (s *Studio) Reload(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	c, err := s.workspace.Reload(r.Context(), id)
	if errors.Is(err, api.ErrNotFound) {
		s.workspace.Drop(id)
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("reload deck failed", "error", err, "id", id)
		if old, ok := s.workspace.Get(id); ok {
			s.workspaceResponse(w, old, render.Flash{Type: deck.LevelError, Message: "Failed to reload deck"})
			return
		}
		http.Error(w, "Failed to load deck", http.StatusBadGateway)
		return
	}
	s.workspaceResponse(w, c, render.Flash{Type: deck.LevelInfo, Message: "Deck reloaded"})
}

// remote runs a controller operation that calls the backend. Failures are
// already queued as notices by the controller; ErrBusy gets its own.
func (s *Studio) remote(w http.ResponseWriter, r *http.Request, op func(context.Context, *deck.Controller) error) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	var extra []render.Flash
	if err := op(r.Context(), c); errors.Is(err, deck.ErrBusy) {
		extra = append(extra, render.Flash{Type: deck.LevelWarning, Message: "Already running, please wait"})
	}
	s.workspaceResponse(w, c, extra...)
}

// Canvas renders the active slide alone.
func (s *Studio) Canvas(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	s.renderer.Partial(w, "canvas", s.editorView(c))
}

// Export downloads the active slide as slide-{n}.png.
func (s *Studio) Export(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	data, name, err := c.ExportActive(r.Context())
	switch {
	case errors.Is(err, deck.ErrBusy):
		http.Error(w, "Export already running", http.StatusConflict)
		return
	case err != nil:
		// Nothing is downloaded on failure.
		http.Error(w, "Export failed", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// isHTMX returns true if the request was made by HTMX.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
