// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package deck

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"slidedeck/internal/canvas"
)

// Workspace keeps one Controller per open deck for the lifetime of the
// studio process.
type Workspace struct {
	backend  Backend
	exporter Exporter
	opts     canvas.Options

	mu    sync.Mutex
	decks map[uuid.UUID]*Controller
}

// NewWorkspace creates an empty workspace.
func NewWorkspace(backend Backend, exporter Exporter, opts canvas.Options) *Workspace {
	return &Workspace{
		backend:  backend,
		exporter: exporter,
		opts:     opts,
		decks:    make(map[uuid.UUID]*Controller),
	}
}

// Open returns the controller of deck id, loading it on first use. A deck
// that fails to load is not kept. Concurrent first opens all get the
// controller that was stored first.
func (w *Workspace) Open(ctx context.Context, id uuid.UUID) (*Controller, error) {
	if c, ok := w.Get(id); ok {
		return c, nil
	}
	c, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if existing, ok := w.decks[id]; ok {
		return existing, nil
	}
	w.decks[id] = c
	return c, nil
}

// Get returns an already open controller.
func (w *Workspace) Get(id uuid.UUID) (*Controller, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.decks[id]
	return c, ok
}

// Reload fetches deck id again and replaces its controller, dropping
// unsaved local edits. On failure the previous controller stays.
func (w *Workspace) Reload(ctx context.Context, id uuid.UUID) (*Controller, error) {
	c, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.decks[id] = c
	return c, nil
}

// Drop forgets deck id, for decks deleted on the backend.
func (w *Workspace) Drop(id uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.decks, id)
}

func (w *Workspace) load(ctx context.Context, id uuid.UUID) (*Controller, error) {
	c := New(id, w.backend, w.exporter, w.opts)
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
