// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package deck owns the editing state of one deck: the in-memory slide list,
// the active slide, and the orchestration of the remote operations (load,
// save, background generation, bulk visuals) and the PNG export.
//
// Remote failures never change local state. They are reported both as the
// returned error and as a Notice for the UI. Each remote operation can only
// run once at a time per deck; a second call while one is in flight returns
// ErrBusy.
package deck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"slidedeck/internal/canvas"
	"slidedeck/internal/export"
	"slidedeck/internal/models"
	"slidedeck/internal/style"
)

var (
	// ErrBusy means the same operation is already in flight for this deck.
	ErrBusy = errors.New("deck: operation already in progress")
	// ErrLastSlide is returned when deleting the only remaining slide.
	ErrLastSlide = errors.New("deck: a deck keeps at least one slide")
	// ErrOutOfRange is returned for slide indexes outside the deck.
	ErrOutOfRange = errors.New("deck: slide index out of range")
	// ErrNotLoaded is returned by operations that need a loaded deck.
	ErrNotLoaded = errors.New("deck: not loaded")
)

// Backend is the remote collaborator. api.Client implements it.
type Backend interface {
	GetGeneration(ctx context.Context, id uuid.UUID) (*models.Generation, error)
	UpdateGeneration(ctx context.Context, id uuid.UUID, patch models.GenerationPatch) error
	GenerateImage(ctx context.Context, id uuid.UUID, slideID string) (string, error)
	GenerateViralVisuals(ctx context.Context, id uuid.UUID) error
}

// Exporter rasterizes a canvas tree. export.Exporter implements it.
type Exporter interface {
	PNG(ctx context.Context, t canvas.Tree) ([]byte, error)
}

// operation names an in-flight remote call.
type operation string

const (
	opLoad     operation = "load"
	opSave     operation = "save"
	opExport   operation = "export"
	opVisuals  operation = "visuals"
	opBgPrefix operation = "background:"
)

// Controller is the editing state of one deck. It is safe for concurrent
// use; remote calls run without holding the lock.
type Controller struct {
	id       uuid.UUID
	backend  Backend
	exporter Exporter
	tables   *style.Tables
	opts     canvas.Options

	mu       sync.Mutex
	loaded   bool
	deck     models.Generation
	slides   []models.Slide
	active   int
	inflight map[operation]bool
	notices  []Notice
}

// New creates a controller for deck id. Call Load before editing.
func New(id uuid.UUID, backend Backend, exporter Exporter, opts canvas.Options) *Controller {
	return &Controller{
		id:       id,
		backend:  backend,
		exporter: exporter,
		tables:   style.DefaultTables(),
		opts:     opts,
		inflight: make(map[operation]bool),
	}
}

// ID returns the deck id.
func (c *Controller) ID() uuid.UUID {
	return c.id
}

// Load fetches the deck and replaces the local state. The active slide is
// reset to the first one.
func (c *Controller) Load(ctx context.Context) error {
	if err := c.begin(opLoad); err != nil {
		return err
	}
	defer c.end(opLoad)

	g, err := c.backend.GetGeneration(ctx, c.id)
	if err != nil {
		c.fail("Failed to load deck", err)
		return fmt.Errorf("load deck %s: %w", c.id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.deck = *g
	c.slides = slices.Clone(g.Slides)
	c.deck.Slides = nil
	c.active = 0
	c.loaded = true
	return nil
}

// Loaded reports whether a deck has been loaded.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Deck returns a snapshot of the deck with the current local slides.
func (c *Controller) Deck() models.Generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := c.deck
	g.Slides = slices.Clone(c.slides)
	return g
}

// Slides returns a copy of the slide list.
func (c *Controller) Slides() []models.Slide {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.slides)
}

// Active returns the active slide and its index. ok is false for an empty
// deck.
func (c *Controller) Active() (s models.Slide, index int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.slides) == 0 {
		return models.Slide{}, 0, false
	}
	return c.slides[c.active], c.active, true
}

// SelectSlide makes slide i active.
func (c *Controller) SelectSlide(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.slides) {
		return ErrOutOfRange
	}
	c.active = i
	return nil
}

// AddSlide inserts a new slide of the given type and makes it active. The
// new slide inherits theme and theme mode from the active slide. When the
// deck has a CTA slide the new slide goes right before it, so the CTA
// stays last. It returns the index of the new slide.
func (c *Controller) AddSlide(typ models.SlideType) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := models.NewSlide("New Slide", "Add content...", "Abstract")
	switch typ {
	case models.SlideTypeHero, models.SlideTypeCTA:
		s.Type = string(typ)
	}
	s.TextBgEnabled = models.Bool(true)
	if len(c.slides) > 0 {
		cur := c.slides[c.active]
		s.Theme = cur.Theme
		s.ThemeMode = cur.ThemeMode
	} else {
		s.Theme = c.deck.Theme
	}

	at := len(c.slides)
	if i := slices.IndexFunc(c.slides, func(s models.Slide) bool { return s.IsCTA() }); i >= 0 {
		at = i
	}
	c.slides = slices.Insert(c.slides, at, s)
	c.active = at
	return at
}

// DeleteSlide removes slide i. Deleting the only slide is refused with a
// warning notice. The active index moves to a valid neighbour.
func (c *Controller) DeleteSlide(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.slides) <= 1 {
		c.notify(LevelWarning, "Cannot delete the last slide")
		return ErrLastSlide
	}
	if i < 0 || i >= len(c.slides) {
		return ErrOutOfRange
	}
	c.slides = slices.Delete(c.slides, i, i+1)
	if c.active >= i && c.active > 0 {
		c.active--
	}
	c.active = min(c.active, len(c.slides)-1)
	return nil
}

// Save persists the local slide list. Local edits are kept whether or not
// the save succeeds.
func (c *Controller) Save(ctx context.Context) error {
	if err := c.begin(opSave); err != nil {
		return err
	}
	defer c.end(opSave)

	c.mu.Lock()
	if !c.loaded {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	patch := models.GenerationPatch{Slides: slices.Clone(c.slides)}
	if c.deck.Theme != "" {
		theme := c.deck.Theme
		patch.Theme = &theme
	}
	c.mu.Unlock()

	if err := c.backend.UpdateGeneration(ctx, c.id, patch); err != nil {
		c.fail("Failed to save deck", err)
		return fmt.Errorf("save deck %s: %w", c.id, err)
	}
	c.post(LevelSuccess, "Deck saved")
	return nil
}

// Tree renders slide i to its visual tree.
func (c *Controller) Tree(i int) (canvas.Tree, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.slides) {
		return canvas.Tree{}, ErrOutOfRange
	}
	return c.render(c.slides[i]), nil
}

func (c *Controller) render(s models.Slide) canvas.Tree {
	return canvas.Render(s, style.Resolve(s, c.tables), c.opts)
}

// ExportActive rasterizes the active slide. It returns the PNG and its
// download name, slide-{n}.png with n the 1-based slide number.
func (c *Controller) ExportActive(ctx context.Context) ([]byte, string, error) {
	if err := c.begin(opExport); err != nil {
		return nil, "", err
	}
	defer c.end(opExport)

	c.mu.Lock()
	if len(c.slides) == 0 {
		c.mu.Unlock()
		return nil, "", ErrNotLoaded
	}
	tree := c.render(c.slides[c.active])
	name := export.FileName(c.active + 1)
	c.mu.Unlock()

	png, err := c.exporter.PNG(ctx, tree)
	if err != nil {
		c.fail("Export failed", err)
		return nil, "", fmt.Errorf("export slide: %w", err)
	}
	return png, name, nil
}

// RequestBackgroundImage asks the backend to generate the background of
// the slide with the given id and stores the returned URL on it.
func (c *Controller) RequestBackgroundImage(ctx context.Context, slideID string) error {
	op := opBgPrefix + operation(slideID)
	if err := c.begin(op); err != nil {
		return err
	}
	defer c.end(op)

	url, err := c.backend.GenerateImage(ctx, c.id, slideID)
	if err != nil {
		c.fail("Image generation failed", err)
		return fmt.Errorf("generate image for slide %s: %w", slideID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// The slide may have moved while the request ran.
	i := slices.IndexFunc(c.slides, func(s models.Slide) bool { return s.ID == slideID })
	if i < 0 {
		slog.Warn("generated image for a deleted slide", "deck", c.id, "slide", slideID)
		return nil
	}
	c.slides[i].BackgroundURL = url
	c.notify(LevelSuccess, "Background generated")
	return nil
}

// GenerateVisuals starts bulk background generation on the backend. The
// images show up on the next Load.
func (c *Controller) GenerateVisuals(ctx context.Context) error {
	if err := c.begin(opVisuals); err != nil {
		return err
	}
	defer c.end(opVisuals)

	if err := c.backend.GenerateViralVisuals(ctx, c.id); err != nil {
		c.fail("Visual generation failed", err)
		return fmt.Errorf("generate visuals: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.deck.Mode = models.ModeViral
	c.notify(LevelInfo, "Visual generation started, reload in a minute to see the results")
	return nil
}

// begin marks op in flight, or returns ErrBusy when it already is.
func (c *Controller) begin(op operation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[op] {
		return ErrBusy
	}
	c.inflight[op] = true
	return nil
}

func (c *Controller) end(op operation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, op)
}

// Busy reports whether any remote operation is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight) > 0
}

// fail logs err and queues an error notice. Must be called without the lock.
func (c *Controller) fail(msg string, err error) {
	slog.Error(msg, "deck", c.id, "error", err)
	c.post(LevelError, msg)
}
