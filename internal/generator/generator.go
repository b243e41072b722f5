// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package generator runs the backend jobs: writing slide copy for a new
// deck and drawing slide backgrounds, one at a time or in bulk.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"slidedeck/internal/ai"
	"slidedeck/internal/canvas"
	"slidedeck/internal/imaging"
	"slidedeck/internal/models"
)

var (
	// ErrDeckNotFound is returned when the target deck does not exist.
	ErrDeckNotFound = errors.New("generator: deck not found")
	// ErrSlideNotFound is returned when the target slide does not exist.
	ErrSlideNotFound = errors.New("generator: slide not found")
	// ErrFlagged is returned when moderation rejects a background prompt.
	ErrFlagged = errors.New("generator: prompt flagged by moderation")
	// ErrNoStorage is returned when images cannot be stored.
	ErrNoStorage = errors.New("generator: object storage is not configured")
	// ErrClosed is returned once Shutdown has been called.
	ErrClosed = errors.New("generator: shutting down")
)

const (
	// jobTimeout bounds one background job (copy or bulk visuals).
	jobTimeout = 10 * time.Minute

	defaultBackgroundPrompt = "Abstract minimal background"
)

// Store is the persistence the generator needs.
type Store interface {
	Create(g *models.Generation) (*models.Generation, error)
	FindByID(id uuid.UUID) (*models.Generation, error)
	Complete(id uuid.UUID, status models.GenerationStatus, slides []models.Slide) error
	SetFailed(id uuid.UUID, reason string) error
	SetMode(id uuid.UUID, mode models.GenerationMode) error
	SetStatus(id uuid.UUID, status models.GenerationStatus) error
	SetSlideBackground(id uuid.UUID, slideID, url string) error
}

// AI writes copy, draws images and moderates prompts.
type AI interface {
	Generate(ctx context.Context, p ai.Prompt) (string, error)
	GenerateImage(ctx context.Context, prompt string) (*ai.Image, error)
	CheckPrompt(ctx context.Context, prompt string) (*ai.ModerationResult, error)
}

// Uploader stores generated backgrounds. UploadBackground returns the
// public URL; DeleteBackground removes a replaced one.
type Uploader interface {
	UploadBackground(ctx context.Context, deckID uuid.UUID, topic, contentType string, data []byte) (string, error)
	DeleteBackground(ctx context.Context, url string) error
}

// Generator owns the background jobs of the backend process.
type Generator struct {
	store       Store
	ai          AI
	uploader    Uploader // nil when storage is not configured
	concurrency int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex // guards closed and wg.Add against Shutdown
	closed bool
}

// New creates a Generator. concurrency bounds parallel image generation in
// bulk jobs and is at least 1.
func New(store Store, provider AI, uploader Uploader, concurrency int) *Generator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Generator{
		store:       store,
		ai:          provider,
		uploader:    uploader,
		concurrency: max(concurrency, 1),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// spawn runs job in the background with its own timeout. Jobs outlive the
// HTTP request that started them and stop only on Shutdown.
func (g *Generator) spawn(name string, id uuid.UUID, job func(ctx context.Context) error) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrClosed
	}
	g.wg.Add(1)
	g.mu.Unlock()
	go func() {
		defer g.wg.Done()
		ctx, cancel := context.WithTimeout(g.ctx, jobTimeout)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			slog.Error("job failed", "job", name, "deck", id, "error", err, "duration", time.Since(start))
			return
		}
		slog.Info("job finished", "job", name, "deck", id, "duration", time.Since(start))
	}()
	return nil
}

// Shutdown cancels running jobs and waits for them to return or for ctx
// to expire.
func (g *Generator) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	g.cancel()
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger creates a processing deck for req and writes its copy in the
// background. The returned deck is the stored row before the job runs.
func (g *Generator) Trigger(req models.TriggerRequest) (*models.Generation, error) {
	req.Normalize()
	if req.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	deck, err := g.store.Create(&models.Generation{
		Topic:      req.Topic,
		Status:     models.StatusProcessing,
		Mode:       models.GenerationMode(req.Mode),
		Theme:      req.Theme,
		SlideCount: req.SlideCount,
		Slides:     []models.Slide{},
	})
	if err != nil {
		return nil, fmt.Errorf("create deck: %w", err)
	}

	err = g.spawn("write", deck.ID, func(ctx context.Context) error {
		return g.Process(ctx, deck.ID, req)
	})
	if err != nil {
		if ferr := g.store.SetFailed(deck.ID, err.Error()); ferr != nil {
			slog.Error("mark deck failed", "deck", deck.ID, "error", ferr)
		}
		return nil, err
	}
	return deck, nil
}

// Process writes the copy of deck id. On success the deck becomes a draft;
// on failure it is marked failed with the reason. Viral decks continue
// straight into bulk visual generation.
func (g *Generator) Process(ctx context.Context, id uuid.UUID, req models.TriggerRequest) error {
	slides, err := g.writeSlides(ctx, req)
	if err != nil {
		if ferr := g.store.SetFailed(id, err.Error()); ferr != nil {
			slog.Error("mark deck failed", "deck", id, "error", ferr)
		}
		return err
	}
	if err := g.store.Complete(id, models.StatusDraft, slides); err != nil {
		return fmt.Errorf("store slides: %w", err)
	}
	if models.GenerationMode(req.Mode) == models.ModeViral {
		return g.GenerateAll(ctx, id)
	}
	return nil
}

func (g *Generator) writeSlides(ctx context.Context, req models.TriggerRequest) ([]models.Slide, error) {
	answer, err := g.ai.Generate(ctx, ai.Prompt{
		System: systemPrompt(req.SlideCount),
		User:   userPrompt(req),
		JSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("write slides: %w", err)
	}
	drafts, err := parseSlides(answer)
	if err != nil {
		return nil, err
	}
	if len(drafts) > req.SlideCount {
		drafts = drafts[:req.SlideCount]
	}
	return buildSlides(drafts, req.Theme), nil
}

// buildSlides turns model output into slides: the first is the hero, the
// last the call to action, everything in between a body slide.
func buildSlides(drafts []slideDraft, theme string) []models.Slide {
	slides := make([]models.Slide, len(drafts))
	for i, d := range drafts {
		prompt := strings.TrimSpace(d.BackgroundPrompt)
		if prompt == "" {
			prompt = defaultBackgroundPrompt
		}
		s := models.NewSlide(strings.TrimSpace(d.Title), strings.TrimSpace(d.Content), prompt)
		switch {
		case i == 0:
			s.Type = string(models.SlideTypeHero)
		case i == len(drafts)-1:
			s.Type = string(models.SlideTypeCTA)
		}
		s.Theme = theme
		s.ThemeMode = "dark"
		slides[i] = s
	}
	return slides
}

// GenerateBackground draws the background of one slide, stores it and
// records its URL on the slide. Flagged prompts are refused; moderation
// outages are not.
func (g *Generator) GenerateBackground(ctx context.Context, deckID uuid.UUID, slideID string) (string, error) {
	if g.uploader == nil {
		return "", ErrNoStorage
	}
	deck, err := g.store.FindByID(deckID)
	if err != nil {
		return "", err
	}
	if deck == nil {
		return "", ErrDeckNotFound
	}
	i := deck.SlideIndex(slideID)
	if i < 0 {
		return "", ErrSlideNotFound
	}
	return g.paint(ctx, deck, deck.Slides[i])
}

func (g *Generator) paint(ctx context.Context, deck *models.Generation, slide models.Slide) (string, error) {
	prompt := strings.TrimSpace(slide.BackgroundPrompt)
	if prompt == "" {
		prompt = defaultBackgroundPrompt
	}

	res, err := g.ai.CheckPrompt(ctx, prompt)
	switch {
	case err != nil:
		slog.Warn("moderation check failed, allowing prompt", "deck", deck.ID, "slide", slide.ID, "error", err)
	case !res.Safe:
		return "", fmt.Errorf("%w: %s", ErrFlagged, strings.Join(res.Categories, ", "))
	}

	img, err := g.ai.GenerateImage(ctx, imagePrompt(prompt))
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}
	data, contentType := img.Data, img.ContentType
	if norm, err := imaging.Normalize(img.Data, canvas.Size, imaging.DefaultQuality); err != nil {
		slog.Warn("background not normalized, storing as returned", "deck", deck.ID, "slide", slide.ID, "error", err)
	} else {
		data, contentType = norm.Data, norm.ContentType
	}
	url, err := g.uploader.UploadBackground(ctx, deck.ID, deck.Topic, contentType, data)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	if err := g.store.SetSlideBackground(deck.ID, slide.ID, url); err != nil {
		return "", fmt.Errorf("record image: %w", err)
	}
	slog.Info("background generated", "deck", deck.ID, "slide", slide.ID, "url", url)
	if old := slide.BackgroundURL; old != "" && old != url {
		if err := g.uploader.DeleteBackground(ctx, old); err != nil {
			slog.Warn("old background not removed", "deck", deck.ID, "slide", slide.ID, "url", old, "error", err)
		}
	}
	return url, nil
}

// StartVisuals switches deck id to viral mode and draws its missing
// backgrounds in the background.
func (g *Generator) StartVisuals(id uuid.UUID) error {
	if g.uploader == nil {
		return ErrNoStorage
	}
	deck, err := g.store.FindByID(id)
	if err != nil {
		return err
	}
	if deck == nil {
		return ErrDeckNotFound
	}
	if err := g.store.SetMode(id, models.ModeViral); err != nil {
		return err
	}
	return g.spawn("visuals", id, func(ctx context.Context) error {
		return g.GenerateAll(ctx, id)
	})
}

// GenerateAll draws every slide that has no background yet, at most
// g.concurrency at a time. One failing slide does not stop the others.
// The deck is completed when every slide ends up with a background.
func (g *Generator) GenerateAll(ctx context.Context, id uuid.UUID) error {
	if g.uploader == nil {
		return ErrNoStorage
	}
	deck, err := g.store.FindByID(id)
	if err != nil {
		return err
	}
	if deck == nil {
		return ErrDeckNotFound
	}

	var (
		mu     sync.Mutex
		failed []error
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for _, s := range deck.Slides {
		if s.BackgroundURL != "" {
			continue
		}
		eg.Go(func() error {
			if _, err := g.paint(ctx, deck, s); err != nil {
				mu.Lock()
				failed = append(failed, fmt.Errorf("slide %s: %w", s.ID, err))
				mu.Unlock()
			}
			// Cancellation is the only reason to stop the group.
			return ctx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	if len(failed) > 0 {
		return errors.Join(failed...)
	}
	return g.store.SetStatus(id, models.StatusCompleted)
}
