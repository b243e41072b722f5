// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ai provides a unified interface for the LLM providers that write
// slide copy (OpenAI, Gemini, Claude, Mistral) and the ones that can also
// draw slide backgrounds (OpenAI, Gemini). The Registry selects the active
// provider by name and owns prompt moderation.
package ai

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrNoImageProvider is returned when no configured provider can draw.
var ErrNoImageProvider = errors.New("ai: no image-capable provider configured")

// Prompt is one text generation request.
type Prompt struct {
	System string
	User   string
	// JSON asks the provider to answer with a single JSON object when the
	// API has a switch for it.
	JSON bool
}

// Provider defines the interface that all AI providers must implement.
type Provider interface {
	// Generate sends the prompt to the model and returns the generated text.
	Generate(ctx context.Context, p Prompt) (string, error)

	// Name returns the provider identifier (e.g., "openai", "gemini").
	Name() string
}

// Image is a generated picture.
type Image struct {
	Data        []byte
	ContentType string
}

// ImageGenerator is implemented by providers that can produce images.
// Claude and Mistral are text-only.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (*Image, error)
}

// ProviderConfig holds the credentials and settings for a single provider.
type ProviderConfig struct {
	APIKey     string
	Model      string
	ImageModel string
	BaseURL    string
}

// imagePreference is the order in which image-capable providers are tried
// when the active one cannot draw.
var imagePreference = []string{"openai", "gemini"}

// Registry manages available AI providers and selects the active one.
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	active    string
	moderator Moderator // nil when no moderation API is available
}

// NewRegistry creates a registry and initialises providers for every config
// that has a non-empty API key. Providers without keys are skipped.
// Moderation prefers OpenAI's free endpoint and falls back to Mistral.
func NewRegistry(active string, configs map[string]ProviderConfig) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
		active:    active,
	}

	for name, cfg := range configs {
		if cfg.APIKey == "" {
			continue
		}
		switch name {
		case "openai":
			r.providers[name] = newOpenAI(cfg)
		case "gemini":
			r.providers[name] = newGemini(cfg)
		case "claude":
			r.providers[name] = newClaude(cfg)
		case "mistral":
			r.providers[name] = newMistral(cfg)
		}
	}

	var mods []Moderator
	if cfg := configs["openai"]; cfg.APIKey != "" {
		mods = append(mods, newOpenAIModerator(cfg.APIKey, cfg.BaseURL))
	}
	if cfg := configs["mistral"]; cfg.APIKey != "" {
		mods = append(mods, newMistralModerator(cfg.APIKey, cfg.BaseURL))
	}
	switch len(mods) {
	case 1:
		r.moderator = mods[0]
	case 2:
		r.moderator = &fallbackModerator{primary: mods[0], secondary: mods[1]}
	}

	return r
}

// Generate calls the active provider.
func (r *Registry) Generate(ctx context.Context, p Prompt) (string, error) {
	prov, err := r.Active()
	if err != nil {
		return "", err
	}
	return prov.Generate(ctx, p)
}

// Active returns the currently active provider.
func (r *Registry) Active() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[r.active]
	if !ok {
		return nil, fmt.Errorf("ai: no provider configured for %q", r.active)
	}
	return p, nil
}

// SetActive switches the active provider at runtime.
func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("ai: provider %q is not available (no API key?)", name)
	}
	r.active = name
	return nil
}

// ActiveName returns the name of the currently active provider.
func (r *Registry) ActiveName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Available returns the sorted names of all configured providers.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Register adds or replaces a provider.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// SetModerator replaces the prompt moderator. Nil disables moderation.
func (r *Registry) SetModerator(m Moderator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moderator = m
}

// Painter returns the provider used for images: the active one when it can
// draw, otherwise the first configured image-capable provider.
func (r *Registry) Painter() (ImageGenerator, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ig, ok := r.providers[r.active].(ImageGenerator); ok {
		return ig, r.active, nil
	}
	for _, name := range imagePreference {
		if ig, ok := r.providers[name].(ImageGenerator); ok {
			return ig, name, nil
		}
	}
	return nil, "", ErrNoImageProvider
}

// GenerateImage draws an image with the provider chosen by Painter.
func (r *Registry) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	ig, _, err := r.Painter()
	if err != nil {
		return nil, err
	}
	return ig.GenerateImage(ctx, prompt)
}

// CheckPrompt runs a prompt through the moderation API. Without a moderator
// every prompt is reported safe; providers still apply their own filters.
func (r *Registry) CheckPrompt(ctx context.Context, prompt string) (*ModerationResult, error) {
	r.mu.RLock()
	m := r.moderator
	r.mu.RUnlock()

	if m == nil {
		return &ModerationResult{Safe: true}, nil
	}
	return m.CheckSafety(ctx, prompt)
}

// HasProvider checks whether a named provider is configured.
func (r *Registry) HasProvider(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.providers[name]
	return ok
}
