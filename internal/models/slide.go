// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the records shared by the backend and the studio:
// slides, decks (generations) and the job trigger payload.
package models

import "github.com/google/uuid"

// SlideType selects the outer content template of a slide.
type SlideType string

const (
	SlideTypeHero SlideType = "hero"
	SlideTypeBody SlideType = "body"
	SlideTypeCTA  SlideType = "cta"
)

// Slide is one 1080x1080 card of a deck. Enum-like fields are plain strings
// on purpose: unknown values survive a load/save round trip and are resolved
// to defaults by the style resolver instead of being rejected here.
type Slide struct {
	ID               string `json:"id"`
	Type             string `json:"type,omitempty"`
	Variant          string `json:"variant,omitempty"`
	Layout           string `json:"layout,omitempty"`
	Title            string `json:"title"`
	Content          string `json:"content"`
	BackgroundPrompt string `json:"background_prompt"`
	BackgroundURL    string `json:"background_url,omitempty"`
	CTAURL           string `json:"cta_url,omitempty"`

	Font       string `json:"font,omitempty"`
	TextEffect string `json:"text_effect,omitempty"`
	Theme      string `json:"theme,omitempty"`
	ThemeMode  string `json:"theme_mode,omitempty"`

	FontColor        string   `json:"font_color,omitempty"`
	HeadlineColor    string   `json:"headline_color,omitempty"`
	ArrowColor       string   `json:"arrow_color,omitempty"`
	TextBgEnabled    *bool    `json:"text_bg_enabled,omitempty"`
	ContainerOpacity *float64 `json:"container_opacity,omitempty"`
	GlassIntensity   string   `json:"glass_intensity,omitempty"`
	TextPosition     string   `json:"text_position,omitempty"`
	TextAlign        string   `json:"text_align,omitempty"`
	TextWidth        string   `json:"text_width,omitempty"`
	TextShadow       bool     `json:"text_shadow,omitempty"`
	Spacing          string   `json:"spacing,omitempty"`
}

// IsCTA reports whether the slide uses the call-to-action template.
func (s *Slide) IsCTA() bool {
	return SlideType(s.Type) == SlideTypeCTA
}

// ContainerEnabled returns text_bg_enabled with its default (true) applied.
func (s *Slide) ContainerEnabled() bool {
	return s.TextBgEnabled == nil || *s.TextBgEnabled
}

// NewSlide returns a body slide with a fresh ID and the given copy.
func NewSlide(title, content, backgroundPrompt string) Slide {
	return Slide{
		ID:               uuid.NewString(),
		Type:             string(SlideTypeBody),
		Variant:          "1",
		Layout:           "default",
		Title:            title,
		Content:          content,
		BackgroundPrompt: backgroundPrompt,
	}
}

// Bool returns a pointer to b. Used for optional boolean slide fields.
func Bool(b bool) *bool { return &b }

// Float returns a pointer to f. Used for optional numeric slide fields.
func Float(f float64) *float64 { return &f }
