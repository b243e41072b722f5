// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerationStatus is the lifecycle state of a deck produced by a job.
type GenerationStatus string

const (
	StatusPending    GenerationStatus = "pending"
	StatusProcessing GenerationStatus = "processing"
	StatusDraft      GenerationStatus = "draft"
	StatusCompleted  GenerationStatus = "completed"
	StatusFailed     GenerationStatus = "failed"
)

// Valid reports whether s is a known status.
func (s GenerationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusDraft, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// GenerationMode distinguishes plain decks from decks whose visuals are
// produced in bulk.
type GenerationMode string

const (
	ModeStandard GenerationMode = "standard"
	ModeViral    GenerationMode = "viral"
)

// Valid reports whether m is a known mode.
func (m GenerationMode) Valid() bool {
	return m == ModeStandard || m == ModeViral
}

// Deck defaults shared by the trigger endpoint and the generator.
const (
	DefaultSlideCount = 5
	MinSlideCount     = 1
	MaxSlideCount     = 10
	DefaultTheme      = "trust_clarity"
)

// Generation is a deck: the ordered slides produced by one generation job.
type Generation struct {
	ID         uuid.UUID        `json:"id"`
	Topic      string           `json:"topic"`
	Status     GenerationStatus `json:"status"`
	Mode       GenerationMode   `json:"mode"`
	Theme      string           `json:"theme"`
	SlideCount int              `json:"slide_count"`
	Slides     []Slide          `json:"slides"`
	Error      string           `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// SlideIndex returns the position of the slide with the given ID, or -1.
func (g *Generation) SlideIndex(slideID string) int {
	for i := range g.Slides {
		if g.Slides[i].ID == slideID {
			return i
		}
	}
	return -1
}

// GenerationPatch carries the fields of a PUT /generations/{id} body. Nil
// fields are left untouched.
type GenerationPatch struct {
	Topic  *string           `json:"topic,omitempty"`
	Status *GenerationStatus `json:"status,omitempty"`
	Mode   *GenerationMode   `json:"mode,omitempty"`
	Theme  *string           `json:"theme,omitempty"`
	Slides []Slide           `json:"slides,omitempty"`
}

// TriggerRequest is the body of POST /webhooks/trigger.
type TriggerRequest struct {
	Topic        string `json:"topic"`
	SlideCount   int    `json:"slide_count,omitempty"`
	Theme        string `json:"theme,omitempty"`
	Mode         string `json:"mode,omitempty"`
	RSSSource    string `json:"rss_source,omitempty"`
	ExtraContext string `json:"extra_context,omitempty"`
}

// Normalize trims the topic and applies defaults: slide count clamped to
// [MinSlideCount, MaxSlideCount], default theme and standard mode.
func (t *TriggerRequest) Normalize() {
	t.Topic = strings.TrimSpace(t.Topic)
	switch {
	case t.SlideCount == 0:
		t.SlideCount = DefaultSlideCount
	case t.SlideCount < MinSlideCount:
		t.SlideCount = MinSlideCount
	case t.SlideCount > MaxSlideCount:
		t.SlideCount = MaxSlideCount
	}
	if strings.TrimSpace(t.Theme) == "" {
		t.Theme = DefaultTheme
	}
	if GenerationMode(t.Mode) != ModeViral {
		t.Mode = string(ModeStandard)
	}
}

// Context joins the optional RSS source and extra context handed to the
// content writer.
func (t *TriggerRequest) Context() string {
	return strings.TrimSpace(t.RSSSource + " " + t.ExtraContext)
}
