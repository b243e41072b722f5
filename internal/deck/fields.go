// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package deck

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"slidedeck/internal/models"
)

// ErrUnknownField is returned by UpdateField for field names it does not
// know.
var ErrUnknownField = errors.New("deck: unknown field")

// Bulk fields apply to every slide of the deck at once.
const (
	FieldTheme         = "theme"
	FieldTextBgEnabled = "text_bg_enabled_global"
)

// setter writes one raw form value into a slide.
type setter func(s *models.Slide, value string) error

func str(field func(*models.Slide) *string) setter {
	return func(s *models.Slide, v string) error {
		*field(s) = v
		return nil
	}
}

// slideFields are the per-slide editable fields, keyed by their JSON name.
var slideFields = map[string]setter{
	"title":             str(func(s *models.Slide) *string { return &s.Title }),
	"content":           str(func(s *models.Slide) *string { return &s.Content }),
	"background_prompt": str(func(s *models.Slide) *string { return &s.BackgroundPrompt }),
	"background_url":    str(func(s *models.Slide) *string { return &s.BackgroundURL }),
	"cta_url":           str(func(s *models.Slide) *string { return &s.CTAURL }),
	"type":              str(func(s *models.Slide) *string { return &s.Type }),
	"variant":           str(func(s *models.Slide) *string { return &s.Variant }),
	"layout":            str(func(s *models.Slide) *string { return &s.Layout }),
	"font":              str(func(s *models.Slide) *string { return &s.Font }),
	"text_effect":       str(func(s *models.Slide) *string { return &s.TextEffect }),
	"theme_mode":        str(func(s *models.Slide) *string { return &s.ThemeMode }),
	"font_color":        str(func(s *models.Slide) *string { return &s.FontColor }),
	"headline_color":    str(func(s *models.Slide) *string { return &s.HeadlineColor }),
	"arrow_color":       str(func(s *models.Slide) *string { return &s.ArrowColor }),
	"glass_intensity":   str(func(s *models.Slide) *string { return &s.GlassIntensity }),
	"text_position":     str(func(s *models.Slide) *string { return &s.TextPosition }),
	"text_align":        str(func(s *models.Slide) *string { return &s.TextAlign }),
	"text_width":        str(func(s *models.Slide) *string { return &s.TextWidth }),
	"spacing":           str(func(s *models.Slide) *string { return &s.Spacing }),
	"text_bg_enabled": func(s *models.Slide, v string) error {
		b, err := parseBool(v)
		if err != nil {
			return err
		}
		s.TextBgEnabled = models.Bool(b)
		return nil
	},
	"text_shadow": func(s *models.Slide, v string) error {
		b, err := parseBool(v)
		if err != nil {
			return err
		}
		s.TextShadow = b
		return nil
	},
	"container_opacity": func(s *models.Slide, v string) error {
		if strings.TrimSpace(v) == "" {
			s.ContainerOpacity = nil
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || f < 0 || f > 1 {
			return fmt.Errorf("container_opacity %q: want a number between 0 and 1", v)
		}
		s.ContainerOpacity = models.Float(f)
		return nil
	},
}

// EditableField reports whether UpdateField accepts name.
func EditableField(name string) bool {
	_, ok := slideFields[name]
	return ok || name == FieldTheme || name == FieldTextBgEnabled
}

// UpdateField sets one field. Ordinary fields change the active slide only.
// The bulk fields are the documented exceptions: FieldTheme sets the theme
// of every slide and of the deck, FieldTextBgEnabled toggles the text
// container on every slide.
func (c *Controller) UpdateField(field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.slides) == 0 {
		return ErrNotLoaded
	}

	switch field {
	case FieldTheme:
		for i := range c.slides {
			c.slides[i].Theme = value
		}
		c.deck.Theme = value
		return nil
	case FieldTextBgEnabled:
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		for i := range c.slides {
			c.slides[i].TextBgEnabled = models.Bool(b)
		}
		return nil
	}

	set, ok := slideFields[field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	// Parse into a copy so a bad value leaves the slide untouched.
	s := c.slides[c.active]
	if err := set(&s, value); err != nil {
		return err
	}
	c.slides[c.active] = s
	return nil
}

// parseBool accepts the values HTML checkboxes and selects send.
func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "on", "yes":
		return true, nil
	case "false", "0", "off", "no", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", v)
}
