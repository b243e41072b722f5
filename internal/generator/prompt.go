// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"slidedeck/internal/models"
)

// ErrNoSlides is returned when the model answer holds no usable slide.
var ErrNoSlides = errors.New("generator: model returned no slides")

// slideDraft is one slide as the model writes it.
type slideDraft struct {
	Title            string `json:"title"`
	Content          string `json:"content"`
	BackgroundPrompt string `json:"background_prompt"`
}

func systemPrompt(count int) string {
	return fmt.Sprintf(`You are a social media expert. Write a %d-slide carousel.
Return ONLY a JSON object with a "slides" key holding an array of exactly %d objects.
Each object must have:
- "title": a short, punchy headline.
- "content": the main text, at most 30 words. **bold** and *italic* are allowed.
- "background_prompt": a visual description for an image model (abstract, texture, minimalist, 4k, no text).
The first slide is the hook. The last slide is a call to action.`, count, count)
}

func userPrompt(req models.TriggerRequest) string {
	var b strings.Builder
	b.WriteString("Topic: ")
	b.WriteString(req.Topic)
	if c := req.Context(); c != "" {
		b.WriteString("\nContext: ")
		b.WriteString(c)
	}
	return b.String()
}

// imagePrompt keeps generated backgrounds free of lettering, which would
// fight with the slide copy drawn on top.
func imagePrompt(prompt string) string {
	return prompt + ". Square composition, no text, no letters, no watermark."
}

// parseSlides reads the model answer. It accepts {"slides": [...]} as
// asked, a bare array, and either one wrapped in a markdown code fence.
func parseSlides(answer string) ([]slideDraft, error) {
	raw := stripFences(answer)

	var drafts []slideDraft
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &drafts); err != nil {
			return nil, fmt.Errorf("parse slides: %w", err)
		}
	} else {
		var wrapped struct {
			Slides []slideDraft `json:"slides"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
			return nil, fmt.Errorf("parse slides: %w", err)
		}
		drafts = wrapped.Slides
	}

	out := drafts[:0]
	for _, d := range drafts {
		if strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.Content) == "" {
			continue
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, ErrNoSlides
	}
	return out, nil
}

// stripFences removes a surrounding ```json ... ``` block.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.Index(s, "\n"); i != -1 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	if i := strings.LastIndex(s, "```"); i != -1 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
