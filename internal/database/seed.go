// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"slidedeck/internal/models"
)

// Seed populates an empty database with a sample deck for development, so
// the dashboard and editor have something to show before the first job.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM generations").Scan(&count); err != nil {
		return fmt.Errorf("seed check generations: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	slides := SampleSlides(models.DefaultTheme)
	payload, err := json.Marshal(slides)
	if err != nil {
		return fmt.Errorf("seed marshal slides: %w", err)
	}

	id := uuid.New()
	_, err = db.Exec(`
		INSERT INTO generations (id, topic, status, mode, theme, slide_count, slides)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, "Why carousels outperform single images", models.StatusDraft, models.ModeStandard,
		models.DefaultTheme, len(slides), payload)
	if err != nil {
		return fmt.Errorf("seed insert generation: %w", err)
	}

	slog.Info("database seeded with sample deck", "id", id)
	return nil
}

// SampleSlides returns the sample deck: a hero, two body slides and a CTA.
func SampleSlides(theme string) []models.Slide {
	hero := models.NewSlide("Carousels win", "Three reasons your next post should swipe", "Abstract gradient waves, deep navy")
	hero.Type = string(models.SlideTypeHero)

	body1 := models.NewSlide("Dwell time", "Every swipe tells the feed your post is **worth** showing", "Hourglass made of light")
	body2 := models.NewSlide("Second chances", "Unswiped carousels are shown again with the *next* slide", "Two doors side by side")
	body2.Layout = "split_left"

	cta := models.NewSlide("Follow for more", "@agency", "Minimal desk with a laptop")
	cta.Type = string(models.SlideTypeCTA)

	slides := []models.Slide{hero, body1, body2, cta}
	for i := range slides {
		slides[i].Theme = theme
		slides[i].ThemeMode = "dark"
	}
	return slides
}
