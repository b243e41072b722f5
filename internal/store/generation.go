// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store holds the PostgreSQL persistence for decks. Slides live in
// a JSONB column of the generations table so a deck is always read and
// written as a whole.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"slidedeck/internal/models"
)

// ErrNotFound is returned by mutations whose target deck or slide does not
// exist. Lookups return (nil, nil) instead.
var ErrNotFound = errors.New("store: not found")

// DefaultListLimit is the number of decks List returns when no limit is given.
const DefaultListLimit = 100

const generationColumns = `id, topic, status, mode, theme, slide_count, slides, error, created_at, updated_at`

// GenerationStore handles all deck-related database operations.
type GenerationStore struct {
	db *sql.DB
}

// NewGenerationStore creates a new GenerationStore with the given database connection.
func NewGenerationStore(db *sql.DB) *GenerationStore {
	return &GenerationStore{db: db}
}

// scanGeneration scans a single row into a Generation, decoding the slides.
func scanGeneration(scanner interface{ Scan(...any) error }) (*models.Generation, error) {
	g := &models.Generation{}
	var slides []byte
	var failure sql.NullString
	err := scanner.Scan(
		&g.ID, &g.Topic, &g.Status, &g.Mode, &g.Theme, &g.SlideCount,
		&slides, &failure, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	g.Error = failure.String
	if err := json.Unmarshal(slides, &g.Slides); err != nil {
		return nil, fmt.Errorf("decode slides of %s: %w", g.ID, err)
	}
	if g.Slides == nil {
		g.Slides = []models.Slide{}
	}
	return g, nil
}

// List returns decks ordered by creation date, newest first. A limit of
// zero or less uses DefaultListLimit.
func (s *GenerationStore) List(limit int) ([]models.Generation, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.Query(`
		SELECT `+generationColumns+`
		FROM generations
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	items := []models.Generation{}
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		items = append(items, *g)
	}
	return items, rows.Err()
}

// FindByID retrieves a deck by its UUID. Returns nil if not found.
func (s *GenerationStore) FindByID(id uuid.UUID) (*models.Generation, error) {
	g, err := scanGeneration(s.db.QueryRow(`
		SELECT `+generationColumns+` FROM generations WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find generation by id: %w", err)
	}
	return g, nil
}

// Create inserts a new deck and returns it as stored. A nil ID is replaced
// by a fresh one.
func (s *GenerationStore) Create(g *models.Generation) (*models.Generation, error) {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	slides := g.Slides
	if slides == nil {
		slides = []models.Slide{}
	}
	payload, err := json.Marshal(slides)
	if err != nil {
		return nil, fmt.Errorf("encode slides: %w", err)
	}

	result, err := scanGeneration(s.db.QueryRow(`
		INSERT INTO generations (id, topic, status, mode, theme, slide_count, slides)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
		RETURNING `+generationColumns+`
	`, g.ID, g.Topic, g.Status, g.Mode, g.Theme, g.SlideCount, string(payload)))
	if err != nil {
		return nil, fmt.Errorf("create generation: %w", err)
	}
	return result, nil
}

// Update applies a partial update. Nil patch fields keep their stored value.
func (s *GenerationStore) Update(id uuid.UUID, p models.GenerationPatch) error {
	slides := sql.NullString{}
	if p.Slides != nil {
		payload, err := json.Marshal(p.Slides)
		if err != nil {
			return fmt.Errorf("encode slides: %w", err)
		}
		slides = sql.NullString{String: string(payload), Valid: true}
	}

	result, err := s.db.Exec(`
		UPDATE generations SET
			topic = COALESCE($2, topic),
			status = COALESCE($3, status),
			mode = COALESCE($4, mode),
			theme = COALESCE($5, theme),
			slides = COALESCE($6::jsonb, slides),
			updated_at = NOW()
		WHERE id = $1
	`, id, nullString(p.Topic), nullString((*string)(p.Status)), nullString((*string)(p.Mode)),
		nullString(p.Theme), slides)
	if err != nil {
		return fmt.Errorf("update generation: %w", err)
	}
	return expectRow(result, "generation")
}

// SetStatus changes the lifecycle state of a deck.
func (s *GenerationStore) SetStatus(id uuid.UUID, status models.GenerationStatus) error {
	result, err := s.db.Exec(`
		UPDATE generations SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("set generation status: %w", err)
	}
	return expectRow(result, "generation")
}

// SetMode changes the generation mode of a deck.
func (s *GenerationStore) SetMode(id uuid.UUID, mode models.GenerationMode) error {
	result, err := s.db.Exec(`
		UPDATE generations SET mode = $2, updated_at = NOW() WHERE id = $1
	`, id, mode)
	if err != nil {
		return fmt.Errorf("set generation mode: %w", err)
	}
	return expectRow(result, "generation")
}

// Complete stores the slides produced by a job together with the final
// status.
func (s *GenerationStore) Complete(id uuid.UUID, status models.GenerationStatus, slides []models.Slide) error {
	payload, err := json.Marshal(slides)
	if err != nil {
		return fmt.Errorf("encode slides: %w", err)
	}
	result, err := s.db.Exec(`
		UPDATE generations SET status = $2, slides = $3::jsonb, updated_at = NOW() WHERE id = $1
	`, id, status, string(payload))
	if err != nil {
		return fmt.Errorf("complete generation: %w", err)
	}
	return expectRow(result, "generation")
}

// SetFailed marks a deck as failed and records the reason.
func (s *GenerationStore) SetFailed(id uuid.UUID, reason string) error {
	result, err := s.db.Exec(`
		UPDATE generations SET status = $2, error = $3, updated_at = NOW() WHERE id = $1
	`, id, models.StatusFailed, reason)
	if err != nil {
		return fmt.Errorf("set generation failed: %w", err)
	}
	return expectRow(result, "generation")
}

// SetSlideBackground sets background_url of one slide. The deck row is
// locked for the read-modify-write so concurrent edits of other slides are
// not lost.
func (s *GenerationStore) SetSlideBackground(id uuid.UUID, slideID, url string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var raw []byte
	err = tx.QueryRow(`SELECT slides FROM generations WHERE id = $1 FOR UPDATE`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("generation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock generation: %w", err)
	}

	var slides []models.Slide
	if err := json.Unmarshal(raw, &slides); err != nil {
		return fmt.Errorf("decode slides: %w", err)
	}
	g := models.Generation{Slides: slides}
	i := g.SlideIndex(slideID)
	if i < 0 {
		return fmt.Errorf("slide %s: %w", slideID, ErrNotFound)
	}
	slides[i].BackgroundURL = url

	payload, err := json.Marshal(slides)
	if err != nil {
		return fmt.Errorf("encode slides: %w", err)
	}
	if _, err := tx.Exec(`
		UPDATE generations SET slides = $2::jsonb, updated_at = NOW() WHERE id = $1
	`, id, string(payload)); err != nil {
		return fmt.Errorf("update slide background: %w", err)
	}
	return tx.Commit()
}

// Delete removes a deck.
func (s *GenerationStore) Delete(id uuid.UUID) error {
	result, err := s.db.Exec(`DELETE FROM generations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete generation: %w", err)
	}
	return expectRow(result, "generation")
}

func expectRow(result sql.Result, what string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
