// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides the fakes and request helpers shared by the
// handler tests. Handlers are exercised with httptest against in-memory
// collaborators, so no database or Valkey is needed.
package handlers

import (
	"context"
	"net/http"
	"slices"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"slidedeck/internal/cache"
	"slidedeck/internal/models"
	"slidedeck/internal/store"
)

// withURLParams attaches chi URL parameters (key, value pairs) to r.
func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// fakeDeckStore keeps decks in memory.
type fakeDeckStore struct {
	mu      sync.Mutex
	decks   map[uuid.UUID]*models.Generation
	listErr error
	limit   int
}

func newFakeDeckStore(decks ...*models.Generation) *fakeDeckStore {
	s := &fakeDeckStore{decks: make(map[uuid.UUID]*models.Generation)}
	for _, g := range decks {
		s.decks[g.ID] = g
	}
	return s
}

func (s *fakeDeckStore) List(limit int) ([]models.Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limit = limit
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Generation
	for _, g := range s.decks {
		out = append(out, *g)
	}
	return out, nil
}

func (s *fakeDeckStore) FindByID(id uuid.UUID) (*models.Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.decks[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	cp.Slides = slices.Clone(g.Slides)
	return &cp, nil
}

func (s *fakeDeckStore) Update(id uuid.UUID, p models.GenerationPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.decks[id]
	if !ok {
		return store.ErrNotFound
	}
	if p.Topic != nil {
		g.Topic = *p.Topic
	}
	if p.Status != nil {
		g.Status = *p.Status
	}
	if p.Mode != nil {
		g.Mode = *p.Mode
	}
	if p.Theme != nil {
		g.Theme = *p.Theme
	}
	if p.Slides != nil {
		g.Slides = p.Slides
	}
	return nil
}

func (s *fakeDeckStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.decks[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.decks, id)
	return nil
}

// fakeJobs records job requests and returns canned results.
type fakeJobs struct {
	mu         sync.Mutex
	triggered  []models.TriggerRequest
	triggerErr error
	url        string
	bgErr      error
	visualsErr error
	visuals    []uuid.UUID
}

func (j *fakeJobs) Trigger(req models.TriggerRequest) (*models.Generation, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.triggerErr != nil {
		return nil, j.triggerErr
	}
	j.triggered = append(j.triggered, req)
	return &models.Generation{ID: uuid.New(), Topic: req.Topic, Status: models.StatusProcessing, SlideCount: req.SlideCount}, nil
}

func (j *fakeJobs) GenerateBackground(_ context.Context, _ uuid.UUID, _ string) (string, error) {
	return j.url, j.bgErr
}

func (j *fakeJobs) StartVisuals(id uuid.UUID) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.visuals = append(j.visuals, id)
	return j.visualsErr
}

// fakeLocker mimics cache.Locker.
type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]string
	err      error
	unlocked []string
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]string)}
}

func (l *fakeLocker) Lock(_ context.Context, key string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", l.err
	}
	if l.held[key] != "" {
		return "", cache.ErrLocked
	}
	token := uuid.NewString()
	l.held[key] = token
	return token, nil
}

func (l *fakeLocker) Unlock(_ context.Context, key, token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	l.unlocked = append(l.unlocked, key)
}
