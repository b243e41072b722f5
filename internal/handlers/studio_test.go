// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"slidedeck/internal/api"
	"slidedeck/internal/canvas"
	"slidedeck/internal/deck"
	"slidedeck/internal/models"
	"slidedeck/internal/render"
)

// fakeBackend stands in for api.Client on the studio side.
type fakeBackend struct {
	mu         sync.Mutex
	decks      map[uuid.UUID]*models.Generation
	listErr    error
	triggerErr error
	triggered  []models.TriggerRequest
	saved      []models.GenerationPatch
	saveErr    error
	imageURL   string
	visuals    int
}

func newFakeBackend(decks ...*models.Generation) *fakeBackend {
	b := &fakeBackend{decks: make(map[uuid.UUID]*models.Generation), imageURL: "https://cdn.example.com/new.png"}
	for _, g := range decks {
		b.decks[g.ID] = g
	}
	return b
}

func (b *fakeBackend) ListGenerations(context.Context) ([]models.Generation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listErr != nil {
		return nil, b.listErr
	}
	var out []models.Generation
	for _, g := range b.decks {
		out = append(out, *g)
	}
	return out, nil
}

func (b *fakeBackend) TriggerGeneration(_ context.Context, req models.TriggerRequest) (uuid.UUID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.triggerErr != nil {
		return uuid.Nil, b.triggerErr
	}
	b.triggered = append(b.triggered, req)
	return uuid.New(), nil
}

func (b *fakeBackend) GetGeneration(_ context.Context, id uuid.UUID) (*models.Generation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.decks[id]
	if !ok {
		return nil, api.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (b *fakeBackend) UpdateGeneration(_ context.Context, _ uuid.UUID, p models.GenerationPatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveErr != nil {
		return b.saveErr
	}
	b.saved = append(b.saved, p)
	return nil
}

func (b *fakeBackend) GenerateImage(context.Context, uuid.UUID, string) (string, error) {
	return b.imageURL, nil
}

func (b *fakeBackend) GenerateViralVisuals(context.Context, uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.visuals++
	return nil
}

type fakePNG struct{ err error }

func (f fakePNG) PNG(context.Context, canvas.Tree) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("\x89PNG fake"), nil
}

type studioEnv struct {
	studio  *Studio
	backend *fakeBackend
	deck    *models.Generation
}

func newStudioEnv(t *testing.T, exportErr error) *studioEnv {
	t.Helper()
	rn, err := render.New(false)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	g := &models.Generation{
		ID:     uuid.New(),
		Topic:  "Deep work",
		Status: models.StatusDraft,
		Theme:  models.DefaultTheme,
		Slides: []models.Slide{
			models.NewSlide("Intro", "hello", "dawn"),
			models.NewSlide("Closing", "bye", "dusk"),
		},
		CreatedAt: time.Now(),
	}
	g.Slides[1].Type = string(models.SlideTypeCTA)
	b := newFakeBackend(g)
	ws := deck.NewWorkspace(b, fakePNG{err: exportErr}, canvas.Options{ProxyBase: "http://backend/api/proxy/image"})
	return &studioEnv{studio: NewStudio(rn, b, ws, 5*time.Second), backend: b, deck: g}
}

// do runs handler h as an HTMX request with the deck id and extra URL
// params, posting form when non-nil.
func (e *studioEnv) do(h http.HandlerFunc, method string, form url.Values, params ...string) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, "/", body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("HX-Request", "true")
	req = withURLParams(req, append([]string{"id", e.deck.ID.String()}, params...)...)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func (e *studioEnv) controller(t *testing.T) *deck.Controller {
	t.Helper()
	c, ok := e.studio.workspace.Get(e.deck.ID)
	if !ok {
		t.Fatal("deck not open")
	}
	return c
}

func TestStudioDashboard(t *testing.T) {
	env := newStudioEnv(t, nil)
	rec := httptest.NewRecorder()
	env.studio.Dashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	for _, want := range []string{"<!DOCTYPE html>", "Deep work", "every 5s", "Trust &amp; Clarity", "/editor/" + env.deck.ID.String()} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestStudioGenerations_BackendDown(t *testing.T) {
	env := newStudioEnv(t, nil)
	env.backend.listErr = errors.New("connection refused")

	rec := httptest.NewRecorder()
	env.studio.Generations(rec, httptest.NewRequest(http.MethodGet, "/generations", nil))
	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Errorf("status %d", rec.Code)
	}
	// Polling must keep going: the partial still carries its trigger.
	if !strings.Contains(body, "Could not load decks") || !strings.Contains(body, `hx-trigger="every 5s"`) {
		t.Errorf("body %s", body)
	}
}

func TestStudioTrigger(t *testing.T) {
	env := newStudioEnv(t, nil)
	form := url.Values{"topic": {"Focus"}, "slide_count": {"7"}, "theme": {"modern_luxury"}, "mode": {"viral"}}
	rec := env.do(env.studio.Trigger, http.MethodPost, form)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Generation of &#34;Focus&#34; started") {
		t.Errorf("missing success flash: %s", rec.Body.String())
	}
	if len(env.backend.triggered) != 1 {
		t.Fatalf("triggered %d", len(env.backend.triggered))
	}
	got := env.backend.triggered[0]
	if got.SlideCount != 7 || got.Theme != "modern_luxury" || got.Mode != "viral" {
		t.Errorf("request %+v", got)
	}
}

func TestStudioTrigger_Errors(t *testing.T) {
	env := newStudioEnv(t, nil)
	rec := env.do(env.studio.Trigger, http.MethodPost, url.Values{"topic": {"  "}})
	if !strings.Contains(rec.Body.String(), "Topic is required") {
		t.Error("empty topic should be refused")
	}

	env.backend.triggerErr = errors.New("backend down")
	rec = env.do(env.studio.Trigger, http.MethodPost, url.Values{"topic": {"x"}})
	if !strings.Contains(rec.Body.String(), "Failed to start generation") {
		t.Error("backend failure should be reported")
	}
}

func TestStudioEditor(t *testing.T) {
	env := newStudioEnv(t, nil)
	req := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), "id", env.deck.ID.String())
	rec := httptest.NewRecorder()
	env.studio.Editor(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"<title>Deep work", `id="slide-canvas"`, "Intro", "Closing", "/editor/" + env.deck.ID.String() + "/save"} {
		if !strings.Contains(body, want) {
			t.Errorf("editor missing %q", want)
		}
	}
}

func TestStudioEditor_NotFound(t *testing.T) {
	env := newStudioEnv(t, nil)
	for _, id := range []string{uuid.NewString(), "garbage"} {
		req := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), "id", id)
		rec := httptest.NewRecorder()
		env.studio.Editor(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status %d, want 404", id, rec.Code)
		}
	}
}

func TestStudioSlideActions(t *testing.T) {
	env := newStudioEnv(t, nil)

	// Adding a body slide keeps the CTA last.
	rec := env.do(env.studio.AddSlide, http.MethodPost, url.Values{"type": {"body"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("add: status %d", rec.Code)
	}
	c := env.controller(t)
	slides := c.Slides()
	if len(slides) != 3 || !slides[2].IsCTA() {
		t.Fatalf("slides after add: %+v", slides)
	}
	if _, i, _ := c.Active(); i != 1 {
		t.Errorf("active %d, want the new slide", i)
	}

	env.do(env.studio.Select, http.MethodPost, nil, "index", "0")
	if _, i, _ := c.Active(); i != 0 {
		t.Errorf("active %d after select", i)
	}
	if rec := env.do(env.studio.Select, http.MethodPost, nil, "index", "9"); rec.Code != http.StatusNotFound {
		t.Errorf("select out of range: status %d", rec.Code)
	}

	env.do(env.studio.DeleteSlide, http.MethodDelete, nil, "index", "1")
	if n := len(c.Slides()); n != 2 {
		t.Errorf("slides after delete: %d", n)
	}
}

func TestStudioDeleteLastSlideWarns(t *testing.T) {
	env := newStudioEnv(t, nil)
	env.deck.Slides = env.deck.Slides[:1]

	rec := env.do(env.studio.DeleteSlide, http.MethodDelete, nil, "index", "0")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Cannot delete the last slide") {
		t.Error("missing warning flash")
	}
	if n := len(env.controller(t).Slides()); n != 1 {
		t.Errorf("slides %d, want 1", n)
	}
}

func TestStudioUpdateField(t *testing.T) {
	env := newStudioEnv(t, nil)

	rec := env.do(env.studio.UpdateField, http.MethodPost, url.Values{"title": {"Sharper intro"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	c := env.controller(t)
	if s, _, _ := c.Active(); s.Title != "Sharper intro" {
		t.Errorf("title %q", s.Title)
	}
	if !strings.Contains(rec.Body.String(), "Sharper intro") {
		t.Error("workspace not re-rendered with the new title")
	}

	env.do(env.studio.UpdateField, http.MethodPost, url.Values{"theme": {"forest_executive"}})
	for _, s := range c.Slides() {
		if s.Theme != "forest_executive" {
			t.Errorf("slide %s theme %q", s.ID, s.Theme)
		}
	}

	rec = env.do(env.studio.UpdateField, http.MethodPost, url.Values{"container_opacity": {"7"}})
	if !strings.Contains(rec.Body.String(), "want a number between 0 and 1") {
		t.Error("invalid value should be reported")
	}
	if s, _, _ := c.Active(); s.ContainerOpacity != nil {
		t.Error("invalid value changed the slide")
	}
}

func TestStudioUpdateField_IgnoresOtherFormNames(t *testing.T) {
	env := newStudioEnv(t, nil)

	form := url.Values{
		"title":   {"Kept"},
		"slide":   {"3"},
		"id":      {"ignored"},
		"Slides":  {"[]"},
		"csrf":    {"token"},
		"Content": {"wrong case"},
	}
	rec := env.do(env.studio.UpdateField, http.MethodPost, form)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "unknown field") {
		t.Errorf("unknown names reported: %s", rec.Body.String())
	}
	s, _, _ := env.controller(t).Active()
	if s.Title != "Kept" {
		t.Errorf("title %q", s.Title)
	}
	if s.Content == "wrong case" {
		t.Error("field names must match exactly")
	}
}

func TestStudioSave(t *testing.T) {
	env := newStudioEnv(t, nil)
	env.do(env.studio.UpdateField, http.MethodPost, url.Values{"content": {"edited"}})

	rec := env.do(env.studio.Save, http.MethodPost, nil)
	if !strings.Contains(rec.Body.String(), "Deck saved") {
		t.Error("missing success flash")
	}
	if len(env.backend.saved) != 1 || env.backend.saved[0].Slides[0].Content != "edited" {
		t.Errorf("saved %+v", env.backend.saved)
	}

	env.backend.saveErr = errors.New("backend down")
	rec = env.do(env.studio.Save, http.MethodPost, nil)
	if !strings.Contains(rec.Body.String(), "Failed to save deck") {
		t.Error("missing failure flash")
	}
	if s, _, _ := env.controller(t).Active(); s.Content != "edited" {
		t.Error("failed save must keep local edits")
	}
}

func TestStudioGenerateImage(t *testing.T) {
	env := newStudioEnv(t, nil)
	rec := env.do(env.studio.GenerateImage, http.MethodPost, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	s, _, _ := env.controller(t).Active()
	if s.BackgroundURL != env.backend.imageURL {
		t.Errorf("background %q", s.BackgroundURL)
	}
	if !strings.Contains(rec.Body.String(), "Background generated") {
		t.Error("missing flash")
	}
}

func TestStudioGenerateVisuals(t *testing.T) {
	env := newStudioEnv(t, nil)
	rec := env.do(env.studio.GenerateVisuals, http.MethodPost, nil)
	if env.backend.visuals != 1 {
		t.Errorf("visuals calls %d", env.backend.visuals)
	}
	if !strings.Contains(rec.Body.String(), "Visual generation started") {
		t.Error("missing flash")
	}
}

func TestStudioReload(t *testing.T) {
	env := newStudioEnv(t, nil)
	env.do(env.studio.UpdateField, http.MethodPost, url.Values{"title": {"local only"}})

	rec := env.do(env.studio.Reload, http.MethodPost, nil)
	if !strings.Contains(rec.Body.String(), "Deck reloaded") {
		t.Error("missing flash")
	}
	if s, _, _ := env.controller(t).Active(); s.Title != "Intro" {
		t.Errorf("title %q after reload, want the stored one", s.Title)
	}
}

func TestStudioReload_DeletedDeck(t *testing.T) {
	env := newStudioEnv(t, nil)
	env.do(env.studio.UpdateField, http.MethodPost, url.Values{"title": {"local only"}})

	env.backend.mu.Lock()
	delete(env.backend.decks, env.deck.ID)
	env.backend.mu.Unlock()

	rec := env.do(env.studio.Reload, http.MethodPost, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
	if _, ok := env.studio.workspace.Get(env.deck.ID); ok {
		t.Error("deleted deck still open")
	}
}

func TestStudioCanvas(t *testing.T) {
	env := newStudioEnv(t, nil)
	rec := env.do(env.studio.Canvas, http.MethodGet, nil)
	body := rec.Body.String()
	if !strings.Contains(body, `id="canvas-frame"`) || strings.Contains(body, `id="workspace"`) {
		t.Errorf("canvas partial %s", body)
	}
}

func TestStudioExport(t *testing.T) {
	env := newStudioEnv(t, nil)
	env.do(env.studio.Select, http.MethodPost, nil, "index", "1")

	rec := env.do(env.studio.Export, http.MethodGet, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="slide-2.png"` {
		t.Errorf("disposition %q", cd)
	}
}

func TestStudioExport_Failure(t *testing.T) {
	env := newStudioEnv(t, errors.New("image fetch failed"))
	rec := env.do(env.studio.Export, http.MethodGet, nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status %d, want 502", rec.Code)
	}
	if rec.Header().Get("Content-Disposition") != "" {
		t.Error("failed export must not offer a download")
	}
}
