// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package deck

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/google/uuid"

	"slidedeck/internal/canvas"
	"slidedeck/internal/models"
)

type fakeBackend struct {
	mu       sync.Mutex
	deck     *models.Generation
	err      error
	loads    *sync.WaitGroup // when set, GetGeneration waits for every pending load
	saved    []models.GenerationPatch
	imageURL string
	visuals  int
	block    chan struct{} // when set, GenerateImage waits on it
	started  chan struct{}
}

func (b *fakeBackend) GetGeneration(_ context.Context, id uuid.UUID) (*models.Generation, error) {
	if b.loads != nil {
		b.loads.Done()
		b.loads.Wait()
	}
	if b.err != nil {
		return nil, b.err
	}
	g := *b.deck
	g.Slides = append([]models.Slide(nil), b.deck.Slides...)
	return &g, nil
}

func (b *fakeBackend) UpdateGeneration(_ context.Context, _ uuid.UUID, p models.GenerationPatch) error {
	if b.err != nil {
		return b.err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saved = append(b.saved, p)
	return nil
}

func (b *fakeBackend) GenerateImage(_ context.Context, _ uuid.UUID, _ string) (string, error) {
	if b.started != nil {
		b.started <- struct{}{}
	}
	if b.block != nil {
		<-b.block
	}
	if b.err != nil {
		return "", b.err
	}
	return b.imageURL, nil
}

func (b *fakeBackend) GenerateViralVisuals(_ context.Context, _ uuid.UUID) error {
	if b.err != nil {
		return b.err
	}
	b.visuals++
	return nil
}

type fakeExporter struct {
	err  error
	tree canvas.Tree
}

func (e *fakeExporter) PNG(_ context.Context, t canvas.Tree) ([]byte, error) {
	e.tree = t
	if e.err != nil {
		return nil, e.err
	}
	return []byte("png"), nil
}

func slide(id, typ string) models.Slide {
	return models.Slide{ID: id, Type: typ, Title: id, Theme: "modern_luxury", ThemeMode: "dark"}
}

func loaded(t *testing.T, slides ...models.Slide) (*Controller, *fakeBackend, *fakeExporter) {
	t.Helper()
	b := &fakeBackend{deck: &models.Generation{ID: uuid.New(), Theme: "modern_luxury", Slides: slides}}
	e := &fakeExporter{}
	c := New(b.deck.ID, b, e, canvas.Options{ProxyBase: "http://b/api/proxy/image"})
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c, b, e
}

func ids(slides []models.Slide) []string {
	out := make([]string, len(slides))
	for i, s := range slides {
		out[i] = s.ID
	}
	return out
}

func TestAddSlide_InsertsBeforeCTA(t *testing.T) {
	c, _, _ := loaded(t, slide("a", "hero"), slide("b", "body"), slide("z", "cta"))
	c.SelectSlide(1)

	at := c.AddSlide(models.SlideTypeBody)
	slides := c.Slides()

	if at != 2 || len(slides) != 4 {
		t.Fatalf("inserted at %d, len %d", at, len(slides))
	}
	if !slides[3].IsCTA() {
		t.Errorf("cta must stay last: %v", ids(slides))
	}
	n := slides[2]
	if n.Title != "New Slide" || n.Theme != "modern_luxury" || n.ThemeMode != "dark" || !n.ContainerEnabled() {
		t.Errorf("new slide defaults: %+v", n)
	}
	if _, i, _ := c.Active(); i != 2 {
		t.Errorf("active %d, want the new slide", i)
	}
}

func TestAddSlide_AppendsWithoutCTA(t *testing.T) {
	c, _, _ := loaded(t, slide("a", "hero"), slide("b", "body"))
	if at := c.AddSlide(models.SlideTypeHero); at != 2 {
		t.Fatalf("at %d", at)
	}
	if got := c.Slides()[2].Type; got != "hero" {
		t.Errorf("type %q", got)
	}
}

func TestDeleteSlide_LastSlideIsNoop(t *testing.T) {
	c, _, _ := loaded(t, slide("only", "body"))

	if err := c.DeleteSlide(0); !errors.Is(err, ErrLastSlide) {
		t.Fatalf("got %v", err)
	}
	if len(c.Slides()) != 1 {
		t.Fatal("deck must keep one slide")
	}
	notices := c.Drain()
	if len(notices) != 1 || notices[0].Level != LevelWarning {
		t.Errorf("notices %+v", notices)
	}
}

func TestDeleteSlide_ReselectsNeighbour(t *testing.T) {
	tests := []struct {
		name   string
		active int
		del    int
		want   int
	}{
		{"delete before active", 2, 0, 1},
		{"delete active", 1, 1, 0},
		{"delete first while active", 0, 0, 0},
		{"delete after active", 0, 2, 0},
		{"delete last while active", 2, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := loaded(t, slide("a", "hero"), slide("b", "body"), slide("c", "cta"))
			c.SelectSlide(tt.active)
			if err := c.DeleteSlide(tt.del); err != nil {
				t.Fatalf("DeleteSlide: %v", err)
			}
			if _, i, _ := c.Active(); i != tt.want {
				t.Errorf("active %d, want %d", i, tt.want)
			}
		})
	}
}

func TestSelectSlide_Bounds(t *testing.T) {
	c, _, _ := loaded(t, slide("a", "body"))
	if err := c.SelectSlide(1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("got %v", err)
	}
	if err := c.SelectSlide(-1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("got %v", err)
	}
}

func TestUpdateField_PerSlide(t *testing.T) {
	c, _, _ := loaded(t, slide("a", "body"), slide("b", "body"))
	c.SelectSlide(1)

	if err := c.UpdateField("title", "Changed"); err != nil {
		t.Fatal(err)
	}
	if err := c.UpdateField("container_opacity", "0.25"); err != nil {
		t.Fatal(err)
	}
	slides := c.Slides()
	if slides[0].Title != "a" || slides[1].Title != "Changed" {
		t.Errorf("titles %q %q", slides[0].Title, slides[1].Title)
	}
	if slides[1].ContainerOpacity == nil || *slides[1].ContainerOpacity != 0.25 {
		t.Errorf("opacity %v", slides[1].ContainerOpacity)
	}
}

func TestUpdateField_BadValueLeavesSlide(t *testing.T) {
	c, _, _ := loaded(t, slide("a", "body"))
	before := c.Slides()

	for field, value := range map[string]string{
		"container_opacity": "1.5",
		"text_shadow":       "maybe",
	} {
		if err := c.UpdateField(field, value); err == nil {
			t.Errorf("%s=%q accepted", field, value)
		}
	}
	if err := c.UpdateField("nope", "x"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("got %v", err)
	}
	if !reflect.DeepEqual(before, c.Slides()) {
		t.Error("slide changed on invalid input")
	}
}

func TestEditableField(t *testing.T) {
	for _, name := range []string{"title", "container_opacity", FieldTheme, FieldTextBgEnabled} {
		if !EditableField(name) {
			t.Errorf("%s not editable", name)
		}
	}
	for _, name := range []string{"", "id", "slides", "Title", "nope"} {
		if EditableField(name) {
			t.Errorf("%q editable", name)
		}
	}
}

func TestUpdateField_BulkTheme(t *testing.T) {
	c, _, _ := loaded(t, slide("a", "hero"), slide("b", "body"), slide("c", "cta"))

	if err := c.UpdateField(FieldTheme, "forest_executive"); err != nil {
		t.Fatal(err)
	}
	for _, s := range c.Slides() {
		if s.Theme != "forest_executive" {
			t.Errorf("slide %s theme %q", s.ID, s.Theme)
		}
	}
	if c.Deck().Theme != "forest_executive" {
		t.Error("deck theme not updated")
	}

	if err := c.UpdateField(FieldTextBgEnabled, "false"); err != nil {
		t.Fatal(err)
	}
	for _, s := range c.Slides() {
		if s.ContainerEnabled() {
			t.Errorf("slide %s still has a container", s.ID)
		}
	}
}

func TestSave(t *testing.T) {
	c, b, _ := loaded(t, slide("a", "body"))
	c.UpdateField("title", "Edited")

	if err := c.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(b.saved) != 1 || b.saved[0].Slides[0].Title != "Edited" {
		t.Errorf("saved %+v", b.saved)
	}
	if n := c.Drain(); len(n) != 1 || n[0].Level != LevelSuccess {
		t.Errorf("notices %+v", n)
	}
}

func TestSave_FailureKeepsLocalEdits(t *testing.T) {
	c, b, _ := loaded(t, slide("a", "body"))
	c.UpdateField("title", "Edited")
	b.err = errors.New("network down")

	if err := c.Save(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if c.Slides()[0].Title != "Edited" {
		t.Error("local edit rolled back")
	}
	if n := c.Drain(); len(n) != 1 || n[0].Level != LevelError {
		t.Errorf("notices %+v", n)
	}
}

func TestLoad_FailureLeavesState(t *testing.T) {
	c, b, _ := loaded(t, slide("a", "body"))
	c.UpdateField("title", "Local")
	b.err = errors.New("boom")

	if err := c.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if c.Slides()[0].Title != "Local" {
		t.Error("state changed on failed load")
	}
}

func TestExportActive(t *testing.T) {
	c, _, e := loaded(t, slide("a", "hero"), slide("b", "body"), slide("c", "cta"))
	c.SelectSlide(1)

	png, name, err := c.ExportActive(context.Background())
	if err != nil {
		t.Fatalf("ExportActive: %v", err)
	}
	if string(png) != "png" || name != "slide-2.png" {
		t.Errorf("got %q %q", png, name)
	}
	if e.tree.Content.Title.Plain != "b" {
		t.Errorf("exported wrong slide: %q", e.tree.Content.Title.Plain)
	}
}

func TestExportActive_Failure(t *testing.T) {
	c, _, e := loaded(t, slide("a", "body"))
	e.err = errors.New("raster")
	if _, _, err := c.ExportActive(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if n := c.Drain(); len(n) != 1 || n[0].Level != LevelError {
		t.Errorf("notices %+v", n)
	}
}

func TestRequestBackgroundImage(t *testing.T) {
	c, b, _ := loaded(t, slide("a", "body"), slide("b", "body"))
	b.imageURL = "https://cdn/b.png"

	if err := c.RequestBackgroundImage(context.Background(), "b"); err != nil {
		t.Fatalf("RequestBackgroundImage: %v", err)
	}
	if got := c.Slides()[1].BackgroundURL; got != "https://cdn/b.png" {
		t.Errorf("url %q", got)
	}
	tree, _ := c.Tree(1)
	if tree.Background.ImageURL != "http://b/api/proxy/image?url=https%3A%2F%2Fcdn%2Fb.png" {
		t.Errorf("tree background %q", tree.Background.ImageURL)
	}
}

func TestRequestBackgroundImage_Failure(t *testing.T) {
	c, b, _ := loaded(t, slide("a", "body"))
	b.err = errors.New("quota")
	if err := c.RequestBackgroundImage(context.Background(), "a"); err == nil {
		t.Fatal("expected error")
	}
	if c.Slides()[0].BackgroundURL != "" {
		t.Error("state changed on failure")
	}
}

func TestRequestBackgroundImage_Busy(t *testing.T) {
	c, b, _ := loaded(t, slide("a", "body"))
	b.imageURL = "u"
	b.block = make(chan struct{})
	b.started = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() { done <- c.RequestBackgroundImage(context.Background(), "a") }()
	<-b.started

	if err := c.RequestBackgroundImage(context.Background(), "a"); !errors.Is(err, ErrBusy) {
		t.Errorf("second request: got %v, want ErrBusy", err)
	}
	if !c.Busy() {
		t.Error("controller should report busy")
	}
	close(b.block)
	if err := <-done; err != nil {
		t.Fatalf("first request: %v", err)
	}
	if c.Busy() {
		t.Error("still busy after completion")
	}
}

func TestGenerateVisuals(t *testing.T) {
	c, b, _ := loaded(t, slide("a", "body"))
	if err := c.GenerateVisuals(context.Background()); err != nil {
		t.Fatal(err)
	}
	if b.visuals != 1 || c.Deck().Mode != models.ModeViral {
		t.Errorf("visuals=%d mode=%q", b.visuals, c.Deck().Mode)
	}
}

func TestWorkspace(t *testing.T) {
	b := &fakeBackend{deck: &models.Generation{ID: uuid.New(), Slides: []models.Slide{slide("a", "body")}}}
	w := NewWorkspace(b, &fakeExporter{}, canvas.Options{})

	c1, err := w.Open(context.Background(), b.deck.ID)
	if err != nil {
		t.Fatal(err)
	}
	c2, _ := w.Open(context.Background(), b.deck.ID)
	if c1 != c2 {
		t.Error("Open should reuse the controller")
	}

	b.err = errors.New("down")
	if _, err := w.Reload(context.Background(), b.deck.ID); err == nil {
		t.Fatal("expected reload error")
	}
	if c, ok := w.Get(b.deck.ID); !ok || c != c1 {
		t.Error("failed reload must keep the previous controller")
	}

	w.Drop(b.deck.ID)
	if _, ok := w.Get(b.deck.ID); ok {
		t.Error("Drop kept the controller")
	}
}

func TestWorkspace_ConcurrentOpenSharesController(t *testing.T) {
	const openers = 8
	b := &fakeBackend{deck: &models.Generation{ID: uuid.New(), Slides: []models.Slide{slide("a", "body")}}}
	b.loads = &sync.WaitGroup{}
	b.loads.Add(openers)
	w := NewWorkspace(b, &fakeExporter{}, canvas.Options{})

	got := make([]*Controller, openers)
	var wg sync.WaitGroup
	for i := range openers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := w.Open(context.Background(), b.deck.ID)
			if err != nil {
				t.Errorf("Open: %v", err)
				return
			}
			got[i] = c
		}()
	}
	wg.Wait()

	stored, ok := w.Get(b.deck.ID)
	if !ok {
		t.Fatal("deck not open")
	}
	for i, c := range got {
		if c != stored {
			t.Errorf("opener %d got a controller that is not the stored one", i)
		}
	}

	// Edits through any returned controller are visible to later opens.
	if err := got[0].UpdateField("title", "shared"); err != nil {
		t.Fatal(err)
	}
	b.loads = nil
	c, _ := w.Open(context.Background(), b.deck.ID)
	if s, _, _ := c.Active(); s.Title != "shared" {
		t.Errorf("title %q, want the edit made through the first opener", s.Title)
	}
}
