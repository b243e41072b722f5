// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the studio. It
// supports full-page and HTMX partial rendering, detecting the request type
// via the HX-Request header, and renders the named fragments that HTMX
// endpoints swap into a page.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"slidedeck/internal/canvas"
	"slidedeck/internal/deck"
	"slidedeck/internal/models"
)

//go:embed templates/studio/*.html
var studioFS embed.FS

const (
	templateDir  = "templates/studio"
	baseTemplate = "base.html"
	// partialsTemplate holds the fragments shared by pages and HTMX
	// endpoints.
	partialsTemplate = "partials.html"
)

// PageData holds all data passed to studio templates.
type PageData struct {
	Title   string         // Page title for <title> tag
	Section string         // Active nav section ("dashboard", "editor")
	Data    map[string]any // Page-specific data
	Flashes []Flash        // One-time notification messages
}

// Flash represents a one-time notification message displayed to the user.
type Flash struct {
	Type    string // "success", "error", "warning", "info"
	Message string
}

// Flashes converts deck notices to flash messages.
func Flashes(notices []deck.Notice) []Flash {
	out := make([]Flash, len(notices))
	for i, n := range notices {
		out[i] = Flash{Type: n.Level, Message: n.Message}
	}
	return out
}

// Renderer handles template parsing and execution for studio pages.
type Renderer struct {
	pages    map[string]*template.Template
	partials *template.Template
	funcMap  template.FuncMap
}

// New creates a Renderer by parsing the embedded templates. Each page is
// paired with the base layout and the shared partials. When devMode is
// true, pages load the unminified HTMX build.
func New(devMode bool) (*Renderer, error) {
	r := &Renderer{
		pages: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			"isDev": func() bool { return devMode },
			"add":   func(a, b int) int { return a + b },
			"activeClass": func(current, target string) string {
				if current == target {
					return "nav-link active"
				}
				return "nav-link"
			},
			"statusClass": func(s models.GenerationStatus) string {
				return "badge badge-" + string(s)
			},
			"since": since,
			"slide": slideHTML,
		},
	}

	r.partials = template.New(partialsTemplate).Funcs(r.funcMap)
	if _, err := r.partials.ParseFS(studioFS, path.Join(templateDir, partialsTemplate)); err != nil {
		return nil, fmt.Errorf("parse partials: %w", err)
	}

	entries, err := fs.ReadDir(studioFS, templateDir)
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == baseTemplate || name == partialsTemplate {
			continue
		}
		tmpl, err := template.New(baseTemplate).Funcs(r.funcMap).ParseFS(studioFS,
			path.Join(templateDir, baseTemplate),
			path.Join(templateDir, partialsTemplate),
			path.Join(templateDir, name),
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[strings.TrimSuffix(name, ".html")] = tmpl
	}

	return r, nil
}

// Page renders a full studio page or, for HTMX requests, only its
// "content" block.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	tmpl, ok := rn.pages[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	execName := baseTemplate
	if isHTMX(r) {
		execName = "content"
	}
	rn.execute(w, tmpl, execName, data)
}

// Partial renders one named fragment from the shared partials.
func (rn *Renderer) Partial(w http.ResponseWriter, name string, data any) {
	if rn.partials.Lookup(name) == nil {
		http.Error(w, fmt.Sprintf("partial %q not found", name), http.StatusInternalServerError)
		return
	}
	rn.execute(w, rn.partials, name, data)
}

// execute renders into a buffer first so a template error never leaves a
// half-written page behind.
func (rn *Renderer) execute(w http.ResponseWriter, tmpl *template.Template, name string, data any) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("template execution failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// slideHTML renders a canvas tree as a template fragment.
func slideHTML(id string, t canvas.Tree) (template.HTML, error) {
	var buf bytes.Buffer
	if err := canvas.WriteHTML(&buf, id, t); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// since formats the age of t in coarse units.
func since(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return t.Format("Jan 2, 2006")
	}
}

// isHTMX returns true if the request was made by HTMX (has HX-Request header).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
