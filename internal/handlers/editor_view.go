// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"strconv"

	"slidedeck/internal/canvas"
	"slidedeck/internal/deck"
	"slidedeck/internal/models"
	"slidedeck/internal/render"
	"slidedeck/internal/style"
)

// field describes one input of the editor panel. Kind is "text",
// "textarea", "select" or "number".
type field struct {
	Name    string
	Label   string
	Kind    string
	Value   string
	Action  string
	Options []option
}

// thumb is one entry of the slide strip.
type thumb struct {
	Index  int
	Title  string
	Type   string
	Active bool
}

// editorView is the data of the "workspace" partial.
type editorView struct {
	Base        string
	Deck        models.Generation
	Thumbs      []thumb
	Active      models.Slide
	ActiveIndex int
	Tree        canvas.Tree
	DeckFields  []field
	SlideFields []field
	Flashes     []render.Flash
}

func (s *Studio) editorView(c *deck.Controller) editorView {
	g := c.Deck()
	v := editorView{
		Base:    "/editor/" + c.ID().String(),
		Deck:    g,
		Flashes: render.Flashes(c.Drain()),
	}

	active, index, ok := c.Active()
	for i, sl := range g.Slides {
		v.Thumbs = append(v.Thumbs, thumb{Index: i, Title: sl.Title, Type: sl.Type, Active: i == index})
	}
	if !ok {
		return v
	}
	v.Active = active
	v.ActiveIndex = index
	if tree, err := c.Tree(index); err == nil {
		v.Tree = tree
	}

	action := v.Base + "/field"
	theme := active.Theme
	if theme == "" {
		theme = g.Theme
	}
	v.DeckFields = []field{
		selectField(deck.FieldTheme, "Theme (all slides)", theme, s.themeOptions()),
		boolField(deck.FieldTextBgEnabled, "Text container (all slides)", active.ContainerEnabled()),
	}
	v.SlideFields = []field{
		{Name: "title", Label: "Title", Kind: "text", Value: active.Title},
		{Name: "content", Label: "Content", Kind: "textarea", Value: active.Content},
		selectField("type", "Type", active.Type, keyOptions(s.tables.Types)),
		selectField("variant", "CTA style", active.Variant, variantOptions(s.tables.Variants)),
		{Name: "cta_url", Label: "CTA link", Kind: "text", Value: active.CTAURL},
		selectField("layout", "Layout", active.Layout, keyOptions(s.tables.Layouts)),
		{Name: "background_prompt", Label: "Background prompt", Kind: "textarea", Value: active.BackgroundPrompt},
		{Name: "background_url", Label: "Background URL", Kind: "text", Value: active.BackgroundURL},
		selectField("font", "Font", active.Font, keyOptions(s.tables.Fonts)),
		selectField("text_effect", "Effect", active.TextEffect, keyOptions(s.tables.Effects)),
		selectField("theme_mode", "Mode", active.ThemeMode, keyOptions(s.tables.Modes)),
		{Name: "headline_color", Label: "Headline color", Kind: "text", Value: active.HeadlineColor},
		{Name: "font_color", Label: "Body color", Kind: "text", Value: active.FontColor},
		{Name: "arrow_color", Label: "Arrow color", Kind: "text", Value: active.ArrowColor},
		boolField("text_bg_enabled", "Text container", active.ContainerEnabled()),
		{Name: "container_opacity", Label: "Container opacity", Kind: "number", Value: opacity(active.ContainerOpacity)},
		selectField("glass_intensity", "Glass", active.GlassIntensity, keyOptions(s.tables.Glass)),
		selectField("text_position", "Position", active.TextPosition, keyOptions(s.tables.Positions)),
		selectField("text_align", "Alignment", active.TextAlign, keyOptions(s.tables.Aligns)),
		selectField("text_width", "Width", active.TextWidth, keyOptions(s.tables.Widths)),
		selectField("spacing", "Spacing", active.Spacing, keyOptions(s.tables.Spacing)),
		boolField("text_shadow", "Text shadow", active.TextShadow),
	}
	for i := range v.DeckFields {
		v.DeckFields[i].Action = action
	}
	for i := range v.SlideFields {
		v.SlideFields[i].Action = action
	}
	return v
}

// selectField builds a select. An empty value shows as the first option,
// which is the table default.
func selectField(name, label, value string, opts []option) field {
	if value == "" && len(opts) > 0 {
		value = opts[0].Value
	}
	return field{Name: name, Label: label, Kind: "select", Value: value, Options: opts}
}

func boolField(name, label string, on bool) field {
	return field{
		Name:    name,
		Label:   label,
		Kind:    "select",
		Value:   strconv.FormatBool(on),
		Options: []option{{Value: "true", Label: "On"}, {Value: "false", Label: "Off"}},
	}
}

func keyOptions[T any](t style.Table[T]) []option {
	keys := t.Keys()
	out := make([]option, len(keys))
	for i, k := range keys {
		out[i] = option{Value: k, Label: k}
	}
	return out
}

func variantOptions(t style.Table[style.CTAVariant]) []option {
	keys := t.Keys()
	out := make([]option, len(keys))
	for i, k := range keys {
		v, _ := t.Lookup(k)
		out[i] = option{Value: k, Label: k + " - " + v.Name}
	}
	return out
}

func opacity(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
