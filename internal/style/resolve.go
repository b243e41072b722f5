// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package style

import (
	"math"

	"slidedeck/internal/models"
)

// Resolved is the fully resolved visual description of one slide. Every
// field has its fallback applied; consumers never need to consult the
// slide's raw attributes again for styling.
type Resolved struct {
	// Axis keys actually used after fallback.
	Type    string
	Variant string // empty unless Type is "cta"
	Layout  string
	Theme   string
	FontKey string

	Template Template
	CTA      *CTAVariant // nil unless Type is "cta"

	Dark            bool
	TitleColor      string
	BodyColor       string
	BackgroundColor string
	Font            Font
	Effect          string

	// ContainerBackground is empty when no text container is drawn.
	ContainerBackground string
	ContainerAlpha      float64
	BlurRadius          int
	TextShadow          string

	Position  Position
	Alignment string
	MaxWidth  Width
	Spacing   int
	TitleSize int
	BodySize  int
	Overlay   Overlay
	Split     Split
	Spread    bool

	ArrowColor string
	ShowArrow  bool
}

// HasContainer reports whether a text container background is drawn.
func (r *Resolved) HasContainer() bool {
	return r.ContainerBackground != ""
}

// Resolve maps a slide onto the given tables. It is a pure function: it
// performs no I/O, keeps no state and never fails. A nil t uses
// DefaultTables.
func Resolve(s models.Slide, t *Tables) Resolved {
	if t == nil {
		t = DefaultTables()
	}

	tmpl, typ := t.Types.Lookup(s.Type)
	layout, layoutKey := t.Layouts.Lookup(s.Layout)
	theme, themeKey := t.Themes.Lookup(s.Theme)
	mode, _ := t.Modes.Lookup(s.ThemeMode)
	font, fontKey := t.Fonts.Lookup(s.Font)
	effect, _ := t.Effects.Lookup(s.TextEffect)

	r := Resolved{
		Type:            typ,
		Layout:          layoutKey,
		Theme:           themeKey,
		FontKey:         fontKey,
		Template:        tmpl,
		Dark:            IsDark(theme.Background, mode),
		BackgroundColor: theme.Background,
		Font:            font,
		Effect:          effect,
		Split:           layout.Split,
		Spread:          layout.Spread,
		Overlay:         layout.Overlay,
		TitleSize:       layout.TitleSize,
		BodySize:        layout.BodySize,
	}

	// Colors: explicit override > layout rule > theme default.
	switch {
	case normalizeHex(s.HeadlineColor) != "":
		r.TitleColor = normalizeHex(s.HeadlineColor)
	case layout.ForceTitleColor != "":
		r.TitleColor = layout.ForceTitleColor
	default:
		r.TitleColor = theme.Headline
	}
	r.BodyColor = theme.Subheadline
	if c := normalizeHex(s.FontColor); c != "" {
		r.BodyColor = c
	}

	r.ArrowColor = t.DefaultArrowColor
	if c := normalizeHex(s.ArrowColor); c != "" {
		r.ArrowColor = c
	}

	resolveContainer(&r, s, layout, t)

	// Geometry: explicit slide field > layout default > table default.
	posKey := layout.Position
	if t.Positions.Has(s.TextPosition) {
		posKey = s.TextPosition
	}
	r.Position, _ = t.Positions.Lookup(posKey)

	alignKey := layout.Align
	if t.Aligns.Has(s.TextAlign) {
		alignKey = s.TextAlign
	}
	r.Alignment, _ = t.Aligns.Lookup(alignKey)

	widthKey := layout.Width
	if t.Widths.Has(s.TextWidth) {
		widthKey = s.TextWidth
	}
	r.MaxWidth, _ = t.Widths.Lookup(widthKey)

	r.Spacing, _ = t.Spacing.Lookup(s.Spacing)

	// Template axis.
	if tmpl.TitleSize > 0 {
		r.TitleSize = tmpl.TitleSize
	}
	if tmpl.BodySize > 0 {
		r.BodySize = tmpl.BodySize
	}
	if tmpl.Overlay != nil {
		r.Overlay = *tmpl.Overlay
	}

	// Variant axis, CTA only.
	if models.SlideType(typ) == models.SlideTypeCTA {
		v, key := t.Variants.Lookup(s.Variant)
		r.Variant = key
		r.CTA = &v
		r.TitleSize = v.TitleSize
		r.BodySize = v.BodySize
		if !t.Spacing.Has(s.Spacing) && v.Gap > 0 {
			r.Spacing = v.Gap
		}
	}

	r.ShowArrow = models.SlideType(typ) != models.SlideTypeCTA
	return r
}

// resolveContainer decides the text container and the legibility shadow.
func resolveContainer(r *Resolved, s models.Slide, layout Layout, t *Tables) {
	if !s.ContainerEnabled() || layout.SuppressContainer {
		r.TextShadow = t.FallbackShadow
		return
	}

	alpha := t.DefaultOpacity
	if o := s.ContainerOpacity; o != nil && validOpacity(*o) {
		alpha = *o
	}
	base := t.LightBase
	if r.Dark {
		base = t.DarkBase
	}
	r.ContainerAlpha = alpha
	r.ContainerBackground = RGBA(base, alpha)
	r.BlurRadius, _ = t.Glass.Lookup(s.GlassIntensity)
	if s.TextShadow {
		r.TextShadow = t.Shadow
	}
}

// validOpacity reports whether o is a usable opacity. Values outside [0,1]
// are treated as not provided.
func validOpacity(o float64) bool {
	return !math.IsNaN(o) && o >= 0 && o <= 1
}
