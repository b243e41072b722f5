// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package style resolves a slide's declarative attributes (type, variant,
// layout, theme, font, effect and the optional overrides) into a fully
// resolved visual description. Resolution is table driven: every style
// dimension is a lookup table with a designated default entry, and any
// missing or unknown key falls back to that default.
package style

import "slices"

// Font is an entry of the font table.
type Font struct {
	Class  string // CSS class applied to headings
	Family string // CSS font-family stack
	Face   string // raster face used by the PNG exporter
}

// Theme is a named palette.
type Theme struct {
	Name        string
	Headline    string
	Subheadline string
	Background  string
}

// Anchor is a flex-style placement along one axis.
type Anchor string

const (
	AnchorStart  Anchor = "start"
	AnchorCenter Anchor = "center"
	AnchorEnd    Anchor = "end"
)

// Position places the content block on the canvas.
type Position struct {
	Vertical   Anchor
	Horizontal Anchor
}

// Width is an entry of the text-width table.
type Width struct {
	Class string
	Px    int
}

// Split names the half of the canvas that holds the content in split layouts.
type Split string

const (
	SplitNone  Split = ""
	SplitLeft  Split = "left"
	SplitRight Split = "right"
)

// Overlay is the tint drawn between the background image and the content.
// Gradient, when set, is a direction ("to-top", "to-right") from opaque
// Color to transparent.
type Overlay struct {
	Color    string
	Alpha    float64
	Gradient string
}

// Layout is an entry of the layout table: the placement defaults a layout
// contributes when the slide does not override them.
type Layout struct {
	Position          string
	Align             string
	Width             string
	TitleSize         int
	BodySize          int
	Split             Split
	Spread            bool // title pinned to the top, body to the bottom
	Overlay           Overlay
	SuppressContainer bool
	ForceTitleColor   string
}

// Template is an entry of the slide-type table.
type Template struct {
	TitleSize int
	BodySize  int
	Accent    bool     // short accent bar above the title
	Overlay   *Overlay // replaces the layout overlay when set
	Padding   int
}

// CTAVariant is an entry of the CTA sub-template table. Each variant has its
// own fixed geometry, independent of the layout axis.
type CTAVariant struct {
	Name         string
	TitleSize    int
	BodySize     int
	AvatarPx     int // profile-style avatar diameter, 0 when absent
	ButtonWidth  int // big-button width, 0 when absent
	ButtonHeight int
	Pill         bool // link-style rounded pill around the body
	Gap          int
}

// Table is a keyed lookup with a designated default entry.
type Table[T any] struct {
	Default string
	Entries map[string]T
}

// Lookup returns the entry for key, or the default entry when key is empty
// or unknown. The returned key is the one actually used.
func (t Table[T]) Lookup(key string) (T, string) {
	if v, ok := t.Entries[key]; ok {
		return v, key
	}
	return t.Entries[t.Default], t.Default
}

// Has reports whether key names an entry of the table.
func (t Table[T]) Has(key string) bool {
	_, ok := t.Entries[key]
	return ok
}

// Keys returns the table keys in sorted order, the default first.
func (t Table[T]) Keys() []string {
	keys := make([]string, 0, len(t.Entries))
	for k := range t.Entries {
		if k != t.Default {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	if _, ok := t.Entries[t.Default]; ok {
		keys = append([]string{t.Default}, keys...)
	}
	return keys
}

// Tables groups every lookup table the resolver reads.
type Tables struct {
	Fonts     Table[Font]
	Effects   Table[string]
	Themes    Table[Theme]
	Layouts   Table[Layout]
	Positions Table[Position]
	Widths    Table[Width]
	Aligns    Table[string]
	Glass     Table[int]
	Spacing   Table[int]
	Types     Table[Template]
	Variants  Table[CTAVariant]
	Modes     Table[string]

	// DefaultOpacity is used when container_opacity is absent or outside [0,1].
	DefaultOpacity float64
	// DefaultArrowColor is used when arrow_color is absent or malformed.
	DefaultArrowColor string
	// DarkBase and LightBase are the container RGB bases picked by the
	// dark/light classification.
	DarkBase  RGB
	LightBase RGB
	// FallbackShadow is applied when no container is drawn. Its strength is
	// fixed and does not depend on container_opacity.
	FallbackShadow string
	// Shadow is the lighter shadow used when text_shadow is requested on top
	// of a visible container.
	Shadow string
}

// DefaultTables returns the built-in style tables.
func DefaultTables() *Tables {
	return &Tables{
		Fonts: Table[Font]{
			Default: "modern",
			Entries: map[string]Font{
				"modern":      {Class: "font-heading", Family: "'Inter', 'Helvetica Neue', sans-serif", Face: "go-bold"},
				"serif":       {Class: "font-serif", Family: "'Playfair Display', Georgia, serif", Face: "go-medium"},
				"mono":        {Class: "font-mono", Family: "'JetBrains Mono', 'Courier New', monospace", Face: "go-mono-bold"},
				"bold":        {Class: "font-black", Family: "'Anton', Impact, sans-serif", Face: "go-bold"},
				"handwritten": {Class: "font-handwritten", Family: "'Caveat', 'Comic Sans MS', cursive", Face: "go-italic"},
				"futuristic":  {Class: "font-futuristic", Family: "'Orbitron', 'Eurostile', sans-serif", Face: "go-smallcaps"},
				"editorial":   {Class: "font-editorial", Family: "'DM Serif Display', Georgia, serif", Face: "go-medium-italic"},
			},
		},
		Effects: Table[string]{
			Default: "none",
			Entries: map[string]string{
				"none":     "",
				"glow":     "effect-glow",
				"gradient": "effect-gradient",
				"chrome":   "effect-chrome",
				"glitch":   "effect-glitch",
				"neon":     "effect-neon",
			},
		},
		Themes: Table[Theme]{
			Default: "trust_clarity",
			Entries: map[string]Theme{
				"trust_clarity":     {Name: "Trust & Clarity", Headline: "#38BDF8", Subheadline: "#E2E8F0", Background: "#0F172A"},
				"modern_luxury":     {Name: "Modern Luxury", Headline: "#D4AF37", Subheadline: "#E5E5E5", Background: "#1C1C1C"},
				"swiss_minimalist":  {Name: "Swiss Minimalist", Headline: "#FF3B30", Subheadline: "#FFFFFF", Background: "#000000"},
				"forest_executive":  {Name: "Forest Executive", Headline: "#A7F3D0", Subheadline: "#D1FAE5", Background: "#064E3B"},
				"warm_editorial":    {Name: "Warm Editorial", Headline: "#4A3B32", Subheadline: "#8C7B70", Background: "#F5EFE6"},
				"dark_mode_premium": {Name: "Dark Mode Premium", Headline: "#FAFAFA", Subheadline: "#A1A1AA", Background: "#18181B"},
				"slate_clay":        {Name: "Slate & Clay", Headline: "#334155", Subheadline: "#64748B", Background: "#E7E5E4"},
				"royal_academic":    {Name: "Royal Academic", Headline: "#C4B5FD", Subheadline: "#DDD6FE", Background: "#2E1065"},
				"industrial_chic":   {Name: "Industrial Chic", Headline: "#F97316", Subheadline: "#D4D4D4", Background: "#262626"},
				"sunset_corporate":  {Name: "Sunset Corporate", Headline: "#FDBA74", Subheadline: "#FED7AA", Background: "#7C2D12"},
			},
		},
		Layouts: Table[Layout]{
			Default: "default",
			Entries: map[string]Layout{
				"default": {
					Position: "top_left", Align: "left", Width: "wide",
					TitleSize: 72, BodySize: 36, Spread: true,
					Overlay: Overlay{Color: "#000000", Alpha: 0.4},
				},
				"center": {
					Position: "middle_center", Align: "center", Width: "medium",
					TitleSize: 128, BodySize: 48,
					Overlay: Overlay{Color: "#000000", Alpha: 0.7},
				},
				"split_left": {
					Position: "middle_left", Align: "left", Width: "narrow",
					TitleSize: 72, BodySize: 36, Split: SplitLeft,
					Overlay: Overlay{Color: "#000000", Alpha: 0.4},
				},
				"split_right": {
					Position: "middle_right", Align: "left", Width: "narrow",
					TitleSize: 72, BodySize: 36, Split: SplitRight,
					Overlay: Overlay{Color: "#000000", Alpha: 0.4},
				},
				"minimalist": {
					Position: "bottom_left", Align: "left", Width: "wide",
					TitleSize: 96, BodySize: 36,
					Overlay:           Overlay{Color: "#000000", Alpha: 0.9, Gradient: "to-top"},
					SuppressContainer: true, ForceTitleColor: "#FFFFFF",
				},
				"centered_stack": {
					Position: "middle_center", Align: "center", Width: "medium",
					TitleSize: 88, BodySize: 40,
					Overlay: Overlay{Color: "#000000", Alpha: 0.5},
				},
				"hero_center": {
					Position: "middle_center", Align: "center", Width: "wide",
					TitleSize: 128, BodySize: 40,
					Overlay: Overlay{Color: "#000000", Alpha: 0.55},
				},
				"hero_left": {
					Position: "middle_left", Align: "left", Width: "medium",
					TitleSize: 128, BodySize: 40,
					Overlay: Overlay{Color: "#000000", Alpha: 0.85, Gradient: "to-right"},
				},
				"hero_right": {
					Position: "middle_right", Align: "right", Width: "medium",
					TitleSize: 128, BodySize: 40,
					Overlay: Overlay{Color: "#000000", Alpha: 0.85, Gradient: "to-left"},
				},
			},
		},
		Positions: Table[Position]{
			Default: "middle_center",
			Entries: map[string]Position{
				"top_left":      {AnchorStart, AnchorStart},
				"top_center":    {AnchorStart, AnchorCenter},
				"top_right":     {AnchorStart, AnchorEnd},
				"middle_left":   {AnchorCenter, AnchorStart},
				"middle_center": {AnchorCenter, AnchorCenter},
				"middle_right":  {AnchorCenter, AnchorEnd},
				"bottom_left":   {AnchorEnd, AnchorStart},
				"bottom_center": {AnchorEnd, AnchorCenter},
				"bottom_right":  {AnchorEnd, AnchorEnd},
			},
		},
		Widths: Table[Width]{
			Default: "medium",
			Entries: map[string]Width{
				"narrow": {Class: "max-w-xl", Px: 576},
				"medium": {Class: "max-w-3xl", Px: 768},
				"wide":   {Class: "max-w-4xl", Px: 896},
				"full":   {Class: "max-w-full", Px: 952},
			},
		},
		Aligns: Table[string]{
			Default: "center",
			Entries: map[string]string{
				"left":   "left",
				"center": "center",
				"right":  "right",
			},
		},
		Glass: Table[int]{
			Default: "high",
			Entries: map[string]int{"none": 0, "low": 4, "medium": 12, "high": 24},
		},
		Spacing: Table[int]{
			Default: "normal",
			Entries: map[string]int{"compact": 16, "normal": 32, "wide": 56},
		},
		Types: Table[Template]{
			Default: "body",
			Entries: map[string]Template{
				"hero": {
					TitleSize: 128, BodySize: 40, Accent: true, Padding: 64,
					Overlay: &Overlay{Color: "#000000", Alpha: 0.8, Gradient: "to-right"},
				},
				"body": {Padding: 64},
				"cta":  {Padding: 64},
			},
		},
		Variants: Table[CTAVariant]{
			Default: "1",
			Entries: map[string]CTAVariant{
				"1": {Name: "link", TitleSize: 96, BodySize: 36, Pill: true, Gap: 32},
				"2": {Name: "profile", TitleSize: 64, BodySize: 30, AvatarPx: 256, Gap: 48},
				"3": {Name: "button", TitleSize: 128, BodySize: 48, ButtonWidth: 672, ButtonHeight: 128, Gap: 64},
			},
		},
		Modes: Table[string]{
			Default: "auto",
			Entries: map[string]string{"auto": "auto", "dark": "dark", "light": "light"},
		},

		DefaultOpacity:    0.6,
		DefaultArrowColor: "#FFFFFF",
		DarkBase:          RGB{R: 10, G: 10, B: 10},
		LightBase:         RGB{R: 250, G: 250, B: 250},
		FallbackShadow:    "0 2px 12px rgba(0, 0, 0, 0.85)",
		Shadow:            "0 2px 6px rgba(0, 0, 0, 0.45)",
	}
}
