// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package canvas turns a slide and its resolved style into the visual tree
// of a fixed 1080x1080 canvas: background image, overlay tint, optional
// split mask, the content block and the decorative layer (navigation arrow
// and watermark). Rendering is pure. Image loads are left to whoever paints
// the tree (the browser for WriteHTML, the export package for PNGs).
package canvas

import (
	"html/template"
	"net/url"
	"strings"

	"slidedeck/internal/markdown"
	"slidedeck/internal/models"
	"slidedeck/internal/style"
)

// Size is the edge length of the square canvas in pixels.
const Size = 1080

// Options carries the render settings that do not come from the slide.
type Options struct {
	// ProxyBase is the image proxy endpoint, e.g.
	// "http://localhost:8001/api/proxy/image". Background URLs are always
	// routed through it so that the canvas can be rasterized without
	// cross-origin restrictions.
	ProxyBase string
	// Watermark is drawn in the bottom-right corner. Empty disables it.
	Watermark string
}

// Rect is an axis-aligned rectangle in canvas pixels.
type Rect struct {
	X, Y, W, H int
}

// Background is the bottom layer.
type Background struct {
	Color    string
	ImageURL string // proxied URL, empty when the slide has no background
}

// Text is one run of slide copy.
type Text struct {
	Plain  string
	HTML   template.HTML // sanitized inline HTML, body copy only
	Color  string
	Size   int
	Shadow string
}

// Container is the translucent panel behind the text.
type Container struct {
	Background string
	Blur       int
	Radius     int
}

// Avatar is the placeholder portrait of the profile-style CTA.
type Avatar struct {
	Size   int
	Border string
}

// Button is the big call-to-action block of the button-style CTA.
type Button struct {
	Width, Height int
	Fill          string
	TextColor     string
}

// Content is the positioned text block.
type Content struct {
	Template string // hero, body, cta
	Variant  string // link, profile, button; empty outside cta

	Region   Rect // area the block is placed within, padding applied
	Width    int  // block width, never wider than Region
	Position style.Position
	Align    string
	Gap      int
	Spread   bool // title pinned to the top of Region, body to the bottom

	Font   style.Font
	Effect string
	Title  Text
	Body   Text

	Container *Container
	Accent    string // accent bar color, empty when no bar is drawn
	Avatar    *Avatar
	Button    *Button
	Pill      bool
	QR        []byte // PNG, link-style CTA with a destination URL only
	Link      string
}

// Arrow is the swipe affordance drawn on every slide but the CTA.
type Arrow struct {
	Color string
}

// Tree is the complete visual composition of one slide.
type Tree struct {
	Width, Height int
	Background    Background
	Overlay       style.Overlay
	Mask          *Rect // solid panel under the content in split layouts
	MaskColor     string
	Content       Content
	Arrow         *Arrow
	Watermark     string
}

// Render composes the visual tree for s using its resolved style r. It
// performs no I/O.
func Render(s models.Slide, r style.Resolved, opts Options) Tree {
	t := Tree{
		Width:      Size,
		Height:     Size,
		Background: Background{Color: r.BackgroundColor, ImageURL: ProxyURL(opts.ProxyBase, s.BackgroundURL)},
		Overlay:    r.Overlay,
		Watermark:  strings.TrimSpace(opts.Watermark),
	}

	region := Rect{X: 0, Y: 0, W: Size, H: Size}
	switch r.Split {
	case style.SplitLeft:
		region.W = Size / 2
	case style.SplitRight:
		region.X = Size / 2
		region.W = Size / 2
	}
	if r.Split != style.SplitNone {
		mask := region
		t.Mask = &mask
		t.MaskColor = r.BackgroundColor
	}

	pad := r.Template.Padding
	region = Rect{X: region.X + pad, Y: region.Y + pad, W: region.W - 2*pad, H: region.H - 2*pad}

	width := r.MaxWidth.Px
	if width <= 0 || width > region.W {
		width = region.W
	}

	c := Content{
		Template: r.Type,
		Region:   region,
		Width:    width,
		Position: r.Position,
		Align:    r.Alignment,
		Gap:      r.Spacing,
		Spread:   r.Spread && r.Type == string(models.SlideTypeBody),
		Font:     r.Font,
		Effect:   r.Effect,
		Title: Text{
			Plain:  strings.TrimSpace(s.Title),
			Color:  r.TitleColor,
			Size:   r.TitleSize,
			Shadow: r.TextShadow,
		},
		Body: Text{
			Plain:  markdown.PlainText(s.Content),
			HTML:   bodyHTML(s.Content),
			Color:  r.BodyColor,
			Size:   r.BodySize,
			Shadow: r.TextShadow,
		},
	}
	if r.HasContainer() {
		c.Container = &Container{Background: r.ContainerBackground, Blur: r.BlurRadius, Radius: 24}
	}
	if r.Template.Accent {
		c.Accent = r.TitleColor
	}

	if r.CTA != nil {
		c.Variant = r.CTA.Name
		c.Pill = r.CTA.Pill
		if r.CTA.AvatarPx > 0 {
			c.Avatar = &Avatar{Size: r.CTA.AvatarPx, Border: r.TitleColor}
		}
		if r.CTA.ButtonWidth > 0 {
			w := min(r.CTA.ButtonWidth, region.W)
			c.Button = &Button{Width: w, Height: r.CTA.ButtonHeight, Fill: r.TitleColor, TextColor: r.BackgroundColor}
		}
		if link := strings.TrimSpace(s.CTAURL); link != "" && r.CTA.Pill {
			c.Link = link
			c.QR = qrPNG(link)
		}
	}
	t.Content = c

	if r.ShowArrow {
		t.Arrow = &Arrow{Color: r.ArrowColor}
	}
	return t
}

// ProxyURL routes raw through the image proxy at base. An empty raw yields
// an empty URL. Without a base the raw URL is returned unchanged.
func ProxyURL(base, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if base == "" {
		return raw
	}
	return base + "?url=" + url.QueryEscape(raw)
}

// bodyHTML renders the body copy. Markdown failures fall back to the
// escaped plain text.
func bodyHTML(source string) template.HTML {
	out, err := markdown.InlineHTML(source)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(out)
}
