// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package export

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"

	"slidedeck/internal/style"
)

var (
	black = color.NRGBA{A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// parseColor reads "#rgb", "#rrggbb" or "rgba(r, g, b, a)". Anything else
// yields fallback.
func parseColor(s string, fallback color.NRGBA) color.NRGBA {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "rgba(") {
		var r, g, b int
		var a float64
		if _, err := fmt.Sscanf(s, "rgba(%d, %d, %d, %g)", &r, &g, &b, &a); err != nil {
			return fallback
		}
		return color.NRGBA{R: clampByte(r), G: clampByte(g), B: clampByte(b), A: alphaByte(a)}
	}
	c, ok := style.ParseHex(s)
	if !ok {
		return fallback
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

func clampByte(v int) uint8 {
	return uint8(max(0, min(255, v)))
}

func alphaByte(a float64) uint8 {
	return uint8(max(0, min(1, a))*255 + 0.5)
}

// withAlpha returns c with its alpha scaled by a.
func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(float64(c.A)*max(0, min(1, a)) + 0.5)
	return c
}

func fill(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// fillRounded paints r with rounded corners of the given radius. A radius
// of half the shorter side yields a pill or a circle.
func fillRounded(dst draw.Image, r image.Rectangle, radius int, c color.Color) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	radius = min(radius, r.Dx()/2, r.Dy()/2)
	if radius <= 0 {
		fill(dst, r, c)
		return
	}
	mask := image.NewAlpha(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dx := max(r.Min.X+radius-x, 0, x-(r.Max.X-1-radius))
			dy := max(r.Min.Y+radius-y, 0, y-(r.Max.Y-1-radius))
			if dx*dx+dy*dy <= radius*radius {
				mask.SetAlpha(x, y, color.Alpha{A: 255})
			}
		}
	}
	draw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, mask, r.Min, draw.Over)
}

// fillTriangle paints the triangle a, b, c.
func fillTriangle(dst draw.Image, a, b, c image.Point, col color.Color) {
	r := image.Rect(
		min(a.X, b.X, c.X), min(a.Y, b.Y, c.Y),
		max(a.X, b.X, c.X)+1, max(a.Y, b.Y, c.Y)+1,
	).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	edge := func(p, q, pt image.Point) int {
		return (q.X-p.X)*(pt.Y-p.Y) - (q.Y-p.Y)*(pt.X-p.X)
	}
	mask := image.NewAlpha(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			pt := image.Pt(x, y)
			e1, e2, e3 := edge(a, b, pt), edge(b, c, pt), edge(c, a, pt)
			if (e1 >= 0 && e2 >= 0 && e3 >= 0) || (e1 <= 0 && e2 <= 0 && e3 <= 0) {
				mask.SetAlpha(x, y, color.Alpha{A: 255})
			}
		}
	}
	draw.DrawMask(dst, r, image.NewUniform(col), image.Point{}, mask, r.Min, draw.Over)
}

// drawOverlay paints the tint layer. Gradients run from the full tint at
// their origin to transparent, matching CSS linear-gradient directions.
func drawOverlay(dst draw.Image, o style.Overlay) {
	if o.Alpha <= 0 {
		return
	}
	tint := parseColor(o.Color, black)
	b := dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	switch o.Gradient {
	case "":
		fill(dst, b, withAlpha(tint, o.Alpha))
	case "to-top", "to-bottom":
		for y := b.Min.Y; y < b.Max.Y; y++ {
			f := float64(y-b.Min.Y) / h
			if o.Gradient == "to-bottom" {
				f = 1 - f
			}
			fill(dst, image.Rect(b.Min.X, y, b.Max.X, y+1), withAlpha(tint, o.Alpha*f))
		}
	case "to-right", "to-left":
		for x := b.Min.X; x < b.Max.X; x++ {
			f := 1 - float64(x-b.Min.X)/w
			if o.Gradient == "to-left" {
				f = 1 - f
			}
			fill(dst, image.Rect(x, b.Min.Y, x+1, b.Max.Y), withAlpha(tint, o.Alpha*f))
		}
	}
}

// blur approximates a backdrop blur of r by scaling it down and back up.
func blur(dst draw.Image, r image.Rectangle, radius int) {
	r = r.Intersect(dst.Bounds())
	if radius <= 0 || r.Empty() {
		return
	}
	factor := max(2, radius/2)
	small := image.NewRGBA(image.Rect(0, 0, max(1, r.Dx()/factor), max(1, r.Dy()/factor)))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), dst, r, draw.Src, nil)
	draw.BiLinear.Scale(dst, r, small, small.Bounds(), draw.Src, nil)
}
