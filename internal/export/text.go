// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package export

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var upperCaser = cases.Upper(language.Und)

// upper uppercases s the way the canvas title transform does.
func upper(s string) string {
	return upperCaser.String(s)
}

// paragraph is a block of wrapped lines drawn with one face.
type paragraph struct {
	face       font.Face
	lines      []string
	lineHeight int
	color      color.NRGBA
	shadow     bool
}

// newParagraph wraps text to width. Explicit newlines are kept.
func newParagraph(face font.Face, text string, width int, leading float64, size int, c color.NRGBA, shadow bool) paragraph {
	return paragraph{
		face:       face,
		lines:      wrap(face, text, width),
		lineHeight: max(1, int(float64(size)*leading+0.5)),
		color:      c,
		shadow:     shadow,
	}
}

func (p paragraph) height() int {
	return len(p.lines) * p.lineHeight
}

// width returns the widest line in pixels.
func (p paragraph) width() int {
	w := 0
	for _, l := range p.lines {
		w = max(w, font.MeasureString(p.face, l).Ceil())
	}
	return w
}

// draw renders the lines top-down from y inside the column [x, x+w),
// aligned left, center or right.
func (p paragraph) draw(dst draw.Image, x, y, w int, align string) {
	m := p.face.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()
	for i, line := range p.lines {
		lw := font.MeasureString(p.face, line).Ceil()
		lx := x
		switch align {
		case "center":
			lx = x + (w-lw)/2
		case "right":
			lx = x + w - lw
		}
		baseline := y + i*p.lineHeight + (p.lineHeight+ascent-descent)/2
		if p.shadow {
			drawString(dst, p.face, line, lx, baseline+2, color.NRGBA{A: 180})
		}
		drawString(dst, p.face, line, lx, baseline, p.color)
	}
}

func drawString(dst draw.Image, face font.Face, s string, x, baseline int, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

// wrap breaks text into lines no wider than width. A single word wider
// than width gets a line of its own.
func wrap(face font.Face, text string, width int) []string {
	var lines []string
	for _, para := range strings.Split(strings.TrimSpace(text), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			if len(lines) > 0 {
				lines = append(lines, "")
			}
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if font.MeasureString(face, candidate).Ceil() <= width {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = w
		}
		lines = append(lines, line)
	}
	return lines
}
