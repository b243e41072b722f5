// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package export rasterizes a canvas tree into a PNG. It paints the same
// layers the HTML renderer emits: background image, tint, split mask,
// content block, navigation arrow and watermark. The result approximates
// the browser rendering closely enough for social posting; it is not a
// CSS engine.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"io"
	"net/http"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder

	"slidedeck/internal/canvas"
	"slidedeck/internal/imaging"
)

// containerPadding is the inner padding of the text container.
const containerPadding = 48

// maxImageBytes caps the background download.
const maxImageBytes = 20 << 20

// Fetcher downloads background images. The URL is the proxied one found in
// the canvas tree.
type Fetcher interface {
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches images with a plain HTTP GET.
type HTTPFetcher struct {
	Client *http.Client
}

// FetchImage implements Fetcher.
func (f HTTPFetcher) FetchImage(ctx context.Context, url string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

// Exporter turns canvas trees into PNG bytes.
type Exporter struct {
	fetch Fetcher
	fonts *fontSet
}

// New creates an Exporter. A nil fetch uses HTTPFetcher.
func New(fetch Fetcher) (*Exporter, error) {
	fonts, err := loadFonts()
	if err != nil {
		return nil, err
	}
	if fetch == nil {
		fetch = HTTPFetcher{}
	}
	return &Exporter{fetch: fetch, fonts: fonts}, nil
}

// FileName is the download name of the n-th slide (1-based).
func FileName(n int) string {
	return fmt.Sprintf("slide-%d.png", n)
}

// PNG rasterizes t. Any failure, including an unreadable background image,
// is returned as an error and nothing is produced.
func (e *Exporter) PNG(ctx context.Context, t canvas.Tree) ([]byte, error) {
	if t.Width <= 0 || t.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", t.Width, t.Height)
	}
	dst := image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
	fill(dst, dst.Bounds(), parseColor(t.Background.Color, black))

	if t.Background.ImageURL != "" {
		data, err := e.fetch.FetchImage(ctx, t.Background.ImageURL)
		if err != nil {
			return nil, fmt.Errorf("background: %w", err)
		}
		src, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode background: %w", err)
		}
		imaging.Cover(dst, src)
	}

	drawOverlay(dst, t.Overlay)
	if t.Mask != nil {
		fill(dst, rect(*t.Mask), parseColor(t.MaskColor, black))
	}

	if err := e.drawContent(dst, t.Content); err != nil {
		return nil, err
	}
	if t.Arrow != nil {
		drawArrow(dst, parseColor(t.Arrow.Color, white))
	}
	if t.Watermark != "" {
		if err := e.drawWatermark(dst, t.Watermark); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// item is one vertically stacked element of the content block.
type item struct {
	h    int
	draw func(x, y, w int)
}

func (e *Exporter) drawContent(dst *image.RGBA, c canvas.Content) error {
	inset := 0
	if c.Container != nil {
		inset = containerPadding
	}
	inner := c.Width - 2*inset

	titleFace, err := e.fonts.face(c.Font.Face, c.Title.Size)
	if err != nil {
		return err
	}
	bodyFace, err := e.fonts.face(faceRegular, c.Body.Size)
	if err != nil {
		return err
	}

	shadow := c.Title.Shadow != ""
	title := newParagraph(titleFace, upper(c.Title.Plain), inner, 0.9, c.Title.Size, parseColor(c.Title.Color, white), shadow)

	var head []item
	if c.Avatar != nil {
		a := *c.Avatar
		head = append(head, item{h: a.Size, draw: func(x, y, w int) {
			ax := alignX(x, w, a.Size, c.Align)
			outer := image.Rect(ax, y, ax+a.Size, y+a.Size)
			fillRounded(dst, outer, a.Size/2, parseColor(a.Border, white))
			fillRounded(dst, outer.Inset(4), a.Size/2, parseColor("#1F2937", black))
		}})
	}
	accent := 0
	if c.Accent != "" {
		accent = 8 + 32
	}
	head = append(head, item{h: accent + title.height(), draw: func(x, y, w int) {
		if c.Accent != "" {
			bx := alignX(x, w, 128, c.Align)
			fill(dst, image.Rect(bx, y, bx+128, y+8), parseColor(c.Accent, white))
		}
		title.draw(dst, x, y+accent, w, c.Align)
	}})

	var tail []item
	bodyColor := parseColor(c.Body.Color, white)
	switch {
	case c.Button != nil:
		b := *c.Button
		label := newParagraph(bodyFace, upper(c.Body.Plain), b.Width-64, 1.1, c.Body.Size, parseColor(b.TextColor, black), false)
		h := max(b.Height, label.height()+32)
		tail = append(tail, item{h: h, draw: func(x, y, w int) {
			bx := alignX(x, w, b.Width, c.Align)
			fill(dst, image.Rect(bx, y, bx+b.Width, y+h), parseColor(b.Fill, white))
			label.draw(dst, bx, y+(h-label.height())/2, b.Width, "center")
		}})
	case c.Pill:
		body := newParagraph(bodyFace, c.Body.Plain, inner-64, 1.25, c.Body.Size, bodyColor, shadow)
		pw, ph := body.width()+64, body.height()+32
		tail = append(tail, item{h: ph, draw: func(x, y, w int) {
			px := alignX(x, w, pw, c.Align)
			fillRounded(dst, image.Rect(px, y, px+pw, y+ph), ph/2, withAlpha(white, 0.1))
			body.draw(dst, px+32, y+16, pw-64, "center")
		}})
	default:
		body := newParagraph(bodyFace, c.Body.Plain, inner, 1.25, c.Body.Size, bodyColor, shadow)
		if len(body.lines) > 0 {
			tail = append(tail, item{h: body.height(), draw: func(x, y, w int) {
				body.draw(dst, x, y, w, c.Align)
			}})
		}
	}
	if len(c.QR) > 0 {
		qr, err := png.Decode(bytes.NewReader(c.QR))
		if err != nil {
			return fmt.Errorf("decode qr: %w", err)
		}
		const side = 160
		tail = append(tail, item{h: side, draw: func(x, y, w int) {
			qx := alignX(x, w, side, c.Align)
			draw.NearestNeighbor.Scale(dst, image.Rect(qx, y, qx+side, y+side), qr, qr.Bounds(), draw.Src, nil)
		}})
	}

	stack := func(items []item) int {
		h := 0
		for i, it := range items {
			if i > 0 {
				h += c.Gap
			}
			h += it.h
		}
		return h
	}
	headH, tailH := stack(head), stack(tail)
	contentH := headH + tailH
	if len(tail) > 0 {
		contentH += c.Gap
	}

	blockH := contentH + 2*inset
	if c.Spread {
		blockH = max(blockH, c.Region.H)
	}
	bx := c.Region.X + offset(c.Region.W, c.Width, string(c.Position.Horizontal))
	by := c.Region.Y + offset(c.Region.H, blockH, string(c.Position.Vertical))
	block := image.Rect(bx, by, bx+c.Width, by+blockH)

	if c.Container != nil {
		blur(dst, block, c.Container.Blur)
		fillRounded(dst, block, c.Container.Radius, parseColor(c.Container.Background, black))
	}

	x, y := bx+inset, by+inset
	for _, it := range head {
		it.draw(x, y, inner)
		y += it.h + c.Gap
	}
	if c.Spread {
		y = block.Max.Y - inset - tailH
	}
	for _, it := range tail {
		it.draw(x, y, inner)
		y += it.h + c.Gap
	}
	return nil
}

func (e *Exporter) drawWatermark(dst *image.RGBA, text string) error {
	face, err := e.fonts.face(faceMono, 20)
	if err != nil {
		return err
	}
	p := newParagraph(face, text, dst.Bounds().Dx(), 1.2, 20, withAlpha(white, 0.5), false)
	w := p.width()
	b := dst.Bounds()
	p.draw(dst, b.Max.X-32-w, b.Max.Y-32-p.height(), w, "left")
	return nil
}

// drawArrow paints the swipe arrow centered on the right edge.
func drawArrow(dst *image.RGBA, c color.Color) {
	b := dst.Bounds()
	cy := b.Min.Y + b.Dy()/2
	right := b.Max.X - 32 - 8
	fill(dst, image.Rect(right-48, cy-3, right-16, cy+3), c)
	fillTriangle(dst, image.Pt(right-20, cy-20), image.Pt(right-20, cy+20), image.Pt(right, cy), c)
}

// offset places a span of size n inside a span of size total.
func offset(total, n int, anchor string) int {
	switch anchor {
	case "center":
		return (total - n) / 2
	case "end":
		return total - n
	default:
		return 0
	}
}

// alignX places an element of width n inside the column [x, x+w).
func alignX(x, w, n int, align string) int {
	switch align {
	case "center":
		return x + (w-n)/2
	case "right":
		return x + w - n
	default:
		return x
	}
}

func rect(r canvas.Rect) image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}
