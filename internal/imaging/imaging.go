// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging prepares generated backgrounds for storage. Providers
// return images in whatever size and format they like; slides are square,
// so every background is cropped around its center, scaled to the canvas
// size and re-encoded as JPEG before upload.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif" // register GIF decoder
	_ "image/png" // register PNG decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// DefaultQuality is the JPEG quality of normalized backgrounds.
const DefaultQuality = 85

// ProcessedImage is a background ready for upload.
type ProcessedImage struct {
	Width       int
	Height      int
	Data        []byte
	ContentType string // always "image/jpeg"
}

// Normalize decodes data, crops it to a size x size square and encodes it
// as JPEG. Images smaller than size are scaled up; the canvas needs the
// full resolution either way.
func Normalize(data []byte, size, quality int) (*ProcessedImage, error) {
	if size <= 0 {
		return nil, fmt.Errorf("imaging: invalid size %d", size)
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode failed: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	Cover(dst, src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("imaging: encode failed: %w", err)
	}

	return &ProcessedImage{
		Width:       size,
		Height:      size,
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
	}, nil
}

// Cover scales src to fill dst's bounds, cropping the overflow around the
// center.
func Cover(dst draw.Image, src image.Image) {
	db, sb := dst.Bounds(), src.Bounds()
	if sb.Empty() {
		return
	}
	crop := sb
	// Compare aspect ratios without floating point.
	if sb.Dx()*db.Dy() > sb.Dy()*db.Dx() {
		w := sb.Dy() * db.Dx() / db.Dy()
		crop.Min.X = sb.Min.X + (sb.Dx()-w)/2
		crop.Max.X = crop.Min.X + w
	} else {
		h := sb.Dx() * db.Dy() / db.Dx()
		crop.Min.Y = sb.Min.Y + (sb.Dy()-h)/2
		crop.Max.Y = crop.Min.Y + h
	}
	draw.CatmullRom.Scale(dst, db, src, crop, draw.Over, nil)
}
