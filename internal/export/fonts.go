// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package export

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/opentype"
)

// Face names understood by the exporter. style.Font.Face refers to these.
const (
	faceRegular = "go-regular"
	faceMono    = "go-mono"
)

var faceSources = map[string][]byte{
	faceRegular:        goregular.TTF,
	"go-bold":          gobold.TTF,
	"go-italic":        goitalic.TTF,
	"go-medium":        gomedium.TTF,
	"go-medium-italic": gomediumitalic.TTF,
	faceMono:           gomono.TTF,
	"go-mono-bold":     gomonobold.TTF,
	"go-smallcaps":     gosmallcaps.TTF,
}

// fontSet holds the parsed fonts. Parsed fonts are safe to share; faces
// are not, so every export creates its own.
type fontSet struct {
	fonts map[string]*opentype.Font
}

func loadFonts() (*fontSet, error) {
	fs := &fontSet{fonts: make(map[string]*opentype.Font, len(faceSources))}
	for name, ttf := range faceSources {
		f, err := opentype.Parse(ttf)
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", name, err)
		}
		fs.fonts[name] = f
	}
	return fs, nil
}

// face returns a face of the named font at size pixels. Unknown names use
// the regular face.
func (fs *fontSet) face(name string, size int) (font.Face, error) {
	f, ok := fs.fonts[name]
	if !ok {
		f = fs.fonts[faceRegular]
	}
	if size <= 0 {
		size = 16
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face %s/%d: %w", name, size, err)
	}
	return face, nil
}
