// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package style

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is an opaque color.
type RGB struct {
	R, G, B uint8
}

// ParseHex parses "#rgb" or "#rrggbb" (the leading '#' is optional).
func ParseHex(s string) (RGB, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return RGB{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, false
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, true
}

// Hex formats the color as "#RRGGBB".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// RGBA formats the color with the given alpha as a CSS rgba() value. The
// alpha is printed with the shortest exact representation so that reading
// it back yields the same float.
func RGBA(c RGB, alpha float64) string {
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, strconv.FormatFloat(alpha, 'f', -1, 64))
}

// normalizeHex returns the canonical "#RRGGBB" form of s, or "" when s is
// not a valid hex color.
func normalizeHex(s string) string {
	c, ok := ParseHex(s)
	if !ok {
		return ""
	}
	return c.Hex()
}

// IsDark classifies a background as dark when its hex value starts with
// '0' or '1', or when the mode is explicitly "dark". The leading-digit rule
// is crude but kept so that existing decks keep their look.
func IsDark(background, mode string) bool {
	if mode == "dark" {
		return true
	}
	hex := strings.TrimPrefix(strings.TrimSpace(background), "#")
	if hex == "" {
		return false
	}
	return hex[0] == '0' || hex[0] == '1'
}
