// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package canvas

import "github.com/skip2/go-qrcode"

// qrSize is the QR code edge in pixels.
const qrSize = 256

// qrPNG encodes content as a QR code PNG. It returns nil when the content
// cannot be encoded (too long for the chosen recovery level).
func qrPNG(content string) []byte {
	png, err := qrcode.Encode(content, qrcode.Medium, qrSize)
	if err != nil {
		return nil
	}
	return png
}
