// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package canvas

import (
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"strings"

	"slidedeck/internal/style"
)

//go:embed templates/slide.html
var templateFS embed.FS

var slideTemplate = template.Must(template.New("slide.html").ParseFS(templateFS, "templates/slide.html"))

// view is the template model: the tree plus every inline style precomputed
// as trusted CSS. All values are produced here from resolved tokens, never
// copied from user input.
type view struct {
	ID   string
	Tree Tree

	Root      template.CSS
	BgImage   template.CSS
	Overlay   template.CSS
	Mask      template.CSS
	Region    template.CSS
	Block     template.CSS
	Container template.CSS
	Title     template.CSS
	Body      template.CSS
	Accent    template.CSS
	Avatar    template.CSS
	Button    template.CSS
	Pill      template.CSS
	Arrow     template.CSS
	QR        template.URL
}

// WriteHTML writes the tree as a self-contained HTML fragment. id becomes
// the root element id so the studio can address the canvas.
func WriteHTML(w io.Writer, id string, t Tree) error {
	if err := slideTemplate.Execute(w, newView(id, t)); err != nil {
		return fmt.Errorf("render slide: %w", err)
	}
	return nil
}

func newView(id string, t Tree) view {
	c := t.Content
	v := view{ID: id, Tree: t}

	v.Root = css(
		"position", "relative",
		"width", px(t.Width),
		"height", px(t.Height),
		"overflow", "hidden",
		"background-color", t.Background.Color,
	)
	if t.Background.ImageURL != "" {
		v.BgImage = css(
			"position", "absolute", "inset", "0",
			"background-image", "url('"+cssURL(t.Background.ImageURL)+"')",
			"background-size", "cover",
			"background-position", "center",
		)
	}
	v.Overlay = css("position", "absolute", "inset", "0", "background", overlayCSS(t.Overlay))
	if t.Mask != nil {
		v.Mask = css(
			"position", "absolute",
			"left", px(t.Mask.X), "top", px(t.Mask.Y),
			"width", px(t.Mask.W), "height", px(t.Mask.H),
			"background-color", t.MaskColor,
		)
	}

	v.Region = css(
		"position", "absolute",
		"left", px(c.Region.X), "top", px(c.Region.Y),
		"width", px(c.Region.W), "height", px(c.Region.H),
		"display", "flex",
		"flex-direction", "column",
		"justify-content", flexAnchor(c.Position.Vertical),
		"align-items", flexAnchor(c.Position.Horizontal),
	)

	justify := "flex-start"
	if c.Spread {
		justify = "space-between"
	}
	block := []string{
		"display", "flex",
		"flex-direction", "column",
		"justify-content", justify,
		"align-items", textAnchor(c.Align),
		"gap", px(c.Gap),
		"width", px(c.Width),
		"max-width", "100%",
		"text-align", c.Align,
		"box-sizing", "border-box",
	}
	if c.Spread {
		block = append(block, "height", "100%")
	}
	if c.Container != nil {
		block = append(block,
			"padding", "48px",
			"border-radius", px(c.Container.Radius),
			"background", c.Container.Background,
		)
		if c.Container.Blur > 0 {
			blur := fmt.Sprintf("blur(%dpx)", c.Container.Blur)
			block = append(block, "backdrop-filter", blur, "-webkit-backdrop-filter", blur)
		}
	}
	v.Block = css(block...)

	v.Title = textCSS(c.Title, c.Font.Family, true)
	v.Body = textCSS(c.Body, "", false)
	if c.Accent != "" {
		v.Accent = css("width", "128px", "height", "8px", "background-color", c.Accent)
	}
	if c.Avatar != nil {
		v.Avatar = css(
			"width", px(c.Avatar.Size), "height", px(c.Avatar.Size),
			"border-radius", "9999px",
			"border", "4px solid "+c.Avatar.Border,
			"background-color", "#1F2937",
		)
	}
	if c.Button != nil {
		v.Button = css(
			"display", "flex", "align-items", "center", "justify-content", "center",
			"width", px(c.Button.Width), "height", px(c.Button.Height),
			"background-color", c.Button.Fill,
			"color", c.Button.TextColor,
			"font-size", px(c.Body.Size),
			"font-weight", "700",
			"text-transform", "uppercase",
		)
	}
	if c.Pill {
		v.Pill = css(
			"padding", "16px 32px",
			"border-radius", "9999px",
			"background", "rgba(255, 255, 255, 0.1)",
			"border", "1px solid rgba(255, 255, 255, 0.2)",
		)
	}
	if t.Arrow != nil {
		v.Arrow = css("position", "absolute", "right", "32px", "top", "50%", "transform", "translateY(-50%)", "color", t.Arrow.Color)
	}
	if len(c.QR) > 0 {
		v.QR = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(c.QR))
	}
	return v
}

// css joins property/value pairs into a declaration list. Pairs with an
// empty value are skipped.
func css(pairs ...string) template.CSS {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		b.WriteString(pairs[i])
		b.WriteString(": ")
		b.WriteString(pairs[i+1])
		b.WriteString("; ")
	}
	return template.CSS(strings.TrimSpace(b.String()))
}

func textCSS(t Text, family string, title bool) template.CSS {
	pairs := []string{
		"margin", "0",
		"color", t.Color,
		"font-size", px(t.Size),
		"text-shadow", t.Shadow,
		"font-family", family,
	}
	if title {
		pairs = append(pairs, "text-transform", "uppercase", "letter-spacing", "-0.05em", "line-height", "0.9")
	} else {
		pairs = append(pairs, "font-weight", "500", "line-height", "1.25")
	}
	return css(pairs...)
}

func overlayCSS(o style.Overlay) string {
	rgb, ok := style.ParseHex(o.Color)
	if !ok || o.Alpha <= 0 {
		return "transparent"
	}
	tint := style.RGBA(rgb, o.Alpha)
	if o.Gradient == "" {
		return tint
	}
	return fmt.Sprintf("linear-gradient(%s, %s, transparent)", strings.ReplaceAll(o.Gradient, "-", " "), tint)
}

func flexAnchor(a style.Anchor) string {
	switch a {
	case style.AnchorStart:
		return "flex-start"
	case style.AnchorEnd:
		return "flex-end"
	default:
		return "center"
	}
}

func textAnchor(align string) string {
	switch align {
	case "left":
		return "flex-start"
	case "right":
		return "flex-end"
	default:
		return "center"
	}
}

func px(n int) string {
	return fmt.Sprintf("%dpx", n)
}

// cssURL escapes the characters that could end a quoted CSS url().
func cssURL(u string) string {
	r := strings.NewReplacer(`'`, "%27", `"`, "%22", `\`, "%5C", "\n", "", "\r", "")
	return r.Replace(u)
}
