// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown converts slide copy written with inline Markdown
// emphasis (**bold**, *italic*, ~~strike~~, `code`) into sanitized HTML.
// Slide copy is short, so block structure is flattened: paragraphs become
// line breaks and anything outside the inline allow-list is stripped.
package markdown

import (
	"bytes"
	stdhtml "html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// md is the configured goldmark instance, reused across calls. Raw HTML in
// the source is escaped, never passed through.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.Strikethrough,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
		html.WithXHTML(),
	),
)

// policy keeps inline emphasis only.
var policy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("strong", "em", "del", "code", "br")
	return p
}()

var (
	paragraphBreak = regexp.MustCompile(`</p>\s*<p>`)
	paragraphTags  = regexp.MustCompile(`</?p>`)
)

// InlineHTML renders source as inline HTML safe to embed in a slide.
func InlineHTML(source string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	out := paragraphBreak.ReplaceAllString(buf.String(), "<br /><br />")
	out = paragraphTags.ReplaceAllString(out, "")
	return strings.TrimSpace(policy.Sanitize(out)), nil
}

// PlainText strips inline Markdown markers, for surfaces that cannot render
// HTML (the PNG exporter).
func PlainText(source string) string {
	out, err := InlineHTML(source)
	if err != nil {
		return source
	}
	out = strings.ReplaceAll(out, "<br /><br />", "\n")
	out = strings.ReplaceAll(out, "<br />", "\n")
	out = strings.ReplaceAll(out, "<br/>", "\n")
	return strings.TrimSpace(stdhtml.UnescapeString(bluemonday.StrictPolicy().Sanitize(out)))
}
