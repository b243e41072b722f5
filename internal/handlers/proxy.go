// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"slidedeck/internal/cache"
)

const (
	// proxyTimeout bounds one upstream fetch.
	proxyTimeout = 10 * time.Second
	// maxProxyBody caps upstream image size.
	maxProxyBody = 20 << 20
	// proxyCacheControl lets browsers keep images for the cache lifetime.
	proxyCacheControl = "public, max-age=3600"
)

var (
	errTooLarge     = errors.New("image too large")
	errNotImage     = errors.New("upstream is not an image")
	errInternalHost = errors.New("refusing to dial non-public address")
)

// nonPublicPrefixes are ranges not covered by the netip predicates that
// still never host public images.
var nonPublicPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
}

// ImageStore is the shared cache behind the proxy. cache.ImageCache
// implements it.
type ImageStore interface {
	Get(ctx context.Context, rawURL string) (*cache.Image, bool)
	Set(ctx context.Context, rawURL string, img cache.Image)
}

// Proxy fetches externally hosted images on behalf of the studio so the
// canvas can be rasterized without cross-origin restrictions.
type Proxy struct {
	client *http.Client
	cache  ImageStore // nil disables caching
	group  singleflight.Group
}

// NewProxy creates the image proxy. A nil client gets one that only dials
// public addresses; redirects are followed.
func NewProxy(client *http.Client, images ImageStore) *Proxy {
	if client == nil {
		client = publicClient()
	}
	return &Proxy{client: client, cache: images}
}

// publicClient checks every dialed address, so redirects and DNS answers
// pointing at internal hosts are refused too.
func publicClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   publicOnly,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return &http.Client{Timeout: proxyTimeout, Transport: transport}
}

// publicOnly is a net.Dialer Control hook rejecting non-public addresses.
func publicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return err
	}
	if !isPublicAddr(addr) {
		return fmt.Errorf("%w: %s", errInternalHost, addr)
	}
	return nil
}

func isPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return false
	}
	for _, p := range nonPublicPrefixes {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}

// Image serves GET /api/proxy/image?url=.
func (p *Proxy) Image(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "URL required")
		return
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		writeError(w, http.StatusBadRequest, "URL must be absolute http or https")
		return
	}

	ctx := r.Context()
	img, hit := p.lookup(ctx, raw)
	if !hit {
		// Concurrent requests for the same URL share one upstream fetch.
		v, err, _ := p.group.Do(raw, func() (any, error) {
			img, err := p.fetch(context.WithoutCancel(ctx), raw)
			if err != nil {
				return nil, err
			}
			if p.cache != nil {
				p.cache.Set(context.WithoutCancel(ctx), raw, *img)
			}
			return img, nil
		})
		if err != nil {
			slog.Error("proxy fetch failed", "url", raw, "error", err)
			writeError(w, http.StatusBadGateway, "Failed to fetch image")
			return
		}
		img = v.(*cache.Image)
	}

	etag := imageETag(img.Body)
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Cache-Control", proxyCacheControl)
	h.Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	h.Set("Content-Type", img.ContentType)
	w.Write(img.Body)
}

func (p *Proxy) lookup(ctx context.Context, raw string) (*cache.Image, bool) {
	if p.cache == nil {
		return nil, false
	}
	return p.cache.Get(ctx, raw)
}

// fetch downloads raw. Non-2xx answers and non-image bodies are errors.
func (p *Proxy) fetch(ctx context.Context, raw string) (*cache.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, proxyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProxyBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxProxyBody {
		return nil, errTooLarge
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	if !isRasterImage(contentType) {
		return nil, fmt.Errorf("%w: %q", errNotImage, contentType)
	}
	return &cache.Image{ContentType: contentType, Body: body}, nil
}

// isRasterImage accepts image/* media types except SVG, which can carry
// script.
func isRasterImage(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/") && mediaType != "image/svg+xml"
}

func imageETag(body []byte) string {
	sum := blake2b.Sum256(body)
	return `"` + hex.EncodeToString(sum[:12]) + `"`
}
