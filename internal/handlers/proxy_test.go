// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"slidedeck/internal/cache"
)

// memImages is an in-memory ImageStore.
type memImages struct {
	mu   sync.Mutex
	imgs map[string]cache.Image
}

func newMemImages() *memImages {
	return &memImages{imgs: make(map[string]cache.Image)}
}

func (m *memImages) Get(_ context.Context, raw string) (*cache.Image, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.imgs[raw]
	if !ok {
		return nil, false
	}
	return &img, true
}

func (m *memImages) Set(_ context.Context, raw string, img cache.Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imgs[raw] = img
}

func proxyRequest(p *Proxy, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/proxy/image?url="+url.QueryEscape(target), nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	p.Image(rec, req)
	return rec
}

func TestProxyImage(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/webp")
		w.Write([]byte("RIFFfakewebp"))
	}))
	defer upstream.Close()

	images := newMemImages()
	p := NewProxy(upstream.Client(), images)

	rec := proxyRequest(p, upstream.URL+"/bg.webp")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "RIFFfakewebp" {
		t.Errorf("body %q", rec.Body.String())
	}
	h := rec.Header()
	if h.Get("Content-Type") != "image/webp" {
		t.Errorf("content type %q", h.Get("Content-Type"))
	}
	if h.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("ACAO %q", h.Get("Access-Control-Allow-Origin"))
	}
	if h.Get("Cache-Control") != "public, max-age=3600" {
		t.Errorf("cache control %q", h.Get("Cache-Control"))
	}
	etag := h.Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	// Second request is served from the cache.
	rec = proxyRequest(p, upstream.URL+"/bg.webp")
	if rec.Code != http.StatusOK || hits.Load() != 1 {
		t.Errorf("status %d, upstream hits %d", rec.Code, hits.Load())
	}

	rec = proxyRequest(p, upstream.URL+"/bg.webp", "If-None-Match", etag)
	if rec.Code != http.StatusNotModified {
		t.Errorf("conditional request: status %d, want 304", rec.Code)
	}
}

func TestProxyImage_DefaultContentType(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer upstream.Close()

	p := NewProxy(upstream.Client(), nil)
	rec := proxyRequest(p, upstream.URL+"/x")
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type %q, want image/png", ct)
	}
}

func TestProxyImage_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg"))
	})
	upstream := httptest.NewServer(mux)
	defer upstream.Close()

	rec := proxyRequest(NewProxy(upstream.Client(), nil), upstream.URL+"/old")
	if rec.Code != http.StatusOK || rec.Body.String() != "jpeg" {
		t.Errorf("status %d body %q", rec.Code, rec.Body.String())
	}
}

func TestProxyImage_BadRequests(t *testing.T) {
	p := NewProxy(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/proxy/image", nil)
	rec := httptest.NewRecorder()
	p.Image(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing url: status %d", rec.Code)
	}

	for _, target := range []string{"file:///etc/passwd", "ftp://example.com/a.png", "/relative.png", "http://"} {
		if rec := proxyRequest(p, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", target, rec.Code)
		}
	}
}

func TestProxyImage_UpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer upstream.Close()

	images := newMemImages()
	p := NewProxy(upstream.Client(), images)
	rec := proxyRequest(p, upstream.URL+"/missing.png")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status %d, want 502", rec.Code)
	}
	if len(images.imgs) != 0 {
		t.Error("failed fetch must not be cached")
	}
}

func TestProxyImage_Timeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer upstream.Close()

	client := upstream.Client()
	client.Timeout = 50 * time.Millisecond
	rec := proxyRequest(NewProxy(client, nil), upstream.URL+"/slow.png")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status %d, want 502", rec.Code)
	}
}

func TestProxyImage_SharesConcurrentFetches(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("img"))
	}))
	defer upstream.Close()

	p := NewProxy(upstream.Client(), nil)
	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rec := proxyRequest(p, upstream.URL+"/shared.png"); rec.Code != http.StatusOK {
				t.Errorf("status %d", rec.Code)
			}
		}()
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := hits.Load(); n != 1 {
		t.Errorf("upstream fetched %d times, want 1", n)
	}
}

func TestProxyImage_RefusesLoopbackTarget(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("secret"))
	}))
	defer upstream.Close()

	images := &memImages{imgs: make(map[string]cache.Image)}
	p := NewProxy(nil, images)
	for _, target := range []string{
		upstream.URL + "/admin.png",
		strings.Replace(upstream.URL, "127.0.0.1", "localhost", 1) + "/admin.png",
	} {
		rec := proxyRequest(p, target)
		if rec.Code != http.StatusBadGateway {
			t.Errorf("%s: status %d, want 502", target, rec.Code)
		}
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("upstream reached %d times", n)
	}
	if len(images.imgs) != 0 {
		t.Errorf("cached %d entries", len(images.imgs))
	}
}

func TestProxyImage_RejectsNonImage(t *testing.T) {
	for _, ct := range []string{"text/html; charset=utf-8", "application/json", "image/svg+xml", "not a media type;;"} {
		t.Run(ct, func(t *testing.T) {
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", ct)
				w.Write([]byte("<script>alert(1)</script>"))
			}))
			defer upstream.Close()

			images := &memImages{imgs: make(map[string]cache.Image)}
			rec := proxyRequest(NewProxy(upstream.Client(), images), upstream.URL+"/page")
			if rec.Code != http.StatusBadGateway {
				t.Errorf("status %d, want 502", rec.Code)
			}
			if strings.Contains(rec.Body.String(), "<script>") {
				t.Error("upstream body relayed")
			}
			if len(images.imgs) != 0 {
				t.Errorf("cached %d entries", len(images.imgs))
			}
		})
	}
}

func TestPublicOnly(t *testing.T) {
	tests := []struct {
		address string
		allowed bool
	}{
		{"93.184.216.34:443", true},
		{"[2606:2800:220:1:248:1893:25c8:1946]:443", true},
		{"127.0.0.1:80", false},
		{"[::1]:80", false},
		{"10.1.2.3:80", false},
		{"172.16.0.1:80", false},
		{"192.168.1.1:80", false},
		{"169.254.169.254:80", false},
		{"[fe80::1]:80", false},
		{"[fd00::1]:80", false},
		{"0.0.0.0:80", false},
		{"[::]:80", false},
		{"100.64.0.1:80", false},
		{"224.0.0.1:80", false},
		{"[::ffff:127.0.0.1]:80", false},
	}
	for _, tt := range tests {
		err := publicOnly("tcp", tt.address, nil)
		if tt.allowed && err != nil {
			t.Errorf("%s: unexpected error %v", tt.address, err)
		}
		if !tt.allowed && !errors.Is(err, errInternalHost) {
			t.Errorf("%s: err = %v, want errInternalHost", tt.address, err)
		}
	}
}

func TestIsPublicAddr_MappedPrivate(t *testing.T) {
	if isPublicAddr(netip.MustParseAddr("::ffff:10.0.0.1")) {
		t.Error("IPv4-mapped private address treated as public")
	}
}
