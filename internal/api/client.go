// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package api is the HTTP client for the slidedeck REST backend. The studio
// uses it for every remote operation: listing and loading decks, saving
// edits, triggering generation jobs, requesting background images and
// fetching images through the proxy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"slidedeck/internal/models"
)

// ErrNotFound is returned when the backend answers 404.
var ErrNotFound = errors.New("api: not found")

// maxErrorBody caps how much of an error response is kept for messages.
const maxErrorBody = 4 << 10

// maxImageBody caps proxied image downloads.
const maxImageBody = 20 << 20

// StatusError is a non-2xx backend response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("api %s %s: status %d: %s", e.Method, e.Path, e.Status, msg)
}

// Client talks to the backend at BaseURL (scheme and host, no /api suffix).
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for baseURL. A nil httpClient uses a client with a
// 60 second timeout, as image generation is slow.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// ProxyBase is the image proxy endpoint that canvas background URLs are
// routed through.
func (c *Client) ProxyBase() string {
	return c.baseURL + "/api/proxy/image"
}

// ListGenerations returns deck summaries, newest first.
func (c *Client) ListGenerations(ctx context.Context) ([]models.Generation, error) {
	var out []models.Generation
	if err := c.do(ctx, http.MethodGet, "/api/generations/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetGeneration returns one deck with its slides.
func (c *Client) GetGeneration(ctx context.Context, id uuid.UUID) (*models.Generation, error) {
	var out models.Generation
	if err := c.do(ctx, http.MethodGet, "/api/generations/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateGeneration persists a partial deck update.
func (c *Client) UpdateGeneration(ctx context.Context, id uuid.UUID, patch models.GenerationPatch) error {
	return c.do(ctx, http.MethodPut, "/api/generations/"+id.String(), patch, nil)
}

// GenerateImage asks the backend to generate the background of one slide
// and returns the stored image URL.
func (c *Client) GenerateImage(ctx context.Context, id uuid.UUID, slideID string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	path := "/api/generations/" + id.String() + "/generate-image/" + url.PathEscape(slideID)
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// GenerateViralVisuals starts bulk background generation for a deck. The
// backend answers immediately; images appear on later loads.
func (c *Client) GenerateViralVisuals(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/api/generations/"+id.String()+"/generate-viral-visuals", nil, nil)
}

// TriggerGeneration starts a generation job and returns the new deck id.
func (c *Client) TriggerGeneration(ctx context.Context, req models.TriggerRequest) (uuid.UUID, error) {
	var out struct {
		Status string    `json:"status"`
		ID     uuid.UUID `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/webhooks/trigger", req, &out); err != nil {
		return uuid.Nil, err
	}
	return out.ID, nil
}

// FetchImage downloads rawURL. URLs pointing at this backend are fetched
// as is; anything else goes through the image proxy.
func (c *Client) FetchImage(ctx context.Context, rawURL string) ([]byte, error) {
	target := rawURL
	if !strings.HasPrefix(rawURL, c.baseURL+"/") {
		target = c.ProxyBase() + "?url=" + url.QueryEscape(rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("api image request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(req, resp)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBody))
	if err != nil {
		return nil, fmt.Errorf("api image read: %w", err)
	}
	return data, nil
}

// do performs a JSON request. in is marshalled when non-nil; out is filled
// from a 2xx response when non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api marshal: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("api request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(req, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api %s %s: decode: %w", method, path, err)
	}
	return nil
}

func statusError(req *http.Request, resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	// Backend errors are {"error": "..."}; fall back to the raw body.
	var e struct {
		Error string `json:"error"`
	}
	text := string(msg)
	if json.Unmarshal(msg, &e) == nil && e.Error != "" {
		text = e.Error
	}
	return &StatusError{Method: req.Method, Path: req.URL.Path, Status: resp.StatusCode, Body: text}
}
