// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync/atomic"
	"time"
)

// ModerationResult contains the outcome of a prompt safety check.
type ModerationResult struct {
	Safe       bool     // true if the prompt passes moderation
	Categories []string // flagged category names, sorted (empty when safe)
}

// Moderator checks background prompts for policy violations before they
// are sent to an image model.
type Moderator interface {
	CheckSafety(ctx context.Context, text string) (*ModerationResult, error)
}

const moderationTimeout = 15 * time.Second

// openAIModerator uses the free OpenAI Moderation API (POST /v1/moderations).
type openAIModerator struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func newOpenAIModerator(apiKey, baseURL string) *openAIModerator {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &openAIModerator{apiKey: apiKey, baseURL: baseURL, client: &http.Client{Timeout: moderationTimeout}}
}

func (m *openAIModerator) CheckSafety(ctx context.Context, text string) (*ModerationResult, error) {
	body := moderationRequest{Model: "omni-moderation-latest", Input: text}
	var result struct {
		Results []struct {
			Flagged    bool            `json:"flagged"`
			Categories map[string]bool `json:"categories"`
		} `json:"results"`
	}
	if err := postJSON(ctx, m.client, "moderation", m.baseURL+"/moderations", bearer(m.apiKey), body, &result); err != nil {
		return nil, err
	}
	if len(result.Results) == 0 || !result.Results[0].Flagged {
		return &ModerationResult{Safe: true}, nil
	}
	return &ModerationResult{Categories: flaggedCategories(result.Results[0].Categories)}, nil
}

// mistralModerator uses the paid Mistral Moderation API.
type mistralModerator struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func newMistralModerator(apiKey, baseURL string) *mistralModerator {
	if baseURL == "" {
		baseURL = "https://api.mistral.ai"
	}
	baseURL = strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/v1")
	return &mistralModerator{apiKey: apiKey, baseURL: baseURL, client: &http.Client{Timeout: moderationTimeout}}
}

func (m *mistralModerator) CheckSafety(ctx context.Context, text string) (*ModerationResult, error) {
	body := moderationRequest{Model: "mistral-moderation-latest", Input: text}
	var result struct {
		Results []struct {
			Categories map[string]bool `json:"categories"`
		} `json:"results"`
	}
	if err := postJSON(ctx, m.client, "mistral moderation", m.baseURL+"/v1/moderations", bearer(m.apiKey), body, &result); err != nil {
		return nil, err
	}
	if len(result.Results) == 0 {
		return &ModerationResult{Safe: true}, nil
	}
	// Mistral has no top-level flag.
	flagged := flaggedCategories(result.Results[0].Categories)
	return &ModerationResult{Safe: len(flagged) == 0, Categories: flagged}, nil
}

// fallbackModerator asks primary first and switches to secondary when the
// primary rejects the credentials (e.g. project-scoped OpenAI keys). Once
// switched it stays on secondary.
type fallbackModerator struct {
	primary   Moderator
	secondary Moderator
	failed    atomic.Bool
}

func (f *fallbackModerator) CheckSafety(ctx context.Context, text string) (*ModerationResult, error) {
	if !f.failed.Load() {
		res, err := f.primary.CheckSafety(ctx, text)
		var apiErr *APIError
		if err == nil || !errors.As(err, &apiErr) || (apiErr.Status != http.StatusUnauthorized && apiErr.Status != http.StatusForbidden) {
			return res, err
		}
		slog.Warn("primary moderator rejected credentials, using fallback", "status", apiErr.Status)
		f.failed.Store(true)
	}
	return f.secondary.CheckSafety(ctx, text)
}

type moderationRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// flaggedCategories turns "hate/threatening" into "hate (threatening)" and
// "self_harm" into "self harm".
func flaggedCategories(cats map[string]bool) []string {
	var out []string
	for cat, flagged := range cats {
		if !flagged {
			continue
		}
		display := cat
		if base, sub, ok := strings.Cut(cat, "/"); ok {
			display = base + " (" + sub + ")"
		}
		out = append(out, strings.ReplaceAll(display, "_", " "))
	}
	slices.Sort(out)
	return out
}
