// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"net/http"
	"strings"
)

// mistralProvider uses Mistral's OpenAI-compatible chat completions API.
type mistralProvider struct {
	chat chatClient
}

func newMistral(cfg ProviderConfig) *mistralProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mistral.ai"
	}
	// The configured base URL is shared with the moderator, which adds its
	// own /v1 prefix.
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if !strings.HasSuffix(cfg.BaseURL, "/v1") {
		cfg.BaseURL += "/v1"
	}
	return &mistralProvider{
		chat: chatClient{name: "mistral", config: cfg, client: &http.Client{Timeout: textTimeout}},
	}
}

func (p *mistralProvider) Name() string { return "mistral" }

func (p *mistralProvider) Generate(ctx context.Context, prompt Prompt) (string, error) {
	return p.chat.complete(ctx, prompt)
}
