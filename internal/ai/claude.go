// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"fmt"
	"net/http"
)

const (
	claudeAPIVersion = "2023-06-01"
	claudeMaxTokens  = 4096
)

// claudeProvider uses the Anthropic Messages API (POST /v1/messages).
type claudeProvider struct {
	config ProviderConfig
	client *http.Client
}

func newClaude(cfg ProviderConfig) *claudeProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	return &claudeProvider{
		config: cfg,
		client: &http.Client{Timeout: textTimeout},
	}
}

func (p *claudeProvider) Name() string { return "claude" }

// Generate sends one user message. The Messages API has no JSON switch, so
// Prompt.JSON only relies on the instructions in the system prompt.
func (p *claudeProvider) Generate(ctx context.Context, prompt Prompt) (string, error) {
	body := claudeRequest{
		Model:     p.config.Model,
		MaxTokens: claudeMaxTokens,
		System:    prompt.System,
		Messages:  []chatMessage{{Role: "user", Content: prompt.User}},
	}
	headers := map[string]string{
		"x-api-key":         p.config.APIKey,
		"anthropic-version": claudeAPIVersion,
	}

	var result claudeResponse
	if err := postJSON(ctx, p.client, "claude", p.config.BaseURL+"/v1/messages", headers, body, &result); err != nil {
		return "", err
	}
	for _, block := range result.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("claude: no text content in response")
}

type claudeRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}
