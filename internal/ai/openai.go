// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
)

const (
	defaultOpenAIImageModel = "dall-e-3"
	openAIImageSize         = "1024x1024"
)

// chatClient speaks the chat completions protocol. OpenAI and Mistral share it.
type chatClient struct {
	name   string
	config ProviderConfig
	client *http.Client
}

func (c *chatClient) complete(ctx context.Context, p Prompt) (string, error) {
	body := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
	}
	if p.JSON {
		body.ResponseFormat = &chatFormat{Type: "json_object"}
	}

	var result chatResponse
	if err := postJSON(ctx, c.client, c.name, c.config.BaseURL+"/chat/completions", bearer(c.config.APIKey), body, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices returned", c.name)
	}
	return result.Choices[0].Message.Content, nil
}

// openAIProvider writes copy with chat completions and draws backgrounds
// with the images API.
type openAIProvider struct {
	chat   chatClient
	images *http.Client
}

func newOpenAI(cfg ProviderConfig) *openAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = defaultOpenAIImageModel
	}
	return &openAIProvider{
		chat:   chatClient{name: "openai", config: cfg, client: &http.Client{Timeout: textTimeout}},
		images: &http.Client{Timeout: imageTimeout},
	}
}

func (p *openAIProvider) Name() string { return "openai" }

func (p *openAIProvider) Generate(ctx context.Context, prompt Prompt) (string, error) {
	return p.chat.complete(ctx, prompt)
}

// GenerateImage creates a square image with the configured image model.
// The image comes back base64-encoded so no second download is needed.
func (p *openAIProvider) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	cfg := p.chat.config
	body := imageRequest{
		Model:          cfg.ImageModel,
		Prompt:         prompt,
		N:              1,
		Size:           openAIImageSize,
		ResponseFormat: "b64_json",
	}

	var result imageResponse
	if err := postJSON(ctx, p.images, "openai image", cfg.BaseURL+"/images/generations", bearer(cfg.APIKey), body, &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 || result.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("openai image: no image data in response")
	}
	data, err := base64.StdEncoding.DecodeString(result.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("openai image decode base64: %w", err)
	}
	return &Image{Data: data, ContentType: "image/png"}, nil
}

// --- Chat completions types, shared with Mistral ---

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *chatFormat   `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// --- Images API types ---

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}
