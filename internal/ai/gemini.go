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

// geminiProvider uses the Gemini REST API
// (POST /v1beta/models/{model}:generateContent) for both text and images.
type geminiProvider struct {
	config ProviderConfig
	client *http.Client
	images *http.Client
}

func newGemini(cfg ProviderConfig) *geminiProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	return &geminiProvider{
		config: cfg,
		client: &http.Client{Timeout: textTimeout},
		images: &http.Client{Timeout: imageTimeout},
	}
}

func (p *geminiProvider) Name() string { return "gemini" }

func (p *geminiProvider) endpoint(model string) string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.config.BaseURL, model)
}

func (p *geminiProvider) headers() map[string]string {
	return map[string]string{"x-goog-api-key": p.config.APIKey}
}

func (p *geminiProvider) Generate(ctx context.Context, prompt Prompt) (string, error) {
	body := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: prompt.System}}},
		Contents:          []geminiContent{{Parts: []geminiPart{{Text: prompt.User}}}},
	}
	if prompt.JSON {
		body.GenerationConfig = &geminiConfig{ResponseMimeType: "application/json"}
	}

	var result geminiResponse
	if err := postJSON(ctx, p.client, "gemini", p.endpoint(p.config.Model), p.headers(), body, &result); err != nil {
		return "", err
	}
	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("gemini: no candidates returned")
	}
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			return part.Text, nil
		}
	}
	return "", fmt.Errorf("gemini: no text in response")
}

// GenerateImage asks the image model for an IMAGE modality answer and
// returns the first inline image part.
func (p *geminiProvider) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	if p.config.ImageModel == "" {
		return nil, fmt.Errorf("gemini: image generation requires GEMINI_IMAGE_MODEL to be set")
	}
	body := geminiRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: "Generate a square image of: " + prompt}}}},
		GenerationConfig: &geminiConfig{ResponseModalities: []string{"IMAGE", "TEXT"}},
	}

	var result geminiResponse
	if err := postJSON(ctx, p.images, "gemini image", p.endpoint(p.config.ImageModel), p.headers(), body, &result); err != nil {
		return nil, err
	}
	for _, c := range result.Candidates {
		for _, part := range c.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("gemini image decode base64: %w", err)
			}
			contentType := part.InlineData.MimeType
			if contentType == "" {
				contentType = "image/png"
			}
			return &Image{Data: data, ContentType: contentType}, nil
		}
	}
	return nil, fmt.Errorf("gemini image: no image data in response")
}

// --- Gemini API types ---

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiConfig struct {
	ResponseMimeType   string   `json:"responseMimeType,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  *geminiConfig   `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}
