// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. One Config serves both binaries: the backend reads the server,
// database, cache, AI and storage settings; the studio reads its own listen
// address and the backend URL.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Backend server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// AI provider settings
	AIProvider string // "openai", "gemini", "claude", "mistral"

	OpenAIKey        string
	OpenAIModel      string
	OpenAIImageModel string
	OpenAIBaseURL    string

	GeminiKey        string
	GeminiModel      string
	GeminiImageModel string
	GeminiBaseURL    string

	ClaudeKey     string
	ClaudeModel   string
	ClaudeBaseURL string

	MistralKey     string
	MistralModel   string
	MistralBaseURL string

	// S3-compatible object storage for generated backgrounds
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// ImageConcurrency bounds parallel image generation in bulk jobs.
	ImageConcurrency int

	// CORSOrigins lists the origins allowed to call the backend API.
	CORSOrigins []string

	// Studio settings
	StudioHost   string
	StudioPort   string
	BackendURL   string
	PollInterval time.Duration
	Watermark    string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode or a value cannot be parsed.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8001"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "slidedeck"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "slidedeck"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		AIProvider: envOrDefault("AI_PROVIDER", "openai"),

		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      envOrDefault("OPENAI_MODEL", "gpt-4o"),
		OpenAIImageModel: envOrDefault("OPENAI_IMAGE_MODEL", "dall-e-3"),
		OpenAIBaseURL:    envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		GeminiKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      envOrDefault("GEMINI_MODEL", "gemini-3.1-pro-preview"),
		GeminiImageModel: envOrDefault("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GeminiBaseURL:    envOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),

		ClaudeKey:     os.Getenv("CLAUDE_API_KEY"),
		ClaudeModel:   envOrDefault("CLAUDE_MODEL", "claude-sonnet-4-6"),
		ClaudeBaseURL: envOrDefault("CLAUDE_BASE_URL", "https://api.anthropic.com"),

		MistralKey:     os.Getenv("MISTRAL_API_KEY"),
		MistralModel:   envOrDefault("MISTRAL_MODEL", "mistral-large-latest"),
		MistralBaseURL: envOrDefault("MISTRAL_BASE_URL", "https://api.mistral.ai"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "fsn1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "slidedeck-public"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		CORSOrigins: splitList(envOrDefault("CORS_ORIGINS", "*")),

		StudioHost: envOrDefault("STUDIO_HOST", "0.0.0.0"),
		StudioPort: envOrDefault("STUDIO_PORT", "3000"),
		BackendURL: strings.TrimRight(envOrDefault("BACKEND_URL", "http://localhost:8001"), "/"),
		Watermark:  envOrDefault("WATERMARK_TEXT", "AGENCY.OS"),
	}

	n, err := strconv.Atoi(envOrDefault("IMAGE_CONCURRENCY", "3"))
	if err != nil || n < 1 {
		return nil, fmt.Errorf("IMAGE_CONCURRENCY must be a positive integer, got %q", os.Getenv("IMAGE_CONCURRENCY"))
	}
	cfg.ImageConcurrency = n

	cfg.PollInterval, err = time.ParseDuration(envOrDefault("STUDIO_POLL_INTERVAL", "5s"))
	if err != nil || cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("STUDIO_POLL_INTERVAL must be a positive duration, got %q", os.Getenv("STUDIO_POLL_INTERVAL"))
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string. Credentials are escaped,
// so passwords may contain URL delimiters.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Addr returns the backend listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// StudioAddr returns the studio listen address.
func (c *Config) StudioAddr() string {
	return net.JoinHostPort(c.StudioHost, c.StudioPort)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
