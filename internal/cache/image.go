// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// image.go provides the Valkey-backed cache behind the image proxy.
// Remote images are fetched once and then served from Valkey until the TTL
// expires, keyed by a hash of the source URL.
package cache

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

const (
	// imageKeyPrefix is the Valkey key prefix for proxied images.
	imageKeyPrefix = "img:"

	// DefaultImageTTL matches the Cache-Control max-age of the proxy.
	DefaultImageTTL = time.Hour

	// MaxCachedImage is the largest body worth keeping in Valkey.
	MaxCachedImage = 8 << 20
)

// Image is a cached proxy response.
type Image struct {
	ContentType string
	Body        []byte
}

// ImageCache stores proxied images in Valkey.
type ImageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewImageCache creates an image cache backed by the given Valkey client.
func NewImageCache(client *redis.Client, ttl time.Duration) *ImageCache {
	if ttl == 0 {
		ttl = DefaultImageTTL
	}
	return &ImageCache{client: client, ttl: ttl}
}

// ImageKey returns the cache key for a source URL.
func ImageKey(rawURL string) string {
	sum := blake2b.Sum256([]byte(rawURL))
	return imageKeyPrefix + hex.EncodeToString(sum[:16])
}

// Get returns the cached image for rawURL. Errors count as a miss.
func (c *ImageCache) Get(ctx context.Context, rawURL string) (*Image, bool) {
	vals, err := c.client.HGetAll(ctx, ImageKey(rawURL)).Result()
	if err != nil {
		slog.Warn("image cache get error", "url", rawURL, "error", err)
		return nil, false
	}
	body, ok := vals["body"]
	if !ok {
		return nil, false
	}
	slog.Debug("image cache hit", "url", rawURL)
	return &Image{ContentType: vals["type"], Body: []byte(body)}, true
}

// Set stores an image. Oversized bodies are skipped.
func (c *ImageCache) Set(ctx context.Context, rawURL string, img Image) {
	if len(img.Body) > MaxCachedImage {
		return
	}
	key := ImageKey(rawURL)
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, "type", img.ContentType, "body", img.Body)
		p.Expire(ctx, key, c.ttl)
		return nil
	})
	if err != nil {
		slog.Warn("image cache set error", "url", rawURL, "error", err)
	}
}

// ErrLocked is returned by Locker.Lock when the key is already held.
var ErrLocked = errors.New("cache: already locked")

const lockKeyPrefix = "lock:"

// Locker hands out short-lived exclusive locks in Valkey. The backend uses
// it so one slide never has two background generations in flight, even
// across processes.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocker creates a Locker whose locks expire after ttl.
func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	return &Locker{client: client, ttl: ttl}
}

// releaseScript deletes KEYS[1] only while it still holds ARGV[1], so a
// holder whose lock expired cannot release a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Lock acquires key and returns the token that releases it. It returns
// ErrLocked if someone else holds it.
func (l *Locker) Lock(ctx context.Context, key string) (string, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKeyPrefix+key, token, l.ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrLocked
	}
	return token, nil
}

// Unlock releases key if it is still held with token.
func (l *Locker) Unlock(ctx context.Context, key, token string) {
	n, err := releaseScript.Run(ctx, l.client, []string{lockKeyPrefix + key}, token).Int()
	if err != nil {
		slog.Warn("unlock failed", "key", key, "error", err)
		return
	}
	if n == 0 {
		slog.Warn("lock expired before unlock", "key", key)
	}
}
