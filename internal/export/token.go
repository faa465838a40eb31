package export

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"wedding-rsvp/internal/storage"
)

// TokenCacheKey is the blob key of the remembered token
const TokenCacheKey = "rsvp-admin-token"

// TokenCache remembers the export token between runs. It is a plain file
// next to the guest data and must not be treated as secret storage.
type TokenCache struct {
	blobs storage.BlobStore
}

type cachedToken struct {
	Token string `json:"token"`
}

func NewTokenCache(blobs storage.BlobStore) *TokenCache {
	return &TokenCache{blobs: blobs}
}

// Load returns the remembered token, if any
func (c *TokenCache) Load(ctx context.Context) (string, bool) {
	data, err := c.blobs.Get(ctx, TokenCacheKey)
	if err != nil {
		return "", false
	}
	var ct cachedToken
	if err := json.Unmarshal(data, &ct); err != nil {
		return "", false
	}
	token := strings.TrimSpace(ct.Token)
	return token, token != ""
}

// Store remembers token
func (c *TokenCache) Store(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrTokenRequired
	}
	data, err := json.Marshal(cachedToken{Token: token})
	if err != nil {
		return err
	}
	return c.blobs.Set(ctx, TokenCacheKey, data)
}

// Forget drops the remembered token
func (c *TokenCache) Forget(ctx context.Context) error {
	err := c.blobs.Delete(ctx, TokenCacheKey)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return nil
	}
	return err
}
