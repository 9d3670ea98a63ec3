// Package settings persists user preferences, most importantly the OpenRouter credential.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// Namespace groups every preference key.
	Namespace = "LegalBotPrefs"
	// CredentialKey holds the user's OpenRouter API key.
	CredentialKey = "api_key"
)

var ErrNotFound = errors.New("settings: key not found")

// Store is a namespaced string key/value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// LoadCredential returns the stored credential, or "" with a nil error when none is
// configured. A blank stored value counts as not configured.
func LoadCredential(ctx context.Context, s Store) (string, error) {
	v, err := s.Get(ctx, CredentialKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}
	return strings.TrimSpace(v), nil
}

// SaveCredential stores credential, or removes it when blank.
func SaveCredential(ctx context.Context, s Store, credential string) error {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		if err := s.Delete(ctx, CredentialKey); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("delete credential: %w", err)
		}
		return nil
	}
	if err := s.Set(ctx, CredentialKey, credential); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

// Open returns a RedisStore when cfg names a server and a MemoryStore otherwise.
// The returned close function is never nil.
func Open(ctx context.Context, cfg RedisConfig) (Store, func() error, error) {
	if cfg.URL == "" {
		return NewMemoryStore(), func() error { return nil }, nil
	}
	rs, err := NewRedisStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return rs, rs.Close, nil
}
