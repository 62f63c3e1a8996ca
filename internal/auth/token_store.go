package auth

import (
	"context"
	"fmt"
	"time"

	"opticart/internal/cache"
	"opticart/internal/model"
	"opticart/internal/repository"
)

const blacklistKeyPrefix = "blacklist:refresh_token:"

// TokenStoreInterface defines the interface for refresh-token revocation.
type TokenStoreInterface interface {
	BlacklistRefreshToken(ctx context.Context, claims *Claims) (bool, error)
	IsRefreshTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

// TokenStore keeps the refresh-token blacklist in the database, with Redis as a
// read-through marker for recently revoked tokens.
type TokenStore struct {
	repo  repository.TokenBlacklistRepository
	cache *cache.Client
	now   func() time.Time
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store. cache may be nil.
func NewTokenStore(repo repository.TokenBlacklistRepository, cache *cache.Client) *TokenStore {
	return &TokenStore{repo: repo, cache: cache, now: time.Now}
}

// BlacklistRefreshToken revokes the refresh token until it would have expired anyway.
// It reports false when the token had already been revoked.
func (s *TokenStore) BlacklistRefreshToken(ctx context.Context, claims *Claims) (bool, error) {
	expiresAt := s.now()
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	entry := &model.BlacklistedToken{JTI: claims.ID, UserID: claims.UserID, ExpiresAt: expiresAt}
	added, err := s.repo.Add(ctx, entry)
	if err != nil {
		return false, fmt.Errorf("blacklist refresh token: %w", err)
	}

	if ttl := expiresAt.Sub(s.now()); ttl > 0 {
		_ = s.cache.Set(ctx, blacklistKeyPrefix+claims.ID, []byte("1"), ttl)
	}
	return added, nil
}

// IsRefreshTokenBlacklisted checks if a refresh token has been revoked.
func (s *TokenStore) IsRefreshTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	if data, err := s.cache.Get(ctx, blacklistKeyPrefix+tokenID); err == nil && data != nil {
		return true, nil
	}
	ok, err := s.repo.Exists(ctx, tokenID)
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return ok, nil
}
