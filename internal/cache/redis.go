// Package cache keeps short-lived auth state in Redis.
package cache

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

// TokenStore tracks the current refresh token of each user and revoked
// access token ids.
type TokenStore struct {
	rdb *redis.Client
}

func NewTokenStore(rdb *redis.Client) *TokenStore {
	return &TokenStore{rdb: rdb}
}

func refreshKey(userID string) string {
	return "refresh:" + userID
}

func blacklistKey(tokenID string) string {
	return "blacklist:" + tokenID
}

func (s *TokenStore) StoreRefreshToken(ctx context.Context, userID, token string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, refreshKey(userID), token, ttl).Err(); err != nil {
		return errors.Wrap(err, "store refresh token")
	}
	return nil
}

// RefreshToken returns "" when the user has no live refresh token.
func (s *TokenStore) RefreshToken(ctx context.Context, userID string) (string, error) {
	token, err := s.rdb.Get(ctx, refreshKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "get refresh token")
	}
	return token, nil
}

func (s *TokenStore) DeleteRefreshToken(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, refreshKey(userID)).Err(); err != nil {
		return errors.Wrap(err, "delete refresh token")
	}
	return nil
}

// Blacklist revokes an access token id until its natural expiry.
func (s *TokenStore) Blacklist(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, blacklistKey(tokenID), "revoked", ttl).Err(); err != nil {
		return errors.Wrap(err, "blacklist token")
	}
	return nil
}

func (s *TokenStore) IsBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, blacklistKey(tokenID)).Result()
	if err != nil {
		return false, errors.Wrap(err, "check blacklist")
	}
	return n > 0, nil
}
