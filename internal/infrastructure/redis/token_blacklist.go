package redis

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const blacklistKey = "blacklist:%s"

// TokenBlacklist records revoked access tokens until they would have expired.
type TokenBlacklist struct {
	client *Client
}

// NewTokenBlacklist creates a Redis-backed token blacklist.
func NewTokenBlacklist(client *Client) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

// Revoke blacklists a token ID for ttl.
func (tb *TokenBlacklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := tb.client.Set(ctx, fmt.Sprintf(blacklistKey, tokenID), "1", ttl); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

// IsRevoked checks if a token ID is on the blacklist.
func (tb *TokenBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	exists, err := tb.client.Exists(ctx, fmt.Sprintf(blacklistKey, tokenID))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false, err
		}
		return false, fmt.Errorf("blacklist check failed: %w", err)
	}
	return exists, nil
}
