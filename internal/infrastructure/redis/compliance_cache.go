package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/chiragkoyande/audit-project/internal/domain/compliance"
)

const complianceKey = "compliance:%s"

// ComplianceCache stores compliance results in Redis.
type ComplianceCache struct {
	client *Client
}

// NewComplianceCache creates a Redis-backed compliance cache.
func NewComplianceCache(client *Client) *ComplianceCache {
	return &ComplianceCache{client: client}
}

// Get returns a cached result. A miss is not an error.
func (c *ComplianceCache) Get(ctx context.Context, key string) (*compliance.Result, bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf(complianceKey, key))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read compliance cache: %w", err)
	}

	var result compliance.Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to unmarshal cached compliance result")
		return nil, false, nil
	}
	return &result, true, nil
}

// Set caches a result for ttl.
func (c *ComplianceCache) Set(ctx context.Context, key string, result *compliance.Result, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode compliance result: %w", err)
	}
	if err := c.client.Set(ctx, fmt.Sprintf(complianceKey, key), string(data), ttl); err != nil {
		return fmt.Errorf("failed to write compliance cache: %w", err)
	}
	return nil
}

// Kind returns "redis".
func (c *ComplianceCache) Kind() string { return "redis" }

// Len counts cached results; -1 when Redis cannot be scanned.
func (c *ComplianceCache) Len(ctx context.Context) int {
	n, err := c.client.CountPattern(ctx, fmt.Sprintf(complianceKey, "*"))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to count compliance cache keys")
		return -1
	}
	return n
}
