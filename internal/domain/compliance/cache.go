package compliance

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Cache stores compliance results by content hash.
type Cache interface {
	Get(ctx context.Context, key string) (*Result, bool, error)
	Set(ctx context.Context, key string, result *Result, ttl time.Duration) error
	// Kind names the backing store: "redis" or "memory".
	Kind() string
	Len(ctx context.Context) int
}

// CacheKey fingerprints a check request. Map keys are sorted by encoding/json
// and frameworks are sorted here, so equal requests produce equal keys.
func CacheKey(data map[string]interface{}, frameworks []string) (string, error) {
	sorted := append([]string(nil), frameworks...)
	sort.Strings(sorted)

	payload, err := json.Marshal(map[string]interface{}{
		"data":       data,
		"frameworks": sorted,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode compliance request: %w", err)
	}
	sum := md5.Sum(payload) //nolint:gosec // see import
	return hex.EncodeToString(sum[:]), nil
}

// Fresh reports whether a cached result is still within ttl at now.
func Fresh(r *Result, ttl time.Duration, now time.Time) bool {
	return r != nil && now.Sub(r.CheckedAt) < ttl
}
