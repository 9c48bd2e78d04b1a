// Package memcache provides in-process TTL caches used when Redis is not available.
package memcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/chiragkoyande/audit-project/internal/domain/compliance"
)

// ComplianceCache is a size-bounded in-memory compliance cache.
// Entries expire after the TTL given at construction; Set's ttl is checked
// against the stored result on read.
type ComplianceCache struct {
	lru *expirable.LRU[string, cachedResult]
	now func() time.Time
}

type cachedResult struct {
	result    compliance.Result
	expiresAt time.Time
}

// NewComplianceCache creates a cache holding at most size results for at most maxTTL.
func NewComplianceCache(size int, maxTTL time.Duration) *ComplianceCache {
	if size <= 0 {
		size = 1024
	}
	return &ComplianceCache{
		lru: expirable.NewLRU[string, cachedResult](size, nil, maxTTL),
		now: time.Now,
	}
}

// Get returns a copy of a live cached result.
func (c *ComplianceCache) Get(_ context.Context, key string) (*compliance.Result, bool, error) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(v.expiresAt) {
		c.lru.Remove(key)
		return nil, false, nil
	}
	r := v.result
	return &r, true, nil
}

// Set stores a copy of result.
func (c *ComplianceCache) Set(_ context.Context, key string, result *compliance.Result, ttl time.Duration) error {
	c.lru.Add(key, cachedResult{result: *result, expiresAt: c.now().Add(ttl)})
	return nil
}

// Kind returns "memory".
func (c *ComplianceCache) Kind() string { return "memory" }

// Len returns the number of cached results.
func (c *ComplianceCache) Len(context.Context) int { return c.lru.Len() }

// TokenBlacklist is an in-memory revoked-token set.
type TokenBlacklist struct {
	lru *expirable.LRU[string, time.Time]
	now func() time.Time
}

// NewTokenBlacklist creates a blacklist holding tokens for at most maxTTL.
func NewTokenBlacklist(size int, maxTTL time.Duration) *TokenBlacklist {
	return &TokenBlacklist{
		lru: expirable.NewLRU[string, time.Time](size, nil, maxTTL),
		now: time.Now,
	}
}

// Revoke blacklists a token ID for ttl.
func (tb *TokenBlacklist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl > 0 {
		tb.lru.Add(tokenID, tb.now().Add(ttl))
	}
	return nil
}

// IsRevoked reports whether a token ID is blacklisted.
func (tb *TokenBlacklist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	until, ok := tb.lru.Get(tokenID)
	return ok && tb.now().Before(until), nil
}
