package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/renthive/rental-app/utils"
)

const searchCachePrefix = "property-search:"

// SearchCache caches serialized property search responses keyed by the
// normalized query. A nil client disables caching entirely.
type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSearchCache(client *redis.Client) *SearchCache {
	return &SearchCache{client: client, ttl: 5 * time.Minute}
}

// Key hashes the query parameters in sorted order so parameter order does
// not split cache entries.
func (c *SearchCache) Key(query url.Values) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.Join(query[k], ","))
		b.WriteByte('&')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return searchCachePrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached payload, or "" on miss or when caching is off.
func (c *SearchCache) Get(ctx context.Context, key string) string {
	if c == nil || c.client == nil {
		return ""
	}
	payload, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			utils.ErrorLogger.Printf("search cache get failed: %v", err)
		}
		return ""
	}
	return payload
}

// Set stores a payload with the cache TTL.
func (c *SearchCache) Set(ctx context.Context, key, payload string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		utils.ErrorLogger.Printf("search cache set failed: %v", err)
	}
}

// Invalidate drops every cached search page. Called on any listing write or
// approval decision.
func (c *SearchCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}

	iter := c.client.Scan(ctx, 0, searchCachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			utils.ErrorLogger.Printf("search cache delete failed: %v", err)
		}
	}
	if err := iter.Err(); err != nil {
		utils.ErrorLogger.Printf("search cache scan failed: %v", err)
	}
}
