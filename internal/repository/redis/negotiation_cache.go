package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rrens/parley/internal/domain"
)

const negotiationCachePrefix = "negotiation:"

// NegotiationCache keeps JSON snapshots of negotiations in Redis
type NegotiationCache struct {
	client *Client
}

// NewNegotiationCache creates a new negotiation cache
func NewNegotiationCache(client *Client) *NegotiationCache {
	return &NegotiationCache{client: client}
}

// Get returns a cached snapshot, or nil on a miss
func (c *NegotiationCache) Get(ctx context.Context, id string) (*domain.Negotiation, error) {
	data, err := c.client.rdb.Get(ctx, c.client.key(negotiationCachePrefix, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached negotiation: %w", err)
	}

	var n domain.Negotiation
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to unmarshal negotiation: %w", err)
	}

	return &n, nil
}

// Set stores a snapshot for ttl
func (c *NegotiationCache) Set(ctx context.Context, n *domain.Negotiation, ttl time.Duration) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal negotiation: %w", err)
	}

	return c.client.rdb.Set(ctx, c.client.key(negotiationCachePrefix, n.ID), data, ttl).Err()
}

// Invalidate removes a cached snapshot
func (c *NegotiationCache) Invalidate(ctx context.Context, id string) error {
	return c.client.rdb.Del(ctx, c.client.key(negotiationCachePrefix, id)).Err()
}

// FlushAll removes all cached negotiations
func (c *NegotiationCache) FlushAll(ctx context.Context) (int64, error) {
	pattern := c.client.key(negotiationCachePrefix, "*")
	var cursor uint64
	var deleted int64

	for {
		keys, nextCursor, err := c.client.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			count, err := c.client.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += count
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}
