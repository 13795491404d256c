// Package redis holds the server's Redis-backed negotiation cache and
// request rate limiter.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rrens/parley/internal/config"
)

const dialTimeout = 5 * time.Second

// Client wraps the Redis client. Every key it hands out lives under the
// configured namespace so several deployments can share one server.
type Client struct {
	rdb       *redis.Client
	namespace string
}

// NewClient connects to Redis and verifies the connection
func NewClient(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb, namespace: cfg.KeyPrefix}, nil
}

// key joins the namespace, a kind prefix and an id
func (c *Client) key(prefix, id string) string {
	return c.namespace + prefix + id
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
