package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoAddr is returned by Open when no address is configured.
var ErrNoAddr = errors.New("redis address is empty")

// Client is the shared connection used by the access store, the response cache and readiness.
type Client struct {
	*redis.Client
}

// Open connects to addr and pings it before returning.
func Open(ctx context.Context, addr, password string, db int) (*Client, error) {
	if addr == "" {
		return nil, ErrNoAddr
	}
	c := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &Client{Client: c}, nil
}

// Cmdable returns nil for a nil client so callers can test the interface directly.
func (c *Client) Cmdable() redis.Cmdable {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client
}

// HealthCheck pings the server. A nil client is healthy: Redis is optional.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
