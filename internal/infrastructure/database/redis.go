package database

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedis creates a redis client. An empty addr disables redis.
func NewRedis(addr, pass string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}

// PingRedis checks connectivity
func PingRedis(ctx context.Context, c *redis.Client) error {
	return c.Ping(ctx).Err()
}
