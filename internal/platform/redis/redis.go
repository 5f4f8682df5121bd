package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client оборачивает клиент go-redis
type Client struct {
	*redis.Client
}

// Open создает клиент Redis и проверяет соединение ping-ом
func Open(ctx context.Context, addr, password string, db int) (*Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("empty redis addr")
	}
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &Client{Client: c}, nil
}

// HealthCheck проверяет доступность Redis
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
