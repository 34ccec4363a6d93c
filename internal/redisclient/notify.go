package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

func orderEmailKey(orderID int64) string {
	return fmt.Sprintf("notify:order-email:%d", orderID)
}

// RememberEmail caches the customer email of an order for ttl
func (c *Client) RememberEmail(ctx context.Context, orderID int64, email string, ttl time.Duration) error {
	return c.rdb.Set(ctx, orderEmailKey(orderID), email, ttl).Err()
}

// LookupEmail returns the cached email of an order, or "" when unknown or expired
func (c *Client) LookupEmail(ctx context.Context, orderID int64) (string, error) {
	email, err := c.rdb.Get(ctx, orderEmailKey(orderID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up email for order %d: %w", orderID, err)
	}
	return email, nil
}
