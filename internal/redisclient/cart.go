package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"fulfillment/internal/apperr"
	"fulfillment/internal/models"

	"github.com/go-redis/redis/v8"
)

func cartKey(email string) string {
	return "cart:" + email
}

// GetCart returns the lines of a cart ordered by product ID
func (c *Client) GetCart(ctx context.Context, email string) ([]models.CartLine, error) {
	fields, err := c.rdb.HGetAll(ctx, cartKey(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	lines := make([]models.CartLine, 0, len(fields))
	for field, raw := range fields {
		var line models.CartLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			return nil, fmt.Errorf("corrupt cart line %s: %w", field, err)
		}
		lines = append(lines, line)
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}

// GetLine returns one cart line
func (c *Client) GetLine(ctx context.Context, email string, productID int64) (*models.CartLine, error) {
	raw, err := c.rdb.HGet(ctx, cartKey(email), strconv.FormatInt(productID, 10)).Result()
	if err == redis.Nil {
		return nil, apperr.Newf(apperr.CodeNotFound, "product %d not in cart", productID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart line: %w", err)
	}

	var line models.CartLine
	if err := json.Unmarshal([]byte(raw), &line); err != nil {
		return nil, fmt.Errorf("corrupt cart line %d: %w", productID, err)
	}
	return &line, nil
}

// PutLine stores line, replacing any line for the same product
func (c *Client) PutLine(ctx context.Context, email string, line models.CartLine) error {
	raw, err := json.Marshal(line)
	if err != nil {
		return err
	}
	return c.rdb.HSet(ctx, cartKey(email), strconv.FormatInt(line.ProductID, 10), raw).Err()
}

// DeleteLine removes a product from the cart
func (c *Client) DeleteLine(ctx context.Context, email string, productID int64) error {
	return c.rdb.HDel(ctx, cartKey(email), strconv.FormatInt(productID, 10)).Err()
}

// ClearCart removes every line of the cart
func (c *Client) ClearCart(ctx context.Context, email string) error {
	return c.rdb.Del(ctx, cartKey(email)).Err()
}
