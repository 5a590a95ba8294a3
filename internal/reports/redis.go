package reports

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/erpsystem/doccheck/internal/verify"
	"github.com/redis/go-redis/v9"
)

// LatestCache keeps the most recent run per order in Redis as JSON under
// "<prefix><orderId>".
type LatestCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewLatestCache creates the cache. An empty prefix defaults to "latest:";
// a non-positive ttl stores entries without expiry.
func NewLatestCache(client *redis.Client, prefix string, ttl time.Duration) *LatestCache {
	if prefix == "" {
		prefix = "latest:"
	}
	return &LatestCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *LatestCache) key(orderID string) string {
	return c.prefix + orderID
}

// Put stores res as the latest run of its order.
func (c *LatestCache) Put(ctx context.Context, res *verify.Result) error {
	b, err := json.Marshal(res)
	if err != nil {
		return err
	}
	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	return c.client.Set(ctx, c.key(res.OrderID), b, ttl).Err()
}

// Get returns the cached run for orderID, or nil when none is cached.
func (c *LatestCache) Get(ctx context.Context, orderID string) (*verify.Result, error) {
	b, err := c.client.Get(ctx, c.key(orderID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var res verify.Result
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
