package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const identityTTL = 24 * time.Hour

// IdentityCache is a positive cache of registered identities backed by Redis.
// Key format: identity:<email>
//
// A hit lets registration fail fast on an obvious duplicate before paying for
// a bcrypt hash. Entries expire, and a miss proves nothing: the unique index
// on the accounts collection stays the sole uniqueness authority.
type IdentityCache struct {
	client *redis.Client
}

// NewIdentityCache creates an IdentityCache wrapping the given Redis client.
func NewIdentityCache(client *redis.Client) *IdentityCache {
	return &IdentityCache{client: client}
}

// IsTaken reports whether this identity has recently been registered.
func (c *IdentityCache) IsTaken(ctx context.Context, email string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(email)).Result()
	if err != nil {
		return false, fmt.Errorf("identity check: %w", err)
	}
	return n > 0, nil
}

// MarkTaken records that this identity now has an account (expires after
// identityTTL).
func (c *IdentityCache) MarkTaken(ctx context.Context, email string) error {
	return c.client.Set(ctx, c.key(email), "1", identityTTL).Err()
}

func (c *IdentityCache) key(email string) string {
	return "identity:" + email
}
