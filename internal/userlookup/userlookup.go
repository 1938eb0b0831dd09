// Package userlookup caches Ingress's sender-address resolution (§4.1 step
// 1) in Redis, deduplicated with singleflight so a burst of retried webhook
// deliveries for the same sender triggers one database lookup instead of
// one per request.
package userlookup

import (
	"context"
	"time"

	"github.com/dmitrymomot/followup-pipeline/internal/store"
	"github.com/dmitrymomot/followup-pipeline/pkg/cache"
)

const defaultTTL = 30 * time.Second

// Store resolves a user by channel and address.
type Store interface {
	FindByAddress(ctx context.Context, channel, address string) (store.User, error)
}

// Cache wraps Store with a Redis-backed, singleflight-deduplicated lookup.
type Cache struct {
	store Store
	cache cache.Cache[store.User]
	ttl   time.Duration
}

func New(s Store, c cache.Cache[store.User]) *Cache {
	return &Cache{store: s, cache: c, ttl: defaultTTL}
}

// FindByAddress resolves a user, serving from cache when possible.
// store.ErrNotFound is never cached, so an unknown sender is re-checked
// against the database on every call rather than being remembered as
// permanently unknown.
func (c *Cache) FindByAddress(ctx context.Context, channel, address string) (store.User, error) {
	key := channel + ":" + address
	return cache.GetOrSet(ctx, c.cache, key, func(ctx context.Context) (store.User, time.Duration, error) {
		u, err := c.store.FindByAddress(ctx, channel, address)
		if err != nil {
			return store.User{}, 0, err
		}
		return u, c.ttl, nil
	})
}
