// Package failover decorates the distributed cache tier with the in-process
// fallback tier, so outage handling lives here instead of in every caller.
//
// The fallback tier is not a second freshness level: a healthy primary miss is
// a miss, full stop. Only a primary *error* routes the read to the fallback.
// Sets are mirrored into the fallback so it has something to serve when the
// primary goes away.
package failover

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"villarosa/internal/adapters/observability"
	"villarosa/internal/domain"
)

type Cache struct {
	primary  domain.Cache
	fallback domain.Cache
}

func New(primary, fallback domain.Cache) *Cache {
	return &Cache{primary: primary, fallback: fallback}
}

func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	ok, err := c.primary.Get(ctx, key, dst)
	if err != nil {
		c.degrade("get", key, err)
		return c.fallback.Get(ctx, key, dst)
	}
	return ok, nil
}

func (c *Cache) GetStale(ctx context.Context, key string, dst any) (bool, error) {
	ok, err := c.primary.GetStale(ctx, key, dst)
	if err != nil {
		c.degrade("get_stale", key, err)
		return c.fallback.GetStale(ctx, key, dst)
	}
	return ok, nil
}

func (c *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	if err := c.primary.Set(ctx, key, v, ttl); err != nil {
		c.degrade("set", key, err)
	}
	return c.fallback.Set(ctx, key, v, ttl)
}

// Invalidate drops matching entries from both tiers. A primary failure is
// surfaced: leaving stale windows behind after a booking is worse than a
// failed page view.
func (c *Cache) Invalidate(ctx context.Context, prefix string) (int, error) {
	n, ferr := c.fallback.Invalidate(ctx, prefix)
	m, perr := c.primary.Invalidate(ctx, prefix)
	if perr != nil {
		c.degrade("invalidate", prefix, perr)
		return n, perr
	}
	if ferr != nil {
		return m, ferr
	}
	// mirrored keys exist in both tiers; the primary count is the real one
	return m, nil
}

func (c *Cache) degrade(op, key string, err error) {
	observability.ObserveCache("failover", "error")
	log.Warn().Err(err).Str("op", op).Str("key", key).Msg("primary cache tier unreachable, degrading")
}
