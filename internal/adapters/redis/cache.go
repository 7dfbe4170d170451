package redisad

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"villarosa/internal/adapters/observability"
)

// StaleRetention is how long an entry stays physically readable past its
// logical TTL so it can be served as a stale fallback during an upstream
// outage. Expiry for Get is decided from the envelope, not from Redis.
const StaleRetention = 24 * time.Hour

type envelope struct {
	Payload  json.RawMessage `json:"payload"`
	StoredAt time.Time       `json:"storedAt"`
	TTLSec   int             `json:"ttlSec"`
}

func (e envelope) fresh(now time.Time) bool {
	return now.Sub(e.StoredAt) <= time.Duration(e.TTLSec)*time.Second
}

type Cache struct{ c *redis.Client }

func New(addr, pass string, db int) *Cache {
	return &Cache{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		observability.ObserveCache("redis", "miss")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var env envelope
	if err := json.Unmarshal(v, &env); err != nil {
		return false, err
	}
	if !env.fresh(time.Now()) {
		// logically expired, kept only for the stale path
		observability.ObserveCache("redis", "miss")
		return false, nil
	}
	observability.ObserveCache("redis", "hit")
	return true, json.Unmarshal(env.Payload, dst)
}

// GetStale reads an entry regardless of its logical TTL. Fallback path only;
// callers must flag the result as stale to their own callers.
func (r *Cache) GetStale(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var env envelope
	if err := json.Unmarshal(v, &env); err != nil {
		return false, err
	}
	observability.ObserveCache("redis", "stale")
	return true, json.Unmarshal(env.Payload, dst)
}

func (r *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b, _ := json.Marshal(envelope{Payload: payload, StoredAt: time.Now().UTC(), TTLSec: int(ttl.Seconds())})
	observability.ObserveCache("redis", "set")
	return r.c.Set(ctx, key, b, ttl+StaleRetention).Err()
}

// Invalidate deletes every key under prefix via SCAN, in batches, and returns
// the number of keys dropped.
func (r *Cache) Invalidate(ctx context.Context, prefix string) (int, error) {
	var (
		n    int
		keys []string
	)
	it := r.c.Scan(ctx, 0, prefix+"*", 200).Iterator()
	for it.Next(ctx) {
		keys = append(keys, it.Val())
		if len(keys) >= 200 {
			if err := r.c.Del(ctx, keys...).Err(); err != nil {
				return n, err
			}
			n += len(keys)
			keys = keys[:0]
		}
	}
	if err := it.Err(); err != nil {
		return n, err
	}
	if len(keys) > 0 {
		if err := r.c.Del(ctx, keys...).Err(); err != nil {
			return n, err
		}
		n += len(keys)
	}
	observability.ObserveCache("redis", "del")
	return n, nil
}
