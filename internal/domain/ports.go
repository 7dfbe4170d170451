package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrApartmentNotFound means the requested apartment has no registry row.
	ErrApartmentNotFound = errors.New("apartment not found")
	// ErrUpstreamDown is the transient upstream failure class: timeouts and
	// 5xx after retries. Triggers the stale-serve fallback.
	ErrUpstreamDown = errors.New("calendar upstream unavailable")
	// ErrUpstreamConfig is the fatal upstream failure class: rejected
	// credentials or a property mapping the upstream does not know. Needs an
	// operator, never retried, never answered from stale data.
	ErrUpstreamConfig = errors.New("calendar upstream configuration error")
)

// CalendarClient issues range queries against the upstream property
// management API. Raw records stay schema-agnostic; the normalizer owns
// field resolution.
type CalendarClient interface {
	FetchCalendar(ctx context.Context, ref ApartmentRef, from, to time.Time) ([]map[string]any, error)
}

// Cache is the multi-tier cache port. Get honors the entry's logical TTL;
// GetStale ignores it and is the upstream-outage fallback path only.
// Invalidate removes every entry under an apartment-scoped key prefix and
// reports how many it dropped.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	GetStale(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Invalidate(ctx context.Context, prefix string) (int, error)
}

// ApartmentRepository serves the apartment registry: upstream refs, guest
// fees, stay-policy defaults. Backed by MySQL in production and by a
// config-blob repo in single-binary deployments.
type ApartmentRepository interface {
	GetApartment(ctx context.Context, id string) (Apartment, error)
	ListApartments(ctx context.Context) ([]Apartment, error)
}
