package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"villarosa/internal/domain"
)

// TTLs groups the cache lifetimes by data category: availability windows are
// short-lived, descriptive apartment data medium, policy/registry data long.
type TTLs struct {
	Availability time.Duration
	Apartment    time.Duration
	Policy       time.Duration
}

type Engine struct {
	repo  domain.ApartmentRepository
	cache domain.Cache
	cal   domain.CalendarClient

	ttl             TTLs
	upstreamTimeout time.Duration
}

func NewEngine(repo domain.ApartmentRepository, cache domain.Cache, cal domain.CalendarClient, ttl TTLs, upstreamTimeout time.Duration) *Engine {
	if upstreamTimeout <= 0 {
		upstreamTimeout = 10 * time.Second
	}
	return &Engine{repo: repo, cache: cache, cal: cal, ttl: ttl, upstreamTimeout: upstreamTimeout}
}

// maxCheckDays bounds one availability request, mirroring the upstream
// client's own range guard.
const maxCheckDays = 366

var ErrInvalidRange = errors.New("invalid date range")

type CheckRequest struct {
	ApartmentID string
	CheckIn     time.Time
	CheckOut    time.Time
	Guests      int
	Children    int
	LoyaltyRate float64
}

type CheckResult struct {
	Apartment string `json:"apartment"`
	CheckIn   string `json:"checkIn"`
	CheckOut  string `json:"checkOut"`
	Nights    int    `json:"nights"`

	Available []string           `json:"available"`
	Booked    []string           `json:"booked"`
	Prices    map[string]float64 `json:"prices"`
	MinStay   int                `json:"minStay"`
	MaxStay   int                `json:"maxStay"`

	IsAvailable bool             `json:"isAvailable"`
	Violation   domain.Violation `json:"violation,omitempty"`

	TotalPrice  float64                  `json:"totalPrice"`
	PricingInfo *domain.PricingBreakdown `json:"pricingInfo,omitempty"`
	PriceGaps   []string                 `json:"priceGaps,omitempty"`

	// Stale means the window came from an expired cache entry because the
	// upstream was unreachable. Never silently treated as fresh.
	Stale bool `json:"stale"`

	// hit | miss | stale, for the X-Cache response header.
	CacheStatus string `json:"-"`
}

// Check is the whole engine in one call: cache lookup, upstream fetch on
// miss, normalize, store, match, price.
func (e *Engine) Check(ctx context.Context, req CheckRequest) (CheckResult, error) {
	if err := validate(req); err != nil {
		return CheckResult{}, err
	}

	apt, err := e.apartment(ctx, req.ApartmentID)
	if err != nil {
		return CheckResult{}, err
	}

	from, to := req.CheckIn, req.CheckOut
	key := CalendarKey(apt.ID, from, to)

	var (
		w      domain.AvailabilityWindow
		stale  bool
		status = "hit"
	)
	hit, err := e.cache.Get(ctx, key, &w)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get failed, treating as miss")
		hit = false
	}
	if !hit {
		status = "miss"
		w, stale, err = e.fetch(ctx, apt, from, to, key)
		if err != nil {
			return CheckResult{}, err
		}
		if stale {
			status = "stale"
		}
	}

	res := CheckResult{
		Apartment:   apt.ID,
		CheckIn:     from.Format(domain.DateLayout),
		CheckOut:    to.Format(domain.DateLayout),
		Prices:      make(map[string]float64),
		Stale:       stale,
		CacheStatus: status,
		PriceGaps:   w.PriceGaps(),
	}

	for _, d := range w.Dates() {
		rec := w.Days[d]
		if rec.Available {
			res.Available = append(res.Available, d)
		} else {
			res.Booked = append(res.Booked, d)
		}
		if rec.Price != nil {
			res.Prices[d] = *rec.Price
		}
	}

	m := MatchStay(w, apt, from, to)
	res.Nights = m.Nights
	res.MinStay = m.MinStay
	res.MaxStay = m.MaxStay
	res.IsAvailable = m.OK
	res.Violation = m.Violation

	if m.OK {
		b, qerr := Quote(QuoteInput{
			NightlyPrices: res.Prices,
			CheckIn:       from,
			Nights:        m.Nights,
			Guests:        req.Guests,
			Children:      req.Children,
			AdultRate:     apt.AdultRate,
			ChildRate:     apt.ChildRate,
			LoyaltyRate:   req.LoyaltyRate,
			Currency:      apt.Currency,
		})
		if qerr != nil {
			return CheckResult{}, qerr
		}
		res.TotalPrice = b.Total
		res.PricingInfo = &b
	}

	log.Info().
		Str("apartment", apt.ID).
		Str("range", res.CheckIn+".."+res.CheckOut).
		Str("cache", status).
		Bool("available", res.IsAvailable).
		Msg("availability check")
	return res, nil
}

// fetch pulls the window from the upstream, falling back to a stale cache
// entry on transient failure. Config-class failures are surfaced as-is: a
// stale answer cannot fix a bad key, and fabricating availability is worse
// than an error.
func (e *Engine) fetch(ctx context.Context, apt domain.Apartment, from, to time.Time, key string) (domain.AvailabilityWindow, bool, error) {
	fctx, cancel := context.WithTimeout(ctx, e.upstreamTimeout)
	defer cancel()

	raw, err := e.cal.FetchCalendar(fctx, apt.Ref, from, to)
	if err == nil {
		w := Normalize(raw, apt.ID, from, to)
		if serr := e.cache.Set(ctx, key, w, e.ttl.Availability); serr != nil {
			log.Warn().Err(serr).Str("key", key).Msg("cache set failed")
		}
		return w, false, nil
	}

	if errors.Is(err, domain.ErrUpstreamConfig) {
		log.Error().Err(err).Str("apartment", apt.ID).Msg("upstream rejected configuration")
		return domain.AvailabilityWindow{}, false, err
	}

	var w domain.AvailabilityWindow
	ok, serr := e.cache.GetStale(ctx, key, &w)
	if serr == nil && ok {
		log.Warn().Err(err).Str("apartment", apt.ID).Str("key", key).
			Msg("upstream fetch failed, serving stale window")
		return w, true, nil
	}
	log.Error().Err(err).Str("apartment", apt.ID).
		Str("range", from.Format(domain.DateLayout)+".."+to.Format(domain.DateLayout)).
		Msg("upstream fetch failed with no stale fallback")
	return domain.AvailabilityWindow{}, false, fmt.Errorf("%w: %v", domain.ErrUpstreamDown, err)
}

// Describe returns the descriptive apartment view, cached at the medium TTL.
func (e *Engine) Describe(ctx context.Context, id string) (domain.Apartment, error) {
	key := "apt:" + id
	var apt domain.Apartment
	if ok, err := e.cache.Get(ctx, key, &apt); err == nil && ok {
		return apt, nil
	}
	apt, err := e.repo.GetApartment(ctx, id)
	if err != nil {
		return domain.Apartment{}, err
	}
	_ = e.cache.Set(ctx, key, apt, e.ttl.Apartment)
	return apt, nil
}

// apartment resolves the registry row the engine itself needs (upstream ref,
// fees, stay policy). Rule data changes rarely, hence the long TTL.
func (e *Engine) apartment(ctx context.Context, id string) (domain.Apartment, error) {
	key := "policy:" + id
	var apt domain.Apartment
	if ok, err := e.cache.Get(ctx, key, &apt); err == nil && ok {
		return apt, nil
	}
	apt, err := e.repo.GetApartment(ctx, id)
	if err != nil {
		return domain.Apartment{}, err
	}
	_ = e.cache.Set(ctx, key, apt, e.ttl.Policy)
	return apt, nil
}

// InvalidateApartment drops every cached window for one apartment. The
// booking writer calls this after a confirmed booking; it never talks to the
// upstream itself.
func (e *Engine) InvalidateApartment(ctx context.Context, id string) (int, error) {
	return e.cache.Invalidate(ctx, calPrefix(id))
}

// InvalidatePattern drops entries under an explicit key prefix.
func (e *Engine) InvalidatePattern(ctx context.Context, prefix string) (int, error) {
	return e.cache.Invalidate(ctx, prefix)
}

// InvalidateAll drops every cached availability window.
func (e *Engine) InvalidateAll(ctx context.Context) (int, error) {
	return e.cache.Invalidate(ctx, "cal:")
}

func validate(req CheckRequest) error {
	if req.ApartmentID == "" {
		return fmt.Errorf("%w: apartment is required", domain.ErrApartmentNotFound)
	}
	if req.CheckIn.IsZero() || req.CheckOut.IsZero() || !req.CheckOut.After(req.CheckIn) {
		return fmt.Errorf("%w: checkOut must be after checkIn", ErrInvalidRange)
	}
	if days := int(req.CheckOut.Sub(req.CheckIn).Hours() / 24); days > maxCheckDays {
		return fmt.Errorf("%w: %d days exceeds %d-day limit", ErrInvalidRange, days, maxCheckDays)
	}
	if req.Guests < 1 || req.Children < 0 {
		return fmt.Errorf("%w: invalid guest counts", ErrInvalidRange)
	}
	return nil
}

// CalendarKey builds the cache key for one apartment window. Keys are
// guest-independent: the calendar does not depend on the party size, and
// guest fees are recomputed on every request anyway. Keeping guests out of
// the key means one prefix drop per apartment covers every variant.
func CalendarKey(id string, from, to time.Time) string {
	return fmt.Sprintf("%s%s:%s", calPrefix(id), from.Format(domain.DateLayout), to.Format(domain.DateLayout))
}

func calPrefix(id string) string { return "cal:" + id + ":" }
