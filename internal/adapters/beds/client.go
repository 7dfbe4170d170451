// internal/adapters/beds/client.go
package beds

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"villarosa/internal/adapters/observability"
	"villarosa/internal/domain"
)

// MaxRangeDays bounds one calendar query. The upstream meters requests per
// property; a multi-year range would burn the whole quota in one call.
const MaxRangeDays = 366

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// Sentinels wrap the domain failure classes so the orchestrator can dispatch
// with errors.Is without importing this package.
var (
	ErrNotFound     = fmt.Errorf("beds: property not found: %w", domain.ErrUpstreamConfig)
	ErrUnauthorized = fmt.Errorf("beds: unauthorized: %w", domain.ErrUpstreamConfig)
	ErrBadRange     = errors.New("beds: invalid date range")
	ErrUnavailable  = fmt.Errorf("beds: %w", domain.ErrUpstreamDown)
)

// FetchCalendar returns the raw per-date records for [from, to). The upstream
// omits open dates, so an empty result is a fully open calendar, not an
// error. A syntactically broken payload is logged and treated the same way.
func (c *Client) FetchCalendar(ctx context.Context, ref domain.ApartmentRef, from, to time.Time) ([]map[string]any, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: empty range %s..%s", ErrBadRange, from.Format(domain.DateLayout), to.Format(domain.DateLayout))
	}
	if days := int(to.Sub(from).Hours() / 24); days > MaxRangeDays {
		return nil, fmt.Errorf("%w: %d days exceeds %d-day limit", ErrBadRange, days, MaxRangeDays)
	}

	q := fmt.Sprintf("from=%s&to=%s", from.Format(domain.DateLayout), to.Format(domain.DateLayout))
	candidates := []string{
		fmt.Sprintf("%s/properties/%d/rooms/%d/calendar?%s", c.base, ref.PropID, ref.RoomID, q), // preferred
		fmt.Sprintf("%s/calendar?propId=%d&roomId=%d&%s", c.base, ref.PropID, ref.RoomID, q),    // legacy
	}

	var raw json.RawMessage
	if err := c.getFirst(ctx, candidates, &raw); err != nil {
		return nil, err
	}
	recs, err := decodeRecords(raw)
	if err != nil {
		log.Warn().Err(err).
			Int64("prop", ref.PropID).Int64("room", ref.RoomID).
			Msg("malformed calendar payload, treating as empty")
		return nil, nil
	}
	return recs, nil
}

// decodeRecords accepts both a bare record array and the enveloped
// {"calendar": [...]} form the legacy endpoint returns.
func decodeRecords(raw json.RawMessage) ([]map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var arr []map[string]any
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, nil
	}
	var env struct {
		Calendar []map[string]any `json:"calendar"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return env.Calendar, nil
}

func (c *Client) getFirst(ctx context.Context, urls []string, out any) error {
	var last error
	for _, u := range urls {
		if err := c.get(ctx, u, out); err != nil {
			if errors.Is(err, ErrNotFound) {
				last = err
				continue // try next pattern
			}
			return err // non-404: stop early
		}
		return nil // success
	}
	if last != nil {
		return last
	}
	return errors.New("no candidate URL succeeded")
}

// get performs a GET with client-side rate limiting, retries, and JSON decode
// into out. Retries on 429 and transient 5xx, honoring Retry-After when
// provided. 401/403 are never retried: a bad key needs an operator, not a
// backoff loop.
func (c *Client) get(ctx context.Context, url string, out any) error {
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	status := 0
	defer func() { observability.ObserveUpstream("beds", "calendar", status, time.Since(start)) }()

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("X-API-Key", c.key)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "villarosa/1.0")

		resp, err := c.hc.Do(req)
		if err != nil {
			// network error or context canceled
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
		}
		status = resp.StatusCode

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%w: remote %d", ErrUnavailable, resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			// read a small error body for diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	// seconds form
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	// HTTP-date form
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// i = retry attempt (0,1,2,...). Base doubles each attempt (200ms, 400ms, 800ms...),
// with up to +50% random jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0                  // 0..1
	j := time.Duration(0.5 * f * float64(base)) // up to +50%
	return base + j
}
