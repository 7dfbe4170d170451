package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"villarosa/internal/adapters/beds"
	"villarosa/internal/adapters/failover"
	httpserver "villarosa/internal/adapters/http_server"
	"villarosa/internal/adapters/memcache"
	redisad "villarosa/internal/adapters/redis"
	"villarosa/internal/app"
	"villarosa/internal/storage/static"
)

const apartmentsBlob = `[
  {"id":"garden","ref":{"propId":1001,"roomId":1},"name":"Garden Apartment","currency":"EUR","adultRate":20,"childRate":10,"minStay":1,"maxStay":60}
]`

// upstream is a scriptable stand-in for the property-management API.
type upstream struct {
	hits  atomic.Int32
	fail  atomic.Bool
	body  func() any
	serve *httptest.Server
}

func newUpstream(body func() any) *upstream {
	u := &upstream{body: body}
	u.serve = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		if u.fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(u.body())
	}))
	return u
}

func calendarWeek(from string, price float64) []map[string]any {
	start, _ := time.Parse("2006-01-02", from)
	recs := make([]map[string]any, 0, 7)
	for i := 0; i < 7; i++ {
		recs = append(recs, map[string]any{
			"date":     start.AddDate(0, 0, i).Format("2006-01-02"),
			"numAvail": 1,
			"price":    price,
		})
	}
	return recs
}

func newStack(t *testing.T, up *upstream, availTTL time.Duration) http.Handler {
	t.Helper()

	mr := miniredis.RunT(t)
	cache := failover.New(redisad.New(mr.Addr(), "", 0), memcache.New())

	repo, err := static.Parse(apartmentsBlob)
	if err != nil {
		t.Fatalf("parse registry: %v", err)
	}
	client, err := beds.New(up.serve.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	engine := app.NewEngine(repo, cache, client, app.TTLs{
		Availability: availTTL,
		Apartment:    time.Hour,
		Policy:       24 * time.Hour,
	}, 5*time.Second)

	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{E: engine})
	return srv.Mux()
}

func get(t *testing.T, h http.Handler, url string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", url, nil))
	var body map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	return rr, body
}

const checkURL = "/v1/availability?apartment=garden&checkIn=2026-06-01&checkOut=2026-06-08&guests=2"

func TestEndToEnd_MissThenHit(t *testing.T) {
	up := newUpstream(func() any { return calendarWeek("2026-06-01", 100) })
	defer up.serve.Close()
	h := newStack(t, up, 10*time.Minute)

	rr, body := get(t, h, checkURL)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Cache") != "miss" {
		t.Fatalf("X-Cache: %q", rr.Header().Get("X-Cache"))
	}
	if body["isAvailable"] != true || body["totalPrice"] != 630.0 {
		t.Fatalf("body: %v", body)
	}

	rr, _ = get(t, h, checkURL)
	if rr.Header().Get("X-Cache") != "hit" {
		t.Fatalf("repeat X-Cache: %q", rr.Header().Get("X-Cache"))
	}
	if got := up.hits.Load(); got != 1 {
		t.Fatalf("upstream called %d times, want 1", got)
	}
}

func TestEndToEnd_StaleServeOnOutage(t *testing.T) {
	up := newUpstream(func() any { return calendarWeek("2026-06-01", 100) })
	defer up.serve.Close()

	// zero TTL: the entry is logically expired by the next request
	h := newStack(t, up, 0)

	if rr, _ := get(t, h, checkURL); rr.Code != http.StatusOK {
		t.Fatalf("warm-up status %d", rr.Code)
	}
	up.fail.Store(true)
	time.Sleep(5 * time.Millisecond)

	rr, body := get(t, h, checkURL)
	if rr.Code != http.StatusOK {
		t.Fatalf("stale serve status %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Cache") != "stale" || body["stale"] != true {
		t.Fatalf("expected stale-marked response: %q / %v", rr.Header().Get("X-Cache"), body["stale"])
	}
	if body["totalPrice"] != 630.0 {
		t.Fatalf("stale response lost pricing: %v", body)
	}
}

func TestEndToEnd_OutageWithoutStaleIs503(t *testing.T) {
	up := newUpstream(func() any { return calendarWeek("2026-06-01", 100) })
	defer up.serve.Close()
	up.fail.Store(true)

	h := newStack(t, up, 10*time.Minute)
	rr, _ := get(t, h, checkURL)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d, want 503", rr.Code)
	}
}

func TestEndToEnd_BookingInvalidationForcesRefetch(t *testing.T) {
	blocked := atomic.Bool{}
	up := newUpstream(func() any {
		recs := calendarWeek("2026-06-01", 100)
		if blocked.Load() {
			recs[3]["numAvail"] = 0
		}
		return recs
	})
	defer up.serve.Close()
	h := newStack(t, up, 10*time.Minute)

	if _, body := get(t, h, checkURL); body["isAvailable"] != true {
		t.Fatalf("warm-up: %v", body)
	}

	// a booking lands: the writer flips the upstream and invalidates us
	blocked.Store(true)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("DELETE", "/v1/availability?apartment=garden", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("invalidate status %d", rr.Code)
	}

	_, body := get(t, h, checkURL)
	if body["isAvailable"] != false {
		t.Fatalf("availability still served from a dropped window: %v", body)
	}
}
