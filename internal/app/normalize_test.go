package app_test

import (
	"testing"

	"villarosa/internal/app"
)

func TestNormalize_AbsentDatesDefaultAvailable(t *testing.T) {
	w := app.Normalize(nil, "garden", day("2026-07-01"), day("2026-07-04"))
	if len(w.Days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(w.Days))
	}
	for d, rec := range w.Days {
		if !rec.Available {
			t.Fatalf("%s should default to available", d)
		}
		if rec.Price != nil {
			t.Fatalf("%s should have no price", d)
		}
	}
}

func TestNormalize_BlockedSignalsORed(t *testing.T) {
	raw := []map[string]any{
		{"date": "2026-07-01", "status": "blocked", "price": 90.0},
		// inventory zero wins even with a contradicting status
		{"date": "2026-07-02", "status": "available", "numAvail": 0.0},
		{"date": "2026-07-03", "status": "available", "numAvail": 1.0, "price": 95.0},
	}
	w := app.Normalize(raw, "garden", day("2026-07-01"), day("2026-07-04"))
	if w.Days["2026-07-01"].Available {
		t.Fatal("explicit blocked status ignored")
	}
	if w.Days["2026-07-02"].Available {
		t.Fatal("zero inventory must block even when status says available")
	}
	if !w.Days["2026-07-03"].Available {
		t.Fatal("open date marked blocked")
	}
	if p := w.Days["2026-07-03"].Price; p == nil || *p != 95.0 {
		t.Fatalf("price not carried through: %v", p)
	}
}

func TestNormalize_BookingSpanBlocksAllButCheckoutDay(t *testing.T) {
	raw := []map[string]any{
		{"type": "booking", "arrival": "2026-07-02", "departure": "2026-07-05"},
	}
	w := app.Normalize(raw, "garden", day("2026-07-01"), day("2026-07-07"))
	wantBlocked := map[string]bool{
		"2026-07-01": false,
		"2026-07-02": true,
		"2026-07-03": true,
		"2026-07-04": true,
		"2026-07-05": false, // checkout day is open for a same-day check-in
		"2026-07-06": false,
	}
	for d, blocked := range wantBlocked {
		if got := !w.Days[d].Available; got != blocked {
			t.Fatalf("%s: blocked=%v, want %v", d, got, blocked)
		}
	}
}

func TestNormalize_AliasGenerations(t *testing.T) {
	raw := []map[string]any{
		{"day": "2026-07-01", "state": "closed", "p1": "80,5", "min_stay": 3.0},
		{"calendarDate": "2026-07-02T00:00:00", "roomsLeft": 2.0, "dailyPrice": 110.0, "maximumStay": 14.0},
	}
	w := app.Normalize(raw, "garden", day("2026-07-01"), day("2026-07-03"))

	d1 := w.Days["2026-07-01"]
	if d1.Available || d1.Price == nil || *d1.Price != 80.5 || d1.MinStay != 3 {
		t.Fatalf("legacy aliases not resolved: %+v", d1)
	}
	d2 := w.Days["2026-07-02"]
	if !d2.Available || d2.Price == nil || *d2.Price != 110 || d2.MaxStay != 14 {
		t.Fatalf("modern aliases not resolved: %+v", d2)
	}
}

func TestNormalize_NonPositivePriceDropped(t *testing.T) {
	raw := []map[string]any{
		{"date": "2026-07-01", "price": 0.0},
		{"date": "2026-07-02", "price": -5.0},
	}
	w := app.Normalize(raw, "garden", day("2026-07-01"), day("2026-07-03"))
	for d, rec := range w.Days {
		if rec.Price != nil {
			t.Fatalf("%s: non-positive price must be treated as unknown", d)
		}
	}
	gaps := w.PriceGaps()
	if len(gaps) != 2 {
		t.Fatalf("expected both dates flagged as price gaps, got %v", gaps)
	}
}

func TestWindow_PriceGapsSkipsBlockedDates(t *testing.T) {
	raw := []map[string]any{
		{"date": "2026-07-01", "status": "blocked"},
		{"date": "2026-07-02", "status": "available"},
	}
	w := app.Normalize(raw, "garden", day("2026-07-01"), day("2026-07-03"))
	gaps := w.PriceGaps()
	if len(gaps) != 1 || gaps[0] != "2026-07-02" {
		t.Fatalf("blocked dates are not price gaps: %v", gaps)
	}
}
