package app

import (
	"strconv"
	"strings"
	"time"

	"villarosa/internal/domain"
)

/********** alias registries (single source of truth) **********/

// The upstream has shipped at least three field-naming generations for the
// same facts. The normalizer absorbs all of them so nothing downstream ever
// sees a raw record.
var calendarAliases = map[string][]string{
	"date":      {"date", "day", "calendarDate"},
	"status":    {"status", "state", "availabilityStatus"},
	"inventory": {"numAvail", "num_avail", "unitsAvailable", "inventory", "roomsLeft"},
	"price":     {"price", "p1", "dailyPrice", "rate.daily"},
	"min_stay":  {"minStay", "min_stay", "minNights", "minimumStay"},
	"max_stay":  {"maxStay", "max_stay", "maxNights", "maximumStay"},
	"arrival":   {"arrival", "checkIn", "firstNight", "from"},
	"departure": {"departure", "checkOut", "lastNight", "to"},
	"kind":      {"type", "recordType", "kind"},
}

var blockedStatuses = map[string]struct{}{
	"blocked":     {},
	"unavailable": {},
	"booked":      {},
	"closed":      {},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstStrAlias: first non-empty string for a named alias set.
func firstStrAlias(m map[string]any, key string) string {
	for _, p := range calendarAliases[key] {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

// firstFloatAlias: number from the alias set (float64/int/string like "80,0").
func firstFloatAlias(m map[string]any, key string) *float64 {
	for _, p := range calendarAliases[key] {
		switch v := lookupAny(m, p).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

func firstIntAlias(m map[string]any, key string) *int {
	if f := firstFloatAlias(m, key); f != nil {
		n := int(*f)
		return &n
	}
	return nil
}

// parseDay accepts the date layout with or without a time suffix.
func parseDay(s string) (time.Time, bool) {
	if len(s) > len(domain.DateLayout) {
		s = s[:len(domain.DateLayout)]
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

/********** normalizer **********/

// Normalize folds raw upstream records into one canonical window over
// [from, to). Pure: no I/O, no clock.
//
// A date is blocked if any signal says so: an explicit blocked-ish status,
// zero remaining inventory, or falling inside a confirmed booking span
// (checkout day excluded — it is free for a same-day check-in). A date with
// no record at all is available; the upstream omits open dates.
func Normalize(raw []map[string]any, apartmentID string, from, to time.Time) domain.AvailabilityWindow {
	w := domain.AvailabilityWindow{
		ApartmentID: apartmentID,
		From:        from.Format(domain.DateLayout),
		To:          to.Format(domain.DateLayout),
		Days:        make(map[string]domain.DayRecord),
	}

	byDate := make(map[string]map[string]any, len(raw))
	type span struct{ arrival, departure time.Time }
	var bookings []span

	for _, rec := range raw {
		if ds := firstStrAlias(rec, "date"); ds != "" {
			if d, ok := parseDay(ds); ok {
				byDate[d.Format(domain.DateLayout)] = rec
				continue
			}
		}
		// No per-date key: try to read it as a booking span.
		arr, okA := parseDay(firstStrAlias(rec, "arrival"))
		dep, okD := parseDay(firstStrAlias(rec, "departure"))
		if okA && okD && dep.After(arr) {
			bookings = append(bookings, span{arrival: arr, departure: dep})
		}
	}

	inBooking := func(d time.Time) bool {
		for _, b := range bookings {
			if !d.Before(b.arrival) && d.Before(b.departure) {
				return true
			}
		}
		return false
	}

	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(domain.DateLayout)
		day := domain.DayRecord{Date: key, Available: true}

		if rec, ok := byDate[key]; ok {
			if st := strings.ToLower(firstStrAlias(rec, "status")); st != "" {
				if _, blocked := blockedStatuses[st]; blocked {
					day.Available = false
				}
			}
			if inv := firstIntAlias(rec, "inventory"); inv != nil && *inv <= 0 {
				day.Available = false
			}
			if p := firstFloatAlias(rec, "price"); p != nil && *p > 0 {
				day.Price = p
			}
			if ms := firstIntAlias(rec, "min_stay"); ms != nil && *ms > 0 {
				day.MinStay = *ms
			}
			if ms := firstIntAlias(rec, "max_stay"); ms != nil && *ms > 0 {
				day.MaxStay = *ms
			}
		}
		if inBooking(d) {
			day.Available = false
		}

		w.Days[key] = day
	}
	return w
}
