package app

import (
	"time"

	"villarosa/internal/domain"
)

// MatchStay checks a requested stay [checkIn, checkOut) against a window.
// Stay-length limits are enforced first: the strictest per-date override seen
// across the requested dates constrains the whole stay (a 5-night-minimum day
// in the middle binds a 3-night request even if its neighbours allow 1).
// Only then is each night checked for availability, so the caller can tell a
// length violation apart from a plainly booked date.
func MatchStay(w domain.AvailabilityWindow, apt domain.Apartment, checkIn, checkOut time.Time) domain.StayMatch {
	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	m := domain.StayMatch{Nights: nights, MinStay: apt.MinStay, MaxStay: apt.MaxStay}
	if nights <= 0 {
		m.Violation = domain.ViolationMinStay
		return m
	}

	for d := checkIn; d.Before(checkOut); d = d.AddDate(0, 0, 1) {
		rec, ok := w.Days[d.Format(domain.DateLayout)]
		if !ok {
			continue
		}
		if rec.MinStay > m.MinStay {
			m.MinStay = rec.MinStay
		}
		if rec.MaxStay > 0 && (m.MaxStay == 0 || rec.MaxStay < m.MaxStay) {
			m.MaxStay = rec.MaxStay
		}
	}

	if m.MinStay > 0 && nights < m.MinStay {
		m.Violation = domain.ViolationMinStay
		return m
	}
	if m.MaxStay > 0 && nights > m.MaxStay {
		m.Violation = domain.ViolationMaxStay
		return m
	}

	for d := checkIn; d.Before(checkOut); d = d.AddDate(0, 0, 1) {
		rec, ok := w.Days[d.Format(domain.DateLayout)]
		if ok && !rec.Available {
			m.Violation = domain.ViolationUnavailable
			return m
		}
	}

	m.OK = true
	return m
}
