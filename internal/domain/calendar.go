package domain

import "time"

// DateLayout is the wire and cache-key format for calendar dates.
const DateLayout = "2006-01-02"

// DayRecord is one canonical calendar day after normalization.
// Price is nil when the upstream carried no usable price for the date.
// MinStay/MaxStay are zero unless the upstream overrides the apartment default.
type DayRecord struct {
	Date      string   `json:"date"`
	Available bool     `json:"available"`
	Price     *float64 `json:"price,omitempty"`
	MinStay   int      `json:"minStay,omitempty"`
	MaxStay   int      `json:"maxStay,omitempty"`
}

// AvailabilityWindow is the canonical per-date map for one apartment over
// [From, To). Every date in the range has exactly one entry.
type AvailabilityWindow struct {
	ApartmentID string               `json:"apartmentId"`
	From        string               `json:"from"`
	To          string               `json:"to"`
	Days        map[string]DayRecord `json:"days"`
}

// Dates returns the window's dates in ascending order.
func (w AvailabilityWindow) Dates() []string {
	from, err := time.Parse(DateLayout, w.From)
	if err != nil {
		return nil
	}
	to, err := time.Parse(DateLayout, w.To)
	if err != nil {
		return nil
	}
	var out []string
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(DateLayout))
	}
	return out
}

// PriceGaps lists available dates with no known price. Not an error: such a
// date is excluded from the chargeable total and surfaced to the caller.
func (w AvailabilityWindow) PriceGaps() []string {
	var gaps []string
	for _, d := range w.Dates() {
		if rec, ok := w.Days[d]; ok && rec.Available && rec.Price == nil {
			gaps = append(gaps, d)
		}
	}
	return gaps
}

// Violation names the reason a requested stay does not fit a window.
type Violation string

const (
	ViolationNone        Violation = ""
	ViolationMinStay     Violation = "min_stay"
	ViolationMaxStay     Violation = "max_stay"
	ViolationUnavailable Violation = "unavailable"
)

// StayMatch is the outcome of checking a stay range against a window.
// MinStay/MaxStay are the effective limits: the strictest per-date value seen
// across the requested dates, falling back to the apartment defaults.
type StayMatch struct {
	OK        bool      `json:"ok"`
	Violation Violation `json:"violation,omitempty"`
	Nights    int       `json:"nights"`
	MinStay   int       `json:"minStay"`
	MaxStay   int       `json:"maxStay"`
}
