package domain

// ApartmentRef maps an internal apartment id to the property/room pair the
// upstream calendar API speaks. Loaded from the registry at startup; never
// mutated afterwards.
type ApartmentRef struct {
	PropID int64 `json:"propId"`
	RoomID int64 `json:"roomId"`
}

type Apartment struct {
	ID       string       `json:"id"`
	Ref      ApartmentRef `json:"ref"`
	Name     string       `json:"name"`
	Currency string       `json:"currency"`

	// Per-night surcharges beyond the base occupancy of two guests.
	AdultRate float64 `json:"adultRate"`
	ChildRate float64 `json:"childRate"`

	// Stay-length defaults, overridable per date by the upstream calendar.
	MinStay int `json:"minStay"`
	MaxStay int `json:"maxStay"`

	Description *string `json:"description,omitempty"`
	Sleeps      *int    `json:"sleeps,omitempty"`
}
