package domain

// StayTier is one stay-length discount rule. Tiers are kept sorted by
// MinNights descending; the first tier a stay qualifies for wins, tiers never
// stack with each other.
type StayTier struct {
	MinNights int     `json:"minNights"`
	Rate      float64 `json:"rate"`
	Label     string  `json:"label"`
}

// PricingBreakdown is the full cost composition for one quoted stay.
// Computed fresh on every request and never persisted here.
type PricingBreakdown struct {
	Nights   int    `json:"nights"`
	Currency string `json:"currency"`

	BaseTotal float64 `json:"baseTotal"` // sum of known nightly prices
	GuestFee  float64 `json:"guestFee"`  // extra adults + children, all nights
	Subtotal  float64 `json:"subtotal"`

	StayDiscountRate  float64 `json:"stayDiscountRate"`
	StayDiscountLabel string  `json:"stayDiscountLabel,omitempty"`
	SeasonalRate      float64 `json:"seasonalRate"`
	// Stay + seasonal combined, after the cap. The discount amount below is
	// subtotal * CombinedRate.
	CombinedRate     float64 `json:"combinedRate"`
	CombinedDiscount float64 `json:"combinedDiscount"`

	// Loyalty is caller-supplied and deliberately outside the combined cap.
	LoyaltyRate     float64 `json:"loyaltyRate,omitempty"`
	LoyaltyDiscount float64 `json:"loyaltyDiscount,omitempty"`

	Total            float64 `json:"total"`
	NightlyEffective float64 `json:"nightlyEffective"` // display only

	// Available dates in the stay that carried no upstream price. They are
	// not charged; a non-empty list means the total is a partial quote.
	MissingPriceDates []string `json:"missingPriceDates,omitempty"`
}
