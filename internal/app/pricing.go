package app

import (
	"errors"
	"math"
	"sort"
	"time"

	"villarosa/internal/domain"
)

// Stay-length tiers, highest threshold first. A stay gets the single first
// tier it qualifies for; tiers never stack with each other.
var stayTiers = []domain.StayTier{
	{MinNights: 30, Rate: 0.20, Label: "monthly"},
	{MinNights: 14, Rate: 0.15, Label: "extended"},
	{MinNights: 7, Rate: 0.10, Label: "weekly"},
}

const (
	// Off-season runs October through March, keyed on the check-in month.
	seasonalRate = 0.20
	// Ceiling for stay + seasonal combined. Loyalty sits deliberately
	// outside this cap; see DESIGN.md before treating that as load-bearing.
	combinedCap = 0.40

	baseOccupancy = 2
)

// QuoteInput feeds the pricing engine. NightlyPrices holds only the dates
// with a known positive price; dates of the stay missing from it are
// excluded from the total and reported back, not zero-priced.
type QuoteInput struct {
	NightlyPrices map[string]float64
	CheckIn       time.Time
	Nights        int
	Guests        int
	Children      int
	AdultRate     float64
	ChildRate     float64
	LoyaltyRate   float64
	Currency      string
}

var ErrZeroNights = errors.New("stay must be at least one night")

// Quote composes the full price breakdown. Pure and deterministic: the same
// input always yields the same breakdown, which is what lets the client-side
// instant estimate and the server-authoritative total share one formula.
func Quote(in QuoteInput) (domain.PricingBreakdown, error) {
	if in.Nights <= 0 {
		return domain.PricingBreakdown{}, ErrZeroNights
	}

	b := domain.PricingBreakdown{Nights: in.Nights, Currency: in.Currency}

	// 1) base sum over priced nights; collect the gaps
	var base float64
	for d, i := in.CheckIn, 0; i < in.Nights; d, i = d.AddDate(0, 0, 1), i+1 {
		key := d.Format(domain.DateLayout)
		if p, ok := in.NightlyPrices[key]; ok && p > 0 {
			base += p
		} else {
			b.MissingPriceDates = append(b.MissingPriceDates, key)
		}
	}
	sort.Strings(b.MissingPriceDates)
	b.BaseTotal = round2(base)

	// 2) additional-guest fee; the first two guests ride on the base price
	extraAdults := in.Guests - baseOccupancy
	if extraAdults < 0 {
		extraAdults = 0
	}
	b.GuestFee = round2((float64(extraAdults)*in.AdultRate + float64(in.Children)*in.ChildRate) * float64(in.Nights))
	b.Subtotal = round2(b.BaseTotal + b.GuestFee)

	// 3) stay discount: first qualifying tier, scanned highest first
	for _, t := range stayTiers {
		if in.Nights >= t.MinNights {
			b.StayDiscountRate = t.Rate
			b.StayDiscountLabel = t.Label
			break
		}
	}

	// 4) seasonal discount keyed on the check-in month
	if m := in.CheckIn.Month(); m >= time.October || m <= time.March {
		b.SeasonalRate = seasonalRate
	}

	// Combined rate is capped only when both apply; a single discount is
	// used as-is.
	b.CombinedRate = b.StayDiscountRate + b.SeasonalRate
	if b.StayDiscountRate > 0 && b.SeasonalRate > 0 && b.CombinedRate > combinedCap {
		b.CombinedRate = combinedCap
	}
	b.CombinedDiscount = round2(b.Subtotal * b.CombinedRate)

	// 5) loyalty, caller-supplied, independent of the cap
	if in.LoyaltyRate > 0 {
		b.LoyaltyRate = in.LoyaltyRate
		b.LoyaltyDiscount = round2(b.Subtotal * in.LoyaltyRate)
	}

	// 6) total, floored at zero
	b.Total = round2(b.Subtotal - b.CombinedDiscount - b.LoyaltyDiscount)
	if b.Total < 0 {
		b.Total = 0
	}

	// 7) display-only effective nightly rate
	b.NightlyEffective = round2(b.Total / float64(in.Nights))

	return b, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
