// Package pricing estimates a marketplace listing price from a landed unit cost.
package pricing

// Multipliers of the listing price chain. They are marketplace policy, not
// per-call parameters.
const (
	MarginMultiplier     = 2.0  // +100% target margin
	VATMultiplier        = 1.21 // 21% VAT
	CommissionMultiplier = 1.15 // 15% marketplace commission
)

// FeeBand is a stepped flat fee applied to prices up to MaxPrice (inclusive).
type FeeBand struct {
	MaxPrice float64 `json:"max_price"`
	Fee      float64 `json:"fee"`
}

// FlatFeeBands are ordered by MaxPrice. Prices above the last band pay no
// flat fee.
var FlatFeeBands = []FeeBand{
	{MaxPrice: 15000, Fee: 1095},
	{MaxPrice: 25000, Fee: 2190},
	{MaxPrice: 33000, Fee: 2628},
}

// ListingEstimate contains every step of the listing price chain, in local
// currency.
type ListingEstimate struct {
	Base               float64 `json:"base"`
	WithMargin         float64 `json:"with_margin"`
	WithVAT            float64 `json:"with_vat"`
	WithMarketplaceFee float64 `json:"with_marketplace_fee"`
	FlatFee            float64 `json:"flat_fee"`
	ListingPrice       float64 `json:"listing_price"`
}

// FlatFee returns the stepped fee for a price.
func FlatFee(price float64) float64 {
	for _, b := range FlatFeeBands {
		if price <= b.MaxPrice {
			return b.Fee
		}
	}
	return 0
}

// EstimateListingPrice applies margin, VAT and marketplace commission to the
// unit cost and adds the flat fee of the resulting price band. It is a closed
// form chain, not an inverse solver.
func EstimateListingPrice(unitCostLocal float64) ListingEstimate {
	withMargin := unitCostLocal * MarginMultiplier
	withVAT := withMargin * VATMultiplier
	withFee := withVAT * CommissionMultiplier
	flat := FlatFee(withFee)

	return ListingEstimate{
		Base:               unitCostLocal,
		WithMargin:         withMargin,
		WithVAT:            withVAT,
		WithMarketplaceFee: withFee,
		FlatFee:            flat,
		ListingPrice:       withFee + flat,
	}
}
