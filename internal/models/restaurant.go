package models

import "strings"

// PriceTier is the ordinal cost level of a restaurant, from 0 (free) to 4
// (very expensive). PriceUnknown marks a restaurant without a recognized level.
type PriceTier int

const (
	PriceUnknown       PriceTier = -1
	PriceFree          PriceTier = 0
	PriceInexpensive   PriceTier = 1
	PriceModerate      PriceTier = 2
	PriceExpensive     PriceTier = 3
	PriceVeryExpensive PriceTier = 4
)

// Known reports whether the tier is inside the closed 0..4 range.
func (p PriceTier) Known() bool {
	return p >= PriceFree && p <= PriceVeryExpensive
}

// priceLabels maps Places API (New) price level enums to tiers.
var priceLabels = map[string]PriceTier{
	"PRICE_LEVEL_FREE":           PriceFree,
	"PRICE_LEVEL_INEXPENSIVE":    PriceInexpensive,
	"PRICE_LEVEL_MODERATE":       PriceModerate,
	"PRICE_LEVEL_EXPENSIVE":      PriceExpensive,
	"PRICE_LEVEL_VERY_EXPENSIVE": PriceVeryExpensive,
}

// ParsePriceLevel maps a places price label to a tier. The bare suffix
// ("MODERATE") is accepted as well. Anything unrecognized, including
// PRICE_LEVEL_UNSPECIFIED, is PriceUnknown.
func ParsePriceLevel(label string) PriceTier {
	v := strings.ToUpper(strings.TrimSpace(label))
	if v == "" {
		return PriceUnknown
	}
	if !strings.HasPrefix(v, "PRICE_LEVEL_") {
		v = "PRICE_LEVEL_" + v
	}
	if tier, ok := priceLabels[v]; ok {
		return tier
	}
	return PriceUnknown
}

// Restaurant is an entry in the shared restaurant catalog.
type Restaurant struct {
	// ID is the unique identifier for the restaurant (UUID format).
	ID string

	// PlaceID is the places lookup identifier. Empty for manual entries.
	PlaceID string

	// Name is the display name.
	Name string

	// Address is the formatted street address, possibly empty.
	Address string

	// PriceTier is the cost level, PriceUnknown when the lookup had none.
	PriceTier PriceTier

	// PrimaryType is the main cuisine/venue type (e.g., "ramen_restaurant").
	PrimaryType string

	// Types are all venue types reported by the lookup.
	Types []string

	// PriceCurrency, PriceRangeStart and PriceRangeEnd describe the typical
	// per-person spend. Display only; scoring uses PriceTier.
	PriceCurrency   string
	PriceRangeStart *float64
	PriceRangeEnd   *float64

	// CreatedBy is the user ID who saved the restaurant.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the restaurant was saved.
	CreatedAt int64
}
