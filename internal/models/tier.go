package models

import "github.com/shopspring/decimal"

// Tier is one row of the price list: the price charged for a subscription of
// the given length. Duration is the unique key within the tier set.
type Tier struct {
	DurationMonths int             `json:"duration"`
	Price          decimal.Decimal `json:"price"`
}

// TierRequest carries one tier from a JSON caller. The tier set is always
// replaced as a whole, so requests arrive as a slice of these.
type TierRequest struct {
	Duration int             `json:"duration" validate:"required,gt=0"`
	Price    decimal.Decimal `json:"price"`
}

// DefaultTiers is the price list seeded on a first run with no stored data.
func DefaultTiers() []Tier {
	return []Tier{
		{DurationMonths: 1, Price: decimal.NewFromInt(5)},
		{DurationMonths: 3, Price: decimal.NewFromInt(10)},
		{DurationMonths: 6, Price: decimal.NewFromInt(15)},
		{DurationMonths: 12, Price: decimal.NewFromInt(30)},
	}
}
