package types

import (
	"github.com/shopspring/decimal"
)

// Promotion is a percentage discount valid between StartDate and EndDate.
// Which products it targets is decided by the backend.
type Promotion struct {
	ID                 ID                  `json:"promotion_id"`
	Title              string              `json:"title"`
	Description        string              `json:"description,omitempty"`
	Code               string              `json:"code,omitempty"`
	DiscountPercentage decimal.NullDecimal `json:"discount_percentage"`
	StartDate          Timestamp           `json:"start_date"`
	EndDate            Timestamp           `json:"end_date"`
	Banner             string              `json:"img_banner,omitempty"`
	Featured           bool                `json:"featured,omitempty"`
}

// Percentage returns the discount, treating null as zero.
func (p Promotion) Percentage() decimal.Decimal {
	if !p.DiscountPercentage.Valid {
		return decimal.Zero
	}
	return p.DiscountPercentage.Decimal
}
