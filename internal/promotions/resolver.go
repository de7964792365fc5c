package promotions

import (
	"storefront/internal/catalog/types"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Resolution is the discount outcome for one product.
type Resolution struct {
	DiscountPercentage decimal.Decimal
	DiscountedPrice    decimal.Decimal
	HasActivePromotion bool
}

// Active filters candidates down to the promotions active at now.
func Active(candidates []types.Promotion, now time.Time) []types.Promotion {
	return lo.Filter(candidates, func(p types.Promotion, _ int) bool {
		return IsActive(p, now)
	})
}

// BestPercentage is the largest discount among promotions, clamped to
// [0, 100]. Null percentages count as zero.
func BestPercentage(promos []types.Promotion) decimal.Decimal {
	best := decimal.Zero
	for _, p := range promos {
		best = decimal.Max(best, p.Percentage())
	}
	return decimal.Min(best, hundred)
}

// DiscountedPrice applies pct to price and rounds to two decimal places.
// The result never exceeds price.
func DiscountedPrice(price, pct decimal.Decimal) decimal.Decimal {
	if !pct.IsPositive() {
		return price
	}
	pct = decimal.Min(pct, hundred)
	discounted := price.Mul(hundred.Sub(pct)).Div(hundred).Round(2)
	return decimal.Min(discounted, price)
}

// Resolve computes the best discount for a product priced at price given the
// promotions the backend returned for it. Inactive promotions are ignored, so
// only the maximum percentage among active ones is surfaced.
func Resolve(price decimal.Decimal, candidates []types.Promotion, now time.Time) Resolution {
	pct := BestPercentage(Active(candidates, now))
	if !pct.IsPositive() {
		return Resolution{
			DiscountPercentage: decimal.Zero,
			DiscountedPrice:    price,
			HasActivePromotion: false,
		}
	}
	return Resolution{
		DiscountPercentage: pct,
		DiscountedPrice:    DiscountedPrice(price, pct),
		HasActivePromotion: true,
	}
}

// Apply merges r into p. Only derived fields change.
func (r Resolution) Apply(p types.Product) types.Product {
	p.HasPromotion = r.HasActivePromotion
	p.DiscountPercentage = r.DiscountPercentage
	p.DiscountedPrice = r.DiscountedPrice
	return p
}
