package models

import "time"

// Entitlement types for a course product.
const (
	EntitlementOneTime   = "one_time"
	EntitlementRecurring = "recurring"
)

// Product is a purchasable course. Amounts are minor units (cents).
// Prices maps currency code to the regional amount; BaseAmount/BaseCurrency
// are the fallback when no regional row exists.
type Product struct {
	ID              string
	Name            string
	EntitlementType string
	BaseAmount      int64
	BaseCurrency    string
	Prices          map[string]int64
	CreatedAt       time.Time
}

// PriceFor returns the amount to charge in the given currency, falling back
// to the product's base price when the currency has no dedicated row.
func (p *Product) PriceFor(currency string) (int64, string) {
	if amount, ok := p.Prices[currency]; ok {
		return amount, currency
	}
	return p.BaseAmount, p.BaseCurrency
}
