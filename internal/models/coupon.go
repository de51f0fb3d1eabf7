package models

import "time"

// Discount kinds.
const (
	DiscountPercentOff = "percent_off"
	DiscountAmountOff  = "amount_off"
)

// Coupon is a named discount rule applied at checkout. For percent_off the
// Value is whole percent (99 = 99%); for amount_off it is minor units.
type Coupon struct {
	ID        int
	Code      string
	Kind      string
	Value     int64
	Active    bool
	CreatedAt time.Time
}
