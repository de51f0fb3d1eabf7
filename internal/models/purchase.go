package models

import "time"

// Purchase is the append-only record of one confirmed payment. The
// processor transaction id is unique: a given id never produces two rows.
type Purchase struct {
	ID             string
	TransactionID  string
	CustomerID     string
	ProductID      string
	OriginalAmount int64
	DiscountAmount int64
	FinalAmount    int64
	Currency       string
	CreatedAt      time.Time
}

// Quote is the server-resolved price for one checkout attempt.
// FinalAmount is always max(0, OriginalAmount-DiscountAmount).
type Quote struct {
	ProductID      string `json:"product_id"`
	CouponCode     string `json:"coupon_code,omitempty"`
	OriginalAmount int64  `json:"original_amount"`
	DiscountAmount int64  `json:"discount_amount"`
	FinalAmount    int64  `json:"final_amount"`
	Currency       string `json:"currency"`
}
