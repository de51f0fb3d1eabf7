package models

import "errors"

var (
	// ErrProductNotFound - unknown product id.
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidCoupon - unknown or inactive coupon code. Recovered locally
	// by quoting full price; never silently ignored.
	ErrInvalidCoupon = errors.New("invalid coupon")

	// ErrInvalidCharge - amount/currency the processor cannot accept.
	ErrInvalidCharge = errors.New("invalid charge")

	// ErrPaymentGateway - processor unreachable or the call failed. Retry is
	// the caller's decision, never done server-side.
	ErrPaymentGateway = errors.New("payment gateway failure")

	// ErrPaymentNotConfirmed - intent exists but has not succeeded.
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")

	// ErrDuplicateTransaction - a purchase record already exists for the
	// transaction id. Treated as success by the finalizer, not a failure.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrAmountMismatch - processor-confirmed amount disagrees with the
	// server-resolved quote beyond rounding tolerance.
	ErrAmountMismatch = errors.New("confirmed amount does not match quote")

	// ErrSessionNotFound - checkout token unknown or expired.
	ErrSessionNotFound = errors.New("checkout session not found")

	// ErrPersistence - purchase record write failed; requires manual
	// reconciliation and is logged loudly.
	ErrPersistence = errors.New("purchase persistence failure")
)
