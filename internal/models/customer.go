package models

import "time"

// Subscription tiers.
const (
	TierFree = "free"
	TierMid  = "mid"
	TierTop  = "top"
)

// Customer is keyed by email, matched case-insensitively. A customer
// created during checkout starts with ProfileComplete=false and must finish
// name/password setup before full account access.
type Customer struct {
	ID              string
	Email           string
	Name            string
	Tier            string
	ProfileComplete bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
