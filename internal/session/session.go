package session

import (
	"context"
	"time"

	"github.com/calmnights/checkout-service/internal/models"
)

// States of one checkout attempt. The finalizer drives the session through
// these; failed is terminal and reachable from any step.
const (
	StateIntentCreated      = "intent_created"
	StatePaymentConfirmed   = "payment_confirmed"
	StateEntitlementGranted = "entitlement_granted"
	StateRecordPersisted    = "record_persisted"
	StateFailed             = "failed"
)

// Checkout is the transient state held between the create-intent and
// complete-purchase requests, keyed by a server-issued token. It is
// discarded on finalization or expiry.
type Checkout struct {
	Token         string       `json:"token"`
	Quote         models.Quote `json:"quote"`
	ProductName   string       `json:"product_name"`
	CustomerEmail string       `json:"customer_email"`
	CustomerName  string       `json:"customer_name,omitempty"`
	IntentID      string       `json:"intent_id"`
	Free          bool         `json:"free"`
	State         string       `json:"state"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Store holds pending checkouts for their TTL. Get returns (nil, nil) for
// unknown or expired tokens.
type Store interface {
	Put(ctx context.Context, c Checkout) error
	Get(ctx context.Context, token string) (*Checkout, error)
	Delete(ctx context.Context, token string) error
}
