package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/calmnights/checkout-service/internal/metrics"
	"github.com/calmnights/checkout-service/internal/models"
)

// Intent is the gateway's answer to "reserve this charge". For zero-amount
// checkouts no processor intent exists: Free is set and the ID is a
// synthetic confirmation marker the finalizer can use as transaction id.
type Intent struct {
	ID           string
	ClientSecret string
	Free         bool
	Amount       int64
	Currency     string
}

// Confirmation is a processor-confirmed payment as seen server-side.
type Confirmation struct {
	TransactionID string
	Amount        int64
	Currency      string
}

// intentAPI is the slice of the Stripe client the gateway uses; the v79
// paymentintent client satisfies it.
type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type Gateway struct {
	intents intentAPI
	log     zerolog.Logger
}

func NewGateway(api *client.API, log zerolog.Logger) *Gateway {
	return &Gateway{intents: api.PaymentIntents, log: log}
}

// CreateIntent reserves a charge with the processor for the quoted final
// amount. Intents are immutable once created: if the customer changes the
// coupon afterwards the caller must create a fresh intent, never mutate
// this one. Zero-amount quotes bypass the processor entirely.
func (g *Gateway) CreateIntent(ctx context.Context, quote models.Quote, customerEmail string) (Intent, error) {
	if quote.FinalAmount < 0 || quote.Currency == "" {
		return Intent{}, fmt.Errorf("%w: amount=%d currency=%q", models.ErrInvalidCharge, quote.FinalAmount, quote.Currency)
	}

	if quote.FinalAmount == 0 {
		return Intent{
			ID:       "free_" + uuid.NewString(),
			Free:     true,
			Currency: quote.Currency,
		}, nil
	}

	params := &stripe.PaymentIntentParams{
		Params:       stripe.Params{Context: ctx},
		Amount:       stripe.Int64(quote.FinalAmount),
		Currency:     stripe.String(strings.ToLower(quote.Currency)),
		ReceiptEmail: stripe.String(customerEmail),
	}
	params.AddMetadata("product_id", quote.ProductID)
	params.AddMetadata("customer_email", customerEmail)
	if quote.CouponCode != "" {
		params.AddMetadata("coupon_code", quote.CouponCode)
	}

	pi, err := g.intents.New(params)
	if err != nil {
		return Intent{}, g.gatewayErr("create intent", err)
	}

	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     quote.Currency,
	}, nil
}

// VerifyConfirmed retrieves the intent and requires it to have succeeded.
// The returned amount is what the processor actually charged, which the
// finalizer checks against the server-resolved quote.
func (g *Gateway) VerifyConfirmed(ctx context.Context, intentID string) (Confirmation, error) {
	pi, err := g.intents.Get(intentID, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return Confirmation{}, g.gatewayErr("retrieve intent", err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return Confirmation{}, fmt.Errorf("%w: intent %s status %s", models.ErrPaymentNotConfirmed, intentID, pi.Status)
	}

	return Confirmation{
		TransactionID: pi.ID,
		Amount:        pi.Amount,
		Currency:      strings.ToUpper(string(pi.Currency)),
	}, nil
}

func (g *Gateway) gatewayErr(op string, err error) error {
	metrics.GatewayErrors.Inc()

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		g.log.Error().Str("op", op).Str("code", string(stripeErr.Code)).Msg("stripe call failed")
		return fmt.Errorf("%w: %s: %s", models.ErrPaymentGateway, op, stripeErr.Msg)
	}
	g.log.Error().Str("op", op).Err(err).Msg("stripe call failed")
	return fmt.Errorf("%w: %s: %v", models.ErrPaymentGateway, op, err)
}
