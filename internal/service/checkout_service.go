package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/calmnights/checkout-service/internal/metrics"
	"github.com/calmnights/checkout-service/internal/models"
	"github.com/calmnights/checkout-service/internal/notify"
	"github.com/calmnights/checkout-service/internal/payment"
	"github.com/calmnights/checkout-service/internal/session"
)

// Redirect targets after a completed purchase. New customers finish their
// profile first; returning customers go straight to their library.
const (
	RedirectProfileCompletion = "profile-completion"
	RedirectHome              = "home"
)

// amountTolerance is the allowed disagreement, in minor units, between the
// processor-confirmed amount and the server-resolved quote.
const amountTolerance = 1

// Dependencies required by the service (interfaces to allow mocking).
type PriceResolver interface {
	Resolve(ctx context.Context, productID, regionOrCurrency, couponCode string) (models.Quote, error)
}

type ProductStore interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

type IntentGateway interface {
	CreateIntent(ctx context.Context, quote models.Quote, customerEmail string) (payment.Intent, error)
	VerifyConfirmed(ctx context.Context, intentID string) (payment.Confirmation, error)
}

type CustomerStore interface {
	GetByEmail(ctx context.Context, tx *sql.Tx, email string) (*models.Customer, error)
	GetByID(ctx context.Context, id string) (*models.Customer, error)
	Create(ctx context.Context, tx *sql.Tx, c *models.Customer) error
	GrantEntitlement(ctx context.Context, tx *sql.Tx, customerID, productID string) error
}

type PurchaseStore interface {
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Purchase, error)
	Insert(ctx context.Context, tx *sql.Tx, p *models.Purchase) error
}

type TxRunner interface {
	RunTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type Notifier interface {
	Notify(outcome notify.Outcome)
}

// CheckoutStart is the answer to create-payment-intent: the token the
// browser brings back to complete-purchase, plus what it needs to collect
// payment. Free checkouts carry no client secret.
type CheckoutStart struct {
	Token        string
	ClientSecret string
	Free         bool
	Quote        models.Quote
}

// PurchaseOutcome is the result of finalizing one confirmed payment.
type PurchaseOutcome struct {
	Success        bool
	PurchaseID     string
	RedirectTarget string
}

type CheckoutService struct {
	resolver  PriceResolver
	products  ProductStore
	gateway   IntentGateway
	customers CustomerStore
	purchases PurchaseStore
	sessions  session.Store
	tx        TxRunner
	notifier  Notifier
	log       zerolog.Logger
}

func NewCheckoutService(
	resolver PriceResolver,
	products ProductStore,
	gateway IntentGateway,
	customers CustomerStore,
	purchases PurchaseStore,
	sessions session.Store,
	tx TxRunner,
	notifier Notifier,
	log zerolog.Logger,
) *CheckoutService {
	return &CheckoutService{
		resolver:  resolver,
		products:  products,
		gateway:   gateway,
		customers: customers,
		purchases: purchases,
		sessions:  sessions,
		tx:        tx,
		notifier:  notifier,
		log:       log,
	}
}

// GetProduct loads a product for display, with its price table.
func (s *CheckoutService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, models.ErrProductNotFound
	}
	return p, nil
}

// Quote resolves the display price without creating anything.
func (s *CheckoutService) Quote(ctx context.Context, productID, regionOrCurrency, couponCode string) (models.Quote, error) {
	return s.resolver.Resolve(ctx, productID, regionOrCurrency, couponCode)
}

// CreateIntent resolves the price server-side, reserves the charge with the
// processor and stores the pending checkout under a fresh token. Calling it
// again (e.g. after the customer enters a different coupon) always creates
// a fresh intent and token; the earlier intent is simply abandoned, since
// processor intents are immutable.
func (s *CheckoutService) CreateIntent(ctx context.Context, productID, regionOrCurrency, couponCode, customerEmail, customerName string) (*CheckoutStart, error) {
	quote, err := s.resolver.Resolve(ctx, productID, regionOrCurrency, couponCode)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, models.ErrProductNotFound
	}

	intent, err := s.gateway.CreateIntent(ctx, quote, customerEmail)
	if err != nil {
		return nil, err
	}

	checkout := session.Checkout{
		Token:         uuid.NewString(),
		Quote:         quote,
		ProductName:   product.Name,
		CustomerEmail: customerEmail,
		CustomerName:  customerName,
		IntentID:      intent.ID,
		Free:          intent.Free,
		State:         session.StateIntentCreated,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.sessions.Put(ctx, checkout); err != nil {
		return nil, fmt.Errorf("store checkout session: %w", err)
	}

	s.log.Info().
		Str("token", checkout.Token).
		Str("product_id", productID).
		Str("intent_id", intent.ID).
		Bool("free", intent.Free).
		Int64("final_amount", quote.FinalAmount).
		Msg("checkout intent created")

	return &CheckoutStart{
		Token:        checkout.Token,
		ClientSecret: intent.ClientSecret,
		Free:         intent.Free,
		Quote:        quote,
	}, nil
}

// CompletePurchase finalizes one confirmed payment: verifies the processor
// confirmation against the server-resolved quote, short-circuits duplicate
// transaction ids, creates or reuses the customer, grants entitlement and
// records the purchase atomically, then fans out notifications.
func (s *CheckoutService) CompletePurchase(ctx context.Context, token, intentID string) (*PurchaseOutcome, error) {
	start := time.Now()
	defer func() {
		metrics.FinalizeDuration.Observe(time.Since(start).Seconds())
	}()

	checkout, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load checkout session: %w", err)
	}
	if checkout == nil {
		return nil, models.ErrSessionNotFound
	}

	conf, err := s.confirm(ctx, checkout, intentID)
	if err != nil {
		s.failSession(ctx, checkout)
		return nil, err
	}
	checkout.State = session.StatePaymentConfirmed

	// Idempotency: a purchase record for this transaction id means a
	// duplicate confirmation (client retry, double webhook). Success, not
	// an error, and no second entitlement grant.
	existing, err := s.purchases.GetByTransactionID(ctx, conf.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	if existing != nil {
		return s.duplicateOutcome(ctx, checkout, existing)
	}

	var (
		customer    *models.Customer
		purchase    *models.Purchase
		newCustomer bool
	)
	err = s.tx.RunTx(ctx, func(tx *sql.Tx) error {
		customer, err = s.customers.GetByEmail(ctx, tx, checkout.CustomerEmail)
		if err != nil {
			return fmt.Errorf("customer lookup: %w", err)
		}
		if customer == nil {
			// provisional account: profile completion happens after redirect
			newCustomer = true
			customer = &models.Customer{
				ID:              uuid.NewString(),
				Email:           checkout.CustomerEmail,
				Name:            checkout.CustomerName,
				Tier:            models.TierFree,
				ProfileComplete: false,
			}
			if err := s.customers.Create(ctx, tx, customer); err != nil {
				return fmt.Errorf("create customer: %w", err)
			}
		}

		if err := s.customers.GrantEntitlement(ctx, tx, customer.ID, checkout.Quote.ProductID); err != nil {
			return fmt.Errorf("grant entitlement: %w", err)
		}

		purchase = &models.Purchase{
			ID:             uuid.NewString(),
			TransactionID:  conf.TransactionID,
			CustomerID:     customer.ID,
			ProductID:      checkout.Quote.ProductID,
			OriginalAmount: checkout.Quote.OriginalAmount,
			DiscountAmount: checkout.Quote.DiscountAmount,
			FinalAmount:    checkout.Quote.FinalAmount,
			Currency:       checkout.Quote.Currency,
		}
		return s.purchases.Insert(ctx, tx, purchase)
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicateTransaction) {
			// lost the race against a concurrent confirmation; the other
			// request's record wins
			existing, gerr := s.purchases.GetByTransactionID(ctx, conf.TransactionID)
			if gerr == nil && existing != nil {
				return s.duplicateOutcome(ctx, checkout, existing)
			}
			return nil, err
		}
		s.failSession(ctx, checkout)
		s.log.Error().
			Str("transaction_id", conf.TransactionID).
			Str("email", checkout.CustomerEmail).
			Err(err).
			Msg("purchase finalization failed; manual reconciliation may be required")
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	if err := s.sessions.Delete(ctx, token); err != nil {
		s.log.Warn().Str("token", token).Err(err).Msg("failed to discard checkout session")
	}

	metrics.PurchasesCompleted.Inc()
	if checkout.Free {
		metrics.FreePurchases.Inc()
	}

	s.notifier.Notify(notify.Outcome{
		PurchaseID:    purchase.ID,
		TransactionID: purchase.TransactionID,
		CustomerEmail: customer.Email,
		ProductName:   checkout.ProductName,
		FinalAmount:   purchase.FinalAmount,
		Currency:      purchase.Currency,
		NewCustomer:   newCustomer,
	})

	redirect := RedirectHome
	if newCustomer {
		redirect = RedirectProfileCompletion
	}
	return &PurchaseOutcome{
		Success:        true,
		PurchaseID:     purchase.ID,
		RedirectTarget: redirect,
	}, nil
}

// confirm establishes the processor-confirmed transaction for this
// checkout. Free checkouts never touched the processor: the synthetic
// intent id is the transaction id and the confirmed amount is zero.
func (s *CheckoutService) confirm(ctx context.Context, checkout *session.Checkout, intentID string) (payment.Confirmation, error) {
	var conf payment.Confirmation
	if checkout.Free {
		conf = payment.Confirmation{
			TransactionID: checkout.IntentID,
			Amount:        0,
			Currency:      checkout.Quote.Currency,
		}
	} else {
		if intentID != "" && intentID != checkout.IntentID {
			return payment.Confirmation{}, fmt.Errorf("%w: intent %s does not belong to this checkout", models.ErrInvalidCharge, intentID)
		}
		var err error
		conf, err = s.gateway.VerifyConfirmed(ctx, checkout.IntentID)
		if err != nil {
			return payment.Confirmation{}, err
		}
	}

	// never trust a client-supplied amount: the recorded charge must match
	// what the server resolved, within rounding tolerance
	diff := conf.Amount - checkout.Quote.FinalAmount
	if diff < 0 {
		diff = -diff
	}
	if conf.Currency != checkout.Quote.Currency || diff > amountTolerance {
		metrics.AmountMismatches.Inc()
		s.log.Error().
			Str("transaction_id", conf.TransactionID).
			Int64("confirmed_amount", conf.Amount).
			Int64("quoted_amount", checkout.Quote.FinalAmount).
			Str("confirmed_currency", conf.Currency).
			Str("quoted_currency", checkout.Quote.Currency).
			Msg("confirmed amount disagrees with quote")
		return payment.Confirmation{}, models.ErrAmountMismatch
	}
	return conf, nil
}

// duplicateOutcome reports the already-recorded purchase as success. The
// redirect is derived from the recorded customer so both confirmation
// calls answer the same way.
func (s *CheckoutService) duplicateOutcome(ctx context.Context, checkout *session.Checkout, existing *models.Purchase) (*PurchaseOutcome, error) {
	metrics.DuplicateConfirmations.Inc()
	s.log.Info().
		Str("transaction_id", existing.TransactionID).
		Str("purchase_id", existing.ID).
		Msg("duplicate confirmation short-circuited")

	redirect := RedirectHome
	customer, err := s.customers.GetByID(ctx, existing.CustomerID)
	if err == nil && customer != nil && !customer.ProfileComplete {
		redirect = RedirectProfileCompletion
	}

	if err := s.sessions.Delete(ctx, checkout.Token); err != nil {
		s.log.Warn().Str("token", checkout.Token).Err(err).Msg("failed to discard checkout session")
	}

	return &PurchaseOutcome{
		Success:        true,
		PurchaseID:     existing.ID,
		RedirectTarget: redirect,
	}, nil
}

func (s *CheckoutService) failSession(ctx context.Context, checkout *session.Checkout) {
	checkout.State = session.StateFailed
	if err := s.sessions.Put(ctx, *checkout); err != nil {
		s.log.Warn().Str("token", checkout.Token).Err(err).Msg("failed to mark checkout session failed")
	}
}
