package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/calmnights/checkout-service/internal/models"
)

// Sources required by the resolver (interfaces so tests can fake them).
type ProductSource interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

type CouponSource interface {
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
}

// regionCurrency maps storefront region hints to a currency code. Inputs
// that already look like a currency code pass through unchanged.
var regionCurrency = map[string]string{
	"au": "AUD",
	"nz": "NZD",
	"us": "USD",
	"ca": "CAD",
	"gb": "GBP",
	"uk": "GBP",
	"eu": "EUR",
}

type Resolver struct {
	products        ProductSource
	coupons         CouponSource
	defaultCurrency string
}

func NewResolver(products ProductSource, coupons CouponSource, defaultCurrency string) *Resolver {
	return &Resolver{
		products:        products,
		coupons:         coupons,
		defaultCurrency: defaultCurrency,
	}
}

// Resolve computes the amount to charge for a product in the requested
// region or currency, applying an optional coupon. An unknown or inactive
// coupon code returns models.ErrInvalidCoupon rather than a full-price
// quote, so the storefront can tell the customer instead of silently
// charging more than they expect.
func (r *Resolver) Resolve(ctx context.Context, productID, regionOrCurrency, couponCode string) (models.Quote, error) {
	product, err := r.products.GetProduct(ctx, productID)
	if err != nil {
		return models.Quote{}, fmt.Errorf("load product: %w", err)
	}
	if product == nil {
		return models.Quote{}, models.ErrProductNotFound
	}

	original, currency := product.PriceFor(r.normalizeCurrency(regionOrCurrency))

	quote := models.Quote{
		ProductID:      productID,
		OriginalAmount: original,
		FinalAmount:    original,
		Currency:       currency,
	}

	if couponCode == "" {
		return quote, nil
	}

	coupon, err := r.coupons.GetByCode(ctx, couponCode)
	if err != nil {
		return models.Quote{}, fmt.Errorf("load coupon: %w", err)
	}
	if coupon == nil || !coupon.Active {
		return models.Quote{}, fmt.Errorf("%w: %s", models.ErrInvalidCoupon, couponCode)
	}

	quote.CouponCode = coupon.Code
	quote.DiscountAmount = discountFor(coupon, original)
	quote.FinalAmount = original - quote.DiscountAmount
	if quote.FinalAmount < 0 {
		quote.FinalAmount = 0
	}
	return quote, nil
}

// normalizeCurrency turns a region hint into a currency code. Unknown
// three-letter inputs are assumed to already be a currency; anything else
// falls back to the configured default.
func (r *Resolver) normalizeCurrency(regionOrCurrency string) string {
	v := strings.ToLower(strings.TrimSpace(regionOrCurrency))
	if v == "" {
		return r.defaultCurrency
	}
	if c, ok := regionCurrency[v]; ok {
		return c
	}
	if len(v) == 3 {
		return strings.ToUpper(v)
	}
	return r.defaultCurrency
}

// discountFor computes the discount in minor units. Percent-off rounds
// half away from zero to the currency minor unit; amount-off never exceeds
// the original amount.
func discountFor(c *models.Coupon, original int64) int64 {
	switch c.Kind {
	case models.DiscountPercentOff:
		d := decimal.NewFromInt(original).
			Mul(decimal.NewFromInt(c.Value)).
			Div(decimal.NewFromInt(100)).
			Round(0)
		return d.IntPart()
	case models.DiscountAmountOff:
		if c.Value > original {
			return original
		}
		return c.Value
	default:
		return 0
	}
}
