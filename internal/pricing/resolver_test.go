package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calmnights/checkout-service/internal/models"
)

type fakeProducts struct {
	products map[string]*models.Product
}

func (f *fakeProducts) GetProduct(_ context.Context, id string) (*models.Product, error) {
	return f.products[id], nil
}

type fakeCoupons struct {
	coupons map[string]*models.Coupon
}

func (f *fakeCoupons) GetByCode(_ context.Context, code string) (*models.Coupon, error) {
	return f.coupons[code], nil
}

func newTestResolver() *Resolver {
	products := &fakeProducts{products: map[string]*models.Product{
		"sleep-course": {
			ID:           "sleep-course",
			Name:         "Sleep Training Course",
			BaseAmount:   10000,
			BaseCurrency: "USD",
			Prices:       map[string]int64{"USD": 10000, "AUD": 12000},
		},
	}}
	coupons := &fakeCoupons{coupons: map[string]*models.Coupon{
		"LAUNCH99":  {ID: 1, Code: "LAUNCH99", Kind: models.DiscountPercentOff, Value: 99, Active: true},
		"FULLCOMP":  {ID: 2, Code: "FULLCOMP", Kind: models.DiscountPercentOff, Value: 100, Active: true},
		"OVERCOMP":  {ID: 3, Code: "OVERCOMP", Kind: models.DiscountPercentOff, Value: 150, Active: true},
		"TAKE25":    {ID: 4, Code: "TAKE25", Kind: models.DiscountAmountOff, Value: 2500, Active: true},
		"TAKEALL":   {ID: 5, Code: "TAKEALL", Kind: models.DiscountAmountOff, Value: 999999, Active: true},
		"RETIRED10": {ID: 6, Code: "RETIRED10", Kind: models.DiscountPercentOff, Value: 10, Active: false},
	}}
	return NewResolver(products, coupons, "USD")
}

func TestResolveDiscounts(t *testing.T) {
	r := newTestResolver()

	tests := []struct {
		name         string
		currency     string
		coupon       string
		wantOriginal int64
		wantDiscount int64
		wantFinal    int64
		wantCurrency string
	}{
		{
			name:         "no coupon full price",
			currency:     "USD",
			wantOriginal: 10000,
			wantFinal:    10000,
			wantCurrency: "USD",
		},
		{
			name:         "99 percent off AUD",
			currency:     "AUD",
			coupon:       "LAUNCH99",
			wantOriginal: 12000,
			wantDiscount: 11880,
			wantFinal:    120,
			wantCurrency: "AUD",
		},
		{
			name:         "amount off",
			currency:     "AUD",
			coupon:       "TAKE25",
			wantOriginal: 12000,
			wantDiscount: 2500,
			wantFinal:    9500,
			wantCurrency: "AUD",
		},
		{
			name:         "100 percent off is free",
			currency:     "USD",
			coupon:       "FULLCOMP",
			wantOriginal: 10000,
			wantDiscount: 10000,
			wantFinal:    0,
			wantCurrency: "USD",
		},
		{
			name:         "over 100 percent clamps at zero",
			currency:     "USD",
			coupon:       "OVERCOMP",
			wantOriginal: 10000,
			wantDiscount: 15000,
			wantFinal:    0,
			wantCurrency: "USD",
		},
		{
			name:         "amount off larger than price",
			currency:     "USD",
			coupon:       "TAKEALL",
			wantOriginal: 10000,
			wantDiscount: 10000,
			wantFinal:    0,
			wantCurrency: "USD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := r.Resolve(context.Background(), "sleep-course", tt.currency, tt.coupon)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOriginal, quote.OriginalAmount)
			assert.Equal(t, tt.wantDiscount, quote.DiscountAmount)
			assert.Equal(t, tt.wantFinal, quote.FinalAmount)
			assert.Equal(t, tt.wantCurrency, quote.Currency)
			assert.GreaterOrEqual(t, quote.FinalAmount, int64(0))
		})
	}
}

func TestResolveInvalidCoupon(t *testing.T) {
	r := newTestResolver()

	_, err := r.Resolve(context.Background(), "sleep-course", "USD", "BOGUS")
	assert.ErrorIs(t, err, models.ErrInvalidCoupon)

	_, err = r.Resolve(context.Background(), "sleep-course", "USD", "RETIRED10")
	assert.ErrorIs(t, err, models.ErrInvalidCoupon)
}

func TestResolveUnknownProduct(t *testing.T) {
	r := newTestResolver()
	_, err := r.Resolve(context.Background(), "nope", "USD", "")
	assert.ErrorIs(t, err, models.ErrProductNotFound)
}

func TestResolveRegionAndFallback(t *testing.T) {
	r := newTestResolver()

	// region hint maps to currency
	quote, err := r.Resolve(context.Background(), "sleep-course", "au", "")
	require.NoError(t, err)
	assert.Equal(t, "AUD", quote.Currency)
	assert.Equal(t, int64(12000), quote.OriginalAmount)

	// currency without a price row falls back to the base price
	quote, err = r.Resolve(context.Background(), "sleep-course", "GBP", "")
	require.NoError(t, err)
	assert.Equal(t, "USD", quote.Currency)
	assert.Equal(t, int64(10000), quote.OriginalAmount)

	// unknown region hint falls back to the default currency
	quote, err = r.Resolve(context.Background(), "sleep-course", "somewhere", "")
	require.NoError(t, err)
	assert.Equal(t, "USD", quote.Currency)
}
