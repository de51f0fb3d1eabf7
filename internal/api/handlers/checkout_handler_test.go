package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calmnights/checkout-service/internal/models"
	"github.com/calmnights/checkout-service/internal/service"
)

type fakeCheckout struct {
	product     *models.Product
	quote       models.Quote
	quoteErr    error
	start       *service.CheckoutStart
	startErr    error
	outcome     *service.PurchaseOutcome
	completeErr error

	lastCoupon string
	lastToken  string
	lastIntent string
}

func (f *fakeCheckout) GetProduct(_ context.Context, id string) (*models.Product, error) {
	if f.product == nil || f.product.ID != id {
		return nil, models.ErrProductNotFound
	}
	return f.product, nil
}

func (f *fakeCheckout) Quote(_ context.Context, _, _, couponCode string) (models.Quote, error) {
	f.lastCoupon = couponCode
	return f.quote, f.quoteErr
}

func (f *fakeCheckout) CreateIntent(_ context.Context, _, _, _, _, _ string) (*service.CheckoutStart, error) {
	return f.start, f.startErr
}

func (f *fakeCheckout) CompletePurchase(_ context.Context, token, intentID string) (*service.PurchaseOutcome, error) {
	f.lastToken = token
	f.lastIntent = intentID
	return f.outcome, f.completeErr
}

func newTestRouter(svc Checkout) http.Handler {
	r := chi.NewRouter()
	h := NewCheckoutHandler(svc)
	r.Get("/products/{id}", h.GetProduct)
	r.Post("/checkout/validate-coupon", h.ValidateCoupon)
	r.Post("/checkout/create-payment-intent", h.CreateIntent)
	r.Post("/checkout/complete-purchase", h.CompletePurchase)
	return r
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGetProduct(t *testing.T) {
	svc := &fakeCheckout{
		product: &models.Product{ID: "sleep-course", Name: "Sleep Training Course", EntitlementType: models.EntitlementOneTime},
		quote:   models.Quote{ProductID: "sleep-course", OriginalAmount: 12000, FinalAmount: 12000, Currency: "AUD"},
	}
	rec := doJSON(t, newTestRouter(svc), http.MethodGet, "/products/sleep-course?currency=AUD", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ProductResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Sleep Training Course", resp.Name)
	assert.Equal(t, int64(12000), resp.Quote.FinalAmount)
}

func TestGetProductNotFound(t *testing.T) {
	rec := doJSON(t, newTestRouter(&fakeCheckout{}), http.MethodGet, "/products/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidateCoupon(t *testing.T) {
	svc := &fakeCheckout{
		quote: models.Quote{OriginalAmount: 12000, DiscountAmount: 11880, FinalAmount: 120, Currency: "AUD"},
	}
	rec := doJSON(t, newTestRouter(svc), http.MethodPost, "/checkout/validate-coupon", ValidateCouponRequest{
		ProductID: "sleep-course", Currency: "AUD", Code: "LAUNCH99",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ValidateCouponResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Equal(t, int64(11880), resp.DiscountAmount)
	assert.Equal(t, int64(120), resp.FinalAmount)
	assert.Equal(t, "LAUNCH99", svc.lastCoupon)
}

func TestValidateCouponUnknownCode(t *testing.T) {
	svc := &fakeCheckout{quoteErr: models.ErrInvalidCoupon}
	rec := doJSON(t, newTestRouter(svc), http.MethodPost, "/checkout/validate-coupon", ValidateCouponRequest{
		ProductID: "sleep-course", Code: "BOGUS",
	})

	// invalid coupon is a normal storefront answer, not an HTTP error
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ValidateCouponResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.Equal(t, "coupon_not_found", resp.Message)
}

func TestValidateCouponMissingFields(t *testing.T) {
	rec := doJSON(t, newTestRouter(&fakeCheckout{}), http.MethodPost, "/checkout/validate-coupon", ValidateCouponRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateIntent(t *testing.T) {
	svc := &fakeCheckout{
		start: &service.CheckoutStart{
			Token:        "tok-1",
			ClientSecret: "pi_secret",
			Quote:        models.Quote{OriginalAmount: 12000, DiscountAmount: 11880, FinalAmount: 120, Currency: "AUD"},
		},
	}
	rec := doJSON(t, newTestRouter(svc), http.MethodPost, "/checkout/create-payment-intent", CreateIntentRequest{
		ProductID: "sleep-course",
		Currency:  "AUD",
		Customer:  CustomerDetails{Email: "parent@example.com"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp CreateIntentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tok-1", resp.CheckoutToken)
	assert.Equal(t, "pi_secret", resp.ClientSecret)
	assert.False(t, resp.Free)
	assert.Equal(t, int64(120), resp.FinalAmount)
}

func TestCreateIntentRequiresEmail(t *testing.T) {
	rec := doJSON(t, newTestRouter(&fakeCheckout{}), http.MethodPost, "/checkout/create-payment-intent", CreateIntentRequest{
		ProductID: "sleep-course",
		Customer:  CustomerDetails{Email: "not-an-email"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateIntentGatewayFailure(t *testing.T) {
	svc := &fakeCheckout{startErr: models.ErrPaymentGateway}
	rec := doJSON(t, newTestRouter(svc), http.MethodPost, "/checkout/create-payment-intent", CreateIntentRequest{
		ProductID: "sleep-course",
		Customer:  CustomerDetails{Email: "parent@example.com"},
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCompletePurchase(t *testing.T) {
	svc := &fakeCheckout{
		outcome: &service.PurchaseOutcome{
			Success:        true,
			PurchaseID:     "purchase-1",
			RedirectTarget: service.RedirectProfileCompletion,
		},
	}
	rec := doJSON(t, newTestRouter(svc), http.MethodPost, "/checkout/complete-purchase", CompletePurchaseRequest{
		CheckoutToken:   "tok-1",
		PaymentIntentID: "pi_abc123",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp CompletePurchaseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "profile-completion", resp.RedirectTarget)
	assert.Equal(t, "purchase-1", resp.PurchaseID)
	assert.Equal(t, "tok-1", svc.lastToken)
	assert.Equal(t, "pi_abc123", svc.lastIntent)
}

func TestCompletePurchaseExpiredSession(t *testing.T) {
	svc := &fakeCheckout{completeErr: models.ErrSessionNotFound}
	rec := doJSON(t, newTestRouter(svc), http.MethodPost, "/checkout/complete-purchase", CompletePurchaseRequest{
		CheckoutToken: "tok-gone",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompletePurchaseAmountMismatch(t *testing.T) {
	svc := &fakeCheckout{completeErr: models.ErrAmountMismatch}
	rec := doJSON(t, newTestRouter(svc), http.MethodPost, "/checkout/complete-purchase", CompletePurchaseRequest{
		CheckoutToken: "tok-1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}
