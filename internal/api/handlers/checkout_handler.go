package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/calmnights/checkout-service/internal/models"
	"github.com/calmnights/checkout-service/internal/service"
)

// --- Request / Response DTOs ---

type CustomerDetails struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type ValidateCouponRequest struct {
	ProductID string `json:"product_id"`
	Currency  string `json:"currency,omitempty"`
	Code      string `json:"code"`
}

type ValidateCouponResponse struct {
	Valid          bool   `json:"valid"`
	Message        string `json:"message,omitempty"`
	OriginalAmount int64  `json:"original_amount,omitempty"`
	DiscountAmount int64  `json:"discount_amount,omitempty"`
	FinalAmount    int64  `json:"final_amount,omitempty"`
	Currency       string `json:"currency,omitempty"`
}

type CreateIntentRequest struct {
	ProductID  string          `json:"product_id"`
	Currency   string          `json:"currency,omitempty"`
	CouponCode string          `json:"coupon_code,omitempty"`
	Customer   CustomerDetails `json:"customer"`
}

type CreateIntentResponse struct {
	CheckoutToken  string `json:"checkout_token"`
	ClientSecret   string `json:"client_secret,omitempty"`
	Free           bool   `json:"free"`
	OriginalAmount int64  `json:"original_amount"`
	DiscountAmount int64  `json:"discount_amount"`
	FinalAmount    int64  `json:"final_amount"`
	Currency       string `json:"currency"`
}

type CompletePurchaseRequest struct {
	CheckoutToken   string `json:"checkout_token"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
}

type CompletePurchaseResponse struct {
	Success        bool   `json:"success"`
	RedirectTarget string `json:"redirect_target"`
	PurchaseID     string `json:"purchase_id"`
}

type ProductResponse struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	EntitlementType string       `json:"entitlement_type"`
	Quote           models.Quote `json:"price"`
}

// --- Handler struct & constructor ---

// Checkout is the service surface the handlers need.
type Checkout interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	Quote(ctx context.Context, productID, regionOrCurrency, couponCode string) (models.Quote, error)
	CreateIntent(ctx context.Context, productID, regionOrCurrency, couponCode, customerEmail, customerName string) (*service.CheckoutStart, error)
	CompletePurchase(ctx context.Context, token, intentID string) (*service.PurchaseOutcome, error)
}

type CheckoutHandler struct {
	service Checkout
}

func NewCheckoutHandler(svc Checkout) *CheckoutHandler {
	return &CheckoutHandler{service: svc}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrProductNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "product_not_found"})
	case errors.Is(err, models.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "checkout_session_not_found"})
	case errors.Is(err, models.ErrInvalidCoupon):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_coupon"})
	case errors.Is(err, models.ErrInvalidCharge):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_charge"})
	case errors.Is(err, models.ErrAmountMismatch):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "amount_mismatch"})
	case errors.Is(err, models.ErrPaymentNotConfirmed):
		writeJSON(w, http.StatusPaymentRequired, map[string]string{"error": "payment_not_confirmed"})
	case errors.Is(err, models.ErrPaymentGateway):
		// retryable from the customer's side; never retried server-side
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "payment_gateway_failure"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
	}
}

// --- Handlers ---

// GetProduct handles GET /products/{id}
func (h *CheckoutHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	currency := r.URL.Query().Get("currency")

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	quote, err := h.service.Quote(r.Context(), id, currency, "")
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ProductResponse{
		ID:              product.ID,
		Name:            product.Name,
		EntitlementType: product.EntitlementType,
		Quote:           quote,
	})
}

// ValidateCoupon handles POST /checkout/validate-coupon. An invalid coupon
// is a normal answer here, not an HTTP error: the storefront shows the
// message and keeps the full price.
func (h *CheckoutHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req ValidateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_body"})
		return
	}
	if req.ProductID == "" || strings.TrimSpace(req.Code) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "product_id and code required"})
		return
	}

	quote, err := h.service.Quote(r.Context(), req.ProductID, req.Currency, req.Code)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCoupon) {
			writeJSON(w, http.StatusOK, ValidateCouponResponse{Valid: false, Message: "coupon_not_found"})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ValidateCouponResponse{
		Valid:          true,
		OriginalAmount: quote.OriginalAmount,
		DiscountAmount: quote.DiscountAmount,
		FinalAmount:    quote.FinalAmount,
		Currency:       quote.Currency,
	})
}

// CreateIntent handles POST /checkout/create-payment-intent
func (h *CheckoutHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req CreateIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_body"})
		return
	}
	if req.ProductID == "" || !strings.Contains(req.Customer.Email, "@") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "product_id and customer.email required"})
		return
	}

	start, err := h.service.CreateIntent(r.Context(), req.ProductID, req.Currency, req.CouponCode, req.Customer.Email, req.Customer.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CreateIntentResponse{
		CheckoutToken:  start.Token,
		ClientSecret:   start.ClientSecret,
		Free:           start.Free,
		OriginalAmount: start.Quote.OriginalAmount,
		DiscountAmount: start.Quote.DiscountAmount,
		FinalAmount:    start.Quote.FinalAmount,
		Currency:       start.Quote.Currency,
	})
}

// CompletePurchase handles POST /checkout/complete-purchase
func (h *CheckoutHandler) CompletePurchase(w http.ResponseWriter, r *http.Request) {
	var req CompletePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_body"})
		return
	}
	if req.CheckoutToken == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "checkout_token required"})
		return
	}

	outcome, err := h.service.CompletePurchase(r.Context(), req.CheckoutToken, req.PaymentIntentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CompletePurchaseResponse{
		Success:        outcome.Success,
		RedirectTarget: outcome.RedirectTarget,
		PurchaseID:     outcome.PurchaseID,
	})
}
