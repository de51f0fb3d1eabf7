package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/calmnights/checkout-service/internal/models"
)

// --- Request DTOs ---

type CreateProductRequest struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	EntitlementType string           `json:"entitlement_type"`
	BaseAmount      int64            `json:"base_amount"`
	BaseCurrency    string           `json:"base_currency"`
	Prices          map[string]int64 `json:"prices,omitempty"`
}

type CreateCouponRequest struct {
	Code         string `json:"code"`
	DiscountKind string `json:"discount_kind"`
	Value        int64  `json:"value"`
	Active       bool   `json:"active"`
}

type UpsertPriceRequest struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

// --- Handler struct & constructor ---

// Operator-facing catalog surfaces. Everything here is read-only to the
// checkout flow.
type ProductCatalog interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	UpsertPrice(ctx context.Context, productID, currency string, amount int64) error
}

type CouponCatalog interface {
	CreateCoupon(ctx context.Context, c *models.Coupon) (int, error)
}

type AdminHandler struct {
	products ProductCatalog
	coupons  CouponCatalog
}

func NewAdminHandler(products ProductCatalog, coupons CouponCatalog) *AdminHandler {
	return &AdminHandler{products: products, coupons: coupons}
}

// --- Handlers ---

// CreateProduct handles POST /admin/products
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_body"})
		return
	}
	if req.ID == "" || req.Name == "" || req.BaseAmount <= 0 || req.BaseCurrency == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id, name, base_amount and base_currency required"})
		return
	}
	if req.EntitlementType != models.EntitlementOneTime && req.EntitlementType != models.EntitlementRecurring {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "entitlement_type must be one_time or recurring"})
		return
	}

	product := &models.Product{
		ID:              req.ID,
		Name:            req.Name,
		EntitlementType: req.EntitlementType,
		BaseAmount:      req.BaseAmount,
		BaseCurrency:    req.BaseCurrency,
		Prices:          req.Prices,
	}
	if err := h.products.CreateProduct(r.Context(), product); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed_create_product"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message":    "product_created",
		"product_id": product.ID,
	})
}

// CreateCoupon handles POST /admin/coupons
func (h *AdminHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req CreateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_body"})
		return
	}
	if req.Code == "" || req.Value <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code and value required"})
		return
	}
	if req.DiscountKind != models.DiscountPercentOff && req.DiscountKind != models.DiscountAmountOff {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "discount_kind must be percent_off or amount_off"})
		return
	}

	id, err := h.coupons.CreateCoupon(r.Context(), &models.Coupon{
		Code:   req.Code,
		Kind:   req.DiscountKind,
		Value:  req.Value,
		Active: req.Active,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed_create_coupon"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "coupon_created",
		"coupon_id": id,
	})
}

// UpsertPrice handles PUT /admin/products/{id}/prices
func (h *AdminHandler) UpsertPrice(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	var req UpsertPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_body"})
		return
	}
	if req.Currency == "" || req.Amount <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "currency and amount required"})
		return
	}

	if err := h.products.UpsertPrice(r.Context(), productID, req.Currency, req.Amount); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed_upsert_price"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "price_updated"})
}
