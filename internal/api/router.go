package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/calmnights/checkout-service/internal/api/handlers"
)

// NewRouter builds the HTTP router for the checkout-service.
func NewRouter(checkout handlers.Checkout, products handlers.ProductCatalog, coupons handlers.CouponCatalog) http.Handler {
	r := chi.NewRouter()

	checkoutHandler := handlers.NewCheckoutHandler(checkout)
	adminHandler := handlers.NewAdminHandler(products, coupons)

	// Storefront endpoints
	r.Get("/products/{id}", checkoutHandler.GetProduct)
	r.Route("/checkout", func(r chi.Router) {
		r.Post("/validate-coupon", checkoutHandler.ValidateCoupon)
		r.Post("/create-payment-intent", checkoutHandler.CreateIntent)
		r.Post("/complete-purchase", checkoutHandler.CompletePurchase)
	})

	// Operator endpoints
	r.Route("/admin", func(r chi.Router) {
		r.Post("/products", adminHandler.CreateProduct)
		r.Put("/products/{id}/prices", adminHandler.UpsertPrice)
		r.Post("/coupons", adminHandler.CreateCoupon)
	})

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
