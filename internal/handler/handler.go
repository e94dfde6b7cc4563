// Package handler exposes the storefront domain over HTTP. It binds JSON
// requests, delegates to the domain services, and maps typed domain
// failures to status codes.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evermart/storefront/internal/domain/cart"
	"github.com/evermart/storefront/internal/domain/coupon"
	"github.com/evermart/storefront/internal/domain/order"
	"github.com/evermart/storefront/internal/domain/pricing"
	"github.com/evermart/storefront/internal/domain/product"
	"github.com/evermart/storefront/internal/domain/report"
)

// Handler implements the storefront HTTP API.
type Handler struct {
	products *product.Service
	carts    *cart.Service
	coupons  coupon.Repository
	pricer   *pricing.Engine
	orders   *order.Service
	reports  *report.Service
	security *Security
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products *product.Service,
	carts *cart.Service,
	coupons coupon.Repository,
	pricer *pricing.Engine,
	orders *order.Service,
	reports *report.Service,
	security *Security,
) *Handler {
	return &Handler{
		products: products,
		carts:    carts,
		coupons:  coupons,
		pricer:   pricer,
		orders:   orders,
		reports:  reports,
		security: security,
	}
}

// Routes builds the API router. Catalog reads are public, cart and order
// routes require a user identity, and administration requires an API key.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/products", h.ListProducts)
	r.Get("/products/{productID}", h.GetProduct)

	r.Group(func(r chi.Router) {
		r.Use(RequireUser)

		r.Get("/cart", h.GetCart)
		r.Post("/cart", h.AddToCart)
		r.Delete("/cart", h.ClearCart)
		r.Put("/cart/{lineID}", h.UpdateCartLine)
		r.Delete("/cart/{lineID}", h.RemoveCartLine)
		r.Post("/cart/quote", h.QuoteCart)

		r.Post("/orders", h.PlaceOrder)
		r.Get("/orders", h.ListMyOrders)
		r.Get("/orders/{orderID}", h.GetOrder)

		r.Put("/products/{productID}/rating", h.RateProduct)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.security.RequireAPIKey)

		r.Post("/products", h.CreateProduct)
		r.Put("/products/{productID}", h.UpdateProduct)
		r.Delete("/products/{productID}", h.DeleteProduct)

		r.Get("/coupons", h.ListCoupons)
		r.Post("/coupons", h.CreateCoupon)
		r.Put("/coupons/{name}", h.UpdateCoupon)
		r.Delete("/coupons/{name}", h.DeleteCoupon)

		r.Get("/orders", h.ListAllOrders)
		r.Put("/orders/{orderID}/status", h.UpdateOrderStatus)

		r.Get("/reports/income/monthly", h.MonthlyIncome)
		r.Get("/reports/income/yearly", h.YearlyIncome)
	})

	return r
}
