package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/evermart/storefront/internal/domain/coupon"
)

type couponRequest struct {
	Name     string          `json:"name,omitempty"`
	Discount decimal.Decimal `json:"discount"`
	Expiry   time.Time       `json:"expiry"`
}

type couponResponse struct {
	Name     string    `json:"name"`
	Discount float64   `json:"discount"`
	Expiry   time.Time `json:"expiry"`
}

func toCouponResponse(c coupon.Coupon) couponResponse {
	return couponResponse{
		Name:     c.Name,
		Discount: c.Discount.InexactFloat64(),
		Expiry:   c.Expiry,
	}
}

// ListCoupons returns every coupon (admin).
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]couponResponse, len(coupons))
	for i, c := range coupons {
		out[i] = toCouponResponse(c)
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateCoupon adds a coupon (admin).
func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := &coupon.Coupon{Name: req.Name, Discount: req.Discount, Expiry: req.Expiry}
	if err := c.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.coupons.Create(r.Context(), c); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCouponResponse(*c))
}

// UpdateCoupon rewrites a coupon's discount and expiry (admin).
func (h *Handler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := &coupon.Coupon{
		Name:     chi.URLParam(r, "name"),
		Discount: req.Discount,
		Expiry:   req.Expiry,
	}
	if err := c.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.coupons.Update(r.Context(), c); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCouponResponse(*c))
}

// DeleteCoupon removes a coupon by name (admin).
func (h *Handler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.coupons.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
