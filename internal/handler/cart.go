package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evermart/storefront/internal/domain/cart"
)

type cartLineResponse struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Color     string  `json:"color"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

func toCartLineResponse(l cart.Line) cartLineResponse {
	return cartLineResponse{
		ID:        l.ID,
		ProductID: l.ProductID,
		Color:     l.Color,
		Quantity:  l.Quantity,
		UnitPrice: l.UnitPrice.InexactFloat64(),
		Subtotal:  l.Subtotal().InexactFloat64(),
	}
}

// GetCart returns all lines in the caller's cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	lines, err := h.carts.Get(r.Context(), UserID(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]cartLineResponse, len(lines))
	for i, l := range lines {
		out[i] = toCartLineResponse(l)
	}
	writeJSON(w, http.StatusOK, out)
}

type addToCartRequest struct {
	ProductID string `json:"product_id"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

// AddToCart places a product into the caller's cart; adding the same
// product and color again merges quantities.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	line, err := h.carts.Add(r.Context(), cart.AddRequest{
		UserID:    UserID(r.Context()),
		ProductID: req.ProductID,
		Color:     req.Color,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCartLineResponse(*line))
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateCartLine sets the quantity of one cart line.
func (h *Handler) UpdateCartLine(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	line, err := h.carts.UpdateQuantity(r.Context(),
		UserID(r.Context()), chi.URLParam(r, "lineID"), req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartLineResponse(*line))
}

// RemoveCartLine deletes one line from the caller's cart.
func (h *Handler) RemoveCartLine(w http.ResponseWriter, r *http.Request) {
	err := h.carts.Remove(r.Context(), UserID(r.Context()), chi.URLParam(r, "lineID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearCart removes every line from the caller's cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), UserID(r.Context())); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type quoteRequest struct {
	Coupon string `json:"coupon"`
}

type quoteResponse struct {
	CartTotal          float64 `json:"cart_total"`
	DiscountPercent    float64 `json:"discount_percent"`
	TotalAfterDiscount float64 `json:"total_after_discount"`
}

// QuoteCart prices the caller's cart, optionally applying a coupon. The
// quote is informational; nothing is persisted.
func (h *Handler) QuoteCart(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lines, err := h.carts.Get(r.Context(), UserID(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	quote, err := h.pricer.Quote(r.Context(), lines, req.Coupon)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{
		CartTotal:          quote.CartTotal.InexactFloat64(),
		DiscountPercent:    quote.DiscountPercent.InexactFloat64(),
		TotalAfterDiscount: quote.TotalAfterDiscount.InexactFloat64(),
	})
}
