package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/evermart/storefront/internal/domain/cart"
	"github.com/evermart/storefront/internal/domain/coupon"
	"github.com/evermart/storefront/internal/domain/order"
	"github.com/evermart/storefront/internal/domain/product"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the {"code": ..., "message": ...} envelope. The
// envelope is small and fixed-shape, so it is encoded by hand with jx.
func writeError(w http.ResponseWriter, status int, message string) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(status) })
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeDomainError maps typed domain failures to HTTP status codes.
// Anything unrecognized is logged and reported as a 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stockErr      *product.InsufficientStockError
		transitionErr *order.InvalidTransitionError
		filterErr     *product.InvalidFilterError
	)

	switch {
	case errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, product.ErrInvalidRating),
		errors.Is(err, product.ErrEmptyTitle),
		errors.Is(err, coupon.ErrInvalidDiscount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &filterErr):
		writeError(w, http.StatusBadRequest, filterErr.Error())
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, cart.ErrLineNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, coupon.ErrInvalidCoupon),
		errors.Is(err, coupon.ErrExpired):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &stockErr):
		writeError(w, http.StatusConflict, stockErr.Error())
	case errors.Is(err, order.ErrUnknownStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &transitionErr):
		writeError(w, http.StatusConflict, transitionErr.Error())
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON binds the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
