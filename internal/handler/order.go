package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/evermart/storefront/internal/domain/order"
)

type orderItemResponse struct {
	ProductID string  `json:"product_id"`
	Color     string  `json:"color"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type orderResponse struct {
	ID                      string              `json:"id"`
	UserID                  string              `json:"user_id"`
	Items                   []orderItemResponse `json:"items"`
	Shipping                order.ShippingInfo  `json:"shipping"`
	Payment                 order.PaymentRef    `json:"payment"`
	CouponName              string              `json:"coupon,omitempty"`
	TotalPrice              float64             `json:"total_price"`
	TotalPriceAfterDiscount float64             `json:"total_price_after_discount"`
	Status                  string              `json:"status"`
	CreatedAt               string              `json:"created_at"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemResponse{
			ProductID: item.ProductID,
			Color:     item.Color,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.InexactFloat64(),
		}
	}
	return orderResponse{
		ID:                      o.ID,
		UserID:                  o.UserID,
		Items:                   items,
		Shipping:                o.Shipping,
		Payment:                 o.Payment,
		CouponName:              o.CouponName,
		TotalPrice:              o.TotalPrice.InexactFloat64(),
		TotalPriceAfterDiscount: o.TotalPriceAfterDiscount.InexactFloat64(),
		Status:                  string(o.Status),
		CreatedAt:               o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

type placeOrderRequest struct {
	Shipping order.ShippingInfo `json:"shipping"`
	Payment  order.PaymentRef   `json:"payment"`
	Coupon   string             `json:"coupon"`
}

// PlaceOrder snapshots the caller's cart into an order and clears the
// cart on success. The cart clear is best-effort: the order already
// exists, so a failed clear is logged rather than surfaced.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := UserID(r.Context())
	lines, err := h.carts.Get(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	o, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		UserID:     userID,
		Lines:      lines,
		Shipping:   req.Shipping,
		Payment:    req.Payment,
		CouponName: req.Coupon,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := h.carts.Clear(r.Context(), userID); err != nil {
		zctx.From(r.Context()).Warn("cart clear after order failed",
			zap.String("order_id", o.ID), zap.Error(err))
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

// ListMyOrders returns the caller's orders, newest first.
func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListByUser(r.Context(), UserID(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeOrders(w, orders)
}

// GetOrder returns one of the caller's orders by ID.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if o.UserID != UserID(r.Context()) {
		writeError(w, http.StatusNotFound, order.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// ListAllOrders returns every order (admin).
func (h *Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeOrders(w, orders)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus applies one lifecycle transition to an order (admin).
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "orderID"), order.Status(req.Status))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func writeOrders(w http.ResponseWriter, orders []order.Order) {
	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	writeJSON(w, http.StatusOK, out)
}
