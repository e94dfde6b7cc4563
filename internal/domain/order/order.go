package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Item is an immutable snapshot of one ordered cart line. Unit prices are
// frozen at the moment the order is created.
type Item struct {
	ProductID string          `json:"product_id"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// ShippingInfo is the delivery address recorded on an order.
type ShippingInfo struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Other     string `json:"other"`
	Pincode   int    `json:"pincode"`
}

// PaymentRef holds the opaque gateway identifiers confirming payment. The
// pipeline records them verbatim; verifying them is the payment gateway's
// responsibility.
type PaymentRef struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
}

// Order is an immutable snapshot of priced cart lines plus shipping and
// payment metadata. Only Status changes after creation.
type Order struct {
	ID                      string
	UserID                  string
	Items                   []Item
	Shipping                ShippingInfo
	Payment                 PaymentRef
	CouponName              string
	TotalPrice              decimal.Decimal
	TotalPriceAfterDiscount decimal.Decimal
	Status                  Status
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// MonthlyIncome is one month's aggregate of completed order totals.
type MonthlyIncome struct {
	Month  string // YYYY-MM
	Amount decimal.Decimal
	Orders int
}

// IncomeTotals aggregates order income over a reporting window.
type IncomeTotals struct {
	Amount decimal.Decimal
	Orders int
}

// Repository defines persistence for orders.
//
// Create must atomically persist the order, its items, and the per-product
// stock adjustments (count -= quantity, sold += quantity) in a single
// transaction; a line whose decrement would drive stock negative aborts the
// whole transaction with product.InsufficientStockError, leaving no order
// and no stock change behind.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	IncomeByMonth(ctx context.Context, from, to time.Time) ([]MonthlyIncome, error)
	IncomeTotals(ctx context.Context, from, to time.Time) (IncomeTotals, error)
}
