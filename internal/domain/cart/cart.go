package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyCart is returned by operations that require at least one
	// cart line (pricing, order placement).
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidQuantity is returned when a quantity is not positive.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	// ErrLineNotFound is returned when a cart line does not exist or
	// belongs to another user.
	ErrLineNotFound = errors.New("cart line not found")
)

// Line is one product/color/quantity entry in a user's in-progress
// selection. UnitPrice snapshots the product price at the time the line
// was added.
type Line struct {
	ID        string
	UserID    string
	ProductID string
	Color     string
	Quantity  int
	UnitPrice decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Subtotal returns quantity * unit price for this line.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Repository defines persistence operations for cart lines.
//
// Upsert enforces uniqueness of (user, product, color) at write time:
// adding a line that already exists merges quantities instead of creating
// a duplicate row.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Line, error)
	Upsert(ctx context.Context, line *Line) error
	UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) (*Line, error)
	DeleteLine(ctx context.Context, userID, lineID string) error
	Clear(ctx context.Context, userID string) error
}
