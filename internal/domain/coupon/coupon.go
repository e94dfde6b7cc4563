package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCoupon is returned when no coupon with the given name exists.
	ErrInvalidCoupon = errors.New("invalid coupon")
	// ErrExpired is returned when a coupon exists but its expiry has passed.
	ErrExpired = errors.New("coupon expired")
	// ErrInvalidDiscount is returned when a discount percentage falls
	// outside [0, 100].
	ErrInvalidDiscount = errors.New("discount must be between 0 and 100")
)

// Coupon is a named percentage discount applicable to a cart total.
// Names are unique and matched case-sensitively.
type Coupon struct {
	Name      string
	Discount  decimal.Decimal
	Expiry    time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

var hundred = decimal.NewFromInt(100)

// Validate checks the discount range. The zero percentage is allowed; it
// prices the cart unchanged.
func (c *Coupon) Validate() error {
	if c.Discount.IsNegative() || c.Discount.GreaterThan(hundred) {
		return ErrInvalidDiscount
	}
	return nil
}

// Expired reports whether the coupon is past its expiry at the given time.
func (c *Coupon) Expired(now time.Time) bool {
	return !c.Expiry.IsZero() && now.After(c.Expiry)
}

// Repository provides lookup and administration of coupons.
type Repository interface {
	FindByName(ctx context.Context, name string) (*Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, name string) error
}
