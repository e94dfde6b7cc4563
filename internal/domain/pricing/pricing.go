// Package pricing computes cart totals and applies coupon discounts.
package pricing

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/evermart/storefront/internal/domain/cart"
	"github.com/evermart/storefront/internal/domain/coupon"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Quote is the priced view of a cart: the raw total, the applied discount
// percentage (zero when no coupon was used), and the payable amount.
//
// TotalAfterDiscount = round2(CartTotal * (1 - DiscountPercent/100)) and is
// never greater than CartTotal.
type Quote struct {
	CartTotal          decimal.Decimal
	DiscountPercent    decimal.Decimal
	TotalAfterDiscount decimal.Decimal
}

// Engine prices carts. Its only side effect is the single coupon lookup;
// it never mutates cart or coupon state.
type Engine struct {
	coupons coupon.Repository
	now     func() time.Time
}

// NewEngine creates a pricing Engine backed by the given coupon repository.
func NewEngine(coupons coupon.Repository) *Engine {
	return &Engine{coupons: coupons, now: time.Now}
}

// Quote prices the given cart lines, applying the named coupon when
// couponName is non-empty.
//
// Fails with cart.ErrEmptyCart for an empty line set, coupon.ErrInvalidCoupon
// when the named coupon does not exist, and coupon.ErrExpired when it does
// but its expiry has passed.
func (e *Engine) Quote(ctx context.Context, lines []cart.Line, couponName string) (Quote, error) {
	if len(lines) == 0 {
		return Quote{}, cart.ErrEmptyCart
	}

	total := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			return Quote{}, cart.ErrInvalidQuantity
		}
		total = total.Add(l.Subtotal())
	}

	q := Quote{
		CartTotal:          total,
		DiscountPercent:    decimal.Zero,
		TotalAfterDiscount: total,
	}
	if couponName == "" {
		return q, nil
	}

	c, err := e.coupons.FindByName(ctx, couponName)
	if err != nil {
		if errors.Is(err, coupon.ErrInvalidCoupon) {
			return Quote{}, coupon.ErrInvalidCoupon
		}
		return Quote{}, errors.Wrap(err, "lookup coupon")
	}
	if c.Expired(e.now()) {
		return Quote{}, coupon.ErrExpired
	}

	q.DiscountPercent = c.Discount
	q.TotalAfterDiscount = total.Mul(one.Sub(c.Discount.Div(hundred))).Round(2)
	return q, nil
}
