package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evermart/storefront/internal/domain/cart"
	"github.com/evermart/storefront/internal/domain/coupon"
)

// --- Mock implementations ---

type mockCouponRepo struct {
	byName map[string]*coupon.Coupon
	err    error
}

func (m *mockCouponRepo) FindByName(_ context.Context, name string) (*coupon.Coupon, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.byName[name]
	if !ok {
		return nil, coupon.ErrInvalidCoupon
	}
	return c, nil
}

func (m *mockCouponRepo) List(_ context.Context) ([]coupon.Coupon, error)  { return nil, nil }
func (m *mockCouponRepo) Create(_ context.Context, _ *coupon.Coupon) error { return nil }
func (m *mockCouponRepo) Update(_ context.Context, _ *coupon.Coupon) error { return nil }
func (m *mockCouponRepo) Delete(_ context.Context, _ string) error         { return nil }

// --- Helpers ---

func newEngine(coupons ...coupon.Coupon) *Engine {
	byName := make(map[string]*coupon.Coupon, len(coupons))
	for i := range coupons {
		byName[coupons[i].Name] = &coupons[i]
	}
	e := NewEngine(&mockCouponRepo{byName: byName})
	e.now = func() time.Time { return time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC) }
	return e
}

func line(productID string, quantity int, unitPrice string) cart.Line {
	return cart.Line{
		ID:        "line-" + productID,
		UserID:    "u1",
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: decimal.RequireFromString(unitPrice),
	}
}

func farFuture() time.Time {
	return time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// --- Tests ---

func TestQuote_EmptyCart(t *testing.T) {
	e := newEngine()

	_, err := e.Quote(context.Background(), nil, "")
	require.ErrorIs(t, err, cart.ErrEmptyCart)
}

func TestQuote_InvalidQuantity(t *testing.T) {
	e := newEngine()

	_, err := e.Quote(context.Background(), []cart.Line{line("p1", 0, "10.00")}, "")
	require.ErrorIs(t, err, cart.ErrInvalidQuantity)
}

func TestQuote_NoCoupon(t *testing.T) {
	e := newEngine()

	q, err := e.Quote(context.Background(), []cart.Line{
		line("p1", 2, "10.00"),
		line("p2", 1, "5.50"),
	}, "")

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("25.50").Equal(q.CartTotal))
	assert.True(t, q.DiscountPercent.IsZero())
	assert.True(t, q.CartTotal.Equal(q.TotalAfterDiscount))
}

func TestQuote_PercentageDiscount(t *testing.T) {
	e := newEngine(coupon.Coupon{
		Name:     "SAVE10",
		Discount: decimal.NewFromInt(10),
		Expiry:   farFuture(),
	})

	q, err := e.Quote(context.Background(), []cart.Line{line("p1", 1, "25.00")}, "SAVE10")

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("25.00").Equal(q.CartTotal))
	assert.True(t, decimal.RequireFromString("22.50").Equal(q.TotalAfterDiscount))
}

func TestQuote_DiscountRounding(t *testing.T) {
	e := newEngine(coupon.Coupon{
		Name:     "SAVE15",
		Discount: decimal.NewFromInt(15),
		Expiry:   farFuture(),
	})

	// 3 * 9.99 = 29.97; 15% off = 25.4745, rounded to 25.47.
	q, err := e.Quote(context.Background(), []cart.Line{line("p1", 3, "9.99")}, "SAVE15")

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("25.47").Equal(q.TotalAfterDiscount))
}

func TestQuote_FullDiscount(t *testing.T) {
	e := newEngine(coupon.Coupon{
		Name:     "FREE",
		Discount: decimal.NewFromInt(100),
		Expiry:   farFuture(),
	})

	q, err := e.Quote(context.Background(), []cart.Line{line("p1", 2, "49.99")}, "FREE")

	require.NoError(t, err)
	assert.True(t, q.TotalAfterDiscount.IsZero())
}

func TestQuote_NeverExceedsCartTotal(t *testing.T) {
	for _, pct := range []int64{0, 1, 33, 50, 99, 100} {
		e := newEngine(coupon.Coupon{
			Name:     "C",
			Discount: decimal.NewFromInt(pct),
			Expiry:   farFuture(),
		})

		q, err := e.Quote(context.Background(), []cart.Line{line("p1", 7, "13.37")}, "C")

		require.NoError(t, err)
		assert.True(t, q.TotalAfterDiscount.LessThanOrEqual(q.CartTotal),
			"discount %d%% produced total above cart total", pct)
	}
}

func TestQuote_UnknownCoupon(t *testing.T) {
	e := newEngine()

	_, err := e.Quote(context.Background(), []cart.Line{line("p1", 1, "10.00")}, "NOPE")
	require.ErrorIs(t, err, coupon.ErrInvalidCoupon)
}

func TestQuote_ExpiredCoupon(t *testing.T) {
	e := newEngine(coupon.Coupon{
		Name:     "OLD",
		Discount: decimal.NewFromInt(20),
		Expiry:   time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})

	_, err := e.Quote(context.Background(), []cart.Line{line("p1", 1, "10.00")}, "OLD")
	require.ErrorIs(t, err, coupon.ErrExpired)
}
