package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evermart/storefront/internal/domain/cart"
	"github.com/evermart/storefront/internal/domain/coupon"
	"github.com/evermart/storefront/internal/domain/pricing"
	"github.com/evermart/storefront/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	mu   sync.Mutex
	byID map[string]*product.Product
}

func (m *mockProductRepo) List(_ context.Context, _ product.ListFilter) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Create(_ context.Context, _ *product.Product) error { return nil }
func (m *mockProductRepo) Update(_ context.Context, _ *product.Product) error { return nil }
func (m *mockProductRepo) Delete(_ context.Context, _ string) error           { return nil }
func (m *mockProductRepo) SetRating(_ context.Context, _ string, _ product.Rating) (int, error) {
	return 0, nil
}

// mockOrderRepo mimics the transactional stock adjustment of the real
// repository: either every line's stock is decremented and the order is
// stored, or nothing changes at all.
type mockOrderRepo struct {
	mu       sync.Mutex
	products *mockProductRepo
	orders   map[string]*Order
	statuses map[string]Status
}

func newOrderRepo(products *mockProductRepo) *mockOrderRepo {
	return &mockOrderRepo{
		products: products,
		orders:   make(map[string]*Order),
		statuses: make(map[string]Status),
	}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products.mu.Lock()
	defer m.products.mu.Unlock()

	totals := make(map[string]int)
	for _, it := range o.Items {
		totals[it.ProductID] += it.Quantity
	}
	for id, qty := range totals {
		p, ok := m.products.byID[id]
		if !ok {
			return product.ErrNotFound
		}
		if p.Count < qty {
			return &product.InsufficientStockError{ProductID: id}
		}
	}
	for id, qty := range totals {
		m.products.byID[id].Count -= qty
		m.products.byID[id].Sold += qty
	}
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	if s, ok := m.statuses[id]; ok {
		cp.Status = s
	}
	return &cp, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID string) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) ListAll(_ context.Context) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return ErrNotFound
	}
	m.statuses[id] = status
	return nil
}

func (m *mockOrderRepo) IncomeByMonth(_ context.Context, _, _ time.Time) ([]MonthlyIncome, error) {
	return nil, nil
}

func (m *mockOrderRepo) IncomeTotals(_ context.Context, _, _ time.Time) (IncomeTotals, error) {
	return IncomeTotals{}, nil
}

type mockCouponRepo struct {
	byName map[string]*coupon.Coupon
}

func (m *mockCouponRepo) FindByName(_ context.Context, name string) (*coupon.Coupon, error) {
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

func newTestProduct(id string, price string, count int) *product.Product {
	return &product.Product{
		ID:    id,
		Title: "Product " + id,
		Price: decimal.RequireFromString(price),
		Count: count,
	}
}

func newFixture(products ...*product.Product) (*Service, *mockProductRepo, *mockOrderRepo) {
	byID := make(map[string]*product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	productRepo := &mockProductRepo{byID: byID}
	orderRepo := newOrderRepo(productRepo)
	coupons := &mockCouponRepo{byName: map[string]*coupon.Coupon{
		"SAVE10": {
			Name:     "SAVE10",
			Discount: decimal.NewFromInt(10),
			Expiry:   time.Now().Add(24 * time.Hour),
		},
	}}
	svc := NewService(pricing.NewEngine(coupons), productRepo, orderRepo)
	return svc, productRepo, orderRepo
}

func cartLine(productID string, quantity int, unitPrice string) cart.Line {
	return cart.Line{
		ID:        "line-" + productID,
		UserID:    "u1",
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: decimal.RequireFromString(unitPrice),
	}
}

// --- Tests ---

func TestPlaceOrder_EmptyCart(t *testing.T) {
	svc, _, _ := newFixture()

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{UserID: "u1"})
	require.ErrorIs(t, err, cart.ErrEmptyCart)
}

func TestPlaceOrder_InvalidCoupon(t *testing.T) {
	svc, products, _ := newFixture(newTestProduct("p1", "10.00", 5))

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:     "u1",
		Lines:      []cart.Line{cartLine("p1", 1, "10.00")},
		CouponName: "BOGUS",
	})

	require.ErrorIs(t, err, coupon.ErrInvalidCoupon)
	p, _ := products.GetByID(context.Background(), "p1")
	assert.Equal(t, 5, p.Count, "failed order must not touch stock")
}

func TestPlaceOrder_ProductGone(t *testing.T) {
	svc, _, _ := newFixture(newTestProduct("p1", "10.00", 5))

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "u1",
		Lines:  []cart.Line{cartLine("deleted", 1, "10.00")},
	})

	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	svc, products, orders := newFixture(
		newTestProduct("p1", "10.00", 5),
		newTestProduct("p2", "20.00", 1),
	)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "u1",
		Lines: []cart.Line{
			cartLine("p1", 2, "10.00"),
			cartLine("p2", 3, "20.00"),
		},
	})

	var isErr *product.InsufficientStockError
	require.ErrorAs(t, err, &isErr)
	assert.Equal(t, "p2", isErr.ProductID)

	// Nothing written, no stock moved on either product.
	all, _ := orders.ListAll(context.Background())
	assert.Empty(t, all)
	p1, _ := products.GetByID(context.Background(), "p1")
	p2, _ := products.GetByID(context.Background(), "p2")
	assert.Equal(t, 5, p1.Count)
	assert.Equal(t, 1, p2.Count)
}

func TestPlaceOrder_Success(t *testing.T) {
	svc, products, orders := newFixture(
		newTestProduct("p1", "10.00", 5),
		newTestProduct("p2", "20.00", 3),
	)

	o, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "u1",
		Lines: []cart.Line{
			cartLine("p1", 2, "10.00"),
			cartLine("p2", 1, "20.00"),
		},
		Shipping: ShippingInfo{Firstname: "Ada", City: "London", Pincode: 12345},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, StatusOrdered, o.Status)
	assert.True(t, decimal.RequireFromString("40.00").Equal(o.TotalPrice))
	assert.True(t, o.TotalPrice.Equal(o.TotalPriceAfterDiscount))
	assert.Len(t, o.Items, 2)

	stored, err := orders.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.UserID)

	p1, _ := products.GetByID(context.Background(), "p1")
	p2, _ := products.GetByID(context.Background(), "p2")
	assert.Equal(t, 3, p1.Count)
	assert.Equal(t, 2, p1.Sold)
	assert.Equal(t, 2, p2.Count)
	assert.Equal(t, 1, p2.Sold)
}

func TestPlaceOrder_WithCoupon(t *testing.T) {
	svc, _, _ := newFixture(newTestProduct("p1", "25.00", 10))

	o, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:     "u1",
		Lines:      []cart.Line{cartLine("p1", 1, "25.00")},
		CouponName: "SAVE10",
	})

	require.NoError(t, err)
	assert.Equal(t, "SAVE10", o.CouponName)
	assert.True(t, decimal.RequireFromString("25.00").Equal(o.TotalPrice))
	assert.True(t, decimal.RequireFromString("22.50").Equal(o.TotalPriceAfterDiscount))
}

func TestPlaceOrder_ConcurrentLastUnit(t *testing.T) {
	svc, products, orders := newFixture(newTestProduct("p1", "10.00", 1))

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(context.Background(), PlaceOrderRequest{
				UserID: "u1",
				Lines:  []cart.Line{cartLine("p1", 1, "10.00")},
			})
		}()
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			var isErr *product.InsufficientStockError
			require.ErrorAs(t, err, &isErr)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one order may claim the last unit")

	all, _ := orders.ListAll(context.Background())
	assert.Len(t, all, 1)
	p, _ := products.GetByID(context.Background(), "p1")
	assert.Equal(t, 0, p.Count)
	assert.Equal(t, 1, p.Sold)
}

func TestUpdateStatus_ForwardStep(t *testing.T) {
	svc, _, _ := newFixture(newTestProduct("p1", "10.00", 5))

	o, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "u1",
		Lines:  []cart.Line{cartLine("p1", 1, "10.00")},
	})
	require.NoError(t, err)

	for _, target := range []Status{StatusProcessing, StatusShipped, StatusDelivered} {
		o, err = svc.UpdateStatus(context.Background(), o.ID, target)
		require.NoError(t, err)
		assert.Equal(t, target, o.Status)
	}
}

func TestUpdateStatus_SkippingStepsRejected(t *testing.T) {
	svc, _, _ := newFixture(newTestProduct("p1", "10.00", 5))

	o, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "u1",
		Lines:  []cart.Line{cartLine("p1", 1, "10.00")},
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), o.ID, StatusDelivered)
	var itErr *InvalidTransitionError
	require.ErrorAs(t, err, &itErr)
	assert.Equal(t, StatusOrdered, itErr.From)
	assert.Equal(t, StatusDelivered, itErr.To)
}

func TestUpdateStatus_CancelFromAnyNonTerminal(t *testing.T) {
	svc, _, _ := newFixture(newTestProduct("p1", "10.00", 50))

	for _, from := range []Status{StatusOrdered, StatusProcessing, StatusShipped} {
		o, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
			UserID: "u1",
			Lines:  []cart.Line{cartLine("p1", 1, "10.00")},
		})
		require.NoError(t, err)

		// Walk the order forward to the desired starting state.
		for cur := StatusOrdered; cur != from; {
			cur = next[cur]
			_, err = svc.UpdateStatus(context.Background(), o.ID, cur)
			require.NoError(t, err)
		}

		got, err := svc.UpdateStatus(context.Background(), o.ID, StatusCancelled)
		require.NoError(t, err, "cancel from %s", from)
		assert.Equal(t, StatusCancelled, got.Status)
	}
}

func TestUpdateStatus_TerminalStatesFrozen(t *testing.T) {
	svc, _, _ := newFixture(newTestProduct("p1", "10.00", 5))

	o, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "u1",
		Lines:  []cart.Line{cartLine("p1", 1, "10.00")},
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), o.ID, StatusCancelled)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), o.ID, StatusProcessing)
	var itErr *InvalidTransitionError
	require.ErrorAs(t, err, &itErr)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	svc, _, _ := newFixture()

	_, err := svc.UpdateStatus(context.Background(), "any", Status("Teleported"))
	require.ErrorIs(t, err, ErrUnknownStatus)
}

func TestUpdateStatus_OrderNotFound(t *testing.T) {
	svc, _, _ := newFixture()

	_, err := svc.UpdateStatus(context.Background(), "missing", StatusProcessing)
	require.ErrorIs(t, err, ErrNotFound)
}
