package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/evermart/storefront/internal/domain/cart"
	"github.com/evermart/storefront/internal/domain/pricing"
	"github.com/evermart/storefront/internal/domain/product"
)

// PlaceOrderRequest holds the input for placing an order. Lines usually
// come from the user's cart but may be supplied explicitly.
type PlaceOrderRequest struct {
	UserID     string
	Lines      []cart.Line
	Shipping   ShippingInfo
	Payment    PaymentRef
	CouponName string
}

// Service is the order pipeline: it prices a cart, snapshots it into an
// immutable order, and drives the stock adjustment for every line.
type Service struct {
	pricer   *pricing.Engine
	products product.Repository
	orders   Repository
}

// NewService creates an order Service with the required domain dependencies.
func NewService(pricer *pricing.Engine, products product.Repository, orders Repository) *Service {
	return &Service{
		pricer:   pricer,
		products: products,
		orders:   orders,
	}
}

// PlaceOrder prices the given lines, pre-checks stock for every product,
// and persists the order together with the per-product stock adjustments
// in one transaction. No partial order is ever created: any failing line
// aborts the whole operation.
//
// Fails with cart.ErrEmptyCart, cart.ErrInvalidQuantity, coupon lookup
// errors from the pricing engine, product.ErrNotFound, or
// product.InsufficientStockError.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if len(req.Lines) == 0 {
		return nil, cart.ErrEmptyCart
	}

	quote, err := s.pricer.Quote(ctx, req.Lines, req.CouponName)
	if err != nil {
		return nil, err
	}

	// Pre-validate stock against the current catalog. The repository
	// re-checks inside the transaction; this pass exists to fail fast
	// before anything is written.
	ids := make([]string, len(req.Lines))
	for i, l := range req.Lines {
		ids[i] = l.ProductID
	}
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	stock := make(map[string]int, len(fetched))
	for _, p := range fetched {
		stock[p.ID] = p.Count
	}

	items := make([]Item, len(req.Lines))
	for i, l := range req.Lines {
		available, ok := stock[l.ProductID]
		if !ok {
			return nil, product.ErrNotFound
		}
		if available < l.Quantity {
			return nil, &product.InsufficientStockError{ProductID: l.ProductID}
		}
		items[i] = Item{
			ProductID: l.ProductID,
			Color:     l.Color,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}

	o := &Order{
		ID:                      uuid.New().String(),
		UserID:                  req.UserID,
		Items:                   items,
		Shipping:                req.Shipping,
		Payment:                 req.Payment,
		CouponName:              req.CouponName,
		TotalPrice:              quote.CartTotal,
		TotalPriceAfterDiscount: quote.TotalAfterDiscount,
		Status:                  StatusOrdered,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// Get returns a single order by ID.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// ListByUser returns all orders belonging to the given user, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// ListAll returns every order, newest first.
func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	return s.orders.ListAll(ctx)
}

// UpdateStatus applies one lifecycle transition to an order. The target
// must be a known status and reachable from the order's current status.
func (s *Service) UpdateStatus(ctx context.Context, id string, target Status) (*Order, error) {
	if _, err := ParseStatus(string(target)); err != nil {
		return nil, err
	}

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransition(target) {
		return nil, &InvalidTransitionError{From: o.Status, To: target}
	}

	if err := s.orders.UpdateStatus(ctx, id, target); err != nil {
		return nil, errors.Wrap(err, "update order status")
	}
	o.Status = target
	return o, nil
}
