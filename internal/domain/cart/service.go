package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/evermart/storefront/internal/domain/product"
)

// AddRequest holds the input for adding a product to a cart.
type AddRequest struct {
	UserID    string
	ProductID string
	Color     string
	Quantity  int
}

// Service owns cart mutations. It snapshots the current product price onto
// new lines and delegates merge semantics to the repository upsert.
type Service struct {
	lines    Repository
	products product.Repository
}

// NewService creates a cart Service.
func NewService(lines Repository, products product.Repository) *Service {
	return &Service{lines: lines, products: products}
}

// Add places a product into the user's cart. Adding the same
// (product, color) again merges quantities rather than creating a second
// line. The product's current price is snapshotted onto the line.
func (s *Service) Add(ctx context.Context, req AddRequest) (*Line, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}

	line := &Line{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		ProductID: req.ProductID,
		Color:     req.Color,
		Quantity:  req.Quantity,
		UnitPrice: p.Price,
	}
	if err := s.lines.Upsert(ctx, line); err != nil {
		return nil, errors.Wrap(err, "upsert cart line")
	}
	return line, nil
}

// Get returns all lines in the user's cart.
func (s *Service) Get(ctx context.Context, userID string) ([]Line, error) {
	return s.lines.ListByUser(ctx, userID)
}

// UpdateQuantity sets the quantity of an existing line owned by the user.
func (s *Service) UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) (*Line, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	return s.lines.UpdateQuantity(ctx, userID, lineID, quantity)
}

// Remove deletes a single line from the user's cart.
func (s *Service) Remove(ctx context.Context, userID, lineID string) error {
	return s.lines.DeleteLine(ctx, userID, lineID)
}

// Clear removes every line from the user's cart.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.lines.Clear(ctx, userID)
}
