package product

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// InsufficientStockError indicates a requested quantity exceeds the
// available stock for a product.
type InsufficientStockError struct {
	ProductID string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s", e.ProductID)
}

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Title       string
	Slug        string
	Description string
	Price       decimal.Decimal
	Category    string
	Brand       string
	Color       string
	Count       int
	Sold        int
	TotalRating int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Rating is one user's review of a product. Each user keeps at most one
// rating per product; re-rating overwrites the previous entry.
type Rating struct {
	PostedBy string
	Star     int
	Comment  string
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	// SetRating upserts one rating per (product, user) and returns the
	// recomputed rounded average star value.
	SetRating(ctx context.Context, productID string, r Rating) (avg int, err error)
}
