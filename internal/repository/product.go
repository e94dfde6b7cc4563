package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evermart/storefront/internal/domain/product"
)

const productColumns = `id, title, slug, description, price, category, brand, color,
	count, sold, total_rating, created_at, updated_at`

const (
	getProductByIDSQL  = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	getProductsByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	createProductSQL = `INSERT INTO products
		(id, title, slug, description, price, category, brand, color, count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateProductSQL = `UPDATE products SET title = $2, slug = $3, description = $4,
		price = $5, category = $6, brand = $7, color = $8, count = $9, updated_at = now()
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	upsertRatingSQL = `INSERT INTO product_ratings (product_id, posted_by, star, comment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, posted_by)
		DO UPDATE SET star = EXCLUDED.star, comment = EXCLUDED.comment`

	refreshRatingSQL = `UPDATE products SET total_rating = (
			SELECT COALESCE(ROUND(AVG(star)), 0) FROM product_ratings WHERE product_id = $1
		), updated_at = now()
		WHERE id = $1
		RETURNING total_rating`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns catalog products matching the allow-listed filter, sorted
// and paginated as requested.
func (r *ProductRepository) List(ctx context.Context, filter product.ListFilter) ([]product.Product, error) {
	where, orderBy, args, err := filter.BuildSQL()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM products %s %s LIMIT $%d OFFSET $%d",
		productColumns, where, orderBy, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Create inserts a new catalog product.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, createProductSQL,
		p.ID, p.Title, p.Slug, p.Description, p.Price,
		p.Category, p.Brand, p.Color, p.Count,
	)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

// Update rewrites the editable fields of an existing product.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Title, p.Slug, p.Description, p.Price,
		p.Category, p.Brand, p.Color, p.Count,
	)
	if err != nil {
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product from the catalog. Orders keep referencing the
// product by id only, so existing order snapshots are unaffected.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// SetRating upserts the user's rating and refreshes the product's rounded
// average in one transaction.
func (r *ProductRepository) SetRating(ctx context.Context, productID string, rating product.Rating) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin rating tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, upsertRatingSQL, productID, rating.PostedBy, rating.Star, rating.Comment); err != nil {
		// FK violation means the product is gone.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return 0, product.ErrNotFound
		}
		return 0, fmt.Errorf("upserting rating for product %q: %w", productID, err)
	}

	var avg int
	if err := tx.QueryRow(ctx, refreshRatingSQL, productID).Scan(&avg); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, product.ErrNotFound
		}
		return 0, fmt.Errorf("refreshing rating for product %q: %w", productID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit rating tx: %w", err)
	}
	return avg, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Description, &p.Price,
		&p.Category, &p.Brand, &p.Color,
		&p.Count, &p.Sold, &p.TotalRating,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
