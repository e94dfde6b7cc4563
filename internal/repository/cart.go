package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evermart/storefront/internal/domain/cart"
)

const cartColumns = `id, user_id, product_id, color, quantity, unit_price, created_at, updated_at`

const (
	listCartSQL = `SELECT ` + cartColumns + ` FROM cart_lines
		WHERE user_id = $1 ORDER BY created_at`

	// The unique (user_id, product_id, color) index turns repeated adds of
	// the same product into a quantity merge. The unit price snapshot is
	// refreshed so the line reflects the latest add.
	upsertCartLineSQL = `INSERT INTO cart_lines (id, user_id, product_id, color, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, product_id, color)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity,
			unit_price = EXCLUDED.unit_price,
			updated_at = now()
		RETURNING ` + cartColumns

	updateQuantitySQL = `UPDATE cart_lines SET quantity = $3, updated_at = now()
		WHERE user_id = $1 AND id = $2
		RETURNING ` + cartColumns

	deleteCartLineSQL = `DELETE FROM cart_lines WHERE user_id = $1 AND id = $2`

	clearCartSQL = `DELETE FROM cart_lines WHERE user_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// ListByUser returns the user's cart lines in insertion order.
func (r *CartRepository) ListByUser(ctx context.Context, userID string) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, listCartSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanCartLine)
}

// Upsert inserts the line or, when a line for the same
// (user, product, color) exists, merges quantities into it. The stored row
// is written back into line.
func (r *CartRepository) Upsert(ctx context.Context, line *cart.Line) error {
	rows, err := r.pool.Query(ctx, upsertCartLineSQL,
		line.ID, line.UserID, line.ProductID, line.Color, line.Quantity, line.UnitPrice,
	)
	if err != nil {
		return fmt.Errorf("upserting cart line: %w", err)
	}

	stored, err := pgx.CollectExactlyOneRow(rows, scanCartLine)
	if err != nil {
		return fmt.Errorf("upserting cart line: %w", err)
	}
	*line = stored
	return nil
}

// UpdateQuantity sets the quantity of a line owned by the user.
func (r *CartRepository) UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) (*cart.Line, error) {
	rows, err := r.pool.Query(ctx, updateQuantitySQL, userID, lineID, quantity)
	if err != nil {
		return nil, fmt.Errorf("updating cart line %q: %w", lineID, err)
	}

	line, err := pgx.CollectExactlyOneRow(rows, scanCartLine)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrLineNotFound
		}
		return nil, fmt.Errorf("updating cart line %q: %w", lineID, err)
	}
	return &line, nil
}

// DeleteLine removes one line from the user's cart.
func (r *CartRepository) DeleteLine(ctx context.Context, userID, lineID string) error {
	tag, err := r.pool.Exec(ctx, deleteCartLineSQL, userID, lineID)
	if err != nil {
		return fmt.Errorf("deleting cart line %q: %w", lineID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

// Clear removes every line from the user's cart.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, clearCartSQL, userID)
	if err != nil {
		return fmt.Errorf("clearing cart for user %q: %w", userID, err)
	}
	return nil
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var l cart.Line
	err := row.Scan(
		&l.ID, &l.UserID, &l.ProductID, &l.Color,
		&l.Quantity, &l.UnitPrice, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}
