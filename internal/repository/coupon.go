package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evermart/storefront/internal/domain/coupon"
)

const (
	getCouponByNameSQL = `SELECT name, discount, expiry, created_at, updated_at
		FROM coupons WHERE name = $1`

	listCouponsSQL = `SELECT name, discount, expiry, created_at, updated_at
		FROM coupons ORDER BY name`

	createCouponSQL = `INSERT INTO coupons (name, discount, expiry) VALUES ($1, $2, $3)`

	updateCouponSQL = `UPDATE coupons SET discount = $2, expiry = $3, updated_at = now()
		WHERE name = $1`

	deleteCouponSQL = `DELETE FROM coupons WHERE name = $1`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByName looks up a coupon by its exact, case-sensitive name.
// Returns coupon.ErrInvalidCoupon when no such coupon exists.
func (r *CouponRepository) FindByName(ctx context.Context, name string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByNameSQL, name)
	if err != nil {
		return nil, fmt.Errorf("finding coupon %q: %w", name, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrInvalidCoupon
		}
		return nil, fmt.Errorf("finding coupon %q: %w", name, err)
	}
	return &c, nil
}

// List returns every coupon ordered by name.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// Create inserts a new coupon.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, createCouponSQL, c.Name, c.Discount, c.Expiry)
	if err != nil {
		return fmt.Errorf("creating coupon %q: %w", c.Name, err)
	}
	return nil
}

// Update rewrites the discount and expiry of an existing coupon.
func (r *CouponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	tag, err := r.pool.Exec(ctx, updateCouponSQL, c.Name, c.Discount, c.Expiry)
	if err != nil {
		return fmt.Errorf("updating coupon %q: %w", c.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrInvalidCoupon
	}
	return nil
}

// Delete removes a coupon by name.
func (r *CouponRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, deleteCouponSQL, name)
	if err != nil {
		return fmt.Errorf("deleting coupon %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrInvalidCoupon
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var c coupon.Coupon
	err := row.Scan(&c.Name, &c.Discount, &c.Expiry, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
