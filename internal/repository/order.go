package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evermart/storefront/internal/domain/order"
	"github.com/evermart/storefront/internal/domain/product"
)

const orderColumns = `id, user_id, shipping, payment_order_id, payment_id, coupon_name,
	total_price, total_price_after_discount, status, created_at, updated_at`

const (
	createOrderSQL = `INSERT INTO orders
		(id, user_id, shipping, payment_order_id, payment_id, coupon_name,
		 total_price, total_price_after_discount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	createOrderItemSQL = `INSERT INTO order_items (order_id, position, product_id, color, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)`

	// Conditional decrement: zero rows affected means the remaining stock
	// cannot cover the ordered quantity, and the whole transaction aborts.
	adjustStockSQL = `UPDATE products SET count = count - $2, sold = sold + $2, updated_at = now()
		WHERE id = $1 AND count >= $2`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC`

	listAllOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`

	updateOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`

	listOrderItemsSQL = `SELECT order_id, product_id, color, quantity, unit_price
		FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position`

	incomeByMonthSQL = `SELECT to_char(date_trunc('month', created_at), 'YYYY-MM') AS month,
			SUM(total_price_after_discount), COUNT(*)
		FROM orders
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY 1 ORDER BY 1`

	incomeTotalsSQL = `SELECT COALESCE(SUM(total_price_after_discount), 0), COUNT(*)
		FROM orders
		WHERE created_at >= $1 AND created_at <= $2`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order, its items, and the per-product stock
// adjustments in one transaction. A product whose stock cannot cover its
// ordered quantity aborts the transaction with
// product.InsufficientStockError; nothing is left behind.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	shippingJSON, err := json.Marshal(o.Shipping)
	if err != nil {
		return fmt.Errorf("marshaling shipping info: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin order tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, shippingJSON,
		o.Payment.GatewayOrderID, o.Payment.GatewayPaymentID, o.CouponName,
		o.TotalPrice, o.TotalPriceAfterDiscount, string(o.Status),
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	// A product may appear in several lines (different colors); its stock
	// must absorb the combined quantity.
	totals := make(map[string]int, len(o.Items))
	for i, item := range o.Items {
		if _, err := tx.Exec(ctx, createOrderItemSQL,
			o.ID, i, item.ProductID, item.Color, item.Quantity, item.UnitPrice,
		); err != nil {
			return fmt.Errorf("creating order item %d: %w", i, err)
		}
		totals[item.ProductID] += item.Quantity
	}

	for productID, qty := range totals {
		tag, err := tx.Exec(ctx, adjustStockSQL, productID, qty)
		if err != nil {
			return fmt.Errorf("adjusting stock for product %q: %w", productID, err)
		}
		if tag.RowsAffected() == 0 {
			return &product.InsufficientStockError{ProductID: productID}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order tx: %w", err)
	}
	return nil
}

// GetByID returns a single order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	if err := r.attachItems(ctx, []*order.Order{&o}); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUser returns the user's orders, newest first, with items attached.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return r.collectWithItems(ctx, rows)
}

// ListAll returns every order, newest first, with items attached.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listAllOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return r.collectWithItems(ctx, rows)
}

// UpdateStatus sets the status of an existing order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("updating status of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// IncomeByMonth aggregates order income per calendar month in [from, to].
func (r *OrderRepository) IncomeByMonth(ctx context.Context, from, to time.Time) ([]order.MonthlyIncome, error) {
	rows, err := r.pool.Query(ctx, incomeByMonthSQL, from, to)
	if err != nil {
		return nil, fmt.Errorf("aggregating monthly income: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.MonthlyIncome, error) {
		var m order.MonthlyIncome
		err := row.Scan(&m.Month, &m.Amount, &m.Orders)
		return m, err
	})
}

// IncomeTotals aggregates total order income and count in [from, to].
func (r *OrderRepository) IncomeTotals(ctx context.Context, from, to time.Time) (order.IncomeTotals, error) {
	var t order.IncomeTotals
	err := r.pool.QueryRow(ctx, incomeTotalsSQL, from, to).Scan(&t.Amount, &t.Orders)
	if err != nil {
		return order.IncomeTotals{}, fmt.Errorf("aggregating income totals: %w", err)
	}
	return t, nil
}

func (r *OrderRepository) collectWithItems(ctx context.Context, rows pgx.Rows) ([]order.Order, error) {
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, err
	}

	refs := make([]*order.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := r.attachItems(ctx, refs); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the items for all given orders in a single query.
func (r *OrderRepository) attachItems(ctx context.Context, orders []*order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	byID := make(map[string]*order.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	rows, err := r.pool.Query(ctx, listOrderItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("loading order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			item    order.Item
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.Color, &item.Quantity, &item.UnitPrice); err != nil {
			return fmt.Errorf("scanning order item: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o            order.Order
		shippingJSON []byte
		status       string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &shippingJSON,
		&o.Payment.GatewayOrderID, &o.Payment.GatewayPaymentID, &o.CouponName,
		&o.TotalPrice, &o.TotalPriceAfterDiscount, &status,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(shippingJSON, &o.Shipping); err != nil {
		return o, fmt.Errorf("unmarshaling shipping info: %w", err)
	}
	o.Status = order.Status(status)
	return o, nil
}
