// Package report aggregates persisted orders into income dashboards.
// It is strictly read-side: no mutation of order state.
package report

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/evermart/storefront/internal/domain/order"
)

// Service computes income reports over a trailing window of orders.
type Service struct {
	orders order.Repository
}

// NewService creates a reporting Service reading from the order repository.
func NewService(orders order.Repository) *Service {
	return &Service{orders: orders}
}

// window returns the reporting range ending at ref: from the first day of
// the month 11 months earlier, so the range spans 12 calendar months
// including the reference month.
func window(ref time.Time) (from, to time.Time) {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	return first.AddDate(0, -11, 0), ref
}

// MonthlyIncome returns per-month totals of order income (sum of
// totalPriceAfterDiscount) within the trailing 12-month window ending at
// ref. Months with no orders are omitted.
func (s *Service) MonthlyIncome(ctx context.Context, ref time.Time) ([]order.MonthlyIncome, error) {
	from, to := window(ref)
	buckets, err := s.orders.IncomeByMonth(ctx, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "income by month")
	}
	return buckets, nil
}

// YearlyTotals returns the total income and order count over the trailing
// 12-month window ending at ref.
func (s *Service) YearlyTotals(ctx context.Context, ref time.Time) (order.IncomeTotals, error) {
	from, to := window(ref)
	totals, err := s.orders.IncomeTotals(ctx, from, to)
	if err != nil {
		return order.IncomeTotals{}, errors.Wrap(err, "income totals")
	}
	return totals, nil
}
