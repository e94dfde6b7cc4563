package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evermart/storefront/internal/domain/order"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	gotFrom time.Time
	gotTo   time.Time
	monthly []order.MonthlyIncome
	totals  order.IncomeTotals
}

func (m *mockOrderRepo) Create(_ context.Context, _ *order.Order) error { return nil }
func (m *mockOrderRepo) GetByID(_ context.Context, _ string) (*order.Order, error) {
	return nil, order.ErrNotFound
}
func (m *mockOrderRepo) ListByUser(_ context.Context, _ string) ([]order.Order, error) {
	return nil, nil
}
func (m *mockOrderRepo) ListAll(_ context.Context) ([]order.Order, error) { return nil, nil }
func (m *mockOrderRepo) UpdateStatus(_ context.Context, _ string, _ order.Status) error {
	return nil
}

func (m *mockOrderRepo) IncomeByMonth(_ context.Context, from, to time.Time) ([]order.MonthlyIncome, error) {
	m.gotFrom, m.gotTo = from, to
	return m.monthly, nil
}

func (m *mockOrderRepo) IncomeTotals(_ context.Context, from, to time.Time) (order.IncomeTotals, error) {
	m.gotFrom, m.gotTo = from, to
	return m.totals, nil
}

// --- Tests ---

func TestWindow_TrailingTwelveMonths(t *testing.T) {
	ref := time.Date(2026, time.August, 29, 15, 30, 0, 0, time.UTC)

	from, to := window(ref)

	assert.Equal(t, time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, ref, to)
}

func TestWindow_MidMonthReference(t *testing.T) {
	// Reference inside January: window starts the previous February 1st.
	ref := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)

	from, _ := window(ref)
	assert.Equal(t, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), from)
}

func TestMonthlyIncome_PassesWindowToRepository(t *testing.T) {
	repo := &mockOrderRepo{monthly: []order.MonthlyIncome{
		{Month: "2026-07", Amount: decimal.RequireFromString("1204.50"), Orders: 31},
		{Month: "2026-08", Amount: decimal.RequireFromString("987.00"), Orders: 24},
	}}
	svc := NewService(repo)

	ref := time.Date(2026, time.August, 29, 0, 0, 0, 0, time.UTC)
	got, err := svc.MonthlyIncome(context.Background(), ref)

	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), repo.gotFrom)
	assert.Equal(t, ref, repo.gotTo)
}

func TestYearlyTotals(t *testing.T) {
	repo := &mockOrderRepo{totals: order.IncomeTotals{
		Amount: decimal.RequireFromString("15230.75"),
		Orders: 412,
	}}
	svc := NewService(repo)

	got, err := svc.YearlyTotals(context.Background(), time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Equal(t, 412, got.Orders)
	assert.True(t, decimal.RequireFromString("15230.75").Equal(got.Amount))
}
