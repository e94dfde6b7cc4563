package handler

import (
	"net/http"
	"time"
)

type monthlyIncomeResponse struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
	Orders int     `json:"orders"`
}

type incomeTotalsResponse struct {
	Amount float64 `json:"amount"`
	Orders int     `json:"orders"`
}

// MonthlyIncome returns per-month income over the trailing year (admin).
// An optional ?ref=YYYY-MM-DD pins the reference date for reproducible
// dashboards; it defaults to now.
func (h *Handler) MonthlyIncome(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.reports.MonthlyIncome(r.Context(), refDate(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]monthlyIncomeResponse, len(buckets))
	for i, b := range buckets {
		out[i] = monthlyIncomeResponse{
			Month:  b.Month,
			Amount: b.Amount.InexactFloat64(),
			Orders: b.Orders,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// YearlyIncome returns total income and order count over the trailing
// year (admin).
func (h *Handler) YearlyIncome(w http.ResponseWriter, r *http.Request) {
	totals, err := h.reports.YearlyTotals(r.Context(), refDate(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, incomeTotalsResponse{
		Amount: totals.Amount.InexactFloat64(),
		Orders: totals.Orders,
	})
}

func refDate(r *http.Request) time.Time {
	if raw := r.URL.Query().Get("ref"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			return t
		}
	}
	return time.Now()
}
