package http

import (
	"fmt"
	"net/http"
	"time"

	"bilancio/internal/core"
)

// handleMonthlyReport returns the monthly summary. Month and year
// default to the current calendar month.
func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		unauthorized(w, r, err)
		return
	}
	now := time.Now()
	month := queryInt(r, "month", int(now.Month()))
	year := queryInt(r, "year", now.Year())

	summary, err := s.reports.MonthlySummary(r.Context(), owner, month, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthlySummaryResponse(summary))
}

func (s *Server) handleAnnualReport(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		unauthorized(w, r, err)
		return
	}
	year := queryInt(r, "year", time.Now().Year())

	summary, err := s.reports.AnnualSummary(r.Context(), owner, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnnualSummaryResponse(summary))
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		unauthorized(w, r, err)
		return
	}
	categoryID := queryInt64(r, "category_id")
	if categoryID <= 0 {
		writeError(w, r, fmt.Errorf("%w: category_id query parameter is required", core.ErrValidation))
		return
	}
	now := time.Now()
	month := queryInt(r, "month", int(now.Month()))
	year := queryInt(r, "year", now.Year())

	status, err := s.reports.BudgetStatus(r.Context(), owner, categoryID, month, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetStatusResponse(status))
}
