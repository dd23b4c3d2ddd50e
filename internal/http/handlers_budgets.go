package http

import (
	"fmt"
	"net/http"

	"bilancio/internal/core"
)

func budgetFromRequest(owner int64, req budgetRequest) (core.Budget, error) {
	cents, err := core.ParseCents(req.Limit)
	if err != nil {
		return core.Budget{}, fmt.Errorf("limit: %w", err)
	}
	return core.Budget{
		OwnerID:    owner,
		CategoryID: req.CategoryID,
		Month:      req.Month,
		Year:       req.Year,
		Limit:      core.Money{Cents: cents},
	}, nil
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		unauthorized(w, r, err)
		return
	}
	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := budgetFromRequest(owner, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.ledger.CreateBudget(r.Context(), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetResponse(created))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		unauthorized(w, r, err)
		return
	}
	month := queryInt(r, "month", 0)
	year := queryInt(r, "year", 0)

	budgets, err := s.ledger.ListBudgets(r.Context(), owner, month, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]budgetResponse, len(budgets))
	for i, b := range budgets {
		out[i] = toBudgetResponse(b)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCopyBudgets carries the previous month's budgets over into the
// requested month. Categories already budgeted there are skipped; only
// the newly created rows come back.
func (s *Server) handleCopyBudgets(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		unauthorized(w, r, err)
		return
	}
	var req budgetCopyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.ledger.CopyBudgets(r.Context(), owner, req.Month, req.Year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]budgetResponse, len(created))
	for i, b := range created {
		out[i] = toBudgetResponse(b)
	}
	writeJSON(w, http.StatusCreated, out)
}

// handleUpdateBudget changes the limit only. Moving a budget to another
// category or month is a delete plus create.
func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		unauthorized(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cents, err := core.ParseCents(req.Limit)
	if err != nil {
		writeError(w, r, fmt.Errorf("limit: %w", err))
		return
	}
	existing, err := s.ledger.GetBudget(r.Context(), owner, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	existing.Limit = core.Money{Cents: cents}
	if err := s.ledger.UpdateBudget(r.Context(), existing); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(existing))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		unauthorized(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteBudget(r.Context(), owner, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
