package http

import (
	"fmt"
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

func postingInputFromRequest(req postingRequest) (services.PostingInput, error) {
	cents, err := core.ParseCents(req.Amount)
	if err != nil {
		return services.PostingInput{}, fmt.Errorf("amount: %w", err)
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return services.PostingInput{}, fmt.Errorf("date: %w", err)
	}
	return services.PostingInput{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Description: req.Description,
		TagIDs:      req.TagIDs,
	}, nil
}

func (s *Server) handlePostIncome(w http.ResponseWriter, r *http.Request) {
	s.handlePostTransaction(w, r, core.Income)
}

func (s *Server) handlePostExpense(w http.ResponseWriter, r *http.Request) {
	s.handlePostTransaction(w, r, core.Expense)
}

func (s *Server) handlePostTransaction(w http.ResponseWriter, r *http.Request, kind core.Flow) {
	owner, err := ownerID(r)
	if err != nil {
		unauthorized(w, r, err)
		return
	}
	var req postingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := postingInputFromRequest(req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var created core.Transaction
	if kind == core.Income {
		created, err = s.ledger.PostIncome(r.Context(), owner, in)
	} else {
		created, err = s.ledger.PostExpense(r.Context(), owner, in)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		unauthorized(w, r, err)
		return
	}
	kind := core.Flow(r.URL.Query().Get("kind"))
	if kind != "" && !kind.Valid() {
		writeError(w, r, fmt.Errorf("%w: unknown transaction kind %q", core.ErrValidation, kind))
		return
	}
	year := queryInt(r, "year", 0)
	month := queryInt(r, "month", 0)
	tagID := queryInt64(r, "tag_id")

	transactions, err := s.ledger.ListTransactions(r.Context(), owner, kind, year, month, tagID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]transactionResponse, len(transactions))
	for i, t := range transactions {
		out[i] = toTransactionResponse(t)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleUpdateTransaction replaces every field of a posting, including
// its kind. The affected balances shift as if the old posting never
// happened and the new one always had.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
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
	var req transactionUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	kind := core.Flow(req.Kind)
	if !kind.Valid() {
		writeError(w, r, fmt.Errorf("%w: unknown transaction kind %q", core.ErrValidation, req.Kind))
		return
	}
	in, err := postingInputFromRequest(req.postingRequest)
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.ledger.UpdateTransaction(r.Context(), owner, id, kind, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
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
	if err := s.ledger.DeleteTransaction(r.Context(), owner, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
