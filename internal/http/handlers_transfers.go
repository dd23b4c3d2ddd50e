package http

import (
	"fmt"
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

func transferInputFromRequest(req transferRequest) (services.TransferInput, error) {
	cents, err := core.ParseCents(req.Amount)
	if err != nil {
		return services.TransferInput{}, fmt.Errorf("amount: %w", err)
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return services.TransferInput{}, fmt.Errorf("date: %w", err)
	}
	return services.TransferInput{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        core.Money{Cents: cents},
		Date:          date,
		Description:   req.Description,
	}, nil
}

func (s *Server) handlePostTransfer(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		unauthorized(w, r, err)
		return
	}
	var req transferRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := transferInputFromRequest(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.ledger.PostTransfer(r.Context(), owner, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransferResponse(created))
}

func (s *Server) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		unauthorized(w, r, err)
		return
	}
	year := queryInt(r, "year", 0)
	month := queryInt(r, "month", 0)

	transfers, err := s.ledger.ListTransfers(r.Context(), owner, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]transferResponse, len(transfers))
	for i, tr := range transfers {
		out[i] = toTransferResponse(tr)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateTransfer(w http.ResponseWriter, r *http.Request) {
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
	var req transferRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := transferInputFromRequest(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.ledger.UpdateTransfer(r.Context(), owner, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransferResponse(updated))
}

func (s *Server) handleDeleteTransfer(w http.ResponseWriter, r *http.Request) {
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
	if err := s.ledger.DeleteTransfer(r.Context(), owner, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
