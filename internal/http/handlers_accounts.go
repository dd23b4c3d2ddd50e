package http

import (
	"fmt"
	"net/http"

	"bilancio/internal/core"
)

func accountFromRequest(owner int64, req accountRequest) (core.Account, error) {
	a := core.Account{
		OwnerID:  owner,
		Name:     req.Name,
		Kind:     core.AccountKind(req.Kind),
		BankName: req.BankName,
	}
	if req.OpeningBalance != "" {
		cents, err := core.ParseSignedCents(req.OpeningBalance)
		if err != nil {
			return core.Account{}, fmt.Errorf("opening balance: %w", err)
		}
		a.Opening = core.Money{Cents: cents}
	}
	if req.SetupDate != "" {
		d, err := core.ParseDate(req.SetupDate)
		if err != nil {
			return core.Account{}, fmt.Errorf("setup date: %w", err)
		}
		a.SetupDate = d
	}
	return a, nil
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		unauthorized(w, r, err)
		return
	}
	var req accountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := accountFromRequest(owner, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.ledger.CreateAccount(r.Context(), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(created))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		unauthorized(w, r, err)
		return
	}
	accounts, err := s.ledger.ListAccounts(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]accountResponse, len(accounts))
	for i, a := range accounts {
		out[i] = toAccountResponse(a)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
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
	a, err := s.ledger.GetAccount(r.Context(), owner, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(a))
}

// handleUpdateAccount changes an account's descriptive fields. The
// opening balance is fixed at creation; postings are the only way to
// move the balance afterwards.
func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
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
	var req accountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a := core.Account{
		ID:       id,
		OwnerID:  owner,
		Name:     req.Name,
		Kind:     core.AccountKind(req.Kind),
		BankName: req.BankName,
	}
	if err := s.ledger.UpdateAccount(r.Context(), a); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.ledger.GetAccount(r.Context(), owner, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(updated))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
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
	if err := s.ledger.DeleteAccount(r.Context(), owner, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
