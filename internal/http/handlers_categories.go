package http

import (
	"fmt"
	"net/http"

	"bilancio/internal/core"
)

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		unauthorized(w, r, err)
		return
	}
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c := core.Category{
		OwnerID:     owner,
		Name:        req.Name,
		Kind:        core.Flow(req.Kind),
		Description: req.Description,
	}
	created, err := s.ledger.CreateCategory(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(created))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		unauthorized(w, r, err)
		return
	}
	kind := core.Flow(r.URL.Query().Get("kind"))
	if kind != "" && !kind.Valid() {
		writeError(w, r, fmt.Errorf("%w: unknown category kind %q", core.ErrValidation, kind))
		return
	}
	categories, err := s.ledger.ListCategories(r.Context(), owner, kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]categoryResponse, len(categories))
	for i, c := range categories {
		out[i] = toCategoryResponse(c)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleRenameCategory updates name and description. Kind is immutable:
// flipping an income category to expense would silently invert every
// posting recorded under it.
func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
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
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c := core.Category{
		ID:          id,
		OwnerID:     owner,
		Name:        req.Name,
		Kind:        core.Flow(req.Kind),
		Description: req.Description,
	}
	if err := s.ledger.RenameCategory(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.ledger.GetCategory(r.Context(), owner, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(updated))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
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
	if err := s.ledger.DeleteCategory(r.Context(), owner, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
