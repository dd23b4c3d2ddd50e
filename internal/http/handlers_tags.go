package http

import (
	"net/http"

	"bilancio/internal/core"
)

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		unauthorized(w, r, err)
		return
	}
	var req tagRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.ledger.CreateTag(r.Context(), core.Tag{OwnerID: owner, Name: req.Name})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTagResponse(created))
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		unauthorized(w, r, err)
		return
	}
	tags, err := s.ledger.ListTags(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]tagResponse, len(tags))
	for i, g := range tags {
		out[i] = toTagResponse(g)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRenameTag(w http.ResponseWriter, r *http.Request) {
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
	var req tagRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g := core.Tag{ID: id, OwnerID: owner, Name: req.Name}
	if err := s.ledger.RenameTag(r.Context(), g); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTagResponse(g))
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
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
	if err := s.ledger.DeleteTag(r.Context(), owner, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
