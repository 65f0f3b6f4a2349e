package api

import (
	"net/http"

	"gymtrack/internal/store"
)

const recordNotFound = "Not found"

func (s *Server) handleListRoutines(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListRoutines(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateRoutine(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var routine store.Routine
	altID, ok := s.decodeDocument(w, body, &routine)
	if !ok {
		return
	}
	if routine.ID == "" {
		routine.ID = altID
	}
	created, err := s.store.CreateRoutine(r.Context(), &routine)
	if err != nil {
		s.storeError(w, r, err, recordNotFound)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateRoutine(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	existing, err := s.store.GetRoutine(r.Context(), id)
	if err != nil {
		s.storeError(w, r, err, recordNotFound)
		return
	}
	if _, ok := s.decodeDocument(w, body, existing); !ok {
		return
	}
	existing.ID = id
	updated, err := s.store.UpdateRoutine(r.Context(), existing)
	if err != nil {
		s.storeError(w, r, err, recordNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteRoutine(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRoutine(r.Context(), r.PathValue("id")); err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, okResponse)
}
