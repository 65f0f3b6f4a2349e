package api

import (
	"net/http"

	"gymtrack/internal/store"
)

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListSessions(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var sess store.Session
	if _, ok := s.decodeDocument(w, body, &sess); !ok {
		return
	}
	created, err := s.store.CreateSession(r.Context(), &sess)
	if err != nil {
		s.storeError(w, r, err, recordNotFound)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, okResponse)
}
