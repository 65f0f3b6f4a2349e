package api

import (
	"errors"
	"net/http"
	"strings"

	"gymtrack/internal/services"
	"gymtrack/internal/store"
)

const defaultUserID = "default"

func (s *Server) handleGetPreference(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		userID = defaultUserID
	}
	pref, err := s.store.GetPreference(r.Context(), userID)
	if errors.Is(err, services.ErrNotFound) {
		s.writeJSON(w, http.StatusOK, map[string]string{"userId": userID, "branch": store.BranchGeneral})
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pref)
}

func (s *Server) handleUpsertPreference(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var payload struct {
		UserID string `json:"userId"`
		Branch string `json:"branch"`
	}
	if _, ok := s.decodeDocument(w, body, &payload); !ok {
		return
	}
	if strings.TrimSpace(payload.UserID) == "" {
		payload.UserID = defaultUserID
	}
	pref, err := s.store.UpsertPreference(r.Context(), payload.UserID, payload.Branch)
	if err != nil {
		s.storeError(w, r, err, recordNotFound)
		return
	}
	s.writeJSON(w, http.StatusCreated, pref)
}
