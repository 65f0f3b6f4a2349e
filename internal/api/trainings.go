package api

import (
	"net/http"
	"strings"

	"gymtrack/internal/store"
)

const (
	trainingsDefaultLimit = 2000
	trainingsMaxLimit     = 5000
	dateLayout            = "2006-01-02"
)

// calendarDate keeps the YYYY-MM-DD prefix of a date or timestamp string.
func calendarDate(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > len(dateLayout) {
		return value[:len(dateLayout)]
	}
	return value
}

func (s *Server) handleListTrainings(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r, trainingsDefaultLimit, trainingsMaxLimit)
	query := r.URL.Query()
	items, err := s.store.ListTrainings(r.Context(), store.TrainingFilter{
		From:      strings.TrimSpace(query.Get("from")),
		To:        strings.TrimSpace(query.Get("to")),
		RoutineID: strings.TrimSpace(query.Get("routineId")),
		Offset:    (page - 1) * limit,
		Limit:     limit,
	})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeList(s, w, r, page, limit, items)
}

func (s *Server) handleGetTraining(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTraining(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, r, err, recordNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCreateTraining(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var t store.Training
	altID, ok := s.decodeDocument(w, body, &t)
	if !ok {
		return
	}
	if altID != "" {
		t.ID = altID
	}
	t.Date = calendarDate(t.Date)
	if t.Date == "" {
		t.Date = s.now().Format(dateLayout)
	}
	created, err := s.store.CreateTraining(r.Context(), &t)
	if err != nil {
		s.storeError(w, r, err, recordNotFound)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTraining(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	existing, err := s.store.GetTraining(r.Context(), id)
	if err != nil {
		s.storeError(w, r, err, recordNotFound)
		return
	}
	previousDate := existing.Date
	if _, ok := s.decodeDocument(w, body, existing); !ok {
		return
	}
	existing.ID = id
	if existing.Date = calendarDate(existing.Date); existing.Date == "" {
		existing.Date = previousDate
	}
	updated, err := s.store.UpdateTraining(r.Context(), existing)
	if err != nil {
		s.storeError(w, r, err, recordNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTraining(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTraining(r.Context(), r.PathValue("id")); err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, okResponse)
}
