package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"

	"gymtrack/internal/store"
)

const (
	exercisesDefaultLimit = 50
	exercisesMaxLimit     = 200
	exerciseNotFound      = "Exercise not found"
)

var versionSegment = regexp.MustCompile(`^v\d+$`)

// cloudinaryPublicID extracts the asset public id from a res.cloudinary.com
// delivery URL. The version segment and a leading transformation segment are
// skipped and the file extension dropped. Other URLs yield "".
func cloudinaryPublicID(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || !strings.Contains(parsed.Hostname(), "res.cloudinary.com") {
		return ""
	}
	var parts []string
	for part := range strings.SplitSeq(parsed.Path, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	idx := -1
	for i, part := range parts {
		if part == "upload" {
			idx = i
			break
		}
	}
	if idx == -1 || idx+1 >= len(parts) {
		return ""
	}
	rest := parts[idx+1:]
	if versionSegment.MatchString(rest[0]) {
		rest = rest[1:]
	}
	if len(rest) > 0 && strings.Contains(rest[0], ",") {
		rest = rest[1:]
	}
	joined := strings.Join(rest, "/")
	return strings.TrimSuffix(joined, path.Ext(joined))
}

func normalizeExercise(ex *store.Exercise) {
	if ex.ImagePublicID == "" && ex.Image != "" {
		ex.ImagePublicID = cloudinaryPublicID(ex.Image)
	}
}

// imageFields reports which image keys a payload carries.
type imageFields struct {
	Image    *string `json:"image"`
	PublicID *string `json:"imagePublicId"`
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r, exercisesDefaultLimit, exercisesMaxLimit)
	items, err := s.store.ListExercises(r.Context(), (page-1)*limit, limit)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeList(s, w, r, page, limit, items)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	ex, err := s.store.GetExercise(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, r, err, exerciseNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, ex)
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var ex store.Exercise
	altID, ok := s.decodeDocument(w, body, &ex)
	if !ok {
		return
	}
	if ex.ID == "" {
		ex.ID = altID
	}
	normalizeExercise(&ex)
	created, err := s.store.CreateExercise(r.Context(), &ex)
	if err != nil {
		s.storeError(w, r, err, exerciseNotFound)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	existing, err := s.store.GetExercise(r.Context(), id)
	if err != nil {
		s.storeError(w, r, err, exerciseNotFound)
		return
	}
	if _, ok := s.decodeDocument(w, body, existing); !ok {
		return
	}
	var sent imageFields
	_ = json.Unmarshal(body, &sent)
	if sent.Image != nil && sent.PublicID == nil {
		// A new image URL without an explicit public id replaces the old one.
		existing.ImagePublicID = ""
	}
	existing.ID = id
	normalizeExercise(existing)
	updated, err := s.store.UpdateExercise(r.Context(), existing)
	if err != nil {
		s.storeError(w, r, err, exerciseNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteExercise(r.Context(), r.PathValue("id")); err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, okResponse)
}
