package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"gymtrack/internal/logging"
	"gymtrack/internal/services"
)

var okResponse = map[string]bool{"ok": true}

// listMeta wraps a page of results when the client asks for meta=true.
type listMeta[T any] struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Count int `json:"count"`
	Items []T `json:"items"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logging.WithContext(r.Context(), s.logger).Error("request failed",
		logging.String("method", r.Method),
		logging.String("path", r.URL.Path),
		logging.Error(err),
	)
	s.writeError(w, http.StatusInternalServerError, "Internal Server Error")
}

// storeError answers err according to its marker. notFound is the message
// sent for missing records.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch status := services.HTTPStatus(err); status {
	case http.StatusNotFound:
		s.writeError(w, status, notFound)
	case http.StatusBadRequest, http.StatusConflict:
		s.writeError(w, status, err.Error())
	default:
		s.internalError(w, r, err)
	}
}

// readBody reads the request body. Oversized or malformed bodies are answered
// here and reported as ok=false.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return nil, false
		}
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []byte("{}"), true
	}
	return data, true
}

// decodeDocument unmarshals body onto dst and returns the optional "id" key
// clients may send instead of "_id".
func (s *Server) decodeDocument(w http.ResponseWriter, body []byte, dst any) (string, bool) {
	if err := json.Unmarshal(body, dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return "", false
	}
	var alias struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &alias)
	return strings.TrimSpace(alias.ID), true
}

// pageParams parses page and limit query values, clamping limit to [1, max].
func pageParams(r *http.Request, defaultLimit, maxLimit int) (page, limit int) {
	query := r.URL.Query()
	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(query.Get("limit"))
	if err != nil || limit == 0 {
		limit = defaultLimit
	}
	limit = min(max(limit, 1), maxLimit)
	return page, limit
}

func wantsMeta(r *http.Request) bool {
	return r.URL.Query().Get("meta") == "true"
}

func writeList[T any](s *Server, w http.ResponseWriter, r *http.Request, page, limit int, items []T) {
	if items == nil {
		items = []T{}
	}
	if wantsMeta(r) {
		s.writeJSON(w, http.StatusOK, listMeta[T]{Page: page, Limit: limit, Count: len(items), Items: items})
		return
	}
	s.writeJSON(w, http.StatusOK, items)
}
