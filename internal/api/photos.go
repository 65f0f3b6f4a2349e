package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"gymtrack/internal/cloudinary"
	"gymtrack/internal/fileutil"
	"gymtrack/internal/logging"
	"gymtrack/internal/store"
	"gymtrack/internal/textutil"
)

const (
	maxUploadBytes      = 25 << 20
	multipartMemory     = 8 << 20
	uploadTargetLocal   = "local"
	uploadTargetRemote  = "cloudinary"
	uploadsRoutePrefix  = "/uploads/"
	noFileUploadedError = "No file uploaded"
)

func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListPhotos(r.Context(), strings.TrimSpace(r.URL.Query().Get("type")))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreatePhoto(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var photo store.Photo
	if _, ok := s.decodeDocument(w, body, &photo); !ok {
		return
	}
	created, err := s.store.CreatePhoto(r.Context(), &photo)
	if err != nil {
		s.storeError(w, r, err, recordNotFound)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdatePhoto(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	existing, err := s.store.GetPhoto(r.Context(), id)
	if err != nil {
		s.storeError(w, r, err, recordNotFound)
		return
	}
	if _, ok := s.decodeDocument(w, body, existing); !ok {
		return
	}
	existing.ID = id
	updated, err := s.store.UpdatePhoto(r.Context(), existing)
	if err != nil {
		s.storeError(w, r, err, recordNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeletePhoto(r.Context(), r.PathValue("id")); err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, okResponse)
}

// handleUploadPhoto stores a multipart "file" under the uploads directory and
// records a photo pointing at it. When an uploader is configured the file is
// pushed to the photos folder and the local copy removed.
func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, noFileUploadedError)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, noFileUploadedError)
		return
	}
	defer file.Close()

	if err := os.MkdirAll(s.cfg.Storage.UploadsDir, 0o755); err != nil {
		s.internalError(w, r, fmt.Errorf("ensure uploads dir: %w", err))
		return
	}
	name := uploadFilename(s.now().UnixMilli(), header.Filename)
	localPath := filepath.Join(s.cfg.Storage.UploadsDir, name)
	if _, err := fileutil.SaveStream(localPath, file, maxUploadBytes); err != nil {
		if errors.Is(err, fileutil.ErrTooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		s.internalError(w, r, fmt.Errorf("save upload: %w", err))
		return
	}
	s.metrics.PhotoUpload(uploadTargetLocal, nil)

	photo := store.Photo{
		Date:      strings.TrimSpace(r.FormValue("date")),
		Label:     r.FormValue("label"),
		Type:      strings.TrimSpace(r.FormValue("type")),
		SessionID: optionalString(r.FormValue("sessionId")),
		OwnerID:   optionalString(r.FormValue("ownerId")),
		URL:       s.baseURL(r) + uploadsRoutePrefix + name,
	}
	if photo.Date == "" {
		photo.Date = s.now().UTC().Format(dateLayout)
	}
	if remote, ok := s.pushPhoto(r, localPath, name); ok {
		photo.URL = remote.SecureURL
		photo.PublicID = remote.PublicID
	}

	created, err := s.store.CreatePhoto(r.Context(), &photo)
	if err != nil {
		s.storeError(w, r, err, recordNotFound)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

// pushPhoto uploads the saved file to the asset store. Failures keep the
// local copy and are logged.
func (s *Server) pushPhoto(r *http.Request, localPath, name string) (cloudinary.UploadResult, bool) {
	if s.uploader == nil {
		return cloudinary.UploadResult{}, false
	}
	logger := logging.WithContext(r.Context(), s.logger)
	f, err := os.Open(localPath)
	if err != nil {
		logger.Warn("photo upload skipped", logging.String("file", name), logging.Error(err))
		return cloudinary.UploadResult{}, false
	}
	result, err := s.uploader.Upload(r.Context(), name, f, cloudinary.UploadOptions{
		Folder:         s.cfg.Cloudinary.PhotosFolder,
		Transformation: cloudinary.PhotoTransformation,
	})
	f.Close()
	s.metrics.PhotoUpload(uploadTargetRemote, err)
	if err != nil {
		logger.Warn("photo upload failed; keeping local copy",
			logging.String("file", name),
			logging.Error(err),
		)
		return cloudinary.UploadResult{}, false
	}
	if err := os.Remove(localPath); err != nil {
		logger.Debug("remove local upload", logging.String("file", name), logging.Error(err))
	}
	logger.Info("photo uploaded",
		logging.PublicID(result.PublicID),
		logging.Int64("bytes", result.Bytes),
	)
	return result, true
}

// baseURL prefers the configured public URL, then the request's own origin.
func (s *Server) baseURL(r *http.Request) string {
	if public := strings.TrimRight(strings.TrimSpace(s.cfg.API.PublicURL), "/"); public != "" {
		return public
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme, _, _ = strings.Cut(forwarded, ",")
		scheme = strings.TrimSpace(scheme)
	}
	return scheme + "://" + r.Host
}

// uploadFilename builds "<unix-ms>-<uuid><ext>" keeping the original extension.
func uploadFilename(unixMilli int64, original string) string {
	return strconv.FormatInt(unixMilli, 10) + "-" + uuid.NewString() + textutil.SafeExtension(original)
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
