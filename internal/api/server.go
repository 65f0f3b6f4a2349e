package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"gymtrack/internal/cloudinary"
	"gymtrack/internal/config"
	"gymtrack/internal/logging"
	"gymtrack/internal/metrics"
	"gymtrack/internal/store"
)

// PhotoUploader pushes progress photos to the remote asset store.
type PhotoUploader interface {
	Upload(ctx context.Context, filename string, r io.Reader, opts cloudinary.UploadOptions) (cloudinary.UploadResult, error)
}

// Options wires the server dependencies. Uploader and Metrics are optional.
type Options struct {
	Config   *config.Config
	Store    *store.Store
	Metrics  *metrics.Registry
	Uploader PhotoUploader
	Logger   *slog.Logger
}

// Server owns the HTTP listener and the handler tree.
type Server struct {
	cfg      *config.Config
	store    *store.Store
	metrics  *metrics.Registry
	uploader PhotoUploader
	logger   *slog.Logger
	origins  map[string]struct{}
	now      func() time.Time

	handler http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// New builds a server. It does not start listening.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("api: config is required")
	}
	if opts.Store == nil {
		return nil, errors.New("api: store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		cfg:      opts.Config,
		store:    opts.Store,
		metrics:  opts.Metrics,
		uploader: opts.Uploader,
		logger:   logging.NewComponentLogger(logger, "api-server"),
		origins:  make(map[string]struct{}, len(opts.Config.API.AllowedOrigins)),
		now:      time.Now,
	}
	for _, origin := range opts.Config.API.AllowedOrigins {
		if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
			s.origins[origin] = struct{}{}
		}
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the fully wrapped handler tree.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "GET /api/health", s.handleHealth)

	s.route(mux, "GET /api/exercises", s.handleListExercises)
	s.route(mux, "GET /api/exercises/{id}", s.handleGetExercise)
	s.route(mux, "POST /api/exercises", s.handleCreateExercise)
	s.route(mux, "PUT /api/exercises/{id}", s.handleUpdateExercise)
	s.route(mux, "DELETE /api/exercises/{id}", s.handleDeleteExercise)

	s.route(mux, "GET /api/routines", s.handleListRoutines)
	s.route(mux, "POST /api/routines", s.handleCreateRoutine)
	s.route(mux, "PUT /api/routines/{id}", s.handleUpdateRoutine)
	s.route(mux, "DELETE /api/routines/{id}", s.handleDeleteRoutine)

	s.route(mux, "GET /api/sessions", s.handleListSessions)
	s.route(mux, "POST /api/sessions", s.handleCreateSession)
	s.route(mux, "DELETE /api/sessions/{id}", s.handleDeleteSession)

	s.route(mux, "GET /api/trainings", s.handleListTrainings)
	s.route(mux, "GET /api/trainings/{id}", s.handleGetTraining)
	s.route(mux, "POST /api/trainings", s.handleCreateTraining)
	s.route(mux, "PUT /api/trainings/{id}", s.handleUpdateTraining)
	s.route(mux, "DELETE /api/trainings/{id}", s.handleDeleteTraining)

	s.route(mux, "GET /api/photos", s.handleListPhotos)
	s.route(mux, "POST /api/photos", s.handleCreatePhoto)
	s.route(mux, "POST /api/photos/upload", s.handleUploadPhoto)
	s.route(mux, "PUT /api/photos/{id}", s.handleUpdatePhoto)
	s.route(mux, "DELETE /api/photos/{id}", s.handleDeletePhoto)

	s.route(mux, "GET /api/preferences", s.handleGetPreference)
	s.route(mux, "POST /api/preferences", s.handleUpsertPreference)

	uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.cfg.Storage.UploadsDir)))
	s.route(mux, "GET /uploads/", uploads.ServeHTTP)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	var h http.Handler = mux
	h = s.limitBody(h)
	h = s.compress(h)
	h = s.cors(h)
	h = s.assignRequestID(h)
	h = s.recoverPanics(h)
	return h
}

// Start begins serving on the configured bind address. The server shuts down
// when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.API.Bind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.API.Bind, err)
	}

	timeout := time.Duration(s.cfg.API.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	server := &http.Server{
		Handler:           http.TimeoutHandler(s.handler, timeout, `{"error":"Request timeout"}`),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      timeout + 20*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr reports the bound address once Start succeeded.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down. Calling it twice is harmless.
func (s *Server) Stop() {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("api server shutdown", logging.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.internalError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, okResponse)
}
