package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gymtrack/internal/cloudinary"
	"gymtrack/internal/config"
	"gymtrack/internal/metrics"
	"gymtrack/internal/store"
	"gymtrack/internal/testsupport"
)

type testEnv struct {
	cfg     *config.Config
	store   *store.Store
	metrics *metrics.Registry
	server  *Server
}

func newTestEnv(t *testing.T, uploader PhotoUploader, opts ...testsupport.ConfigOption) *testEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)
	reg := metrics.New()
	srv, err := New(Options{Config: cfg, Store: st, Metrics: reg, Uploader: uploader})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv.now = func() time.Time { return time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC) }
	return &testEnv{cfg: cfg, store: st, metrics: reg, server: srv}
}

func (e *testEnv) do(t *testing.T, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected status %d, got %d (body %s)", want, w.Code, w.Body.String())
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	resp := decode[map[string]string](t, w)
	if resp["error"] != want {
		t.Fatalf("expected error %q, got %q", want, resp["error"])
	}
}

type stubUploader struct {
	calls  int
	opts   cloudinary.UploadOptions
	data   []byte
	result cloudinary.UploadResult
	err    error
}

func (u *stubUploader) Upload(_ context.Context, _ string, r io.Reader, opts cloudinary.UploadOptions) (cloudinary.UploadResult, error) {
	u.calls++
	u.opts = opts
	u.data, _ = io.ReadAll(r)
	return u.result, u.err
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error without config")
	}
	cfg := testsupport.NewConfig(t)
	if _, err := New(Options{Config: cfg}); err == nil {
		t.Fatal("expected error without store")
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/api/health", nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[map[string]bool](t, w); !got["ok"] {
		t.Fatalf("unexpected health body: %s", w.Body.String())
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected request id header")
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/api/health", nil, requestIDHeader, "abc-123")
	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/api/unknown", nil)
	expectStatus(t, w, http.StatusNotFound)
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/api/health", nil, "Origin", "https://evil.example")
	expectStatus(t, w, http.StatusForbidden)
	expectError(t, w, "Not allowed by CORS")
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/api/health", nil, "Origin", "http://localhost:5173")
	expectStatus(t, w, http.StatusOK)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodOptions, "/api/exercises", nil, "Origin", "http://localhost:3000")
	expectStatus(t, w, http.StatusOK)
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != allowedMethods {
		t.Fatalf("unexpected methods %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != allowedHeaders {
		t.Fatalf("unexpected headers %q", got)
	}
}

func TestGzipCompressesLargeResponses(t *testing.T) {
	env := newTestEnv(t, nil)
	for i := range 40 {
		testsupport.SeedExercise(t, env.store, fmt.Sprintf("ejercicio-%02d", i), "Ejercicio de prueba con nombre largo", "pecho")
	}
	w := env.do(t, http.MethodGet, "/api/exercises", nil, "Accept-Encoding", "gzip")
	expectStatus(t, w, http.StatusOK)
	if got := w.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("expected gzip encoding, got %q", got)
	}

	small := env.do(t, http.MethodGet, "/api/health", nil, "Accept-Encoding", "gzip")
	if got := small.Header().Get("Content-Encoding"); got != "" {
		t.Fatalf("expected small response to stay uncompressed, got %q", got)
	}
}

func TestBodyLimit(t *testing.T) {
	env := newTestEnv(t, nil)
	env.cfg.API.MaxBodyBytes = 64
	srv, err := New(Options{Config: env.cfg, Store: env.store})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	payload := `{"_id":"x","name":"` + strings.Repeat("a", 200) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/exercises", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	expectStatus(t, w, http.StatusRequestEntityTooLarge)
}

func TestPanicsAnswerInternalServerError(t *testing.T) {
	env := newTestEnv(t, nil)
	h := env.server.recoverPanics(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	expectStatus(t, w, http.StatusInternalServerError)
	expectError(t, w, "Internal Server Error")
}

func TestMetricsRecordRoutePattern(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodGet, "/api/exercises/missing", nil)

	w := env.do(t, http.MethodGet, "/metrics", nil)
	expectStatus(t, w, http.StatusOK)
	body := w.Body.String()
	want := `gymtrack_http_requests_total{method="GET",route="/api/exercises/{id}",status="404"} 1`
	if !strings.Contains(body, want) {
		t.Fatalf("expected %q in metrics output:\n%s", want, body)
	}
}

func TestStartAndStop(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := env.server.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	addr := env.server.Addr()
	if addr == "" {
		t.Fatal("expected bound address")
	}
	resp, err := http.Get("http://" + addr + "/api/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	env.server.Stop()
	env.server.Stop()
	if env.server.Addr() != "" {
		t.Fatal("expected address cleared after stop")
	}
}
