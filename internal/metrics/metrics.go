// Package metrics exposes Prometheus collectors for the API daemon and the
// image maintenance jobs.
//
// Each Registry owns its own prometheus.Registry so tests and the CLI can
// build isolated instances. The daemon serves Handler on /metrics; the CLI
// can dump a run's counters with WriteTextfile for a node_exporter textfile
// collector.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gymtrack"

// Registry groups every gymtrack collector.
type Registry struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	jobRuns          *prometheus.CounterVec
	jobLastSuccess   *prometheus.GaugeVec
	assetsScanned    *prometheus.CounterVec
	assetsOutcome    *prometheus.CounterVec
	imageWrites      *prometheus.CounterVec
	missingPublicIDs prometheus.Gauge

	uploads *prometheus.CounterVec
}

// Option customizes a Registry.
type Option func(*options)

type options struct {
	runtime bool
}

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(o *options) { o.runtime = true }
}

// New builds a Registry with all collectors registered.
func New(opts ...Option) *Registry {
	var cfg options
	for _, opt := range opts {
		opt(&cfg)
	}

	reg := prometheus.NewRegistry()
	if cfg.runtime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	auto := promauto.With(reg)

	r := &Registry{registry: reg}
	r.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route pattern, method and status code.",
	}, []string{"route", "method", "status"})
	r.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	r.jobRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "images",
		Name:      "job_runs_total",
		Help:      "Image maintenance job runs by job and outcome.",
	}, []string{"job", "outcome"})
	r.jobLastSuccess = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "images",
		Name:      "job_last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last successful run per job.",
	}, []string{"job"})
	r.assetsScanned = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "images",
		Name:      "assets_scanned_total",
		Help:      "Cloudinary assets examined by job and listing mode.",
	}, []string{"job", "mode"})
	r.assetsOutcome = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "images",
		Name:      "assets_resolved_total",
		Help:      "Resolution outcomes by job: accepted, review, override or skipped.",
	}, []string{"job", "outcome"})
	r.imageWrites = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "images",
		Name:      "exercise_writes_total",
		Help:      "Exercise image write-back results: matched, modified or failed.",
	}, []string{"result"})
	r.missingPublicIDs = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "images",
		Name:      "exercises_missing_public_id",
		Help:      "Exercises without an image public id after the last sync.",
	})

	r.uploads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "photos",
		Name:      "uploads_total",
		Help:      "Photo uploads by storage target (local, cloudinary) and outcome.",
	}, []string{"target", "outcome"})
	return r
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// WriteTextfile atomically writes the current values to path.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// ObserveHTTP records one served request.
func (r *Registry) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// JobFinished records a job run. A nil err counts as success.
func (r *Registry) JobFinished(job string, err error, at time.Time) {
	if r == nil {
		return
	}
	if err != nil {
		r.jobRuns.WithLabelValues(job, "error").Inc()
		return
	}
	r.jobRuns.WithLabelValues(job, "success").Inc()
	r.jobLastSuccess.WithLabelValues(job).Set(float64(at.Unix()))
}

// AssetsScanned adds n scanned assets for job.
func (r *Registry) AssetsScanned(job, mode string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.assetsScanned.WithLabelValues(job, mode).Add(float64(n))
}

// AssetsResolved adds n assets with the given resolution outcome.
func (r *Registry) AssetsResolved(job, outcome string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.assetsOutcome.WithLabelValues(job, outcome).Add(float64(n))
}

// ExerciseWrites records a bulk write-back result.
func (r *Registry) ExerciseWrites(matched, modified, failed int) {
	if r == nil {
		return
	}
	r.imageWrites.WithLabelValues("matched").Add(float64(matched))
	r.imageWrites.WithLabelValues("modified").Add(float64(modified))
	r.imageWrites.WithLabelValues("failed").Add(float64(failed))
}

// MissingPublicIDs sets the count of exercises still lacking an asset.
func (r *Registry) MissingPublicIDs(n int) {
	if r == nil {
		return
	}
	r.missingPublicIDs.Set(float64(n))
}

// PhotoUpload records a photo upload attempt.
func (r *Registry) PhotoUpload(target string, err error) {
	if r == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.uploads.WithLabelValues(target, outcome).Inc()
}
