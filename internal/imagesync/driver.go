// Package imagesync runs the Cloudinary image maintenance jobs: building the
// auto/review maps, writing matched images back onto exercises, exporting an
// override template, and clearing stored image URLs.
//
// Every job loads the exercise catalog and the asset listing fully before
// resolving; resolution itself is synchronous and never fails. Only listing
// and persistence I/O can.
package imagesync

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gymtrack/internal/cloudinary"
	"gymtrack/internal/config"
	"gymtrack/internal/imagemap"
	"gymtrack/internal/imagematch"
	"gymtrack/internal/logging"
	"gymtrack/internal/metrics"
	"gymtrack/internal/services"
	"gymtrack/internal/store"
)

// Job names used in logs and metrics.
const (
	JobBuildMap  = "build-map"
	JobSync      = "sync"
	JobExportIDs = "export-ids"
	JobClear     = "clear"
)

// Catalog is the persistence surface the jobs need.
type Catalog interface {
	CatalogEntries(ctx context.Context) ([]store.ImageRecord, error)
	ApplyImageUpdates(ctx context.Context, updates []store.ImageUpdate) (store.BulkResult, error)
	CountMissingImagePublicID(ctx context.Context) (int, error)
	ClearImages(ctx context.Context, all bool) (int, error)
	ExerciseIDs(ctx context.Context) ([]string, error)
}

// Settings carries the folder layout and file locations for one driver.
type Settings struct {
	Folder        string
	FolderAliases []string
	Overrides     imagemap.Source
	AutoMapOut    string
	ReviewOut     string
	TemplateOut   string
	Prefixes      imagematch.Vocabulary
}

// SettingsFromConfig derives driver settings from the loaded configuration.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Folder:        cfg.Cloudinary.Folder,
		FolderAliases: cfg.Cloudinary.FolderAliases,
		Overrides: imagemap.Source{
			MapFile:   cfg.Mapping.MapFile,
			AutoMap:   cfg.Mapping.AutoMap,
			ManualMap: cfg.Mapping.ManualMap,
		},
		AutoMapOut:  cfg.Mapping.AutoMap,
		ReviewOut:   cfg.Mapping.ReviewFile,
		TemplateOut: cfg.Mapping.TemplateFile,
	}
}

// Folders returns the folder candidates queried on Cloudinary.
func (s Settings) Folders() []string {
	return cloudinary.FolderCandidates(s.Folder, s.FolderAliases)
}

// Driver orchestrates the image jobs.
type Driver struct {
	settings Settings
	lister   cloudinary.Lister
	catalog  Catalog
	metrics  *metrics.Registry
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes a Driver.
type Option func(*Driver)

// WithLogger sets the driver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics records job outcomes on reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(d *Driver) { d.metrics = reg }
}

// NewDriver builds a driver. lister may be nil for jobs that never contact
// Cloudinary (export-ids, clear).
func NewDriver(settings Settings, lister cloudinary.Lister, catalog Catalog, opts ...Option) *Driver {
	d := &Driver{
		settings: settings,
		lister:   lister,
		catalog:  catalog,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.NewComponentLogger(d.logger, "imagesync")
	return d
}

func (d *Driver) jobLogger(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, d.logger)
}

func (d *Driver) finish(job string, err error) {
	d.metrics.JobFinished(job, err, d.now())
}

func (d *Driver) loadCatalog(ctx context.Context) ([]imagematch.CatalogEntry, map[string]store.ImageRecord, error) {
	if d.catalog == nil {
		return nil, nil, services.Wrap(services.ErrConfiguration, "imagesync", "load catalog", "no catalog configured", nil)
	}
	records, err := d.catalog.CatalogEntries(ctx)
	if err != nil {
		return nil, nil, err
	}
	entries := make([]imagematch.CatalogEntry, 0, len(records))
	byID := make(map[string]store.ImageRecord, len(records))
	for _, rec := range records {
		entries = append(entries, imagematch.CatalogEntry{ID: rec.ID, Name: rec.Name, MuscleGroup: rec.Muscle})
		byID[rec.ID] = rec
	}
	return entries, byID, nil
}

func (d *Driver) fetch(ctx context.Context, job string) (cloudinary.Listing, error) {
	if d.lister == nil {
		return cloudinary.Listing{}, errors.New("imagesync: cloudinary client not configured")
	}
	listing, err := cloudinary.NewFetcher(d.lister, d.logger).FetchAll(ctx, d.settings.Folders())
	if err != nil {
		return listing, err
	}
	d.metrics.AssetsScanned(job, listing.Mode, len(listing.Resources))
	return listing, nil
}

func (d *Driver) resolver(entries []imagematch.CatalogEntry, overrides map[string]string) *imagematch.Resolver {
	return imagematch.NewResolver(entries, imagematch.Options{
		StorageFolder: strings.TrimSpace(d.settings.Folder),
		Prefixes:      d.settings.Prefixes,
		Overrides:     overrides,
	})
}

func publicIDs(resources []cloudinary.Resource) []string {
	ids := make([]string, 0, len(resources))
	for _, r := range resources {
		ids = append(ids, r.PublicID)
	}
	return ids
}
