package imagesync

import (
	"context"
	"fmt"

	"gymtrack/internal/imagemap"
	"gymtrack/internal/logging"
	"gymtrack/internal/services"
	"gymtrack/internal/store"
)

// MaxSkippedSamples bounds the unmatched assets listed in a sync report.
const MaxSkippedSamples = 10

// SkippedSample is an asset the sync could not place, with the variants tried.
type SkippedSample struct {
	PublicID string   `json:"publicId"`
	Variants []string `json:"variants"`
}

// SyncReport summarises a sync run.
type SyncReport struct {
	Mode            string          `json:"mode"`
	Folders         []string        `json:"folders"`
	Scanned         int             `json:"scanned"`
	Overrides       int             `json:"overrides"`
	Resolved        int             `json:"resolved"`
	Unchanged       int             `json:"unchanged"`
	Matched         int             `json:"matched"`
	Modified        int             `json:"modified"`
	Failed          int             `json:"failed"`
	FailedSamples   []string        `json:"failedSamples,omitempty"`
	Skipped         int             `json:"skipped"`
	SkippedSamples  []SkippedSample `json:"skippedSamples"`
	MissingPublicID int             `json:"missingImagePublicId"`
	MapSource       imagemap.Source `json:"-"`
}

// Sync resolves every listed asset using the merged override maps and writes
// image and public id back onto the matched exercises. Exercises already
// holding the same values are not written, so a repeated run with unchanged
// inputs issues no updates. Assets resolving to the same exercise collapse to
// the last one listed. Individual write failures are counted in the report
// and never fail the run.
func (d *Driver) Sync(ctx context.Context) (report SyncReport, err error) {
	ctx = services.WithJob(ctx, JobSync)
	logger := d.jobLogger(ctx)
	defer func() { d.finish(JobSync, err) }()

	entries, records, err := d.loadCatalog(ctx)
	if err != nil {
		return SyncReport{}, fmt.Errorf("load catalog: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	overrides := imagemap.Merge(d.settings.Overrides, imagemap.IDSet(ids), logger)

	listing, err := d.fetch(ctx, JobSync)
	if err != nil {
		return SyncReport{Folders: listing.Folders, Mode: listing.Mode}, err
	}

	report = SyncReport{
		Mode:           listing.Mode,
		Folders:        listing.Folders,
		Scanned:        len(listing.Resources),
		Overrides:      len(overrides),
		SkippedSamples: []SkippedSample{},
		MapSource:      d.settings.Overrides,
	}

	resolver := d.resolver(entries, overrides)

	// When several assets resolve to one exercise the last one listed wins.
	// Collapsing before comparing keeps a repeated run from rewriting the
	// losers over the winner.
	winners := make(map[string]store.ImageUpdate, len(records))
	var order []string
	for _, resource := range listing.Resources {
		outcome := resolver.Resolve(resource.PublicID)
		if !outcome.Accepted {
			if outcome.UnknownOverride != "" {
				logger.Warn("override points at unknown exercise",
					logging.PublicID(resource.PublicID),
					logging.ExerciseID(outcome.UnknownOverride),
				)
			}
			report.Skipped++
			if len(report.SkippedSamples) < MaxSkippedSamples {
				report.SkippedSamples = append(report.SkippedSamples, SkippedSample{
					PublicID: resource.PublicID,
					Variants: outcome.Variants,
				})
			}
			continue
		}

		report.Resolved++
		if prev, ok := winners[outcome.ExerciseID]; ok {
			logger.Debug("asset superseded by a later asset for the same exercise",
				logging.PublicID(prev.PublicID),
				logging.ExerciseID(outcome.ExerciseID),
			)
		} else {
			order = append(order, outcome.ExerciseID)
		}
		winners[outcome.ExerciseID] = store.ImageUpdate{
			ExerciseID: outcome.ExerciseID,
			PublicID:   resource.PublicID,
			SecureURL:  resource.SecureURL,
		}
	}

	var updates []store.ImageUpdate
	for _, id := range order {
		update := winners[id]
		rec := records[id]
		if rec.ImagePublicID == update.PublicID && rec.Image == update.SecureURL {
			report.Unchanged++
			continue
		}
		updates = append(updates, update)
	}

	if len(updates) > 0 {
		result, err := d.catalog.ApplyImageUpdates(ctx, updates)
		if err != nil {
			return report, fmt.Errorf("apply image updates: %w", err)
		}
		report.Matched = result.Matched
		report.Modified = result.Modified
		report.Failed = result.Failed
		report.FailedSamples = result.Errors
		for _, sample := range result.Errors {
			logger.Warn("exercise image update failed", logging.String("detail", sample))
		}
	}

	missing, err := d.catalog.CountMissingImagePublicID(ctx)
	if err != nil {
		return report, fmt.Errorf("count missing public ids: %w", err)
	}
	report.MissingPublicID = missing

	d.metrics.AssetsResolved(JobSync, "accepted", report.Resolved)
	d.metrics.AssetsResolved(JobSync, "skipped", report.Skipped)
	d.metrics.ExerciseWrites(report.Matched, report.Modified, report.Failed)
	d.metrics.MissingPublicIDs(missing)
	logger.Info("cloudinary sync complete",
		logging.String("mode", report.Mode),
		logging.Strings("folders", report.Folders),
		logging.Int("scanned", report.Scanned),
		logging.Int("matched", report.Matched),
		logging.Int("modified", report.Modified),
		logging.Int("failed", report.Failed),
		logging.Int("skipped", report.Skipped),
		logging.Int("missing_public_id", report.MissingPublicID),
	)
	return report, nil
}
