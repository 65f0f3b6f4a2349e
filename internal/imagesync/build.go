package imagesync

import (
	"context"
	"fmt"

	"gymtrack/internal/imagemap"
	"gymtrack/internal/imagematch"
	"gymtrack/internal/logging"
	"gymtrack/internal/services"
)

// BuildReport summarises a build-map run.
type BuildReport struct {
	Mode       string                   `json:"mode"`
	Folders    []string                 `json:"folders"`
	Scanned    int                      `json:"scanned"`
	Accepted   int                      `json:"accepted"`
	NeedReview int                      `json:"needsReview"`
	AutoMap    string                   `json:"autoMap"`
	ReviewFile string                   `json:"reviewFile"`
	Review     []imagematch.ReviewEntry `json:"review,omitempty"`
}

// BuildMap resolves every listed asset without overrides and writes the
// accepted map and review list. Files are written only after the listing
// and catalog loaded successfully.
func (d *Driver) BuildMap(ctx context.Context) (report BuildReport, err error) {
	ctx = services.WithJob(ctx, JobBuildMap)
	logger := d.jobLogger(ctx)
	defer func() { d.finish(JobBuildMap, err) }()

	entries, _, err := d.loadCatalog(ctx)
	if err != nil {
		return BuildReport{}, fmt.Errorf("load catalog: %w", err)
	}
	listing, err := d.fetch(ctx, JobBuildMap)
	if err != nil {
		return BuildReport{Folders: listing.Folders, Mode: listing.Mode}, err
	}

	partition := d.resolver(entries, nil).ResolveAll(publicIDs(listing.Resources))

	if err := imagemap.WriteAccepted(d.settings.AutoMapOut, partition.Accepted); err != nil {
		return BuildReport{}, fmt.Errorf("write auto map: %w", err)
	}
	if err := imagemap.WriteReview(d.settings.ReviewOut, partition.Review); err != nil {
		return BuildReport{}, fmt.Errorf("write review list: %w", err)
	}

	report = BuildReport{
		Mode:       listing.Mode,
		Folders:    listing.Folders,
		Scanned:    len(listing.Resources),
		Accepted:   len(partition.Accepted),
		NeedReview: len(partition.Review),
		AutoMap:    d.settings.AutoMapOut,
		ReviewFile: d.settings.ReviewOut,
		Review:     partition.Review,
	}
	d.metrics.AssetsResolved(JobBuildMap, "accepted", report.Accepted)
	d.metrics.AssetsResolved(JobBuildMap, "review", report.NeedReview)
	logger.Info("cloudinary map build complete",
		logging.String("mode", report.Mode),
		logging.Strings("folders", report.Folders),
		logging.Int("scanned", report.Scanned),
		logging.Int("accepted", report.Accepted),
		logging.Int("needs_review", report.NeedReview),
	)
	return report, nil
}
