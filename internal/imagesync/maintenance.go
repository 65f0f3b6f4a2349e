package imagesync

import (
	"context"
	"fmt"

	"gymtrack/internal/imagemap"
	"gymtrack/internal/logging"
	"gymtrack/internal/services"
)

// ExportReport summarises an export-ids run.
type ExportReport struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// ExportTemplate writes {exerciseId: ""} for every exercise so an operator
// can fill in a manual map.
func (d *Driver) ExportTemplate(ctx context.Context) (report ExportReport, err error) {
	ctx = services.WithJob(ctx, JobExportIDs)
	defer func() { d.finish(JobExportIDs, err) }()

	if d.catalog == nil {
		return ExportReport{}, services.Wrap(services.ErrConfiguration, "imagesync", "export ids", "no catalog configured", nil)
	}
	ids, err := d.catalog.ExerciseIDs(ctx)
	if err != nil {
		return ExportReport{}, fmt.Errorf("list exercise ids: %w", err)
	}
	count, err := imagemap.WriteTemplate(d.settings.TemplateOut, ids)
	if err != nil {
		return ExportReport{}, fmt.Errorf("write template: %w", err)
	}
	d.jobLogger(ctx).Info("template saved", logging.String("path", d.settings.TemplateOut), logging.Int("count", count))
	return ExportReport{Path: d.settings.TemplateOut, Count: count}, nil
}

// ClearReport summarises a clear run.
type ClearReport struct {
	All             bool `json:"all"`
	Modified        int  `json:"modified"`
	MissingPublicID int  `json:"missingImagePublicId"`
}

// Mode describes which exercises were eligible.
func (r ClearReport) Mode() string {
	if r.All {
		return "all"
	}
	return "only with imagePublicId"
}

// ClearImages unsets image and thumb, either on every exercise or only on
// exercises that already carry a public id.
func (d *Driver) ClearImages(ctx context.Context, all bool) (report ClearReport, err error) {
	ctx = services.WithJob(ctx, JobClear)
	defer func() { d.finish(JobClear, err) }()

	if d.catalog == nil {
		return ClearReport{}, services.Wrap(services.ErrConfiguration, "imagesync", "clear", "no catalog configured", nil)
	}
	modified, err := d.catalog.ClearImages(ctx, all)
	if err != nil {
		return ClearReport{}, err
	}
	missing, err := d.catalog.CountMissingImagePublicID(ctx)
	if err != nil {
		return ClearReport{}, fmt.Errorf("count missing public ids: %w", err)
	}
	report = ClearReport{All: all, Modified: modified, MissingPublicID: missing}
	d.jobLogger(ctx).Info("clear exercise images complete",
		logging.String("mode", report.Mode()),
		logging.Int("modified", modified),
		logging.Int("missing_public_id", missing),
	)
	return report, nil
}
