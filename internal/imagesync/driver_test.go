package imagesync_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"reflect"
	"testing"

	"gymtrack/internal/cloudinary"
	"gymtrack/internal/imagematch"
	"gymtrack/internal/imagesync"
	"gymtrack/internal/metrics"
	"gymtrack/internal/store"
	"gymtrack/internal/testsupport"
)

type stubLister struct {
	resources []cloudinary.Resource
	searchErr error
	searches  int
	prefixes  int
}

func (s *stubLister) Search(context.Context, string, string) (cloudinary.Page, error) {
	s.searches++
	if s.searchErr != nil {
		return cloudinary.Page{}, s.searchErr
	}
	return cloudinary.Page{Resources: s.resources}, nil
}

func (s *stubLister) ListByPrefix(context.Context, string, string) (cloudinary.Page, error) {
	s.prefixes++
	return cloudinary.Page{Resources: s.resources}, nil
}

func resource(publicID string) cloudinary.Resource {
	return cloudinary.Resource{PublicID: publicID, SecureURL: "https://res.cloudinary.com/demo/image/upload/" + publicID + ".jpg"}
}

func seedCatalog(t *testing.T, st *store.Store) {
	t.Helper()
	testsupport.SeedExercise(t, st, "press-banca", "Press de banca", "pecho")
	testsupport.SeedExercise(t, st, "press-militar", "Press militar", "hombro")
	testsupport.SeedExercise(t, st, "sentadilla", "Sentadilla", "pierna")
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}

func TestBuildMapWritesAcceptedAndReview(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedCatalog(t, st)

	lister := &stubLister{resources: []cloudinary.Resource{
		resource("gym/exercises/pecho_press_banca_mb1c9"),
		resource("gym/exercises/press"),
		resource("gym/exercises/zzz"),
	}}
	reg := metrics.New()
	driver := imagesync.NewDriver(imagesync.SettingsFromConfig(cfg), lister, st, imagesync.WithMetrics(reg))

	report, err := driver.BuildMap(context.Background())
	if err != nil {
		t.Fatalf("BuildMap failed: %v", err)
	}
	if report.Mode != cloudinary.ModeSearch || report.Scanned != 3 || report.Accepted != 1 || report.NeedReview != 2 {
		t.Fatalf("unexpected report %+v", report)
	}

	var accepted map[string]string
	readJSON(t, cfg.Mapping.AutoMap, &accepted)
	if !reflect.DeepEqual(accepted, map[string]string{"gym/exercises/pecho_press_banca_mb1c9": "press-banca"}) {
		t.Fatalf("unexpected auto map %v", accepted)
	}

	var review []imagematch.ReviewEntry
	readJSON(t, cfg.Mapping.ReviewFile, &review)
	if len(review) != 2 || review[0].PublicID != "gym/exercises/press" || review[1].PublicID != "gym/exercises/zzz" {
		t.Fatalf("unexpected review %+v", review)
	}
	if len(review[0].Suggestions) < 2 {
		t.Fatalf("ambiguous asset should carry suggestions, got %+v", review[0].Suggestions)
	}
	if len(review[1].Suggestions) != 0 {
		t.Fatalf("unmatched asset should have no suggestions, got %+v", review[1].Suggestions)
	}
}

func TestBuildMapFailsWithoutResourcesAndWritesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedCatalog(t, st)

	driver := imagesync.NewDriver(imagesync.SettingsFromConfig(cfg), &stubLister{}, st)
	_, err := driver.BuildMap(context.Background())
	if !errors.Is(err, cloudinary.ErrNoResources) {
		t.Fatalf("expected ErrNoResources, got %v", err)
	}
	if _, statErr := os.Stat(cfg.Mapping.AutoMap); !os.IsNotExist(statErr) {
		t.Fatalf("auto map must not be written on failure (stat err %v)", statErr)
	}
}

func TestSyncWritesOnceAndIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedCatalog(t, st)

	lister := &stubLister{
		searchErr: errors.New("search unavailable"),
		resources: []cloudinary.Resource{
			resource("gym/exercises/pecho_press_banca_mb1c9"),
			resource("gym/exercises/sentadilla_800x600"),
			resource("gym/exercises/zzz"),
		},
	}
	driver := imagesync.NewDriver(imagesync.SettingsFromConfig(cfg), lister, st)
	ctx := context.Background()

	first, err := driver.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if first.Mode != cloudinary.ModePrefix {
		t.Fatalf("expected prefix fallback, got %s", first.Mode)
	}
	if first.Modified != 2 || first.Matched != 2 || first.Skipped != 1 || first.MissingPublicID != 1 {
		t.Fatalf("unexpected first report %+v", first)
	}
	if len(first.SkippedSamples) != 1 || first.SkippedSamples[0].PublicID != "gym/exercises/zzz" {
		t.Fatalf("unexpected skipped samples %+v", first.SkippedSamples)
	}

	ex, err := st.GetExercise(ctx, "sentadilla")
	if err != nil {
		t.Fatalf("GetExercise failed: %v", err)
	}
	if ex.ImagePublicID != "gym/exercises/sentadilla_800x600" {
		t.Fatalf("unexpected public id %q", ex.ImagePublicID)
	}

	second, err := driver.Sync(ctx)
	if err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
	if second.Modified != 0 || second.Matched != 0 || second.Unchanged != 2 {
		t.Fatalf("second run must not write, got %+v", second)
	}
}

func TestSyncCollapsesAssetsSharingAnExercise(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedCatalog(t, st)

	lister := &stubLister{resources: []cloudinary.Resource{
		resource("gym/exercises/press_banca_ab12c"),
		resource("gym/exercises/pecho_press_banca_mb1c9"),
	}}
	driver := imagesync.NewDriver(imagesync.SettingsFromConfig(cfg), lister, st)
	ctx := context.Background()

	first, err := driver.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if first.Resolved != 2 || first.Modified != 1 || first.Unchanged != 0 {
		t.Fatalf("unexpected first report %+v", first)
	}
	ex, err := st.GetExercise(ctx, "press-banca")
	if err != nil {
		t.Fatalf("GetExercise failed: %v", err)
	}
	if ex.ImagePublicID != "gym/exercises/pecho_press_banca_mb1c9" {
		t.Fatalf("last listed asset should win, got %q", ex.ImagePublicID)
	}

	for run := 2; run <= 3; run++ {
		report, err := driver.Sync(ctx)
		if err != nil {
			t.Fatalf("Sync run %d failed: %v", run, err)
		}
		if report.Modified != 0 || report.Matched != 0 || report.Unchanged != 1 {
			t.Fatalf("run %d must not write, got %+v", run, report)
		}
	}
}

func TestSyncReportsFailedWritesWithoutAborting(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedCatalog(t, st)
	testsupport.FailImageWrites(t, st, "press-banca")

	lister := &stubLister{resources: []cloudinary.Resource{
		resource("gym/exercises/pecho_press_banca_mb1c9"),
		resource("gym/exercises/sentadilla_800x600"),
	}}
	report, err := imagesync.NewDriver(imagesync.SettingsFromConfig(cfg), lister, st).Sync(context.Background())
	if err != nil {
		t.Fatalf("a failed row must not fail the run: %v", err)
	}
	if report.Failed != 1 || report.Modified != 1 || len(report.FailedSamples) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.MissingPublicID != 2 {
		t.Fatalf("expected press-banca and press-militar still missing, got %d", report.MissingPublicID)
	}
	ex, _ := st.GetExercise(context.Background(), "sentadilla")
	if ex.ImagePublicID != "gym/exercises/sentadilla_800x600" {
		t.Fatalf("healthy row should be written, got %q", ex.ImagePublicID)
	}
}

func TestSyncAppliesManualOverrides(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedCatalog(t, st)

	testsupport.WriteJSON(t, cfg.Mapping.AutoMap, map[string]string{"gym/exercises/zzz": "press-banca"})
	testsupport.WriteJSON(t, cfg.Mapping.ManualMap, map[string]string{
		"sentadilla":        "gym/exercises/zzz",
		"gym/exercises/qqq": "no-such-exercise",
	})

	lister := &stubLister{resources: []cloudinary.Resource{resource("gym/exercises/zzz"), resource("gym/exercises/qqq")}}
	driver := imagesync.NewDriver(imagesync.SettingsFromConfig(cfg), lister, st)

	report, err := driver.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if report.Modified != 1 || report.Skipped != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	ex, err := st.GetExercise(context.Background(), "sentadilla")
	if err != nil {
		t.Fatalf("GetExercise failed: %v", err)
	}
	if ex.ImagePublicID != "gym/exercises/zzz" {
		t.Fatalf("manual map should win over auto map, got %q", ex.ImagePublicID)
	}
}

func TestSyncReadsHandEditedManualMap(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedCatalog(t, st)

	testsupport.WriteOverrideFile(t, cfg.Mapping.ManualMap, `{"press-militar": "gym/exercises/img_0042"}`, true)
	testsupport.WriteOverrideFile(t, cfg.Mapping.AutoMap, `{"gym/exercises/img_0042": `, false)

	lister := &stubLister{resources: []cloudinary.Resource{resource("gym/exercises/img_0042")}}
	report, err := imagesync.NewDriver(imagesync.SettingsFromConfig(cfg), lister, st).Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if report.Overrides != 1 || report.Modified != 1 || report.Skipped != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	ex, _ := st.GetExercise(context.Background(), "press-militar")
	if ex.ImagePublicID != "gym/exercises/img_0042" {
		t.Fatalf("BOM-prefixed manual map should apply, got %q", ex.ImagePublicID)
	}
}

func TestSyncMapFileReplacesMergedMaps(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMapFile("override.json"))
	st := testsupport.MustOpenStore(t, cfg)
	seedCatalog(t, st)

	testsupport.WriteJSON(t, cfg.Mapping.ManualMap, map[string]string{"gym/exercises/zzz": "sentadilla"})
	testsupport.WriteJSON(t, cfg.Mapping.MapFile, []map[string]string{{"exerciseId": "press-militar", "publicId": "gym/exercises/zzz"}})

	lister := &stubLister{resources: []cloudinary.Resource{resource("gym/exercises/zzz")}}
	report, err := imagesync.NewDriver(imagesync.SettingsFromConfig(cfg), lister, st).Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if report.Overrides != 1 || report.Modified != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	ex, _ := st.GetExercise(context.Background(), "press-militar")
	if ex.ImagePublicID != "gym/exercises/zzz" {
		t.Fatalf("map file should decide the match, got %#v", ex)
	}
}

func TestExportTemplateAndClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedCatalog(t, st)
	driver := imagesync.NewDriver(imagesync.SettingsFromConfig(cfg), nil, st)
	ctx := context.Background()

	exported, err := driver.ExportTemplate(ctx)
	if err != nil {
		t.Fatalf("ExportTemplate failed: %v", err)
	}
	if exported.Count != 3 {
		t.Fatalf("expected 3 ids, got %d", exported.Count)
	}
	var template map[string]string
	readJSON(t, cfg.Mapping.TemplateFile, &template)
	if _, ok := template["press-militar"]; !ok || len(template) != 3 {
		t.Fatalf("unexpected template %v", template)
	}

	if _, err := st.ApplyImageUpdates(ctx, []store.ImageUpdate{{ExerciseID: "sentadilla", PublicID: "gym/s", SecureURL: "https://cdn/s.jpg"}}); err != nil {
		t.Fatalf("ApplyImageUpdates failed: %v", err)
	}
	cleared, err := driver.ClearImages(ctx, false)
	if err != nil {
		t.Fatalf("ClearImages failed: %v", err)
	}
	if cleared.Modified != 1 || cleared.MissingPublicID != 2 || cleared.Mode() != "only with imagePublicId" {
		t.Fatalf("unexpected clear report %+v", cleared)
	}
}
