package testsupport

import (
	"path/filepath"
	"testing"

	"gymtrack/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Cloudinary credentials are left empty unless WithCloudinary is supplied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Storage.DatabasePath = filepath.Join(base, "data", "gymtrack.db")
	cfgVal.Storage.UploadsDir = filepath.Join(base, "uploads")
	cfgVal.Storage.LockDir = filepath.Join(base, "run")
	cfgVal.Mapping.Dir = filepath.Join(base, "maps")
	cfgVal.Mapping.AutoMap = filepath.Join(base, "maps", "cloudinary-map.auto.json")
	cfgVal.Mapping.ManualMap = filepath.Join(base, "maps", "cloudinary-map.manual.json")
	cfgVal.Mapping.ReviewFile = filepath.Join(base, "maps", "cloudinary-map.review.json")
	cfgVal.Mapping.TemplateFile = filepath.Join(base, "maps", "cloudinary-map.template.json")
	cfgVal.API.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithCloudinary points the config at a (usually httptest) Cloudinary endpoint.
func WithCloudinary(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cloudinary.CloudName = "demo"
		b.cfg.Cloudinary.APIKey = "key"
		b.cfg.Cloudinary.APISecret = "secret"
		b.cfg.Cloudinary.BaseURL = baseURL
	}
}

// WithFolder overrides the exercise folder and its aliases.
func WithFolder(folder string, aliases ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cloudinary.Folder = folder
		b.cfg.Cloudinary.FolderAliases = aliases
	}
}

// WithMapFile sets an explicit override map file, replacing auto/manual merging.
func WithMapFile(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Mapping.MapFile = filepath.Join(b.baseDir, "maps", name)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Storage.UploadsDir)
}
