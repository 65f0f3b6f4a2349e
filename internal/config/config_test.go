package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"gymtrack/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CLOUDINARY_CLOUD_NAME", "CLOUDINARY_API_KEY", "CLOUDINARY_API_SECRET",
		"CLOUDINARY_FOLDER", "CLOUDINARY_FOLDER_ALIASES", "CLOUDINARY_MAP_FILE",
		"CLOUDINARY_AUTO_MAP", "CLOUDINARY_MANUAL_MAP", "CLOUDINARY_PHOTOS_FOLDER",
		"GYMTRACK_DB_PATH", "PORT", "APP_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantDB := filepath.Join(tempHome, ".local", "share", "gymtrack", "gymtrack.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Fatalf("unexpected database path: got %q want %q", cfg.Storage.DatabasePath, wantDB)
	}
	wantAuto := filepath.Join(tempHome, ".local", "share", "gymtrack", "maps", "cloudinary-map.auto.json")
	if cfg.Mapping.AutoMap != wantAuto {
		t.Fatalf("unexpected auto map: got %q want %q", cfg.Mapping.AutoMap, wantAuto)
	}
	if cfg.Mapping.MapFile != "" {
		t.Fatalf("expected empty map file, got %q", cfg.Mapping.MapFile)
	}
	if cfg.Cloudinary.Folder != "gym/exercises" {
		t.Fatalf("unexpected folder: %q", cfg.Cloudinary.Folder)
	}
	if cfg.Cloudinary.PhotosFolder != "gym/photos" {
		t.Fatalf("unexpected photos folder: %q", cfg.Cloudinary.PhotosFolder)
	}
	if cfg.API.Bind != ":4000" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
	if cfg.CloudinaryConfigured() {
		t.Fatal("expected cloudinary to be unconfigured without credentials")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{filepath.Dir(cfg.Storage.DatabasePath), cfg.Storage.UploadsDir, cfg.Mapping.Dir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadUsesEnvironmentFallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_API_KEY", "key")
	t.Setenv("CLOUDINARY_API_SECRET", "secret")
	t.Setenv("CLOUDINARY_FOLDER", "fitness/ejercicios")
	t.Setenv("CLOUDINARY_FOLDER_ALIASES", " ejercicios , , gym ")
	t.Setenv("CLOUDINARY_MAP_FILE", "/tmp/override.json")
	t.Setenv("PORT", "8081")
	t.Setenv("APP_URL", "https://gym.example.com/")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Cloudinary.CloudName != "demo" || cfg.Cloudinary.APIKey != "key" || cfg.Cloudinary.APISecret != "secret" {
		t.Fatalf("unexpected credentials: %+v", cfg.Cloudinary)
	}
	if cfg.Cloudinary.Folder != "fitness/ejercicios" {
		t.Fatalf("unexpected folder: %q", cfg.Cloudinary.Folder)
	}
	if got := strings.Join(cfg.Cloudinary.FolderAliases, "|"); got != "ejercicios|gym" {
		t.Fatalf("unexpected aliases: %q", got)
	}
	if cfg.Mapping.MapFile != "/tmp/override.json" {
		t.Fatalf("unexpected map file: %q", cfg.Mapping.MapFile)
	}
	if cfg.API.Bind != ":8081" {
		t.Fatalf("expected PORT to replace bind port, got %q", cfg.API.Bind)
	}
	if cfg.API.PublicURL != "https://gym.example.com" {
		t.Fatalf("unexpected public url: %q", cfg.API.PublicURL)
	}
	if err := cfg.ValidateImageJobs(); err != nil {
		t.Fatalf("ValidateImageJobs: %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLOUDINARY_CLOUD_NAME", "from-env")
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "gymtrack.toml")

	type payload struct {
		Cloudinary struct {
			CloudName     string   `toml:"cloud_name"`
			FolderAliases []string `toml:"folder_aliases"`
		} `toml:"cloudinary"`
		Storage struct {
			DatabasePath string `toml:"database_path"`
		} `toml:"storage"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Cloudinary.CloudName = "file-cloud"
	custom.Cloudinary.FolderAliases = []string{"ejercicios", " "}
	custom.Storage.DatabasePath = filepath.Join(tempDir, "db", "gym.db")
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Cloudinary.CloudName != "file-cloud" {
		t.Fatalf("expected file value to win over env, got %q", cfg.Cloudinary.CloudName)
	}
	if len(cfg.Cloudinary.FolderAliases) != 1 || cfg.Cloudinary.FolderAliases[0] != "ejercicios" {
		t.Fatalf("unexpected aliases: %v", cfg.Cloudinary.FolderAliases)
	}
	if cfg.Storage.DatabasePath != custom.Storage.DatabasePath {
		t.Fatalf("unexpected database path: %q", cfg.Storage.DatabasePath)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected lowercased log format, got %q", cfg.Logging.Format)
	}
}

func TestValidateImageJobsReportsMissingCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.Cloudinary.CloudName = "demo"

	err := cfg.ValidateImageJobs()
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	for _, want := range []string{"cloudinary.api_key", "cloudinary.api_secret"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in error, got %v", want, err)
		}
	}
	if strings.Contains(err.Error(), "cloudinary.cloud_name") {
		t.Fatalf("cloud name was set, got %v", err)
	}
}

func TestValidateRejectsUnknownLogFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported log format")
	}
}

func TestCreateSampleWritesLoadableConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path, false); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if err := config.CreateSample(path, false); !errors.Is(err, config.ErrConfigExists) {
		t.Fatalf("expected ErrConfigExists on second write, got %v", err)
	}
	if err := config.CreateSample(path, true); err != nil {
		t.Fatalf("CreateSample overwrite: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Cloudinary.Folder != "gym/exercises" {
		t.Fatalf("unexpected folder from sample: %q", cfg.Cloudinary.Folder)
	}
	if len(cfg.API.AllowedOrigins) != 3 {
		t.Fatalf("expected sample origins, got %v", cfg.API.AllowedOrigins)
	}
}
