package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeCloudinary()
	if err := c.normalizeMapping(); err != nil {
		return err
	}
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeAPI()
	return c.normalizeLogging()
}

func (c *Config) normalizeCloudinary() {
	c.Cloudinary.CloudName = envFallback(c.Cloudinary.CloudName, "CLOUDINARY_CLOUD_NAME")
	c.Cloudinary.APIKey = envFallback(c.Cloudinary.APIKey, "CLOUDINARY_API_KEY")
	c.Cloudinary.APISecret = envFallback(c.Cloudinary.APISecret, "CLOUDINARY_API_SECRET")

	if value, ok := os.LookupEnv("CLOUDINARY_FOLDER"); ok && strings.TrimSpace(value) != "" {
		if c.Cloudinary.Folder == "" || c.Cloudinary.Folder == defaultCloudinaryFolder {
			c.Cloudinary.Folder = strings.TrimSpace(value)
		}
	}
	c.Cloudinary.Folder = strings.TrimSpace(c.Cloudinary.Folder)
	if c.Cloudinary.Folder == "" {
		c.Cloudinary.Folder = defaultCloudinaryFolder
	}

	if len(c.Cloudinary.FolderAliases) == 0 {
		if value, ok := os.LookupEnv("CLOUDINARY_FOLDER_ALIASES"); ok {
			c.Cloudinary.FolderAliases = splitList(value)
		}
	} else {
		c.Cloudinary.FolderAliases = splitList(strings.Join(c.Cloudinary.FolderAliases, ","))
	}

	if value, ok := os.LookupEnv("CLOUDINARY_PHOTOS_FOLDER"); ok && strings.TrimSpace(value) != "" {
		if c.Cloudinary.PhotosFolder == "" || c.Cloudinary.PhotosFolder == defaultCloudinaryPhotos {
			c.Cloudinary.PhotosFolder = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Cloudinary.PhotosFolder) == "" {
		c.Cloudinary.PhotosFolder = defaultCloudinaryPhotos
	}

	c.Cloudinary.BaseURL = strings.TrimRight(strings.TrimSpace(c.Cloudinary.BaseURL), "/")
	if c.Cloudinary.BaseURL == "" {
		c.Cloudinary.BaseURL = defaultCloudinaryBaseURL
	}
}

func (c *Config) normalizeMapping() error {
	var err error
	if strings.TrimSpace(c.Mapping.Dir) == "" {
		c.Mapping.Dir = defaultMappingDir
	}
	if c.Mapping.Dir, err = expandPath(c.Mapping.Dir); err != nil {
		return fmt.Errorf("mapping.dir: %w", err)
	}

	c.Mapping.MapFile = envFallback(c.Mapping.MapFile, "CLOUDINARY_MAP_FILE")
	c.Mapping.AutoMap = envFallback(c.Mapping.AutoMap, "CLOUDINARY_AUTO_MAP")
	c.Mapping.ManualMap = envFallback(c.Mapping.ManualMap, "CLOUDINARY_MANUAL_MAP")

	files := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"mapping.map_file", &c.Mapping.MapFile, ""},
		{"mapping.auto_map", &c.Mapping.AutoMap, defaultAutoMapName},
		{"mapping.manual_map", &c.Mapping.ManualMap, defaultManualMapName},
		{"mapping.review_file", &c.Mapping.ReviewFile, defaultReviewName},
		{"mapping.template_file", &c.Mapping.TemplateFile, defaultTemplateName},
	}
	for _, file := range files {
		if strings.TrimSpace(*file.value) == "" {
			if file.fallback == "" {
				*file.value = ""
				continue
			}
			*file.value = filepath.Join(c.Mapping.Dir, file.fallback)
		}
		if *file.value, err = expandPath(strings.TrimSpace(*file.value)); err != nil {
			return fmt.Errorf("%s: %w", file.key, err)
		}
	}
	return nil
}

func (c *Config) normalizeStorage() error {
	var err error
	if value, ok := os.LookupEnv("GYMTRACK_DB_PATH"); ok && strings.TrimSpace(value) != "" {
		if c.Storage.DatabasePath == "" || c.Storage.DatabasePath == defaultDatabasePath {
			c.Storage.DatabasePath = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Storage.DatabasePath) == "" {
		c.Storage.DatabasePath = defaultDatabasePath
	}
	if c.Storage.DatabasePath, err = expandPath(c.Storage.DatabasePath); err != nil {
		return fmt.Errorf("storage.database_path: %w", err)
	}
	if strings.TrimSpace(c.Storage.UploadsDir) == "" {
		c.Storage.UploadsDir = defaultUploadsDir
	}
	if c.Storage.UploadsDir, err = expandPath(c.Storage.UploadsDir); err != nil {
		return fmt.Errorf("storage.uploads_dir: %w", err)
	}
	if strings.TrimSpace(c.Storage.LockDir) == "" {
		c.Storage.LockDir = defaultLockDir
	}
	if c.Storage.LockDir, err = expandPath(c.Storage.LockDir); err != nil {
		return fmt.Errorf("storage.lock_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	if port, ok := os.LookupEnv("PORT"); ok && strings.TrimSpace(port) != "" {
		host, _, err := net.SplitHostPort(c.API.Bind)
		if err != nil {
			host = ""
		}
		c.API.Bind = net.JoinHostPort(host, strings.TrimSpace(port))
	}

	c.API.PublicURL = strings.TrimRight(envFallback(c.API.PublicURL, "APP_URL"), "/")

	origins := make([]string, 0, len(c.API.AllowedOrigins))
	for _, origin := range c.API.AllowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	c.API.AllowedOrigins = origins

	if c.API.RequestTimeoutSeconds <= 0 {
		c.API.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
	if c.API.MaxBodyBytes <= 0 {
		c.API.MaxBodyBytes = defaultMaxBodyBytes
	}
}

func (c *Config) normalizeLogging() error {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level

	if strings.TrimSpace(c.Logging.Dir) != "" {
		dir, err := expandPath(strings.TrimSpace(c.Logging.Dir))
		if err != nil {
			return fmt.Errorf("logging.dir: %w", err)
		}
		c.Logging.Dir = dir
	}
	return nil
}

func envFallback(current, key string) string {
	current = strings.TrimSpace(current)
	if current != "" {
		return current
	}
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
