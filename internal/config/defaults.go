package config

const (
	defaultConfigPath            = "~/.config/gymtrack/config.toml"
	defaultCloudinaryBaseURL     = "https://api.cloudinary.com"
	defaultCloudinaryFolder      = "gym/exercises"
	defaultCloudinaryPhotos      = "gym/photos"
	defaultMappingDir            = "~/.local/share/gymtrack/maps"
	defaultAutoMapName           = "cloudinary-map.auto.json"
	defaultManualMapName         = "cloudinary-map.manual.json"
	defaultReviewName            = "cloudinary-map.review.json"
	defaultTemplateName          = "cloudinary-map.template.json"
	defaultDatabasePath          = "~/.local/share/gymtrack/gymtrack.db"
	defaultUploadsDir            = "~/.local/share/gymtrack/uploads"
	defaultLockDir               = "~/.local/share/gymtrack/run"
	defaultAPIBind               = ":4000"
	defaultRequestTimeoutSeconds = 10
	defaultMaxBodyBytes          = 10 << 20
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

var defaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://localhost:4173",
	"http://localhost:3000",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Cloudinary: Cloudinary{
			BaseURL:      defaultCloudinaryBaseURL,
			Folder:       defaultCloudinaryFolder,
			PhotosFolder: defaultCloudinaryPhotos,
		},
		Mapping: Mapping{
			Dir: defaultMappingDir,
		},
		Storage: Storage{
			DatabasePath: defaultDatabasePath,
			UploadsDir:   defaultUploadsDir,
			LockDir:      defaultLockDir,
		},
		API: API{
			Bind:                  defaultAPIBind,
			AllowedOrigins:        append([]string(nil), defaultAllowedOrigins...),
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
			MaxBodyBytes:          defaultMaxBodyBytes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
