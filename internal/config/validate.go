package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable by every command.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateImageJobs ensures the credentials the Cloudinary maintenance jobs
// depend on are present. It runs before any network or file work starts.
func (c *Config) ValidateImageJobs() error {
	var missing []string
	if c.Cloudinary.CloudName == "" {
		missing = append(missing, "cloudinary.cloud_name (CLOUDINARY_CLOUD_NAME)")
	}
	if c.Cloudinary.APIKey == "" {
		missing = append(missing, "cloudinary.api_key (CLOUDINARY_API_KEY)")
	}
	if c.Cloudinary.APISecret == "" {
		missing = append(missing, "cloudinary.api_secret (CLOUDINARY_API_SECRET)")
	}
	if c.Storage.DatabasePath == "" {
		missing = append(missing, "storage.database_path (GYMTRACK_DB_PATH)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing Cloudinary or database settings: %s", strings.Join(missing, ", "))
	}
	if c.Cloudinary.Folder == "" {
		return errors.New("cloudinary.folder must be set")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.DatabasePath == "" {
		return errors.New("storage.database_path must be set")
	}
	if c.Storage.UploadsDir == "" {
		return errors.New("storage.uploads_dir must be set")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if _, _, err := net.SplitHostPort(c.API.Bind); err != nil {
		return fmt.Errorf("api.bind must be host:port: %w", err)
	}
	if c.API.RequestTimeoutSeconds <= 0 {
		return errors.New("api.request_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
