// Package config loads, normalizes, and validates gymtrack configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CLOUDINARY_CLOUD_NAME or PORT. The Config type centralizes every knob the API
// daemon and the image maintenance jobs need, so credentials, storage paths, and
// mapping files are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
