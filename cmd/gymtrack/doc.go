// Package main hosts the gymtrack operator CLI.
//
// The Cobra command tree runs the Cloudinary image maintenance jobs against
// the local exercise database (build-map, sync, export-ids, clear) and
// scaffolds configuration. Configuration loading, logger construction, and
// the single-instance job lock live here; matching and write-back live in
// internal/imagesync.
//
// Human summaries go to stdout; diagnostic logs go to stderr.
package main
