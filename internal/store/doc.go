// Package store persists gymtrack documents in an embedded SQLite database.
//
// Every collection the API serves (exercises, routines, sessions, trainings,
// photos, preferences) lives in its own table; nested lists are stored as JSON
// columns. The package also exposes the bulk image operations the Cloudinary
// sync jobs rely on. Busy errors are retried with bounded backoff so the
// daemon and the CLI jobs can share one database file.
package store
