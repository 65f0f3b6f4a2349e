// Package services defines shared utilities consumed by the maintenance jobs,
// the HTTP API, and the external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job names and request correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent classifications (HTTP status, fatal vs reportable).
package services
