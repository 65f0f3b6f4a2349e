// Package api serves the gymtrack REST API consumed by the web frontend.
//
// # Routes
//
// Everything lives under /api: health, exercises, routines, sessions,
// trainings, photos (including multipart upload) and preferences. Uploaded
// files are served from /uploads/ and Prometheus metrics from /metrics.
//
// # Middleware
//
// Requests pass through panic recovery, request id assignment, CORS
// (configured origin allow-list), gzip compression and a JSON body limit.
// Each route is wrapped individually so logs and metrics carry the route
// pattern rather than the raw path.
//
// # Errors
//
// Store errors are classified with services.HTTPStatus: not-found answers
// 404 with a route specific message, validation 400, conflicts 409. Anything
// else is logged and answered with 500 {"error": "Internal Server Error"}.
//
// # Documents
//
// Records use "_id" as their identifier key. Create endpoints also accept
// "id" so clients can supply their own identifiers.
package api
