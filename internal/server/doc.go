// Package server hosts the single-page accent detector UI and its JSON API.
//
// Routes:
//
//	GET  /               the HTML page (URL input, Analyze Accent button, result block)
//	POST /api/analyze    {"url": "..."} -> api.Analysis or api.ErrorResponse
//	GET  /api/history    recent runs, optionally filtered by ?status= and ?limit=
//	GET  /api/history/{id}
//	GET  /api/status     busy flag, configured backends, binary availability
//
// The pipeline is sequential, so only one analysis runs at a time; a second
// request while one is in flight gets 429. Requests to /api/analyze are also
// rate limited. A flock on the data directory keeps two servers from sharing
// the same history database.
package server
