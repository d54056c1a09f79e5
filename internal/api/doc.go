// Package api defines wire-format types and converters shared by the HTTP
// server and the CLI's --json output. It translates pipeline reports and
// history entries into transport-friendly DTOs that the web page (or any
// other consumer) can render without coupling to internal types.
//
// # Key Types
//
// Analysis: the outcome of one run with transcript, accent verdict, and
// per-stage timings.
//
// HistoryEntry/HistoryResponse: recorded runs plus status counts.
//
// Status: server readiness including dependency availability.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript consumers. Timestamps use
// RFC3339 with milliseconds. Durations are reported in milliseconds.
package api
