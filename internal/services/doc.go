// Package services defines shared utilities consumed by the analysis pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and request
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into history statuses (failed vs invalid) and one-line user messages.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
