// Package history persists finished analyses in a SQLite database.
//
// Every run of the pipeline, successful or not, is recorded with the source
// URL, the classification outcome, and the error that stopped it. The CLI
// history commands and the web UI read from the same store, so entries
// recorded by one surface are visible in the other.
package history
