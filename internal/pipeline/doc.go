// Package pipeline runs one accent analysis end to end.
//
// Analyzer.Analyze executes download, extract, transcribe, and classify in
// order inside a private scratch directory under work_dir. The first failing
// stage ends the run; there is no retry or partial result. The scratch
// directory is removed when the run ends whatever the outcome, while local
// input files are read in place and left untouched.
//
// When a history store is attached every run, successful or not, is recorded
// and the store is pruned to history.max_entries.
package pipeline
