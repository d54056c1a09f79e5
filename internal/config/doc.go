// Package config loads, normalizes, and validates accentscan configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENROUTER_API_KEY and OPENAI_API_KEY. The Config type centralizes every
// knob the CLI and UI server need, so download, extraction, transcription,
// and classification settings are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical provider names, and clear validation errors.
package config
