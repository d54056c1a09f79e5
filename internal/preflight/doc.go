// Package preflight provides readiness checks for the external tools,
// directories, and APIs an analysis depends on.
//
// The CLI status command prints every check. The UI server runs RunAll once
// at startup and logs failures so a missing yt-dlp or a bad API key surfaces
// before the first request rather than halfway through a download.
//
// Checks are gated by configuration: the LLM is only pinged when the
// classifier would call it, and uvx is only required for the whisperx
// provider.
package preflight
