// Package audio picks the audio stream to transcribe from a probed container.
//
// Downloaded videos usually carry a single track, but muxed uploads and local
// files can hold several. Select prefers English dialogue, demotes commentary
// and audio-description tracks, and otherwise follows the default flag.
package audio
