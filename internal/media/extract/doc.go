// Package extract turns a downloaded video into the WAV file the
// transcription backends consume.
//
// Extraction probes the container with ffprobe, picks the dialogue stream,
// and runs ffmpeg to produce mono 16 kHz PCM by default. Containers with no
// audio stream are rejected before ffmpeg runs.
package extract
