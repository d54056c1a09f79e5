// Package language normalizes language codes for the transcription backends.
//
// WhisperX and the hosted speech APIs expect ISO 639-1 codes, while config
// files, ffprobe tags, and model replies use a mix of 2-letter, 3-letter,
// regional ("en-GB"), and spelled-out forms.
package language
