// Package transcription turns extracted WAV audio into text.
//
// Three backends implement Transcriber: whisperx runs locally through uvx,
// openai calls the audio transcriptions endpoint, and gemini sends the audio
// inline to a multimodal model. New picks the backend named in the
// configuration. An empty transcript is returned as-is; classifiers decide
// what silence means.
package transcription
