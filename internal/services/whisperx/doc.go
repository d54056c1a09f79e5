// Package whisperx runs WhisperX through uvx to transcribe extracted audio.
//
// The service builds the uvx command line (model, device, VAD method,
// language), runs it, and reads the JSON output back into segments and a
// joined transcript. Tests swap the command runner to avoid launching Python.
package whisperx
