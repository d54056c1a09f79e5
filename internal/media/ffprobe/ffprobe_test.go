package ffprobe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const samplePayload = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720},
    {"index": 1, "codec_type": "audio", "codec_name": "aac", "channels": 2, "sample_rate": "44100",
     "tags": {"language": "ENG", "handler_name": "SoundHandler"}, "disposition": {"default": 1}}
  ],
  "format": {"filename": "clip.mp4", "nb_streams": 2, "duration": "12.5", "size": "2048", "format_name": "mov,mp4"}
}`

func TestParseAndHelpers(t *testing.T) {
	result, err := Parse([]byte(samplePayload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !result.HasAudio() {
		t.Fatal("expected audio")
	}
	if result.VideoStreamCount() != 1 || result.AudioStreamCount() != 1 {
		t.Fatalf("unexpected stream counts: video=%d audio=%d", result.VideoStreamCount(), result.AudioStreamCount())
	}
	if result.DurationSeconds() != 12.5 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 2048 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	audio := result.AudioStreams()[0]
	if audio.Language() != "eng" {
		t.Fatalf("unexpected language: %q", audio.Language())
	}
	if audio.Title() != "soundhandler" {
		t.Fatalf("unexpected title: %q", audio.Title())
	}
	if !audio.IsDefault() {
		t.Fatal("expected default disposition")
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Size: "-1"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.HasAudio() {
		t.Fatal("expected no audio for empty result")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestInspectRunsBinary(t *testing.T) {
	dir := t.TempDir()
	payload := filepath.Join(dir, "payload.json")
	if err := os.WriteFile(payload, []byte(samplePayload), 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	script := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(script, []byte("#!/bin/sh\ncat "+payload+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	result, err := Inspect(context.Background(), script, "clip.mp4")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if result.Format.Filename != "clip.mp4" || !result.HasAudio() {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestInspectReportsFailure(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho 'clip.mp4: Invalid data found' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	if _, err := Inspect(context.Background(), script, "clip.mp4"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := Inspect(context.Background(), script, "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
