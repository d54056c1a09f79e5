package api

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"accentscan/internal/accent"
	"accentscan/internal/deps"
	"accentscan/internal/history"
	"accentscan/internal/pipeline"
)

func TestFromReport(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	report := pipeline.Report{
		RunID:       "run-1",
		Source:      "https://youtu.be/abc",
		Method:      "yt-dlp",
		Transcript:  "my favourite colour",
		Transcriber: "whisperx",
		Accent: accent.Result{
			Label:       accent.British,
			Confidence:  100,
			Explanation: "Detected keywords suggest British accent with confidence 100%.",
			Method:      accent.MethodKeyword,
			Scores:      accent.Scores{British: 2},
			Matched:     []string{"colour", "favourite"},
		},
		Timings: []pipeline.StageTiming{
			{Stage: pipeline.StageDownload, Duration: 1500 * time.Millisecond},
			{Stage: pipeline.StageClassify, Duration: 2 * time.Millisecond},
		},
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
	}

	dto := FromReport(report)
	if dto.Accent != accent.British || dto.Confidence != 100 || dto.Scores.British != 2 {
		t.Fatalf("unexpected verdict fields: %+v", dto)
	}
	if dto.DownloadMethod != "yt-dlp" || dto.Transcriber != "whisperx" {
		t.Fatalf("unexpected provenance: %+v", dto)
	}
	if dto.ElapsedMs != 3000 {
		t.Fatalf("expected 3000ms elapsed, got %d", dto.ElapsedMs)
	}
	if len(dto.Timings) != 2 || dto.Timings[0].DurationMs != 1500 {
		t.Fatalf("unexpected timings: %+v", dto.Timings)
	}
	if dto.StartedAt != "2026-03-01T12:00:00.000Z" {
		t.Fatalf("unexpected timestamp format: %q", dto.StartedAt)
	}

	raw, err := json.Marshal(dto)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"runId"`, `"confidence":100`, `"audioSeconds"`} {
		if !strings.Contains(string(raw), key) {
			t.Fatalf("expected %s in %s", key, raw)
		}
	}
	if strings.Contains(string(raw), `"fallback"`) {
		t.Fatalf("expected empty fallback to be omitted: %s", raw)
	}
}

func TestFromHistoryEntries(t *testing.T) {
	entries := []*history.Entry{
		{ID: 1, RunID: "a", Status: history.StatusCompleted, Transcript: "hello mate"},
		{ID: 2, RunID: "b", Status: history.StatusFailed, ErrorMessage: "download failed"},
	}
	list := FromHistoryEntries(entries, false)
	if len(list) != 2 || list[0].Transcript != "" || list[1].Status != "failed" {
		t.Fatalf("unexpected list conversion: %+v", list)
	}
	full := FromHistoryEntries(entries, true)
	if full[0].Transcript != "hello mate" {
		t.Fatalf("expected transcript kept, got %+v", full[0])
	}
	if got := FromHistoryEntry(nil); got.ID != 0 {
		t.Fatalf("expected zero value for nil entry, got %+v", got)
	}
	if list[0].CreatedAt != "" {
		t.Fatalf("expected zero time to be omitted, got %q", list[0].CreatedAt)
	}
}

func TestFromDependencies(t *testing.T) {
	out := FromDependencies([]deps.Status{{Name: "FFmpeg", Command: "ffmpeg", Available: true}})
	if len(out) != 1 || !out[0].Available || out[0].Command != "ffmpeg" {
		t.Fatalf("unexpected dependency conversion: %+v", out)
	}
	if counts := FromSummary(history.Summary{Total: 3, Failed: 1}); counts.Total != 3 || counts.Failed != 1 {
		t.Fatalf("unexpected summary conversion: %+v", counts)
	}
}
