package api

import (
	"time"

	"accentscan/internal/deps"
	"accentscan/internal/history"
	"accentscan/internal/pipeline"
)

// FromReport converts a pipeline report to its API representation.
func FromReport(report pipeline.Report) Analysis {
	result := report.Accent
	dto := Analysis{
		RunID:          report.RunID,
		Source:         report.Source,
		Title:          report.Title,
		DownloadMethod: report.Method,
		Transcript:     report.Transcript,
		Language:       report.Language,
		Transcriber:    report.Transcriber,
		Accent:         result.Label,
		Confidence:     result.Confidence,
		Explanation:    result.Explanation,
		Method:         result.Method,
		Scores: Scores{
			British:    result.Scores.British,
			American:   result.Scores.American,
			Australian: result.Scores.Australian,
		},
		Matched:      result.Matched,
		Fallback:     result.Fallback,
		AudioSeconds: report.AudioDurationSeconds,
		ElapsedMs:    report.Elapsed().Milliseconds(),
		StartedAt:    formatTime(report.StartedAt),
		FinishedAt:   formatTime(report.FinishedAt),
	}
	dto.Timings = make([]StageTiming, 0, len(report.Timings))
	for _, timing := range report.Timings {
		dto.Timings = append(dto.Timings, StageTiming{
			Stage:      timing.Stage,
			DurationMs: timing.Duration.Milliseconds(),
		})
	}
	return dto
}

// FromHistoryEntry converts a history record to its API representation.
func FromHistoryEntry(entry *history.Entry) HistoryEntry {
	if entry == nil {
		return HistoryEntry{}
	}
	return HistoryEntry{
		ID:              entry.ID,
		RunID:           entry.RunID,
		Source:          entry.Source,
		Title:           entry.Title,
		Status:          string(entry.Status),
		Accent:          entry.Accent,
		Confidence:      entry.Confidence,
		Explanation:     entry.Explanation,
		Method:          entry.Method,
		Transcriber:     entry.Transcriber,
		Transcript:      entry.Transcript,
		ErrorMessage:    entry.ErrorMessage,
		DurationSeconds: entry.DurationSeconds,
		CreatedAt:       formatTime(entry.CreatedAt),
		FinishedAt:      formatTime(entry.FinishedAt),
	}
}

// FromHistoryEntries converts a slice of records. Transcripts are omitted
// unless withTranscript is set since list views rarely need them.
func FromHistoryEntries(entries []*history.Entry, withTranscript bool) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		dto := FromHistoryEntry(entry)
		if !withTranscript {
			dto.Transcript = ""
		}
		out = append(out, dto)
	}
	return out
}

// FromSummary converts history counts.
func FromSummary(summary history.Summary) HistoryCounts {
	return HistoryCounts{
		Total:     summary.Total,
		Completed: summary.Completed,
		Failed:    summary.Failed,
		Invalid:   summary.Invalid,
	}
}

// FromDependencies converts binary availability results.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(statuses))
	for i, dep := range statuses {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
