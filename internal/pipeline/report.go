package pipeline

import (
	"time"

	"accentscan/internal/accent"
)

// Stage names in execution order.
const (
	StageDownload   = "download"
	StageExtract    = "extract"
	StageTranscribe = "transcribe"
	StageClassify   = "classify"
)

// Stages lists the pipeline stages in execution order.
var Stages = []string{StageDownload, StageExtract, StageTranscribe, StageClassify}

// StageTiming records how long a stage ran.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration_ns"`
}

// Report is the outcome of a successful analysis.
type Report struct {
	RunID  string `json:"run_id"`
	Source string `json:"source"`
	Title  string `json:"title,omitempty"`
	// Method is how the video was fetched (local, http, yt-dlp).
	Method               string        `json:"download_method"`
	Transcript           string        `json:"transcript"`
	Language             string        `json:"language,omitempty"`
	Transcriber          string        `json:"transcriber"`
	AudioDurationSeconds float64       `json:"audio_duration_seconds"`
	Accent               accent.Result `json:"result"`
	Timings              []StageTiming `json:"timings"`
	StartedAt            time.Time     `json:"started_at"`
	FinishedAt           time.Time     `json:"finished_at"`
}

// Elapsed returns the wall time of the run.
func (r Report) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Progress describes where a running analysis is.
type Progress struct {
	RunID string
	Stage string
	// Step is the 1-based index of Stage within Stages.
	Step    int
	Total   int
	Percent float64
	Message string
}

// ProgressFunc receives progress updates. It is called synchronously from
// the analysis goroutine and must not block.
type ProgressFunc func(Progress)
