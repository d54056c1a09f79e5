package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// AnalyzeRequest is the body accepted by POST /api/analyze.
type AnalyzeRequest struct {
	URL string `json:"url"`
}

// Scores mirrors per-accent keyword counts.
type Scores struct {
	British    int `json:"british"`
	American   int `json:"american"`
	Australian int `json:"australian"`
}

// StageTiming reports how long one stage ran.
type StageTiming struct {
	Stage      string `json:"stage"`
	DurationMs int64  `json:"durationMs"`
}

// Analysis describes a finished run in a transport-friendly format.
type Analysis struct {
	RunID          string        `json:"runId"`
	Source         string        `json:"source"`
	Title          string        `json:"title,omitempty"`
	DownloadMethod string        `json:"downloadMethod,omitempty"`
	Transcript     string        `json:"transcript"`
	Language       string        `json:"language,omitempty"`
	Transcriber    string        `json:"transcriber"`
	Accent         string        `json:"accent"`
	Confidence     int           `json:"confidence"`
	Explanation    string        `json:"explanation"`
	Method         string        `json:"method"`
	Scores         Scores        `json:"scores"`
	Matched        []string      `json:"matched,omitempty"`
	Fallback       string        `json:"fallback,omitempty"`
	AudioSeconds   float64       `json:"audioSeconds"`
	ElapsedMs      int64         `json:"elapsedMs"`
	Timings        []StageTiming `json:"timings"`
	StartedAt      string        `json:"startedAt,omitempty"`
	FinishedAt     string        `json:"finishedAt,omitempty"`
}

// HistoryEntry describes a recorded run.
type HistoryEntry struct {
	ID              int64   `json:"id"`
	RunID           string  `json:"runId"`
	Source          string  `json:"source"`
	Title           string  `json:"title,omitempty"`
	Status          string  `json:"status"`
	Accent          string  `json:"accent,omitempty"`
	Confidence      int     `json:"confidence"`
	Explanation     string  `json:"explanation,omitempty"`
	Method          string  `json:"method,omitempty"`
	Transcriber     string  `json:"transcriber,omitempty"`
	Transcript      string  `json:"transcript,omitempty"`
	ErrorMessage    string  `json:"errorMessage,omitempty"`
	DurationSeconds float64 `json:"durationSeconds"`
	CreatedAt       string  `json:"createdAt,omitempty"`
	FinishedAt      string  `json:"finishedAt,omitempty"`
}

// HistoryCounts summarizes recorded runs by status.
type HistoryCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Invalid   int `json:"invalid"`
}

// HistoryResponse wraps a page of history entries.
type HistoryResponse struct {
	Items   []HistoryEntry `json:"items"`
	Summary HistoryCounts  `json:"summary"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// Status aggregates runtime information for API consumers.
type Status struct {
	Busy           bool               `json:"busy"`
	Transcriber    string             `json:"transcriber"`
	Classifier     string             `json:"classifier"`
	HistoryEnabled bool               `json:"historyEnabled"`
	HistoryDBPath  string             `json:"historyDbPath,omitempty"`
	LockFilePath   string             `json:"lockFilePath,omitempty"`
	Dependencies   []DependencyStatus `json:"dependencies"`
}

// ErrorResponse is returned for failed requests. Level is "warning" for
// input problems and "error" for everything else.
type ErrorResponse struct {
	Error string `json:"error"`
	Level string `json:"level"`
	RunID string `json:"runId,omitempty"`
}
