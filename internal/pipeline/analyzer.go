package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"accentscan/internal/accent"
	"accentscan/internal/config"
	"accentscan/internal/download"
	"accentscan/internal/history"
	"accentscan/internal/logging"
	"accentscan/internal/media/extract"
	"accentscan/internal/services"
	"accentscan/internal/transcription"
)

// Fetcher retrieves the video for a source URL or path.
type Fetcher interface {
	FetchWithProgress(ctx context.Context, source, destDir string, onProgress func(float64)) (download.Video, error)
}

// AudioExtractor writes the dialogue track of a video to a WAV file.
type AudioExtractor interface {
	Extract(ctx context.Context, video, dest string) (extract.Audio, error)
}

// Recorder persists finished runs.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) (*history.Entry, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

// Deps are the collaborators an Analyzer drives.
type Deps struct {
	Fetcher     Fetcher
	Extractor   AudioExtractor
	Transcriber transcription.Transcriber
	Classifier  accent.Classifier
	// Recorder is optional.
	Recorder Recorder
}

// Analyzer runs analyses.
type Analyzer struct {
	deps       Deps
	workDir    string
	maxHistory int
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithMaxHistory bounds the number of recorded runs kept after each analysis.
func WithMaxHistory(n int) Option {
	return func(a *Analyzer) { a.maxHistory = n }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// WithIDGenerator overrides run id generation.
func WithIDGenerator(fn func() string) Option {
	return func(a *Analyzer) {
		if fn != nil {
			a.newID = fn
		}
	}
}

// New constructs an Analyzer that keeps scratch files under workDir.
func New(deps Deps, workDir string, logger *slog.Logger, opts ...Option) (*Analyzer, error) {
	switch {
	case deps.Fetcher == nil:
		return nil, errors.New("pipeline: fetcher required")
	case deps.Extractor == nil:
		return nil, errors.New("pipeline: extractor required")
	case deps.Transcriber == nil:
		return nil, errors.New("pipeline: transcriber required")
	case deps.Classifier == nil:
		return nil, errors.New("pipeline: classifier required")
	}
	if strings.TrimSpace(workDir) == "" {
		workDir = os.TempDir()
	}
	a := &Analyzer{
		deps:    deps,
		workDir: workDir,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// NewFromConfig wires the production collaborators described by cfg. store
// may be nil to skip history.
func NewFromConfig(ctx context.Context, cfg *config.Config, store *history.Store, logger *slog.Logger) (*Analyzer, error) {
	tr, err := transcription.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	classifier, err := accent.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	deps := Deps{
		Fetcher: download.New(download.Config{
			YtDlpBinary:       cfg.Download.YtDlpBinary,
			Format:            cfg.Download.Format,
			MergeOutputFormat: cfg.Download.MergeOutputFormat,
			Timeout:           time.Duration(cfg.Download.TimeoutSeconds) * time.Second,
			MaxBytes:          cfg.Download.MaxBytes,
		}, logger),
		Extractor: extract.New(extract.Config{
			FFmpegBinary:  cfg.Media.FFmpegBinary,
			FFprobeBinary: cfg.Media.FFprobeBinary,
			SampleRate:    cfg.Media.SampleRate,
			Channels:      cfg.Media.Channels,
		}, logger),
		Transcriber: tr,
		Classifier:  classifier,
	}
	if store != nil && cfg.History.Enabled {
		deps.Recorder = store
	}
	return New(deps, cfg.Paths.WorkDir, logger, WithMaxHistory(cfg.History.MaxEntries))
}

// TranscriberName reports the configured transcription backend.
func (a *Analyzer) TranscriberName() string {
	return a.deps.Transcriber.Name()
}

// ClassifierName reports the configured classifier.
func (a *Analyzer) ClassifierName() string {
	return a.deps.Classifier.Name()
}

// Analyze runs every stage for source. Scratch files are removed before it
// returns. Errors carry a services marker; use services.UserMessage to
// render them.
func (a *Analyzer) Analyze(ctx context.Context, source string, onProgress ProgressFunc) (Report, error) {
	source = strings.TrimSpace(source)
	report := Report{
		RunID:     a.newID(),
		Source:    source,
		StartedAt: a.now(),
	}
	ctx = services.WithRunID(ctx, report.RunID)
	ctx = services.WithSource(ctx, source)
	logger := logging.WithContext(ctx, a.logger)

	run := &runState{analyzer: a, report: &report, onProgress: onProgress}
	err := run.execute(ctx, logger)
	report.FinishedAt = a.now()

	a.record(ctx, logger, report, err)
	if err != nil {
		logger.Error("analysis failed",
			logging.String(logging.FieldEventType, "analysis_failed"),
			logging.String("status", string(services.FailureStatus(err))),
			logging.Error(err),
		)
		return report, err
	}
	logger.Info("analysis complete",
		logging.String(logging.FieldEventType, "analysis_complete"),
		logging.String("accent", report.Accent.Label),
		logging.Int("confidence", report.Accent.Confidence),
		logging.String("method", report.Accent.Method),
		logging.Duration("elapsed", report.Elapsed()),
	)
	return report, nil
}

type runState struct {
	analyzer   *Analyzer
	report     *Report
	onProgress ProgressFunc
	step       int
}

func (r *runState) execute(ctx context.Context, logger *slog.Logger) (err error) {
	if r.report.Source == "" {
		return services.Wrap(services.ErrValidation, StageDownload, "validate", "video URL required", nil)
	}
	a := r.analyzer
	if err := os.MkdirAll(a.workDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "", "prepare", "create work directory", err)
	}
	runDir, err := os.MkdirTemp(a.workDir, "run-")
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "", "prepare", "create run directory", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(runDir); rmErr != nil {
			logging.WarnWithContext(logger, "failed to remove scratch files", "cleanup_failed",
				logging.String("path", runDir),
				logging.Error(rmErr),
				logging.String(logging.FieldErrorHint, "delete the directory manually"),
				logging.String(logging.FieldImpact, "disk space is not reclaimed"),
			)
		}
	}()

	var video download.Video
	if err := r.stage(ctx, logger, StageDownload, func(ctx context.Context) error {
		var fetchErr error
		video, fetchErr = a.deps.Fetcher.FetchWithProgress(ctx, r.report.Source, filepath.Join(runDir, "video"), func(pct float64) {
			r.progress(StageDownload, pct, "downloading")
		})
		return fetchErr
	}); err != nil {
		return err
	}
	r.report.Title = video.Title
	r.report.Method = video.Method

	var audio extract.Audio
	if err := r.stage(ctx, logger, StageExtract, func(ctx context.Context) error {
		var extractErr error
		audio, extractErr = a.deps.Extractor.Extract(ctx, video.Path, filepath.Join(runDir, "audio.wav"))
		return extractErr
	}); err != nil {
		return err
	}
	r.report.AudioDurationSeconds = audio.DurationSeconds

	var transcript transcription.Transcript
	if err := r.stage(ctx, logger, StageTranscribe, func(ctx context.Context) error {
		var trErr error
		transcript, trErr = a.deps.Transcriber.Transcribe(ctx, audio.Path)
		return trErr
	}); err != nil {
		return err
	}
	r.report.Transcript = transcript.Text
	r.report.Language = transcript.Language
	r.report.Transcriber = a.deps.Transcriber.Name()
	if transcript.Empty() {
		logging.WarnWithContext(logger, "transcription is empty", "empty_transcript",
			logging.String(logging.FieldErrorHint, "check that the video contains speech"),
			logging.String(logging.FieldImpact, "no accent can be detected"),
		)
	}

	return r.stage(ctx, logger, StageClassify, func(ctx context.Context) error {
		result, classifyErr := a.deps.Classifier.Classify(ctx, transcript.Text)
		r.report.Accent = result
		return classifyErr
	})
}

// stage runs fn with stage context, timing, and progress bookkeeping.
func (r *runState) stage(ctx context.Context, logger *slog.Logger, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrTransient, name, "start", "analysis cancelled", err)
	}
	r.step++
	stageCtx := services.WithStage(ctx, name)
	stageLogger := logger.With(logging.String(logging.FieldStage, name))
	r.progress(name, 0, "started")
	stageLogger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	started := time.Now()
	err := fn(stageCtx)
	elapsed := time.Since(started)
	r.report.Timings = append(r.report.Timings, StageTiming{Stage: name, Duration: elapsed})
	if err != nil {
		stageLogger.Debug("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Duration("elapsed", elapsed),
		)
		return ensureMarked(name, err)
	}

	r.progress(name, 100, "done")
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", elapsed),
	)
	return nil
}

func (r *runState) progress(stage string, percent float64, message string) {
	if r.onProgress == nil {
		return
	}
	r.onProgress(Progress{
		RunID:   r.report.RunID,
		Stage:   stage,
		Step:    r.step,
		Total:   len(Stages),
		Percent: percent,
		Message: message,
	})
}

// ensureMarked tags errors from collaborators that did not use a services
// marker so FailureStatus and UserMessage treat them consistently.
func ensureMarked(stage string, err error) error {
	for _, marker := range []error{
		services.ErrExternalTool, services.ErrValidation, services.ErrConfiguration,
		services.ErrNotFound, services.ErrTimeout, services.ErrTransient,
	} {
		if errors.Is(err, marker) {
			return err
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, stage, "run", "stage timed out", err)
	}
	return services.Wrap(services.ErrTransient, stage, "run", "", err)
}

func (a *Analyzer) record(ctx context.Context, logger *slog.Logger, report Report, runErr error) {
	if a.deps.Recorder == nil {
		return
	}
	entry := history.Entry{
		RunID:           report.RunID,
		Source:          report.Source,
		Title:           report.Title,
		Status:          history.StatusCompleted,
		Accent:          report.Accent.Label,
		Confidence:      report.Accent.Confidence,
		Explanation:     report.Accent.Explanation,
		Method:          report.Accent.Method,
		Transcriber:     report.Transcriber,
		Transcript:      report.Transcript,
		DurationSeconds: report.Elapsed().Seconds(),
		CreatedAt:       report.StartedAt,
		FinishedAt:      report.FinishedAt,
	}
	if runErr != nil {
		entry.Status = services.FailureStatus(runErr)
		entry.ErrorMessage = services.UserMessage(runErr)
	}

	// Recording must succeed even when the analysis was cancelled.
	recordCtx := context.WithoutCancel(ctx)
	if _, err := a.deps.Recorder.Record(recordCtx, entry); err != nil {
		logging.WarnWithContext(logger, "failed to record analysis history", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check data_dir permissions or delete history.db"),
			logging.String(logging.FieldImpact, "run is missing from history"),
		)
		return
	}
	if a.maxHistory > 0 {
		if pruned, err := a.deps.Recorder.Prune(recordCtx, a.maxHistory); err != nil {
			logger.Debug("history prune failed", logging.Error(err))
		} else if pruned > 0 {
			logger.Debug("history pruned", logging.Int64("removed", pruned))
		}
	}
}

// String renders a one-line summary for logs.
func (r Report) String() string {
	return fmt.Sprintf("%s: %s (%d%%)", r.Source, r.Accent.Label, r.Accent.Confidence)
}
