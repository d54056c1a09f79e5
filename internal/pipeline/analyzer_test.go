package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"accentscan/internal/accent"
	"accentscan/internal/config"
	"accentscan/internal/download"
	"accentscan/internal/history"
	"accentscan/internal/logging"
	"accentscan/internal/media/extract"
	"accentscan/internal/pipeline"
	"accentscan/internal/services"
	"accentscan/internal/testsupport"
	"accentscan/internal/transcription"
)

type fakeFetcher struct {
	local string
	err   error
	seen  string
}

func (f *fakeFetcher) FetchWithProgress(_ context.Context, source, destDir string, onProgress func(float64)) (download.Video, error) {
	f.seen = destDir
	if f.err != nil {
		return download.Video{}, f.err
	}
	if f.local != "" {
		return download.Video{Path: f.local, Source: source, Method: download.MethodLocal}, nil
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return download.Video{}, err
	}
	path := filepath.Join(destDir, "video.mp4")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		return download.Video{}, err
	}
	if onProgress != nil {
		onProgress(50)
	}
	return download.Video{Path: path, Source: source, Title: "Demo", Method: download.MethodYtDlp, Temporary: true}, nil
}

type fakeExtractor struct {
	err error
}

func (f *fakeExtractor) Extract(_ context.Context, video, dest string) (extract.Audio, error) {
	if f.err != nil {
		return extract.Audio{}, f.err
	}
	if _, err := os.Stat(video); err != nil {
		return extract.Audio{}, err
	}
	if err := os.WriteFile(dest, []byte("RIFF"), 0o644); err != nil {
		return extract.Audio{}, err
	}
	return extract.Audio{Path: dest, DurationSeconds: 12.5, SampleRate: 16000, Channels: 1}, nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Name() string { return "fake" }

func (f *fakeTranscriber) Transcribe(_ context.Context, audioPath string) (transcription.Transcript, error) {
	if f.err != nil {
		return transcription.Transcript{}, f.err
	}
	if _, err := os.Stat(audioPath); err != nil {
		return transcription.Transcript{}, err
	}
	return transcription.Transcript{Text: f.text, Language: "en", Provider: "fake"}, nil
}

type fixture struct {
	cfg       *config.Config
	store     *history.Store
	fetcher   *fakeFetcher
	extractor *fakeExtractor
	tr        *fakeTranscriber
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return &fixture{
		cfg:       cfg,
		store:     testsupport.MustOpenHistory(t, cfg),
		fetcher:   &fakeFetcher{},
		extractor: &fakeExtractor{},
		tr:        &fakeTranscriber{text: "Fancy a biscuit while I check the lorry, mate?"},
	}
}

func (f *fixture) analyzer(t *testing.T, opts ...pipeline.Option) *pipeline.Analyzer {
	t.Helper()
	ids := 0
	opts = append([]pipeline.Option{
		pipeline.WithIDGenerator(func() string {
			ids++
			return "run-" + string(rune('0'+ids))
		}),
	}, opts...)
	a, err := pipeline.New(pipeline.Deps{
		Fetcher:     f.fetcher,
		Extractor:   f.extractor,
		Transcriber: f.tr,
		Classifier:  accent.NewKeyword(config.Keywords{}),
		Recorder:    f.store,
	}, f.cfg.Paths.WorkDir, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return a
}

func assertWorkDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("read work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected scratch files removed, found %d entries", len(entries))
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	f := newFixture(t)
	var updates []pipeline.Progress
	report, err := f.analyzer(t).Analyze(context.Background(), "  https://www.youtube.com/watch?v=abc  ", func(p pipeline.Progress) {
		updates = append(updates, p)
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if report.RunID != "run-1" || report.Source != "https://www.youtube.com/watch?v=abc" {
		t.Fatalf("unexpected identity: %+v", report)
	}
	if report.Accent.Label != accent.British || report.Accent.Confidence != 66 {
		t.Fatalf("unexpected accent: %+v", report.Accent)
	}
	if report.Accent.Explanation != "Detected keywords suggest British accent with confidence 66%." {
		t.Fatalf("unexpected explanation %q", report.Accent.Explanation)
	}
	if report.Transcriber != "fake" || report.Title != "Demo" || report.AudioDurationSeconds != 12.5 {
		t.Fatalf("unexpected report fields: %+v", report)
	}
	if len(report.Timings) != len(pipeline.Stages) {
		t.Fatalf("expected %d timings, got %d", len(pipeline.Stages), len(report.Timings))
	}
	for i, timing := range report.Timings {
		if timing.Stage != pipeline.Stages[i] {
			t.Fatalf("timing %d stage = %q, want %q", i, timing.Stage, pipeline.Stages[i])
		}
	}
	if report.FinishedAt.Before(report.StartedAt) {
		t.Fatal("finished before started")
	}

	if len(updates) == 0 || updates[0].Stage != pipeline.StageDownload || updates[0].Step != 1 {
		t.Fatalf("unexpected first progress update: %+v", updates)
	}
	last := updates[len(updates)-1]
	if last.Stage != pipeline.StageClassify || last.Percent != 100 || last.Step != 4 || last.Total != 4 {
		t.Fatalf("unexpected last progress update: %+v", last)
	}

	if !strings.HasPrefix(f.fetcher.seen, f.cfg.Paths.WorkDir) {
		t.Fatalf("expected download inside work dir, got %q", f.fetcher.seen)
	}
	assertWorkDirEmpty(t, f.cfg.Paths.WorkDir)

	entry, err := f.store.GetByRunID(context.Background(), "run-1")
	if err != nil || entry == nil {
		t.Fatalf("expected history entry, got %+v, %v", entry, err)
	}
	if entry.Status != history.StatusCompleted || entry.Accent != accent.British || entry.Confidence != 66 {
		t.Fatalf("unexpected history entry: %+v", entry)
	}
	if entry.Transcript != f.tr.text {
		t.Fatalf("expected transcript persisted, got %q", entry.Transcript)
	}
}

func TestAnalyzeKeepsLocalInput(t *testing.T) {
	f := newFixture(t)
	local := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(local, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	f.fetcher.local = local

	if _, err := f.analyzer(t).Analyze(context.Background(), local, nil); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, err := os.Stat(local); err != nil {
		t.Fatalf("local input must survive cleanup: %v", err)
	}
	assertWorkDirEmpty(t, f.cfg.Paths.WorkDir)
}

func TestAnalyzeBlankSource(t *testing.T) {
	f := newFixture(t)
	_, err := f.analyzer(t).Analyze(context.Background(), "   ", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	entries, _ := f.store.List(context.Background(), 0)
	if len(entries) != 1 || entries[0].Status != history.StatusInvalid {
		t.Fatalf("expected invalid history entry, got %+v", entries)
	}
}

func TestAnalyzeStageFailureCleansUpAndRecords(t *testing.T) {
	f := newFixture(t)
	f.extractor.err = services.Wrap(services.ErrValidation, "extract", "probe", "no audio stream found in video.mp4", nil)

	report, err := f.analyzer(t).Analyze(context.Background(), "https://example.com/v", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := services.UserMessage(err); !strings.Contains(got, "no audio stream found in video.mp4") {
		t.Fatalf("unexpected user message %q", got)
	}
	if len(report.Timings) != 2 {
		t.Fatalf("expected download and extract timings, got %+v", report.Timings)
	}
	assertWorkDirEmpty(t, f.cfg.Paths.WorkDir)

	entry, _ := f.store.GetByRunID(context.Background(), report.RunID)
	if entry == nil || entry.Status != history.StatusInvalid || !strings.Contains(entry.ErrorMessage, "no audio stream") {
		t.Fatalf("unexpected history entry: %+v", entry)
	}
}

func TestAnalyzeUnmarkedErrorIsFailed(t *testing.T) {
	f := newFixture(t)
	f.tr.err = errors.New("model crashed")

	_, err := f.analyzer(t).Analyze(context.Background(), "https://example.com/v", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if services.FailureStatus(err) != history.StatusFailed {
		t.Fatalf("expected failed status for %v", err)
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected unmarked errors to be tagged transient, got %v", err)
	}
}

func TestAnalyzeEmptyTranscript(t *testing.T) {
	f := newFixture(t)
	f.tr.text = ""
	report, err := f.analyzer(t).Analyze(context.Background(), "https://example.com/v", nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Accent.Label != accent.NoAccent || report.Accent.Confidence != 0 {
		t.Fatalf("expected no accent, got %+v", report.Accent)
	}
}

func TestAnalyzeCancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := f.analyzer(t).Analyze(ctx, "https://example.com/v", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	entry, _ := f.store.GetByRunID(context.Background(), report.RunID)
	if entry == nil || entry.Status != history.StatusFailed {
		t.Fatalf("expected cancelled run recorded as failed, got %+v", entry)
	}
}

func TestAnalyzePrunesHistory(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	a := f.analyzer(t, pipeline.WithMaxHistory(2), pipeline.WithClock(func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}))
	for i := 0; i < 3; i++ {
		if _, err := a.Analyze(context.Background(), "https://example.com/v", nil); err != nil {
			t.Fatalf("Analyze %d: %v", i, err)
		}
	}
	entries, err := f.store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 || entries[0].RunID != "run-3" || entries[1].RunID != "run-2" {
		t.Fatalf("unexpected entries after prune: %+v", entries)
	}
}

func TestNewRequiresDeps(t *testing.T) {
	if _, err := pipeline.New(pipeline.Deps{}, t.TempDir(), logging.NewNop()); err == nil {
		t.Fatal("expected error for missing deps")
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	a, err := pipeline.NewFromConfig(context.Background(), cfg, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if a.TranscriberName() != "whisperx" || a.ClassifierName() != accent.MethodKeyword {
		t.Fatalf("unexpected wiring: %s / %s", a.TranscriberName(), a.ClassifierName())
	}
}
