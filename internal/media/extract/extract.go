package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"accentscan/internal/logging"
	"accentscan/internal/media/audio"
	"accentscan/internal/media/ffprobe"
	"accentscan/internal/services"
)

const stageName = "extract"

// Audio describes the WAV file produced for transcription.
type Audio struct {
	Path string
	// Stream summarizes the source stream that was extracted.
	Stream          string
	DurationSeconds float64
	SampleRate      int
	Channels        int
}

// Config captures the ffmpeg/ffprobe settings used for extraction.
type Config struct {
	FFmpegBinary  string
	FFprobeBinary string
	SampleRate    int
	Channels      int
}

// Extractor pulls the dialogue track out of a video as PCM WAV.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
	probe  func(ctx context.Context, binary, path string) (ffprobe.Result, error)
	run    func(ctx context.Context, name string, args ...string) error
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithProbe overrides the ffprobe call (for testing).
func WithProbe(fn func(ctx context.Context, binary, path string) (ffprobe.Result, error)) Option {
	return func(e *Extractor) {
		if fn != nil {
			e.probe = fn
		}
	}
}

// WithCommandRunner overrides ffmpeg execution (for testing).
func WithCommandRunner(fn func(ctx context.Context, name string, args ...string) error) Option {
	return func(e *Extractor) {
		if fn != nil {
			e.run = fn
		}
	}
}

// New constructs an Extractor.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if strings.TrimSpace(cfg.FFmpegBinary) == "" {
		cfg.FFmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(cfg.FFprobeBinary) == "" {
		cfg.FFprobeBinary = "ffprobe"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	e := &Extractor{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "extract"),
		probe:  ffprobe.Inspect,
		run:    runFFmpeg,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract probes video, selects the dialogue stream, and writes it to dest as
// PCM WAV at the configured sample rate and channel count. A container
// without audio yields a validation error naming the file.
func (e *Extractor) Extract(ctx context.Context, video, dest string) (Audio, error) {
	if strings.TrimSpace(video) == "" {
		return Audio{}, services.Wrap(services.ErrValidation, stageName, "validate", "video path required", nil)
	}
	if strings.TrimSpace(dest) == "" {
		return Audio{}, services.Wrap(services.ErrValidation, stageName, "validate", "destination path required", nil)
	}

	probe, err := e.probe(ctx, e.cfg.FFprobeBinary, video)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Audio{}, services.Wrap(services.ErrConfiguration, stageName, "ffprobe", "ffprobe binary not found", err)
		}
		return Audio{}, services.Wrap(services.ErrExternalTool, stageName, "ffprobe", "could not read media file", err)
	}

	selection := audio.Select(probe.Streams)
	if !selection.Found() {
		return Audio{}, services.Wrap(services.ErrValidation, stageName, "probe",
			fmt.Sprintf("no audio stream found in %s", filepath.Base(video)), nil)
	}

	logger := logging.WithContext(ctx, e.logger)
	logger.Debug("audio stream selected",
		logging.String("stream", selection.PrimaryLabel()),
		logging.Int("stream_index", selection.PrimaryIndex),
		logging.Int("audio_streams", selection.Candidates),
	)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Audio{}, services.Wrap(services.ErrTransient, stageName, "prepare", "create output directory", err)
	}

	args := buildArgs(video, selection.PrimaryIndex, e.cfg.SampleRate, e.cfg.Channels, dest)
	if err := e.run(ctx, e.cfg.FFmpegBinary, args...); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Audio{}, services.Wrap(services.ErrConfiguration, stageName, "ffmpeg", "ffmpeg binary not found", err)
		}
		return Audio{}, services.Wrap(services.ErrExternalTool, stageName, "ffmpeg", "audio extraction failed", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return Audio{}, services.Wrap(services.ErrNotFound, stageName, "verify", "ffmpeg produced no audio file", err)
	}
	if info.Size() == 0 {
		return Audio{}, services.Wrap(services.ErrExternalTool, stageName, "verify", "ffmpeg produced an empty audio file", nil)
	}

	result := Audio{
		Path:            dest,
		Stream:          selection.PrimaryLabel(),
		DurationSeconds: probe.DurationSeconds(),
		SampleRate:      e.cfg.SampleRate,
		Channels:        e.cfg.Channels,
	}
	logger.Info("audio extracted",
		logging.String("audio_path", dest),
		logging.Float64("duration_seconds", result.DurationSeconds),
		logging.Int64("bytes", info.Size()),
	)
	return result, nil
}

func buildArgs(source string, audioIndex, sampleRate, channels int, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", fmt.Sprintf("0:%d", audioIndex),
		"-vn",
		"-sn",
		"-dn",
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		dest,
	}
}

func runFFmpeg(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
