package transcription

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"path/filepath"
	"time"

	"accentscan/internal/logging"
	"accentscan/internal/services"
	"accentscan/internal/services/whisperx"
)

// WhisperXConfig configures the local WhisperX backend.
type WhisperXConfig struct {
	Model       string
	Language    string
	CUDAEnabled bool
	VADMethod   string
	HFToken     string
	// Timeout bounds one WhisperX run; zero means no limit beyond ctx.
	Timeout time.Duration
}

// WhisperX transcribes through `uvx whisperx`.
type WhisperX struct {
	svc      *whisperx.Service
	language string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewWhisperX constructs the local backend.
func NewWhisperX(cfg WhisperXConfig, logger *slog.Logger) *WhisperX {
	return &WhisperX{
		svc: whisperx.NewService(whisperx.Config{
			Model:       cfg.Model,
			CUDAEnabled: cfg.CUDAEnabled,
			VADMethod:   cfg.VADMethod,
			HFToken:     cfg.HFToken,
		}),
		language: cfg.Language,
		timeout:  cfg.Timeout,
		logger:   logging.NewComponentLogger(logger, "whisperx"),
	}
}

// WithCommandRunner replaces the uvx invocation.
func (w *WhisperX) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) *WhisperX {
	w.svc.WithCommandRunner(runner)
	return w
}

// Name identifies the backend.
func (w *WhisperX) Name() string { return "whisperx" }

// Transcribe writes WhisperX output next to the audio file and returns the
// joined segment text.
func (w *WhisperX) Transcribe(ctx context.Context, audioPath string) (Transcript, error) {
	if err := checkAudio(audioPath); err != nil {
		return Transcript{}, err
	}
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	started := time.Now()
	outputDir := filepath.Join(filepath.Dir(audioPath), "whisperx")

	logging.WithContext(ctx, w.logger).Debug("whisperx starting",
		logging.String("model", w.svc.Model()),
		logging.Bool("cuda", w.svc.CUDAEnabled()),
	)
	result, err := w.svc.TranscribeFile(ctx, audioPath, outputDir, w.language)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Transcript{}, services.Wrap(services.ErrConfiguration, stageName, "whisperx",
				"uvx not found; install uv to use the whisperx provider", err)
		}
		return Transcript{}, classifyCallError(ctx, "whisperx", err)
	}

	tr := Transcript{
		Text:     result.Text,
		Language: result.Language,
		Provider: w.Name(),
		Model:    w.svc.Model(),
		Segments: len(result.Segments),
	}
	logTranscript(ctx, w.logger, tr, started)
	return tr, nil
}
