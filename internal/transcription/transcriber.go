package transcription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"accentscan/internal/config"
	"accentscan/internal/logging"
	"accentscan/internal/services"
)

const stageName = "transcribe"

// Transcript is the text recognised in an audio file.
type Transcript struct {
	Text     string
	Language string
	// Provider and Model identify the backend that produced the text.
	Provider string
	Model    string
	Segments int
}

// Empty reports whether no speech was recognised.
func (t Transcript) Empty() bool {
	return strings.TrimSpace(t.Text) == ""
}

// Transcriber converts an audio file into a transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (Transcript, error)
	Name() string
}

// New builds the transcriber selected by cfg.Transcription.Provider.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Transcriber, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "init", "configuration required", nil)
	}
	t := cfg.Transcription
	timeout := time.Duration(t.TimeoutSeconds) * time.Second
	switch t.Provider {
	case config.ProviderWhisperX:
		return NewWhisperX(WhisperXConfig{
			Model:       t.Model,
			Language:    t.Language,
			CUDAEnabled: t.WhisperXCUDAEnabled,
			VADMethod:   t.WhisperXVADMethod,
			HFToken:     t.WhisperXHuggingFace,
			Timeout:     timeout,
		}, logger), nil
	case config.ProviderOpenAI:
		return NewOpenAI(APIConfig{
			APIKey:   t.APIKey,
			BaseURL:  t.BaseURL,
			Model:    t.Model,
			Language: t.Language,
			Timeout:  timeout,
		}, logger), nil
	case config.ProviderGemini:
		return NewGemini(ctx, APIConfig{
			APIKey:   t.APIKey,
			BaseURL:  t.BaseURL,
			Model:    t.Model,
			Language: t.Language,
			Timeout:  timeout,
		}, logger)
	default:
		return nil, services.Wrap(services.ErrConfiguration, stageName, "init",
			fmt.Sprintf("unsupported transcription provider %q", t.Provider), nil)
	}
}

// APIConfig holds settings shared by the hosted backends.
type APIConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
	Timeout  time.Duration
}

func checkAudio(audioPath string) error {
	if strings.TrimSpace(audioPath) == "" {
		return services.Wrap(services.ErrValidation, stageName, "validate", "audio path required", nil)
	}
	info, err := os.Stat(audioPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrNotFound, stageName, "validate", "audio file missing", err)
		}
		return services.Wrap(services.ErrTransient, stageName, "validate", "stat audio file", err)
	}
	if info.Size() == 0 {
		return services.Wrap(services.ErrValidation, stageName, "validate", "audio file is empty", nil)
	}
	return nil
}

// classifyCallError maps a backend failure onto a service marker.
func classifyCallError(ctx context.Context, provider string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, stageName, provider, "transcription timed out", err)
	case errors.Is(err, context.Canceled):
		return services.Wrap(services.ErrTransient, stageName, provider, "transcription cancelled", err)
	default:
		return services.Wrap(services.ErrExternalTool, stageName, provider, "transcription failed", err)
	}
}

func logTranscript(ctx context.Context, logger *slog.Logger, tr Transcript, started time.Time) {
	logging.WithContext(ctx, logger).Info("transcription complete",
		logging.String("provider", tr.Provider),
		logging.String("model", tr.Model),
		logging.String("language", tr.Language),
		logging.Int("characters", len(tr.Text)),
		logging.Int("segments", tr.Segments),
		logging.Duration("elapsed", time.Since(started)),
	)
}
