package transcription

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"accentscan/internal/language"
	"accentscan/internal/logging"
	"accentscan/internal/services"
)

const defaultOpenAIModel = "whisper-1"

// OpenAI transcribes through the OpenAI audio transcriptions API or any
// compatible endpoint.
type OpenAI struct {
	client   openai.Client
	model    string
	language string
	logger   *slog.Logger
}

// NewOpenAI constructs the OpenAI backend. Extra request options are applied
// after the configured ones.
func NewOpenAI(cfg APIConfig, logger *slog.Logger, opts ...option.RequestOption) *OpenAI {
	requestOpts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(cfg.APIKey))}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(base))
	}
	if cfg.Timeout > 0 {
		requestOpts = append(requestOpts, option.WithRequestTimeout(cfg.Timeout))
	}
	requestOpts = append(requestOpts, opts...)

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{
		client:   openai.NewClient(requestOpts...),
		model:    model,
		language: language.ToISO2(cfg.Language),
		logger:   logging.NewComponentLogger(logger, "openai-stt"),
	}
}

// Name identifies the backend.
func (o *OpenAI) Name() string { return "openai" }

// Transcribe uploads the audio file and returns the recognised text.
func (o *OpenAI) Transcribe(ctx context.Context, audioPath string) (Transcript, error) {
	if err := checkAudio(audioPath); err != nil {
		return Transcript{}, err
	}
	started := time.Now()
	file, err := os.Open(audioPath)
	if err != nil {
		return Transcript{}, services.Wrap(services.ErrTransient, stageName, "openai", "open audio file", err)
	}
	defer file.Close()

	params := openai.AudioTranscriptionNewParams{
		File:           file,
		Model:          openai.AudioModel(o.model),
		ResponseFormat: openai.AudioResponseFormatJSON,
	}
	if o.language != "" {
		params.Language = param.NewOpt(o.language)
	}

	response, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			return Transcript{}, services.Wrap(services.ErrConfiguration, stageName, "openai", "api key rejected", err)
		}
		return Transcript{}, classifyCallError(ctx, "openai", err)
	}
	if response == nil {
		return Transcript{}, services.Wrap(services.ErrExternalTool, stageName, "openai", "empty response", nil)
	}

	tr := Transcript{
		Text:     strings.TrimSpace(response.Text),
		Language: o.language,
		Provider: o.Name(),
		Model:    o.model,
	}
	logTranscript(ctx, o.logger, tr, started)
	return tr, nil
}
