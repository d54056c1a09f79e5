package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"

	"accentscan/internal/language"
	"accentscan/internal/logging"
	"accentscan/internal/services"
)

const (
	defaultGeminiModel = "gemini-2.5-flash"
	wavMIMEType        = "audio/wav"
)

// Gemini transcribes by sending the WAV inline to a multimodal model.
type Gemini struct {
	client   *genai.Client
	model    string
	language string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewGemini constructs the Gemini backend.
func NewGemini(ctx context.Context, cfg APIConfig, logger *slog.Logger) (*Gemini, error) {
	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  strings.TrimSpace(cfg.APIKey),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "gemini", "create client", err)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{
		client:   client,
		model:    model,
		language: language.ToISO2(cfg.Language),
		timeout:  cfg.Timeout,
		logger:   logging.NewComponentLogger(logger, "gemini-stt"),
	}, nil
}

// Name identifies the backend.
func (g *Gemini) Name() string { return "gemini" }

// Transcribe asks the model for a verbatim transcript of the audio.
func (g *Gemini) Transcribe(ctx context.Context, audioPath string) (Transcript, error) {
	if err := checkAudio(audioPath); err != nil {
		return Transcript{}, err
	}
	started := time.Now()
	audioBytes, err := os.ReadFile(audioPath)
	if err != nil {
		return Transcript{}, services.Wrap(services.ErrTransient, stageName, "gemini", "read audio file", err)
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(
			[]*genai.Part{
				genai.NewPartFromText(g.prompt()),
				genai.NewPartFromBytes(audioBytes, wavMIMEType),
			},
			genai.RoleUser,
		),
	}
	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{})
	if err != nil {
		return Transcript{}, classifyCallError(ctx, "gemini", err)
	}

	tr := Transcript{
		Text:     strings.TrimSpace(response.Text()),
		Language: g.language,
		Provider: g.Name(),
		Model:    g.model,
	}
	logTranscript(ctx, g.logger, tr, started)
	return tr, nil
}

func (g *Gemini) prompt() string {
	var b strings.Builder
	b.WriteString("Transcribe the speech in this audio verbatim. ")
	b.WriteString("Preserve the speaker's own word choices and regional vocabulary. ")
	if g.language != "" {
		fmt.Fprintf(&b, "The speech is in %s. ", language.DisplayName(g.language))
	}
	b.WriteString("Return only the transcript text with no commentary. ")
	b.WriteString("Return an empty response if there is no speech.")
	return b.String()
}
