package accent

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"accentscan/internal/logging"
	"accentscan/internal/services"
	"accentscan/internal/services/llm"
)

const stageName = "classify"

// verdictSource is the part of llm.Client the classifier needs.
type verdictSource interface {
	ClassifyAccent(ctx context.Context, transcript string) (llm.AccentVerdict, error)
}

// LLM asks a chat model to label the accent.
type LLM struct {
	client verdictSource
	model  string
	logger *slog.Logger
}

// NewLLM constructs the LLM classifier.
func NewLLM(client *llm.Client, logger *slog.Logger) *LLM {
	return &LLM{
		client: client,
		model:  client.Model(),
		logger: logging.NewComponentLogger(logger, "accent-llm"),
	}
}

// Name identifies the classifier.
func (l *LLM) Name() string { return MethodLLM }

// Classify requests a verdict for transcript. Blank transcripts are answered
// locally without a request.
func (l *LLM) Classify(ctx context.Context, transcript string) (Result, error) {
	if strings.TrimSpace(transcript) == "" {
		return noAccent(MethodLLM, "The transcription is empty, so there is nothing to classify.", Scores{}), nil
	}

	verdict, err := l.client.ClassifyAccent(ctx, transcript)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Result{}, services.Wrap(services.ErrTimeout, stageName, "llm", "accent request timed out", err)
		}
		return Result{}, services.Wrap(services.ErrExternalTool, stageName, "llm", "accent request failed", err)
	}

	label := NormalizeLabel(verdict.Accent)
	logging.WithContext(ctx, l.logger).Debug("llm verdict",
		logging.String("model", l.model),
		logging.String("raw_accent", verdict.Accent),
		logging.String("accent", label),
		logging.Float64("confidence", verdict.Confidence),
	)
	if label == NoAccent {
		return noAccent(MethodLLM, verdict.Reason, Scores{}), nil
	}

	confidence := int(math.Round(verdict.Confidence * 100))
	explanation := verdict.Reason
	if explanation == "" {
		explanation = fmt.Sprintf("The language model judged the accent to be %s with confidence %d%%.", label, confidence)
	}
	return Result{
		Label:       label,
		Confidence:  confidence,
		Explanation: explanation,
		Method:      MethodLLM,
	}, nil
}
