package accent

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"accentscan/internal/config"
	"accentscan/internal/logging"
	"accentscan/internal/services"
	"accentscan/internal/services/llm"
)

// Auto prefers the LLM classifier and falls back to keywords when the model
// fails.
type Auto struct {
	primary  Classifier
	fallback Classifier
	logger   *slog.Logger
}

// NewAuto composes primary with a keyword fallback.
func NewAuto(primary Classifier, fallback Classifier, logger *slog.Logger) *Auto {
	return &Auto{
		primary:  primary,
		fallback: fallback,
		logger:   logging.NewComponentLogger(logger, "accent"),
	}
}

// Name identifies the classifier.
func (a *Auto) Name() string { return config.ClassifierModeAuto }

// Classify returns the primary verdict, or the fallback verdict annotated
// with the reason the primary failed. Cancellation is never masked.
func (a *Auto) Classify(ctx context.Context, transcript string) (Result, error) {
	result, err := a.primary.Classify(ctx, transcript)
	if err == nil {
		return result, nil
	}
	if errors.Is(err, context.Canceled) || ctx.Err() == context.Canceled {
		return Result{}, err
	}

	logger := logging.WithContext(ctx, a.logger)
	attrs := append(logging.DecisionAttrs("accent_classifier", a.fallback.Name(), "llm request failed"),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check llm.api_key, llm.model, and network access"),
		logging.String(logging.FieldImpact, "accent classified from keywords only"),
	)
	logging.WarnWithContext(logger, "llm classification failed; using keyword classifier", "classifier_fallback", attrs...)

	fallback, fbErr := a.fallback.Classify(ctx, transcript)
	if fbErr != nil {
		return Result{}, fbErr
	}
	fallback.Fallback = services.UserMessage(err)
	return fallback, nil
}

// New builds the classifier selected by cfg.Classifier.Mode.
func New(cfg *config.Config, logger *slog.Logger, opts ...llm.Option) (Classifier, error) {
	keyword := NewKeyword(cfg.Classifier.Keywords)
	newLLM := func() *LLM {
		settings := cfg.GetLLM()
		client := llm.NewClient(llm.Config{
			APIKey:         settings.APIKey,
			BaseURL:        settings.BaseURL,
			Model:          settings.Model,
			Referer:        settings.Referer,
			Title:          settings.Title,
			TimeoutSeconds: settings.TimeoutSeconds,
		}, opts...)
		return NewLLM(client, logger)
	}

	switch cfg.Classifier.Mode {
	case config.ClassifierModeKeyword:
		return keyword, nil
	case config.ClassifierModeLLM:
		if strings.TrimSpace(cfg.LLM.APIKey) == "" {
			return nil, services.Wrap(services.ErrConfiguration, stageName, "init", "llm classifier requires llm.api_key", nil)
		}
		return newLLM(), nil
	case config.ClassifierModeAuto, "":
		if !cfg.UsesLLM() {
			return keyword, nil
		}
		return NewAuto(newLLM(), keyword, logger), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, stageName, "init", "unsupported classifier mode "+cfg.Classifier.Mode, nil)
	}
}
