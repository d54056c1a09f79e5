package config

import (
	"errors"
	"fmt"
	"strings"

	"accentscan/internal/textutil"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDownload() error {
	if err := ensurePositiveMap(map[string]int{
		"download.timeout_seconds":      c.Download.TimeoutSeconds,
		"transcription.timeout_seconds": c.Transcription.TimeoutSeconds,
		"llm.timeout_seconds":           c.LLM.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Download.MaxBytes <= 0 {
		return errors.New("download.max_bytes must be positive")
	}
	switch c.Download.MergeOutputFormat {
	case "mp4", "mkv", "webm", "mov":
	default:
		return fmt.Errorf("download.merge_output_format: unsupported value %q (use mp4, mkv, webm, or mov)", c.Download.MergeOutputFormat)
	}
	return nil
}

func (c *Config) validateMedia() error {
	switch c.Media.SampleRate {
	case 8000, 16000, 22050, 44100, 48000:
	default:
		return fmt.Errorf("media.sample_rate: unsupported value %d", c.Media.SampleRate)
	}
	if c.Media.Channels != 1 && c.Media.Channels != 2 {
		return errors.New("media.channels must be 1 or 2")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	t := c.Transcription
	switch t.Provider {
	case ProviderWhisperX:
		if t.WhisperXVADMethod != "silero" && t.WhisperXVADMethod != "pyannote" {
			return fmt.Errorf("transcription.whisperx_vad_method: unsupported value %q (use silero or pyannote)", t.WhisperXVADMethod)
		}
		if t.WhisperXVADMethod == "pyannote" && t.WhisperXHuggingFace == "" {
			return errors.New("transcription.whisperx_hf_token must be set when whisperx_vad_method is pyannote (or set HF_TOKEN)")
		}
	case ProviderOpenAI:
		if strings.TrimSpace(t.APIKey) == "" {
			return errors.New("transcription.api_key must be set for the openai provider (or set OPENAI_API_KEY)")
		}
	case ProviderGemini:
		if strings.TrimSpace(t.APIKey) == "" {
			return errors.New("transcription.api_key must be set for the gemini provider (or set GEMINI_API_KEY)")
		}
	default:
		return fmt.Errorf("transcription.provider: unsupported value %q (use whisperx, openai, or gemini)", t.Provider)
	}
	return nil
}

func (c *Config) validateClassifier() error {
	lists := []struct {
		key   string
		words []string
	}{
		{"british", c.Classifier.Keywords.British},
		{"american", c.Classifier.Keywords.American},
		{"australian", c.Classifier.Keywords.Australian},
	}
	for _, list := range lists {
		for _, word := range list.words {
			if len(textutil.Words(word)) == 0 {
				return fmt.Errorf("classifier.keywords.%s: %q contains no letters or digits", list.key, word)
			}
		}
	}
	switch c.Classifier.Mode {
	case ClassifierModeKeyword, ClassifierModeAuto:
		return nil
	case ClassifierModeLLM:
		if strings.TrimSpace(c.LLM.APIKey) == "" {
			return errors.New("llm.api_key must be set when classifier.mode is llm (or set OPENROUTER_API_KEY)")
		}
		return nil
	default:
		return fmt.Errorf("classifier.mode: unsupported value %q (use keyword, llm, or auto)", c.Classifier.Mode)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
