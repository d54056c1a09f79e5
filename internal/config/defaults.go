package config

const (
	defaultConfigPath             = "~/.config/accentscan/config.toml"
	defaultDataDir                = "~/.local/share/accentscan"
	defaultLogDir                 = "~/.local/share/accentscan/logs"
	defaultAPIBind                = "127.0.0.1:8501"
	defaultYtDlpBinary            = "yt-dlp"
	defaultDownloadFormat         = "bestvideo+bestaudio/best"
	defaultMergeOutputFormat      = "mp4"
	defaultDownloadTimeoutSeconds = 900
	defaultDownloadMaxBytes       = 2 << 30
	defaultFFmpegBinary           = "ffmpeg"
	defaultFFprobeBinary          = "ffprobe"
	defaultSampleRate             = 16000
	defaultChannels               = 1
	defaultTranscriptionLanguage  = "en"
	defaultTranscriptionTimeout   = 600
	defaultVADMethod              = "silero"
	defaultLLMBaseURL             = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel               = "google/gemini-3-flash-preview"
	defaultLLMReferer             = "https://github.com/accentscan/accentscan"
	defaultLLMTitle               = "accentscan"
	defaultLLMTimeoutSeconds      = 60
	defaultHistoryMaxEntries      = 500
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Transcription providers.
const (
	ProviderWhisperX = "whisperx"
	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"
)

// Classifier modes.
const (
	ClassifierModeKeyword = "keyword"
	ClassifierModeLLM     = "llm"
	ClassifierModeAuto    = "auto"
)

// DefaultKeywords returns the stock accent markers.
func DefaultKeywords() Keywords {
	return Keywords{
		British:    []string{"colour", "favourite", "realise", "aluminium", "lorry", "biscuit"},
		American:   []string{"color", "favorite", "realize", "aluminum", "truck", "cookie"},
		Australian: []string{"mate", "arvo", "barbie", "brekkie"},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir(),
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Download: Download{
			YtDlpBinary:       defaultYtDlpBinary,
			Format:            defaultDownloadFormat,
			MergeOutputFormat: defaultMergeOutputFormat,
			TimeoutSeconds:    defaultDownloadTimeoutSeconds,
			MaxBytes:          defaultDownloadMaxBytes,
		},
		Media: Media{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			SampleRate:    defaultSampleRate,
			Channels:      defaultChannels,
		},
		Transcription: Transcription{
			Provider:          ProviderWhisperX,
			Language:          defaultTranscriptionLanguage,
			WhisperXVADMethod: defaultVADMethod,
			TimeoutSeconds:    defaultTranscriptionTimeout,
		},
		Classifier: Classifier{
			Mode:     ClassifierModeAuto,
			Keywords: DefaultKeywords(),
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		History: History{
			Enabled:    true,
			MaxEntries: defaultHistoryMaxEntries,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
