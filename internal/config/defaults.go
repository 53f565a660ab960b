package config

const (
	defaultDataDir       = "~/.local/share/podsum"
	defaultIncomingDir   = "~/.local/share/podsum/audio/incoming"
	defaultProcessingDir = "~/.local/share/podsum/audio/processing"
	defaultArchiveDir    = "~/.local/share/podsum/audio/archive"
	defaultTextDir       = "~/.local/share/podsum/text"
	defaultLogDir        = "~/.local/share/podsum/logs"

	defaultCandidatesPerPoll     = 5
	defaultMaxDurationMinutes    = 240
	defaultMaxAudioMB            = 500
	defaultMaxEpisodeAgeDays     = 14
	defaultPollIntervalMinutes   = 60
	defaultTranscribeWaitMinutes = 45
	defaultRunTimeoutMinutes     = 180

	defaultTranscriberBaseURL      = "https://api.assemblyai.com"
	defaultTranscriberPollSeconds  = 10
	defaultLLMBaseURL              = "https://openrouter.ai/api/v1"
	defaultContextModel            = "google/gemini-3-flash-preview"
	defaultSummaryModel            = "anthropic/claude-sonnet-4.5"
	defaultLLMTimeoutSeconds       = 120
	defaultLLMMaxOutputTokens      = 4096
	defaultTranscriptSliceChars    = 200000
	defaultContextMetaChars        = 8000
	defaultEmailTimeoutSeconds     = 30
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultLogRetentionDays        = 30
	defaultArchiveRetentionDays    = 30
	defaultTextRetentionDays       = 90
)

const defaultContextPrompt = `You are preparing background context for a podcast episode summary.
Given the podcast name, episode title, and episode description, identify the
hosts, guests, and topics likely to be discussed. Respond with a short
paragraph of plain text.`

const defaultSummaryPrompt = `You are writing an email summary of a podcast episode for a busy reader.
Summarize the key points, notable quotes, and any actionable takeaways from
the transcript below. Use markdown with short sections and bullet points.`

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:       defaultDataDir,
			IncomingDir:   defaultIncomingDir,
			ProcessingDir: defaultProcessingDir,
			ArchiveDir:    defaultArchiveDir,
			TextDir:       defaultTextDir,
			LogDir:        defaultLogDir,
		},
		Limits: Limits{
			CandidatesPerPoll:     defaultCandidatesPerPoll,
			MaxDurationMinutes:    defaultMaxDurationMinutes,
			MaxAudioMB:            defaultMaxAudioMB,
			MaxEpisodeAgeDays:     defaultMaxEpisodeAgeDays,
			PollIntervalMinutes:   defaultPollIntervalMinutes,
			TranscribeWaitMinutes: defaultTranscribeWaitMinutes,
			RunTimeoutMinutes:     defaultRunTimeoutMinutes,
		},
		Transcriber: Transcriber{
			BaseURL:             defaultTranscriberBaseURL,
			PollIntervalSeconds: defaultTranscriberPollSeconds,
		},
		LLM: LLM{
			BaseURL:          defaultLLMBaseURL,
			ContextModel:     defaultContextModel,
			SummaryModel:     defaultSummaryModel,
			ContextPrompt:    defaultContextPrompt,
			SummaryPrompt:    defaultSummaryPrompt,
			TimeoutSeconds:   defaultLLMTimeoutSeconds,
			MaxOutputTokens:  defaultLLMMaxOutputTokens,
			TranscriptSlice:  defaultTranscriptSliceChars,
			ContextMetaChars: defaultContextMetaChars,
		},
		Email: Email{
			TimeoutSeconds: defaultEmailTimeoutSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Retention: Retention{
			ArchiveDays: defaultArchiveRetentionDays,
			TextDays:    defaultTextRetentionDays,
		},
	}
}
