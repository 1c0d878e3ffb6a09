package config

const (
	defaultDataDir          = "~/.local/share/murmur"
	defaultLogDir           = "~/.local/share/murmur/logs"
	defaultWhisperBinary    = "whisper"
	defaultWhisperLanguage  = "en"
	defaultWhisperTimeout   = 3600
	defaultFFprobeBinary    = "ffprobe"
	defaultDebounceMillis   = 1000
	defaultRetryDelaySecs   = 5
	defaultMaxRetryAttempts = 3
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Whisper: Whisper{
			Binary:         defaultWhisperBinary,
			Language:       defaultWhisperLanguage,
			TimeoutSeconds: defaultWhisperTimeout,
		},
		Ingest: Ingest{
			FFprobeBinary:    defaultFFprobeBinary,
			DebounceMillis:   defaultDebounceMillis,
			RetryDelaySecs:   defaultRetryDelaySecs,
			MaxRetryAttempts: defaultMaxRetryAttempts,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
