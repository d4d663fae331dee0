package config

const (
	defaultConfigPath              = "~/.config/signframes/config.toml"
	defaultStateDir                = "~/.local/share/signframes"
	defaultLogDir                  = "~/.local/share/signframes/logs"
	defaultBind                    = "0.0.0.0:8000"
	defaultRequestTimeoutSeconds   = 120
	defaultTranslationProvider     = ProviderHTTP
	defaultTranslationTimeout      = 30
	defaultOpenAIModel             = "gpt-4o-mini"
	defaultFetchTimeoutSeconds     = 10
	defaultMaxClipBytes            = 20 << 20
	defaultConcurrency             = 4
	defaultBreakerFailureThreshold = 5
	defaultBreakerCooldownSeconds  = 30
	defaultTargetHeight            = 480
	defaultJPEGQuality             = 75
	defaultFrameDurationMS         = 100
	defaultMaxSourcePixels         = 2048 * 2048
	defaultClipCachePath           = "~/.local/share/signframes/clips.db"
	defaultClipCacheTTLHours       = 168
	defaultClipCacheNegativeTTL    = 10
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// Translation providers.
const (
	ProviderHTTP   = "http"
	ProviderOpenAI = "openai"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Server: Server{
			Bind:                  defaultBind,
			AllowedOrigins:        []string{"*"},
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		Translation: Translation{
			Provider:       defaultTranslationProvider,
			TimeoutSeconds: defaultTranslationTimeout,
			OpenAIModel:    defaultOpenAIModel,
		},
		ClipStore: ClipStore{
			FetchTimeoutSeconds:     defaultFetchTimeoutSeconds,
			MaxClipBytes:            defaultMaxClipBytes,
			Concurrency:             defaultConcurrency,
			BreakerFailureThreshold: defaultBreakerFailureThreshold,
			BreakerCooldownSeconds:  defaultBreakerCooldownSeconds,
		},
		Frames: Frames{
			TargetHeight:           defaultTargetHeight,
			JPEGQuality:            defaultJPEGQuality,
			DefaultFrameDurationMS: defaultFrameDurationMS,
			MaxSourcePixels:        defaultMaxSourcePixels,
		},
		ClipCache: ClipCache{
			Path:               defaultClipCachePath,
			TTLHours:           defaultClipCacheTTLHours,
			NegativeTTLMinutes: defaultClipCacheNegativeTTL,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
