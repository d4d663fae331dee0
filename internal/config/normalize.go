package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeTranslation()
	c.normalizeClipStore()
	c.normalizeFrames()
	if err := c.normalizeClipCache(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	if value, ok := os.LookupEnv("SIGNFRAMES_BIND"); ok && strings.TrimSpace(value) != "" {
		c.Server.Bind = value
	}
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	origins := make([]string, 0, len(c.Server.AllowedOrigins))
	seen := make(map[string]struct{}, len(c.Server.AllowedOrigins))
	for _, origin := range c.Server.AllowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	c.Server.AllowedOrigins = origins
	if c.Server.RequestTimeoutSeconds <= 0 {
		c.Server.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.APIToken == "" {
		c.Server.APIToken = strings.TrimSpace(os.Getenv("SIGNFRAMES_API_TOKEN"))
	}
}

func (c *Config) normalizeTranslation() {
	c.Translation.Provider = strings.ToLower(strings.TrimSpace(c.Translation.Provider))
	if c.Translation.Provider == "" {
		c.Translation.Provider = defaultTranslationProvider
	}
	c.Translation.URL = strings.TrimSpace(c.Translation.URL)
	if c.Translation.URL == "" {
		if value, ok := os.LookupEnv("TRANSLATE_URL"); ok {
			c.Translation.URL = strings.TrimSpace(value)
		}
	}
	if c.Translation.TimeoutSeconds <= 0 {
		c.Translation.TimeoutSeconds = defaultTranslationTimeout
	}
	c.Translation.OpenAIAPIKey = strings.TrimSpace(c.Translation.OpenAIAPIKey)
	if c.Translation.OpenAIAPIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Translation.OpenAIAPIKey = strings.TrimSpace(value)
		}
	}
	c.Translation.OpenAIBaseURL = strings.TrimSpace(c.Translation.OpenAIBaseURL)
	c.Translation.OpenAIModel = strings.TrimSpace(c.Translation.OpenAIModel)
	if c.Translation.OpenAIModel == "" {
		c.Translation.OpenAIModel = defaultOpenAIModel
	}
}

func (c *Config) normalizeClipStore() {
	c.ClipStore.BaseURL = strings.TrimSpace(c.ClipStore.BaseURL)
	if c.ClipStore.BaseURL == "" {
		if value, ok := os.LookupEnv("GIF_BASE_URL"); ok {
			c.ClipStore.BaseURL = strings.TrimSpace(value)
		}
	}
	c.ClipStore.BaseURL = strings.TrimRight(c.ClipStore.BaseURL, "/")
	if c.ClipStore.FetchTimeoutSeconds <= 0 {
		c.ClipStore.FetchTimeoutSeconds = defaultFetchTimeoutSeconds
	}
	if c.ClipStore.MaxClipBytes <= 0 {
		c.ClipStore.MaxClipBytes = defaultMaxClipBytes
	}
	if c.ClipStore.Concurrency <= 0 {
		c.ClipStore.Concurrency = defaultConcurrency
	}
	if c.ClipStore.BreakerFailureThreshold <= 0 {
		c.ClipStore.BreakerFailureThreshold = defaultBreakerFailureThreshold
	}
	if c.ClipStore.BreakerCooldownSeconds <= 0 {
		c.ClipStore.BreakerCooldownSeconds = defaultBreakerCooldownSeconds
	}
}

func (c *Config) normalizeFrames() {
	if c.Frames.TargetHeight == 0 {
		c.Frames.TargetHeight = defaultTargetHeight
	}
	if c.Frames.JPEGQuality == 0 {
		c.Frames.JPEGQuality = defaultJPEGQuality
	}
	if c.Frames.DefaultFrameDurationMS <= 0 {
		c.Frames.DefaultFrameDurationMS = defaultFrameDurationMS
	}
	if c.Frames.MaxSourcePixels == 0 {
		c.Frames.MaxSourcePixels = defaultMaxSourcePixels
	}
}

func (c *Config) normalizeClipCache() error {
	var err error
	if strings.TrimSpace(c.ClipCache.Path) == "" {
		c.ClipCache.Path = defaultClipCachePath
	}
	if c.ClipCache.Path, err = expandPath(strings.TrimSpace(c.ClipCache.Path)); err != nil {
		return fmt.Errorf("clip_cache.path: %w", err)
	}
	if c.ClipCache.TTLHours <= 0 {
		c.ClipCache.TTLHours = defaultClipCacheTTLHours
	}
	if c.ClipCache.NegativeTTLMinutes < 0 {
		c.ClipCache.NegativeTTLMinutes = 0
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
