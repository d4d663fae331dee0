package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateClipStore(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateFrames(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"server.request_timeout_seconds":       c.Server.RequestTimeoutSeconds,
		"translation.timeout_seconds":          c.Translation.TimeoutSeconds,
		"clip_store.fetch_timeout_seconds":     c.ClipStore.FetchTimeoutSeconds,
		"clip_store.concurrency":               c.ClipStore.Concurrency,
		"clip_store.breaker_failure_threshold": c.ClipStore.BreakerFailureThreshold,
		"clip_store.breaker_cooldown_seconds":  c.ClipStore.BreakerCooldownSeconds,
	}); err != nil {
		return err
	}
	if c.ClipCache.Enabled && strings.TrimSpace(c.ClipCache.Path) == "" {
		return errors.New("clip_cache.path must be set when clip_cache.enabled is true")
	}
	return nil
}

func (c *Config) validateClipStore() error {
	if c.ClipStore.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("clip_store.base_url is required. Set GIF_BASE_URL env var or edit %s (create with 'signframes config init')", defaultPath)
	}
	if err := validateHTTPURL("clip_store.base_url", c.ClipStore.BaseURL); err != nil {
		return err
	}
	if c.ClipStore.MaxClipBytes <= 0 {
		return errors.New("clip_store.max_clip_bytes must be positive")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	switch c.Translation.Provider {
	case ProviderHTTP:
		if c.Translation.URL == "" {
			return errors.New("translation.url is required for the http provider (or set TRANSLATE_URL)")
		}
		return validateHTTPURL("translation.url", c.Translation.URL)
	case ProviderOpenAI:
		if c.Translation.OpenAIAPIKey == "" {
			return errors.New("translation.openai_api_key is required for the openai provider (or set OPENAI_API_KEY)")
		}
		if c.Translation.OpenAIBaseURL != "" {
			return validateHTTPURL("translation.openai_base_url", c.Translation.OpenAIBaseURL)
		}
		return nil
	default:
		return fmt.Errorf("translation.provider: unsupported value %q (want %q or %q)", c.Translation.Provider, ProviderHTTP, ProviderOpenAI)
	}
}

func (c *Config) validateFrames() error {
	if c.Frames.TargetHeight <= 0 {
		return errors.New("frames.target_height must be positive")
	}
	if c.Frames.JPEGQuality < 1 || c.Frames.JPEGQuality > 100 {
		return errors.New("frames.jpeg_quality must be between 1 and 100")
	}
	if c.Frames.MaxSourcePixels <= 0 {
		return errors.New("frames.max_source_pixels must be positive")
	}
	return nil
}

func validateHTTPURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", key, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", key, value)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
