package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"signframes/internal/config"
)

func clearServiceEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GIF_BASE_URL", "TRANSLATE_URL", "OPENAI_API_KEY", "SIGNFRAMES_BIND", "SIGNFRAMES_API_TOKEN"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultConfigUsesEnvURLsAndExpandsPaths(t *testing.T) {
	clearServiceEnv(t)
	t.Setenv("GIF_BASE_URL", "https://clips.example.com/gifs/")
	t.Setenv("TRANSLATE_URL", "https://translate.example.com/translate")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "signframes")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.ClipStore.BaseURL != "https://clips.example.com/gifs" {
		t.Fatalf("expected trailing slash trimmed from env base url, got %q", cfg.ClipStore.BaseURL)
	}
	if cfg.Translation.URL != "https://translate.example.com/translate" {
		t.Fatalf("expected translate url from env, got %q", cfg.Translation.URL)
	}
	if cfg.Translation.Provider != config.ProviderHTTP {
		t.Fatalf("expected http provider by default, got %q", cfg.Translation.Provider)
	}
	if cfg.Frames.TargetHeight != 480 {
		t.Fatalf("expected target height 480, got %d", cfg.Frames.TargetHeight)
	}
	if cfg.DefaultFrameDuration() != 100*time.Millisecond {
		t.Fatalf("unexpected default frame duration: %v", cfg.DefaultFrameDuration())
	}
	if cfg.Server.Bind != "0.0.0.0:8000" {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected allowed origins: %v", cfg.Server.AllowedOrigins)
	}
	if cfg.ClipCache.Enabled {
		t.Fatal("expected clip cache disabled by default")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if !strings.HasPrefix(cfg.LockPath(), wantState) {
		t.Fatalf("expected lock path inside state dir, got %q", cfg.LockPath())
	}
}

func TestLoadRequiresClipStoreBaseURL(t *testing.T) {
	clearServiceEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TRANSLATE_URL", "https://translate.example.com")

	_, _, _, err := config.Load("")
	if err == nil {
		t.Fatal("expected error when clip store base url is missing")
	}
	if !strings.Contains(err.Error(), "GIF_BASE_URL") {
		t.Fatalf("expected hint about GIF_BASE_URL, got %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearServiceEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "signframes.toml")

	type payload struct {
		Translation struct {
			Provider     string `toml:"provider"`
			OpenAIAPIKey string `toml:"openai_api_key"`
		} `toml:"translation"`
		ClipStore struct {
			BaseURL     string `toml:"base_url"`
			Concurrency int    `toml:"concurrency"`
		} `toml:"clip_store"`
		Frames struct {
			TargetHeight int `toml:"target_height"`
		} `toml:"frames"`
		Server struct {
			AllowedOrigins []string `toml:"allowed_origins"`
		} `toml:"server"`
	}
	custom := payload{}
	custom.Translation.Provider = "OpenAI"
	custom.Translation.OpenAIAPIKey = "sk-test"
	custom.ClipStore.BaseURL = "http://127.0.0.1:9000/clips"
	custom.ClipStore.Concurrency = 8
	custom.Frames.TargetHeight = 240
	custom.Server.AllowedOrigins = []string{" https://app.example.com/ ", "https://app.example.com", ""}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Translation.Provider != config.ProviderOpenAI {
		t.Fatalf("expected provider to be normalized to openai, got %q", cfg.Translation.Provider)
	}
	if cfg.ClipStore.Concurrency != 8 {
		t.Fatalf("expected concurrency 8, got %d", cfg.ClipStore.Concurrency)
	}
	if cfg.Frames.TargetHeight != 240 {
		t.Fatalf("expected target height 240, got %d", cfg.Frames.TargetHeight)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://app.example.com" {
		t.Fatalf("expected deduplicated origins, got %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Frames.JPEGQuality != 75 {
		t.Fatalf("expected default jpeg quality to survive partial file, got %d", cfg.Frames.JPEGQuality)
	}
}

func TestConfigFileValuesWinOverEnv(t *testing.T) {
	clearServiceEnv(t)
	configPath := filepath.Join(t.TempDir(), "signframes.toml")
	contents := `
[translation]
url = "https://file.example.com/translate"

[clip_store]
base_url = "https://file.example.com/gifs"
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GIF_BASE_URL", "https://env.example.com/gifs")
	t.Setenv("TRANSLATE_URL", "https://env.example.com/translate")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ClipStore.BaseURL != "https://file.example.com/gifs" {
		t.Errorf("expected base url from file, got %q", cfg.ClipStore.BaseURL)
	}
	if cfg.Translation.URL != "https://file.example.com/translate" {
		t.Errorf("expected translate url from file, got %q", cfg.Translation.URL)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "GIF_BASE_URL") {
		t.Fatalf("sample config missing GIF_BASE_URL hint: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Frames.TargetHeight != 480 {
		t.Fatalf("expected sample target height 480, got %d", cfg.Frames.TargetHeight)
	}
	if cfg.Translation.Provider != config.ProviderHTTP {
		t.Fatalf("expected sample provider http, got %q", cfg.Translation.Provider)
	}
}

func validConfig() config.Config {
	cfg := config.Default()
	cfg.ClipStore.BaseURL = "https://clips.example.com"
	cfg.Translation.URL = "https://translate.example.com"
	return cfg
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := map[string]func(*config.Config){
		"missing base url":      func(c *config.Config) { c.ClipStore.BaseURL = "" },
		"non-http base url":     func(c *config.Config) { c.ClipStore.BaseURL = "ftp://clips.example.com" },
		"missing translate url": func(c *config.Config) { c.Translation.URL = "" },
		"unknown provider":      func(c *config.Config) { c.Translation.Provider = "carrier-pigeon" },
		"openai without key": func(c *config.Config) {
			c.Translation.Provider = config.ProviderOpenAI
			c.Translation.OpenAIAPIKey = ""
		},
		"zero concurrency":   func(c *config.Config) { c.ClipStore.Concurrency = 0 },
		"zero fetch timeout": func(c *config.Config) { c.ClipStore.FetchTimeoutSeconds = 0 },
		"negative height":    func(c *config.Config) { c.Frames.TargetHeight = -1 },
		"quality too high":   func(c *config.Config) { c.Frames.JPEGQuality = 101 },
		"negative pixels":    func(c *config.Config) { c.Frames.MaxSourcePixels = -1 },
		"cache without path": func(c *config.Config) {
			c.ClipCache.Enabled = true
			c.ClipCache.Path = " "
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}
}
