package testsupport

import (
	"path/filepath"
	"testing"

	"signframes/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.ClipStore.BaseURL = "http://127.0.0.1:1/clips"
	cfgVal.Translation.URL = "http://127.0.0.1:1/translate"
	cfgVal.ClipCache.Path = filepath.Join(base, "state", "clips.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithClipStore points the config at a clip store base URL.
func WithClipStore(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.ClipStore.BaseURL = baseURL
	}
}

// WithTranslationURL points the http translation provider at url.
func WithTranslationURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Translation.Provider = config.ProviderHTTP
		b.cfg.Translation.URL = url
	}
}

// WithClipCache enables the sqlite clip cache inside the temp state dir.
func WithClipCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.ClipCache.Enabled = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
