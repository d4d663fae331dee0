package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Server contains configuration for the HTTP API.
type Server struct {
	Bind                  string   `toml:"bind"`
	AllowedOrigins        []string `toml:"allowed_origins"`
	RequestTimeoutSeconds int      `toml:"request_timeout_seconds"`

	// APIToken, when set, is required as a bearer token on /get_frames.
	APIToken string `toml:"api_token"`
}

// Translation contains configuration for the sign grammar translation service.
type Translation struct {
	Provider       string `toml:"provider"`
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	OpenAIAPIKey   string `toml:"openai_api_key"`
	OpenAIBaseURL  string `toml:"openai_base_url"`
	OpenAIModel    string `toml:"openai_model"`
}

// ClipStore contains configuration for the animated clip store.
type ClipStore struct {
	BaseURL                 string `toml:"base_url"`
	FetchTimeoutSeconds     int    `toml:"fetch_timeout_seconds"`
	MaxClipBytes            int64  `toml:"max_clip_bytes"`
	Concurrency             int    `toml:"concurrency"`
	BreakerFailureThreshold int    `toml:"breaker_failure_threshold"`
	BreakerCooldownSeconds  int    `toml:"breaker_cooldown_seconds"`
}

// Frames contains configuration for frame normalization.
type Frames struct {
	TargetHeight           int `toml:"target_height"`
	JPEGQuality            int `toml:"jpeg_quality"`
	DefaultFrameDurationMS int `toml:"default_frame_duration_ms"`
	MaxSourcePixels        int `toml:"max_source_pixels"`
}

// ClipCache contains configuration for the persistent clip cache.
type ClipCache struct {
	Enabled            bool   `toml:"enabled"`
	Path               string `toml:"path"`
	TTLHours           int    `toml:"ttl_hours"`
	NegativeTTLMinutes int    `toml:"negative_ttl_minutes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for signframes.
//
// Configuration sections by subsystem:
//   - Paths: state and log directories
//   - Server: API bind address, CORS origins, request deadline
//   - Translation: sign grammar provider (HTTP service or OpenAI)
//   - ClipStore: GIF store location, fetch limits, worker pool, circuit breaker
//   - Frames: normalization height, JPEG quality, default frame duration
//   - ClipCache: optional sqlite cache of fetched clips
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Server      Server      `toml:"server"`
	Translation Translation `toml:"translation"`
	ClipStore   ClipStore   `toml:"clip_store"`
	Frames      Frames      `toml:"frames"`
	ClipCache   ClipCache   `toml:"clip_cache"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and environment fallbacks applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("signframes.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories, plus the cache
// directory when the clip cache is enabled.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.ClipCache.Enabled && strings.TrimSpace(c.ClipCache.Path) != "" {
		dir := filepath.Dir(c.ClipCache.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create clip cache directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the server instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "signframes.lock")
}

// RequestTimeout returns the per-request deadline for the API.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// FetchTimeout returns the per-fetch deadline for clip store requests.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.ClipStore.FetchTimeoutSeconds) * time.Second
}

// TranslationTimeout returns the deadline for a single translation call.
func (c *Config) TranslationTimeout() time.Duration {
	return time.Duration(c.Translation.TimeoutSeconds) * time.Second
}

// BreakerCooldown returns how long the clip store breaker stays open.
func (c *Config) BreakerCooldown() time.Duration {
	return time.Duration(c.ClipStore.BreakerCooldownSeconds) * time.Second
}

// DefaultFrameDuration returns the frame duration used when a clip carries none.
func (c *Config) DefaultFrameDuration() time.Duration {
	return time.Duration(c.Frames.DefaultFrameDurationMS) * time.Millisecond
}

// CacheTTL returns how long a cached clip stays valid.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.ClipCache.TTLHours) * time.Hour
}

// CacheNegativeTTL returns how long a cached "no clip" answer stays valid.
func (c *Config) CacheNegativeTTL() time.Duration {
	return time.Duration(c.ClipCache.NegativeTTLMinutes) * time.Minute
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
