package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"signframes/internal/api"
	"signframes/internal/clip"
	"signframes/internal/clipstore"
	"signframes/internal/config"
	"signframes/internal/frame"
	"signframes/internal/logging"
	"signframes/internal/timeline"
	"signframes/internal/translate"
)

// Pipeline holds the wired frames service and the resources it owns.
type Pipeline struct {
	Frames *api.FramesService
	Store  *clipstore.HTTPStore
	Cache  *clipstore.Cache
}

// NewPipeline builds translation, clip fetching, and timeline assembly from
// cfg. The caller must Close the pipeline to release the clip cache.
func NewPipeline(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	translator, err := translate.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("translator: %w", err)
	}

	store, err := clipstore.NewHTTPStore(cfg.ClipStore.BaseURL,
		clipstore.WithFetchTimeout(cfg.FetchTimeout()),
		clipstore.WithMaxClipBytes(cfg.ClipStore.MaxClipBytes),
		clipstore.WithBreaker(cfg.ClipStore.BreakerFailureThreshold, cfg.BreakerCooldown()),
		clipstore.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("clip store: %w", err)
	}

	p := &Pipeline{Store: store}
	var source clip.Source = store
	if cfg.ClipCache.Enabled {
		cache, err := OpenCache(cfg)
		if err != nil {
			return nil, err
		}
		p.Cache = cache
		source = clipstore.NewCachedSource(store, cache, logger)
	}

	normalizer := frame.NewNormalizer(cfg.Frames.TargetHeight, cfg.Frames.JPEGQuality)
	fetcher := clip.NewFetcher(source, normalizer,
		clip.WithDefaultFrameDuration(cfg.DefaultFrameDuration()),
		clip.WithMaxSourcePixels(cfg.Frames.MaxSourcePixels),
		clip.WithLogger(logger),
	)
	builder := timeline.NewBuilder(timeline.NewResolver(fetcher, logger),
		timeline.WithConcurrency(cfg.ClipStore.Concurrency),
		timeline.WithLogger(logger),
	)
	p.Frames = api.NewFramesService(translator, builder, logger)
	return p, nil
}

// OpenCache opens the clip cache at the configured path, creating its
// directory first.
func OpenCache(cfg *config.Config) (*clipstore.Cache, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	cache, err := clipstore.OpenCache(cfg.ClipCache.Path, cfg.CacheTTL(), cfg.CacheNegativeTTL())
	if err != nil {
		return nil, fmt.Errorf("open clip cache: %w", err)
	}
	return cache, nil
}

// ResetCache drops the configured clip cache tables so an incompatible cache
// can be reopened empty.
func ResetCache(ctx context.Context, cfg *config.Config) error {
	if err := clipstore.ResetCache(ctx, cfg.ClipCache.Path); err != nil {
		return fmt.Errorf("reset clip cache: %w", err)
	}
	return nil
}

// Close releases the clip cache, if one was opened.
func (p *Pipeline) Close() error {
	if p == nil || p.Cache == nil {
		return nil
	}
	err := p.Cache.Close()
	p.Cache = nil
	return err
}
