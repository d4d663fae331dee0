package clipstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"signframes/internal/logging"
	"signframes/internal/services"
)

// CachedSource serves clips from a Cache and falls back to an upstream
// Source on a miss. Successful fetches and not-found answers are recorded;
// transient failures are not.
type CachedSource struct {
	upstream Source
	cache    *Cache
	logger   *slog.Logger
}

var _ Source = (*CachedSource)(nil)

// NewCachedSource wraps upstream with cache.
func NewCachedSource(upstream Source, cache *Cache, logger *slog.Logger) *CachedSource {
	return &CachedSource{
		upstream: upstream,
		cache:    cache,
		logger:   logging.NewComponentLogger(logger, "clip-cache"),
	}
}

// Get returns cached bytes for token when live, otherwise asks upstream.
func (s *CachedSource) Get(ctx context.Context, token string) ([]byte, error) {
	if s.cache == nil {
		return s.upstream.Get(ctx, token)
	}
	logger := logging.WithContext(services.WithToken(ctx, token), s.logger)

	entry, ok, err := s.cache.Lookup(ctx, token)
	switch {
	case err != nil:
		logging.WarnWithContext(logger, "clip cache lookup failed", "clip_cache_lookup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run 'signframes cache clear' if the cache is corrupt"),
			logging.String(logging.FieldImpact, "clip fetched from the clip store instead"),
		)
	case ok && entry.Missing:
		logger.Debug("clip cache hit", logging.Bool("missing", true))
		return nil, fmt.Errorf("clip %q (cached): %w", token, services.ErrNotFound)
	case ok:
		logger.Debug("clip cache hit", logging.Int("bytes", len(entry.Data)))
		return entry.Data, nil
	}

	data, err := s.upstream.Get(ctx, token)
	switch {
	case err == nil:
		if storeErr := s.cache.Store(ctx, token, data); storeErr != nil {
			logger.Debug("clip cache store failed", logging.Error(storeErr))
		}
		return data, nil
	case errors.Is(err, services.ErrNotFound):
		if storeErr := s.cache.StoreMissing(ctx, token); storeErr != nil {
			logger.Debug("clip cache store failed", logging.Error(storeErr))
		}
		return nil, err
	default:
		return nil, err
	}
}
