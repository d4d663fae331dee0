package clip

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"time"

	"signframes/internal/frame"
	"signframes/internal/logging"
	"signframes/internal/services"
)

// DefaultFrameDuration applies when a GIF does not declare a frame delay.
const DefaultFrameDuration = 100 * time.Millisecond

// Source returns the raw GIF bytes stored for a token. Implementations return
// an error wrapping services.ErrNotFound when the store has no clip.
type Source interface {
	Get(ctx context.Context, token string) ([]byte, error)
}

// Fetcher turns tokens into normalized clips. It never fails: every problem
// becomes an empty clip plus a log event.
type Fetcher struct {
	source          Source
	normalizer      *frame.Normalizer
	defaultDuration time.Duration
	maxPixels       int
	logger          *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithDefaultFrameDuration overrides the duration used for GIFs without a delay.
func WithDefaultFrameDuration(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.defaultDuration = d
		}
	}
}

// WithMaxSourcePixels caps the logical screen size of accepted GIFs.
func WithMaxSourcePixels(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxPixels = n
		}
	}
}

// WithLogger attaches a logger for clip events.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher constructs a fetcher reading from source.
func NewFetcher(source Source, normalizer *frame.Normalizer, opts ...Option) *Fetcher {
	if normalizer == nil {
		normalizer = frame.NewNormalizer(frame.DefaultTargetHeight, frame.DefaultQuality)
	}
	f := &Fetcher{
		source:          source,
		normalizer:      normalizer,
		defaultDuration: DefaultFrameDuration,
		maxPixels:       DefaultMaxSourcePixels,
		logger:          logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.NewComponentLogger(f.logger, "clip-fetcher")
	return f
}

// Fetch returns the clip for token, or the empty clip when it cannot be
// retrieved, decoded, or normalized.
func (f *Fetcher) Fetch(ctx context.Context, token string) Clip {
	logger := logging.WithContext(services.WithToken(ctx, token), f.logger)
	if f.source == nil || token == "" {
		return Clip{}
	}

	data, err := f.source.Get(ctx, token)
	if err != nil {
		f.report(ctx, logger, "fetch", err)
		return Clip{}
	}

	anim, err := DecodeGIF(data, f.maxPixels)
	if err != nil {
		f.report(ctx, logger, "decode", err)
		return Clip{}
	}

	duration := f.defaultDuration
	if anim.Delay > 0 {
		duration = anim.Delay
	}
	seconds := duration.Seconds()

	frames := make([]Frame, 0, anim.Len())
	err = anim.Each(func(img image.Image) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		encoded, err := f.normalizer.Normalize(img)
		if err != nil {
			return err
		}
		frames = append(frames, Frame{Data: encoded, Duration: seconds})
		return nil
	})
	if err != nil {
		f.report(ctx, logger, "normalize", err)
		return Clip{}
	}

	logger.Debug("clip fetched",
		logging.Int("frames", len(frames)),
		logging.Duration("frame_duration", duration),
	)
	return Clip{Frames: frames}
}

func (f *Fetcher) report(ctx context.Context, logger *slog.Logger, reason string, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		logger.Debug("clip not found",
			logging.String(logging.FieldEventType, "clip_unavailable"),
			logging.String("reason", "not_found"),
		)
	case ctx.Err() != nil:
		logger.Debug("clip fetch cancelled",
			logging.String(logging.FieldEventType, "clip_unavailable"),
			logging.String("reason", "cancelled"),
			logging.Error(err),
		)
	default:
		logging.WarnWithContext(logger, "clip unavailable", "clip_unavailable",
			logging.String("reason", reason),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check clip_store.base_url and the clip file"),
			logging.String(logging.FieldImpact, "token renders with fewer frames"),
		)
	}
}
