package timeline

import (
	"context"
	"log/slog"

	"signframes/internal/clip"
	"signframes/internal/logging"
	"signframes/internal/services"
)

// Fetcher returns the clip for a token, or the empty clip.
type Fetcher interface {
	Fetch(ctx context.Context, token string) clip.Clip
}

// Resolver maps a token to a clip, spelling it letter by letter when no
// whole-token clip exists.
type Resolver struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewResolver creates a resolver backed by fetcher.
func NewResolver(fetcher Fetcher, logger *slog.Logger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		logger:  logging.NewComponentLogger(logger, "word-resolver"),
	}
}

// Resolve returns the whole-token clip when available. Otherwise it fetches
// each character in order and concatenates the ones that resolve; characters
// without a clip are skipped. The result may be empty.
func (r *Resolver) Resolve(ctx context.Context, token string) clip.Clip {
	whole := r.fetcher.Fetch(ctx, token)
	if !whole.Empty() {
		return whole
	}

	letters := make([]clip.Clip, 0, len(token))
	spelled, skipped := 0, 0
	for _, ch := range token {
		if ctx.Err() != nil {
			break
		}
		letter := r.fetcher.Fetch(ctx, string(ch))
		if letter.Empty() {
			skipped++
			continue
		}
		spelled++
		letters = append(letters, letter)
	}

	result := clip.Concat(letters...)
	logging.WithContext(services.WithToken(ctx, token), r.logger).Debug("token spelled by letter",
		logging.Int("letters_resolved", spelled),
		logging.Int("letters_skipped", skipped),
		logging.Int("frames", result.Len()),
	)
	return result
}
