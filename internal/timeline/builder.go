package timeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"signframes/internal/clip"
	"signframes/internal/logging"
	"signframes/internal/services"
)

// DefaultConcurrency bounds concurrent token resolutions per request.
const DefaultConcurrency = 4

// WordResolver resolves one token to a clip.
type WordResolver interface {
	Resolve(ctx context.Context, token string) clip.Clip
}

// Builder assembles timelines by resolving tokens on a bounded worker pool.
type Builder struct {
	resolver    WordResolver
	concurrency int
	logger      *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithConcurrency sets the worker pool size.
func WithConcurrency(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a builder backed by resolver.
func NewBuilder(resolver WordResolver, opts ...BuilderOption) *Builder {
	b := &Builder{
		resolver:    resolver,
		concurrency: DefaultConcurrency,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = logging.NewComponentLogger(b.logger, "timeline")
	return b
}

// Build resolves every token of signGrammar and returns the timeline in token
// order. It fails only on blank grammar or cancellation; missing clips just
// produce empty words.
func (b *Builder) Build(ctx context.Context, originalText, signGrammar string) (*Timeline, error) {
	tokens := Tokenize(signGrammar)
	if len(tokens) == 0 {
		return nil, services.Wrap(services.ErrEmptyGrammar, "timeline", "build", "no tokens in sign grammar", nil)
	}

	start := time.Now()
	words := make([]WordEntry, len(tokens))

	workers := b.concurrency
	if workers > len(tokens) {
		workers = len(tokens)
	}
	indexes := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexes {
				words[i] = WordEntry{Token: tokens[i], Clip: b.resolver.Resolve(ctx, tokens[i])}
			}
		}()
	}

dispatch:
	for i := range tokens {
		select {
		case indexes <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(indexes)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tl := &Timeline{
		OriginalText:  originalText,
		SignGrammar:   signGrammar,
		Words:         words,
		TotalDuration: totalDuration(words),
	}
	logging.WithContext(ctx, b.logger).Info("timeline built",
		logging.Int("tokens", len(tokens)),
		logging.Int("frames", tl.FrameCount()),
		logging.Float64("total_duration", tl.TotalDuration),
		logging.Duration("elapsed", time.Since(start)),
	)
	return tl, nil
}
