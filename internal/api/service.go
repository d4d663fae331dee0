package api

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"signframes/internal/logging"
	"signframes/internal/services"
	"signframes/internal/timeline"
	"signframes/internal/translate"
)

// TimelineBuilder assembles a timeline from translated sign grammar.
type TimelineBuilder interface {
	Build(ctx context.Context, originalText, signGrammar string) (*timeline.Timeline, error)
}

// FramesService runs the full text-to-frames pipeline for one request.
type FramesService struct {
	translator translate.Translator
	builder    TimelineBuilder
	logger     *slog.Logger
}

// NewFramesService wires the pipeline stages.
func NewFramesService(translator translate.Translator, builder TimelineBuilder, logger *slog.Logger) *FramesService {
	return &FramesService{
		translator: translator,
		builder:    builder,
		logger:     logging.NewComponentLogger(logger, "frames"),
	}
}

// Frames validates the request, translates the text, and builds the
// response. Validation runs before any network call; translation completes
// before any clip is fetched.
func (s *FramesService) Frames(ctx context.Context, req FramesRequest) (*FramesResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	logger := logging.WithContext(ctx, s.logger)

	grammar, err := s.translator.Translate(ctx, req.Text)
	if err != nil {
		logging.WarnWithContext(logger, "translation failed", "translation_failed",
			logging.Error(err),
			logging.Int("status", services.HTTPStatus(err)),
			logging.String(logging.FieldErrorHint, "check translation.url and the translation service"),
			logging.String(logging.FieldImpact, "request rejected"),
		)
		return nil, err
	}
	if strings.TrimSpace(grammar) == "" {
		return nil, services.Wrap(services.ErrEmptyGrammar, "frames", "translate", "translation returned no sign grammar", nil)
	}
	logger.Debug("text translated", logging.String("sign_grammar", grammar))

	tl, err := s.builder.Build(ctx, req.Text, grammar)
	if err != nil {
		return nil, err
	}
	resp := FromTimeline(tl)
	return &resp, nil
}

// ErrorDetail returns the client-facing message for a pipeline error.
func ErrorDetail(err error) string {
	var upstream *services.UpstreamError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, services.ErrInvalidInput):
		return "Text cannot be empty"
	case errors.Is(err, services.ErrEmptyGrammar):
		return "No sign grammar returned"
	case errors.As(err, &upstream):
		if upstream.Detail != "" {
			return upstream.Detail
		}
		return "Upstream service failed"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, services.ErrTimeout):
		return "Request timed out"
	default:
		return "Internal server error"
	}
}
