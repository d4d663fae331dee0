package translate

import (
	"context"
	"fmt"

	"signframes/internal/config"
)

// Translator converts natural-language text into sign grammar: a
// whitespace-separated sequence of sign tokens.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Func adapts a plain function to the Translator interface.
type Func func(ctx context.Context, text string) (string, error)

// Translate calls f.
func (f Func) Translate(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// failedDetail is the client-facing message for any translation failure.
const failedDetail = "Translation API failed"

// serviceName labels translation failures in errors and logs.
const serviceName = "translation"

// FromConfig builds the translator selected by translation.provider.
func FromConfig(cfg *config.Config) (Translator, error) {
	switch cfg.Translation.Provider {
	case config.ProviderHTTP:
		return NewHTTP(cfg.Translation.URL, WithTimeout(cfg.TranslationTimeout()))
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.Translation.OpenAIAPIKey,
			WithOpenAIBaseURL(cfg.Translation.OpenAIBaseURL),
			WithOpenAIModel(cfg.Translation.OpenAIModel),
			WithOpenAITimeout(cfg.TranslationTimeout()),
		)
	default:
		return nil, fmt.Errorf("translation provider %q not supported", cfg.Translation.Provider)
	}
}
