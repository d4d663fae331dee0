package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"signframes/internal/services"
)

const glossPrompt = `You convert English sentences into sign language gloss.
Reply with the gloss only: upper-case sign tokens separated by single spaces,
in sign order, with no punctuation and no commentary. Drop articles and
auxiliary verbs that have no sign. Fingerspell proper names as one token.`

// OpenAITranslator produces sign grammar with an OpenAI chat model.
type OpenAITranslator struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration
	client  *openai.Client
}

var _ Translator = (*OpenAITranslator)(nil)

// OpenAIOption configures an OpenAITranslator.
type OpenAIOption func(*OpenAITranslator)

// WithOpenAIBaseURL points the client at an OpenAI-compatible endpoint.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(t *OpenAITranslator) {
		if url = strings.TrimSpace(url); url != "" {
			t.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithOpenAIModel selects the chat model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(t *OpenAITranslator) {
		if model = strings.TrimSpace(model); model != "" {
			t.model = model
		}
	}
}

// WithOpenAITimeout bounds each completion request.
func WithOpenAITimeout(d time.Duration) OpenAIOption {
	return func(t *OpenAITranslator) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// NewOpenAI creates a translator using the given API key.
func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAITranslator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key required")
	}
	t := &OpenAITranslator{
		apiKey:  apiKey,
		model:   openai.GPT4oMini,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if t.baseURL != "" {
		clientConfig.BaseURL = t.baseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: t.timeout}
	t.client = openai.NewClientWithConfig(clientConfig)
	return t, nil
}

// Translate asks the model for the gloss of text.
func (t *OpenAITranslator) Translate(ctx context.Context, text string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: glossPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
		MaxTokens:   256,
	}

	resp, err := t.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("translation request: %w", ctxErr)
		}
		return "", &services.UpstreamError{
			Service:    serviceName,
			StatusCode: openAIStatus(err),
			Detail:     failedDetail,
			Err:        err,
		}
	}
	if len(resp.Choices) == 0 {
		return "", &services.UpstreamError{Service: serviceName, Detail: failedDetail, Err: errors.New("no choices returned")}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func openAIStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
