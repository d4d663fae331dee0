package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"signframes/internal/services"
)

const errorBodyLimit = 4 << 10

// HTTPTranslator posts {"text": ...} to a translation endpoint and reads
// {"sign_grammar": ...} back.
type HTTPTranslator struct {
	url        string
	httpClient *http.Client
}

var _ Translator = (*HTTPTranslator)(nil)

// HTTPOption configures an HTTPTranslator.
type HTTPOption func(*HTTPTranslator)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(t *HTTPTranslator) {
		if client != nil {
			t.httpClient = client
		}
	}
}

// WithTimeout bounds each translation request.
func WithTimeout(d time.Duration) HTTPOption {
	return func(t *HTTPTranslator) {
		if d > 0 {
			t.httpClient = &http.Client{Timeout: d, Transport: t.httpClient.Transport}
		}
	}
}

// NewHTTP creates a translator for the given endpoint URL.
func NewHTTP(url string, opts ...HTTPOption) (*HTTPTranslator, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("translation url required")
	}
	t := &HTTPTranslator{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

type translateRequest struct {
	Text string `json:"text"`
}

type translateResponse struct {
	SignGrammar string `json:"sign_grammar"`
}

// Translate returns the sign grammar for text. Non-200 answers become an
// UpstreamError carrying the status; transport and decode failures become
// an UpstreamError without one.
func (t *HTTPTranslator) Translate(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(translateRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("encode translation request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build translation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("translation request: %w", ctxErr)
		}
		return "", &services.UpstreamError{Service: serviceName, Detail: failedDetail, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return "", &services.UpstreamError{
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Detail:     failedDetail,
			Err:        bodyError(body),
		}
	}

	var decoded translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &services.UpstreamError{Service: serviceName, Detail: failedDetail, Err: fmt.Errorf("decode response: %w", err)}
	}
	return decoded.SignGrammar, nil
}

func bodyError(body []byte) error {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil
	}
	return errors.New(trimmed)
}
