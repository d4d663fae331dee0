package clipstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"signframes/internal/logging"
	"signframes/internal/services"
)

const (
	defaultFetchTimeout     = 10 * time.Second
	defaultMaxClipBytes     = 20 << 20
	defaultFailureThreshold = 5
	defaultCooldown         = 30 * time.Second
)

// Source returns raw GIF bytes for a token.
type Source interface {
	Get(ctx context.Context, token string) ([]byte, error)
}

// ErrClipTooLarge reports a clip body above the configured size cap.
var ErrClipTooLarge = errors.New("clip exceeds size limit")

var errCallerGone = errors.New("caller cancelled")

// HTTPStore reads clips from <baseURL>/<token>.gif.
type HTTPStore struct {
	baseURL          string
	httpClient       *http.Client
	fetchTimeout     time.Duration
	maxBytes         int64
	failureThreshold uint32
	cooldown         time.Duration
	breaker          *gobreaker.CircuitBreaker
	logger           *slog.Logger
}

var _ Source = (*HTTPStore)(nil)

// Option configures an HTTPStore.
type Option func(*HTTPStore)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *HTTPStore) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithFetchTimeout bounds each clip request.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *HTTPStore) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithMaxClipBytes caps the accepted clip body size.
func WithMaxClipBytes(n int64) Option {
	return func(s *HTTPStore) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithBreaker sets how many consecutive failures open the circuit and how
// long it stays open before a trial request.
func WithBreaker(threshold int, cooldown time.Duration) Option {
	return func(s *HTTPStore) {
		if threshold > 0 {
			s.failureThreshold = uint32(threshold)
		}
		if cooldown > 0 {
			s.cooldown = cooldown
		}
	}
}

// WithLogger attaches a logger for breaker transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *HTTPStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHTTPStore creates a clip source for the given base URL.
func NewHTTPStore(baseURL string, opts ...Option) (*HTTPStore, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("clip store base url required")
	}
	store := &HTTPStore{
		baseURL:          strings.TrimRight(baseURL, "/"),
		httpClient:       &http.Client{},
		fetchTimeout:     defaultFetchTimeout,
		maxBytes:         defaultMaxClipBytes,
		failureThreshold: defaultFailureThreshold,
		cooldown:         defaultCooldown,
		logger:           logging.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	store.logger = logging.NewComponentLogger(store.logger, "clip-store")
	store.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "clip-store",
		Timeout: store.cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= store.failureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, services.ErrNotFound) ||
				errors.Is(err, ErrClipTooLarge) ||
				errors.Is(err, errCallerGone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				logging.WarnWithContext(store.logger, "clip store circuit opened", "clip_store_breaker_open",
					logging.String("from", from.String()),
					logging.Duration("cooldown", store.cooldown),
					logging.String(logging.FieldErrorHint, "check clip store availability"),
					logging.String(logging.FieldImpact, "clip fetches fail fast until the cooldown elapses"),
				)
				return
			}
			store.logger.Info("clip store circuit state changed",
				logging.String("from", from.String()),
				logging.String("to", to.String()),
			)
		},
	})
	return store, nil
}

// URL returns the clip location for token.
func (s *HTTPStore) URL(token string) string {
	return s.baseURL + "/" + url.PathEscape(token) + ".gif"
}

// Get fetches the GIF bytes for token. A missing clip yields an error wrapping
// services.ErrNotFound. Server errors, 401, 403 and 429 yield a
// *services.UpstreamError; an open circuit yields gobreaker.ErrOpenState.
func (s *HTTPStore) Get(ctx context.Context, token string) ([]byte, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.fetch(ctx, token)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// State reports the current circuit breaker state.
func (s *HTTPStore) State() gobreaker.State {
	return s.breaker.State()
}

func (s *HTTPStore) fetch(ctx context.Context, token string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	target := s.URL(token)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build clip request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errCallerGone, ctx.Err())
		}
		return nil, &services.UpstreamError{Service: "clip store", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500, isAccessFailure(resp.StatusCode):
		return nil, &services.UpstreamError{Service: "clip store", StatusCode: resp.StatusCode}
	default:
		return nil, fmt.Errorf("clip %q: status %d: %w", token, resp.StatusCode, services.ErrNotFound)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errCallerGone, ctx.Err())
		}
		return nil, &services.UpstreamError{Service: "clip store", Err: fmt.Errorf("read clip body: %w", err)}
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("clip %q: %w (%d bytes)", token, ErrClipTooLarge, s.maxBytes)
	}
	return data, nil
}

// isAccessFailure reports statuses that say nothing about whether the clip
// exists, so they must not be treated as a missing clip.
func isAccessFailure(status int) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return true
	}
	return false
}
