package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	tokenKey     contextKey = "token"
)

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithToken annotates context with the grammar token currently being resolved.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the grammar token if present.
func TokenFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(tokenKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
