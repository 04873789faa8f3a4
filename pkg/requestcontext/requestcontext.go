// Package requestcontext stores request-scoped values shared by middleware,
// handlers, and services. Every accessor has a safe zero-value fallback so
// services can run outside the HTTP chain (CLI, tests).
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey   struct{}
	requestTimeKey struct{}
	submitterKey   struct{}
	clientIPKey    struct{}
)

// Submitter is the tenant proven by a verified log-submission token.
type Submitter struct {
	TenantName string
	Claims     map[string]any
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithTime injects a fixed "now" for the request. Tests use it to make
// expiry and received_at deterministic.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Now returns the request-scoped time in UTC, falling back to the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t.UTC()
	}
	return time.Now().UTC()
}

func WithSubmitter(ctx context.Context, s *Submitter) context.Context {
	return context.WithValue(ctx, submitterKey{}, s)
}

// GetSubmitter returns the verified submitter, or nil when the request did not
// pass log-token authentication.
func GetSubmitter(ctx context.Context) *Submitter {
	if s, ok := ctx.Value(submitterKey{}).(*Submitter); ok {
		return s
	}
	return nil
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the caller address resolved by the metadata middleware,
// or "" when it did not run.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}
