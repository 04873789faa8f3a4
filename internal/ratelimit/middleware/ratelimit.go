// Package middleware throttles HTTP routes per client IP.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"logdata/internal/platform/privacy"
	"logdata/internal/ratelimit/metrics"
	"logdata/internal/ratelimit/models"
	"logdata/pkg/platform/httputil"
	"logdata/pkg/requestcontext"
)

const rateLimitExceededMessage = "Too many requests from this IP address. Please try again later."

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

type Middleware struct {
	limiter Limiter
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Middleware)

func WithMetrics(m *metrics.Metrics) Option {
	return func(mw *Middleware) { mw.metrics = m }
}

func New(limiter Limiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{limiter: limiter, logger: logger}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PerIP allows limit requests per client IP within window for the wrapped
// routes. A zero limit disables the check. Store errors fail open.
func (m *Middleware) PerIP(scope string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientIP(r)
			key := scope + ":ip:" + ip

			result, err := m.limiter.Allow(ctx, key, limit, window)
			if err != nil {
				m.logger.ErrorContext(ctx, "rate limit check failed", "scope", scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			m.metrics.IncrementDecision(scope, result.Allowed)
			addRateLimitHeaders(w, result)
			if !result.Allowed {
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"scope", scope,
					"remote_addr_prefix", privacy.AnonymizeIP(ip),
				)
				writeRateLimitExceeded(w, result.RetryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the address resolved by the metadata middleware.
func clientIP(r *http.Request) string {
	if ip := requestcontext.ClientIP(r.Context()); ip != "" {
		return ip
	}
	return privacy.RemoteIP(r.RemoteAddr)
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:            "rate_limit_exceeded",
		ErrorDescription: rateLimitExceededMessage,
		RetryAfter:       retryAfter,
	})
}
