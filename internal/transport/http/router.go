// Package httptransport assembles the public HTTP surface: middleware chain,
// health probes, registration routes, and the token-protected log routes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"logdata/internal/platform/health"
	"logdata/pkg/platform/middleware/auth"
	"logdata/pkg/platform/middleware/metadata"
	"logdata/pkg/platform/middleware/request"
	"logdata/pkg/platform/middleware/requesttime"
)

// RouteRegistrar mounts a module's routes.
type RouteRegistrar interface {
	Register(r chi.Router)
}

type Config struct {
	RequestTimeout time.Duration
	BodyLimitBytes int64
}

type Router struct {
	cfg       Config
	logger    *slog.Logger
	metrics   *request.Metrics
	health    *health.Handler
	metadata  *metadata.Middleware
	tenants   RouteRegistrar
	logs      RouteRegistrar
	logTokens auth.LogTokenAuthenticator
}

type Option func(*Router)

func WithMetrics(m *request.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// WithClientMetadata resolves client IPs before any route runs.
func WithClientMetadata(m *metadata.Middleware) Option {
	return func(r *Router) { r.metadata = m }
}

func WithHealth(h *health.Handler) Option {
	return func(r *Router) { r.health = h }
}

// NewRouter wires tenants as public routes and logs behind log-token auth.
func NewRouter(cfg Config, logger *slog.Logger, tenants, logs RouteRegistrar, logTokens auth.LogTokenAuthenticator, opts ...Option) http.Handler {
	rt := &Router{
		cfg:       cfg,
		logger:    logger,
		tenants:   tenants,
		logs:      logs,
		logTokens: logTokens,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt.build()
}

func (rt *Router) build() http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(rt.logger))
	r.Use(request.RequestID)
	if rt.metadata != nil {
		r.Use(rt.metadata.Handler)
	}
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(rt.logger))
	r.Use(request.Latency(rt.metrics, routePattern))

	if rt.health != nil {
		rt.health.Register(r)
	}

	r.Group(func(r chi.Router) {
		if rt.cfg.BodyLimitBytes > 0 {
			r.Use(request.BodyLimit(rt.cfg.BodyLimitBytes))
		}
		if rt.cfg.RequestTimeout > 0 {
			r.Use(request.Timeout(rt.cfg.RequestTimeout))
		}

		rt.tenants.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireLogToken(rt.logTokens, rt.logger))
			rt.logs.Register(r)
		})
	})

	return r
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
