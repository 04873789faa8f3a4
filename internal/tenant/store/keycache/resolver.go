package keycache

import (
	"context"
	"errors"
	"log/slog"

	"logdata/internal/platform/tracer"
	"logdata/pkg/platform/sentinel"
	keysync "logdata/pkg/platform/sync"
)

// KeyResolver returns the public key text on record for a tenant.
type KeyResolver interface {
	LookupPublicKey(ctx context.Context, tenantName string) (string, error)
}

// Cache is the storage behind Resolver.
type Cache interface {
	Get(ctx context.Context, tenantName string) (string, error)
	Set(ctx context.Context, tenantName, publicKey string) error
}

// Resolver serves keys from the cache and falls back to the directory.
// Only successful lookups are cached, so a tenant registered a moment ago
// is never shadowed by a stale miss. Cache failures degrade to a directory
// lookup instead of failing the request. Concurrent misses for one tenant
// are filled by a single directory lookup.
type Resolver struct {
	next    KeyResolver
	cache   Cache
	fill    *keysync.ShardedMutex
	logger  *slog.Logger
	tracer  tracer.Tracer
	metrics *Metrics
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

func WithTracer(t tracer.Tracer) Option {
	return func(r *Resolver) { r.tracer = t }
}

func WithMetrics(m *Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

func NewResolver(next KeyResolver, cache Cache, opts ...Option) *Resolver {
	r := &Resolver{
		next:   next,
		cache:  cache,
		fill:   keysync.NewShardedMutex(),
		logger: slog.Default(),
		tracer: tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LookupPublicKey implements KeyResolver.
func (r *Resolver) LookupPublicKey(ctx context.Context, tenantName string) (string, error) {
	ctx, span := r.tracer.Start(ctx, tracer.SpanTenantKeyLookup,
		tracer.String(tracer.AttrTenant, tracer.HashValue(tenantName)))

	text, err := r.cache.Get(ctx, tenantName)
	switch {
	case err == nil:
		r.metrics.recordLookup(resultHit)
		span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, true))
		span.End(nil)
		return text, nil
	case errors.Is(err, sentinel.ErrNotFound):
		r.metrics.recordLookup(resultMiss)
		r.fill.Lock(tenantName)
		defer r.fill.Unlock(tenantName)
		// another request may have filled it while we waited
		if text, err := r.cache.Get(ctx, tenantName); err == nil {
			span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, true))
			span.End(nil)
			return text, nil
		}
	default:
		r.metrics.recordLookup(resultError)
		r.logger.WarnContext(ctx, "public key cache read failed", "error", err)
	}
	span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, false))

	text, err = r.next.LookupPublicKey(ctx, tenantName)
	if err != nil {
		span.End(err)
		return "", err
	}
	if err := r.cache.Set(ctx, tenantName, text); err != nil {
		r.logger.WarnContext(ctx, "public key cache write failed", "error", err)
	}
	span.End(nil)
	return text, nil
}
