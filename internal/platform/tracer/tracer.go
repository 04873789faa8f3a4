// Package tracer provides a lightweight tracing abstraction.
//
// Callers depend on the Tracer interface instead of OpenTelemetry APIs so the
// log-token verifier can emit spans in production and run span-free in tests.
//
// Implementations:
//   - NoopTracer: For tests (zero overhead)
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording any error that occurred.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span with the given name and attributes.
	//
	// Example:
	//   ctx, span := tracer.Start(ctx, tracer.SpanLogTokenVerify,
	//       tracer.String(tracer.AttrTenant, tracer.HashValue(name)),
	//   )
	//   defer span.End(nil)
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashValue returns a short SHA-256 prefix of an unverified value so traces can
// be correlated without recording attacker-controlled text verbatim.
func HashValue(v string) string {
	if v == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(v))
	return hex.EncodeToString(hash[:8])
}

// Span names.
const (
	SpanLogTokenVerify  = "logtoken.verify"
	SpanLogTokenKey     = "logtoken.key_resolve"
	SpanAlertDispatch   = "alerting.dispatch"
	SpanTenantKeyLookup = "tenant.key_cache"
)

// Attribute keys.
const (
	AttrTenant    = "tenant.hash"
	AttrOutcome   = "outcome"
	AttrCacheHit  = "cache.hit"
	AttrRecipient = "recipient_count"
)
