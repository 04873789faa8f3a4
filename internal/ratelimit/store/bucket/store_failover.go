package bucket

import (
	"context"
	"log/slog"
	"time"

	"logdata/internal/ratelimit/models"
	"logdata/pkg/platform/circuit"
)

// Store is a sliding-window counter.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

// FailoverBucketStore uses primary until its breaker opens, then serves from
// fallback and probes primary once per cooldown.
type FailoverBucketStore struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	logger   *slog.Logger
	onState  func(circuit.State)
}

type FailoverOption func(*FailoverBucketStore)

func WithLogger(logger *slog.Logger) FailoverOption {
	return func(s *FailoverBucketStore) { s.logger = logger }
}

// WithStateObserver is called after every breaker transition.
func WithStateObserver(fn func(circuit.State)) FailoverOption {
	return func(s *FailoverBucketStore) { s.onState = fn }
}

func NewFailoverBucketStore(primary, fallback Store, breaker *circuit.Breaker, opts ...FailoverOption) *FailoverBucketStore {
	s := &FailoverBucketStore{
		primary:  primary,
		fallback: fallback,
		breaker:  breaker,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FailoverBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	if !s.breaker.Allow() {
		return s.fallback.Allow(ctx, key, limit, window)
	}

	result, err := s.primary.Allow(ctx, key, limit, window)
	if err != nil {
		if change := s.breaker.RecordFailure(); change.Opened {
			s.logger.WarnContext(ctx, "rate limit store degraded, using fallback",
				"breaker", s.breaker.Name(), "error", err)
			s.notify(circuit.StateOpen)
		}
		return s.fallback.Allow(ctx, key, limit, window)
	}
	if change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "rate limit store recovered", "breaker", s.breaker.Name())
		s.notify(circuit.StateClosed)
	}
	return result, nil
}

func (s *FailoverBucketStore) notify(state circuit.State) {
	if s.onState != nil {
		s.onState(state)
	}
}
