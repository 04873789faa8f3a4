package alerting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"logdata/internal/platform/privacy"
	"logdata/internal/platform/tracer"
	dErrors "logdata/pkg/domain-errors"
)

const DefaultTimeout = 5 * time.Second

// Dispatcher fans one alert out to every recipient, in order, without dedup.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	logger   *slog.Logger
	tracer   tracer.Tracer
	metrics  *Metrics
}

type Option func(*Dispatcher)

// WithTimeout bounds each individual send.
func WithTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

func WithTracer(t tracer.Tracer) Option {
	return func(d *Dispatcher) { d.tracer = t }
}

func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func NewDispatcher(notifier Notifier, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		notifier: notifier,
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends subject/body to each recipient. Every recipient is attempted
// even after a failure. Failures come back as a single alerting_failed error.
func (d *Dispatcher) Dispatch(ctx context.Context, recipients []string, subject, body string) error {
	start := time.Now()
	ctx, span := d.tracer.Start(ctx, tracer.SpanAlertDispatch,
		tracer.Int64(tracer.AttrRecipient, int64(len(recipients))))

	var errs []error
	for _, recipient := range recipients {
		if err := d.send(ctx, Message{Subject: subject, Recipient: recipient, Body: body}); err != nil {
			d.metrics.recordDelivery(false)
			d.logger.WarnContext(ctx, "alert delivery failed",
				"recipient", privacy.MaskEmail(recipient),
				"error", err,
			)
			errs = append(errs, fmt.Errorf("notify %s: %w", privacy.MaskEmail(recipient), err))
			continue
		}
		d.metrics.recordDelivery(true)
	}
	d.metrics.observeDispatch(time.Since(start).Seconds())

	if len(errs) == 0 {
		span.End(nil)
		return nil
	}
	err := &dErrors.Error{
		Code:    dErrors.CodeAlertingFailed,
		Message: fmt.Sprintf("Alert delivery failed for %d of %d recipients", len(errs), len(recipients)),
		Err:     errors.Join(errs...),
	}
	span.End(err)
	return err
}

func (d *Dispatcher) send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.notifier.Send(ctx, msg)
}
