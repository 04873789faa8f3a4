// Package alerting delivers notifications (registration mail, ERROR-level
// log alerts) through pluggable transports.
package alerting

import (
	"context"
	"errors"
	"log/slog"

	"logdata/internal/platform/privacy"
)

// Message is a single notification to one recipient.
type Message struct {
	Subject   string `json:"subject"`
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
}

// Notifier sends one message. Implementations do not retry.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Multi sends every message through each notifier in order and joins failures.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes notifications to the log instead of delivering them.
// It is the fallback when no SMTP or Kafka transport is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.InfoContext(ctx, "notification",
		"recipient", privacy.MaskEmail(msg.Recipient),
		"subject", msg.Subject,
		"body_bytes", len(msg.Body),
	)
	return nil
}
