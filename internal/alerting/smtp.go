package alerting

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"logdata/internal/platform/config"
)

var errHeaderInjection = errors.New("header value contains line break")

// sendMailFunc matches smtp.SendMail.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier delivers plain-text mail through an SMTP relay.
type SMTPNotifier struct {
	addr     string
	from     string
	auth     smtp.Auth
	sendMail sendMailFunc
}

// NewSMTPNotifier returns nil when no host is configured.
func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	if cfg.Host == "" {
		return nil
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPNotifier{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from:     cfg.From,
		auth:     auth,
		sendMail: smtp.SendMail,
	}
}

// Send hands the message to the relay. smtp.SendMail takes no context, so
// the call runs in its own goroutine and Send returns when ctx is done.
func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	raw, err := n.compose(msg)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- n.sendMail(n.addr, n.auth, n.from, []string{msg.Recipient}, raw)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

func (n *SMTPNotifier) compose(msg Message) ([]byte, error) {
	for _, v := range []string{n.from, msg.Recipient, msg.Subject} {
		if strings.ContainsAny(v, "\r\n") {
			return nil, errHeaderInjection
		}
	}
	var b strings.Builder
	b.WriteString("From: " + n.from + "\r\n")
	b.WriteString("To: " + msg.Recipient + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String()), nil
}
