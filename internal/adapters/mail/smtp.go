package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/lumengallery/auth-service/internal/domain"
)

// Config holds SMTP delivery settings. An empty Host enables the dev
// fallback, which logs the message instead of sending it.
type Config struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
	Timeout  time.Duration
}

// SMTPNotifier delivers transactional mail over SMTP. Failures and timeouts
// are reported as domain.ErrDelivery so the application layer can surface
// them as a delivery problem rather than a validation one.
type SMTPNotifier struct {
	cfg Config
}

func NewSMTPNotifier(cfg Config) *SMTPNotifier {
	if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = "587"
	}
	if strings.TrimSpace(cfg.From) == "" {
		cfg.From = "no-reply@lumengallery.local"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) Send(ctx context.Context, to, subject, body string) error {
	host := strings.TrimSpace(n.cfg.Host)
	if host == "" {
		// Development fallback: keep flows testable without SMTP.
		slog.Default().InfoContext(ctx, "smtp host not configured, logging message",
			"module", "mail",
			"layer", "adapter",
			"operation", "send",
			"to", to,
			"subject", subject,
			"body", body,
		)
		return nil
	}

	msg := []byte("From: " + n.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" + body + "\r\n")

	addr := net.JoinHostPort(host, n.cfg.Port)
	var auth smtp.Auth
	if strings.TrimSpace(n.cfg.Username) != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, host)
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		// smtp.SendMail cannot be cancelled; on timeout this goroutine is
		// abandoned and its result drains into the buffered channel.
		errCh <- smtp.SendMail(addr, auth, n.cfg.From, []string{to}, msg)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
		}
		return nil
	case <-sendCtx.Done():
		return fmt.Errorf("%w: send timed out", domain.ErrDelivery)
	}
}
