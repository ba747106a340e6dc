package mail

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/lumengallery/auth-service/internal/domain"
)

func TestNewSMTPNotifierDefaults(t *testing.T) {
	t.Parallel()

	n := NewSMTPNotifier(Config{})
	if n.cfg.Port != "587" {
		t.Fatalf("expected default port 587, got %s", n.cfg.Port)
	}
	if n.cfg.From == "" {
		t.Fatalf("expected default sender")
	}
	if n.cfg.Timeout != 10*time.Second {
		t.Fatalf("expected default timeout, got %v", n.cfg.Timeout)
	}
}

func TestSendWithoutHostUsesDevFallback(t *testing.T) {
	t.Parallel()

	n := NewSMTPNotifier(Config{})
	if err := n.Send(context.Background(), "dev@example.com", "Your verification code", "123456"); err != nil {
		t.Fatalf("dev fallback should not fail: %v", err)
	}
}

func TestSendReportsTimeoutAsDeliveryError(t *testing.T) {
	t.Parallel()

	// A listener that accepts and never sends the SMTP greeting stalls
	// the client until the notifier's deadline fires.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	n := NewSMTPNotifier(Config{Host: host, Port: port, Timeout: 100 * time.Millisecond})

	start := time.Now()
	err = n.Send(context.Background(), "slow@example.com", "Your verification code", "123456")
	if !errors.Is(err, domain.ErrDelivery) {
		t.Fatalf("expected delivery error on timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("send did not honor timeout, took %v", elapsed)
	}
}
