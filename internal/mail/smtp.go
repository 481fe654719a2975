// internal/mail/smtp.go
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"lending-notifier/internal/common/config"
)

// SMTPTransport speaks SMTP against a single relay endpoint. Connections are
// opened per operation and carry one message each; MaxConnections bounds
// concurrent use via a semaphore rather than a persistent pool.
type SMTPTransport struct {
	cfg  config.SMTPConfig
	sem  chan struct{}
	auth smtp.Auth
}

func NewSMTPTransport(cfg config.SMTPConfig) *SMTPTransport {
	return &SMTPTransport{
		cfg:  cfg,
		sem:  make(chan struct{}, cfg.MaxConnections),
		auth: smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host),
	}
}

func (t *SMTPTransport) Name() string {
	return t.cfg.Name
}

// Verify opens a connection, completes the greeting, negotiates TLS,
// authenticates and quits. Any failure marks the relay unusable for this send.
func (t *SMTPTransport) Verify(ctx context.Context) error {
	if err := t.acquire(ctx); err != nil {
		return err
	}
	defer t.release()

	client, err := t.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if t.auth != nil {
		if err := client.Auth(t.auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	return client.Quit()
}

// Send delivers one message over a fresh connection.
func (t *SMTPTransport) Send(ctx context.Context, msg *Message) error {
	if err := t.acquire(ctx); err != nil {
		return err
	}
	defer t.release()

	client, err := t.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if t.auth != nil {
		if err := client.Auth(t.auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(msg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("failed to set recipient %s: %w", msg.To, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := w.Write(msg.Bytes()); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

// connect dials the relay and returns a client that has completed the
// greeting and, for non-secure endpoints, STARTTLS. The socket deadline
// bounds every subsequent protocol exchange so an unresponsive relay cannot
// hang a send indefinitely.
func (t *SMTPTransport) connect(ctx context.Context) (*smtp.Client, error) {
	dialer := net.Dialer{Timeout: config.GetDuration(t.cfg.ConnectTimeout)}

	conn, err := dialer.DialContext(ctx, "tcp", t.cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	deadline := time.Now().Add(config.GetDuration(t.cfg.SocketTimeout))
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	tlsConfig := &tls.Config{
		ServerName:         t.cfg.Host,
		InsecureSkipVerify: false,
	}

	if t.cfg.Secure {
		conn = tls.Client(conn, tlsConfig)
	}

	// Tighter deadline for the banner; relays that accept the TCP
	// connection but never greet are a common failure mode.
	greeting := time.Now().Add(config.GetDuration(t.cfg.GreetingTimeout))
	if greeting.After(deadline) {
		greeting = deadline
	}
	if err := conn.SetDeadline(greeting); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set socket deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("SMTP greeting failed: %w", err)
	}

	if err := conn.SetDeadline(deadline); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set socket deadline: %w", err)
	}

	if !t.cfg.Secure {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				client.Close()
				return nil, fmt.Errorf("failed to start TLS: %w", err)
			}
		}
	}

	return client, nil
}

// acquire blocks until a connection slot is free or the context expires.
func (t *SMTPTransport) acquire(ctx context.Context) error {
	select {
	case t.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for SMTP connection slot: %w", ctx.Err())
	}
}

func (t *SMTPTransport) release() {
	<-t.sem
}
