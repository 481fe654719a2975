// internal/mail/transport.go
package mail

import (
	"context"
	"fmt"
	"strings"
)

// Message is a fully composed email ready for delivery.
type Message struct {
	From     string
	FromName string
	To       string
	ReplyTo  string
	Subject  string
	HTML     string
}

// Transport is an endpoint capable of performing a protocol handshake and
// submitting a message to a mail relay.
type Transport interface {
	Name() string
	// Verify performs a connectivity and auth check without sending anything.
	// Any error means the transport is currently unusable.
	Verify(ctx context.Context) error
	Send(ctx context.Context, msg *Message) error
}

// FromHeader renders the display-name form of the sender address.
func (m *Message) FromHeader() string {
	if m.FromName == "" {
		return m.From
	}
	return fmt.Sprintf("%s <%s>", m.FromName, m.From)
}

// Bytes renders the RFC 5322 message with headers and an HTML body.
func (m *Message) Bytes() []byte {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("From: %s\r\n", m.FromHeader()))
	builder.WriteString(fmt.Sprintf("To: %s\r\n", m.To))

	if m.ReplyTo != "" {
		builder.WriteString(fmt.Sprintf("Reply-To: %s\r\n", m.ReplyTo))
	}

	builder.WriteString(fmt.Sprintf("Subject: %s\r\n", m.Subject))
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(m.HTML)

	return []byte(builder.String())
}
