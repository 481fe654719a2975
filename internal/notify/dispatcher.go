// internal/notify/dispatcher.go
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"lending-notifier/internal/common/config"
	"lending-notifier/internal/common/errors"
	"lending-notifier/internal/common/logger"
	"lending-notifier/internal/common/metrics"
	"lending-notifier/internal/mail"
)

// Notification kinds, used for metrics labels and the delivery log.
const (
	KindAdminNotification    = "application_notification"
	KindCustomerConfirmation = "customer_confirmation"
	KindGeneric              = "generic"
)

// DisabledMessageID marks synthetic successes produced by the kill switch.
const DisabledMessageID = "disabled"

// DeliveryResult is the only thing a send ever returns. Transport and
// protocol failures are folded into it; nothing propagates past the
// dispatcher boundary.
type DeliveryResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Dispatcher orchestrates transport acquisition, message composition and
// delivery. Exactly one delivery attempt per call; repeated failures are the
// caller's concern.
type Dispatcher struct {
	selector *mail.Selector
	composer *Composer
	cfg      config.NotificationConfig
	logger   logger.Logger
}

func NewDispatcher(selector *mail.Selector, composer *Composer, cfg config.NotificationConfig, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		selector: selector,
		composer: composer,
		cfg:      cfg,
		logger:   log,
	}
}

// SendApplicationNotification delivers the internal admin notification for a
// new or updated loan application.
func (d *Dispatcher) SendApplicationNotification(ctx context.Context, p *ApplicationPayload) DeliveryResult {
	if !d.cfg.Email.Enabled {
		return d.suppressed(KindAdminNotification)
	}

	return d.deliver(ctx, KindAdminNotification, func() (*mail.Message, error) {
		html, err := d.composer.RenderAdminNotification(p)
		if err != nil {
			return nil, err
		}
		return &mail.Message{
			From:     d.cfg.Email.From,
			FromName: d.cfg.Email.FromName,
			To:       d.cfg.Email.AdminEmail,
			ReplyTo:  p.CustomerEmail,
			Subject:  d.composer.AdminSubject(p),
			HTML:     html,
		}, nil
	})
}

// SendCustomerConfirmation delivers the confirmation to the applicant.
func (d *Dispatcher) SendCustomerConfirmation(ctx context.Context, p *ApplicationPayload) DeliveryResult {
	if !d.cfg.Email.Enabled {
		return d.suppressed(KindCustomerConfirmation)
	}

	return d.deliver(ctx, KindCustomerConfirmation, func() (*mail.Message, error) {
		html, err := d.composer.RenderCustomerConfirmation(p)
		if err != nil {
			return nil, err
		}
		return &mail.Message{
			From:     d.cfg.Email.From,
			FromName: d.cfg.Email.FromName,
			To:       p.CustomerEmail,
			Subject:  d.composer.CustomerSubject(p),
			HTML:     html,
		}, nil
	})
}

// SendEmail delivers an arbitrary pre-rendered HTML email.
func (d *Dispatcher) SendEmail(ctx context.Context, to, subject, html string) DeliveryResult {
	if !d.cfg.Email.Enabled {
		return d.suppressed(KindGeneric)
	}

	return d.deliver(ctx, KindGeneric, func() (*mail.Message, error) {
		return &mail.Message{
			From:     d.cfg.Email.From,
			FromName: d.cfg.Email.FromName,
			To:       to,
			Subject:  subject,
			HTML:     html,
		}, nil
	})
}

// deliver acquires a verified-live transport, then composes the message and
// makes the single delivery attempt. No retry loop, no backoff.
func (d *Dispatcher) deliver(ctx context.Context, kind string, compose func() (*mail.Message, error)) DeliveryResult {
	start := time.Now()
	defer func() {
		metrics.SendDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	transport, err := d.selector.AcquireTransport(ctx)
	if err != nil {
		stdErr := errors.NewTransportUnavailableError(err.Error())
		d.logger.Error("no transport available", map[string]interface{}{
			"kind":  kind,
			"error": err.Error(),
		})
		metrics.EmailsFailed.WithLabelValues(kind, string(stdErr.Code)).Inc()
		return DeliveryResult{Success: false, Error: stdErr.Error()}
	}

	msg, err := compose()
	if err != nil {
		return d.composeFailed(kind, err)
	}

	if err := transport.Send(ctx, msg); err != nil {
		// The transport verified moments ago but rejected the send; drop
		// any cached health entry so the next call re-verifies.
		d.selector.Invalidate(ctx, transport.Name())

		stdErr := errors.NewDeliveryFailedError(err)
		d.logger.Error("email delivery failed", map[string]interface{}{
			"kind":      kind,
			"to":        msg.To,
			"transport": transport.Name(),
			"error":     err.Error(),
		})
		metrics.EmailsFailed.WithLabelValues(kind, string(stdErr.Code)).Inc()
		return DeliveryResult{Success: false, Error: stdErr.Error()}
	}

	messageID := newMessageID(msg.From)
	d.logger.Info("email delivered", map[string]interface{}{
		"kind":      kind,
		"to":        msg.To,
		"transport": transport.Name(),
		"messageId": messageID,
	})
	metrics.EmailsSent.WithLabelValues(kind, transport.Name()).Inc()

	return DeliveryResult{Success: true, MessageID: messageID}
}

func (d *Dispatcher) suppressed(kind string) DeliveryResult {
	d.logger.Debug("email sending disabled, suppressing", map[string]interface{}{
		"kind": kind,
	})
	metrics.EmailsSuppressed.WithLabelValues(kind).Inc()
	return DeliveryResult{Success: true, MessageID: DisabledMessageID}
}

func (d *Dispatcher) composeFailed(kind string, err error) DeliveryResult {
	d.logger.Error("message composition failed", map[string]interface{}{
		"kind":  kind,
		"error": err.Error(),
	})
	metrics.EmailsFailed.WithLabelValues(kind, string(errors.ErrCodeInternal)).Inc()
	return DeliveryResult{Success: false, Error: err.Error()}
}

func newMessageID(from string) string {
	domain := "localhost"
	if i := strings.LastIndex(from, "@"); i >= 0 && i < len(from)-1 {
		domain = from[i+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.New().String(), domain)
}
