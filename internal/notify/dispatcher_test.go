// internal/notify/dispatcher_test.go
package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"lending-notifier/internal/common/config"
	"lending-notifier/internal/common/logger"
	"lending-notifier/internal/mail"
)

// ==========================
// Mock Implementations
// ==========================

type MockTransport struct {
	mu          sync.Mutex
	name        string
	verifyErr   error
	sendErr     error
	verifyCalls int
	sendCalls   int
	lastMessage *mail.Message
}

func (m *MockTransport) Name() string {
	return m.name
}

func (m *MockTransport) Verify(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifyCalls++
	return m.verifyErr
}

func (m *MockTransport) Send(ctx context.Context, msg *mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendCalls++
	m.lastMessage = msg
	return m.sendErr
}

// ==========================
// Test Helper Functions
// ==========================

func createTestNotificationConfig(enabled bool) config.NotificationConfig {
	cfg := config.NotificationConfig{}
	cfg.Email.Enabled = enabled
	cfg.Email.From = "noreply@danaraya.co.id"
	cfg.Email.FromName = "Dana Raya Finance"
	cfg.Email.AdminEmail = "admin@danaraya.co.id"
	return cfg
}

func createTestDispatcher(t *testing.T, enabled bool, transports ...mail.Transport) *Dispatcher {
	selector := mail.NewSelector(transports, logger.NewTestLogger(t))
	composer := createTestComposer()
	return NewDispatcher(selector, composer, createTestNotificationConfig(enabled), logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestDispatcher_SendApplicationNotification_Success(t *testing.T) {
	primary := &MockTransport{name: "primary"}
	d := createTestDispatcher(t, true, primary)

	result := d.SendApplicationNotification(context.Background(), createTestPayload())

	assert.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.True(t, strings.HasPrefix(result.MessageID, "<"))
	assert.True(t, strings.HasSuffix(result.MessageID, "@danaraya.co.id>"))

	assert.Equal(t, 1, primary.verifyCalls)
	assert.Equal(t, 1, primary.sendCalls)
	assert.Equal(t, "admin@danaraya.co.id", primary.lastMessage.To)
	assert.Equal(t, "budi@example.com", primary.lastMessage.ReplyTo)
	assert.Contains(t, primary.lastMessage.Subject, "APP-2024-0001")
}

func TestDispatcher_SendCustomerConfirmation_Success(t *testing.T) {
	primary := &MockTransport{name: "primary"}
	d := createTestDispatcher(t, true, primary)

	result := d.SendCustomerConfirmation(context.Background(), createTestPayload())

	assert.True(t, result.Success)
	assert.Equal(t, "budi@example.com", primary.lastMessage.To)
	assert.Empty(t, primary.lastMessage.ReplyTo)
}

func TestDispatcher_FallbackTransportUsed(t *testing.T) {
	primary := &MockTransport{name: "primary", verifyErr: errors.New("connection refused")}
	fallback := &MockTransport{name: "fallback"}
	d := createTestDispatcher(t, true, primary, fallback)

	result := d.SendApplicationNotification(context.Background(), createTestPayload())

	assert.True(t, result.Success)
	assert.Equal(t, 1, primary.verifyCalls)
	assert.Equal(t, 0, primary.sendCalls)
	assert.Equal(t, 1, fallback.verifyCalls)
	assert.Equal(t, 1, fallback.sendCalls)
}

func TestDispatcher_AllTransportsDown(t *testing.T) {
	primary := &MockTransport{name: "primary", verifyErr: errors.New("connection refused")}
	fallback := &MockTransport{name: "fallback", verifyErr: errors.New("auth failed")}
	d := createTestDispatcher(t, true, primary, fallback)

	result := d.SendApplicationNotification(context.Background(), createTestPayload())

	assert.False(t, result.Success)
	assert.Empty(t, result.MessageID)
	assert.Contains(t, result.Error, "TRANSPORT_UNAVAILABLE")
	assert.Equal(t, 0, primary.sendCalls)
	assert.Equal(t, 0, fallback.sendCalls)
}

func TestDispatcher_DeliveryRejectedAfterVerify(t *testing.T) {
	primary := &MockTransport{name: "primary", sendErr: errors.New("relay rejected recipient")}
	d := createTestDispatcher(t, true, primary)

	result := d.SendApplicationNotification(context.Background(), createTestPayload())

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "DELIVERY_FAILED")
	assert.Equal(t, 1, primary.verifyCalls)
	assert.Equal(t, 1, primary.sendCalls)
}

func TestDispatcher_KillSwitchSuppressesAllSends(t *testing.T) {
	// Garbage transports must never be contacted when disabled.
	primary := &MockTransport{name: "primary", verifyErr: errors.New("should never be called")}
	d := createTestDispatcher(t, false, primary)

	payload := createTestPayload()

	for _, result := range []DeliveryResult{
		d.SendApplicationNotification(context.Background(), payload),
		d.SendCustomerConfirmation(context.Background(), payload),
		d.SendEmail(context.Background(), "ops@danaraya.co.id", "Test", "<p>hi</p>"),
	} {
		assert.True(t, result.Success)
		assert.Equal(t, DisabledMessageID, result.MessageID)
		assert.Empty(t, result.Error)
	}

	assert.Equal(t, 0, primary.verifyCalls)
	assert.Equal(t, 0, primary.sendCalls)
}

func TestDispatcher_SendEmail_Generic(t *testing.T) {
	primary := &MockTransport{name: "primary"}
	d := createTestDispatcher(t, true, primary)

	result := d.SendEmail(context.Background(), "ops@danaraya.co.id", "Laporan Mingguan", "<p>isi laporan</p>")

	assert.True(t, result.Success)
	assert.Equal(t, "ops@danaraya.co.id", primary.lastMessage.To)
	assert.Equal(t, "Laporan Mingguan", primary.lastMessage.Subject)
	assert.Equal(t, "<p>isi laporan</p>", primary.lastMessage.HTML)
}

func TestDispatcher_NeverPanics(t *testing.T) {
	d := createTestDispatcher(t, true) // no transports at all

	assert.NotPanics(t, func() {
		result := d.SendApplicationNotification(context.Background(), createTestPayload())
		assert.False(t, result.Success)
	})
}
