// internal/notify/queue_test.go
package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "lending-notifier/internal/common/errors"
	"lending-notifier/internal/common/logger"
)

type MockRecorder struct {
	mu      sync.Mutex
	records []DeliveryRecord
}

func (m *MockRecorder) Record(ctx context.Context, rec DeliveryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *MockRecorder) Records() []DeliveryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]DeliveryRecord, len(m.records))
	copy(out, m.records)
	return out
}

func TestQueue_ProcessesAndRecords(t *testing.T) {
	transport := &MockTransport{name: "primary"}
	dispatcher := createTestDispatcher(t, true, transport)
	recorder := &MockRecorder{}

	queue := NewQueue(dispatcher, recorder, 2, 8, logger.NewTestLogger(t))

	require.NoError(t, queue.Enqueue(Item{Kind: KindAdminNotification, Payload: createTestPayload()}))
	require.NoError(t, queue.Enqueue(Item{Kind: KindCustomerConfirmation, Payload: createTestPayload()}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, queue.Shutdown(ctx))

	records := recorder.Records()
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.True(t, rec.Success)
		assert.Equal(t, "APP-2024-0001", rec.ApplicationID)
		assert.NotEmpty(t, rec.MessageID)
	}
	assert.Equal(t, 2, transport.sendCalls)
}

func TestQueue_RejectsWhenFull(t *testing.T) {
	dispatcher := createTestDispatcher(t, false)

	// No workers: nothing drains the buffer.
	queue := NewQueue(dispatcher, nil, 0, 1, logger.NewTestLogger(t))

	require.NoError(t, queue.Enqueue(Item{Kind: KindAdminNotification, Payload: createTestPayload()}))

	err := queue.Enqueue(Item{Kind: KindAdminNotification, Payload: createTestPayload()})
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeQueueFull, commonerrors.CodeOf(err))
}

func TestQueue_EnqueueAfterShutdownFails(t *testing.T) {
	dispatcher := createTestDispatcher(t, false)
	queue := NewQueue(dispatcher, nil, 1, 4, logger.NewTestLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, queue.Shutdown(ctx))

	err := queue.Enqueue(Item{Kind: KindGeneric, Email: &EmailRequest{To: "a@b.co", Subject: "s", HTML: "<p>x</p>"}})
	assert.Error(t, err)
}

func TestQueue_RecordsFailures(t *testing.T) {
	transport := &MockTransport{name: "primary", verifyErr: assertableError("down")}
	dispatcher := createTestDispatcher(t, true, transport)
	recorder := &MockRecorder{}

	queue := NewQueue(dispatcher, recorder, 1, 4, logger.NewTestLogger(t))
	require.NoError(t, queue.Enqueue(Item{Kind: KindGeneric, Email: &EmailRequest{To: "ops@danaraya.co.id", Subject: "s", HTML: "<p>x</p>"}}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, queue.Shutdown(ctx))

	records := recorder.Records()
	require.Len(t, records, 1)
	assert.False(t, records[0].Success)
	assert.Equal(t, "ops@danaraya.co.id", records[0].Recipient)
	assert.NotEmpty(t, records[0].Error)
}

func TestQueue_UnknownKindRecordsValidationFailure(t *testing.T) {
	dispatcher := createTestDispatcher(t, true)
	recorder := &MockRecorder{}

	queue := NewQueue(dispatcher, recorder, 1, 4, logger.NewTestLogger(t))
	require.NoError(t, queue.Enqueue(Item{Kind: "sms"}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, queue.Shutdown(ctx))

	records := recorder.Records()
	require.Len(t, records, 1)
	assert.False(t, records[0].Success)
	assert.Contains(t, records[0].Error, "VALIDATION_FAILED")
}

type assertableError string

func (e assertableError) Error() string { return string(e) }
