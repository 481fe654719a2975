// internal/notify/queue.go
package notify

import (
	"context"
	"sync"
	"time"

	"lending-notifier/internal/common/errors"
	"lending-notifier/internal/common/logger"
	"lending-notifier/internal/common/metrics"
)

// DeliveryRecord is the audit entry written after each processed item.
type DeliveryRecord struct {
	ApplicationID string    `json:"applicationId,omitempty"`
	Kind          string    `json:"kind"`
	Recipient     string    `json:"recipient"`
	Success       bool      `json:"success"`
	MessageID     string    `json:"messageId,omitempty"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Recorder persists delivery records. The dispatcher itself stays stateless;
// recording happens here, after the fact, and is best-effort.
type Recorder interface {
	Record(ctx context.Context, rec DeliveryRecord) error
}

// Item is one queued outbound notification. Either Payload (application
// kinds) or Email (generic kind) is set.
type Item struct {
	Kind    string
	Payload *ApplicationPayload
	Email   *EmailRequest
}

// EmailRequest carries a generic pre-rendered email.
type EmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Queue is the bounded-concurrency outbound path. Intake handlers enqueue and
// return immediately; a fixed worker set performs the sends. A full queue
// rejects rather than blocks, keeping notification strictly best-effort for
// the business operation that triggered it.
type Queue struct {
	dispatcher *Dispatcher
	recorder   Recorder
	logger     logger.Logger

	items chan Item
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool

	sendTimeout time.Duration
}

func NewQueue(dispatcher *Dispatcher, recorder Recorder, workers, bufferSize int, log logger.Logger) *Queue {
	q := &Queue{
		dispatcher:  dispatcher,
		recorder:    recorder,
		logger:      log,
		items:       make(chan Item, bufferSize),
		sendTimeout: 60 * time.Second,
	}

	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}

	return q
}

// Enqueue adds an item without blocking. A saturated queue returns
// ErrCodeQueueFull; the caller logs and moves on.
func (q *Queue) Enqueue(item Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errors.NewQueueFullError()
	}

	select {
	case q.items <- item:
		metrics.QueueDepth.Set(float64(len(q.items)))
		return nil
	default:
		metrics.QueueRejections.Inc()
		return errors.NewQueueFullError()
	}
}

// Shutdown stops intake and drains in-flight items, bounded by ctx.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.items)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for item := range q.items {
		metrics.QueueDepth.Set(float64(len(q.items)))

		ctx, cancel := context.WithTimeout(context.Background(), q.sendTimeout)
		result := q.process(ctx, item)
		q.record(ctx, item, result)
		cancel()
	}
}

func (q *Queue) process(ctx context.Context, item Item) DeliveryResult {
	switch item.Kind {
	case KindAdminNotification:
		return q.dispatcher.SendApplicationNotification(ctx, item.Payload)
	case KindCustomerConfirmation:
		return q.dispatcher.SendCustomerConfirmation(ctx, item.Payload)
	case KindGeneric:
		return q.dispatcher.SendEmail(ctx, item.Email.To, item.Email.Subject, item.Email.HTML)
	default:
		q.logger.Error("unknown queue item kind", map[string]interface{}{
			"kind": item.Kind,
		})
		stdErr := errors.NewValidationError("unknown notification kind: " + item.Kind)
		return DeliveryResult{Success: false, Error: stdErr.Error()}
	}
}

func (q *Queue) record(ctx context.Context, item Item, result DeliveryResult) {
	if q.recorder == nil {
		return
	}

	rec := DeliveryRecord{
		Kind:      item.Kind,
		Success:   result.Success,
		MessageID: result.MessageID,
		Error:     result.Error,
		CreatedAt: time.Now().UTC(),
	}
	if item.Payload != nil {
		rec.ApplicationID = item.Payload.ApplicationID
		rec.Recipient = item.Payload.CustomerEmail
	}
	if item.Email != nil {
		rec.Recipient = item.Email.To
	}

	if err := q.recorder.Record(ctx, rec); err != nil {
		q.logger.Warn("failed to record delivery result", map[string]interface{}{
			"kind":  item.Kind,
			"error": err.Error(),
		})
	}
}
