// internal/store/deliverylog_test.go
package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lending-notifier/internal/notify"
)

func TestDeliveryLog_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	createdAt := time.Date(2024, time.January, 15, 14, 30, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO notification_deliveries").
		WithArgs(
			sqlmock.AnyArg(), // application_id
			notify.KindAdminNotification,
			"budi@example.com",
			true,
			sqlmock.AnyArg(), // message_id
			sqlmock.AnyArg(), // error
			createdAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	log := NewDeliveryLog(db)
	err = log.Record(context.Background(), notify.DeliveryRecord{
		ApplicationID: "APP-2024-0001",
		Kind:          notify.KindAdminNotification,
		Recipient:     "budi@example.com",
		Success:       true,
		MessageID:     "<abc@danaraya.co.id>",
		CreatedAt:     createdAt,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryLog_RecordError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO notification_deliveries").
		WillReturnError(assertError("connection lost"))

	log := NewDeliveryLog(db)
	err = log.Record(context.Background(), notify.DeliveryRecord{
		Kind:      notify.KindGeneric,
		Recipient: "ops@danaraya.co.id",
		CreatedAt: time.Now().UTC(),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert delivery record")
}

func TestDeliveryLog_RecentFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	createdAt := time.Date(2024, time.January, 15, 14, 30, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"application_id", "kind", "recipient", "success", "message_id", "error", "created_at",
	}).AddRow(
		"APP-2024-0001", notify.KindCustomerConfirmation, "budi@example.com",
		false, "", "DELIVERY_FAILED: relay rejected recipient", createdAt,
	)

	mock.ExpectQuery("SELECT (.+) FROM notification_deliveries").
		WithArgs(10).
		WillReturnRows(rows)

	log := NewDeliveryLog(db)
	records, err := log.RecentFailures(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "APP-2024-0001", records[0].ApplicationID)
	assert.False(t, records[0].Success)
	assert.Contains(t, records[0].Error, "DELIVERY_FAILED")
	assert.NoError(t, mock.ExpectationsWereMet())
}

type assertError string

func (e assertError) Error() string { return string(e) }
