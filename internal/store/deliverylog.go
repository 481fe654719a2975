// internal/store/deliverylog.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	"lending-notifier/internal/notify"
)

// DeliveryLog persists delivery outcomes for operator review. It is an
// optional audit trail; the notification path works without it.
type DeliveryLog struct {
	db *sql.DB
}

func NewDeliveryLog(db *sql.DB) *DeliveryLog {
	return &DeliveryLog{db: db}
}

// Record inserts one delivery outcome.
func (l *DeliveryLog) Record(ctx context.Context, rec notify.DeliveryRecord) error {
	const query = `
		INSERT INTO notification_deliveries
			(application_id, kind, recipient, success, message_id, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := l.db.ExecContext(ctx, query,
		nullable(rec.ApplicationID),
		rec.Kind,
		rec.Recipient,
		rec.Success,
		nullable(rec.MessageID),
		nullable(rec.Error),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert delivery record: %w", err)
	}
	return nil
}

// RecentFailures returns the latest failed deliveries, newest first.
func (l *DeliveryLog) RecentFailures(ctx context.Context, limit int) ([]notify.DeliveryRecord, error) {
	const query = `
		SELECT COALESCE(application_id, ''), kind, recipient, success,
		       COALESCE(message_id, ''), COALESCE(error, ''), created_at
		FROM notification_deliveries
		WHERE success = false
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query delivery failures: %w", err)
	}
	defer rows.Close()

	var records []notify.DeliveryRecord
	for rows.Next() {
		var rec notify.DeliveryRecord
		if err := rows.Scan(
			&rec.ApplicationID, &rec.Kind, &rec.Recipient,
			&rec.Success, &rec.MessageID, &rec.Error, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan delivery record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
