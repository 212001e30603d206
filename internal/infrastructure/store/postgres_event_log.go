package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/example/ec-orders/internal/domain/order"
)

// Publisher pushes recorded events onto the event bus for downstream
// consumers. Satisfied by kafka.Producer; nil disables publishing.
type Publisher interface {
	Publish(ctx context.Context, key string, value any) error
}

// PostgresEventLog is the append-only audit log backed by PostgreSQL.
// Recorded events are also published to Kafka, the same write-then-publish
// shape as the rest of the store layer.
type PostgresEventLog struct {
	db        *sql.DB
	publisher Publisher
}

func NewPostgresEventLog(db *sql.DB, publisher Publisher) *PostgresEventLog {
	return &PostgresEventLog{db: db, publisher: publisher}
}

func (l *PostgresEventLog) Record(ctx context.Context, orderID, eventType, message string, metadata map[string]any) (*order.Event, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}

	event := &order.Event{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		EventType: eventType,
		Message:   message,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}

	_, err = l.db.ExecContext(ctx,
		`INSERT INTO order_events (id, order_id, event_type, message, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.OrderID, event.EventType, event.Message, metaJSON, event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if l.publisher != nil {
		if err := l.publisher.Publish(ctx, orderID, event); err != nil {
			return nil, err
		}
	}

	return event, nil
}

func (l *PostgresEventLog) ListByOrder(ctx context.Context, orderID string) ([]*order.Event, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, order_id, event_type, message, metadata, created_at
		 FROM order_events
		 WHERE order_id = $1
		 ORDER BY created_at ASC`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*order.Event
	for rows.Next() {
		var e order.Event
		var metaJSON []byte
		if err := rows.Scan(&e.ID, &e.OrderID, &e.EventType, &e.Message, &metaJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metaJSON, &e.Metadata); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

func (l *PostgresEventLog) HasEvent(ctx context.Context, orderID, eventType string) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM order_events WHERE order_id = $1 AND event_type = $2)`,
		orderID, eventType,
	).Scan(&exists)
	return exists, err
}
