package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/ec-orders/internal/domain/order"
)

// MemoryEventLog is an in-memory EventLog for tests and local runs.
type MemoryEventLog struct {
	mu        sync.RWMutex
	events    map[string][]*order.Event // orderID -> events
	publisher Publisher
}

func NewMemoryEventLog(publisher Publisher) *MemoryEventLog {
	return &MemoryEventLog{
		events:    make(map[string][]*order.Event),
		publisher: publisher,
	}
}

func (l *MemoryEventLog) Record(ctx context.Context, orderID, eventType, message string, metadata map[string]any) (*order.Event, error) {
	event := &order.Event{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		EventType: eventType,
		Message:   message,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}

	l.mu.Lock()
	l.events[orderID] = append(l.events[orderID], event)
	l.mu.Unlock()

	if l.publisher != nil {
		if err := l.publisher.Publish(ctx, orderID, event); err != nil {
			return nil, err
		}
	}

	return event, nil
}

func (l *MemoryEventLog) ListByOrder(ctx context.Context, orderID string) ([]*order.Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*order.Event(nil), l.events[orderID]...), nil
}

func (l *MemoryEventLog) HasEvent(ctx context.Context, orderID, eventType string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, e := range l.events[orderID] {
		if e.EventType == eventType {
			return true, nil
		}
	}
	return false, nil
}
