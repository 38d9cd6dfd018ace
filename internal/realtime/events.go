// Package realtime relays floor events to connected websocket clients.
// Every connection sits in the room named after its role; an event goes to
// the rooms returned by Audience. Delivery is at most once: nothing is
// buffered for clients that are offline or too slow.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"recanto_verde_backend/internal/models"

	"github.com/shopspring/decimal"
)

// EventType is the wire name of an event.
type EventType string

const (
	EventTableUpdated       EventType = "table-updated"
	EventTableStatusChanged EventType = "table-status-changed"
	EventNewOrder           EventType = "new-order"
	EventOrderReady         EventType = "order-ready"
	EventPaymentRequested   EventType = "payment-requested"
)

// Event is the envelope written to every websocket client.
type Event struct {
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent marshals payload into an event of type t.
func NewEvent(t EventType, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encoding %s payload: %w", t, err)
	}
	return Event{Type: t, Data: data, Timestamp: time.Now().UTC()}, nil
}

// Audience lists the rooms an event type is delivered to.
func Audience(t EventType) []string {
	if t == EventOrderReady {
		return []string{models.RoleWaiter}
	}
	return []string{models.RoleWaiter, models.RoleSuperadmin}
}

// TablePayload is carried by table-updated and table-status-changed.
type TablePayload struct {
	TableID     int64              `json:"tableId"`
	TableNumber int                `json:"tableNumber"`
	Status      models.TableStatus `json:"status"`
}

// OrderPayload is carried by new-order and order-ready.
type OrderPayload struct {
	OrderID     int64 `json:"orderId"`
	TableID     int64 `json:"tableId"`
	TableNumber int   `json:"tableNumber"`
}

// PaymentPayload is carried by payment-requested.
type PaymentPayload struct {
	OrderID     int64           `json:"orderId"`
	TableID     int64           `json:"tableId"`
	TableNumber int             `json:"tableNumber"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// TableEvent builds a table event for t.
func TableEvent(eventType EventType, t *models.Table) (Event, error) {
	return NewEvent(eventType, TablePayload{TableID: t.ID, TableNumber: t.TableNumber, Status: t.Status})
}

// Publisher hands events to the relay. Publish must not block on slow clients.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Broker carries events between publishers and the hub. The in-process
// broker serves one instance; the redis broker lets several instances
// share one event stream.
type Broker interface {
	Publisher
	// Subscribe returns a channel of events that is closed when ctx ends.
	Subscribe(ctx context.Context) (<-chan Event, error)
	Close() error
}
