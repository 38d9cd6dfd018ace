// Package notifications is the client side of the floor event stream: it
// turns relayed events into notifications, keeps read state and drives
// toasts and reconnects.
package notifications

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"recanto_verde_backend/internal/realtime"

	"github.com/google/uuid"
)

// Group buckets notification types for filtered views.
type Group string

const (
	GroupTable   Group = "table"
	GroupOrder   Group = "order"
	GroupPayment Group = "payment"
)

// Priority decides whether a notification is also shown as a toast.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

var ErrUnknownEvent = errors.New("unknown event type")

// Notification is one received event as the user sees it.
type Notification struct {
	ID        string             `json:"id"`
	Type      realtime.EventType `json:"type"`
	Group     Group              `json:"group"`
	Message   string             `json:"message"`
	Data      json.RawMessage    `json:"data"`
	Timestamp time.Time          `json:"timestamp"`
	Read      bool               `json:"read"`
	Priority  Priority           `json:"priority"`
}

type entry struct {
	n       Notification
	deleted bool
}

// Store is an append-only log of notifications. Deletes leave tombstones
// that are compacted once they outnumber live entries. Unread counts are
// maintained on every mutation so reading them never scans the log.
type Store struct {
	mu            sync.RWMutex
	log           []*entry
	byID          map[string]*entry
	live          int
	unread        int
	unreadByGroup map[Group]int
	now           func() time.Time
}

func NewStore() *Store {
	return &Store{
		byID:          map[string]*entry{},
		unreadByGroup: map[Group]int{},
		now:           time.Now,
	}
}

// Add converts evt into an unread notification and returns a copy of it.
func (s *Store) Add(evt realtime.Event) (Notification, error) {
	group, priority, message, err := describe(evt)
	if err != nil {
		return Notification{}, err
	}
	ts := evt.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	e := &entry{n: Notification{
		ID:        uuid.NewString(),
		Type:      evt.Type,
		Group:     group,
		Message:   message,
		Data:      append(json.RawMessage(nil), evt.Data...),
		Timestamp: ts,
		Priority:  priority,
	}}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, e)
	s.byID[e.n.ID] = e
	s.live++
	s.unread++
	s.unreadByGroup[group]++
	return e.n, nil
}

// MarkAsRead reports whether id exists. Marking twice is a no-op.
func (s *Store) MarkAsRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return false
	}
	s.markRead(e)
	return true
}

func (s *Store) MarkAllAsRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.log {
		if !e.deleted {
			s.markRead(e)
		}
	}
}

// markRead must be called with mu held.
func (s *Store) markRead(e *entry) {
	if e.n.Read {
		return
	}
	e.n.Read = true
	s.unread--
	s.unreadByGroup[e.n.Group]--
}

// Delete reports whether id existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return false
	}
	if !e.n.Read {
		s.unread--
		s.unreadByGroup[e.n.Group]--
	}
	e.deleted = true
	delete(s.byID, id)
	s.live--
	if len(s.log)-s.live > s.live {
		s.compact()
	}
	return true
}

// compact must be called with mu held.
func (s *Store) compact() {
	kept := make([]*entry, 0, s.live)
	for _, e := range s.log {
		if !e.deleted {
			kept = append(kept, e)
		}
	}
	s.log = kept
}

func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = nil
	s.byID = map[string]*entry{}
	s.live = 0
	s.unread = 0
	s.unreadByGroup = map[Group]int{}
}

// List returns every notification, newest first.
func (s *Store) List() []Notification {
	return s.collect(func(Notification) bool { return true })
}

// ByGroup returns the notifications of one group, newest first.
func (s *Store) ByGroup(g Group) []Notification {
	return s.collect(func(n Notification) bool { return n.Group == g })
}

// Unread returns the unread notifications, newest first.
func (s *Store) Unread() []Notification {
	return s.collect(func(n Notification) bool { return !n.Read })
}

func (s *Store) collect(keep func(Notification) bool) []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, 0, s.live)
	for i := len(s.log) - 1; i >= 0; i-- {
		e := s.log[i]
		if !e.deleted && keep(e.n) {
			out = append(out, e.n)
		}
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

func (s *Store) UnreadCountByGroup(g Group) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unreadByGroup[g]
}

func describe(evt realtime.Event) (Group, Priority, string, error) {
	switch evt.Type {
	case realtime.EventTableUpdated, realtime.EventTableStatusChanged:
		var p realtime.TablePayload
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			return "", "", "", fmt.Errorf("decoding %s: %w", evt.Type, err)
		}
		if evt.Type == realtime.EventTableUpdated {
			return GroupTable, PriorityNormal, fmt.Sprintf("Table %d was updated", p.TableNumber), nil
		}
		return GroupTable, PriorityNormal, fmt.Sprintf("Table %d is now %s", p.TableNumber, p.Status), nil

	case realtime.EventNewOrder, realtime.EventOrderReady:
		var p realtime.OrderPayload
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			return "", "", "", fmt.Errorf("decoding %s: %w", evt.Type, err)
		}
		if evt.Type == realtime.EventNewOrder {
			return GroupOrder, PriorityNormal, fmt.Sprintf("New order #%d at table %d", p.OrderID, p.TableNumber), nil
		}
		return GroupOrder, PriorityHigh, fmt.Sprintf("Order #%d for table %d is ready", p.OrderID, p.TableNumber), nil

	case realtime.EventPaymentRequested:
		var p realtime.PaymentPayload
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			return "", "", "", fmt.Errorf("decoding %s: %w", evt.Type, err)
		}
		return GroupPayment, PriorityHigh, fmt.Sprintf("Table %d requested the bill (%s)", p.TableNumber, p.TotalAmount.StringFixed(2)), nil
	}
	return "", "", "", fmt.Errorf("%w: %q", ErrUnknownEvent, evt.Type)
}
