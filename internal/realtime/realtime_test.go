package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recanto_verde_backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newHubServer(hub *Hub) *httptest.Server {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set("userRole", c.Query("role"))
		c.Set("userID", int64(7))
		c.Next()
	}, hub.HandleWebSocket)
	return httptest.NewServer(r)
}

func dial(t *testing.T, srv *httptest.Server, role string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?role=" + role
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", role, err)
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return evt
}

func TestHubRoutesEventsByRole(t *testing.T) {
	hub := NewHub(8)
	events := make(chan Event, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx, events)

	srv := newHubServer(hub)
	defer srv.Close()

	waiter := dial(t, srv, models.RoleWaiter)
	defer waiter.Close()
	admin := dial(t, srv, models.RoleSuperadmin)
	defer admin.Close()
	waitFor(t, "both rooms", func() bool {
		return hub.RoomSize(models.RoleWaiter) == 1 && hub.RoomSize(models.RoleSuperadmin) == 1
	})

	ready, err := NewEvent(EventOrderReady, OrderPayload{OrderID: 3, TableID: 1, TableNumber: 1})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	updated, err := TableEvent(EventTableUpdated, &models.Table{ID: 1, TableNumber: 1, Status: models.TableStatusOccupied})
	if err != nil {
		t.Fatalf("TableEvent: %v", err)
	}
	events <- ready
	events <- updated

	if got := readEvent(t, waiter).Type; got != EventOrderReady {
		t.Errorf("waiter first event = %s, want %s", got, EventOrderReady)
	}
	if got := readEvent(t, waiter).Type; got != EventTableUpdated {
		t.Errorf("waiter second event = %s, want %s", got, EventTableUpdated)
	}
	// order-ready is waiter-only, so the admin's first event is the table update.
	evt := readEvent(t, admin)
	if evt.Type != EventTableUpdated {
		t.Fatalf("admin first event = %s, want %s", evt.Type, EventTableUpdated)
	}
	var payload TablePayload
	if err := json.Unmarshal(evt.Data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.TableNumber != 1 || payload.Status != models.TableStatusOccupied {
		t.Errorf("payload = %+v", payload)
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(1)
	events := make(chan Event)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx, events)

	slow := &Client{ID: "slow", Role: models.RoleWaiter, send: make(chan []byte, 1)}
	hub.register <- slow

	evt, _ := NewEvent(EventNewOrder, OrderPayload{OrderID: 1})
	events <- evt
	events <- evt

	waitFor(t, "slow client removal", func() bool { return hub.RoomSize(models.RoleWaiter) == 0 })
	if _, ok := <-slow.send; !ok {
		t.Fatal("first event should still be queued")
	}
	if _, ok := <-slow.send; ok {
		t.Fatal("send channel should be closed after the drop")
	}
}

func TestHandleWebSocketRejectsUnknownRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(0)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ws", nil)
	c.Set("userRole", "chef")

	hub.HandleWebSocket(c)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestAudience(t *testing.T) {
	tests := []struct {
		event EventType
		want  []string
	}{
		{EventOrderReady, []string{models.RoleWaiter}},
		{EventNewOrder, []string{models.RoleWaiter, models.RoleSuperadmin}},
		{EventPaymentRequested, []string{models.RoleWaiter, models.RoleSuperadmin}},
		{EventTableStatusChanged, []string{models.RoleWaiter, models.RoleSuperadmin}},
	}
	for _, tt := range tests {
		got := Audience(tt.event)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("Audience(%s) = %v, want %v", tt.event, got, tt.want)
		}
	}
}

func TestPaymentPayloadWireFormat(t *testing.T) {
	evt, err := NewEvent(EventPaymentRequested, PaymentPayload{
		OrderID: 9, TableID: 2, TableNumber: 4, TotalAmount: decimal.RequireFromString("25.50"),
	})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(evt.Data, &fields); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"orderId", "tableId", "tableNumber", "totalAmount"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("payload missing %q: %s", key, evt.Data)
		}
	}
}

func TestMemoryBrokerSubscription(t *testing.T) {
	b := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := b.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	evt, _ := NewEvent(EventNewOrder, OrderPayload{OrderID: 1})
	if err := b.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case got := <-ch:
		if got.Type != EventNewOrder {
			t.Errorf("got %s, want %s", got.Type, EventNewOrder)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	cancel()
	waitFor(t, "subscription close", func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	})

	b.Close()
	if err := b.Publish(context.Background(), evt); err == nil {
		t.Error("Publish after Close should fail")
	}
}

func TestRedisBrokerCloseOwnsClient(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	broker := NewRedisBroker(rdb, "floor-events")
	if err := broker.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := rdb.Close(); err == nil {
		t.Error("client still open after broker Close")
	}
}
