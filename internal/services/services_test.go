package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"recanto_verde_backend/internal/models"
	"recanto_verde_backend/internal/realtime"
	"recanto_verde_backend/internal/repositories/memstore"
	"recanto_verde_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) ofType(eventType realtime.EventType) []realtime.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []realtime.Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	p.events = nil
	p.mu.Unlock()
}

type fixture struct {
	ctx    context.Context
	store  *memstore.Store
	pub    *recordingPublisher
	tables TableService
	orders OrderService
	menu   MenuService
	waiter *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	pub := &recordingPublisher{}
	f := &fixture{
		ctx:    context.Background(),
		store:  store,
		pub:    pub,
		tables: NewTableService(store, store, store, pub),
		orders: NewOrderService(store, store, store, store, store, pub),
		menu:   NewMenuService(store),
	}
	f.waiter = &models.User{Name: "Ana", Email: "ana@recanto.test", Role: models.RoleWaiter, IsActive: true}
	if err := store.CreateUser(f.ctx, nil, f.waiter, "x"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return f
}

func (f *fixture) table(t *testing.T, number, capacity int) *models.Table {
	t.Helper()
	table, err := f.tables.CreateTable(f.ctx, CreateTableRequest{TableNumber: number, Capacity: capacity, Section: "salao"})
	if err != nil {
		t.Fatalf("CreateTable %d: %v", number, err)
	}
	return table
}

func (f *fixture) menuItem(t *testing.T, name, price string) *models.MenuItem {
	t.Helper()
	item, err := f.menu.CreateMenuItem(f.ctx, CreateMenuItemRequest{
		Name: name, Price: decimal.RequireFromString(price), Category: "main",
	})
	if err != nil {
		t.Fatalf("CreateMenuItem %s: %v", name, err)
	}
	return item
}

func TestJoinTablesThroughService(t *testing.T) {
	f := newFixture(t)
	t1 := f.table(t, 1, 4)
	t2 := f.table(t, 2, 2)
	t3 := f.table(t, 3, 6)
	f.pub.reset()

	res, err := f.tables.JoinTables(f.ctx, JoinTablesRequest{TableIDs: []int64{t1.ID, t2.ID, t3.ID}})
	if err != nil {
		t.Fatalf("JoinTables: %v", err)
	}
	if res.MainTable.Capacity != 12 {
		t.Errorf("main capacity = %d, want 12", res.MainTable.Capacity)
	}
	if got := len(f.pub.ofType(realtime.EventTableUpdated)); got != 3 {
		t.Errorf("table-updated events = %d, want 3", got)
	}

	stored, err := f.tables.GetTableByID(f.ctx, t2.ID)
	if err != nil {
		t.Fatalf("GetTableByID: %v", err)
	}
	if m, ok := stored.AsMember(); !ok || m.Parent != t1.ID {
		t.Errorf("table 2 join = %#v, want member of %d", stored.Join, t1.ID)
	}

	if err := f.tables.DeleteTable(f.ctx, t2.ID); !errors.Is(err, ErrTableJoined) {
		t.Errorf("DeleteTable joined member error = %v, want ErrTableJoined", err)
	}

	res, err = f.tables.UnjoinTable(f.ctx, t1.ID)
	if err != nil {
		t.Fatalf("UnjoinTable: %v", err)
	}
	if res.MainTable.Capacity != 4 || !res.MainTable.IsStandalone() {
		t.Errorf("after unjoin main = %+v", res.MainTable)
	}
}

func TestOccupyingMainPropagatesToMembers(t *testing.T) {
	f := newFixture(t)
	t1 := f.table(t, 1, 4)
	t2 := f.table(t, 2, 2)
	if _, err := f.tables.JoinTables(f.ctx, JoinTablesRequest{TableIDs: []int64{t1.ID, t2.ID}}); err != nil {
		t.Fatalf("JoinTables: %v", err)
	}
	f.pub.reset()

	changed, err := f.tables.UpdateTableStatus(f.ctx, t1.ID, "occupied")
	if err != nil {
		t.Fatalf("UpdateTableStatus: %v", err)
	}
	if len(changed) != 2 {
		t.Fatalf("changed tables = %d, want 2", len(changed))
	}
	member, _ := f.tables.GetTableByID(f.ctx, t2.ID)
	if member.Status != models.TableStatusOccupied || member.OccupiedAt == nil {
		t.Errorf("member status = %s occupiedAt = %v, want occupied with a time", member.Status, member.OccupiedAt)
	}

	events := f.pub.ofType(realtime.EventTableStatusChanged)
	if len(events) != 2 {
		t.Fatalf("table-status-changed events = %d, want 2", len(events))
	}
	var payload realtime.TablePayload
	if err := json.Unmarshal(events[1].Data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.TableNumber != 2 || payload.Status != "occupied" {
		t.Errorf("second event payload = %+v, want table 2 occupied", payload)
	}

	if _, err := f.tables.UpdateTableStatus(f.ctx, t1.ID, "dirty"); !errors.Is(err, ErrInvalidTableStatus) {
		t.Errorf("invalid status error = %v, want ErrInvalidTableStatus", err)
	}
}

func TestOrderLifecycle(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, 7, 4)
	moqueca := f.menuItem(t, "Moqueca", "10.00")
	guarana := f.menuItem(t, "Guaraná", "5.50")
	f.pub.reset()

	order, err := f.orders.CreateOrder(f.ctx, f.waiter.ID, CreateOrderRequest{
		TableID: table.ID,
		Items: []OrderItemRequest{
			{MenuItemID: moqueca.ID, Quantity: 2},
			{MenuItemID: guarana.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("25.50")) {
		t.Errorf("total = %s, want 25.50", order.TotalAmount)
	}
	if got := len(f.pub.ofType(realtime.EventNewOrder)); got != 1 {
		t.Errorf("new-order events = %d, want 1", got)
	}

	occupied, _ := f.tables.GetTableByID(f.ctx, table.ID)
	if occupied.Status != models.TableStatusOccupied || occupied.CurrentOrder == nil || *occupied.CurrentOrder != order.ID {
		t.Fatalf("table after order = %+v", occupied)
	}

	_, err = f.orders.CreateOrder(f.ctx, f.waiter.ID, CreateOrderRequest{
		TableID: table.ID, Items: []OrderItemRequest{{MenuItemID: moqueca.ID, Quantity: 1}},
	})
	if !errors.Is(err, ErrTableHasOrder) {
		t.Errorf("second order error = %v, want ErrTableHasOrder", err)
	}

	// Price changes after ordering do not touch the snapshot.
	newPrice := decimal.RequireFromString("99.00")
	if _, err := f.menu.UpdateMenuItem(f.ctx, moqueca.ID, UpdateMenuItemRequest{Price: &newPrice}); err != nil {
		t.Fatalf("UpdateMenuItem: %v", err)
	}
	stored, err := f.orders.GetOrderByID(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrderByID: %v", err)
	}
	if !stored.TotalAmount.Equal(decimal.RequireFromString("25.50")) {
		t.Errorf("total after menu change = %s, want 25.50", stored.TotalAmount)
	}

	for _, item := range stored.Items {
		if _, err := f.orders.UpdateItemStatus(f.ctx, order.ID, item.ID, UpdateItemStatusRequest{Status: "ready"}); err != nil {
			t.Fatalf("UpdateItemStatus: %v", err)
		}
	}
	if got := len(f.pub.ofType(realtime.EventOrderReady)); got != 1 {
		t.Errorf("order-ready events = %d, want 1", got)
	}

	if _, err := f.orders.RequestPayment(f.ctx, order.ID); err != nil {
		t.Fatalf("RequestPayment: %v", err)
	}
	payments := f.pub.ofType(realtime.EventPaymentRequested)
	if len(payments) != 1 {
		t.Fatalf("payment-requested events = %d, want 1", len(payments))
	}
	var pp realtime.PaymentPayload
	if err := json.Unmarshal(payments[0].Data, &pp); err != nil {
		t.Fatalf("decode payment payload: %v", err)
	}
	if pp.TableNumber != 7 || !pp.TotalAmount.Equal(decimal.RequireFromString("25.50")) {
		t.Errorf("payment payload = %+v", pp)
	}

	method := "pix"
	if _, err := f.orders.UpdatePayment(f.ctx, order.ID, UpdatePaymentRequest{PaymentStatus: "paid", PaymentMethod: &method}); err != nil {
		t.Fatalf("UpdatePayment paid: %v", err)
	}
	if _, err := f.orders.UpdatePayment(f.ctx, order.ID, UpdatePaymentRequest{PaymentStatus: "pending"}); !errors.Is(err, ErrInvalidPaymentTransition) {
		t.Errorf("paid to pending error = %v, want ErrInvalidPaymentTransition", err)
	}

	completed, err := f.orders.UpdateOrderStatus(f.ctx, order.ID, UpdateOrderStatusRequest{Status: "completed"})
	if err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}
	if completed.CompletedAt == nil {
		t.Error("completed order has no completed_at")
	}
	freed, _ := f.tables.GetTableByID(f.ctx, table.ID)
	if freed.Status != models.TableStatusAvailable || freed.CurrentOrder != nil || freed.OccupiedAt != nil {
		t.Errorf("table after completion = %+v", freed)
	}

	waiter, _ := f.store.FindUserByID(f.ctx, f.waiter.ID)
	if waiter.Performance.OrdersServed != 1 || !waiter.Performance.TotalSales.Equal(decimal.RequireFromString("25.50")) {
		t.Errorf("waiter performance = %+v", waiter.Performance)
	}

	if _, err := f.orders.UpdateOrderStatus(f.ctx, order.ID, UpdateOrderStatusRequest{Status: "cancelled"}); !errors.Is(err, ErrOrderClosed) {
		t.Errorf("closing twice error = %v, want ErrOrderClosed", err)
	}
}

func TestUpdateOrderItemsRecomputesTotal(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, 4, 4)
	moqueca := f.menuItem(t, "Moqueca", "10.00")
	guarana := f.menuItem(t, "Guaraná", "5.50")

	order, err := f.orders.CreateOrder(f.ctx, f.waiter.ID, CreateOrderRequest{
		TableID: table.ID, Items: []OrderItemRequest{{MenuItemID: moqueca.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("initial total = %s, want 10.00", order.TotalAmount)
	}

	updated, err := f.orders.UpdateOrder(f.ctx, order.ID, UpdateOrderRequest{
		Items: []OrderItemRequest{
			{MenuItemID: moqueca.ID, Quantity: 2},
			{MenuItemID: guarana.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}
	if len(updated.Items) != 2 {
		t.Fatalf("items after update = %d, want 2", len(updated.Items))
	}
	if !updated.TotalAmount.Equal(decimal.RequireFromString("25.50")) {
		t.Errorf("total after update = %s, want 25.50", updated.TotalAmount)
	}

	tests := []struct {
		name string
		id   int64
		want int
	}{
		{"raised quantity counts the increase", moqueca.ID, 2},
		{"new line counts its quantity", guarana.ID, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := f.menu.GetMenuItemByID(f.ctx, tt.id)
			if err != nil {
				t.Fatalf("GetMenuItemByID: %v", err)
			}
			if item.TotalQuantity != tt.want {
				t.Errorf("total quantity = %d, want %d", item.TotalQuantity, tt.want)
			}
		})
	}

	// Lowering a quantity never takes popularity back.
	if _, err := f.orders.UpdateOrder(f.ctx, order.ID, UpdateOrderRequest{
		Items: []OrderItemRequest{{MenuItemID: moqueca.ID, Quantity: 1}},
	}); err != nil {
		t.Fatalf("UpdateOrder lower: %v", err)
	}
	item, _ := f.menu.GetMenuItemByID(f.ctx, moqueca.ID)
	if item.TotalQuantity != 2 {
		t.Errorf("total quantity after lowering = %d, want 2", item.TotalQuantity)
	}
}

func TestCancelOrderFreesTable(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, 5, 2)
	moqueca := f.menuItem(t, "Moqueca", "10.00")

	order, err := f.orders.CreateOrder(f.ctx, f.waiter.ID, CreateOrderRequest{
		TableID: table.ID, Items: []OrderItemRequest{{MenuItemID: moqueca.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	cancelled, err := f.orders.UpdateOrderStatus(f.ctx, order.ID, UpdateOrderStatusRequest{Status: "cancelled"})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != models.OrderStatusCancelled {
		t.Errorf("order status = %s, want cancelled", cancelled.Status)
	}
	freed, err := f.tables.GetTableByID(f.ctx, table.ID)
	if err != nil {
		t.Fatalf("GetTableByID: %v", err)
	}
	if freed.Status != models.TableStatusAvailable || freed.CurrentOrder != nil {
		t.Errorf("table after cancel = %+v", freed)
	}

	if _, err := f.orders.CreateOrder(f.ctx, f.waiter.ID, CreateOrderRequest{
		TableID: table.ID, Items: []OrderItemRequest{{MenuItemID: moqueca.ID, Quantity: 1}},
	}); err != nil {
		t.Errorf("new order after cancel: %v", err)
	}
}

func TestDeleteTableAfterClosedOrder(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, 3, 4)
	moqueca := f.menuItem(t, "Moqueca", "10.00")

	order, err := f.orders.CreateOrder(f.ctx, f.waiter.ID, CreateOrderRequest{
		TableID: table.ID, Items: []OrderItemRequest{{MenuItemID: moqueca.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if err := f.tables.DeleteTable(f.ctx, table.ID); !errors.Is(err, ErrTableHasOrder) {
		t.Fatalf("delete with open order error = %v, want ErrTableHasOrder", err)
	}

	if _, err := f.orders.UpdateOrderStatus(f.ctx, order.ID, UpdateOrderStatusRequest{Status: "completed"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := f.tables.DeleteTable(f.ctx, table.ID); err != nil {
		t.Fatalf("delete after completion: %v", err)
	}
	if _, err := f.tables.GetTableByID(f.ctx, table.ID); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("get deleted table error = %v, want ErrTableNotFound", err)
	}

	past, err := f.orders.GetOrderByID(f.ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrderByID after table delete: %v", err)
	}
	if past.TableNumber != 3 {
		t.Errorf("past order table number = %d, want 3", past.TableNumber)
	}

	// The number is free again.
	f.table(t, 3, 6)
}

func TestOrderOnMemberGoesToMain(t *testing.T) {
	f := newFixture(t)
	t1 := f.table(t, 1, 4)
	t2 := f.table(t, 2, 2)
	item := f.menuItem(t, "Pastel", "8.00")
	if _, err := f.tables.JoinTables(f.ctx, JoinTablesRequest{TableIDs: []int64{t1.ID, t2.ID}}); err != nil {
		t.Fatalf("JoinTables: %v", err)
	}

	order, err := f.orders.CreateOrder(f.ctx, f.waiter.ID, CreateOrderRequest{
		TableID: t2.ID, Items: []OrderItemRequest{{MenuItemID: item.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.TableID != t1.ID {
		t.Errorf("order table = %d, want main %d", order.TableID, t1.ID)
	}
	member, _ := f.tables.GetTableByID(f.ctx, t2.ID)
	if member.Status != models.TableStatusOccupied {
		t.Errorf("member status = %s, want occupied", member.Status)
	}

	if err := f.orders.DeleteOrder(f.ctx, order.ID); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	member, _ = f.tables.GetTableByID(f.ctx, t2.ID)
	if member.Status != models.TableStatusAvailable {
		t.Errorf("member status after delete = %s, want available", member.Status)
	}
}

func TestCreateOrderRejectsUnavailableMenuItem(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, 1, 4)
	off := false
	item, err := f.menu.CreateMenuItem(f.ctx, CreateMenuItemRequest{
		Name: "Feijoada", Price: decimal.NewFromInt(30), Category: "main", IsAvailable: &off,
	})
	if err != nil {
		t.Fatalf("CreateMenuItem: %v", err)
	}
	_, err = f.orders.CreateOrder(f.ctx, f.waiter.ID, CreateOrderRequest{
		TableID: table.ID, Items: []OrderItemRequest{{MenuItemID: item.ID, Quantity: 1}},
	})
	if !errors.Is(err, ErrMenuItemUnavailable) {
		t.Fatalf("error = %v, want ErrMenuItemUnavailable", err)
	}
	after, _ := f.tables.GetTableByID(f.ctx, table.ID)
	if after.Status != models.TableStatusAvailable {
		t.Errorf("table status after failed order = %s, want available", after.Status)
	}
}

func TestMenuValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		req  CreateMenuItemRequest
	}{
		{"blank name", CreateMenuItemRequest{Name: " ", Price: decimal.NewFromInt(1), Category: "main"}},
		{"negative price", CreateMenuItemRequest{Name: "Suco", Price: decimal.NewFromInt(-1), Category: "beverage"}},
		{"unknown category", CreateMenuItemRequest{Name: "Suco", Price: decimal.NewFromInt(1), Category: "drinks"}},
	}
	for _, tt := range tests {
		if _, err := f.menu.CreateMenuItem(f.ctx, tt.req); !errors.Is(err, ErrInvalidMenuItem) {
			t.Errorf("%s: error = %v, want ErrInvalidMenuItem", tt.name, err)
		}
	}
}

func TestAuthRegisterAndLogin(t *testing.T) {
	if err := utils.ConfigureJWT("test-secret", time.Hour); err != nil {
		t.Fatalf("ConfigureJWT: %v", err)
	}
	store := memstore.New()
	auth := NewAuthService(store, store)
	ctx := context.Background()

	created, err := auth.EnsureAdmin(ctx, "", "Admin@Recanto.test", "supersecret")
	if err != nil || !created {
		t.Fatalf("EnsureAdmin = %v, %v; want true, nil", created, err)
	}
	if created, _ := auth.EnsureAdmin(ctx, "", "other@recanto.test", "supersecret"); created {
		t.Error("EnsureAdmin created a second admin")
	}

	resp, err := auth.LoginUser(ctx, LoginRequest{Email: "admin@recanto.test", Password: "supersecret"})
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	claims, err := utils.ValidateToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Role != models.RoleSuperadmin || claims.UserID != resp.User.ID {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := auth.LoginUser(ctx, LoginRequest{Email: "admin@recanto.test", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := auth.RegisterUser(ctx, RegisterUserRequest{Name: "Dup", Email: "ADMIN@recanto.test", Password: "password1"}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email error = %v, want ErrEmailTaken", err)
	}
	if _, err := auth.RegisterUser(ctx, RegisterUserRequest{Name: "Chef", Email: "chef@recanto.test", Password: "password1", Role: "chef"}); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("unknown role error = %v, want ErrInvalidRole", err)
	}

	users := NewUserService(store, store)
	badEmail, shortPassword := "not-an-email", "short"
	if _, err := users.UpdateUser(ctx, resp.User.ID, UpdateUserRequest{Email: &badEmail}); !errors.Is(err, ErrInvalidUserUpdate) {
		t.Errorf("bad email error = %v, want ErrInvalidUserUpdate", err)
	}
	if _, err := users.UpdateUser(ctx, resp.User.ID, UpdateUserRequest{Password: &shortPassword}); !errors.Is(err, ErrInvalidUserUpdate) {
		t.Errorf("short password error = %v, want ErrInvalidUserUpdate", err)
	}
	inactive := false
	if _, err := users.UpdateUser(ctx, resp.User.ID, UpdateUserRequest{IsActive: &inactive}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if _, err := auth.LoginUser(ctx, LoginRequest{Email: "admin@recanto.test", Password: "supersecret"}); !errors.Is(err, ErrUserInactive) {
		t.Errorf("inactive login error = %v, want ErrUserInactive", err)
	}
}

func TestUpdateUserEmailAndPassword(t *testing.T) {
	if err := utils.ConfigureJWT("test-secret", time.Hour); err != nil {
		t.Fatalf("ConfigureJWT: %v", err)
	}
	store := memstore.New()
	auth := NewAuthService(store, store)
	users := NewUserService(store, store)
	ctx := context.Background()

	waiter, err := auth.RegisterUser(ctx, RegisterUserRequest{Name: "Ana", Email: "ana@recanto.test", Password: "password1"})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if _, err := auth.RegisterUser(ctx, RegisterUserRequest{Name: "Bruno", Email: "bruno@recanto.test", Password: "password1"}); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	// A failed update leaves the password alone.
	taken, password := "bruno@recanto.test", "newpassword"
	if _, err := users.UpdateUser(ctx, waiter.ID, UpdateUserRequest{Email: &taken, Password: &password}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("taken email error = %v, want ErrEmailTaken", err)
	}
	if _, err := auth.LoginUser(ctx, LoginRequest{Email: "ana@recanto.test", Password: "password1"}); err != nil {
		t.Errorf("login with old password after failed update: %v", err)
	}

	mixed := "  Ana@Recanto.com "
	updated, err := users.UpdateUser(ctx, waiter.ID, UpdateUserRequest{Email: &mixed, Password: &password})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Email != "ana@recanto.com" {
		t.Errorf("email = %q, want ana@recanto.com", updated.Email)
	}

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"new password", "newpassword", nil},
		{"old password", "password1", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.LoginUser(ctx, LoginRequest{Email: "ana@recanto.com", Password: tt.password})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoginUser error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDashboardSummary(t *testing.T) {
	f := newFixture(t)
	t1 := f.table(t, 1, 4)
	f.table(t, 2, 4)
	item := f.menuItem(t, "Moqueca", "40.00")

	order, err := f.orders.CreateOrder(f.ctx, f.waiter.ID, CreateOrderRequest{
		TableID: t1.ID, Items: []OrderItemRequest{{MenuItemID: item.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, err := f.orders.UpdatePayment(f.ctx, order.ID, UpdatePaymentRequest{PaymentStatus: "paid"}); err != nil {
		t.Fatalf("UpdatePayment: %v", err)
	}

	analytics := NewAnalyticsService(f.store)
	summary, err := analytics.GetDashboardSummary(f.ctx)
	if err != nil {
		t.Fatalf("GetDashboardSummary: %v", err)
	}
	if summary.TotalTables != 2 || summary.TablesByStatus["occupied"] != 1 {
		t.Errorf("tables = %d by status %v", summary.TotalTables, summary.TablesByStatus)
	}
	if summary.OccupancyRate != 0.5 {
		t.Errorf("occupancy = %v, want 0.5", summary.OccupancyRate)
	}
	if summary.PaidOrdersToday != 1 || !summary.AverageTicket.Equal(decimal.NewFromInt(40)) {
		t.Errorf("paid = %d average = %s", summary.PaidOrdersToday, summary.AverageTicket)
	}

	popular, err := analytics.GetPopularItems(f.ctx, 0)
	if err != nil {
		t.Fatalf("GetPopularItems: %v", err)
	}
	if len(popular) != 1 || popular[0].TotalQuantity != 1 {
		t.Errorf("popular = %+v", popular)
	}
}
