package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recanto_verde_backend/internal/models"
	"recanto_verde_backend/internal/realtime"
	"recanto_verde_backend/internal/repositories/memstore"
	"recanto_verde_backend/internal/services"
	"recanto_verde_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type apiClient struct {
	t      *testing.T
	engine *gin.Engine
}

func (a apiClient) do(method, path, token string, body interface{}, out interface{}) int {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	if out != nil && w.Code < 300 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			a.t.Fatalf("%s %s: decode %s: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code
}

func (a apiClient) login(email, password string) string {
	a.t.Helper()
	var resp services.AuthResponse
	if code := a.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": password}, &resp); code != http.StatusOK {
		a.t.Fatalf("login %s: status %d", email, code)
	}
	return resp.AccessToken
}

type tableView struct {
	ID           int64      `json:"id"`
	TableNumber  int        `json:"table_number"`
	Capacity     int        `json:"capacity"`
	Status       string     `json:"status"`
	IsJoined     bool       `json:"is_joined"`
	IsVirtual    bool       `json:"is_virtual"`
	JoinedWith   []int64    `json:"joined_with"`
	ParentTable  *int64     `json:"parent_table"`
	CurrentOrder *int64     `json:"current_order"`
	OccupiedAt   *time.Time `json:"occupied_at"`
}

func newTestAPI(t *testing.T) (apiClient, string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := utils.ConfigureJWT("router-test-secret", time.Hour); err != nil {
		t.Fatalf("ConfigureJWT: %v", err)
	}
	store := memstore.New()
	if _, err := services.NewAuthService(store, store).EnsureAdmin(context.Background(), "Admin", "admin@recanto.test", "supersecret"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}

	engine := gin.New()
	err := Setup(engine, MemoryRepositories(store), Options{
		Publisher:      realtime.NewMemoryBroker(),
		Hub:            realtime.NewHub(realtime.DefaultSendBuffer),
		LoginRateLimit: "1000-M",
	})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	api := apiClient{t: t, engine: engine}

	admin := api.login("admin@recanto.test", "supersecret")
	code := api.do(http.MethodPost, "/api/v1/auth/register", admin, gin.H{
		"name": "Bruno", "email": "bruno@recanto.test", "password": "waiterpass", "role": "waiter",
	}, nil)
	if code != http.StatusCreated {
		t.Fatalf("register waiter: status %d", code)
	}
	waiter := api.login("bruno@recanto.test", "waiterpass")
	return api, admin, waiter
}

func TestFloorScenario(t *testing.T) {
	api, admin, waiter := newTestAPI(t)

	var t1, t2 tableView
	if code := api.do(http.MethodPost, "/api/v1/tables", admin, gin.H{"table_number": 1, "capacity": 4, "section": "main"}, &t1); code != http.StatusCreated {
		t.Fatalf("create table 1: %d", code)
	}
	if code := api.do(http.MethodPost, "/api/v1/tables", admin, gin.H{"table_number": 2, "capacity": 2, "section": "main"}, &t2); code != http.StatusCreated {
		t.Fatalf("create table 2: %d", code)
	}
	if code := api.do(http.MethodPost, "/api/v1/tables", admin, gin.H{"table_number": 2, "capacity": 2, "section": "main"}, nil); code != http.StatusConflict {
		t.Errorf("duplicate table number: %d, want 409", code)
	}
	if code := api.do(http.MethodPost, "/api/v1/tables", waiter, gin.H{"table_number": 3, "capacity": 2, "section": "main"}, nil); code != http.StatusForbidden {
		t.Errorf("waiter creating table: %d, want 403", code)
	}

	var joined services.JoinResult
	if code := api.do(http.MethodPost, "/api/v1/tables/join", waiter, gin.H{"table_ids": []int64{t1.ID, t2.ID}}, &joined); code != http.StatusOK {
		t.Fatalf("join: %d", code)
	}
	var main, member tableView
	api.do(http.MethodGet, fmt.Sprintf("/api/v1/tables/%d", t1.ID), waiter, nil, &main)
	api.do(http.MethodGet, fmt.Sprintf("/api/v1/tables/%d", t2.ID), waiter, nil, &member)
	if !main.IsJoined || main.Capacity != 6 || len(main.JoinedWith) != 1 || main.JoinedWith[0] != t2.ID {
		t.Errorf("main after join = %+v", main)
	}
	if !member.IsVirtual || member.ParentTable == nil || *member.ParentTable != t1.ID {
		t.Errorf("member after join = %+v", member)
	}

	if code := api.do(http.MethodPut, fmt.Sprintf("/api/v1/tables/%d/status", t1.ID), waiter, gin.H{"status": "occupied"}, nil); code != http.StatusOK {
		t.Fatalf("occupy: %d", code)
	}
	api.do(http.MethodGet, fmt.Sprintf("/api/v1/tables/%d", t2.ID), waiter, nil, &member)
	if member.Status != "occupied" || member.OccupiedAt == nil {
		t.Errorf("member after occupy = %+v", member)
	}
	if code := api.do(http.MethodPost, fmt.Sprintf("/api/v1/tables/unjoin/%d", t1.ID), waiter, nil, nil); code != http.StatusBadRequest {
		t.Errorf("unjoin occupied join: %d, want 400", code)
	}

	var moqueca, guarana models.MenuItem
	api.do(http.MethodPost, "/api/v1/menu", admin, gin.H{"name": "Moqueca", "price": "10.00", "category": "main"}, &moqueca)
	api.do(http.MethodPost, "/api/v1/menu", admin, gin.H{"name": "Guaraná", "price": "5.50", "category": "beverage"}, &guarana)

	var order struct {
		ID          int64           `json:"id"`
		TableID     int64           `json:"table_id"`
		TotalAmount decimal.Decimal `json:"total_amount"`
	}
	code := api.do(http.MethodPost, "/api/v1/orders", waiter, gin.H{
		"table_id": t1.ID,
		"items": []gin.H{
			{"menu_item_id": moqueca.ID, "quantity": 2},
			{"menu_item_id": guarana.ID, "quantity": 1},
		},
	}, &order)
	if code != http.StatusCreated {
		t.Fatalf("create order: %d", code)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("25.50")) {
		t.Errorf("order total = %s, want 25.50", order.TotalAmount)
	}

	var list struct {
		Data  []json.RawMessage `json:"data"`
		Total int               `json:"total"`
	}
	if code := api.do(http.MethodGet, "/api/v1/orders/status/active", waiter, nil, &list); code != http.StatusOK || list.Total != 1 {
		t.Errorf("active orders: %d total %d", code, list.Total)
	}

	if code := api.do(http.MethodPut, fmt.Sprintf("/api/v1/orders/%d/status", order.ID), waiter, gin.H{"status": "completed"}, nil); code != http.StatusOK {
		t.Fatalf("complete order: %d", code)
	}
	api.do(http.MethodGet, fmt.Sprintf("/api/v1/tables/%d", t1.ID), waiter, nil, &main)
	api.do(http.MethodGet, fmt.Sprintf("/api/v1/tables/%d", t2.ID), waiter, nil, &member)
	if main.Status != "available" || main.CurrentOrder != nil || member.Status != "available" {
		t.Errorf("after completion main = %+v member = %+v", main, member)
	}

	if code := api.do(http.MethodPost, fmt.Sprintf("/api/v1/tables/unjoin/%d", t1.ID), waiter, nil, nil); code != http.StatusOK {
		t.Fatalf("unjoin: %d", code)
	}
	api.do(http.MethodGet, fmt.Sprintf("/api/v1/tables/%d", t1.ID), waiter, nil, &main)
	if main.IsJoined || main.Capacity != 4 {
		t.Errorf("after unjoin main = %+v", main)
	}

	var summary models.DashboardSummary
	if code := api.do(http.MethodGet, "/api/v1/analytics/summary", admin, nil, &summary); code != http.StatusOK || summary.TotalTables != 2 {
		t.Errorf("summary: %d %+v", code, summary)
	}
	if code := api.do(http.MethodGet, "/api/v1/analytics/summary", waiter, nil, nil); code != http.StatusForbidden {
		t.Errorf("waiter summary: %d, want 403", code)
	}
}

func TestJoinRejectionListsTables(t *testing.T) {
	api, admin, waiter := newTestAPI(t)
	var ids []int64
	for n := 1; n <= 3; n++ {
		var tv tableView
		api.do(http.MethodPost, "/api/v1/tables", admin, gin.H{"table_number": n, "capacity": 4, "section": "main"}, &tv)
		ids = append(ids, tv.ID)
	}
	api.do(http.MethodPut, fmt.Sprintf("/api/v1/tables/%d/status", ids[2]), waiter, gin.H{"status": "reserved"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tables/join", strings.NewReader(fmt.Sprintf(`{"table_ids":[%d,%d,%d]}`, ids[0], ids[1], ids[2])))
	req.Header.Set("Authorization", "Bearer "+waiter)
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("join with reserved table: %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "3") || !strings.Contains(w.Body.String(), services.ErrTablesUnavailable.Error()) {
		t.Errorf("error body = %s, want table 3 listed", w.Body.String())
	}
}

func TestAuthGuards(t *testing.T) {
	api, admin, _ := newTestAPI(t)
	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", http.MethodGet, "/api/v1/tables", "", http.StatusUnauthorized},
		{"unknown table", http.MethodGet, "/api/v1/tables/999", admin, http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/v1/tables/abc", admin, http.StatusBadRequest},
		{"me", http.MethodGet, "/api/v1/auth/me", admin, http.StatusOK},
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"ws without token", http.MethodGet, "/ws", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		if code := api.do(tt.method, tt.path, tt.token, nil, nil); code != tt.want {
			t.Errorf("%s: status %d, want %d", tt.name, code, tt.want)
		}
	}

	if code := api.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "admin@recanto.test", "password": "nope-nope"}, nil); code != http.StatusUnauthorized {
		t.Errorf("bad login: %d, want 401", code)
	}
}

func TestDeletePaymentRemovesOrder(t *testing.T) {
	api, admin, waiter := newTestAPI(t)

	var table tableView
	if code := api.do(http.MethodPost, "/api/v1/tables", admin, gin.H{"table_number": 9, "capacity": 2, "section": "main"}, &table); code != http.StatusCreated {
		t.Fatalf("create table: %d", code)
	}
	var pastel models.MenuItem
	api.do(http.MethodPost, "/api/v1/menu", admin, gin.H{"name": "Pastel", "price": "8.00", "category": "appetizer"}, &pastel)

	var order struct {
		ID int64 `json:"id"`
	}
	code := api.do(http.MethodPost, "/api/v1/orders", waiter, gin.H{
		"table_id": table.ID,
		"items":    []gin.H{{"menu_item_id": pastel.ID, "quantity": 1}},
	}, &order)
	if code != http.StatusCreated {
		t.Fatalf("create order: %d", code)
	}

	var payments struct {
		Total int `json:"total"`
	}
	if code := api.do(http.MethodGet, "/api/v1/payments", admin, nil, &payments); code != http.StatusOK || payments.Total != 1 {
		t.Fatalf("payments before delete: %d total %d", code, payments.Total)
	}

	path := fmt.Sprintf("/api/v1/payments/%d", order.ID)
	if code := api.do(http.MethodDelete, path, waiter, nil, nil); code != http.StatusForbidden {
		t.Errorf("waiter delete payment: %d, want 403", code)
	}
	if code := api.do(http.MethodDelete, path, admin, nil, nil); code != http.StatusOK {
		t.Fatalf("delete payment: %d", code)
	}

	tests := []struct {
		name string
		path string
		want int
	}{
		{"order is gone", fmt.Sprintf("/api/v1/orders/%d", order.ID), http.StatusNotFound},
		{"second delete", path, http.StatusNotFound},
	}
	for _, tt := range tests {
		method := http.MethodGet
		if tt.path == path {
			method = http.MethodDelete
		}
		if code := api.do(method, tt.path, admin, nil, nil); code != tt.want {
			t.Errorf("%s: status %d, want %d", tt.name, code, tt.want)
		}
	}

	if code := api.do(http.MethodGet, "/api/v1/payments", admin, nil, &payments); code != http.StatusOK || payments.Total != 0 {
		t.Errorf("payments after delete: %d total %d", code, payments.Total)
	}
	var freed tableView
	api.do(http.MethodGet, fmt.Sprintf("/api/v1/tables/%d", table.ID), admin, nil, &freed)
	if freed.Status != "available" || freed.CurrentOrder != nil {
		t.Errorf("table after payment delete = %+v", freed)
	}
}
