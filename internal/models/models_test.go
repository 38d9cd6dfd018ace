package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrderRecalculateTotal(t *testing.T) {
	o := &Order{Items: []OrderItem{
		{Name: "Moqueca", Quantity: 2, Price: decimal.RequireFromString("10.00")},
		{Name: "Guaraná", Quantity: 1, Price: decimal.RequireFromString("5.50")},
	}}
	o.RecalculateTotal()
	if !o.TotalAmount.Equal(decimal.RequireFromString("25.50")) {
		t.Fatalf("TotalAmount = %s, want 25.50", o.TotalAmount)
	}

	o.Items = append(o.Items, OrderItem{Quantity: 3, Price: decimal.RequireFromString("0.10")})
	o.RecalculateTotal()
	if !o.TotalAmount.Equal(decimal.RequireFromString("25.80")) {
		t.Fatalf("TotalAmount after add = %s, want 25.80", o.TotalAmount)
	}

	o.Items = nil
	o.RecalculateTotal()
	if !o.TotalAmount.IsZero() {
		t.Fatalf("TotalAmount of empty order = %s, want 0", o.TotalAmount)
	}
}

func TestAllItemsReady(t *testing.T) {
	tests := []struct {
		name  string
		items []OrderItem
		want  bool
	}{
		{"empty", nil, false},
		{"one pending", []OrderItem{{Status: ItemStatusReady}, {Status: ItemStatusPending}}, false},
		{"ready and served", []OrderItem{{Status: ItemStatusReady}, {Status: ItemStatusServed}}, true},
	}
	for _, tt := range tests {
		o := &Order{Items: tt.items}
		if got := o.AllItemsReady(); got != tt.want {
			t.Errorf("%s: AllItemsReady() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPerformanceRecordService(t *testing.T) {
	var p Performance
	p.RecordService(30, decimal.NewFromInt(100))
	p.RecordService(60, decimal.NewFromInt(50))
	p.RecordService(45, decimal.Zero)

	if p.OrdersServed != 3 {
		t.Errorf("OrdersServed = %d, want 3", p.OrdersServed)
	}
	if p.AverageServiceMinutes != 45 {
		t.Errorf("AverageServiceMinutes = %v, want 45", p.AverageServiceMinutes)
	}
	if !p.TotalSales.Equal(decimal.NewFromInt(150)) {
		t.Errorf("TotalSales = %s, want 150", p.TotalSales)
	}
}

func TestDecodeJoin(t *testing.T) {
	parent := int64(7)
	oc := 4

	js, err := DecodeJoin(JoinKindMain, []int64{8, 9}, nil, &oc)
	if err != nil {
		t.Fatalf("DecodeJoin main: %v", err)
	}
	if m, ok := js.(JoinMain); !ok || len(m.Members) != 2 || m.OriginalCapacity != 4 {
		t.Errorf("DecodeJoin main = %#v", js)
	}

	js, err = DecodeJoin(JoinKindMember, nil, &parent, nil)
	if err != nil {
		t.Fatalf("DecodeJoin member: %v", err)
	}
	if m, ok := js.(JoinMember); !ok || m.Parent != 7 {
		t.Errorf("DecodeJoin member = %#v", js)
	}

	if _, err := DecodeJoin(JoinKindMain, nil, nil, nil); err == nil {
		t.Error("main without members should fail")
	}
	if _, err := DecodeJoin(JoinKindMember, nil, nil, nil); err == nil {
		t.Error("member without parent should fail")
	}
	if _, err := DecodeJoin("both", nil, nil, nil); err == nil {
		t.Error("unknown kind should fail")
	}
}

func TestTableJSONExposesJoinFields(t *testing.T) {
	main := Table{ID: 1, TableNumber: 1, Capacity: 6, Status: TableStatusAvailable,
		Join: JoinMain{Members: []int64{2}, OriginalCapacity: 4}}
	member := Table{ID: 2, TableNumber: 2, Capacity: 2, Status: TableStatusAvailable,
		Join: JoinMember{Parent: 1}}

	var got map[string]interface{}
	raw, err := json.Marshal(main)
	if err != nil {
		t.Fatalf("marshal main: %v", err)
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal main: %v", err)
	}
	if got["is_joined"] != true || got["is_virtual"] != false || got["original_capacity"].(float64) != 4 {
		t.Errorf("main JSON = %s", raw)
	}
	if jw := got["joined_with"].([]interface{}); len(jw) != 1 || jw[0].(float64) != 2 {
		t.Errorf("main joined_with = %v", got["joined_with"])
	}

	got = nil
	raw, err = json.Marshal(member)
	if err != nil {
		t.Fatalf("marshal member: %v", err)
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal member: %v", err)
	}
	if got["is_virtual"] != true || got["is_joined"] != false || got["parent_table"].(float64) != 1 {
		t.Errorf("member JSON = %s", raw)
	}
}
