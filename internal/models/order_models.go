package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order. Completed and cancelled are terminal.
type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "active"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus is tracked independently of OrderStatus.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// ItemStatus is the kitchen state of a single order line.
type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusPreparing ItemStatus = "preparing"
	ItemStatusReady     ItemStatus = "ready"
	ItemStatusServed    ItemStatus = "served"
)

func IsValidOrderStatus(status string) bool {
	switch OrderStatus(status) {
	case OrderStatusActive, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func IsValidPaymentStatus(status string) bool {
	switch PaymentStatus(status) {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

func IsValidItemStatus(status string) bool {
	switch ItemStatus(status) {
	case ItemStatusPending, ItemStatusPreparing, ItemStatusReady, ItemStatusServed:
		return true
	}
	return false
}

// IsTerminal reports whether no further status transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// OrderItem is one line of an order. Price is a snapshot of the menu price
// when the line was added, so later menu edits do not touch it.
type OrderItem struct {
	ID                  int64           `json:"id"`
	OrderID             int64           `json:"order_id"`
	MenuItemID          int64           `json:"menu_item_id"`
	Name                string          `json:"name"`
	Quantity            int             `json:"quantity"`
	SpecialInstructions *string         `json:"special_instructions,omitempty"`
	Status              ItemStatus      `json:"status"`
	Price               decimal.Decimal `json:"price"`
	CreatedAt           time.Time       `json:"created_at"`
}

// LineTotal is price × quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order represents a table's order
type Order struct {
	ID            int64           `json:"id"`
	TableID       int64           `json:"table_id"`
	TableNumber   int             `json:"table_number,omitempty"`
	WaiterID      int64           `json:"waiter_id"`
	WaiterName    string          `json:"waiter_name,omitempty"`
	Items         []OrderItem     `json:"items"`
	Status        OrderStatus     `json:"status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	PaymentMethod *string         `json:"payment_method,omitempty"`
	CustomerCount int             `json:"customer_count"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// CalculateTotal returns Σ price × quantity over the order's items.
func (o *Order) CalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// RecalculateTotal refreshes TotalAmount; call it after every item change.
func (o *Order) RecalculateTotal() {
	o.TotalAmount = o.CalculateTotal().Round(2)
}

// AllItemsReady reports whether every line is ready (or already served).
func (o *Order) AllItemsReady() bool {
	if len(o.Items) == 0 {
		return false
	}
	for _, item := range o.Items {
		if item.Status != ItemStatusReady && item.Status != ItemStatusServed {
			return false
		}
	}
	return true
}

// OrderFilters defines the available filters for querying orders.
// This struct is used by both the service and repository layers.
type OrderFilters struct {
	TableID       *int64  `form:"table_id"`
	WaiterID      *int64  `form:"waiter_id"`
	Status        *string `form:"status"`
	PaymentStatus *string `form:"payment_status"`
	Date          *string `form:"date"` // Expected format YYYY-MM-DD
	Page          int     `form:"page"`
	PageSize      int     `form:"page_size"`
}
