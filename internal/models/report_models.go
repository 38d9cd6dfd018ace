package models

import "github.com/shopspring/decimal"

// DashboardSummary holds key metrics for the floor dashboard.
type DashboardSummary struct {
	TablesByStatus  map[string]int  `json:"tables_by_status"`
	TotalTables     int             `json:"total_tables"`
	JoinedTables    int             `json:"joined_tables"`
	ActiveOrders    int             `json:"active_orders"`
	PaidOrdersToday int             `json:"paid_orders_today"`
	RevenueToday    decimal.Decimal `json:"revenue_today"`
	AverageTicket   decimal.Decimal `json:"average_ticket"`
	OccupancyRate   float64         `json:"occupancy_rate"` // occupied / total, 0..1
}

// WaiterPerformance is one row of the waiter ranking.
type WaiterPerformance struct {
	WaiterID              int64           `json:"waiter_id"`
	Name                  string          `json:"name"`
	OrdersServed          int             `json:"orders_served"`
	AverageServiceMinutes float64         `json:"average_service_minutes"`
	TotalSales            decimal.Decimal `json:"total_sales"`
}

// PopularMenuItem is one row of the popularity ranking.
type PopularMenuItem struct {
	MenuItemID    int64        `json:"menu_item_id"`
	Name          string       `json:"name"`
	Category      MenuCategory `json:"category"`
	OrderCount    int          `json:"order_count"`
	TotalQuantity int          `json:"total_quantity"`
}
