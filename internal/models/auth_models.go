package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Roles. Each websocket connection joins the broadcast group named after its role.
const (
	RoleSuperadmin = "superadmin"
	RoleWaiter     = "waiter"
)

func IsValidRole(role string) bool {
	return role == RoleSuperadmin || role == RoleWaiter
}

// User represents a user in the system
type User struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"` // never sent in JSON responses
	Role         string      `json:"role"`
	IsActive     bool        `json:"is_active"`
	Performance  Performance `json:"performance"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Performance holds a waiter's running service counters.
type Performance struct {
	OrdersServed          int             `json:"orders_served"`
	AverageServiceMinutes float64         `json:"average_service_minutes"`
	TotalSales            decimal.Decimal `json:"total_sales"`
}

// RecordService folds one completed order into the running mean:
// avg' = (avg × n + minutes) / (n + 1).
func (p *Performance) RecordService(minutes float64, sale decimal.Decimal) {
	if minutes < 0 {
		minutes = 0
	}
	n := float64(p.OrdersServed)
	p.AverageServiceMinutes = (p.AverageServiceMinutes*n + minutes) / (n + 1)
	p.OrdersServed++
	p.TotalSales = p.TotalSales.Add(sale)
}

// UserFilters defines the available filters for querying users.
type UserFilters struct {
	Role     *string `form:"role"`
	IsActive *bool   `form:"active"`
}
