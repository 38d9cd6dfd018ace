package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"recanto_verde_backend/internal/models"

	"github.com/shopspring/decimal"
)

// AnalyticsRepository runs the aggregate queries behind the dashboard.
type AnalyticsRepository interface {
	// TableStatusCounts returns table counts per status and the number of live joins.
	TableStatusCounts(ctx context.Context) (map[string]int, int, error)
	CountActiveOrders(ctx context.Context) (int, error)
	// PaidRevenueBetween sums paid orders whose last update falls in [from, to).
	PaidRevenueBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, int, error)
	WaiterPerformance(ctx context.Context, limit int) ([]models.WaiterPerformance, error)
	PopularMenuItems(ctx context.Context, limit int) ([]models.PopularMenuItem, error)
}

type analyticsRepository struct {
	db *sql.DB
}

// NewAnalyticsRepository creates a new instance of AnalyticsRepository.
func NewAnalyticsRepository(db *sql.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) TableStatusCounts(ctx context.Context) (map[string]int, int, error) {
	query := `SELECT status, COUNT(*), COUNT(*) FILTER (WHERE join_kind = $1) FROM tables WHERE deleted_at IS NULL GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query, models.JoinKindMain)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: counting tables by status: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	counts := map[string]int{}
	joined := 0
	for rows.Next() {
		var status string
		var count, mains int
		if err := rows.Scan(&status, &count, &mains); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning table status count: %v", ErrDatabaseError, err)
		}
		counts[status] = count
		joined += mains
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating table status counts: %v", ErrDatabaseError, err)
	}
	return counts, joined, nil
}

func (r *analyticsRepository) CountActiveOrders(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE status = $1`, string(models.OrderStatusActive)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting active orders: %v", ErrDatabaseError, err)
	}
	return count, nil
}

func (r *analyticsRepository) PaidRevenueBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, int, error) {
	var revenue decimal.Decimal
	var count int
	query := `SELECT COALESCE(SUM(total_amount), 0), COUNT(*)
	          FROM orders
	          WHERE payment_status = $1 AND updated_at >= $2 AND updated_at < $3`
	err := r.db.QueryRowContext(ctx, query, string(models.PaymentStatusPaid), from, to).Scan(&revenue, &count)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("%w: summing paid revenue: %v", ErrDatabaseError, err)
	}
	return revenue, count, nil
}

func (r *analyticsRepository) WaiterPerformance(ctx context.Context, limit int) ([]models.WaiterPerformance, error) {
	query := `SELECT id, name, orders_served, average_service_minutes, total_sales
	          FROM users
	          WHERE role = $1
	          ORDER BY total_sales DESC, orders_served DESC, id
	          LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, models.RoleWaiter, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying waiter performance: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	ranking := []models.WaiterPerformance{}
	for rows.Next() {
		var wp models.WaiterPerformance
		if err := rows.Scan(&wp.WaiterID, &wp.Name, &wp.OrdersServed, &wp.AverageServiceMinutes, &wp.TotalSales); err != nil {
			return nil, fmt.Errorf("%w: scanning waiter performance: %v", ErrDatabaseError, err)
		}
		ranking = append(ranking, wp)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating waiter performance: %v", ErrDatabaseError, err)
	}
	return ranking, nil
}

func (r *analyticsRepository) PopularMenuItems(ctx context.Context, limit int) ([]models.PopularMenuItem, error) {
	query := `SELECT id, name, category, order_count, total_quantity
	          FROM menu_items
	          WHERE order_count > 0
	          ORDER BY total_quantity DESC, order_count DESC, id
	          LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying popular menu items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	items := []models.PopularMenuItem{}
	for rows.Next() {
		var item models.PopularMenuItem
		var category string
		if err := rows.Scan(&item.MenuItemID, &item.Name, &category, &item.OrderCount, &item.TotalQuantity); err != nil {
			return nil, fmt.Errorf("%w: scanning popular menu item: %v", ErrDatabaseError, err)
		}
		item.Category = models.MenuCategory(category)
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating popular menu items: %v", ErrDatabaseError, err)
	}
	return items, nil
}
