package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"recanto_verde_backend/internal/models"

	"github.com/lib/pq"
)

// OrderRepository defines the interface for order-related database operations.
type OrderRepository interface {
	// Order methods
	CreateOrder(ctx context.Context, executor SQLExecutor, order *models.Order) error
	GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error) // with items
	GetOrderForUpdate(ctx context.Context, executor SQLExecutor, orderID int64) (*models.Order, error)
	GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) // orders, total count, error
	UpdateOrder(ctx context.Context, executor SQLExecutor, order *models.Order) error
	DeleteOrder(ctx context.Context, executor SQLExecutor, orderID int64) error

	// OrderItem methods
	ReplaceOrderItems(ctx context.Context, executor SQLExecutor, orderID int64, items []models.OrderItem) ([]models.OrderItem, error)
	UpdateOrderItemStatus(ctx context.Context, executor SQLExecutor, orderID, itemID int64, status models.ItemStatus) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderSelect = `
	SELECT
	    o.id, o.table_id, o.waiter_id, o.status, o.total_amount, o.payment_status,
	    o.payment_method, o.customer_count, o.created_at, o.updated_at, o.completed_at,
	    t.table_number, u.name
	FROM orders o
	LEFT JOIN tables t ON o.table_id = t.id
	LEFT JOIN users u ON o.waiter_id = u.id`

func scanOrderRow(row scanner, extra ...interface{}) (*models.Order, error) {
	var (
		o                     models.Order
		status, paymentStatus string
		paymentMethod         sql.NullString
		completedAt           sql.NullTime
		tableNumber           sql.NullInt64
		waiterName            sql.NullString
	)
	dest := []interface{}{
		&o.ID, &o.TableID, &o.WaiterID, &status, &o.TotalAmount, &paymentStatus,
		&paymentMethod, &o.CustomerCount, &o.CreatedAt, &o.UpdatedAt, &completedAt,
		&tableNumber, &waiterName,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	o.Status = models.OrderStatus(status)
	o.PaymentStatus = models.PaymentStatus(paymentStatus)
	if paymentMethod.Valid {
		o.PaymentMethod = &paymentMethod.String
	}
	if completedAt.Valid {
		o.CompletedAt = &completedAt.Time
	}
	if tableNumber.Valid {
		o.TableNumber = int(tableNumber.Int64)
	}
	if waiterName.Valid {
		o.WaiterName = waiterName.String
	}
	o.Items = []models.OrderItem{}
	return &o, nil
}

// --- Order Methods ---

func (r *orderRepository) CreateOrder(ctx context.Context, executor SQLExecutor, order *models.Order) error {
	query := `INSERT INTO orders
	            (table_id, waiter_id, status, total_amount, payment_status, payment_method,
	             customer_count, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`

	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	err := executor.QueryRowContext(ctx, query,
		order.TableID, order.WaiterID, string(order.Status), order.TotalAmount, string(order.PaymentStatus),
		order.PaymentMethod, order.CustomerCount, order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return mapWriteError(err, "creating order")
	}

	items, err := r.ReplaceOrderItems(ctx, executor, order.ID, order.Items)
	if err != nil {
		return err
	}
	order.Items = items
	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	return r.getOrder(ctx, r.db, orderID, "")
}

func (r *orderRepository) GetOrderForUpdate(ctx context.Context, executor SQLExecutor, orderID int64) (*models.Order, error) {
	return r.getOrder(ctx, executor, orderID, " FOR UPDATE OF o")
}

func (r *orderRepository) getOrder(ctx context.Context, executor SQLExecutor, orderID int64, lock string) (*models.Order, error) {
	order, err := scanOrderRow(executor.QueryRowContext(ctx, orderSelect+` WHERE o.id = $1`+lock, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, orderID, err)
	}
	itemsByOrder, err := r.loadItems(ctx, executor, []int64{orderID})
	if err != nil {
		return nil, err
	}
	if items, ok := itemsByOrder[orderID]; ok {
		order.Items = items
	}
	return order, nil
}

func (r *orderRepository) GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(strings.Replace(orderSelect, "u.name", "u.name, COUNT(*) OVER() AS total_count", 1))

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.TableID != nil {
		conditions = append(conditions, fmt.Sprintf("o.table_id = $%d", argCounter))
		args = append(args, *filters.TableID)
		argCounter++
	}
	if filters.WaiterID != nil {
		conditions = append(conditions, fmt.Sprintf("o.waiter_id = $%d", argCounter))
		args = append(args, *filters.WaiterID)
		argCounter++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.PaymentStatus != nil && *filters.PaymentStatus != "" {
		conditions = append(conditions, fmt.Sprintf("o.payment_status = $%d", argCounter))
		args = append(args, *filters.PaymentStatus)
		argCounter++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.Parse("2006-01-02", *filters.Date)
		if err == nil {
			startOfDay := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 0, 0, 0, 0, time.Local)
			conditions = append(conditions, fmt.Sprintf("o.created_at >= $%d AND o.created_at < $%d", argCounter, argCounter+1))
			args = append(args, startOfDay, startOfDay.AddDate(0, 0, 1))
			argCounter += 2
		}
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY o.created_at DESC, o.id DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		o, err := scanOrderRow(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, *o)
		ids = append(ids, o.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}

	itemsByOrder, err := r.loadItems(ctx, r.db, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range orders {
		if items, ok := itemsByOrder[orders[i].ID]; ok {
			orders[i].Items = items
		}
	}
	return orders, totalCount, nil
}

func (r *orderRepository) UpdateOrder(ctx context.Context, executor SQLExecutor, order *models.Order) error {
	query := `UPDATE orders SET
	            status = $1, total_amount = $2, payment_status = $3, payment_method = $4,
	            customer_count = $5, updated_at = $6, completed_at = $7
	          WHERE id = $8`

	order.UpdatedAt = time.Now()
	result, err := executor.ExecContext(ctx, query,
		string(order.Status), order.TotalAmount, string(order.PaymentStatus), order.PaymentMethod,
		order.CustomerCount, order.UpdatedAt, order.CompletedAt, order.ID,
	)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("updating order ID %d", order.ID))
	}
	return checkAffected(result, fmt.Sprintf("updating order ID %d", order.ID))
}

// DeleteOrder removes the order; its items go with it through ON DELETE CASCADE.
func (r *orderRepository) DeleteOrder(ctx context.Context, executor SQLExecutor, orderID int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("deleting order ID %d", orderID))
	}
	return checkAffected(result, fmt.Sprintf("deleting order ID %d", orderID))
}

// --- OrderItem Methods ---

// ReplaceOrderItems swaps the order's lines for items and returns them with
// their new ids.
func (r *orderRepository) ReplaceOrderItems(ctx context.Context, executor SQLExecutor, orderID int64, items []models.OrderItem) ([]models.OrderItem, error) {
	if _, err := executor.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return nil, fmt.Errorf("%w: deleting order items for order ID %d: %v", ErrDatabaseError, orderID, err)
	}

	query := `INSERT INTO order_items
	            (order_id, menu_item_id, name, quantity, special_instructions, status, price, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	saved := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		item.OrderID = orderID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = time.Now()
		}
		if item.Status == "" {
			item.Status = models.ItemStatusPending
		}
		err := executor.QueryRowContext(ctx, query,
			item.OrderID, item.MenuItemID, item.Name, item.Quantity, item.SpecialInstructions,
			string(item.Status), item.Price, item.CreatedAt,
		).Scan(&item.ID)
		if err != nil {
			return nil, mapWriteError(err, fmt.Sprintf("creating order item for order ID %d", orderID))
		}
		saved = append(saved, item)
	}
	return saved, nil
}

func (r *orderRepository) UpdateOrderItemStatus(ctx context.Context, executor SQLExecutor, orderID, itemID int64, status models.ItemStatus) error {
	query := `UPDATE order_items SET status = $1 WHERE id = $2 AND order_id = $3`
	result, err := executor.ExecContext(ctx, query, string(status), itemID, orderID)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("updating item %d of order %d", itemID, orderID))
	}
	return checkAffected(result, fmt.Sprintf("updating item %d of order %d", itemID, orderID))
}

func (r *orderRepository) loadItems(ctx context.Context, executor SQLExecutor, orderIDs []int64) (map[int64][]models.OrderItem, error) {
	itemsByOrder := make(map[int64][]models.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return itemsByOrder, nil
	}
	query := `
		SELECT id, order_id, menu_item_id, name, quantity, special_instructions, status, price, created_at
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, id`

	rows, err := executor.QueryContext(ctx, query, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: querying order items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		var status string
		var instructions sql.NullString
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.MenuItemID, &item.Name, &item.Quantity,
			&instructions, &status, &item.Price, &item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order item: %v", ErrDatabaseError, err)
		}
		item.Status = models.ItemStatus(status)
		if instructions.Valid {
			item.SpecialInstructions = &instructions.String
		}
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order item rows: %v", ErrDatabaseError, err)
	}
	return itemsByOrder, nil
}
