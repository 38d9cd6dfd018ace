package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recanto_verde_backend/internal/models"
	"recanto_verde_backend/internal/realtime"
	"recanto_verde_backend/internal/repositories"
	"recanto_verde_backend/pkg/utils"
)

// --- Data Transfer Objects (DTOs) ---

// OrderItemRequest is one line of a create or update request.
type OrderItemRequest struct {
	MenuItemID          int64   `json:"menu_item_id" binding:"required"`
	Quantity            int     `json:"quantity" binding:"required,gt=0"`
	SpecialInstructions *string `json:"special_instructions"`
}

// CreateOrderRequest is used for opening an order on a table.
type CreateOrderRequest struct {
	TableID       int64              `json:"table_id" binding:"required"`
	WaiterID      *int64             `json:"waiter_id"` // superadmin only; defaults to the caller
	CustomerCount int                `json:"customer_count" binding:"omitempty,gte=0"`
	Items         []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// UpdateOrderRequest replaces the order lines when Items is set.
type UpdateOrderRequest struct {
	CustomerCount *int               `json:"customer_count" binding:"omitempty,gte=0"`
	Items         []OrderItemRequest `json:"items" binding:"omitempty,dive"`
}

// UpdateOrderStatusRequest is used for completing or cancelling an order.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateItemStatusRequest moves one line through the kitchen states.
type UpdateItemStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdatePaymentRequest records a payment outcome.
type UpdatePaymentRequest struct {
	PaymentStatus string  `json:"payment_status" binding:"required"`
	PaymentMethod *string `json:"payment_method"`
}

// --- OrderService Interface ---
type OrderService interface {
	CreateOrder(ctx context.Context, waiterID int64, req CreateOrderRequest) (*models.Order, error)
	GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error)
	GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error)
	UpdateOrder(ctx context.Context, orderID int64, req UpdateOrderRequest) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, req UpdateOrderStatusRequest) (*models.Order, error)
	UpdateItemStatus(ctx context.Context, orderID, itemID int64, req UpdateItemStatusRequest) (*models.Order, error)
	RequestPayment(ctx context.Context, orderID int64) (*models.Order, error)
	UpdatePayment(ctx context.Context, orderID int64, req UpdatePaymentRequest) (*models.Order, error)
	// DeleteOrder is a hard delete; it frees the table when the order was its current one.
	DeleteOrder(ctx context.Context, orderID int64) error
}

type orderService struct {
	orderRepo repositories.OrderRepository
	tableRepo repositories.TableRepository
	menuRepo  repositories.MenuRepository
	userRepo  repositories.UserRepository
	tx        repositories.Transactor
	publisher realtime.Publisher
	now       func() time.Time
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	or repositories.OrderRepository,
	tr repositories.TableRepository,
	mr repositories.MenuRepository,
	ur repositories.UserRepository,
	tx repositories.Transactor,
	pub realtime.Publisher,
) OrderService {
	return &orderService{
		orderRepo: or,
		tableRepo: tr,
		menuRepo:  mr,
		userRepo:  ur,
		tx:        tx,
		publisher: pub,
		now:       time.Now,
	}
}

func mapOrderRepoError(err error, id int64) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: id %d", ErrOrderNotFound, id)
	}
	return err
}

// priceLines snapshots menu names and prices into order lines. Lines whose
// menu item already appears in previous keep that line's price and status.
func (s *orderService) priceLines(ctx context.Context, exec repositories.SQLExecutor, reqs []OrderItemRequest, previous []models.OrderItem) ([]models.OrderItem, map[int64]int, error) {
	ids := make([]int64, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.MenuItemID)
	}
	menu, err := s.menuRepo.GetMenuItemsByIDs(ctx, exec, utils.UniqueInt64s(ids))
	if err != nil {
		return nil, nil, err
	}

	reusable := map[int64][]models.OrderItem{}
	for _, item := range previous {
		reusable[item.MenuItemID] = append(reusable[item.MenuItemID], item)
	}

	lines := make([]models.OrderItem, 0, len(reqs))
	added := map[int64]int{} // menu item id -> newly ordered quantity
	for _, r := range reqs {
		if r.Quantity <= 0 {
			return nil, nil, fmt.Errorf("%w: quantity must be positive", ErrEmptyOrder)
		}
		if prev := reusable[r.MenuItemID]; len(prev) > 0 {
			line := prev[0]
			reusable[r.MenuItemID] = prev[1:]
			if inc := r.Quantity - line.Quantity; inc > 0 {
				added[r.MenuItemID] += inc
			}
			line.ID = 0
			line.Quantity = r.Quantity
			line.SpecialInstructions = r.SpecialInstructions
			lines = append(lines, line)
			continue
		}
		item, ok := menu[r.MenuItemID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: id %d", ErrMenuItemNotFound, r.MenuItemID)
		}
		if !item.IsAvailable {
			return nil, nil, fmt.Errorf("%w: %s", ErrMenuItemUnavailable, item.Name)
		}
		lines = append(lines, models.OrderItem{
			MenuItemID:          item.ID,
			Name:                item.Name,
			Quantity:            r.Quantity,
			SpecialInstructions: r.SpecialInstructions,
			Status:              models.ItemStatusPending,
			Price:               item.Price,
		})
		added[item.ID] += r.Quantity
	}
	return lines, added, nil
}

func (s *orderService) bumpPopularity(ctx context.Context, exec repositories.SQLExecutor, added map[int64]int) error {
	for menuItemID, quantity := range added {
		if err := s.menuRepo.IncrementPopularity(ctx, exec, menuItemID, quantity); err != nil {
			return fmt.Errorf("updating popularity of menu item %d: %w", menuItemID, err)
		}
	}
	return nil
}

func (s *orderService) CreateOrder(ctx context.Context, waiterID int64, req CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if req.WaiterID != nil {
		waiterID = *req.WaiterID
	}
	waiter, err := s.userRepo.FindUserByID(ctx, waiterID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrInvalidWaiter, waiterID)
		}
		return nil, err
	}
	if !waiter.IsActive {
		return nil, fmt.Errorf("%w: id %d", ErrInvalidWaiter, waiterID)
	}

	var order *models.Order
	var changed []*models.Table
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		lines, added, err := s.priceLines(ctx, exec, req.Items, nil)
		if err != nil {
			return err
		}

		plan, err := lockFloor(ctx, exec, s.tableRepo, []int64{req.TableID})
		if err != nil {
			return err
		}
		table, ok := plan.get(req.TableID)
		if !ok {
			return fmt.Errorf("%w: id %d", ErrTableNotFound, req.TableID)
		}
		// Orders on a joined table belong to its main table.
		if m, ok := table.AsMember(); ok {
			if parent, found := plan.get(m.Parent); found {
				table = parent
			}
		}
		if table.CurrentOrder != nil {
			return fmt.Errorf("%w: table %d, order %d", ErrTableHasOrder, table.TableNumber, *table.CurrentOrder)
		}

		order = &models.Order{
			TableID:       table.ID,
			TableNumber:   table.TableNumber,
			WaiterID:      waiter.ID,
			WaiterName:    waiter.Name,
			Items:         lines,
			Status:        models.OrderStatusActive,
			PaymentStatus: models.PaymentStatusPending,
			CustomerCount: req.CustomerCount,
			CreatedAt:     s.now(),
		}
		order.RecalculateTotal()
		if err := s.orderRepo.CreateOrder(ctx, exec, order); err != nil {
			return err
		}
		if err := s.bumpPopularity(ctx, exec, added); err != nil {
			return err
		}

		propagateStatus(plan, table, models.TableStatusOccupied, s.now())
		orderID := order.ID
		table.CurrentOrder = &orderID
		changed, err = persistPlan(ctx, exec, s.tableRepo, plan)
		return err
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Order created", map[string]interface{}{
		"order_id": order.ID, "table_number": order.TableNumber, "waiter_id": order.WaiterID, "total": order.TotalAmount.String(),
	})
	s.publishOrder(ctx, realtime.EventNewOrder, order)
	publishTables(ctx, s.publisher, realtime.EventTableStatusChanged, changed)
	return order, nil
}

func (s *orderService) GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	return s.orderRepo.GetOrders(ctx, filters)
}

func (s *orderService) GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, mapOrderRepoError(err, orderID)
	}
	return order, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, orderID int64, req UpdateOrderRequest) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		order, err = s.orderRepo.GetOrderForUpdate(ctx, exec, orderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return fmt.Errorf("%w: order %d is %s", ErrOrderClosed, order.ID, order.Status)
		}
		if req.CustomerCount != nil {
			order.CustomerCount = *req.CustomerCount
		}
		if req.Items != nil {
			if len(req.Items) == 0 {
				return ErrEmptyOrder
			}
			lines, added, err := s.priceLines(ctx, exec, req.Items, order.Items)
			if err != nil {
				return err
			}
			saved, err := s.orderRepo.ReplaceOrderItems(ctx, exec, order.ID, lines)
			if err != nil {
				return err
			}
			order.Items = saved
			if err := s.bumpPopularity(ctx, exec, added); err != nil {
				return err
			}
		}
		order.RecalculateTotal()
		return s.orderRepo.UpdateOrder(ctx, exec, order)
	})
	if err != nil {
		return nil, mapOrderRepoError(err, orderID)
	}
	return order, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID int64, req UpdateOrderStatusRequest) (*models.Order, error) {
	if !models.IsValidOrderStatus(req.Status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrderStatus, req.Status)
	}
	status := models.OrderStatus(req.Status)
	if !status.IsTerminal() {
		return nil, fmt.Errorf("%w: an order can only be completed or cancelled", ErrInvalidOrderStatus)
	}

	var order *models.Order
	var changed []*models.Table
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		order, err = s.orderRepo.GetOrderForUpdate(ctx, exec, orderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return fmt.Errorf("%w: order %d is %s", ErrOrderClosed, order.ID, order.Status)
		}

		now := s.now()
		order.Status = status
		if status == models.OrderStatusCompleted {
			order.CompletedAt = &now
		}
		if err := s.orderRepo.UpdateOrder(ctx, exec, order); err != nil {
			return err
		}

		var occupiedAt *time.Time
		changed, occupiedAt, err = s.releaseTable(ctx, exec, order, now)
		if err != nil {
			return err
		}
		if status == models.OrderStatusCompleted {
			return s.recordService(ctx, exec, order, occupiedAt, now)
		}
		return nil
	})
	if err != nil {
		return nil, mapOrderRepoError(err, orderID)
	}

	utils.LogInfo("Order closed", map[string]interface{}{
		"order_id": order.ID, "status": order.Status, "tables_freed": len(changed),
	})
	publishTables(ctx, s.publisher, realtime.EventTableStatusChanged, changed)
	return order, nil
}

// releaseTable frees the order's table, and its join, when the order is the
// table's current one. It returns the changed tables and when the table was
// occupied.
func (s *orderService) releaseTable(ctx context.Context, exec repositories.SQLExecutor, order *models.Order, now time.Time) ([]*models.Table, *time.Time, error) {
	plan, err := lockFloor(ctx, exec, s.tableRepo, []int64{order.TableID})
	if err != nil {
		return nil, nil, err
	}
	table, ok := plan.get(order.TableID)
	if !ok || table.CurrentOrder == nil || *table.CurrentOrder != order.ID {
		return nil, nil, nil
	}
	occupiedAt := table.OccupiedAt
	propagateStatus(plan, table, models.TableStatusAvailable, now)
	changed, err := persistPlan(ctx, exec, s.tableRepo, plan)
	if err != nil {
		return nil, nil, err
	}
	return changed, occupiedAt, nil
}

// recordService folds the completed order into its waiter's performance.
// Service time runs from table occupancy, or from order creation when the
// table was not held by this order.
func (s *orderService) recordService(ctx context.Context, exec repositories.SQLExecutor, order *models.Order, occupiedAt *time.Time, now time.Time) error {
	start := order.CreatedAt
	if occupiedAt != nil {
		start = *occupiedAt
	}
	waiter, err := s.userRepo.FindUserForUpdate(ctx, exec, order.WaiterID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.LogWarn("Completed order has no waiter record", map[string]interface{}{"order_id": order.ID, "waiter_id": order.WaiterID})
			return nil
		}
		return err
	}
	waiter.Performance.RecordService(now.Sub(start).Minutes(), order.TotalAmount)
	return s.userRepo.UpdateUser(ctx, exec, waiter)
}

func (s *orderService) UpdateItemStatus(ctx context.Context, orderID, itemID int64, req UpdateItemStatusRequest) (*models.Order, error) {
	if !models.IsValidItemStatus(req.Status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidItemStatus, req.Status)
	}
	status := models.ItemStatus(req.Status)

	var order *models.Order
	var becameReady bool
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		order, err = s.orderRepo.GetOrderForUpdate(ctx, exec, orderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return fmt.Errorf("%w: order %d is %s", ErrOrderClosed, order.ID, order.Status)
		}

		idx := -1
		for i := range order.Items {
			if order.Items[i].ID == itemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: item %d of order %d", ErrOrderItemNotFound, itemID, orderID)
		}

		wasReady := order.AllItemsReady()
		if err := s.orderRepo.UpdateOrderItemStatus(ctx, exec, orderID, itemID, status); err != nil {
			return err
		}
		order.Items[idx].Status = status
		becameReady = !wasReady && order.AllItemsReady()
		return s.orderRepo.UpdateOrder(ctx, exec, order)
	})
	if err != nil {
		return nil, mapOrderRepoError(err, orderID)
	}

	if becameReady {
		s.publishOrder(ctx, realtime.EventOrderReady, order)
	}
	return order, nil
}

func (s *orderService) RequestPayment(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: order %d is cancelled", ErrOrderNotActive, order.ID)
	}
	if order.PaymentStatus != models.PaymentStatusPending {
		return nil, fmt.Errorf("%w: order %d is already %s", ErrInvalidPaymentTransition, order.ID, order.PaymentStatus)
	}

	evt, err := realtime.NewEvent(realtime.EventPaymentRequested, realtime.PaymentPayload{
		OrderID:     order.ID,
		TableID:     order.TableID,
		TableNumber: order.TableNumber,
		TotalAmount: order.TotalAmount,
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, evt)
	return order, nil
}

// paymentTransitions lists the allowed payment status moves.
var paymentTransitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentStatusPending: {models.PaymentStatusPaid, models.PaymentStatusRefunded},
	models.PaymentStatusPaid:    {models.PaymentStatusRefunded},
}

func canMovePayment(from, to models.PaymentStatus) bool {
	for _, allowed := range paymentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *orderService) UpdatePayment(ctx context.Context, orderID int64, req UpdatePaymentRequest) (*models.Order, error) {
	if !models.IsValidPaymentStatus(req.PaymentStatus) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, req.PaymentStatus)
	}
	to := models.PaymentStatus(req.PaymentStatus)

	var order *models.Order
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		order, err = s.orderRepo.GetOrderForUpdate(ctx, exec, orderID)
		if err != nil {
			return err
		}
		if !canMovePayment(order.PaymentStatus, to) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidPaymentTransition, order.PaymentStatus, to)
		}
		order.PaymentStatus = to
		if req.PaymentMethod != nil && !utils.IsEmpty(*req.PaymentMethod) {
			order.PaymentMethod = req.PaymentMethod
		}
		return s.orderRepo.UpdateOrder(ctx, exec, order)
	})
	if err != nil {
		return nil, mapOrderRepoError(err, orderID)
	}
	utils.LogInfo("Payment updated", map[string]interface{}{"order_id": order.ID, "payment_status": order.PaymentStatus})
	return order, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, orderID int64) error {
	var changed []*models.Table
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		order, err := s.orderRepo.GetOrderForUpdate(ctx, exec, orderID)
		if err != nil {
			return err
		}
		changed, _, err = s.releaseTable(ctx, exec, order, s.now())
		if err != nil {
			return err
		}
		return s.orderRepo.DeleteOrder(ctx, exec, orderID)
	})
	if err != nil {
		return mapOrderRepoError(err, orderID)
	}
	utils.LogInfo("Order deleted", map[string]interface{}{"order_id": orderID})
	publishTables(ctx, s.publisher, realtime.EventTableStatusChanged, changed)
	return nil
}

func (s *orderService) publishOrder(ctx context.Context, eventType realtime.EventType, order *models.Order) {
	evt, err := realtime.NewEvent(eventType, realtime.OrderPayload{
		OrderID:     order.ID,
		TableID:     order.TableID,
		TableNumber: order.TableNumber,
	})
	if err != nil {
		utils.LogError(err, "Failed to build order event", map[string]interface{}{"order_id": order.ID})
		return
	}
	publish(ctx, s.publisher, evt)
}
