package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"recanto_verde_backend/internal/models"
	"recanto_verde_backend/internal/repositories"
)

func (s *Store) CreateOrder(ctx context.Context, _ repositories.SQLExecutor, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[order.TableID]; !ok {
		return fmt.Errorf("%w: creating order (constraint: orders_table_id_fkey)", repositories.ErrReferenced)
	}
	if _, ok := s.users[order.WaiterID]; !ok {
		return fmt.Errorf("%w: creating order (constraint: orders_waiter_id_fkey)", repositories.ErrReferenced)
	}
	s.nextOrderID++
	now := time.Now()
	order.ID = s.nextOrderID
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	order.Items = s.assignItemIDs(order.ID, order.Items)
	s.orders[order.ID] = cloneOrder(order)
	s.decorate(order)
	return nil
}

func (s *Store) GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getOrder(orderID)
}

func (s *Store) GetOrderForUpdate(ctx context.Context, _ repositories.SQLExecutor, orderID int64) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getOrder(orderID)
}

func (s *Store) getOrder(orderID int64) (*models.Order, error) {
	o, ok := s.orders[orderID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := cloneOrder(o)
	s.decorate(c)
	return c, nil
}

func (s *Store) GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var day *time.Time
	if filters.Date != nil && *filters.Date != "" {
		if parsed, err := time.ParseInLocation("2006-01-02", *filters.Date, time.Local); err == nil {
			day = &parsed
		}
	}

	matched := []models.Order{}
	for _, o := range s.orders {
		if filters.TableID != nil && o.TableID != *filters.TableID {
			continue
		}
		if filters.WaiterID != nil && o.WaiterID != *filters.WaiterID {
			continue
		}
		if filters.Status != nil && *filters.Status != "" && string(o.Status) != *filters.Status {
			continue
		}
		if filters.PaymentStatus != nil && *filters.PaymentStatus != "" && string(o.PaymentStatus) != *filters.PaymentStatus {
			continue
		}
		if day != nil {
			created := o.CreatedAt.In(time.Local)
			if created.Before(*day) || !created.Before(day.AddDate(0, 0, 1)) {
				continue
			}
		}
		c := cloneOrder(o)
		s.decorate(c)
		matched = append(matched, *c)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if filters.PageSize > 0 {
		start := 0
		if filters.Page > 0 {
			start = (filters.Page - 1) * filters.PageSize
		}
		if start > total {
			start = total
		}
		end := start + filters.PageSize
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (s *Store) UpdateOrder(ctx context.Context, _ repositories.SQLExecutor, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.orders[order.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	// Items and table are owned by other calls; only the order row changes here.
	updated := cloneOrder(existing)
	updated.Status = order.Status
	updated.TotalAmount = order.TotalAmount
	updated.PaymentStatus = order.PaymentStatus
	updated.PaymentMethod = order.PaymentMethod
	updated.CustomerCount = order.CustomerCount
	updated.CompletedAt = order.CompletedAt
	updated.UpdatedAt = time.Now()
	order.UpdatedAt = updated.UpdatedAt
	s.orders[order.ID] = cloneOrder(updated)
	return nil
}

func (s *Store) DeleteOrder(ctx context.Context, _ repositories.SQLExecutor, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[orderID]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.orders, orderID)
	return nil
}

func (s *Store) ReplaceOrderItems(ctx context.Context, _ repositories.SQLExecutor, orderID int64, items []models.OrderItem) ([]models.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	saved := s.assignItemIDs(orderID, items)
	o.Items = append([]models.OrderItem{}, saved...)
	return saved, nil
}

func (s *Store) UpdateOrderItemStatus(ctx context.Context, _ repositories.SQLExecutor, orderID, itemID int64, status models.ItemStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			o.Items[i].Status = status
			return nil
		}
	}
	return repositories.ErrNotFound
}

// assignItemIDs must be called with mu held.
func (s *Store) assignItemIDs(orderID int64, items []models.OrderItem) []models.OrderItem {
	saved := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		s.nextItemID++
		item.ID = s.nextItemID
		item.OrderID = orderID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = time.Now()
		}
		if item.Status == "" {
			item.Status = models.ItemStatusPending
		}
		saved = append(saved, item)
	}
	return saved
}

// decorate fills the joined display fields; mu must be held.
func (s *Store) decorate(o *models.Order) {
	if t, ok := s.tables[o.TableID]; ok {
		o.TableNumber = t.TableNumber
	}
	if u, ok := s.users[o.WaiterID]; ok {
		o.WaiterName = u.Name
	}
	if o.Items == nil {
		o.Items = []models.OrderItem{}
	}
}
