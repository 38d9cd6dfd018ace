package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"recanto_verde_backend/internal/models"
	"recanto_verde_backend/internal/repositories"
)

func (s *Store) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextMenuID++
	now := time.Now()
	item.ID = s.nextMenuID
	item.CreatedAt = now
	item.UpdatedAt = now
	s.menu[item.ID] = cloneMenuItem(item)
	return nil
}

func (s *Store) GetMenuItemByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.menu[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneMenuItem(m), nil
}

func (s *Store) GetMenuItems(ctx context.Context, filters models.MenuFilters) ([]models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []models.MenuItem{}
	for _, m := range s.menu {
		if filters.Category != nil && *filters.Category != "" && string(m.Category) != *filters.Category {
			continue
		}
		if filters.IsAvailable != nil && m.IsAvailable != *filters.IsAvailable {
			continue
		}
		if filters.Search != nil && *filters.Search != "" && !matchesSearch(m, *filters.Search) {
			continue
		}
		items = append(items, *cloneMenuItem(m))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func matchesSearch(m *models.MenuItem, search string) bool {
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(m.Name), needle) {
		return true
	}
	return m.Description != nil && strings.Contains(strings.ToLower(*m.Description), needle)
}

func (s *Store) GetMenuItemsByIDs(ctx context.Context, _ repositories.SQLExecutor, ids []int64) (map[int64]*models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make(map[int64]*models.MenuItem, len(ids))
	for _, id := range ids {
		if m, ok := s.menu[id]; ok {
			items[id] = cloneMenuItem(m)
		}
	}
	return items, nil
}

func (s *Store) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.menu[item.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	updated := cloneMenuItem(item)
	updated.OrderCount = existing.OrderCount
	updated.TotalQuantity = existing.TotalQuantity
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now()
	item.UpdatedAt = updated.UpdatedAt
	s.menu[item.ID] = updated
	return nil
}

func (s *Store) DeleteMenuItem(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.menu[id]; !ok {
		return repositories.ErrNotFound
	}
	for _, o := range s.orders {
		for _, item := range o.Items {
			if item.MenuItemID == id {
				return fmt.Errorf("%w: deleting menu item ID %d (constraint: order_items_menu_item_id_fkey)", repositories.ErrReferenced, id)
			}
		}
	}
	delete(s.menu, id)
	return nil
}

func (s *Store) IncrementPopularity(ctx context.Context, _ repositories.SQLExecutor, id int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.menu[id]
	if !ok {
		return repositories.ErrNotFound
	}
	m.OrderCount++
	m.TotalQuantity += quantity
	return nil
}
