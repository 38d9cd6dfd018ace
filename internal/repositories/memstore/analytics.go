package memstore

import (
	"context"
	"sort"
	"time"

	"recanto_verde_backend/internal/models"

	"github.com/shopspring/decimal"
)

func (s *Store) TableStatusCounts(ctx context.Context) (map[string]int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[string]int{}
	joined := 0
	for _, t := range s.tables {
		counts[string(t.Status)]++
		if _, ok := t.AsMain(); ok {
			joined++
		}
	}
	return counts, joined, nil
}

func (s *Store) CountActiveOrders(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, o := range s.orders {
		if o.Status == models.OrderStatusActive {
			count++
		}
	}
	return count, nil
}

func (s *Store) PaidRevenueBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	revenue := decimal.Zero
	count := 0
	for _, o := range s.orders {
		if o.PaymentStatus != models.PaymentStatusPaid || o.UpdatedAt.Before(from) || !o.UpdatedAt.Before(to) {
			continue
		}
		revenue = revenue.Add(o.TotalAmount)
		count++
	}
	return revenue, count, nil
}

func (s *Store) WaiterPerformance(ctx context.Context, limit int) ([]models.WaiterPerformance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ranking := []models.WaiterPerformance{}
	for _, u := range s.users {
		if u.Role != models.RoleWaiter {
			continue
		}
		ranking = append(ranking, models.WaiterPerformance{
			WaiterID:              u.ID,
			Name:                  u.Name,
			OrdersServed:          u.Performance.OrdersServed,
			AverageServiceMinutes: u.Performance.AverageServiceMinutes,
			TotalSales:            u.Performance.TotalSales,
		})
	}
	sort.Slice(ranking, func(i, j int) bool {
		a, b := ranking[i], ranking[j]
		if c := a.TotalSales.Cmp(b.TotalSales); c != 0 {
			return c > 0
		}
		if a.OrdersServed != b.OrdersServed {
			return a.OrdersServed > b.OrdersServed
		}
		return a.WaiterID < b.WaiterID
	})
	if limit > 0 && len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking, nil
}

func (s *Store) PopularMenuItems(ctx context.Context, limit int) ([]models.PopularMenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []models.PopularMenuItem{}
	for _, m := range s.menu {
		if m.OrderCount == 0 {
			continue
		}
		items = append(items, models.PopularMenuItem{
			MenuItemID:    m.ID,
			Name:          m.Name,
			Category:      m.Category,
			OrderCount:    m.OrderCount,
			TotalQuantity: m.TotalQuantity,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.TotalQuantity != b.TotalQuantity {
			return a.TotalQuantity > b.TotalQuantity
		}
		if a.OrderCount != b.OrderCount {
			return a.OrderCount > b.OrderCount
		}
		return a.MenuItemID < b.MenuItemID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
