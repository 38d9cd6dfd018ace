package services

import (
	"context"
	"time"

	"recanto_verde_backend/internal/models"
	"recanto_verde_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// DefaultRankingLimit caps ranking endpoints when no limit is given.
const DefaultRankingLimit = 10

// --- AnalyticsService Interface ---
type AnalyticsService interface {
	GetDashboardSummary(ctx context.Context) (*models.DashboardSummary, error)
	GetWaiterRanking(ctx context.Context, limit int) ([]models.WaiterPerformance, error)
	GetPopularItems(ctx context.Context, limit int) ([]models.PopularMenuItem, error)
}

type analyticsService struct {
	repo repositories.AnalyticsRepository
	now  func() time.Time
}

// NewAnalyticsService creates a new instance of AnalyticsService.
func NewAnalyticsService(repo repositories.AnalyticsRepository) AnalyticsService {
	return &analyticsService{repo: repo, now: time.Now}
}

func (s *analyticsService) GetDashboardSummary(ctx context.Context) (*models.DashboardSummary, error) {
	byStatus, joined, err := s.repo.TableStatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	activeOrders, err := s.repo.CountActiveOrders(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	revenue, paidCount, err := s.repo.PaidRevenueBetween(ctx, startOfDay, startOfDay.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	summary := &models.DashboardSummary{
		TablesByStatus:  map[string]int{},
		JoinedTables:    joined,
		ActiveOrders:    activeOrders,
		PaidOrdersToday: paidCount,
		RevenueToday:    revenue,
		AverageTicket:   decimal.Zero,
	}
	for _, status := range []models.TableStatus{models.TableStatusAvailable, models.TableStatusOccupied, models.TableStatusReserved} {
		summary.TablesByStatus[string(status)] = byStatus[string(status)]
	}
	for _, count := range byStatus {
		summary.TotalTables += count
	}
	if paidCount > 0 {
		summary.AverageTicket = revenue.Div(decimal.NewFromInt(int64(paidCount))).Round(2)
	}
	if summary.TotalTables > 0 {
		summary.OccupancyRate = float64(byStatus[string(models.TableStatusOccupied)]) / float64(summary.TotalTables)
	}
	return summary, nil
}

func (s *analyticsService) GetWaiterRanking(ctx context.Context, limit int) ([]models.WaiterPerformance, error) {
	return s.repo.WaiterPerformance(ctx, clampLimit(limit))
}

func (s *analyticsService) GetPopularItems(ctx context.Context, limit int) ([]models.PopularMenuItem, error) {
	return s.repo.PopularMenuItems(ctx, clampLimit(limit))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRankingLimit
	}
	if limit > 100 {
		return 100
	}
	return limit
}
