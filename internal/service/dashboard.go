package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kidhood/bird-trading-platform/internal/authz"
	"github.com/kidhood/bird-trading-platform/internal/repository"
	apperrors "github.com/kidhood/bird-trading-platform/pkg/errors"
)

// Window bounds for the revenue charts.
const (
	defaultChartDays = 7
	maxChartDays     = 90
)

// DashboardService computes the seller dashboard aggregates.
type DashboardService struct {
	orderRepo repository.OrderRepository
	shops     ShopResolver
	logger    *slog.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(
	orderRepo repository.OrderRepository,
	shops ShopResolver,
	logger *slog.Logger,
) *DashboardService {
	return &DashboardService{
		orderRepo: orderRepo,
		shops:     shops,
		logger:    logger,
	}
}

// WeeklyComparison holds this week's and last week's daily revenue, Monday
// through Sunday.
type WeeklyComparison struct {
	ThisWeek []repository.RevenueBucket `json:"this_week"`
	LastWeek []repository.RevenueBucket `json:"last_week"`
}

// RevenueLineChart returns per-day, per-kind order counts and revenue for the
// trailing window. Canceled orders are excluded.
func (s *DashboardService) RevenueLineChart(ctx context.Context, identity *authz.Identity, days int) ([]repository.KindDailyStat, error) {
	if days <= 0 {
		days = defaultChartDays
	}
	if days > maxChartDays {
		return nil, apperrors.InvalidInput(fmt.Sprintf("chart window must not exceed %d days", maxChartDays))
	}

	shopID, err := s.shops.ResolveShopID(ctx, identity)
	if err != nil {
		return nil, err
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)

	stats, err := s.orderRepo.KindDailyStats(ctx, shopID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get kind daily stats: %w", err)
	}

	return stats, nil
}

// RevenuePie returns the revenue share per product kind for delivered orders
// in the given window. A zero window means all time.
func (s *DashboardService) RevenuePie(ctx context.Context, identity *authz.Identity, from, to time.Time) ([]repository.KindRevenue, error) {
	shopID, err := s.shops.ResolveShopID(ctx, identity)
	if err != nil {
		return nil, err
	}

	if to.IsZero() {
		to = time.Now().UTC()
	}
	if !from.IsZero() && from.After(to) {
		return nil, apperrors.InvalidInput("window start must not be after its end")
	}

	revenue, err := s.orderRepo.RevenueByKind(ctx, shopID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get revenue by kind: %w", err)
	}

	return revenue, nil
}

// WeeklyRevenue returns delivered-order revenue per day for the current and
// the previous calendar week.
func (s *DashboardService) WeeklyRevenue(ctx context.Context, identity *authz.Identity) (*WeeklyComparison, error) {
	shopID, err := s.shops.ResolveShopID(ctx, identity)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	weekStart := startOfWeek(now)
	lastWeekStart := weekStart.AddDate(0, 0, -7)

	thisWeek, err := s.orderRepo.DailyRevenue(ctx, shopID, weekStart, now)
	if err != nil {
		return nil, fmt.Errorf("get current week revenue: %w", err)
	}

	lastWeek, err := s.orderRepo.DailyRevenue(ctx, shopID, lastWeekStart, weekStart)
	if err != nil {
		return nil, fmt.Errorf("get previous week revenue: %w", err)
	}

	return &WeeklyComparison{
		ThisWeek: thisWeek,
		LastWeek: lastWeek,
	}, nil
}

// startOfWeek returns midnight UTC of the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	day := t.UTC()
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
}
