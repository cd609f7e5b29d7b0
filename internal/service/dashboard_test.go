package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kidhood/bird-trading-platform/internal/authz"
	"github.com/kidhood/bird-trading-platform/internal/domain"
	"github.com/kidhood/bird-trading-platform/internal/repository"
	apperrors "github.com/kidhood/bird-trading-platform/pkg/errors"
)

func newTestDashboardService(orderRepo *mockOrderRepository, shops *mockShopResolver) *DashboardService {
	return NewDashboardService(orderRepo, shops, newTestLogger())
}

func TestRevenueLineChart_DefaultsToSevenDays(t *testing.T) {
	orderRepo := new(mockOrderRepository)
	shops := new(mockShopResolver)
	svc := newTestDashboardService(orderRepo, shops)
	ctx := context.Background()
	identity := newTestIdentity(t, "owner-1", authz.RoleShopOwner)

	shops.On("ResolveShopID", ctx, identity).Return("shop-1", nil)
	orderRepo.On("KindDailyStats", ctx, "shop-1",
		mock.MatchedBy(func(from time.Time) bool {
			// Window starts roughly seven days back.
			return time.Since(from) > 6*24*time.Hour && time.Since(from) < 8*24*time.Hour
		}),
		mock.AnythingOfType("time.Time"),
	).Return([]repository.KindDailyStat{
		{Kind: domain.ProductKindBird, Orders: 3, Revenue: 4_500_000},
	}, nil)

	stats, err := svc.RevenueLineChart(ctx, identity, 0)

	require.NoError(t, err)
	assert.Len(t, stats, 1)
	orderRepo.AssertExpectations(t)
}

func TestRevenueLineChart_WindowTooLarge(t *testing.T) {
	orderRepo := new(mockOrderRepository)
	shops := new(mockShopResolver)
	svc := newTestDashboardService(orderRepo, shops)
	identity := newTestIdentity(t, "owner-1", authz.RoleShopOwner)

	stats, err := svc.RevenueLineChart(context.Background(), identity, 365)

	assert.Nil(t, stats)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestRevenuePie_InvertedWindow(t *testing.T) {
	orderRepo := new(mockOrderRepository)
	shops := new(mockShopResolver)
	svc := newTestDashboardService(orderRepo, shops)
	ctx := context.Background()
	identity := newTestIdentity(t, "owner-1", authz.RoleShopOwner)

	shops.On("ResolveShopID", ctx, identity).Return("shop-1", nil)

	now := time.Now().UTC()
	revenue, err := svc.RevenuePie(ctx, identity, now, now.Add(-time.Hour))

	assert.Nil(t, revenue)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestRevenuePie_AllTime(t *testing.T) {
	orderRepo := new(mockOrderRepository)
	shops := new(mockShopResolver)
	svc := newTestDashboardService(orderRepo, shops)
	ctx := context.Background()
	identity := newTestIdentity(t, "owner-1", authz.RoleShopOwner)

	shops.On("ResolveShopID", ctx, identity).Return("shop-1", nil)
	orderRepo.On("RevenueByKind", ctx, "shop-1", time.Time{}, mock.AnythingOfType("time.Time")).
		Return([]repository.KindRevenue{
			{Kind: domain.ProductKindBird, Revenue: 10_000_000},
			{Kind: domain.ProductKindFood, Revenue: 1_200_000},
		}, nil)

	revenue, err := svc.RevenuePie(ctx, identity, time.Time{}, time.Time{})

	require.NoError(t, err)
	assert.Len(t, revenue, 2)
	orderRepo.AssertExpectations(t)
}

func TestWeeklyRevenue_SplitsWeeks(t *testing.T) {
	orderRepo := new(mockOrderRepository)
	shops := new(mockShopResolver)
	svc := newTestDashboardService(orderRepo, shops)
	ctx := context.Background()
	identity := newTestIdentity(t, "owner-1", authz.RoleShopOwner)

	weekStart := startOfWeek(time.Now().UTC())
	lastWeekStart := weekStart.AddDate(0, 0, -7)

	shops.On("ResolveShopID", ctx, identity).Return("shop-1", nil)
	orderRepo.On("DailyRevenue", ctx, "shop-1", weekStart, mock.AnythingOfType("time.Time")).
		Return([]repository.RevenueBucket{{Day: weekStart, Revenue: 900_000, Orders: 2}}, nil)
	orderRepo.On("DailyRevenue", ctx, "shop-1", lastWeekStart, weekStart).
		Return([]repository.RevenueBucket{{Day: lastWeekStart, Revenue: 400_000, Orders: 1}}, nil)

	comparison, err := svc.WeeklyRevenue(ctx, identity)

	require.NoError(t, err)
	assert.Len(t, comparison.ThisWeek, 1)
	assert.Len(t, comparison.LastWeek, 1)
	orderRepo.AssertExpectations(t)
}

func TestStartOfWeek_AlwaysMonday(t *testing.T) {
	// A Wednesday.
	wed := time.Date(2025, 6, 11, 15, 30, 0, 0, time.UTC)
	monday := startOfWeek(wed)
	assert.Equal(t, time.Monday, monday.Weekday())
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), monday)

	// A Sunday still belongs to the week started the previous Monday.
	sun := time.Date(2025, 6, 15, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), startOfWeek(sun))

	// Monday maps to itself.
	mon := time.Date(2025, 6, 9, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), startOfWeek(mon))
}
