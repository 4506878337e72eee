package service

import (
	"context"
	"fmt"
	"time"

	"stylemart/internal/domain"
	"stylemart/internal/repository"
)

const (
	recentOrderCount = 5
	topProductCount  = 5
	salesWindow      = 12 // trailing calendar months
)

// DashboardStats is a point-in-time aggregate view for the admin dashboard.
// It is recomputed on every call; nothing is cached.
type DashboardStats struct {
	TotalProducts   int                    `json:"total_products"`
	TotalOrders     int                    `json:"total_orders"`
	TotalUsers      int                    `json:"total_users"`
	TotalRevenue    float64                `json:"total_revenue"`
	RecentOrders    []*domain.Order        `json:"recent_orders"`
	TopProducts     []*domain.Product      `json:"top_products"`
	SalesByMonth    []domain.MonthlySales  `json:"sales_by_month"`
	SalesByCategory []domain.CategorySales `json:"sales_by_category"`
}

// StatsService computes admin dashboard aggregates.
type StatsService interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
}

type statsService struct {
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
}

// NewStatsService creates a new instance of StatsService
func NewStatsService(
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
) StatsService {
	return &statsService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
	}
}

// Dashboard assembles the snapshot. Reads are sequential and read-only; no
// transaction spans them, the dashboard is advisory rather than
// authoritative. Each aggregate runs under its own StoreTimeout so a slow
// query cannot starve the later ones of their budget.
func (s *statsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	var err error
	stats.TotalProducts, err = storeCall(ctx, s.productRepo.Count)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	stats.TotalOrders, err = storeCall(ctx, s.orderRepo.Count)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	// Administrators are excluded from the shopper count.
	stats.TotalUsers, err = storeCall(ctx, func(tctx context.Context) (int, error) {
		return s.userRepo.CountByRole(tctx, domain.RoleUser)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	stats.TotalRevenue, err = storeCall(ctx, s.orderRepo.Revenue)
	if err != nil {
		return nil, fmt.Errorf("failed to compute revenue: %w", err)
	}

	stats.RecentOrders, err = storeCall(ctx, func(tctx context.Context) ([]*domain.Order, error) {
		return s.orderRepo.FindRecent(tctx, recentOrderCount)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load recent orders: %w", err)
	}

	stats.TopProducts, err = storeCall(ctx, func(tctx context.Context) ([]*domain.Product, error) {
		return s.productRepo.TopBySold(tctx, topProductCount)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load top products: %w", err)
	}

	since := time.Now().AddDate(0, -salesWindow, 0)
	stats.SalesByMonth, err = storeCall(ctx, func(tctx context.Context) ([]domain.MonthlySales, error) {
		return s.orderRepo.SalesByMonth(tctx, since)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute sales by month: %w", err)
	}

	stats.SalesByCategory, err = storeCall(ctx, func(tctx context.Context) ([]domain.CategorySales, error) {
		return s.orderRepo.SalesByCategory(tctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute sales by category: %w", err)
	}

	return stats, nil
}

// storeCall runs one store read under its own StoreTimeout and maps a
// deadline to ErrStoreTimeout.
func storeCall[T any](ctx context.Context, read func(context.Context) (T, error)) (T, error) {
	tctx, cancel := context.WithTimeout(ctx, StoreTimeout)
	defer cancel()

	v, err := read(tctx)
	if err != nil {
		return v, mapStoreErr(err)
	}
	return v, nil
}
