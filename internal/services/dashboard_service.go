package services

import (
	"context"
	"sort"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
	pkgerrors "storefront/pkg/errors"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const dashboardListSize = 5

type SalesSummary struct {
	Total     decimal.Decimal `json:"total"`
	Today     decimal.Decimal `json:"today"`
	ThisWeek  decimal.Decimal `json:"thisWeek"`
	ThisMonth decimal.Decimal `json:"thisMonth"`
	ThisYear  decimal.Decimal `json:"thisYear"`
}

type OrderSummary struct {
	Total      int64 `json:"total"`
	Today      int64 `json:"today"`
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Cancelled  int64 `json:"cancelled"`
}

type UserSummary struct {
	Total        int64 `json:"total"`
	NewToday     int64 `json:"newToday"`
	NewThisWeek  int64 `json:"newThisWeek"`
	NewThisMonth int64 `json:"newThisMonth"`
}

type ProductSummary struct {
	Total      int64 `json:"total"`
	Active     int64 `json:"active"`
	LowStock   int64 `json:"lowStock"`
	OutOfStock int64 `json:"outOfStock"`
}

// RevenuePoint is one bucket of completed sales. Period is YYYY-MM-DD for
// daily buckets and YYYY-MM for monthly ones.
type RevenuePoint struct {
	Period string          `json:"period"`
	Amount decimal.Decimal `json:"amount"`
}

type RevenueSeries struct {
	Daily   []RevenuePoint `json:"daily"`
	Monthly []RevenuePoint `json:"monthly"`
}

type Dashboard struct {
	Sales            SalesSummary     `json:"sales"`
	Orders           OrderSummary     `json:"orders"`
	Users            UserSummary      `json:"users"`
	Products         ProductSummary   `json:"products"`
	Revenue          RevenueSeries    `json:"revenue"`
	RecentOrders     []models.Order   `json:"recentOrders"`
	RecentUsers      []models.User    `json:"recentUsers"`
	LowStockProducts []models.Product `json:"lowStockProducts"`
}

type DashboardService struct {
	repo repositories.DashboardRepository
	now  func() time.Time
}

func NewDashboardService(repo repositories.DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo, now: utcNow}
}

func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

// Build runs every independent aggregate concurrently; the first failure
// cancels the rest.
func (s *DashboardService) Build(ctx context.Context) (*Dashboard, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	yearStart := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	var (
		d             Dashboard
		dailyRows     []repositories.RevenueRow
		monthlyRows   []repositories.RevenueRow
		productCounts repositories.ProductCounts
		dailySince    = today.AddDate(0, 0, -30)
		monthlySince  = today.AddDate(0, -12, 0)
	)

	g, gctx := errgroup.WithContext(ctx)
	sales := func(dst *decimal.Decimal, since time.Time) {
		g.Go(func() (err error) {
			*dst, err = s.repo.SalesSince(gctx, since)
			return err
		})
	}
	orders := func(dst *int64, since time.Time, status models.OrderStatus) {
		g.Go(func() (err error) {
			*dst, err = s.repo.CountOrders(gctx, since, status)
			return err
		})
	}
	users := func(dst *int64, since time.Time) {
		g.Go(func() (err error) {
			*dst, err = s.repo.CountUsers(gctx, since)
			return err
		})
	}

	sales(&d.Sales.Total, time.Time{})
	sales(&d.Sales.Today, today)
	sales(&d.Sales.ThisWeek, weekStart)
	sales(&d.Sales.ThisMonth, monthStart)
	sales(&d.Sales.ThisYear, yearStart)

	orders(&d.Orders.Total, time.Time{}, "")
	orders(&d.Orders.Today, today, "")
	orders(&d.Orders.Pending, time.Time{}, models.OrderPending)
	orders(&d.Orders.Processing, time.Time{}, models.OrderProcessing)
	orders(&d.Orders.Completed, time.Time{}, models.OrderDelivered)
	orders(&d.Orders.Cancelled, time.Time{}, models.OrderCancelled)

	users(&d.Users.Total, time.Time{})
	users(&d.Users.NewToday, today)
	users(&d.Users.NewThisWeek, weekStart)
	users(&d.Users.NewThisMonth, monthStart)

	g.Go(func() (err error) {
		productCounts, err = s.repo.ProductCounts(gctx)
		return err
	})
	g.Go(func() (err error) {
		dailyRows, err = s.repo.RevenueSince(gctx, dailySince)
		return err
	})
	g.Go(func() (err error) {
		monthlyRows, err = s.repo.RevenueSince(gctx, monthlySince)
		return err
	})
	g.Go(func() (err error) {
		d.RecentOrders, err = s.repo.RecentOrders(gctx, dashboardListSize)
		return err
	})
	g.Go(func() (err error) {
		d.RecentUsers, err = s.repo.RecentUsers(gctx, dashboardListSize)
		return err
	})
	g.Go(func() (err error) {
		d.LowStockProducts, err = s.repo.LowStockProducts(gctx, dashboardListSize)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to build dashboard")
	}

	d.Products = ProductSummary(productCounts)
	d.Revenue.Daily = bucketRevenue(dailyRows, "2006-01-02")
	d.Revenue.Monthly = bucketRevenue(monthlyRows, "2006-01")
	return &d, nil
}

// bucketRevenue groups rows by their UTC creation time formatted with layout
// and returns the non-empty buckets in ascending order.
func bucketRevenue(rows []repositories.RevenueRow, layout string) []RevenuePoint {
	totals := make(map[string]decimal.Decimal)
	for _, row := range rows {
		key := row.CreatedAt.UTC().Format(layout)
		totals[key] = totals[key].Add(row.Total)
	}
	points := make([]RevenuePoint, 0, len(totals))
	for period, amount := range totals {
		points = append(points, RevenuePoint{Period: period, Amount: models.RoundMoney(amount)})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })
	return points
}
