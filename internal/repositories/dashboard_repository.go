package repositories

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RevenueRow is one completed order's contribution to revenue charts.
type RevenueRow struct {
	CreatedAt time.Time
	Total     decimal.Decimal
}

type ProductCounts struct {
	Total      int64
	Active     int64
	LowStock   int64
	OutOfStock int64
}

type DashboardRepository interface {
	// SalesSince sums totals of orders with completed payment created at or
	// after since. A zero since covers all time.
	SalesSince(ctx context.Context, since time.Time) (decimal.Decimal, error)
	CountOrders(ctx context.Context, since time.Time, status models.OrderStatus) (int64, error)
	CountUsers(ctx context.Context, since time.Time) (int64, error)
	ProductCounts(ctx context.Context) (ProductCounts, error)
	RevenueSince(ctx context.Context, since time.Time) ([]RevenueRow, error)
	RecentOrders(ctx context.Context, limit int) ([]models.Order, error)
	RecentUsers(ctx context.Context, limit int) ([]models.User, error)
	LowStockProducts(ctx context.Context, limit int) ([]models.Product, error)
}

type GORMDashboardRepository struct {
	db *gorm.DB
}

func NewGORMDashboardRepository(db *gorm.DB) *GORMDashboardRepository {
	return &GORMDashboardRepository{db: db}
}

func completedOrders(db *gorm.DB, since time.Time) *gorm.DB {
	q := db.Model(&models.Order{}).Where("payment_status = ?", models.PaymentCompleted)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	return q
}

func (r *GORMDashboardRepository) SalesSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	row := completedOrders(r.db.WithContext(ctx), since).Select("COALESCE(SUM(total), 0)").Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum sales: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal.Round(2), nil
}

func (r *GORMDashboardRepository) CountOrders(ctx context.Context, since time.Time, status models.OrderStatus) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

// CountUsers counts customers (not admins) registered since the given time.
func (r *GORMDashboardRepository) CountUsers(ctx context.Context, since time.Time) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleUser)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func lowStock(q *gorm.DB) *gorm.DB {
	return q.Where("is_active = ? AND inventory_track_inventory = ? AND inventory_quantity > 0 AND inventory_quantity <= inventory_low_stock_threshold", true, true)
}

func (r *GORMDashboardRepository) ProductCounts(ctx context.Context) (ProductCounts, error) {
	var counts ProductCounts
	db := r.db.WithContext(ctx).Model(&models.Product{})

	if err := db.Session(&gorm.Session{}).Count(&counts.Total).Error; err != nil {
		return counts, fmt.Errorf("failed to count products: %w", err)
	}
	if err := db.Session(&gorm.Session{}).Where("is_active = ?", true).Count(&counts.Active).Error; err != nil {
		return counts, fmt.Errorf("failed to count active products: %w", err)
	}
	if err := lowStock(db.Session(&gorm.Session{})).Count(&counts.LowStock).Error; err != nil {
		return counts, fmt.Errorf("failed to count low stock products: %w", err)
	}
	err := db.Session(&gorm.Session{}).
		Where("is_active = ? AND inventory_track_inventory = ? AND inventory_quantity <= 0", true, true).
		Count(&counts.OutOfStock).Error
	if err != nil {
		return counts, fmt.Errorf("failed to count out of stock products: %w", err)
	}
	return counts, nil
}

func (r *GORMDashboardRepository) RevenueSince(ctx context.Context, since time.Time) ([]RevenueRow, error) {
	var rows []RevenueRow
	err := completedOrders(r.db.WithContext(ctx), since).
		Select("created_at, total").
		Order("created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load revenue: %w", err)
	}
	return rows, nil
}

func (r *GORMDashboardRepository) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load recent orders: %w", err)
	}
	return orders, nil
}

func (r *GORMDashboardRepository) RecentUsers(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("role = ?", models.RoleUser).
		Order("created_at DESC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent users: %w", err)
	}
	return users, nil
}

func (r *GORMDashboardRepository) LowStockProducts(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	err := lowStock(r.db.WithContext(ctx).Model(&models.Product{})).
		Order("inventory_quantity ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load low stock products: %w", err)
	}
	return products, nil
}
