package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"storefront/internal/models"
	"storefront/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

var productOrder = map[ProductSort]string{
	SortNewest:    "created_at DESC",
	SortPriceAsc:  "price ASC",
	SortPriceDesc: "price DESC",
	SortPopular:   "ratings_count DESC",
	SortRating:    "ratings_average DESC",
}

func (r *GORMProductRepository) applyFilter(q *gorm.DB, f ProductFilter) *gorm.DB {
	if !f.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if f.CategoryID != "" {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		like := "%" + term + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tags) LIKE ?)", like, like, like)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", f.MinPrice.InexactFloat64())
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", f.MaxPrice.InexactFloat64())
	}
	if f.MinRating != nil {
		q = q.Where("ratings_average >= ?", *f.MinRating)
	}
	if f.Featured != nil {
		q = q.Where("is_featured = ?", *f.Featured)
	}
	if f.InStock {
		q = q.Where("inventory_quantity > ?", 0)
	}
	if len(f.Tags) > 0 {
		clauses := make([]string, 0, len(f.Tags))
		args := make([]any, 0, len(f.Tags))
		for _, tag := range f.Tags {
			// tags are stored as a JSON array, so match the quoted element.
			quoted, _ := json.Marshal(tag)
			clauses = append(clauses, "tags LIKE ?")
			args = append(args, "%"+string(quoted)+"%")
		}
		q = q.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
	return q
}

// List returns one page of products matching the filter and the total count.
func (r *GORMProductRepository) List(ctx context.Context, f ProductFilter, page pagination.Params) ([]models.Product, int64, error) {
	base := r.applyFilter(r.db.WithContext(ctx).Model(&models.Product{}), f)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	order, ok := productOrder[f.Sort]
	if !ok {
		order = productOrder[SortNewest]
	}

	var products []models.Product
	err := base.Session(&gorm.Session{}).
		Order(order).
		Order("id").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get product %s", id)
	}
	return &product, nil
}

func (r *GORMProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "slug = ?", slug).Error; err != nil {
		return nil, translate(err, "get product by slug %s", slug)
	}
	return &product, nil
}

func (r *GORMProductRepository) exists(ctx context.Context, column, value, excludeID string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{}).Where(column+" = ?", value)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check product %s: %w", column, err)
	}
	return n > 0, nil
}

func (r *GORMProductRepository) ExistsBySKU(ctx context.Context, sku, excludeID string) (bool, error) {
	return r.exists(ctx, "sku", sku, excludeID)
}

func (r *GORMProductRepository) ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error) {
	return r.exists(ctx, "slug", slug, excludeID)
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return translate(err, "create product")
	}
	return nil
}

// Update writes every column of the product, including zero values.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).Model(product).Select("*").Omit("id", "created_at").Updates(product)
	if res.Error != nil {
		return translate(res.Error, "update product %s", product.ID)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update product %s: %w", product.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete product %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *GORMProductRepository) AddReview(ctx context.Context, review *models.Review) (*models.Product, error) {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	var product models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, "id = ?", review.ProductID).Error; err != nil {
			return translate(err, "get product %s", review.ProductID)
		}
		if err := tx.Create(review).Error; err != nil {
			return translate(err, "create review")
		}

		var agg struct {
			Average float64
			Count   int
		}
		err := tx.Model(&models.Review{}).
			Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
			Where("product_id = ?", review.ProductID).
			Scan(&agg).Error
		if err != nil {
			return fmt.Errorf("failed to aggregate reviews: %w", err)
		}

		product.Ratings = models.Ratings{
			Average: math.Round(agg.Average*10) / 10,
			Count:   agg.Count,
		}
		return tx.Model(&product).Updates(map[string]any{
			"ratings_average": product.Ratings.Average,
			"ratings_count":   product.Ratings.Count,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}
