package repositories

import (
	"context"

	"storefront/internal/models"
	"storefront/pkg/pagination"

	"github.com/shopspring/decimal"
)

type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortPriceAsc  ProductSort = "price-asc"
	SortPriceDesc ProductSort = "price-desc"
	SortPopular   ProductSort = "popular"
	SortRating    ProductSort = "rating"
)

func (s ProductSort) IsValid() bool {
	switch s {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortPopular, SortRating:
		return true
	}
	return false
}

// ProductFilter narrows a catalog listing. Zero values mean "no filter".
type ProductFilter struct {
	IncludeInactive bool
	CategoryID      string
	Search          string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	MinRating       *float64
	Featured        *bool
	InStock         bool
	// Tags matches products carrying any of the listed tags.
	Tags []string
	Sort ProductSort
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter, page pagination.Params) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	ExistsBySKU(ctx context.Context, sku, excludeID string) (bool, error)
	ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	// AddReview stores the review and recomputes the product's ratings.
	AddReview(ctx context.Context, review *models.Review) (*models.Product, error)
}
