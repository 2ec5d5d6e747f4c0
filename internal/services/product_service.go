package services

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/models"
	"storefront/internal/repositories"
	pkgerrors "storefront/pkg/errors"
	"storefront/pkg/logger"
	"storefront/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultProductPageSize is the catalog page size when none is requested.
const DefaultProductPageSize = 12

type InventoryInput struct {
	Quantity          *int  `json:"quantity"`
	LowStockThreshold *int  `json:"lowStockThreshold"`
	TrackInventory    *bool `json:"trackInventory"`
	AllowBackorders   *bool `json:"allowBackorders"`
}

// ProductInput is used for both create and partial update; nil fields are
// left untouched on update.
type ProductInput struct {
	SKU              *string          `json:"sku" validate:"omitempty,min=1,max=100"`
	Name             *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Slug             *string          `json:"slug" validate:"omitempty,max=220"`
	Description      *string          `json:"description"`
	ShortDescription *string          `json:"shortDescription" validate:"omitempty,max=500"`
	Price            *decimal.Decimal `json:"price"`
	ComparePrice     *decimal.Decimal `json:"comparePrice"`
	CategoryID       *string          `json:"categoryId"`
	Tags             []string         `json:"tags"`
	Images           []string         `json:"images"`
	Inventory        *InventoryInput  `json:"inventory"`
	IsActive         *bool            `json:"isActive"`
	IsFeatured       *bool            `json:"isFeatured"`
}

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Title   string `json:"title" validate:"max=200"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ProductService handles business logic for the catalog.
type ProductService struct {
	repo repositories.ProductRepository
	log  *logger.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, log *logger.Logger) *ProductService {
	if log == nil {
		log = logger.Nop()
	}
	return &ProductService{repo: repo, log: log}
}

func (s *ProductService) ListProducts(ctx context.Context, filter repositories.ProductFilter, page pagination.Params) ([]models.Product, pagination.Meta, error) {
	if filter.Sort == "" {
		filter.Sort = repositories.SortNewest
	}
	if !filter.Sort.IsValid() {
		return nil, pagination.Meta{}, pkgerrors.Newf(pkgerrors.CodeValidation, "Invalid sort: %s", filter.Sort)
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, pagination.Meta{}, pkgerrors.New(pkgerrors.CodeValidation, "minPrice cannot exceed maxPrice")
	}
	page = page.Normalize(DefaultProductPageSize)
	products, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, pagination.Meta{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list products")
	}
	return products, pagination.NewMeta(page, total), nil
}

// GetProduct resolves an id or a slug. Inactive products are hidden unless
// includeInactive is set.
func (s *ProductService) GetProduct(ctx context.Context, idOrSlug string, includeInactive bool) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, idOrSlug)
	if errors.Is(err, repositories.ErrNotFound) {
		product, err = s.repo.GetBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, notFoundOr(err, "Product not found", "failed to load product")
	}
	if !product.IsActive && !includeInactive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}
	return product, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if in.SKU == nil || strings.TrimSpace(*in.SKU) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "SKU is required")
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Name is required")
	}
	if in.Price == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Price is required")
	}

	product := &models.Product{
		ID:       uuid.New().String(),
		IsActive: true,
		Tags:     models.StringList{},
		Images:   models.StringList{},
		Inventory: models.Inventory{
			LowStockThreshold: models.DefaultLowStockThreshold,
			TrackInventory:    true,
		},
	}
	if err := applyProductInput(product, in); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, product, in.Slug != nil); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, s.writeError(err, "failed to create product")
	}
	s.log.Info(s.log.WithField(ctx, "product_id", product.ID), "product created")
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id string, in ProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Product not found", "failed to load product")
	}
	nameChanged := in.Name != nil && *in.Name != product.Name
	if err := applyProductInput(product, in); err != nil {
		return nil, err
	}
	if in.Slug == nil && nameChanged {
		product.Slug = ""
	}
	if err := s.ensureUnique(ctx, product, in.Slug != nil); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, s.writeError(err, "failed to update product")
	}
	return product, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Product not found", "failed to delete product")
	}
	return nil
}

// AddReview stores a rating and returns the product with refreshed ratings.
func (s *ProductService) AddReview(ctx context.Context, productID, userID string, in ReviewInput) (*models.Product, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Rating must be between 1 and 5")
	}
	review := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    in.Rating,
		Title:     strings.TrimSpace(in.Title),
		Comment:   strings.TrimSpace(in.Comment),
	}
	product, err := s.repo.AddReview(ctx, review)
	if err != nil {
		return nil, notFoundOr(err, "Product not found", "failed to add review")
	}
	return product, nil
}

// ensureUnique rejects a taken SKU and fills or checks the slug.
func (s *ProductService) ensureUnique(ctx context.Context, p *models.Product, explicitSlug bool) error {
	taken, err := s.repo.ExistsBySKU(ctx, p.SKU, p.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check SKU")
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeValidation, "SKU already exists")
	}

	if explicitSlug && p.Slug != "" {
		taken, err := s.repo.ExistsBySlug(ctx, p.Slug, p.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check slug")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeValidation, "Slug already exists")
		}
		return nil
	}
	if p.Slug != "" {
		return nil
	}
	generated, err := uniqueSlug(ctx, p.Name, func(ctx context.Context, candidate string) (bool, error) {
		return s.repo.ExistsBySlug(ctx, candidate, p.ID)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to generate slug")
	}
	p.Slug = generated
	return nil
}

func (s *ProductService) writeError(err error, msg string) error {
	switch {
	case errors.Is(err, repositories.ErrDuplicate):
		return pkgerrors.New(pkgerrors.CodeValidation, "SKU or slug already exists")
	case errors.Is(err, repositories.ErrNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}

func applyProductInput(p *models.Product, in ProductInput) error {
	if in.Price != nil && in.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "Price must not be negative")
	}
	if in.ComparePrice != nil && in.ComparePrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "Compare price must not be negative")
	}
	if inv := in.Inventory; inv != nil {
		if inv.Quantity != nil && *inv.Quantity < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "Inventory quantity must not be negative")
		}
		if inv.LowStockThreshold != nil && *inv.LowStockThreshold < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "Low stock threshold must not be negative")
		}
	}

	if in.SKU != nil {
		p.SKU = strings.TrimSpace(*in.SKU)
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Slug != nil {
		p.Slug = strings.TrimSpace(*in.Slug)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.ShortDescription != nil {
		p.ShortDescription = *in.ShortDescription
	}
	if in.Price != nil {
		p.Price = models.RoundMoney(*in.Price)
	}
	if in.ComparePrice != nil {
		compare := models.RoundMoney(*in.ComparePrice)
		p.ComparePrice = &compare
	}
	if in.CategoryID != nil {
		p.CategoryID = *in.CategoryID
	}
	if in.Tags != nil {
		p.Tags = normalizeTags(in.Tags)
	}
	if in.Images != nil {
		p.Images = models.StringList(in.Images)
	}
	if inv := in.Inventory; inv != nil {
		if inv.Quantity != nil {
			p.Inventory.Quantity = *inv.Quantity
		}
		if inv.LowStockThreshold != nil {
			p.Inventory.LowStockThreshold = *inv.LowStockThreshold
		}
		if inv.TrackInventory != nil {
			p.Inventory.TrackInventory = *inv.TrackInventory
		}
		if inv.AllowBackorders != nil {
			p.Inventory.AllowBackorders = *inv.AllowBackorders
		}
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	return nil
}

func normalizeTags(tags []string) models.StringList {
	out := make(models.StringList, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
