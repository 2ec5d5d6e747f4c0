package services_test

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	pkgerrors "storefront/pkg/errors"
	"storefront/pkg/pagination"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestProductService_ListProducts(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	expectedProducts := []models.Product{
		{ID: "1", Name: "Product A", Price: decimal.NewFromInt(10)},
		{ID: "2", Name: "Product B", Price: decimal.NewFromInt(20)},
	}
	wantFilter := repositories.ProductFilter{Sort: repositories.SortNewest}
	mockRepo.On("List", ctx, wantFilter, pagination.Params{Page: 1, Limit: 12}).Return(expectedProducts, int64(25), nil).Once()

	products, meta, err := service.ListProducts(ctx, repositories.ProductFilter{}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNextPage)
	mockRepo.AssertExpectations(t)

	_, _, err = service.ListProducts(ctx, repositories.ProductFilter{Sort: "cheapest"}, pagination.Params{})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, _, err = service.ListProducts(ctx, repositories.ProductFilter{MinPrice: decPtr("50"), MaxPrice: decPtr("10")}, pagination.Params{})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestProductService_GetProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	expectedProduct := &models.Product{ID: "1", Slug: "product-a", Name: "Product A", IsActive: true}

	// Lookup by slug falls back after id misses
	mockRepo.On("GetByID", ctx, "product-a").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("GetBySlug", ctx, "product-a").Return(expectedProduct, nil).Once()
	product, err := service.GetProduct(ctx, "product-a", false)
	require.NoError(t, err)
	assert.Equal(t, expectedProduct, product)

	// Test product not found
	mockRepo.On("GetByID", ctx, "99").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("GetBySlug", ctx, "99").Return(nil, repositories.ErrNotFound).Once()
	product, err = service.GetProduct(ctx, "99", false)
	assert.Nil(t, product)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	// Inactive products are hidden from the storefront
	hidden := &models.Product{ID: "2", Name: "Hidden"}
	mockRepo.On("GetByID", ctx, "2").Return(hidden, nil).Twice()
	_, err = service.GetProduct(ctx, "2", false)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	product, err = service.GetProduct(ctx, "2", true)
	require.NoError(t, err)
	assert.Equal(t, hidden, product)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	in := services.ProductInput{
		SKU:   strPtr("SKU-1"),
		Name:  strPtr("Cotton Kurta"),
		Price: decPtr("499.999"),
		Tags:  []string{" Summer", "summer", "Cotton "},
	}

	// Slug is generated and bumped past a taken one
	mockRepo.On("ExistsBySKU", ctx, "SKU-1", mock.Anything).Return(false, nil).Once()
	mockRepo.On("ExistsBySlug", ctx, "cotton-kurta", mock.Anything).Return(true, nil).Once()
	mockRepo.On("ExistsBySlug", ctx, "cotton-kurta-2", mock.Anything).Return(false, nil).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Product")).Return(nil).Once()

	product, err := service.CreateProduct(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "cotton-kurta-2", product.Slug)
	assert.Equal(t, "500", product.Price.String())
	assert.Equal(t, models.StringList{"summer", "cotton"}, product.Tags)
	assert.True(t, product.IsActive)
	assert.True(t, product.Inventory.TrackInventory)
	assert.Equal(t, models.DefaultLowStockThreshold, product.Inventory.LowStockThreshold)
	mockRepo.AssertExpectations(t)

	// Test duplicate SKU
	mockRepo.On("ExistsBySKU", ctx, "SKU-1", mock.Anything).Return(true, nil).Once()
	_, err = service.CreateProduct(ctx, in)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Equal(t, "SKU already exists", pkgerrors.PublicMessage(err))

	// Test creation failure (e.g., database error)
	mockRepo.On("ExistsBySKU", ctx, "SKU-1", mock.Anything).Return(false, nil).Once()
	mockRepo.On("ExistsBySlug", ctx, "cotton-kurta", mock.Anything).Return(false, nil).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Product")).Return(errors.New("database error")).Once()
	_, err = service.CreateProduct(ctx, in)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInternal))
	assert.Contains(t, err.Error(), "database error")
	mockRepo.AssertExpectations(t)

	// Required fields and negative amounts
	_, err = service.CreateProduct(ctx, services.ProductInput{Name: strPtr("x"), Price: decPtr("1")})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = service.CreateProduct(ctx, services.ProductInput{SKU: strPtr("S"), Name: strPtr("x"), Price: decPtr("-1")})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestProductService_UpdateProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	existing := &models.Product{
		ID:        "1",
		SKU:       "SKU-1",
		Name:      "Product A",
		Slug:      "product-a",
		Price:     decimal.NewFromInt(10),
		IsActive:  true,
		Inventory: models.Inventory{Quantity: 4, TrackInventory: true},
	}
	qty := 20
	mockRepo.On("GetByID", ctx, "1").Return(existing, nil).Once()
	mockRepo.On("ExistsBySKU", ctx, "SKU-1", "1").Return(false, nil).Once()
	mockRepo.On("Update", ctx, existing).Return(nil).Once()

	updated, err := service.UpdateProduct(ctx, "1", services.ProductInput{
		Price:     decPtr("12"),
		Inventory: &services.InventoryInput{Quantity: &qty},
	})
	require.NoError(t, err)
	assert.Equal(t, "12", updated.Price.String())
	assert.Equal(t, 20, updated.Inventory.Quantity)
	assert.True(t, updated.Inventory.TrackInventory)
	assert.Equal(t, "product-a", updated.Slug)
	mockRepo.AssertExpectations(t)

	// Test update of a missing product
	mockRepo.On("GetByID", ctx, "99").Return(nil, repositories.ErrNotFound).Once()
	_, err = service.UpdateProduct(ctx, "99", services.ProductInput{})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestProductService_DeleteProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	mockRepo.On("Delete", ctx, "1").Return(nil).Once()
	assert.NoError(t, service.DeleteProduct(ctx, "1"))

	mockRepo.On("Delete", ctx, "99").Return(repositories.ErrNotFound).Once()
	err := service.DeleteProduct(ctx, "99")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	mockRepo.AssertExpectations(t)
}

func TestProductService_AddReview(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	_, err := service.AddReview(ctx, "p1", "u1", services.ReviewInput{Rating: 6})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	rated := &models.Product{ID: "p1", Ratings: models.Ratings{Average: 4.5, Count: 2}}
	mockRepo.On("AddReview", ctx, mock.MatchedBy(func(r *models.Review) bool {
		return r.ProductID == "p1" && r.UserID == "u1" && r.Rating == 5
	})).Return(rated, nil).Once()

	product, err := service.AddReview(ctx, "p1", "u1", services.ReviewInput{Rating: 5, Comment: " great "})
	require.NoError(t, err)
	assert.Equal(t, 4.5, product.Ratings.Average)
	mockRepo.AssertExpectations(t)
}
