package service

import (
	"context"
	"testing"

	"stylemart/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProductValidation(t *testing.T) {
	ctx := context.Background()

	newProduct := func() *domain.Product {
		return &domain.Product{
			Name:     "Puffer Jacket",
			Price:    120.00,
			Category: "men",
			Sizes:    domain.StringList{"S", "M", "L"},
			Stock:    10,
			IsActive: true,
		}
	}

	t.Run("valid product gets an ID and timestamps", func(t *testing.T) {
		products := newMockProductStore()
		service := NewProductService(products)

		product := newProduct()
		require.NoError(t, service.Create(ctx, product))
		assert.NotEqual(t, uuid.Nil, product.ID)
		assert.False(t, product.CreatedAt.IsZero())
		assert.Contains(t, products.products, product.ID)
	})

	t.Run("unknown category", func(t *testing.T) {
		service := NewProductService(newMockProductStore())
		product := newProduct()
		product.Category = "appliances"
		assert.ErrorIs(t, service.Create(ctx, product), ErrInvalidCategory)
	})

	t.Run("negative price", func(t *testing.T) {
		service := NewProductService(newMockProductStore())
		product := newProduct()
		product.Price = -1
		assert.ErrorIs(t, service.Create(ctx, product), ErrInvalidPrice)
	})

	t.Run("negative stock", func(t *testing.T) {
		service := NewProductService(newMockProductStore())
		product := newProduct()
		product.Stock = -5
		assert.ErrorIs(t, service.Create(ctx, product), ErrInvalidStock)
	})

	t.Run("size outside the vocabulary", func(t *testing.T) {
		service := NewProductService(newMockProductStore())
		product := newProduct()
		product.Sizes = domain.StringList{"M", "XXXS"}

		err := service.Create(ctx, product)
		var sizeErr *InvalidSizeError
		require.ErrorAs(t, err, &sizeErr)
		assert.Equal(t, "XXXS", sizeErr.Size)
	})
}

func TestUpdateProductValidation(t *testing.T) {
	ctx := context.Background()
	products := newMockProductStore()
	service := NewProductService(products)

	product := seedProduct(products, "Rain Coat", 80.00, 6)

	product.Price = 72.00
	require.NoError(t, service.Update(ctx, product))
	assert.Equal(t, 72.00, products.products[product.ID].Price)

	product.Category = "furniture"
	assert.ErrorIs(t, service.Update(ctx, product), ErrInvalidCategory)
}
