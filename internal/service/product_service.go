package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stylemart/internal/domain"
	"stylemart/internal/repository"

	"github.com/google/uuid"
)

const featuredLimit = 8

var (
	ErrInvalidCategory = errors.New("unknown product category")
	ErrInvalidPrice    = errors.New("product price must not be negative")
	ErrInvalidStock    = errors.New("product stock must not be negative")
)

// InvalidSizeError reports a size outside the fixed vocabulary.
type InvalidSizeError struct {
	Size string
}

func (e *InvalidSizeError) Error() string {
	return fmt.Sprintf("unknown product size %q", e.Size)
}

// ProductService defines catalog reads for the storefront and product
// management for administrators.
type ProductService interface {
	List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Featured(ctx context.Context) ([]*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

// List returns catalog products matching the filter. Storefront callers
// should set ActiveOnly; the admin catalog view lists everything.
func (s *productService) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	tctx, cancel := context.WithTimeout(ctx, StoreTimeout)
	defer cancel()

	products, total, err := s.productRepo.List(tctx, filter)
	if err != nil {
		return nil, 0, mapStoreErr(err)
	}
	return products, total, nil
}

// GetByID returns a single product.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	tctx, cancel := context.WithTimeout(ctx, StoreTimeout)
	defer cancel()

	product, err := s.productRepo.FindByID(tctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return product, nil
}

// Featured returns active featured products for the storefront home page.
func (s *productService) Featured(ctx context.Context) ([]*domain.Product, error) {
	tctx, cancel := context.WithTimeout(ctx, StoreTimeout)
	defer cancel()

	products, err := s.productRepo.FindFeatured(tctx, featuredLimit)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return products, nil
}

// Create validates and persists a new product (administrative).
func (s *productService) Create(ctx context.Context, product *domain.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}

	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	tctx, cancel := context.WithTimeout(ctx, StoreTimeout)
	defer cancel()

	if err := s.productRepo.Create(tctx, product); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// Update validates and saves changes to an existing product (administrative).
func (s *productService) Update(ctx context.Context, product *domain.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}

	product.UpdatedAt = time.Now()

	tctx, cancel := context.WithTimeout(ctx, StoreTimeout)
	defer cancel()

	if err := s.productRepo.Update(tctx, product); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// Delete removes a product (administrative). Historical order line items
// keep their snapshots and survive the deletion.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	tctx, cancel := context.WithTimeout(ctx, StoreTimeout)
	defer cancel()

	if err := s.productRepo.Delete(tctx, id); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

func validateProduct(product *domain.Product) error {
	if !domain.ValidCategory(product.Category) {
		return ErrInvalidCategory
	}
	if product.Price < 0 {
		return ErrInvalidPrice
	}
	if product.OriginalPrice != nil && *product.OriginalPrice < 0 {
		return ErrInvalidPrice
	}
	if product.Stock < 0 {
		return ErrInvalidStock
	}
	for _, size := range product.Sizes {
		if !domain.ValidSize(size) {
			return &InvalidSizeError{Size: size}
		}
	}
	return nil
}
