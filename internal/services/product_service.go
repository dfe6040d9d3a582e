package services

import (
	"time"

	"shoply/internal/models"
	"shoply/internal/repositories"
)

// ProductService handles business logic related to the catalog.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id uint) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(product *models.Product) error {
	product.CreatedAt = time.Now().UTC()
	return s.repo.Create(product)
}

// UpdateProduct replaces all mutable fields of an existing product,
// preserving its ID and CreatedAt.
func (s *ProductService) UpdateProduct(id uint, input *models.Product) (*models.Product, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	updated := *input
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id uint) error {
	return s.repo.Delete(id)
}
