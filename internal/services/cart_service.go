package services

import (
	"errors"
	"fmt"

	"shoply/internal/models"
	"shoply/internal/repositories"
)

// CartService handles business logic for per-user shopping carts.
// All operations are scoped to the owning user's ID.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// ListItems returns the user's cart joined with current catalog data.
// Line items whose product has been deleted are silently dropped.
func (s *CartService) ListItems(userID uint) ([]models.CartItem, error) {
	items, err := s.cartRepo.GetByUser(userID)
	if err != nil {
		return nil, err
	}

	result := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				continue
			}
			return nil, err
		}
		item.Product = product
		result = append(result, item)
	}
	return result, nil
}

// AddItem adds a product to the user's cart. If a line item for the product
// already exists, quantities are summed and the combined total is re-checked
// against current inventory. Inventory itself is only decremented at order
// time, never here.
func (s *CartService) AddItem(userID, productID uint, quantity int) (*models.CartItem, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product.InventoryCount < quantity {
		return nil, fmt.Errorf("%w for product %s", ErrInsufficientInventory, product.Name)
	}

	existing, err := s.cartRepo.GetByUserAndProduct(userID, productID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		newQuantity := existing.Quantity + quantity
		if product.InventoryCount < newQuantity {
			return nil, fmt.Errorf("%w for product %s", ErrInsufficientInventory, product.Name)
		}
		existing.Quantity = newQuantity
		if err := s.cartRepo.Update(existing); err != nil {
			return nil, err
		}
		existing.Product = product
		return existing, nil
	}

	item := &models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.cartRepo.Create(item); err != nil {
		return nil, err
	}
	item.Product = product
	return item, nil
}

// UpdateItem sets the quantity of a line item the user owns, re-validating
// against current inventory.
func (s *CartService) UpdateItem(userID, itemID uint, quantity int) (*models.CartItem, error) {
	item, err := s.cartRepo.GetByID(itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, fmt.Errorf("%w: cart item %d", ErrForbidden, itemID)
	}

	product, err := s.productRepo.GetByID(item.ProductID)
	if err != nil {
		return nil, err
	}
	if product.InventoryCount < quantity {
		return nil, fmt.Errorf("%w for product %s", ErrInsufficientInventory, product.Name)
	}

	item.Quantity = quantity
	if err := s.cartRepo.Update(item); err != nil {
		return nil, err
	}
	item.Product = product
	return item, nil
}

// RemoveItem deletes a line item the user owns.
func (s *CartService) RemoveItem(userID, itemID uint) error {
	item, err := s.cartRepo.GetByID(itemID)
	if err != nil {
		return err
	}
	if item.UserID != userID {
		return fmt.Errorf("%w: cart item %d", ErrForbidden, itemID)
	}
	return s.cartRepo.Delete(itemID)
}

// Clear removes every item from the user's cart. Clearing an already empty
// cart succeeds.
func (s *CartService) Clear(userID uint) error {
	return s.cartRepo.DeleteByUser(userID)
}
