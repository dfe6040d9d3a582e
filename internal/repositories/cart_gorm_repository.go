package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"shoply/internal/models"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

// GetByUser retrieves all cart line items owned by a user.
func (r *GORMCartRepository) GetByUser(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Find(&items, "user_id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("failed to get cart items for user %d: %w", userID, err)
	}
	return items, nil
}

// GetByID retrieves a single cart item by its ID.
func (r *GORMCartRepository) GetByID(id uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart item with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart item by ID %d: %w", id, err)
	}
	return &item, nil
}

// GetByUserAndProduct retrieves the user's line item for a product, if any.
// The merge-on-insert invariant keeps this unique.
func (r *GORMCartRepository) GetByUserAndProduct(userID, productID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.First(&item, "user_id = ? AND product_id = ?", userID, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart item for user %d product %d: %w", userID, productID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart item for user %d product %d: %w", userID, productID, err)
	}
	return &item, nil
}

// Create inserts a new cart line item.
func (r *GORMCartRepository) Create(item *models.CartItem) error {
	if err := r.db.Create(item).Error; err != nil {
		return fmt.Errorf("failed to create cart item: %w", err)
	}
	return nil
}

// Update replaces an existing cart line item.
func (r *GORMCartRepository) Update(item *models.CartItem) error {
	res := r.db.Save(item)
	if res.Error != nil {
		return fmt.Errorf("failed to update cart item: %w", res.Error)
	}
	return nil
}

// Delete removes a cart item by its ID.
func (r *GORMCartRepository) Delete(id uint) error {
	res := r.db.Delete(&models.CartItem{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete cart item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item with ID %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteByUser removes every cart item owned by a user. Deleting an already
// empty cart is not an error.
func (r *GORMCartRepository) DeleteByUser(userID uint) error {
	if err := r.db.Delete(&models.CartItem{}, "user_id = ?", userID).Error; err != nil {
		return fmt.Errorf("failed to clear cart for user %d: %w", userID, err)
	}
	return nil
}
