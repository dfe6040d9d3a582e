package repositories

import "shoply/internal/models"

// CartRepository defines the interface for cart line-item data access.
type CartRepository interface {
	GetByUser(userID uint) ([]models.CartItem, error)
	GetByID(id uint) (*models.CartItem, error)
	GetByUserAndProduct(userID, productID uint) (*models.CartItem, error)
	Create(item *models.CartItem) error
	Update(item *models.CartItem) error
	Delete(id uint) error
	DeleteByUser(userID uint) error
}
