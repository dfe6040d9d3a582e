package repositories

import "shoply/internal/models"

// OrderRepository defines the interface for order data access.
// Orders are never deleted; only their status changes after creation.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByUser(userID uint) ([]models.Order, error)
	GetByID(id uint) (*models.Order, error)
	Create(order *models.Order) error
	UpdateStatus(id uint, status models.OrderStatus) error
}
