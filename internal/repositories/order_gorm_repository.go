package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"shoply/internal/models"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// GetAll retrieves every order with its items.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetByUser retrieves all orders placed by a user, with their items.
func (r *GORMOrderRepository) GetByUser(userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Find(&orders, "user_id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for user %d: %w", userID, err)
	}
	return orders, nil
}

// GetByID retrieves a single order with its items.
func (r *GORMOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %d: %w", id, err)
	}
	return &order, nil
}

// Create inserts a new order together with its line items.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// UpdateStatus sets the status of an existing order.
func (r *GORMOrderRepository) UpdateStatus(id uint, status models.OrderStatus) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update status for order %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
	}
	return nil
}
