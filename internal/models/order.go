package models

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// OrderItem is a single line within an order. PriceAtPurchase and Product
// are snapshots taken at order creation, decoupled from later catalog edits.
type OrderItem struct {
	ID              uint    `json:"id" gorm:"primaryKey"`
	OrderID         uint    `json:"order_id" gorm:"index"`
	ProductID       uint    `json:"product_id"`
	Quantity        int     `json:"quantity"`
	PriceAtPurchase float64 `json:"price_at_purchase"`
	Product         Product `json:"product" gorm:"serializer:json"`
}

// Order represents a finalized purchase. Immutable except Status.
type Order struct {
	ID              uint        `json:"id" gorm:"primaryKey"`
	UserID          uint        `json:"user_id" gorm:"index"`
	ShippingAddress string      `json:"shipping_address"`
	TotalAmount     float64     `json:"total_amount"`
	Status          OrderStatus `json:"status" gorm:"type:varchar(20)"`
	CreatedAt       time.Time   `json:"created_at"`
	Items           []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
}
