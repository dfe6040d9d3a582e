package models

// CartItem is a line item in a user's cart. At most one row exists per
// (user, product) pair; adds for an existing product merge quantities.
type CartItem struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	UserID    uint `json:"user_id" gorm:"index"`
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`

	// Product is joined from the catalog at read time, never persisted
	// on the row itself.
	Product *Product `json:"product,omitempty" gorm:"-"`
}
