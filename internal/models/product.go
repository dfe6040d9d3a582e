package models

import "time"

// ProductCategory is the fixed set of catalog categories.
type ProductCategory string

const (
	CategoryElectronics ProductCategory = "electronics"
	CategoryClothing    ProductCategory = "clothing"
	CategoryHome        ProductCategory = "home"
	CategoryBooks       ProductCategory = "books"
	CategoryToys        ProductCategory = "toys"
	CategoryOther       ProductCategory = "other"
)

// Product represents a product in the catalog.
type Product struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	Name           string          `json:"name" gorm:"type:varchar(255)"`
	Description    string          `json:"description"`
	Price          float64         `json:"price"`
	ImageURL       string          `json:"image_url"`
	Category       ProductCategory `json:"category" gorm:"type:varchar(20)"`
	InventoryCount int             `json:"inventory_count"`
	CreatedAt      time.Time       `json:"created_at"`
}
