package models

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID                 uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name               string         `gorm:"not null" json:"name"`
	Description        string         `json:"description"`
	Price              float64        `gorm:"not null" json:"price"`
	DiscountPercentage float64        `json:"discount_percentage"` // 0-100
	InventoryCount     int            `json:"inventory_count"`
	ImageURL           string         `json:"image_url"`
	IsFeatured         bool           `json:"is_featured"`
	CategoryID         uint           `gorm:"index" json:"category_id"`
	Category           Category       `gorm:"foreignKey:CategoryID" json:"category"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// EffectivePrice is the unit price after the product discount is applied.
func (p Product) EffectivePrice() float64 {
	return p.Price * (1 - p.DiscountPercentage/100)
}
