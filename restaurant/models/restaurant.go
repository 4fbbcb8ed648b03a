package models

import (
	"time"

	"github.com/google/uuid"
)

type Restaurant struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string     `gorm:"not null" json:"name"`
	Address   string     `gorm:"not null" json:"address"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	MenuItems []MenuItem `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE" json:"menu_items,omitempty"`
}

// MenuItem.Price is in integer minor units (cents).
type MenuItem struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RestaurantID uuid.UUID `gorm:"type:uuid;not null;index" json:"restaurant_id"`
	Name         string    `gorm:"not null" json:"name"`
	Description  string    `json:"description"`
	Price        int64     `gorm:"not null" json:"price"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
