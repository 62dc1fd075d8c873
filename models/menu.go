package models

import "time"

const (
	MenuCategoryDrink   = "drink"
	MenuCategoryFood    = "food"
	MenuCategoryBottle  = "bottle"
	MenuCategoryService = "service"
)

type MenuItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Category    string    `gorm:"type:varchar(20);not null;index" json:"category"`
	Price       float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	IsAvailable bool      `gorm:"not null" json:"is_available"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func ValidMenuCategory(c string) bool {
	switch c {
	case MenuCategoryDrink, MenuCategoryFood, MenuCategoryBottle, MenuCategoryService:
		return true
	}
	return false
}
