package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuCategory groups menu items on the menu card.
type MenuCategory string

const (
	MenuCategoryAppetizer MenuCategory = "appetizer"
	MenuCategoryMain      MenuCategory = "main"
	MenuCategoryDessert   MenuCategory = "dessert"
	MenuCategoryBeverage  MenuCategory = "beverage"
	MenuCategorySide      MenuCategory = "side"
)

func IsValidMenuCategory(category string) bool {
	switch MenuCategory(category) {
	case MenuCategoryAppetizer, MenuCategoryMain, MenuCategoryDessert, MenuCategoryBeverage, MenuCategorySide:
		return true
	}
	return false
}

// MenuItem represents a dish or drink that can be ordered
type MenuItem struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Category      MenuCategory    `json:"category"`
	IsAvailable   bool            `json:"is_available"`
	OrderCount    int             `json:"order_count"`    // orders that included the item
	TotalQuantity int             `json:"total_quantity"` // units sold across all orders
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// MenuFilters defines the available filters for querying menu items.
type MenuFilters struct {
	Category    *string `form:"category"`
	IsAvailable *bool   `form:"available"`
	Search      *string `form:"search"`
}
