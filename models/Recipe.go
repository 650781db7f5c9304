package models

import (
	"gorm.io/gorm"
)

// Recipe belongs to exactly one user. Ingredient quantities are written for
// Servings portions.
type Recipe struct {
	gorm.Model
	UserID          uint               `gorm:"not null;index" json:"user_id"`
	Name            string             `gorm:"not null" json:"name"`
	Description     string             `gorm:"type:text" json:"description"`
	Servings        int                `gorm:"not null" json:"servings"`
	PrepTimeMinutes int                `json:"prep_time_minutes"`
	Ingredients     []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"ingredients"`
}

// RecipeIngredient references its ingredient by name, in recipe terms.
type RecipeIngredient struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	RecipeID       uint    `gorm:"not null;uniqueIndex:idx_recipe_ingredient_unit" json:"recipe_id"`
	IngredientName string  `gorm:"size:100;not null;uniqueIndex:idx_recipe_ingredient_unit" json:"ingredient_name"`
	Quantity       float64 `gorm:"not null" json:"quantity"`
	Unit           string  `gorm:"size:32;not null;uniqueIndex:idx_recipe_ingredient_unit" json:"unit"`
	Notes          string  `gorm:"type:text" json:"notes"`
}
