package models

import "time"

// InventoryRecord is the stock a single user holds of a single ingredient,
// expressed in the ingredient's canonical unit.
type InventoryRecord struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	UserID           uint        `gorm:"not null;uniqueIndex:idx_inventory_user_ingredient" json:"user_id"`
	IngredientID     uint        `gorm:"not null;uniqueIndex:idx_inventory_user_ingredient" json:"ingredient_id"`
	Ingredient       *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
	Quantity         float64     `gorm:"not null" json:"quantity"`
	MinimumThreshold float64     `gorm:"not null" json:"minimum_threshold"`
	ExpirationDate   *time.Time  `json:"expiration_date,omitempty"`
	// Version is bumped on every mutation and guards read-then-write sequences.
	Version   uint      `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps the table name aligned with the relational layout.
func (InventoryRecord) TableName() string {
	return "inventory"
}
