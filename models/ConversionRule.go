package models

import "time"

// ConversionRule states that one MeasurementUnit of an ingredient equals
// QuantityInStandardUnit of its canonical unit. ScopeID zero marks a global rule.
type ConversionRule struct {
	ID                     uint      `gorm:"primaryKey" json:"id"`
	ScopeID                uint      `gorm:"not null;uniqueIndex:idx_conversion_scope_ingredient_unit" json:"scope_id"`
	IngredientID           uint      `gorm:"not null;uniqueIndex:idx_conversion_scope_ingredient_unit" json:"ingredient_id"`
	MeasurementUnit        string    `gorm:"size:32;not null;uniqueIndex:idx_conversion_scope_ingredient_unit" json:"measurement_unit"`
	QuantityInStandardUnit float64   `gorm:"not null" json:"quantity_in_standard_unit"`
	CreatedAt              time.Time `json:"created_at"`
}

// TableName keeps the table name aligned with the relational layout.
func (ConversionRule) TableName() string {
	return "conversions"
}
