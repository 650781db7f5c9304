package models

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// Category groups ingredients for display and filtering.
type Category string

const (
	CategoryStaple    Category = "staple"
	CategoryDairy     Category = "dairy"
	CategoryProtein   Category = "protein"
	CategoryCondiment Category = "condiment"
	CategoryProduce   Category = "produce"
	CategoryOthers    Category = "others"
)

// CanonicalUnit is the storage-of-record unit for an ingredient.
type CanonicalUnit string

const (
	UnitGrams       CanonicalUnit = "grams"
	UnitMillilitres CanonicalUnit = "millilitres"
	UnitPieces      CanonicalUnit = "pieces"
)

// Ingredient is a catalog entry. Inventory quantities for the ingredient are
// always stored in Unit.
// NameKey enforces case-insensitive uniqueness of Name and is what recipe
// rows are matched against.
type Ingredient struct {
	gorm.Model
	Name     string        `gorm:"size:100;not null" json:"name"`
	NameKey  string        `gorm:"uniqueIndex;size:100;not null" json:"-"`
	Category Category      `gorm:"type:varchar(32);not null" json:"category"`
	Unit     CanonicalUnit `gorm:"column:unit_type;type:varchar(16);not null" json:"unit_type"`
}

// BeforeSave keeps NameKey in step with Name.
func (i *Ingredient) BeforeSave(tx *gorm.DB) error {
	i.NameKey = IngredientKey(i.Name)
	return nil
}

// IngredientKey folds an ingredient name into its lookup key.
func IngredientKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(norm.NFKC.String(name)), " "))
}

// ValidCategory reports whether value names a known category.
func ValidCategory(value Category) bool {
	switch value {
	case CategoryStaple, CategoryDairy, CategoryProtein, CategoryCondiment, CategoryProduce, CategoryOthers:
		return true
	}
	return false
}

// ValidUnit reports whether value names a canonical unit.
func ValidUnit(value CanonicalUnit) bool {
	switch value {
	case UnitGrams, UnitMillilitres, UnitPieces:
		return true
	}
	return false
}
