package pantry

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	appdb "pantry/internal/db"
	"pantry/models"
)

var testNow = time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := appdb.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return database
}

func newTestService(t *testing.T, opts Options) (*Service, *gorm.DB) {
	t.Helper()

	database := newTestDB(t)
	if opts.Now == nil {
		opts.Now = fixedClock
	}
	return NewService(database, opts), database
}

func createIngredient(t *testing.T, database *gorm.DB, name string, unit models.CanonicalUnit) models.Ingredient {
	t.Helper()

	ingredient := models.Ingredient{Name: name, Category: models.CategoryOthers, Unit: unit}
	require.NoError(t, database.Create(&ingredient).Error)
	return ingredient
}

func createRecipe(t *testing.T, database *gorm.DB, userID uint, name string, servings int, rows ...models.RecipeIngredient) models.Recipe {
	t.Helper()

	recipe := models.Recipe{UserID: userID, Name: name, Servings: servings, Ingredients: rows}
	require.NoError(t, database.Create(&recipe).Error)
	return recipe
}

func row(name string, quantity float64, unit string) models.RecipeIngredient {
	return models.RecipeIngredient{IngredientName: name, Quantity: quantity, Unit: unit}
}

func addRule(t *testing.T, database *gorm.DB, scopeID, ingredientID uint, unit string, factor float64) {
	t.Helper()

	rule := models.ConversionRule{
		ScopeID:                scopeID,
		IngredientID:           ingredientID,
		MeasurementUnit:        NormalizeUnit(unit),
		QuantityInStandardUnit: factor,
	}
	require.NoError(t, database.Create(&rule).Error)
}

func setStock(t *testing.T, database *gorm.DB, userID, ingredientID uint, quantity, threshold float64, expires *time.Time) models.InventoryRecord {
	t.Helper()

	record := models.InventoryRecord{
		UserID:           userID,
		IngredientID:     ingredientID,
		Quantity:         quantity,
		MinimumThreshold: threshold,
		ExpirationDate:   expires,
		Version:          1,
	}
	require.NoError(t, database.Create(&record).Error)
	return record
}

func stockOf(t *testing.T, database *gorm.DB, userID, ingredientID uint) float64 {
	t.Helper()

	var record models.InventoryRecord
	require.NoError(t, database.Where("user_id = ? AND ingredient_id = ?", userID, ingredientID).First(&record).Error)
	return record.Quantity
}

func day(offset int) *time.Time {
	d := dateOnly(testNow).AddDate(0, 0, offset)
	return &d
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()

	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}
