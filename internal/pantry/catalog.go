package pantry

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"pantry/models"
)

// Read-only access to the catalog tables. Writes belong to the catalog
// collaborator.

func loadIngredient(ctx context.Context, db *gorm.DB, op string, ingredientID uint) (models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := db.WithContext(ctx).First(&ingredient, ingredientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Ingredient{}, notFound(op, "ingredient %d does not exist", ingredientID)
		}
		return models.Ingredient{}, fmt.Errorf("%s: load ingredient %d: %w", op, ingredientID, err)
	}
	return ingredient, nil
}

// lookupIngredientsByName returns the live catalog entries for names, keyed
// by models.IngredientKey.
func lookupIngredientsByName(ctx context.Context, db *gorm.DB, names []string) (map[string]models.Ingredient, error) {
	found := make(map[string]models.Ingredient, len(names))
	if len(names) == 0 {
		return found, nil
	}

	keys := make([]string, 0, len(names))
	for _, name := range names {
		keys = append(keys, models.IngredientKey(name))
	}

	var ingredients []models.Ingredient
	if err := db.WithContext(ctx).Where("name_key IN ?", keys).Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("lookup ingredients: %w", err)
	}
	for _, ingredient := range ingredients {
		found[ingredient.NameKey] = ingredient
	}
	return found, nil
}

// loadRecipe fetches a recipe with its rows. Recipes owned by someone else
// are reported as not found.
func loadRecipe(ctx context.Context, db *gorm.DB, op string, userID, recipeID uint) (models.Recipe, error) {
	var recipe models.Recipe
	err := db.WithContext(ctx).
		Preload("Ingredients", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		Where("id = ? AND user_id = ?", recipeID, userID).
		First(&recipe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Recipe{}, notFound(op, "recipe %d does not exist", recipeID)
		}
		return models.Recipe{}, fmt.Errorf("%s: load recipe %d: %w", op, recipeID, err)
	}
	return recipe, nil
}

func listRecipes(ctx context.Context, db *gorm.DB, userID uint) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := db.WithContext(ctx).
		Preload("Ingredients", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		Where("user_id = ?", userID).
		Order("name asc, id asc").
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}
