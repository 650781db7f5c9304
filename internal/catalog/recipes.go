package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gorm.io/gorm"

	applog "pantry/internal/log"
	"pantry/internal/pantry"
	"pantry/models"
)

// RecipeInput describes a recipe to create.
type RecipeInput struct {
	Name            string           `json:"name" yaml:"name"`
	Description     string           `json:"description" yaml:"description"`
	Servings        int              `json:"servings" yaml:"servings"`
	PrepTimeMinutes int              `json:"prep_time_minutes" yaml:"prep_time_minutes"`
	Ingredients     []RecipeRowInput `json:"ingredients" yaml:"ingredients"`
}

// RecipeRowInput is one ingredient line of a recipe, in recipe units.
type RecipeRowInput struct {
	Name     string  `json:"name" yaml:"name"`
	Quantity float64 `json:"quantity" yaml:"quantity"`
	Unit     string  `json:"unit" yaml:"unit"`
	Notes    string  `json:"notes" yaml:"notes"`
}

// CreateRecipe stores a recipe owned by userID. Rows naming the same
// ingredient in the same unit are merged. Every row must name an ingredient
// of the catalog; units are checked later, when the recipe is evaluated.
func (c *Catalog) CreateRecipe(ctx context.Context, userID uint, in RecipeInput) (models.Recipe, error) {
	const op = "create recipe"

	if userID == 0 {
		return models.Recipe{}, catalogError(pantry.KindInvalidArgument, op, "user is required")
	}
	name, err := validateName(op, in.Name)
	if err != nil {
		return models.Recipe{}, err
	}
	if in.Servings < 1 {
		return models.Recipe{}, catalogError(pantry.KindInvalidArgument, op, "servings must be at least 1, got %d", in.Servings)
	}
	if in.PrepTimeMinutes < 0 {
		return models.Recipe{}, catalogError(pantry.KindInvalidArgument, op, "prep time must not be negative")
	}
	if len(in.Ingredients) == 0 {
		return models.Recipe{}, catalogError(pantry.KindInvalidArgument, op, "recipe %q has no ingredients", name)
	}

	rows, err := mergeRows(op, in.Ingredients)
	if err != nil {
		return models.Recipe{}, err
	}

	recipe := models.Recipe{
		UserID:          userID,
		Name:            name,
		Description:     strings.TrimSpace(in.Description),
		Servings:        in.Servings,
		PrepTimeMinutes: in.PrepTimeMinutes,
		Ingredients:     rows,
	}

	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireIngredients(tx, op, rows); err != nil {
			return err
		}
		if err := tx.Create(&recipe).Error; err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})
	if err != nil {
		return models.Recipe{}, err
	}

	applog.Info(ctx, "recipe created", "user", userID, "recipe", recipe.Name, "rows", len(rows))
	return recipe, nil
}

func mergeRows(op string, inputs []RecipeRowInput) ([]models.RecipeIngredient, error) {
	type rowKey struct{ name, unit string }

	index := make(map[rowKey]int, len(inputs))
	rows := make([]models.RecipeIngredient, 0, len(inputs))
	for i, in := range inputs {
		name := strings.Join(strings.Fields(in.Name), " ")
		unit := pantry.NormalizeUnit(in.Unit)
		if name == "" {
			return nil, catalogError(pantry.KindInvalidArgument, op, "row %d has no ingredient name", i+1)
		}
		if unit == "" {
			return nil, catalogError(pantry.KindInvalidArgument, op, "row %d (%s) has no unit", i+1, name)
		}
		if !(in.Quantity > 0) || math.IsInf(in.Quantity, 1) {
			return nil, catalogError(pantry.KindInvalidArgument, op, "row %d (%s) must have a positive quantity", i+1, name)
		}

		key := rowKey{name: models.IngredientKey(name), unit: unit}
		if at, ok := index[key]; ok {
			rows[at].Quantity += in.Quantity
			if notes := strings.TrimSpace(in.Notes); notes != "" {
				rows[at].Notes = strings.TrimPrefix(rows[at].Notes+"; "+notes, "; ")
			}
			continue
		}
		index[key] = len(rows)
		rows = append(rows, models.RecipeIngredient{
			IngredientName: name,
			Quantity:       in.Quantity,
			Unit:           unit,
			Notes:          strings.TrimSpace(in.Notes),
		})
	}
	return rows, nil
}

func requireIngredients(tx *gorm.DB, op string, rows []models.RecipeIngredient) error {
	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, models.IngredientKey(row.IngredientName))
	}

	var known []string
	if err := tx.Model(&models.Ingredient{}).Where("name_key IN ?", keys).Pluck("name_key", &known).Error; err != nil {
		return fmt.Errorf("%s: lookup ingredients: %w", op, err)
	}
	present := make(map[string]bool, len(known))
	for _, key := range known {
		present[key] = true
	}
	for _, row := range rows {
		if !present[models.IngredientKey(row.IngredientName)] {
			return &pantry.Error{
				Kind:       pantry.KindUnknownIngredient,
				Op:         op,
				Ingredient: row.IngredientName,
				Message:    "ingredient is not in the catalog",
			}
		}
	}
	return nil
}

// DeleteRecipe removes a recipe the user owns together with its rows.
func (c *Catalog) DeleteRecipe(ctx context.Context, userID, recipeID uint) error {
	const op = "delete recipe"

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.Where("id = ? AND user_id = ?", recipeID, userID).First(&recipe).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return catalogError(pantry.KindNotFound, op, "recipe %d does not exist", recipeID)
			}
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("%s: delete rows: %w", op, err)
		}
		if err := tx.Delete(&recipe).Error; err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		applog.Info(ctx, "recipe deleted", "user", userID, "recipe", recipe.Name)
		return nil
	})
}

// ListRecipes returns the user's recipes with their rows, ordered by name.
func (c *Catalog) ListRecipes(ctx context.Context, userID uint) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := c.db.WithContext(ctx).
		Preload("Ingredients", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		Where("user_id = ?", userID).
		Order("name asc, id asc").
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

func (c *Catalog) recipeByName(tx *gorm.DB, userID uint, name string) (models.Recipe, bool, error) {
	var recipe models.Recipe
	err := tx.Where("user_id = ? AND name = ?", userID, name).First(&recipe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Recipe{}, false, nil
		}
		return models.Recipe{}, false, err
	}
	return recipe, true, nil
}

// ResolveRecipe finds one of the user's recipes by numeric id or by name.
func (c *Catalog) ResolveRecipe(ctx context.Context, userID uint, ref string) (models.Recipe, error) {
	const op = "resolve recipe"

	ref = strings.Join(strings.Fields(ref), " ")
	if ref == "" {
		return models.Recipe{}, catalogError(pantry.KindInvalidArgument, op, "recipe reference is empty")
	}

	tx := c.db.WithContext(ctx)
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		var recipe models.Recipe
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&recipe).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.Recipe{}, catalogError(pantry.KindNotFound, op, "recipe %d does not exist", id)
			}
			return models.Recipe{}, fmt.Errorf("%s: %w", op, err)
		}
		return recipe, nil
	}

	recipe, found, err := c.recipeByName(tx, userID, ref)
	if err != nil {
		return models.Recipe{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return models.Recipe{}, catalogError(pantry.KindNotFound, op, "recipe %q does not exist", ref)
	}
	return recipe, nil
}
