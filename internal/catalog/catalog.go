package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	applog "pantry/internal/log"
	"pantry/internal/pantry"
	"pantry/models"
)

const maxNameLength = 100

// Catalog owns the definitional rows: ingredients and recipes. Inventory and
// conversions are written through pantry.Service.
type Catalog struct {
	db *gorm.DB
}

// New returns a Catalog over db.
func New(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// IngredientInput describes an ingredient to create. Unit accepts canonical
// names and their synonyms ("g", "ml", "pcs").
type IngredientInput struct {
	Name     string          `json:"name"`
	Category models.Category `json:"category"`
	Unit     string          `json:"unit_type"`
}

// IngredientPatch carries the mutable attributes of an ingredient.
type IngredientPatch struct {
	Category *models.Category `json:"category"`
	Unit     *string          `json:"unit_type"`
}

func catalogError(kind pantry.Kind, op, format string, args ...any) *pantry.Error {
	return &pantry.Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func validateName(op, name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", catalogError(pantry.KindInvalidArgument, op, "name must not be empty")
	}
	if len([]rune(name)) > maxNameLength {
		return "", catalogError(pantry.KindInvalidArgument, op, "name must be at most %d characters", maxNameLength)
	}
	return name, nil
}

func parseUnit(op, unit string) (models.CanonicalUnit, error) {
	canonical, ok := pantry.CanonicalUnitOf(unit)
	if !ok || !models.ValidUnit(canonical) {
		return "", catalogError(pantry.KindInvalidArgument, op, "unknown unit %q: use grams, millilitres or pieces", unit)
	}
	return canonical, nil
}

func parseCategory(op string, category models.Category) (models.Category, error) {
	if strings.TrimSpace(string(category)) == "" {
		return models.CategoryOthers, nil
	}
	normalized := models.Category(strings.ToLower(strings.TrimSpace(string(category))))
	if !models.ValidCategory(normalized) {
		return "", catalogError(pantry.KindInvalidArgument, op, "unknown category %q", category)
	}
	return normalized, nil
}

// CreateIngredient adds an ingredient to the catalog. A previously deleted
// ingredient of the same name is restored with its original id so that its
// retained conversions apply again.
func (c *Catalog) CreateIngredient(ctx context.Context, in IngredientInput) (models.Ingredient, error) {
	const op = "create ingredient"

	name, err := validateName(op, in.Name)
	if err != nil {
		return models.Ingredient{}, err
	}
	category, err := parseCategory(op, in.Category)
	if err != nil {
		return models.Ingredient{}, err
	}
	unit, err := parseUnit(op, in.Unit)
	if err != nil {
		return models.Ingredient{}, err
	}

	var created models.Ingredient
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Ingredient
		err := tx.Unscoped().Where("name_key = ?", models.IngredientKey(name)).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = models.Ingredient{Name: name, Category: category, Unit: unit}
			if err := tx.Create(&created).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return catalogError(pantry.KindConflict, op, "ingredient %q already exists", name)
				}
				return fmt.Errorf("%s: %w", op, err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("%s: %w", op, err)
		}

		if !existing.DeletedAt.Valid {
			return catalogError(pantry.KindConflict, op, "ingredient %q already exists", existing.Name)
		}

		if existing.Unit != unit {
			var rules int64
			if err := tx.Model(&models.ConversionRule{}).Where("ingredient_id = ?", existing.ID).Count(&rules).Error; err != nil {
				return fmt.Errorf("%s: count conversions: %w", op, err)
			}
			if rules > 0 {
				return catalogError(pantry.KindConflict, op,
					"ingredient %q was stored in %s and still has conversions; recreate it with that unit", existing.Name, existing.Unit)
			}
		}

		err = tx.Unscoped().Model(&existing).Updates(map[string]any{
			"deleted_at": nil,
			"name":       name,
			"name_key":   models.IngredientKey(name),
			"category":   category,
			"unit_type":  unit,
		}).Error
		if err != nil {
			return fmt.Errorf("%s: restore %d: %w", op, existing.ID, err)
		}
		if err := tx.First(&created, existing.ID).Error; err != nil {
			return fmt.Errorf("%s: reload %d: %w", op, existing.ID, err)
		}
		applog.Info(ctx, "ingredient restored", "id", created.ID, "name", created.Name)
		return nil
	})
	if err != nil {
		return models.Ingredient{}, err
	}
	return created, nil
}

// UpdateIngredient applies patch in one transaction. The unit may only change
// while no inventory record or conversion rule refers to the ingredient; a
// rejected unit leaves the category untouched too.
func (c *Catalog) UpdateIngredient(ctx context.Context, id uint, patch IngredientPatch) (models.Ingredient, error) {
	const op = "update ingredient"

	var category models.Category
	if patch.Category != nil {
		parsed, err := parseCategory(op, *patch.Category)
		if err != nil {
			return models.Ingredient{}, err
		}
		category = parsed
	}
	var canonical models.CanonicalUnit
	if patch.Unit != nil {
		parsed, err := parseUnit(op, *patch.Unit)
		if err != nil {
			return models.Ingredient{}, err
		}
		canonical = parsed
	}

	var updated models.Ingredient
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ingredient, err := ingredientForUpdate(tx, op, id)
		if err != nil {
			return err
		}
		if patch.Category != nil && ingredient.Category != category {
			if err := tx.Model(&ingredient).Update("category", category).Error; err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			ingredient.Category = category
		}
		if patch.Unit != nil {
			if ingredient, err = changeUnit(tx, op, ingredient, canonical); err != nil {
				return err
			}
		}
		updated = ingredient
		return nil
	})
	if err != nil {
		return models.Ingredient{}, err
	}
	return updated, nil
}

// ChangeUnit switches the canonical unit of an ingredient. The unit is fixed
// once inventory records or conversion rules depend on it.
func (c *Catalog) ChangeUnit(ctx context.Context, id uint, unit string) (models.Ingredient, error) {
	const op = "change unit"

	canonical, err := parseUnit(op, unit)
	if err != nil {
		return models.Ingredient{}, err
	}

	var updated models.Ingredient
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ingredient, err := ingredientForUpdate(tx, op, id)
		if err != nil {
			return err
		}
		updated, err = changeUnit(tx, op, ingredient, canonical)
		return err
	})
	if err != nil {
		return models.Ingredient{}, err
	}
	return updated, nil
}

func ingredientForUpdate(tx *gorm.DB, op string, id uint) (models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := tx.First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Ingredient{}, catalogError(pantry.KindNotFound, op, "ingredient %d does not exist", id)
		}
		return models.Ingredient{}, fmt.Errorf("%s: %w", op, err)
	}
	return ingredient, nil
}

func changeUnit(tx *gorm.DB, op string, ingredient models.Ingredient, canonical models.CanonicalUnit) (models.Ingredient, error) {
	if ingredient.Unit == canonical {
		return ingredient, nil
	}

	var stocked int64
	if err := tx.Model(&models.InventoryRecord{}).Where("ingredient_id = ?", ingredient.ID).Count(&stocked).Error; err != nil {
		return models.Ingredient{}, fmt.Errorf("%s: count inventory: %w", op, err)
	}
	if stocked > 0 {
		return models.Ingredient{}, &pantry.Error{
			Kind:       pantry.KindConflict,
			Op:         op,
			Ingredient: ingredient.Name,
			Message:    fmt.Sprintf("unit is fixed while %d inventory records hold the ingredient", stocked),
		}
	}

	var rules int64
	if err := tx.Model(&models.ConversionRule{}).Where("ingredient_id = ?", ingredient.ID).Count(&rules).Error; err != nil {
		return models.Ingredient{}, fmt.Errorf("%s: count conversions: %w", op, err)
	}
	if rules > 0 {
		return models.Ingredient{}, &pantry.Error{
			Kind:       pantry.KindConflict,
			Op:         op,
			Ingredient: ingredient.Name,
			Message:    fmt.Sprintf("unit is fixed while %d conversion rules are expressed in %s", rules, ingredient.Unit),
		}
	}

	if err := tx.Model(&ingredient).Update("unit_type", canonical).Error; err != nil {
		return models.Ingredient{}, fmt.Errorf("%s: %w", op, err)
	}
	ingredient.Unit = canonical
	return ingredient, nil
}

// DeleteIngredient removes the ingredient together with every inventory
// record and recipe row naming it. Conversion rules are kept.
func (c *Catalog) DeleteIngredient(ctx context.Context, id uint) error {
	const op = "delete ingredient"

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ingredient models.Ingredient
		if err := tx.First(&ingredient, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return catalogError(pantry.KindNotFound, op, "ingredient %d does not exist", id)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		stock := tx.Where("ingredient_id = ?", id).Delete(&models.InventoryRecord{})
		if stock.Error != nil {
			return fmt.Errorf("%s: delete inventory: %w", op, stock.Error)
		}

		rows, err := recipeRowsNaming(tx, ingredient.NameKey)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if len(rows) > 0 {
			if err := tx.Delete(&models.RecipeIngredient{}, rows).Error; err != nil {
				return fmt.Errorf("%s: delete recipe rows: %w", op, err)
			}
		}

		if err := tx.Delete(&ingredient).Error; err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		applog.Info(ctx, "ingredient deleted",
			"id", id,
			"name", ingredient.Name,
			"inventory_rows", stock.RowsAffected,
			"recipe_rows", len(rows),
		)
		return nil
	})
}

// recipeRowsNaming returns the ids of recipe rows whose ingredient name
// folds to key.
func recipeRowsNaming(tx *gorm.DB, key string) ([]uint, error) {
	var rows []models.RecipeIngredient
	if err := tx.Select("id", "ingredient_name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("scan recipe rows: %w", err)
	}
	var ids []uint
	for _, row := range rows {
		if models.IngredientKey(row.IngredientName) == key {
			ids = append(ids, row.ID)
		}
	}
	return ids, nil
}

// Ingredient loads a live ingredient by id.
func (c *Catalog) Ingredient(ctx context.Context, id uint) (models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := c.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Ingredient{}, catalogError(pantry.KindNotFound, "get ingredient", "ingredient %d does not exist", id)
		}
		return models.Ingredient{}, fmt.Errorf("get ingredient: %w", err)
	}
	return ingredient, nil
}

// Ingredients lists the catalog ordered by name.
func (c *Catalog) Ingredients(ctx context.Context) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	if err := c.db.WithContext(ctx).Order("name_key asc").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ingredients, nil
}

// ResolveRef turns a path reference, either a numeric id or a name, into a
// live ingredient.
func (c *Catalog) ResolveRef(ctx context.Context, ref string) (models.Ingredient, error) {
	const op = "resolve ingredient"

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Ingredient{}, catalogError(pantry.KindInvalidArgument, op, "ingredient reference must not be empty")
	}
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		return c.Ingredient(ctx, uint(id))
	}

	var ingredient models.Ingredient
	err := c.db.WithContext(ctx).Where("name_key = ?", models.IngredientKey(ref)).First(&ingredient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Ingredient{}, &pantry.Error{
				Kind:       pantry.KindNotFound,
				Op:         op,
				Ingredient: ref,
				Message:    "ingredient does not exist",
			}
		}
		return models.Ingredient{}, fmt.Errorf("%s: %w", op, err)
	}
	return ingredient, nil
}
