package pantry

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"

	applog "pantry/internal/log"
	"pantry/models"
)

// Scope selects which conversion rules apply. The zero value is the global
// table. A user scope consults rules stored under that user first and falls
// back to the global rule.
type Scope struct {
	UserID uint
}

// GlobalScope resolves against global rules only.
var GlobalScope = Scope{}

func (s Scope) chain() []uint {
	if s.UserID == 0 {
		return []uint{0}
	}
	return []uint{s.UserID, 0}
}

// Resolver maps a unit as written in a recipe to canonical units of an
// ingredient.
type Resolver struct {
	db *gorm.DB
}

// NewResolver returns a Resolver reading rules from db.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve returns how many canonical units one unit of the measure equals.
// The canonical unit itself, and its synonyms, resolve to 1 without a rule.
func (r *Resolver) Resolve(ctx context.Context, scope Scope, ingredient models.Ingredient, unit string) (float64, error) {
	const op = "resolve conversion"

	if isCanonicalFor(ingredient, unit) {
		return 1, nil
	}

	key := NormalizeUnit(unit)
	var rules []models.ConversionRule
	err := r.db.WithContext(ctx).
		Where("ingredient_id = ? AND measurement_unit = ? AND scope_id IN ?", ingredient.ID, key, scope.chain()).
		Find(&rules).Error
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	rule, ok := pickRule(rules, scope)
	if !ok {
		applog.Debug(ctx, "conversion missing", "ingredient", ingredient.Name, "unit", key)
		return 0, &Error{
			Kind:       KindUnknownConversion,
			Op:         op,
			Ingredient: ingredient.Name,
			Unit:       unit,
			Message:    "no conversion rule registered",
		}
	}
	if !validPositive(rule.QuantityInStandardUnit) {
		return 0, &Error{
			Kind:       KindInvalidFactor,
			Op:         op,
			Ingredient: ingredient.Name,
			Unit:       unit,
			Message:    fmt.Sprintf("stored factor %v is not positive", rule.QuantityInStandardUnit),
		}
	}
	return rule.QuantityInStandardUnit, nil
}

func pickRule(rules []models.ConversionRule, scope Scope) (models.ConversionRule, bool) {
	var global *models.ConversionRule
	for i := range rules {
		if scope.UserID != 0 && rules[i].ScopeID == scope.UserID {
			return rules[i], true
		}
		if rules[i].ScopeID == 0 {
			global = &rules[i]
		}
	}
	if global == nil {
		return models.ConversionRule{}, false
	}
	return *global, true
}

// Register adds a global rule. Existing pairs are never overwritten.
func (r *Resolver) Register(ctx context.Context, ingredientID uint, unit string, factor float64) (models.ConversionRule, error) {
	const op = "register conversion"

	if !validPositive(factor) {
		return models.ConversionRule{}, &Error{
			Kind:    KindInvalidFactor,
			Op:      op,
			Unit:    unit,
			Message: fmt.Sprintf("factor must be a positive number, got %v", factor),
		}
	}
	key := NormalizeUnit(unit)
	if key == "" {
		return models.ConversionRule{}, invalidArgument(op, "measurement unit must not be empty")
	}

	ingredient, err := loadIngredient(ctx, r.db, op, ingredientID)
	if err != nil {
		return models.ConversionRule{}, err
	}
	if isCanonicalFor(ingredient, unit) {
		return models.ConversionRule{}, invalidArgument(op, "%q is the canonical unit of %s", unit, ingredient.Name)
	}

	exists := func() *Error {
		return &Error{
			Kind:       KindConversionExists,
			Op:         op,
			Ingredient: ingredient.Name,
			Unit:       key,
			Message:    "conversion already registered; update it instead",
		}
	}

	var count int64
	err = r.db.WithContext(ctx).Model(&models.ConversionRule{}).
		Where("scope_id = 0 AND ingredient_id = ? AND measurement_unit = ?", ingredient.ID, key).
		Count(&count).Error
	if err != nil {
		return models.ConversionRule{}, fmt.Errorf("%s: %w", op, err)
	}
	if count > 0 {
		return models.ConversionRule{}, exists()
	}

	rule := models.ConversionRule{
		IngredientID:           ingredient.ID,
		MeasurementUnit:        key,
		QuantityInStandardUnit: factor,
	}
	if err := r.db.WithContext(ctx).Create(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.ConversionRule{}, exists()
		}
		return models.ConversionRule{}, fmt.Errorf("%s: %w", op, err)
	}

	applog.Info(ctx, "conversion registered",
		"ingredient", ingredient.Name,
		"unit", key,
		"factor", factor,
	)
	return rule, nil
}

func validPositive(value float64) bool {
	return value > 0 && !math.IsInf(value, 0) && !math.IsNaN(value)
}

func validNonNegative(value float64) bool {
	return value >= 0 && !math.IsInf(value, 0) && !math.IsNaN(value)
}
