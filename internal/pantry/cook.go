package pantry

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gorm.io/gorm"

	applog "pantry/internal/log"
	"pantry/models"
)

// CookRequest asks to consume the ingredients of a recipe. Servings of zero
// cooks the recipe's baseline. Overrides replace the computed canonical
// quantity of individual ingredients, keyed by ingredient id.
type CookRequest struct {
	UserID    uint
	RecipeID  uint
	Servings  int
	Overrides map[uint]float64
}

// Deduction is the change applied to one inventory record.
type Deduction struct {
	IngredientID uint                 `json:"ingredient_id"`
	Ingredient   string               `json:"ingredient"`
	Unit         models.CanonicalUnit `json:"unit"`
	Deducted     float64              `json:"deducted"`
	NewQuantity  float64              `json:"new_quantity"`
	// Clamped is set when less than required was available and the
	// coordinator deducted what existed instead of failing.
	Clamped bool `json:"clamped,omitempty"`
}

// CookResult reports a successful cook.
type CookResult struct {
	RecipeID   uint        `json:"recipe_id"`
	Recipe     string      `json:"recipe"`
	Servings   int         `json:"servings"`
	Deductions []Deduction `json:"deductions"`
}

// Coordinator applies all deductions of a cook or none of them.
type Coordinator struct {
	db            *gorm.DB
	requirements  *RequirementResolver
	ledger        *Ledger
	clampOverdraw bool
}

// NewCoordinator wires a Coordinator. With clampOverdraw set a shortfall no
// longer aborts the cook; the available stock is consumed and the deduction
// is flagged as clamped.
func NewCoordinator(db *gorm.DB, requirements *RequirementResolver, ledger *Ledger, clampOverdraw bool) *Coordinator {
	return &Coordinator{
		db:            db,
		requirements:  requirements,
		ledger:        ledger,
		clampOverdraw: clampOverdraw,
	}
}

// Cook deducts the recipe's requirements from the user's inventory.
// Resolution and validation errors surface before any lock is taken.
func (c *Coordinator) Cook(ctx context.Context, req CookRequest) (CookResult, error) {
	const op = "cook"

	recipe, err := loadRecipe(ctx, c.db, op, req.UserID, req.RecipeID)
	if err != nil {
		return CookResult{}, err
	}
	servings := req.Servings
	if servings == 0 {
		servings = recipe.Servings
	}

	requirements, err := c.requirements.Resolve(ctx, recipe, servings)
	if err != nil {
		return CookResult{}, err
	}
	if err := applyOverrides(op, requirements, req.Overrides); err != nil {
		return CookResult{}, err
	}

	ids := requirementIDs(requirements)
	release, err := c.ledger.locks.acquire(ctx, req.UserID, ids...)
	if err != nil {
		return CookResult{}, fmt.Errorf("%s: wait for inventory locks: %w", op, err)
	}
	defer release()

	var deductions []Deduction
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := lockRows(tx, req.UserID, ids)
		if err != nil {
			return err
		}

		stock := make(map[uint]float64, len(rows))
		for id, row := range rows {
			stock[id] = row.Quantity
		}
		if missing := shortfalls(requirements, stock); len(missing) > 0 && !c.clampOverdraw {
			return &Error{
				Kind:       KindInsufficientStock,
				Op:         op,
				Message:    fmt.Sprintf("not enough stock to cook %q", recipe.Name),
				Shortfalls: missing,
			}
		}

		now := c.ledger.now().UTC()
		deductions = make([]Deduction, 0, len(requirements))
		for _, need := range requirements {
			row, ok := rows[need.IngredientID]
			deduction := Deduction{
				IngredientID: need.IngredientID,
				Ingredient:   need.Ingredient,
				Unit:         need.Unit,
			}

			amount := need.Quantity
			if row.Quantity+quantityEpsilon < amount {
				amount = row.Quantity
				deduction.Clamped = true
			}
			if !ok || amount <= 0 {
				deduction.NewQuantity = row.Quantity
				deductions = append(deductions, deduction)
				continue
			}

			remaining := math.Max(row.Quantity-amount, 0)
			stored, err := c.ledger.update(tx, op, row, map[string]any{"quantity": remaining}, now)
			if err != nil {
				return err
			}
			deduction.Deducted = amount
			deduction.NewQuantity = stored.Quantity
			deductions = append(deductions, deduction)
		}
		return nil
	})
	if err != nil {
		return CookResult{}, lockFailure(op, err)
	}

	applog.Info(ctx, "recipe cooked",
		"user", req.UserID,
		"recipe", recipe.Name,
		"servings", servings,
		"deductions", len(deductions),
	)
	return CookResult{
		RecipeID:   recipe.ID,
		Recipe:     recipe.Name,
		Servings:   servings,
		Deductions: deductions,
	}, nil
}

// applyOverrides replaces computed quantities in place. Every key must name
// an ingredient of the recipe and every value must be a positive number.
func applyOverrides(op string, requirements []Requirement, overrides map[uint]float64) error {
	if len(overrides) == 0 {
		return nil
	}

	index := make(map[uint]int, len(requirements))
	for i, req := range requirements {
		index[req.IngredientID] = i
	}

	keys := make([]uint, 0, len(overrides))
	for id := range overrides {
		keys = append(keys, id)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, id := range keys {
		i, ok := index[id]
		if !ok {
			return invalidArgument(op, "override names ingredient %d which the recipe does not use", id)
		}
		value := overrides[id]
		if !validPositive(value) {
			return &Error{
				Kind:       KindInvalidArgument,
				Op:         op,
				Ingredient: requirements[i].Ingredient,
				Message:    fmt.Sprintf("override quantity must be greater than zero, got %v", value),
			}
		}
	}
	for _, id := range keys {
		requirements[index[id]].Quantity = overrides[id]
	}
	return nil
}
