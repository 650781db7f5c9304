package pantry

import (
	"context"

	"gorm.io/gorm"

	applog "pantry/internal/log"
	"pantry/models"
)

// Shortfall describes one ingredient the user lacks for a recipe.
type Shortfall struct {
	IngredientID uint                 `json:"ingredient_id"`
	Ingredient   string               `json:"ingredient"`
	Unit         models.CanonicalUnit `json:"unit"`
	Required     float64              `json:"required"`
	Available    float64              `json:"available"`
	Shortfall    float64              `json:"shortfall"`
}

// RecipeFailure is a recipe whose requirements could not be resolved.
type RecipeFailure struct {
	RecipeID uint   `json:"recipe_id"`
	Recipe   string `json:"recipe"`
	Kind     Kind   `json:"code"`
	Error    string `json:"error"`
}

// CookableReport lists the user's recipes that can be made at their baseline
// servings, and separately the recipes that are misconfigured.
type CookableReport struct {
	Recipes       []models.Recipe `json:"recipes"`
	Misconfigured []RecipeFailure `json:"misconfigured"`
}

// Feasibility compares recipe requirements against the ledger. It never
// mutates inventory.
type Feasibility struct {
	db           *gorm.DB
	requirements *RequirementResolver
	ledger       *Ledger
}

// NewFeasibility wires a Feasibility engine.
func NewFeasibility(db *gorm.DB, requirements *RequirementResolver, ledger *Ledger) *Feasibility {
	return &Feasibility{db: db, requirements: requirements, ledger: ledger}
}

// IsCookable reports whether the user holds enough of every ingredient to
// make the recipe at servings. Zero servings means the recipe's baseline.
func (f *Feasibility) IsCookable(ctx context.Context, userID, recipeID uint, servings int) (bool, error) {
	missing, err := f.Missing(ctx, userID, recipeID, servings)
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}

// Missing lists every ingredient whose stock is below the requirement,
// ordered by ingredient name. An ingredient the user never stocked counts as
// zero.
func (f *Feasibility) Missing(ctx context.Context, userID, recipeID uint, servings int) ([]Shortfall, error) {
	const op = "missing ingredients"

	recipe, err := loadRecipe(ctx, f.db, op, userID, recipeID)
	if err != nil {
		return nil, err
	}
	if servings == 0 {
		servings = recipe.Servings
	}
	requirements, err := f.requirements.Resolve(ctx, recipe, servings)
	if err != nil {
		return nil, err
	}
	stock, err := f.ledger.quantities(ctx, userID, requirementIDs(requirements))
	if err != nil {
		return nil, err
	}
	return shortfalls(requirements, stock), nil
}

// CookableRecipes evaluates every recipe the user owns at its baseline
// servings. Stock is read once for the whole call.
func (f *Feasibility) CookableRecipes(ctx context.Context, userID uint) (CookableReport, error) {
	report := CookableReport{
		Recipes:       []models.Recipe{},
		Misconfigured: []RecipeFailure{},
	}

	recipes, err := listRecipes(ctx, f.db, userID)
	if err != nil {
		return report, err
	}
	if len(recipes) == 0 {
		return report, nil
	}

	stock, err := f.ledger.quantities(ctx, userID, nil)
	if err != nil {
		return report, err
	}

	for _, recipe := range recipes {
		requirements, err := f.requirements.Resolve(ctx, recipe, recipe.Servings)
		if err != nil {
			kind := KindOf(err)
			if kind == "" {
				return report, err
			}
			applog.Warn(ctx, "recipe requirements unresolved",
				"recipe", recipe.Name,
				"code", string(kind),
				"error", err,
			)
			report.Misconfigured = append(report.Misconfigured, RecipeFailure{
				RecipeID: recipe.ID,
				Recipe:   recipe.Name,
				Kind:     kind,
				Error:    err.Error(),
			})
			continue
		}
		if len(shortfalls(requirements, stock)) == 0 {
			report.Recipes = append(report.Recipes, recipe)
		}
	}
	return report, nil
}

func shortfalls(requirements []Requirement, stock map[uint]float64) []Shortfall {
	missing := []Shortfall{}
	for _, req := range requirements {
		available := stock[req.IngredientID]
		if available+quantityEpsilon >= req.Quantity {
			continue
		}
		missing = append(missing, Shortfall{
			IngredientID: req.IngredientID,
			Ingredient:   req.Ingredient,
			Unit:         req.Unit,
			Required:     req.Quantity,
			Available:    available,
			Shortfall:    req.Quantity - available,
		})
	}
	return missing
}
