package pantry

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"pantry/models"
)

// Requirement is the total canonical quantity of one ingredient a recipe
// needs at the requested servings.
type Requirement struct {
	IngredientID uint                 `json:"ingredient_id"`
	Ingredient   string               `json:"ingredient"`
	Unit         models.CanonicalUnit `json:"unit"`
	Quantity     float64              `json:"quantity"`
}

// RequirementResolver turns recipe rows into canonical requirements.
type RequirementResolver struct {
	db       *gorm.DB
	resolver *Resolver
}

// NewRequirementResolver returns a RequirementResolver that reads the catalog
// from db and converts units with resolver.
func NewRequirementResolver(db *gorm.DB, resolver *Resolver) *RequirementResolver {
	return &RequirementResolver{db: db, resolver: resolver}
}

// Resolve scales every row of recipe to servings and sums rows that name the
// same ingredient. The result is ordered by ingredient name.
func (r *RequirementResolver) Resolve(ctx context.Context, recipe models.Recipe, servings int) ([]Requirement, error) {
	const op = "resolve requirements"

	if recipe.Servings <= 0 {
		return nil, invalidArgument(op, "recipe %q has baseline servings %d", recipe.Name, recipe.Servings)
	}
	if servings < 1 {
		return nil, invalidArgument(op, "servings must be at least 1, got %d", servings)
	}

	names := make([]string, 0, len(recipe.Ingredients))
	for _, row := range recipe.Ingredients {
		names = append(names, row.IngredientName)
	}
	catalog, err := lookupIngredientsByName(ctx, r.db, names)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	scope := Scope{UserID: recipe.UserID}
	scale := float64(servings) / float64(recipe.Servings)
	totals := make(map[uint]*Requirement, len(recipe.Ingredients))

	for _, row := range recipe.Ingredients {
		ingredient, ok := catalog[models.IngredientKey(row.IngredientName)]
		if !ok {
			return nil, &Error{
				Kind:       KindUnknownIngredient,
				Op:         op,
				Ingredient: row.IngredientName,
				Message:    fmt.Sprintf("recipe %q names an ingredient missing from the catalog", recipe.Name),
			}
		}

		factor, err := r.resolver.Resolve(ctx, scope, ingredient, row.Unit)
		if err != nil {
			return nil, err
		}

		amount := row.Quantity * factor * scale
		if req, ok := totals[ingredient.ID]; ok {
			req.Quantity += amount
			continue
		}
		totals[ingredient.ID] = &Requirement{
			IngredientID: ingredient.ID,
			Ingredient:   ingredient.Name,
			Unit:         ingredient.Unit,
			Quantity:     amount,
		}
	}

	requirements := make([]Requirement, 0, len(totals))
	for _, req := range totals {
		requirements = append(requirements, *req)
	}
	sort.Slice(requirements, func(i, j int) bool {
		if requirements[i].Ingredient != requirements[j].Ingredient {
			return requirements[i].Ingredient < requirements[j].Ingredient
		}
		return requirements[i].IngredientID < requirements[j].IngredientID
	})
	return requirements, nil
}

func requirementIDs(requirements []Requirement) []uint {
	ids := make([]uint, 0, len(requirements))
	for _, req := range requirements {
		ids = append(ids, req.IngredientID)
	}
	return ids
}
