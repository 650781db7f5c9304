package handlers

import (
	"maps"
	"net/http"
	"slices"

	"pantry/internal/catalog"
	"pantry/internal/pantry"
)

type cookableResponse struct {
	RecipeID uint `json:"recipe_id"`
	Servings int  `json:"servings"`
	Cookable bool `json:"cookable"`
}

type missingResponse struct {
	RecipeID   uint               `json:"recipe_id"`
	Servings   int                `json:"servings"`
	Shortfalls []pantry.Shortfall `json:"shortfalls"`
}

type cookRequest struct {
	Servings  int                       `json:"servings"`
	Overrides map[ingredientRef]float64 `json:"overrides"`
}

func recipeRequest(w http.ResponseWriter, r *http.Request) (userID, recipeID uint, servings int, ok bool) {
	if !ready(w, r) {
		return 0, 0, 0, false
	}
	userID, ok = requireUser(w, r)
	if !ok {
		return 0, 0, 0, false
	}
	recipeID, err := pathID(r, "recipe")
	if err != nil {
		writeError(w, r, err)
		return 0, 0, 0, false
	}
	servings, err = queryInt(r, "servings", 0)
	if err != nil {
		writeError(w, r, err)
		return 0, 0, 0, false
	}
	if servings < 0 {
		writeError(w, r, invalid("servings must be at least 1, got %d", servings))
		return 0, 0, 0, false
	}
	return userID, recipeID, servings, true
}

// IsCookable answers GET /api/recipes/{recipe}/cookable?servings=N. Servings
// default to the recipe's baseline.
func IsCookable(w http.ResponseWriter, r *http.Request) {
	userID, recipeID, servings, ok := recipeRequest(w, r)
	if !ok {
		return
	}

	cookable, err := service.IsCookable(r.Context(), userID, recipeID, servings)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cookableResponse{RecipeID: recipeID, Servings: servings, Cookable: cookable})
}

// MissingIngredients answers GET /api/recipes/{recipe}/missing?servings=N.
func MissingIngredients(w http.ResponseWriter, r *http.Request) {
	userID, recipeID, servings, ok := recipeRequest(w, r)
	if !ok {
		return
	}

	missing, err := service.MissingIngredients(r.Context(), userID, recipeID, servings)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, missingResponse{RecipeID: recipeID, Servings: servings, Shortfalls: missing})
}

// CookableRecipes answers GET /api/recipes/cookable.
func CookableRecipes(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	report, err := service.CookableRecipes(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Cook answers POST /api/recipes/{recipe}/cook. Override keys are ingredient
// ids or names and are resolved before the cook starts.
func Cook(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	recipeID, err := pathID(r, "recipe")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req cookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Servings < 0 {
		writeError(w, r, invalid("servings must be at least 1, got %d", req.Servings))
		return
	}

	overrides := make(map[uint]float64, len(req.Overrides))
	given := make(map[uint]ingredientRef, len(req.Overrides))
	for _, ref := range slices.Sorted(maps.Keys(req.Overrides)) {
		ingredient, err := store.ResolveRef(r.Context(), string(ref))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if first, dup := given[ingredient.ID]; dup {
			writeError(w, r, invalid("overrides %q and %q both name ingredient %s", first, ref, ingredient.Name))
			return
		}
		given[ingredient.ID] = ref
		overrides[ingredient.ID] = req.Overrides[ref]
	}

	result, err := service.Cook(r.Context(), pantry.CookRequest{
		UserID:    userID,
		RecipeID:  recipeID,
		Servings:  req.Servings,
		Overrides: overrides,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListRecipes answers GET /api/recipes.
func ListRecipes(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	recipes, err := store.ListRecipes(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

// CreateRecipe answers POST /api/recipes.
func CreateRecipe(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var in catalog.RecipeInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	recipe, err := store.CreateRecipe(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

// DeleteRecipe answers DELETE /api/recipes/{recipe}.
func DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	recipeID, err := pathID(r, "recipe")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := store.DeleteRecipe(r.Context(), userID, recipeID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
