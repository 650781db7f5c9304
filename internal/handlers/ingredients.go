package handlers

import (
	"net/http"

	"pantry/internal/catalog"
)

// ListIngredients answers GET /api/ingredients.
func ListIngredients(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}

	ingredients, err := store.Ingredients(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ingredients)
}

// CreateIngredient answers POST /api/ingredients.
func CreateIngredient(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}

	var in catalog.IngredientInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	ingredient, err := store.CreateIngredient(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ingredient)
}

// UpdateIngredient answers PATCH /api/ingredients/{ingredient}.
func UpdateIngredient(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}

	var patch catalog.IngredientPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	ingredient, err := store.ResolveRef(r.Context(), r.PathValue("ingredient"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := store.UpdateIngredient(r.Context(), ingredient.ID, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteIngredient answers DELETE /api/ingredients/{ingredient}.
func DeleteIngredient(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}

	ingredient, err := store.ResolveRef(r.Context(), r.PathValue("ingredient"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := store.DeleteIngredient(r.Context(), ingredient.ID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
