package handlers

import (
	"net/http"

	"pantry/internal/pantry"
	"pantry/models"
)

type conversionResponse struct {
	IngredientID  uint                 `json:"ingredient_id"`
	Ingredient    string               `json:"ingredient"`
	Unit          string               `json:"unit"`
	CanonicalUnit models.CanonicalUnit `json:"canonical_unit"`
	Factor        float64              `json:"factor"`
}

type registerConversionRequest struct {
	Ingredient ingredientRef `json:"ingredient"`
	Unit       string        `json:"unit"`
	Factor     float64       `json:"factor"`
}

// ResolveConversion answers GET /api/conversions/{ingredient}/{unit}.
func ResolveConversion(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}

	ingredient, err := store.ResolveRef(r.Context(), r.PathValue("ingredient"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	unit := r.PathValue("unit")
	factor, err := service.ResolveConversion(r.Context(), ingredient.ID, unit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, conversionResponse{
		IngredientID:  ingredient.ID,
		Ingredient:    ingredient.Name,
		Unit:          pantry.NormalizeUnit(unit),
		CanonicalUnit: ingredient.Unit,
		Factor:        factor,
	})
}

// RegisterConversion answers POST /api/conversions.
func RegisterConversion(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}

	var req registerConversionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ingredient, err := store.ResolveRef(r.Context(), string(req.Ingredient))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rule, err := service.RegisterConversion(r.Context(), ingredient.ID, req.Unit, req.Factor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, conversionResponse{
		IngredientID:  ingredient.ID,
		Ingredient:    ingredient.Name,
		Unit:          rule.MeasurementUnit,
		CanonicalUnit: ingredient.Unit,
		Factor:        rule.QuantityInStandardUnit,
	})
}
