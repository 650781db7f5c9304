package handlers

import (
	"net/http"
	"strings"
	"time"

	"pantry/internal/pantry"
	"pantry/models"
)

type inventoryResponse struct {
	IngredientID uint                    `json:"ingredient_id"`
	Ingredient   string                  `json:"ingredient"`
	Found        bool                    `json:"found"`
	Record       *models.InventoryRecord `json:"record"`
}

type restockRequest struct {
	Quantity         float64  `json:"quantity"`
	MinimumThreshold *float64 `json:"minimum_threshold"`
	ExpirationDate   *string  `json:"expiration_date"`
}

// ListInventory answers GET /api/inventory.
func ListInventory(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	records, err := service.ListInventory(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// GetInventory answers GET /api/inventory/{ingredient}. A user without stock
// of the ingredient gets found=false rather than an error.
func GetInventory(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ingredient, err := store.ResolveRef(r.Context(), r.PathValue("ingredient"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	record, found, err := service.GetInventory(r.Context(), userID, ingredient.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := inventoryResponse{IngredientID: ingredient.ID, Ingredient: ingredient.Name, Found: found}
	if found {
		resp.Record = &record
	}
	writeJSON(w, http.StatusOK, resp)
}

// Restock answers POST /api/inventory/{ingredient}/restock.
func Restock(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req restockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	opts := pantry.RestockOptions{MinimumThreshold: req.MinimumThreshold}
	if req.ExpirationDate != nil && strings.TrimSpace(*req.ExpirationDate) != "" {
		date, err := time.Parse(time.DateOnly, strings.TrimSpace(*req.ExpirationDate))
		if err != nil {
			writeError(w, r, invalid("expiration_date must be YYYY-MM-DD, got %q", *req.ExpirationDate))
			return
		}
		opts.ExpirationDate = &date
	}

	ingredient, err := store.ResolveRef(r.Context(), r.PathValue("ingredient"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	record, err := service.Restock(r.Context(), userID, ingredient.ID, req.Quantity, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
