package handlers

import (
	"net/http"
)

// ShoppingList answers GET /api/shopping-list.
func ShoppingList(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	candidates, err := service.ShoppingList(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

// ExpiringIngredients answers GET /api/expiring?days=N.
func ExpiringIngredients(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	days, err := queryInt(r, "days", expiringWindow)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := service.ExpiringIngredients(r.Context(), userID, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
