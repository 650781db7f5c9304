package pantry

import (
	"context"
	"sort"
	"time"

	"pantry/models"
)

// RestockCandidate is an inventory record the user should replenish.
type RestockCandidate struct {
	IngredientID     uint                 `json:"ingredient_id"`
	Ingredient       string               `json:"ingredient"`
	Unit             models.CanonicalUnit `json:"unit"`
	Quantity         float64              `json:"quantity"`
	MinimumThreshold float64              `json:"minimum_threshold"`
	ExpirationDate   *time.Time           `json:"expiration_date,omitempty"`
	BelowThreshold   bool                 `json:"below_threshold"`
	Expired          bool                 `json:"expired"`
}

// severity orders candidates: expired and low first, then expired, then low.
func (c RestockCandidate) severity() int {
	switch {
	case c.Expired && c.BelowThreshold:
		return 0
	case c.Expired:
		return 1
	default:
		return 2
	}
}

// ExpiringItem is stock that expires within the requested window.
type ExpiringItem struct {
	IngredientID   uint                 `json:"ingredient_id"`
	Ingredient     string               `json:"ingredient"`
	Unit           models.CanonicalUnit `json:"unit"`
	Quantity       float64              `json:"quantity"`
	ExpirationDate time.Time            `json:"expiration_date"`
	DaysLeft       int                  `json:"days_left"`
}

// Signals derives restock hints from the ledger.
type Signals struct {
	ledger *Ledger
	now    func() time.Time
}

// NewSignals returns a Signals generator over ledger.
func NewSignals(ledger *Ledger) *Signals {
	return &Signals{ledger: ledger, now: ledger.now}
}

func (s *Signals) today() time.Time {
	return dateOnly(s.now())
}

// ShoppingList returns every record below its minimum threshold or past its
// expiration date.
func (s *Signals) ShoppingList(ctx context.Context, userID uint) ([]RestockCandidate, error) {
	records, err := s.ledger.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	candidates := []RestockCandidate{}
	for _, record := range records {
		low := record.Quantity < record.MinimumThreshold
		expired := record.ExpirationDate != nil && dateOnly(*record.ExpirationDate).Before(today)
		if !low && !expired {
			continue
		}
		candidate := RestockCandidate{
			IngredientID:     record.IngredientID,
			Ingredient:       ingredientName(record),
			Quantity:         record.Quantity,
			MinimumThreshold: record.MinimumThreshold,
			ExpirationDate:   record.ExpirationDate,
			BelowThreshold:   low,
			Expired:          expired,
		}
		if record.Ingredient != nil {
			candidate.Unit = record.Ingredient.Unit
		}
		candidates = append(candidates, candidate)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.severity() != b.severity() {
			return a.severity() < b.severity()
		}
		return a.Ingredient < b.Ingredient
	})
	return candidates, nil
}

// ExpiringSoon returns stock expiring between today and today+days
// inclusive. Stock that has already expired is reported by ShoppingList
// instead.
func (s *Signals) ExpiringSoon(ctx context.Context, userID uint, days int) ([]ExpiringItem, error) {
	if days < 0 {
		return nil, invalidArgument("expiring ingredients", "days must not be negative, got %d", days)
	}

	records, err := s.ledger.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := s.today()
	horizon := today.AddDate(0, 0, days)
	items := []ExpiringItem{}
	for _, record := range records {
		if record.ExpirationDate == nil {
			continue
		}
		expires := dateOnly(*record.ExpirationDate)
		if expires.Before(today) || expires.After(horizon) {
			continue
		}
		item := ExpiringItem{
			IngredientID:   record.IngredientID,
			Ingredient:     ingredientName(record),
			Quantity:       record.Quantity,
			ExpirationDate: expires,
			DaysLeft:       int(expires.Sub(today).Hours() / 24),
		}
		if record.Ingredient != nil {
			item.Unit = record.Ingredient.Unit
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].ExpirationDate.Equal(items[j].ExpirationDate) {
			return items[i].ExpirationDate.Before(items[j].ExpirationDate)
		}
		return items[i].Ingredient < items[j].Ingredient
	})
	return items, nil
}

// Restock adds stock for an ingredient; see Ledger.Restock.
func (s *Signals) Restock(ctx context.Context, userID, ingredientID uint, quantity float64, opts RestockOptions) (models.InventoryRecord, error) {
	return s.ledger.Restock(ctx, userID, ingredientID, quantity, opts)
}
