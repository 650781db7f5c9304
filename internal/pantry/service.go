package pantry

import (
	"context"
	"time"

	"gorm.io/gorm"

	applog "pantry/internal/log"
	"pantry/internal/metrics"
	"pantry/models"
)

// Options tunes a Service.
type Options struct {
	// ClampOverdraw makes Cook consume what exists instead of failing on a
	// shortfall.
	ClampOverdraw bool
	// DefaultMinimumThreshold applies to records created by Restock without
	// an explicit threshold.
	DefaultMinimumThreshold float64
	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Service is the operation surface transports call. It composes the
// resolver, ledger, requirement resolver, feasibility engine, cooking
// coordinator and restock signals over one database.
type Service struct {
	db           *gorm.DB
	metrics      *metrics.Metrics
	resolver     *Resolver
	ledger       *Ledger
	requirements *RequirementResolver
	feasibility  *Feasibility
	coordinator  *Coordinator
	signals      *Signals
}

// NewService wires every component over db.
func NewService(db *gorm.DB, opts Options) *Service {
	resolver := NewResolver(db)
	ledger := NewLedger(db, opts.Now, opts.DefaultMinimumThreshold)
	requirements := NewRequirementResolver(db, resolver)

	return &Service{
		db:           db,
		metrics:      opts.Metrics,
		resolver:     resolver,
		ledger:       ledger,
		requirements: requirements,
		feasibility:  NewFeasibility(db, requirements, ledger),
		coordinator:  NewCoordinator(db, requirements, ledger, opts.ClampOverdraw),
		signals:      NewSignals(ledger),
	}
}

// Resolver exposes the conversion resolver.
func (s *Service) Resolver() *Resolver { return s.resolver }

// Ledger exposes the inventory ledger.
func (s *Service) Ledger() *Ledger { return s.ledger }

// ResolveConversion returns the canonical factor of unit for an ingredient
// under the global table.
func (s *Service) ResolveConversion(ctx context.Context, ingredientID uint, unit string) (float64, error) {
	ingredient, err := loadIngredient(ctx, s.db, "resolve conversion", ingredientID)
	if err != nil {
		return 0, err
	}
	factor, err := s.resolver.Resolve(ctx, GlobalScope, ingredient, unit)
	if err != nil {
		s.observeResolution(err)
		return 0, err
	}
	return factor, nil
}

// RegisterConversion stores a new global conversion rule.
func (s *Service) RegisterConversion(ctx context.Context, ingredientID uint, unit string, factor float64) (models.ConversionRule, error) {
	return s.resolver.Register(ctx, ingredientID, unit, factor)
}

// GetInventory returns the user's record of an ingredient, if any.
func (s *Service) GetInventory(ctx context.Context, userID, ingredientID uint) (models.InventoryRecord, bool, error) {
	return s.ledger.Get(ctx, userID, ingredientID)
}

// ListInventory returns all of the user's records ordered by name.
func (s *Service) ListInventory(ctx context.Context, userID uint) ([]models.InventoryRecord, error) {
	return s.ledger.List(ctx, userID)
}

// IsCookable reports whether the recipe can be made at servings.
func (s *Service) IsCookable(ctx context.Context, userID, recipeID uint, servings int) (bool, error) {
	ok, err := s.feasibility.IsCookable(ctx, userID, recipeID, servings)
	if err != nil {
		s.observeResolution(err)
	}
	return ok, err
}

// MissingIngredients lists the shortfalls blocking the recipe at servings.
func (s *Service) MissingIngredients(ctx context.Context, userID, recipeID uint, servings int) ([]Shortfall, error) {
	missing, err := s.feasibility.Missing(ctx, userID, recipeID, servings)
	if err != nil {
		s.observeResolution(err)
	}
	return missing, err
}

// CookableRecipes evaluates every recipe the user owns.
func (s *Service) CookableRecipes(ctx context.Context, userID uint) (CookableReport, error) {
	report, err := s.feasibility.CookableRecipes(ctx, userID)
	if err != nil {
		return report, err
	}
	for _, failure := range report.Misconfigured {
		s.metrics.ObserveResolutionError(string(failure.Kind))
	}
	return report, nil
}

// Cook consumes the recipe's ingredients atomically.
func (s *Service) Cook(ctx context.Context, req CookRequest) (CookResult, error) {
	applog.Debug(ctx, "cook requested", "user", req.UserID, "recipe", req.RecipeID, "servings", req.Servings)

	result, err := s.coordinator.Cook(ctx, req)
	if err != nil {
		s.observeResolution(err)
		outcome := string(KindOf(err))
		if outcome == "" {
			outcome = "error"
			applog.Error(ctx, "cook failed", "user", req.UserID, "recipe", req.RecipeID, "error", err)
		}
		s.metrics.ObserveCook(outcome)
		return CookResult{}, err
	}
	s.metrics.ObserveCook("ok")
	return result, nil
}

// ShoppingList returns the user's restock candidates.
func (s *Service) ShoppingList(ctx context.Context, userID uint) ([]RestockCandidate, error) {
	return s.signals.ShoppingList(ctx, userID)
}

// ExpiringIngredients returns stock expiring within days.
func (s *Service) ExpiringIngredients(ctx context.Context, userID uint, days int) ([]ExpiringItem, error) {
	return s.signals.ExpiringSoon(ctx, userID, days)
}

// Restock adds stock for an ingredient.
func (s *Service) Restock(ctx context.Context, userID, ingredientID uint, quantity float64, opts RestockOptions) (models.InventoryRecord, error) {
	record, err := s.signals.Restock(ctx, userID, ingredientID, quantity, opts)
	if err != nil {
		if KindOf(err) == "" {
			applog.Error(ctx, "restock failed", "user", userID, "ingredient", ingredientID, "error", err)
		}
		return models.InventoryRecord{}, err
	}
	s.metrics.ObserveRestock()
	return record, nil
}

func (s *Service) observeResolution(err error) {
	switch kind := KindOf(err); kind {
	case KindUnknownConversion, KindUnknownIngredient, KindInvalidFactor:
		s.metrics.ObserveResolutionError(string(kind))
	}
}
