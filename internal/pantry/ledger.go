package pantry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	applog "pantry/internal/log"
	"pantry/models"
)

// quantityEpsilon absorbs float noise from unit conversion and scaling when
// comparing stock against requirements.
const quantityEpsilon = 1e-9

// SQLSTATE codes postgres reports when concurrent transactions collide.
const (
	pgDeadlockDetected     = "40P01"
	pgSerializationFailure = "40001"
)

// RestockOptions carries the optional attributes of a restock. On an existing
// record a non-nil value replaces the stored one.
type RestockOptions struct {
	MinimumThreshold *float64
	ExpirationDate   *time.Time
}

// Ledger is the authoritative per-user stock record.
type Ledger struct {
	db               *gorm.DB
	now              func() time.Time
	locks            *recordLocks
	defaultThreshold float64
}

// NewLedger returns a Ledger over db. defaultThreshold seeds the minimum
// threshold of records created by a restock that does not specify one.
func NewLedger(db *gorm.DB, now func() time.Time, defaultThreshold float64) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		db:               db,
		now:              now,
		locks:            newRecordLocks(),
		defaultThreshold: defaultThreshold,
	}
}

// Get returns the user's record for an ingredient. A missing record is
// reported with ok == false rather than an error.
func (l *Ledger) Get(ctx context.Context, userID, ingredientID uint) (models.InventoryRecord, bool, error) {
	var record models.InventoryRecord
	err := l.db.WithContext(ctx).
		Preload("Ingredient").
		Where("user_id = ? AND ingredient_id = ?", userID, ingredientID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.InventoryRecord{}, false, nil
		}
		return models.InventoryRecord{}, false, fmt.Errorf("get inventory: %w", err)
	}
	return record, true, nil
}

// List returns every record of the user ordered by ingredient name.
func (l *Ledger) List(ctx context.Context, userID uint) ([]models.InventoryRecord, error) {
	var records []models.InventoryRecord
	err := l.db.WithContext(ctx).
		Preload("Ingredient").
		Where("user_id = ?", userID).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return ingredientName(records[i]) < ingredientName(records[j])
	})
	return records, nil
}

// quantities returns the stock of the listed ingredients; absent rows are
// omitted and callers treat them as zero. No ids means every ingredient.
func (l *Ledger) quantities(ctx context.Context, userID uint, ingredientIDs []uint) (map[uint]float64, error) {
	query := l.db.WithContext(ctx).Where("user_id = ?", userID)
	if len(ingredientIDs) > 0 {
		query = query.Where("ingredient_id IN ?", ingredientIDs)
	}

	var records []models.InventoryRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load stock: %w", err)
	}

	stock := make(map[uint]float64, len(records))
	for _, record := range records {
		stock[record.IngredientID] = record.Quantity
	}
	return stock, nil
}

// lockRows reads the user's records for ids inside tx. On postgres the rows
// are locked in ingredient order until the transaction ends.
func lockRows(tx *gorm.DB, userID uint, ingredientIDs []uint) (map[uint]models.InventoryRecord, error) {
	rows := make(map[uint]models.InventoryRecord, len(ingredientIDs))
	if len(ingredientIDs) == 0 {
		return rows, nil
	}

	query := tx.Where("user_id = ? AND ingredient_id IN ?", userID, ingredientIDs).Order("ingredient_id asc")
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var records []models.InventoryRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("lock inventory rows: %w", err)
	}
	for _, record := range records {
		rows[record.IngredientID] = record
	}
	return rows, nil
}

// lockFailure maps postgres deadlock and serialization failures to a
// retryable StaleWrite. Any other error is returned as is.
func lockFailure(op string, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgDeadlockDetected, pgSerializationFailure:
		return &Error{Kind: KindStaleWrite, Op: op, Message: "inventory rows changed concurrently; retry the request", Err: err}
	}
	return err
}

// update applies updates to record if nobody else changed it since it was
// read, and returns the stored result.
func (l *Ledger) update(tx *gorm.DB, op string, record models.InventoryRecord, updates map[string]any, now time.Time) (models.InventoryRecord, error) {
	updates["version"] = record.Version + 1
	updates["updated_at"] = now

	result := tx.Model(&models.InventoryRecord{}).
		Where("id = ? AND version = ?", record.ID, record.Version).
		Updates(updates)
	if result.Error != nil {
		return models.InventoryRecord{}, fmt.Errorf("%s: update inventory %d: %w", op, record.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return models.InventoryRecord{}, &Error{
			Kind:    KindStaleWrite,
			Op:      op,
			Message: fmt.Sprintf("inventory record %d changed concurrently; retry the request", record.ID),
		}
	}

	var stored models.InventoryRecord
	if err := tx.First(&stored, record.ID).Error; err != nil {
		return models.InventoryRecord{}, fmt.Errorf("%s: reload inventory %d: %w", op, record.ID, err)
	}
	return stored, nil
}

// Restock adds quantity to the user's stock of an ingredient, creating the
// record when the user has none.
func (l *Ledger) Restock(ctx context.Context, userID, ingredientID uint, quantity float64, opts RestockOptions) (models.InventoryRecord, error) {
	const op = "restock"

	if !validPositive(quantity) {
		return models.InventoryRecord{}, invalidArgument(op, "quantity must be greater than zero, got %v", quantity)
	}
	if opts.MinimumThreshold != nil && !validNonNegative(*opts.MinimumThreshold) {
		return models.InventoryRecord{}, invalidArgument(op, "minimum threshold must not be negative, got %v", *opts.MinimumThreshold)
	}

	ingredient, err := loadIngredient(ctx, l.db, op, ingredientID)
	if err != nil {
		return models.InventoryRecord{}, err
	}

	release, err := l.locks.acquire(ctx, userID, ingredientID)
	if err != nil {
		return models.InventoryRecord{}, fmt.Errorf("%s: wait for inventory lock: %w", op, err)
	}
	defer release()

	var stored models.InventoryRecord
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := lockRows(tx, userID, []uint{ingredientID})
		if err != nil {
			return err
		}
		now := l.now().UTC()

		record, ok := rows[ingredientID]
		if !ok {
			threshold := l.defaultThreshold
			if opts.MinimumThreshold != nil {
				threshold = *opts.MinimumThreshold
			}
			record = models.InventoryRecord{
				UserID:           userID,
				IngredientID:     ingredientID,
				Quantity:         quantity,
				MinimumThreshold: threshold,
				ExpirationDate:   dateOnlyPtr(opts.ExpirationDate),
				Version:          1,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if err := tx.Create(&record).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return &Error{Kind: KindStaleWrite, Op: op, Ingredient: ingredient.Name, Message: "inventory record created concurrently; retry the request"}
				}
				return fmt.Errorf("%s: create inventory: %w", op, err)
			}
			stored = record
			return nil
		}

		updates := map[string]any{"quantity": record.Quantity + quantity}
		if opts.MinimumThreshold != nil {
			updates["minimum_threshold"] = *opts.MinimumThreshold
		}
		if opts.ExpirationDate != nil {
			updates["expiration_date"] = dateOnly(*opts.ExpirationDate)
		}
		stored, err = l.update(tx, op, record, updates, now)
		return err
	})
	if err != nil {
		return models.InventoryRecord{}, lockFailure(op, err)
	}

	stored.Ingredient = &ingredient
	applog.Info(ctx, "inventory restocked",
		"user", userID,
		"ingredient", ingredient.Name,
		"added", quantity,
		"quantity", stored.Quantity,
	)
	return stored, nil
}

func ingredientName(record models.InventoryRecord) string {
	if record.Ingredient == nil {
		return ""
	}
	return record.Ingredient.Name
}

func dateOnly(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dateOnlyPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := dateOnly(*t)
	return &d
}
