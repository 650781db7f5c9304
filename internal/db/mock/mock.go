package mock

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pantry/internal/catalog"
	appdb "pantry/internal/db"
	applog "pantry/internal/log"
	"pantry/internal/pantry"
)

// DemoUserID owns every seeded recipe and stock record.
const DemoUserID uint = 1

//go:embed kitchen.yaml
var kitchen []byte

type stock struct {
	name      string
	quantity  float64
	threshold float64
	// expiresIn is a day offset from today; nil leaves the record undated.
	expiresIn *int
}

func days(n int) *int { return &n }

var demoStock = []stock{
	{name: "Rice", quantity: 1500, threshold: 500},
	{name: "Flour", quantity: 150, threshold: 250},
	{name: "Milk", quantity: 900, threshold: 500, expiresIn: days(2)},
	{name: "Butter", quantity: 200, threshold: 50, expiresIn: days(20)},
	{name: "Eggs", quantity: 6, threshold: 6, expiresIn: days(9)},
	{name: "Chicken Thigh", quantity: 350, threshold: 0, expiresIn: days(-1)},
	{name: "Soy Sauce", quantity: 250, threshold: 100},
}

// New returns an in-memory sqlite database seeded with a demo kitchen: a
// small catalog with conversions, three recipes and stock for DemoUserID
// that is partly low and partly close to expiry.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	db, err := appdb.OpenMemory("pantry-mock-" + uuid.NewString())
	if err != nil {
		return nil, err
	}

	if err := seed(ctx, db); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	file, err := catalog.ParseFile(bytes.NewReader(kitchen))
	if err != nil {
		return err
	}

	store := catalog.New(db)
	svc := pantry.NewService(db, pantry.Options{})
	if _, err := store.Import(ctx, svc, file); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	today := time.Now().UTC()
	for _, item := range demoStock {
		ingredient, err := store.ResolveRef(ctx, item.name)
		if err != nil {
			return fmt.Errorf("seed stock %s: %w", item.name, err)
		}
		threshold := item.threshold
		opts := pantry.RestockOptions{MinimumThreshold: &threshold}
		if item.expiresIn != nil {
			expires := today.AddDate(0, 0, *item.expiresIn)
			opts.ExpirationDate = &expires
		}
		if _, err := svc.Restock(ctx, DemoUserID, ingredient.ID, item.quantity, opts); err != nil {
			return fmt.Errorf("seed stock %s: %w", item.name, err)
		}
	}
	return nil
}
